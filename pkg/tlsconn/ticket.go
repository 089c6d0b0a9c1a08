package tlsconn

import (
	"encoding/binary"
	"sync"
	"time"

	"github.com/sarahazel/tls-core/internal/constants"
	qerrors "github.com/sarahazel/tls-core/internal/errors"
	"github.com/sarahazel/tls-core/pkg/cryptoprim"
)

// SessionTicket holds the state needed to resume a connection without a
// full handshake: the negotiated version and cipher suite, the 48-byte
// TLS master secret, and when the ticket was issued.
type SessionTicket struct {
	Version      uint8
	CipherSuite  constants.CipherSuite
	MasterSecret []byte
	CreatedAt    time.Time
}

// TicketManager encrypts and decrypts SessionTickets under a rotating
// AES-256-GCM key, accepting the previous key for one rotation cycle so
// tickets issued just before a rotation still decrypt.
type TicketManager struct {
	mu          sync.RWMutex
	currentKey  []byte
	previousKey []byte
	lifetime    time.Duration
}

// NewTicketManager creates a ticket manager keyed by a 32-byte secret.
func NewTicketManager(key []byte, lifetime time.Duration) (*TicketManager, error) {
	if len(key) != constants.TicketKeySize {
		return nil, qerrors.ErrInvalidKeySize
	}
	if lifetime == 0 {
		lifetime = constants.TicketDefaultLifetime * time.Hour
	}
	return &TicketManager{currentKey: key, lifetime: lifetime}, nil
}

// RotateKey installs newKey as current, demoting the prior key so
// in-flight tickets keep decrypting for one more rotation.
func (tm *TicketManager) RotateKey(newKey []byte) error {
	if len(newKey) != constants.TicketKeySize {
		return qerrors.ErrInvalidKeySize
	}
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.previousKey = tm.currentKey
	tm.currentKey = newKey
	return nil
}

// ticketAEAD builds the fixed-nonce AEAD cipher a ticket is sealed under.
// Tickets use a random per-ticket nonce (stored as the AEAD's fixed IV
// parameter, since each ticket is sealed exactly once under sequence 0)
// rather than the record layer's sequence-derived nonce.
func ticketAEAD(key []byte) (*cryptoprim.AEADCipher, []byte, error) {
	nonce, err := cryptoprim.SecureRandomBytes(4)
	if err != nil {
		return nil, nil, err
	}
	aead, err := cryptoprim.NewAESGCM(key, nonce)
	if err != nil {
		return nil, nil, err
	}
	return aead, nonce, nil
}

// EncryptTicket serializes and seals a session ticket. The wire form is
// nonce(4) || seal(version(1) || cipherSuite(2) || masterSecret(48) ||
// createdAt(8)).
func (tm *TicketManager) EncryptTicket(ticket *SessionTicket) ([]byte, error) {
	if len(ticket.MasterSecret) != constants.MasterSecretSize {
		return nil, qerrors.ErrInvalidMessage
	}

	tm.mu.RLock()
	key := tm.currentKey
	tm.mu.RUnlock()

	plaintext := make([]byte, constants.TicketPlaintextSize)
	plaintext[0] = ticket.Version
	binary.BigEndian.PutUint16(plaintext[1:3], uint16(ticket.CipherSuite))
	copy(plaintext[3:3+constants.MasterSecretSize], ticket.MasterSecret)

	unixTime := ticket.CreatedAt.Unix()
	if unixTime < 0 {
		return nil, qerrors.ErrInvalidMessage
	}
	binary.BigEndian.PutUint64(plaintext[3+constants.MasterSecretSize:], uint64(unixTime))

	aead, nonce, err := ticketAEAD(key)
	if err != nil {
		return nil, err
	}
	sealed := aead.Seal(0, plaintext, nil)
	return append(nonce, sealed...), nil
}

// DecryptTicket verifies and deserializes a ticket, trying the current
// key and falling back to the previous key across a rotation boundary.
func (tm *TicketManager) DecryptTicket(data []byte) (*SessionTicket, error) {
	if len(data) < 4 {
		return nil, qerrors.ErrInvalidTicket
	}
	nonce, sealed := data[:4], data[4:]

	tm.mu.RLock()
	currentKey, previousKey, lifetime := tm.currentKey, tm.previousKey, tm.lifetime
	tm.mu.RUnlock()

	plaintext, err := decryptTicketWithKey(currentKey, nonce, sealed)
	if err != nil && previousKey != nil {
		plaintext, err = decryptTicketWithKey(previousKey, nonce, sealed)
	}
	if err != nil {
		return nil, qerrors.ErrInvalidTicket
	}
	if len(plaintext) != constants.TicketPlaintextSize {
		return nil, qerrors.ErrInvalidTicket
	}

	unixTime := binary.BigEndian.Uint64(plaintext[3+constants.MasterSecretSize:])
	if unixTime > 1<<62 {
		return nil, qerrors.ErrInvalidTicket
	}

	ticket := &SessionTicket{
		Version:      plaintext[0],
		CipherSuite:  constants.CipherSuite(binary.BigEndian.Uint16(plaintext[1:3])),
		MasterSecret: make([]byte, constants.MasterSecretSize),
		CreatedAt:    time.Unix(int64(unixTime), 0),
	}
	copy(ticket.MasterSecret, plaintext[3:3+constants.MasterSecretSize])

	if time.Since(ticket.CreatedAt) > lifetime {
		return nil, qerrors.ErrExpiredTicket
	}
	if cryptoprim.FIPSMode() && !ticket.CipherSuite.IsFIPSApproved() {
		return nil, qerrors.ErrCipherSuiteNotFIPSApproved
	}
	return ticket, nil
}

func decryptTicketWithKey(key, nonce, sealed []byte) ([]byte, error) {
	if key == nil {
		return nil, qerrors.ErrInvalidTicket
	}
	aead, err := cryptoprim.NewAESGCM(key, nonce)
	if err != nil {
		return nil, err
	}
	return aead.Open(0, sealed, nil)
}
