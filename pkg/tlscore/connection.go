package tlscore

import (
	"github.com/sarahazel/tls-core/internal/errors"
	"github.com/sarahazel/tls-core/pkg/cryptoprim"
	"github.com/sarahazel/tls-core/pkg/wire"
)

// Role is the immutable client/server flag a ConnectionState is created
// with. It is never mutated after construction.
type Role struct {
	isClient bool
}

// RoleClient and RoleServer are the two values Role can take.
var (
	RoleClient = Role{isClient: true}
	RoleServer = Role{isClient: false}
)

func (r Role) IsClient() bool { return r.isClient }
func (r Role) String() string {
	if r.isClient {
		return "client"
	}
	return "server"
}

// CryptState is the symmetric key material for one direction of one
// epoch: the bulk encryption key, its IV (block-cipher IV or AEAD fixed
// IV/salt), and the MAC secret (empty for AEAD suites, which fold
// authentication into the cipher itself).
type CryptState struct {
	Key       []byte
	IV        []byte
	MACSecret []byte
}

// MacState is a direction's running record sequence counter. It starts
// at 0 and advances by one on every successful MakeDigest call in that
// direction; it never decreases and is never reset within a connection.
type MacState struct {
	sequence uint64
}

// Sequence returns the next sequence number MakeDigest will consume.
func (m MacState) Sequence() uint64 { return m.sequence }

// ConnectionState is the single mutable object this package manipulates.
// It is exclusively owned by one driver (the record dispatcher) at a
// time; concurrent access from multiple goroutines is undefined.
type ConnectionState struct {
	role    Role
	version wire.Version
	status  Status

	handshake *handshakeState // nil outside a handshake

	txEncrypted bool
	rxEncrypted bool
	txCrypt     *CryptState
	rxCrypt     *CryptState
	txMAC       *MacState
	rxMAC       *MacState

	cipher *wire.CipherSuiteParams

	prng cryptoprim.PRNG
}

// NewConnectionState builds a fresh ConnectionState. Role must be supplied
// explicitly by the caller; there is no implicit server default. Version
// defaults to TLS1.0 and is overwritten by SetVersion or the handshake
// start operations once the actual negotiated/offered version is known.
func NewConnectionState(role Role, prng cryptoprim.PRNG) *ConnectionState {
	return &ConnectionState{
		role:    role,
		version: wire.VersionTLS10,
		status:  StatusInit,
		prng:    prng,
	}
}

// Role returns the connection's immutable client/server role.
func (c *ConnectionState) Role() Role { return c.role }

// Version returns the currently negotiated (or, pre-negotiation, offered)
// protocol version.
func (c *ConnectionState) Version() wire.Version { return c.version }

// SetVersion installs the negotiated protocol version.
func (c *ConnectionState) SetVersion(v wire.Version) { c.version = v }

// Status returns the current handshake/connection status.
func (c *ConnectionState) Status() Status { return c.status }

// Cipher returns the negotiated cipher suite parameters, or false if no
// cipher has been selected yet.
func (c *ConnectionState) Cipher() (wire.CipherSuiteParams, bool) {
	if c.cipher == nil {
		return wire.CipherSuiteParams{}, false
	}
	return *c.cipher, true
}

// SetCipher installs the negotiated cipher suite. Once set it is never
// cleared within a connection, even across EndHandshake.
func (c *ConnectionState) SetCipher(params wire.CipherSuiteParams) {
	p := params
	c.cipher = &p
}

// TxEncrypted and RxEncrypted report whether the respective direction has
// engaged its negotiated cipher. Once true, never reverts to false within
// a connection.
func (c *ConnectionState) TxEncrypted() bool { return c.txEncrypted }
func (c *ConnectionState) RxEncrypted() bool { return c.rxEncrypted }

// SwitchTxEncryption and SwitchRxEncryption engage encryption for the
// respective direction. Idempotent, and not reversible within a
// connection.
func (c *ConnectionState) SwitchTxEncryption() { c.txEncrypted = true }
func (c *ConnectionState) SwitchRxEncryption() { c.rxEncrypted = true }

// TxCryptState and RxCryptState return the direction's installed key
// material, or an internal error if SetKeyBlock has not run yet. Callers
// outside this package use these to build the actual record cipher
// object; tlscore itself never performs bulk encryption.
func (c *ConnectionState) TxCryptState() (*CryptState, error) {
	if c.txCrypt == nil {
		return nil, newInternalError("TxCryptState", "key material not set")
	}
	return c.txCrypt, nil
}

func (c *ConnectionState) RxCryptState() (*CryptState, error) {
	if c.rxCrypt == nil {
		return nil, newInternalError("RxCryptState", "key material not set")
	}
	return c.rxCrypt, nil
}

// TxSequence and RxSequence return the next record sequence number for
// their direction, or false if that direction's MAC state has not been
// installed yet (i.e. SetKeyBlock has not run).
func (c *ConnectionState) TxSequence() (uint64, bool) {
	if c.txMAC == nil {
		return 0, false
	}
	return c.txMAC.sequence, true
}

func (c *ConnectionState) RxSequence() (uint64, bool) {
	if c.rxMAC == nil {
		return 0, false
	}
	return c.rxMAC.sequence, true
}

// WithPRNG is the exclusive path for sampling randomness from the
// connection's PRNG. f consumes the current PRNG and returns a value plus
// the PRNG's successor; the successor is installed before WithPRNG
// returns the value to the caller.
func (c *ConnectionState) WithPRNG(f func(cryptoprim.PRNG) ([]byte, cryptoprim.PRNG)) []byte {
	value, next := f(c.prng)
	c.prng = next
	return value
}

func newUnexpectedPacket(status Status, descriptor string) error {
	return errors.NewUnexpectedPacket(status.String(), descriptor)
}

func newInternalError(site, violated string) error {
	return errors.NewInternalError(site, violated)
}
