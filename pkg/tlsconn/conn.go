package tlsconn

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/sarahazel/tls-core/internal/constants"
	qerrors "github.com/sarahazel/tls-core/internal/errors"
	"github.com/sarahazel/tls-core/pkg/cryptoprim"
	"github.com/sarahazel/tls-core/pkg/metrics"
	"github.com/sarahazel/tls-core/pkg/tlscore"
	"github.com/sarahazel/tls-core/pkg/wire"
)

// Conn is a single TLS connection: a net.Conn plus the tlscore state
// machine driving it, the per-direction record ciphers derived from
// SetKeyBlock, and the framing/fragmentation logic needed to put
// handshake messages and application data on the wire.
type Conn struct {
	raw   net.Conn
	state *tlscore.ConnectionState
	rand  io.Reader

	cipher   wire.CipherSuiteParams
	txCipher *cipherState
	rxCipher *cipherState

	readTimeout  time.Duration
	writeTimeout time.Duration

	writeMu sync.Mutex

	closedMu sync.RWMutex
	closed   bool

	// rxBuf holds the unread remainder of the most recent application-data
	// record; Read reads a new record only once it is empty.
	rxBuf []byte

	// lastClientRandom caches the random this connection drew for its own
	// ClientHello, since StartHandshakeClient consumes it by value and
	// encodeClientHello needs the same bytes.
	lastClientRandom []byte

	// observer records handshake/record metrics and traces when set; nil
	// means no observability, not a panic.
	observer *metrics.ConnectionObserver
}

// Config holds the dial/accept-time parameters for a Conn.
type Config struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Tickets      *TicketManager              // optional ticket manager; the handshake drivers do not read it
	Observer     *metrics.ConnectionObserver // optional handshake/record metrics and tracing
}

// DefaultConfig returns sensible defaults: 30-second read/write timeouts.
func DefaultConfig() Config {
	return Config{ReadTimeout: 30 * time.Second, WriteTimeout: 30 * time.Second}
}

func newConn(raw net.Conn, role tlscore.Role, prng cryptoprim.PRNG, cfg Config) *Conn {
	return &Conn{
		raw:          raw,
		state:        tlscore.NewConnectionState(role, prng),
		rand:         cryptoprim.Reader,
		readTimeout:  cfg.ReadTimeout,
		writeTimeout: cfg.WriteTimeout,
		observer:     cfg.Observer,
	}
}

// State exposes the connection's tlscore state for callers that need to
// inspect the negotiated version, cipher, or handshake status directly.
func (c *Conn) State() *tlscore.ConnectionState { return c.state }

// SetObserver attaches an observer after construction. Call it before
// ClientHandshake/ServerHandshake to see handshake-phase events.
func (c *Conn) SetObserver(o *metrics.ConnectionObserver) { c.observer = o }

// engageTxCipher installs the outbound record cipher once SetKeyBlock has
// run and the caller is about to send its ChangeCipherSpec.
func (c *Conn) engageTxCipher() error {
	params, ok := c.state.Cipher()
	if !ok {
		return qerrors.NewInternalError("engageTxCipher", "cipher not negotiated")
	}
	c.cipher = params
	cs, err := c.txCryptState()
	if err != nil {
		return err
	}
	cipher, err := newCipherState(params, cs)
	if err != nil {
		return err
	}
	c.txCipher = cipher
	c.state.SwitchTxEncryption()
	return nil
}

func (c *Conn) engageRxCipher() error {
	params, ok := c.state.Cipher()
	if !ok {
		return qerrors.NewInternalError("engageRxCipher", "cipher not negotiated")
	}
	c.cipher = params
	cs, err := c.rxCryptState()
	if err != nil {
		return err
	}
	cipher, err := newCipherState(params, cs)
	if err != nil {
		return err
	}
	c.rxCipher = cipher
	c.state.SwitchRxEncryption()
	return nil
}

// writeRecord frames and sends one record of the given content type,
// fragmenting plaintext longer than MaxRecordLength into multiple
// records as RFC 5246 §6.2.1 requires.
func (c *Conn) writeRecord(ct wire.ContentType, plaintext []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.writeTimeout > 0 {
		_ = c.raw.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}

	if len(plaintext) == 0 {
		return c.writeOneFragment(ct, plaintext)
	}
	for offset := 0; offset < len(plaintext); {
		end := offset + constants.MaxRecordLength
		if end > len(plaintext) {
			end = len(plaintext)
		}
		if err := c.writeOneFragment(ct, plaintext[offset:end]); err != nil {
			return err
		}
		offset = end
	}
	return nil
}

func (c *Conn) writeOneFragment(ct wire.ContentType, fragment []byte) error {
	var done func(error)
	if c.observer != nil {
		_, done = c.observer.OnEncrypt(context.Background(), len(fragment))
	}
	sealed, err := c.sealRecord(ct, fragment)
	if done != nil {
		done(err)
	}
	if err != nil {
		return err
	}
	hdr := wire.RecordHeader{Type: ct, Version: c.state.Version(), Length: uint16(len(sealed))}
	out := append(wire.EncodeHeader(hdr), sealed...)
	_, err = c.raw.Write(out)
	return err
}

// readRecord reads and deframes exactly one record, returning its content
// type and decrypted fragment.
func (c *Conn) readRecord() (wire.ContentType, []byte, error) {
	if c.readTimeout > 0 {
		_ = c.raw.SetReadDeadline(time.Now().Add(c.readTimeout))
	}

	hdrBytes := make([]byte, constants.RecordHeaderSize)
	if _, err := io.ReadFull(c.raw, hdrBytes); err != nil {
		return 0, nil, err
	}
	hdr, err := wire.DecodeHeader(hdrBytes)
	if err != nil {
		return 0, nil, err
	}
	if hdr.Length > constants.MaxRecordLength+2048 {
		return 0, nil, qerrors.ErrMessageTooLarge
	}

	fragment := make([]byte, hdr.Length)
	if _, err := io.ReadFull(c.raw, fragment); err != nil {
		return 0, nil, err
	}

	var done func(error)
	if c.observer != nil {
		_, done = c.observer.OnDecrypt(context.Background(), len(fragment))
	}
	plaintext, err := c.openRecord(hdr.Type, hdr.Length, fragment)
	if done != nil {
		done(err)
	}
	if err != nil {
		if c.observer != nil && errors.Is(err, qerrors.ErrAuthenticationFailed) {
			c.observer.OnAuthFailure()
		}
		return 0, nil, err
	}
	return hdr.Type, plaintext, nil
}

func (c *Conn) txCryptState() (*tlscore.CryptState, error) {
	return c.state.TxCryptState()
}

func (c *Conn) rxCryptState() (*tlscore.CryptState, error) {
	return c.state.RxCryptState()
}

// Write sends data as one or more application_data records. The
// handshake must have completed (tx encryption engaged) before Write is
// called on the connection's intended use, though nothing here enforces
// that beyond whatever sealRecord does for an unencrypted direction.
func (c *Conn) Write(data []byte) (int, error) {
	if c.isClosed() {
		return 0, qerrors.ErrConnectionClosed
	}
	if err := c.writeRecord(wire.ContentTypeApplicationData, data); err != nil {
		return 0, err
	}
	return len(data), nil
}

// Read returns decrypted application data. It reads a new record only when
// no data from an earlier record is left, and returns at most the data of
// one record, so a single call may fill less than buf.
func (c *Conn) Read(buf []byte) (int, error) {
	if c.isClosed() {
		return 0, qerrors.ErrConnectionClosed
	}
	for len(c.rxBuf) == 0 {
		ct, plaintext, err := c.readRecord()
		if err != nil {
			return 0, err
		}
		switch ct {
		case wire.ContentTypeApplicationData:
			c.rxBuf = plaintext
		case wire.ContentTypeAlert:
			alert, err := wire.DecodeAlert(plaintext)
			if err != nil {
				return 0, err
			}
			if alert.Code == wire.AlertCloseNotify {
				c.markClosed()
				return 0, io.EOF
			}
			return 0, qerrors.NewProtocolError("alert", io.ErrUnexpectedEOF)
		default:
			return 0, qerrors.NewProtocolError("read", qerrors.ErrInvalidMessage)
		}
	}
	n := copy(buf, c.rxBuf)
	c.rxBuf = c.rxBuf[n:]
	return n, nil
}

// Close sends a close_notify alert (best effort) and closes the
// underlying connection.
func (c *Conn) Close() error {
	c.markClosed()
	_ = c.writeRecord(wire.ContentTypeAlert, wire.EncodeAlert(wire.AlertMessage{
		Level: wire.AlertLevelWarning, Code: wire.AlertCloseNotify,
	}))
	err := c.raw.Close()
	if c.observer != nil {
		c.observer.OnSessionEnd()
	}
	return err
}

func (c *Conn) isClosed() bool {
	c.closedMu.RLock()
	defer c.closedMu.RUnlock()
	return c.closed
}

func (c *Conn) markClosed() {
	c.closedMu.Lock()
	c.closed = true
	c.closedMu.Unlock()
}
