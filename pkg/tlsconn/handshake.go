package tlsconn

import (
	"context"
	"crypto/ecdh"
	"crypto/rsa"
	"crypto/x509"

	"golang.org/x/crypto/cryptobyte"

	"github.com/sarahazel/tls-core/internal/constants"
	qerrors "github.com/sarahazel/tls-core/internal/errors"
	"github.com/sarahazel/tls-core/pkg/cryptoprim"
	"github.com/sarahazel/tls-core/pkg/wire"
)

// namedCurve identifiers (RFC 8422 §5.1.1 / the IANA TLS Supported Groups
// registry): the two subset this core's ECDHE support covers.
const (
	namedCurveSecp256r1 uint16 = 23
	namedCurveX25519    uint16 = 29
)

func curveToNamedCurve(c cryptoprim.Curve) uint16 {
	if c == cryptoprim.CurveX25519 {
		return namedCurveX25519
	}
	return namedCurveSecp256r1
}

func namedCurveToCurve(nc uint16) (cryptoprim.Curve, error) {
	switch nc {
	case namedCurveX25519:
		return cryptoprim.CurveX25519, nil
	case namedCurveSecp256r1:
		return cryptoprim.CurveP256, nil
	default:
		return 0, qerrors.ErrUnsupportedCipherSuite
	}
}

// ClientIdentity is the material a client handshake needs to offer: the
// protocol version to propose and the cipher suites it supports, in
// preference order.
type ClientIdentity struct {
	Version      wire.Version
	CipherSuites []constants.CipherSuite
}

// ServerIdentity is the material a server handshake needs: its
// certificate chain and RSA private key (RSA key-transport suites) or
// ECDHE key pair (ECDHE suites), selected per negotiated suite.
type ServerIdentity struct {
	Certificate []byte // DER-encoded leaf certificate
	RSAKey      *rsa.PrivateKey
	ECDHECurve  cryptoprim.Curve
	CipherSuite constants.CipherSuite
}

// handshakeIO is the minimal handshake-message send/receive surface the
// driver below needs; Conn implements it by wrapping writeRecord and an
// internal handshake-message reader that deframes records into the
// logical handshake-message stream (RFC 5246 §6.2.1 records are
// independent of handshake message boundaries).
type handshakeIO struct {
	conn *Conn
	// rxFragment buffers a partially consumed handshake record, since a
	// single record may carry more than one handshake message and a
	// single handshake message may span more than one record.
	rxFragment []byte
}

func (h *handshakeIO) send(typ wire.HandshakeType, body []byte) error {
	msg := wire.EncodeHandshakeMessage(typ, body)
	if err := h.conn.state.UpdateHandshakeDigest(msg); err != nil {
		return err
	}
	return h.conn.writeRecord(wire.ContentTypeHandshake, msg)
}

func (h *handshakeIO) recv() (wire.HandshakeType, []byte, error) {
	for len(h.rxFragment) < constants.HandshakeHeaderSize {
		ct, plaintext, err := h.conn.readRecord()
		if err != nil {
			return 0, nil, err
		}
		if ct != wire.ContentTypeHandshake {
			return 0, nil, h.conn.handleNonHandshakeRecord(ct, plaintext)
		}
		h.rxFragment = append(h.rxFragment, plaintext...)
	}
	hdr, err := wire.DecodeHandshakeHeader(h.rxFragment)
	if err != nil {
		return 0, nil, err
	}
	total := constants.HandshakeHeaderSize + int(hdr.Length)
	for len(h.rxFragment) < total {
		ct, plaintext, err := h.conn.readRecord()
		if err != nil {
			return 0, nil, err
		}
		if ct != wire.ContentTypeHandshake {
			return 0, nil, h.conn.handleNonHandshakeRecord(ct, plaintext)
		}
		h.rxFragment = append(h.rxFragment, plaintext...)
	}

	msg := h.rxFragment[:total]
	h.rxFragment = h.rxFragment[total:]
	if err := h.conn.state.UpdateHandshakeDigest(msg); err != nil {
		return 0, nil, err
	}
	return hdr.Type, msg[constants.HandshakeHeaderSize:], nil
}

func (c *Conn) handleNonHandshakeRecord(ct wire.ContentType, plaintext []byte) error {
	if ct == wire.ContentTypeAlert {
		alert, err := wire.DecodeAlert(plaintext)
		if err != nil {
			return err
		}
		return qerrors.NewProtocolError("alert", qerrors.NewProtocolError(alert.Code.String(), qerrors.ErrInvalidMessage))
	}
	return qerrors.NewProtocolError("handshake", qerrors.ErrInvalidMessage)
}

func (c *Conn) sendChangeCipherSpec() error {
	if err := c.writeRecord(wire.ContentTypeChangeCipherSpec, []byte{1}); err != nil {
		return err
	}
	return c.engageTxCipher()
}

func (c *Conn) recvChangeCipherSpec(io *handshakeIO) error {
	ct, plaintext, err := c.readRecord()
	if err != nil {
		return err
	}
	if ct != wire.ContentTypeChangeCipherSpec || len(plaintext) != 1 || plaintext[0] != 1 {
		return qerrors.ErrInvalidMessage
	}
	return c.engageRxCipher()
}

func offeredCipherSuite(offered []constants.CipherSuite, chosen constants.CipherSuite) bool {
	for _, cs := range offered {
		if cs == chosen {
			return true
		}
	}
	return false
}

// observeHandshake runs a handshake driver through c's observer, if one is
// attached: session-start/failed bookkeeping around the run, plus a span
// and latency sample for the handshake itself. With no observer attached it
// just runs the driver.
func (c *Conn) observeHandshake(run func() error) error {
	if c.observer == nil {
		return run()
	}
	c.observer.OnSessionStart()
	_, done := c.observer.OnHandshakeStart(context.Background())
	err := run()
	done(err)
	if err != nil {
		c.observer.OnProtocolError(err)
		c.observer.OnSessionFailed(err)
	}
	return err
}

// ClientHandshake drives a full client-role handshake over c, proposing
// id.CipherSuites and branching the key-exchange flow (RSA key transport
// vs ECDHE) on whichever suite the server selects in its ServerHello.
func ClientHandshake(c *Conn, id ClientIdentity) error {
	return c.observeHandshake(func() error { return doClientHandshake(c, id) })
}

func doClientHandshake(c *Conn, id ClientIdentity) error {
	if err := c.state.StartHandshakeClient(id.Version, c.clientRandom()); err != nil {
		return err
	}

	io := &handshakeIO{conn: c}

	chBody := encodeClientHello(id.Version, c.lastClientRandom, id.CipherSuites)
	if err := io.send(wire.HandshakeTypeClientHello, chBody); err != nil {
		return err
	}
	if err := c.state.UpdateStatusHS(wire.HandshakeTypeClientHello); err != nil {
		return err
	}

	typ, body, err := io.recv()
	if err != nil {
		return err
	}
	if typ != wire.HandshakeTypeServerHello {
		return qerrors.NewUnexpectedPacket(c.state.Status().String(), typ.String())
	}
	serverVersion, serverRandom, suite, err := decodeServerHello(body)
	if err != nil {
		return err
	}
	if err := c.state.UpdateStatusHS(wire.HandshakeTypeServerHello); err != nil {
		return err
	}
	c.state.SetVersion(serverVersion)
	if err := c.state.SetServerRandom(serverRandom); err != nil {
		return err
	}
	if !offeredCipherSuite(id.CipherSuites, suite) {
		return qerrors.ErrUnsupportedCipherSuite
	}
	params, ok := wire.LookupCipherSuite(suite)
	if !ok {
		return qerrors.ErrUnsupportedCipherSuite
	}
	c.state.SetCipher(params)

	typ, body, err = io.recv()
	if err != nil {
		return err
	}
	if typ != wire.HandshakeTypeCertificate {
		return qerrors.NewUnexpectedPacket(c.state.Status().String(), typ.String())
	}
	if err := c.state.UpdateStatusHS(wire.HandshakeTypeCertificate); err != nil {
		return err
	}
	cert, err := decodeCertificateMessage(body)
	if err != nil {
		return err
	}
	pub, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return qerrors.ErrInvalidPublicKey
	}
	if err := c.state.SetPublicKey(pub); err != nil {
		return err
	}

	var serverECDHECurve cryptoprim.Curve
	var serverECDHEPub *ecdh.PublicKey
	if params.KeyExchange == wire.KeyExchangeECDHERSA {
		typ, body, err = io.recv()
		if err != nil {
			return err
		}
		if typ != wire.HandshakeTypeServerKeyExchange {
			return qerrors.NewUnexpectedPacket(c.state.Status().String(), typ.String())
		}
		if err := c.state.UpdateStatusHS(wire.HandshakeTypeServerKeyExchange); err != nil {
			return err
		}
		serverECDHECurve, serverECDHEPub, err = decodeServerKeyExchangeECDHE(body)
		if err != nil {
			return err
		}
	}

	typ, _, err = io.recv()
	if err != nil {
		return err
	}
	if typ != wire.HandshakeTypeServerHelloDone {
		return qerrors.NewUnexpectedPacket(c.state.Status().String(), typ.String())
	}
	if err := c.state.UpdateStatusHS(wire.HandshakeTypeServerHelloDone); err != nil {
		return err
	}

	var preMaster, ckxBody []byte
	if params.KeyExchange == wire.KeyExchangeECDHERSA {
		kp, kxErr := cryptoprim.GenerateECDHEKeyPair(serverECDHECurve)
		if kxErr != nil {
			return kxErr
		}
		preMaster, err = cryptoprim.ECDHESharedSecret(kp.PrivateKey, serverECDHEPub)
		if err != nil {
			return err
		}
		ckxBody = encodeOpaque8(kp.PublicKeyBytes())
	} else {
		var rawPreMaster []byte
		rawPreMaster, ckxBody, err = cryptoprim.EncryptPreMasterSecret(pub, id.Version)
		if err != nil {
			return err
		}
		preMaster = rawPreMaster
		ckxBody = encodeOpaque16(ckxBody)
	}
	if err := io.send(wire.HandshakeTypeClientKeyExchange, ckxBody); err != nil {
		return err
	}
	if err := c.state.UpdateStatusHS(wire.HandshakeTypeClientKeyExchange); err != nil {
		return err
	}
	if err := c.state.SetMasterSecret(preMaster); err != nil {
		return err
	}
	cryptoprim.Zeroize(preMaster)
	if err := c.state.SetKeyBlock(); err != nil {
		return err
	}

	if err := c.state.UpdateStatusCC(true); err != nil {
		return err
	}
	if err := c.sendChangeCipherSpec(); err != nil {
		return err
	}

	finished, err := c.state.GetHandshakeDigest(true)
	if err != nil {
		return err
	}
	if err := io.send(wire.HandshakeTypeFinished, finished); err != nil {
		return err
	}
	if err := c.state.UpdateStatusHS(wire.HandshakeTypeFinished); err != nil {
		return err
	}

	if err := c.recvChangeCipherSpec(io); err != nil {
		return err
	}
	if err := c.state.UpdateStatusCC(false); err != nil {
		return err
	}

	typ, body, err = io.recv()
	if err != nil {
		return err
	}
	if typ != wire.HandshakeTypeFinished {
		return qerrors.NewUnexpectedPacket(c.state.Status().String(), typ.String())
	}
	want, err := c.state.GetHandshakeDigest(false)
	if err != nil {
		return err
	}
	if !cryptoprim.ConstantTimeCompare(body, want) {
		return qerrors.ErrAuthenticationFailed
	}
	if err := c.state.UpdateStatusHS(wire.HandshakeTypeFinished); err != nil {
		return err
	}

	c.state.EndHandshake()
	return nil
}

// ServerHandshake drives the mirror-image server-role handshake using the
// single suite in id.CipherSuite, taking the RSA key-transport or ECDHE
// branch according to that suite's key exchange. The cipher suites listed
// in the client's ClientHello are not compared against id.CipherSuite.
func ServerHandshake(c *Conn, id ServerIdentity) error {
	return c.observeHandshake(func() error { return doServerHandshake(c, id) })
}

func doServerHandshake(c *Conn, id ServerIdentity) error {
	io := &handshakeIO{conn: c}

	typ, body, err := io.recv()
	if err != nil {
		return err
	}
	if typ != wire.HandshakeTypeClientHello {
		return qerrors.NewUnexpectedPacket(c.state.Status().String(), typ.String())
	}
	clientVersion, clientRandom, _, err := decodeClientHello(body)
	if err != nil {
		return err
	}
	if err := c.state.StartHandshakeServer(clientVersion, clientRandom); err != nil {
		return err
	}
	if err := c.state.UpdateStatusHS(wire.HandshakeTypeClientHello); err != nil {
		return err
	}

	params, ok := wire.LookupCipherSuite(id.CipherSuite)
	if !ok {
		return qerrors.ErrUnsupportedCipherSuite
	}
	c.state.SetVersion(clientVersion)
	c.state.SetCipher(params)

	serverRandom := c.serverRandom()
	shBody := encodeServerHello(clientVersion, serverRandom, id.CipherSuite)
	if err := io.send(wire.HandshakeTypeServerHello, shBody); err != nil {
		return err
	}
	if err := c.state.UpdateStatusHS(wire.HandshakeTypeServerHello); err != nil {
		return err
	}
	if err := c.state.SetServerRandom(serverRandom); err != nil {
		return err
	}

	if err := io.send(wire.HandshakeTypeCertificate, encodeCertificateMessage(id.Certificate)); err != nil {
		return err
	}
	if err := c.state.UpdateStatusHS(wire.HandshakeTypeCertificate); err != nil {
		return err
	}
	if err := c.state.SetPrivateKey(id.RSAKey); err != nil {
		return err
	}

	var serverECDHEKeyPair *cryptoprim.ECDHEKeyPair
	if params.KeyExchange == wire.KeyExchangeECDHERSA {
		curve := id.ECDHECurve
		kp, kxErr := cryptoprim.GenerateECDHEKeyPair(curve)
		if kxErr != nil {
			return kxErr
		}
		serverECDHEKeyPair = kp
		if err := io.send(wire.HandshakeTypeServerKeyExchange, encodeServerKeyExchangeECDHE(curve, kp.PublicKeyBytes())); err != nil {
			return err
		}
		if err := c.state.UpdateStatusHS(wire.HandshakeTypeServerKeyExchange); err != nil {
			return err
		}
	}

	if err := io.send(wire.HandshakeTypeServerHelloDone, nil); err != nil {
		return err
	}
	if err := c.state.UpdateStatusHS(wire.HandshakeTypeServerHelloDone); err != nil {
		return err
	}

	typ, body, err = io.recv()
	if err != nil {
		return err
	}
	if typ != wire.HandshakeTypeClientKeyExchange {
		return qerrors.NewUnexpectedPacket(c.state.Status().String(), typ.String())
	}
	if err := c.state.UpdateStatusHS(wire.HandshakeTypeClientKeyExchange); err != nil {
		return err
	}

	var preMaster []byte
	if params.KeyExchange == wire.KeyExchangeECDHERSA {
		clientPubBytes, decErr := decodeOpaque8(body)
		if decErr != nil {
			return decErr
		}
		clientPub, parseErr := cryptoprim.ParseECDHEPublicKey(serverECDHEKeyPair.Curve, clientPubBytes)
		if parseErr != nil {
			return parseErr
		}
		preMaster, err = cryptoprim.ECDHESharedSecret(serverECDHEKeyPair.PrivateKey, clientPub)
		if err != nil {
			return err
		}
	} else {
		encryptedPreMaster, decErr := decodeOpaque16(body)
		if decErr != nil {
			return decErr
		}
		preMaster, err = cryptoprim.DecryptPreMasterSecret(id.RSAKey, encryptedPreMaster)
		if err != nil {
			return err
		}
	}
	if err := c.state.SetMasterSecret(preMaster); err != nil {
		return err
	}
	cryptoprim.Zeroize(preMaster)
	if err := c.state.SetKeyBlock(); err != nil {
		return err
	}

	if err := c.recvChangeCipherSpec(io); err != nil {
		return err
	}
	if err := c.state.UpdateStatusCC(false); err != nil {
		return err
	}

	typ, body, err = io.recv()
	if err != nil {
		return err
	}
	if typ != wire.HandshakeTypeFinished {
		return qerrors.NewUnexpectedPacket(c.state.Status().String(), typ.String())
	}
	want, err := c.state.GetHandshakeDigest(true)
	if err != nil {
		return err
	}
	if !cryptoprim.ConstantTimeCompare(body, want) {
		return qerrors.ErrAuthenticationFailed
	}
	if err := c.state.UpdateStatusHS(wire.HandshakeTypeFinished); err != nil {
		return err
	}

	if err := c.state.UpdateStatusCC(true); err != nil {
		return err
	}
	if err := c.sendChangeCipherSpec(); err != nil {
		return err
	}

	finished, err := c.state.GetHandshakeDigest(false)
	if err != nil {
		return err
	}
	if err := io.send(wire.HandshakeTypeFinished, finished); err != nil {
		return err
	}
	if err := c.state.UpdateStatusHS(wire.HandshakeTypeFinished); err != nil {
		return err
	}

	c.state.EndHandshake()
	return nil
}

func (c *Conn) clientRandom() []byte {
	c.lastClientRandom = c.state.WithPRNG(func(p cryptoprim.PRNG) ([]byte, cryptoprim.PRNG) {
		return p.Draw(constants.RandomSize)
	})
	return c.lastClientRandom
}

func (c *Conn) serverRandom() []byte {
	return c.state.WithPRNG(func(p cryptoprim.PRNG) ([]byte, cryptoprim.PRNG) {
		return p.Draw(constants.RandomSize)
	})
}

// --- minimal handshake message wire encodings ---
//
// These cover exactly the fields the status machine and key schedule
// consume (version, random, cipher suite, certificate, opaque key
// exchange blob); session IDs, extensions, and compression are encoded
// as empty/null since this core does not negotiate them.

func encodeClientHello(version wire.Version, random []byte, suites []constants.CipherSuite) []byte {
	var b cryptobyte.Builder
	v := version.Bytes()
	b.AddBytes(v[:])
	b.AddBytes(random)
	b.AddUint8(0) // session_id length
	b.AddUint16(uint16(2 * len(suites)))
	for _, s := range suites {
		b.AddUint16(uint16(s))
	}
	b.AddUint8(1) // compression_methods length
	b.AddUint8(0) // null compression
	return b.BytesOrPanic()
}

func decodeClientHello(body []byte) (wire.Version, []byte, []constants.CipherSuite, error) {
	s := cryptobyte.String(body)
	var major, minor uint8
	random := make([]byte, constants.RandomSize)
	var sessionIDLen uint8
	if !s.ReadUint8(&major) || !s.ReadUint8(&minor) || !s.CopyBytes(random) || !s.ReadUint8(&sessionIDLen) {
		return wire.Version{}, nil, nil, qerrors.ErrInvalidMessage
	}
	if !s.Skip(int(sessionIDLen)) {
		return wire.Version{}, nil, nil, qerrors.ErrInvalidMessage
	}
	var suitesLen uint16
	if !s.ReadUint16(&suitesLen) {
		return wire.Version{}, nil, nil, qerrors.ErrInvalidMessage
	}
	suites := make([]constants.CipherSuite, 0, suitesLen/2)
	for i := uint16(0); i < suitesLen/2; i++ {
		var cs uint16
		if !s.ReadUint16(&cs) {
			return wire.Version{}, nil, nil, qerrors.ErrInvalidMessage
		}
		suites = append(suites, constants.CipherSuite(cs))
	}
	return wire.Version{Major: major, Minor: minor}, random, suites, nil
}

func encodeServerHello(version wire.Version, random []byte, suite constants.CipherSuite) []byte {
	var b cryptobyte.Builder
	v := version.Bytes()
	b.AddBytes(v[:])
	b.AddBytes(random)
	b.AddUint8(0) // session_id length
	b.AddUint16(uint16(suite))
	b.AddUint8(0) // null compression
	return b.BytesOrPanic()
}

func decodeServerHello(body []byte) (wire.Version, []byte, constants.CipherSuite, error) {
	s := cryptobyte.String(body)
	var major, minor uint8
	random := make([]byte, constants.RandomSize)
	var sessionIDLen uint8
	if !s.ReadUint8(&major) || !s.ReadUint8(&minor) || !s.CopyBytes(random) || !s.ReadUint8(&sessionIDLen) {
		return wire.Version{}, nil, 0, qerrors.ErrInvalidMessage
	}
	if !s.Skip(int(sessionIDLen)) {
		return wire.Version{}, nil, 0, qerrors.ErrInvalidMessage
	}
	var suite uint16
	if !s.ReadUint16(&suite) {
		return wire.Version{}, nil, 0, qerrors.ErrInvalidMessage
	}
	return wire.Version{Major: major, Minor: minor}, random, constants.CipherSuite(suite), nil
}

func encodeCertificateMessage(der []byte) []byte {
	var b cryptobyte.Builder
	b.AddUint24(uint32(3 + len(der)))
	b.AddUint24(uint32(len(der)))
	b.AddBytes(der)
	return b.BytesOrPanic()
}

func decodeCertificateMessage(body []byte) (*x509.Certificate, error) {
	s := cryptobyte.String(body)
	var listLen uint32
	if !s.ReadUint24(&listLen) {
		return nil, qerrors.ErrInvalidMessage
	}
	var certLen uint32
	if !s.ReadUint24(&certLen) {
		return nil, qerrors.ErrInvalidMessage
	}
	der := make([]byte, certLen)
	if !s.CopyBytes(der) {
		return nil, qerrors.ErrInvalidMessage
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, qerrors.NewCryptoError("decodeCertificateMessage", err)
	}
	return cert, nil
}

// encodeServerKeyExchangeECDHE builds the ServerECDHParams a ServerKeyExchange
// carries for an ECDHE suite (RFC 8422 §5.4): curve_type(1)=named_curve(3),
// namedcurve(2), then the public key as an opaque8 ECPoint.
func encodeServerKeyExchangeECDHE(curve cryptoprim.Curve, pubKey []byte) []byte {
	var b cryptobyte.Builder
	b.AddUint8(3) // ECCurveType.named_curve
	b.AddUint16(curveToNamedCurve(curve))
	b.AddUint8(uint8(len(pubKey)))
	b.AddBytes(pubKey)
	return b.BytesOrPanic()
}

func decodeServerKeyExchangeECDHE(body []byte) (cryptoprim.Curve, *ecdh.PublicKey, error) {
	s := cryptobyte.String(body)
	var curveType uint8
	var namedCurve uint16
	if !s.ReadUint8(&curveType) || curveType != 3 || !s.ReadUint16(&namedCurve) {
		return 0, nil, qerrors.ErrInvalidMessage
	}
	curve, err := namedCurveToCurve(namedCurve)
	if err != nil {
		return 0, nil, err
	}
	pubBytes, err := decodeOpaque8([]byte(s))
	if err != nil {
		return 0, nil, err
	}
	pub, err := cryptoprim.ParseECDHEPublicKey(curve, pubBytes)
	if err != nil {
		return 0, nil, err
	}
	return curve, pub, nil
}

func encodeOpaque8(data []byte) []byte {
	var b cryptobyte.Builder
	b.AddUint8(uint8(len(data)))
	b.AddBytes(data)
	return b.BytesOrPanic()
}

func decodeOpaque8(data []byte) ([]byte, error) {
	s := cryptobyte.String(data)
	var length uint8
	if !s.ReadUint8(&length) {
		return nil, qerrors.ErrInvalidMessage
	}
	out := make([]byte, length)
	if !s.CopyBytes(out) {
		return nil, qerrors.ErrInvalidMessage
	}
	return out, nil
}

func encodeOpaque16(data []byte) []byte {
	var b cryptobyte.Builder
	b.AddUint16(uint16(len(data)))
	b.AddBytes(data)
	return b.BytesOrPanic()
}

func decodeOpaque16(body []byte) ([]byte, error) {
	s := cryptobyte.String(body)
	var length uint16
	if !s.ReadUint16(&length) {
		return nil, qerrors.ErrInvalidMessage
	}
	out := make([]byte, length)
	if !s.CopyBytes(out) {
		return nil, qerrors.ErrInvalidMessage
	}
	return out, nil
}
