// ecdhe.go implements ECDHE key agreement for the TLS_ECDHE_RSA_* cipher
// suites, supporting both X25519 and P-256 via crypto/ecdh.
package cryptoprim

import (
	"crypto/ecdh"

	qerrors "github.com/sarahazel/tls-core/internal/errors"
)

// Curve identifies a named curve used for ECDHE key agreement.
type Curve int

const (
	CurveX25519 Curve = iota
	CurveP256
)

func (c Curve) ecdhCurve() ecdh.Curve {
	switch c {
	case CurveX25519:
		return ecdh.X25519()
	case CurveP256:
		return ecdh.P256()
	default:
		panic("cryptoprim: unknown curve")
	}
}

// ECDHEKeyPair is an ephemeral key-exchange key pair for a ServerKeyXchg or
// ClientKeyXchg payload.
type ECDHEKeyPair struct {
	Curve      Curve
	PublicKey  *ecdh.PublicKey
	PrivateKey *ecdh.PrivateKey
}

// GenerateECDHEKeyPair creates a fresh ephemeral key pair on curve.
func GenerateECDHEKeyPair(curve Curve) (*ECDHEKeyPair, error) {
	priv, err := curve.ecdhCurve().GenerateKey(Reader)
	if err != nil {
		return nil, qerrors.NewCryptoError("GenerateECDHEKeyPair", err)
	}
	return &ECDHEKeyPair{Curve: curve, PublicKey: priv.PublicKey(), PrivateKey: priv}, nil
}

// ParseECDHEPublicKey decodes a peer's public key as sent on the wire.
func ParseECDHEPublicKey(curve Curve, data []byte) (*ecdh.PublicKey, error) {
	pub, err := curve.ecdhCurve().NewPublicKey(data)
	if err != nil {
		return nil, qerrors.NewCryptoError("ParseECDHEPublicKey", qerrors.ErrInvalidPublicKey)
	}
	return pub, nil
}

// ECDHESharedSecret computes the pre-master secret for an ECDHE exchange:
// the raw ECDH shared point's x-coordinate, fed directly into
// GenerateMasterSecret exactly as an RSA-decrypted pre-master secret would
// be (RFC 4492 §5.10).
func ECDHESharedSecret(priv *ecdh.PrivateKey, peerPublic *ecdh.PublicKey) ([]byte, error) {
	if priv == nil {
		return nil, qerrors.ErrInvalidPrivateKey
	}
	if peerPublic == nil {
		return nil, qerrors.ErrInvalidPublicKey
	}
	secret, err := priv.ECDH(peerPublic)
	if err != nil {
		return nil, qerrors.NewCryptoError("ECDHESharedSecret", err)
	}
	return secret, nil
}

// PublicKeyBytes returns the wire encoding of the key pair's public key.
func (kp *ECDHEKeyPair) PublicKeyBytes() []byte {
	return kp.PublicKey.Bytes()
}
