package tlsconn

import (
	"io"

	"golang.org/x/crypto/cryptobyte"

	qerrors "github.com/sarahazel/tls-core/internal/errors"
	"github.com/sarahazel/tls-core/pkg/cryptoprim"
	"github.com/sarahazel/tls-core/pkg/tlscore"
	"github.com/sarahazel/tls-core/pkg/wire"
)

// cipherState holds the decoded record-layer cipher object for one
// direction, built once SetKeyBlock has installed CryptState for that
// direction. Exactly one of aead/cbc is non-nil.
type cipherState struct {
	aead *cryptoprim.AEADCipher
	cbc  *cryptoprim.CBCCipher
	iv   []byte // chained IV for TLS1.0 CBC; unused for AEAD and explicit-IV CBC
}

func newCipherState(params wire.CipherSuiteParams, cs *tlscore.CryptState) (*cipherState, error) {
	switch params.Cipher {
	case wire.BulkCipherAES128GCM:
		aead, err := cryptoprim.NewAESGCM(cs.Key, cs.IV)
		if err != nil {
			return nil, err
		}
		return &cipherState{aead: aead}, nil
	case wire.BulkCipherChaCha20Poly1305:
		aead, err := cryptoprim.NewChaCha20Poly1305(cs.Key, cs.IV)
		if err != nil {
			return nil, err
		}
		return &cipherState{aead: aead}, nil
	case wire.BulkCipherAES128CBC, wire.BulkCipherAES256CBC:
		cbc, err := cryptoprim.NewCBCCipher(cs.Key)
		if err != nil {
			return nil, err
		}
		return &cipherState{cbc: cbc, iv: append([]byte(nil), cs.IV...)}, nil
	default:
		return nil, qerrors.ErrUnsupportedCipherSuite
	}
}

// sealRecord produces the on-wire fragment (ciphertext, or MAC-then-encrypt
// output) for one outbound record, given the already-assembled plaintext
// fragment and a pre-built wire.RecordHeader carrying type/version/length
// placeholders (Length is overwritten once the fragment is known).
func (c *Conn) sealRecord(ct wire.ContentType, plaintext []byte) ([]byte, error) {
	if !c.state.TxEncrypted() {
		return plaintext, nil
	}
	if c.txCipher == nil {
		return nil, qerrors.NewInternalError("sealRecord", "tx cipher not installed")
	}
	seq, ok := c.state.TxSequence()
	if !ok {
		return nil, qerrors.NewInternalError("sealRecord", "tx sequence unavailable")
	}

	if c.txCipher.aead != nil {
		hdr := wire.RecordHeader{Type: ct, Version: c.state.Version(), Length: uint16(len(plaintext))}
		aad := aeadAdditionalData(seq, hdr)
		sealed := c.txCipher.aead.Seal(seq, plaintext, aad)
		return append(explicitAEADNonce(seq), sealed...), nil
	}

	hdr := wire.RecordHeader{Type: ct, Version: c.state.Version(), Length: uint16(len(plaintext))}
	mac, err := c.state.MakeDigest(tlscore.DirectionTx, hdr, plaintext)
	if err != nil {
		return nil, err
	}
	macedPlaintext := append(append([]byte{}, plaintext...), mac...)

	iv := c.txCipher.iv
	if c.state.Version() != wire.VersionTLS10 {
		iv = make([]byte, c.txCipher.cbc.BlockSize())
		if _, err := io.ReadFull(c.rand, iv); err != nil {
			return nil, qerrors.NewCryptoError("sealRecord", err)
		}
	}
	out := c.txCipher.cbc.Encrypt(iv, macedPlaintext)
	if c.state.Version() == wire.VersionTLS10 {
		c.txCipher.iv = out[len(out)-c.txCipher.cbc.BlockSize():]
		return out, nil
	}
	return out, nil
}

// openRecord reverses sealRecord given the on-wire fragment for one inbound
// record of declared content type ct and record-layer length wireLength
// (the length field from the record header, needed to size AEAD AAD before
// decryption).
func (c *Conn) openRecord(ct wire.ContentType, wireLength uint16, fragment []byte) ([]byte, error) {
	if !c.state.RxEncrypted() {
		return fragment, nil
	}
	if c.rxCipher == nil {
		return nil, qerrors.NewInternalError("openRecord", "rx cipher not installed")
	}
	seq, ok := c.state.RxSequence()
	if !ok {
		return nil, qerrors.NewInternalError("openRecord", "rx sequence unavailable")
	}

	if c.rxCipher.aead != nil {
		if len(fragment) < 8 {
			return nil, qerrors.ErrCiphertextTooShort
		}
		sealed := fragment[8:]
		plainLen := len(sealed) - c.rxCipher.aead.Overhead()
		if plainLen < 0 {
			return nil, qerrors.ErrCiphertextTooShort
		}
		hdr := wire.RecordHeader{Type: ct, Version: c.state.Version(), Length: uint16(plainLen)}
		aad := aeadAdditionalData(seq, hdr)
		return c.rxCipher.aead.Open(seq, sealed, aad)
	}

	blockSize := c.rxCipher.cbc.BlockSize()
	var iv, ciphertext []byte
	if c.state.Version() == wire.VersionTLS10 {
		iv, ciphertext = c.rxCipher.iv, fragment
	} else {
		if len(fragment) < blockSize {
			return nil, qerrors.ErrCiphertextTooShort
		}
		iv, ciphertext = fragment[:blockSize], fragment[blockSize:]
	}
	macedPlaintext, err := c.rxCipher.cbc.Decrypt(iv, ciphertext)
	if err != nil {
		return nil, err
	}
	if c.state.Version() == wire.VersionTLS10 {
		c.rxCipher.iv = ciphertext[len(ciphertext)-blockSize:]
	}

	macLen := macLength(c.cipher.Hash)
	if len(macedPlaintext) < macLen {
		return nil, qerrors.ErrInvalidCiphertext
	}
	plaintext, gotMAC := macedPlaintext[:len(macedPlaintext)-macLen], macedPlaintext[len(macedPlaintext)-macLen:]
	hdr := wire.RecordHeader{Type: ct, Version: c.state.Version(), Length: uint16(len(plaintext))}
	wantMAC, err := c.state.MakeDigest(tlscore.DirectionRx, hdr, plaintext)
	if err != nil {
		return nil, err
	}
	if !constantTimeEqual(gotMAC, wantMAC) {
		return nil, qerrors.ErrAuthenticationFailed
	}
	return plaintext, nil
}

func macLength(alg wire.HashAlgorithm) int {
	if alg == wire.HashAlgorithmSHA256 {
		return 32
	}
	return 20
}

func constantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	var v byte
	for i := range a {
		v |= a[i] ^ b[i]
	}
	return v == 0
}

// explicitAEADNonce returns the 8-byte explicit nonce TLS1.2 AEAD records
// prepend to the sealed payload (RFC 5288 §3): the sequence number itself.
func explicitAEADNonce(seq uint64) []byte {
	b := wire.EncodeWord64(seq)
	return b[:]
}

// aeadAdditionalData builds the AEAD "additional data" input (RFC 5246
// §6.2.3.3): seq(8) || type(1) || version(2) || length(2).
func aeadAdditionalData(seq uint64, hdr wire.RecordHeader) []byte {
	var b cryptobyte.Builder
	seqBytes := wire.EncodeWord64(seq)
	b.AddBytes(seqBytes[:])
	b.AddUint8(uint8(hdr.Type))
	b.AddUint8(hdr.Version.Major)
	b.AddUint8(hdr.Version.Minor)
	b.AddUint16(hdr.Length)
	return b.BytesOrPanic()
}
