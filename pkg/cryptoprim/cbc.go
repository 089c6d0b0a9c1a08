// cbc.go implements the CBC block-cipher suites among the bulk-cipher
// collaborator list covers: AES in CBC mode under the MAC-then-encrypt
// construction (RFC 5246 §6.2.3.2), with TLS1.1/1.2's explicit per-record IV
// and TLS1.0's implicit (chained) IV.
package cryptoprim

import (
	"crypto/aes"
	"crypto/cipher"

	qerrors "github.com/sarahazel/tls-core/internal/errors"
)

// CBCCipher wraps an AES block cipher configured for TLS record CBC mode.
// It does not itself hold MAC state; the caller computes the MAC via
// pkg/tlscore.MakeDigest and appends it before calling Encrypt.
type CBCCipher struct {
	block cipher.Block
}

// NewCBCCipher builds a CBCCipher from a 16 or 32 byte AES key.
func NewCBCCipher(key []byte) (*CBCCipher, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, qerrors.NewCryptoError("NewCBCCipher", err)
	}
	return &CBCCipher{block: block}, nil
}

// BlockSize returns the cipher's block size (16 for AES).
func (c *CBCCipher) BlockSize() int { return c.block.BlockSize() }

// pad appends TLS CBC padding (RFC 5246 §6.2.3.2): 1 to blockSize bytes, each
// holding the pad length minus one, so the padded length is a multiple of
// blockSize.
func pad(data []byte, blockSize int) []byte {
	padLen := blockSize - (len(data) % blockSize)
	padded := make([]byte, len(data)+padLen)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padLen - 1)
	}
	return padded
}

// unpad validates and strips TLS CBC padding, returning an error on any
// malformed padding rather than leaking which byte failed (timing-safe
// length check only; see DESIGN.md for the padding-oracle caveat this
// implementation does not fully close).
func unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, qerrors.ErrInvalidCiphertext
	}
	padLen := int(data[len(data)-1]) + 1
	if padLen > len(data) || padLen > blockSize {
		return nil, qerrors.ErrInvalidCiphertext
	}
	var bad byte
	for i := len(data) - padLen; i < len(data); i++ {
		bad |= data[i] ^ byte(padLen-1)
	}
	if bad != 0 {
		return nil, qerrors.ErrInvalidCiphertext
	}
	return data[:len(data)-padLen], nil
}

// Encrypt CBC-encrypts macedPlaintext (plaintext || MAC) under iv, prepending
// iv to the returned ciphertext for TLS1.1/1.2's explicit-IV mode. Callers
// on TLS1.0 (implicit/chained IV) should pass the previous record's last
// ciphertext block and drop the returned IV prefix before framing.
func (c *CBCCipher) Encrypt(iv, macedPlaintext []byte) []byte {
	padded := pad(macedPlaintext, c.block.BlockSize())
	out := make([]byte, len(iv)+len(padded))
	copy(out, iv)
	mode := cipher.NewCBCEncrypter(c.block, iv)
	mode.CryptBlocks(out[len(iv):], padded)
	return out
}

// Decrypt reverses Encrypt given the explicit iv and the ciphertext
// following it, returning macedPlaintext with padding stripped.
func (c *CBCCipher) Decrypt(iv, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) == 0 || len(ciphertext)%c.block.BlockSize() != 0 {
		return nil, qerrors.ErrInvalidCiphertext
	}
	out := make([]byte, len(ciphertext))
	mode := cipher.NewCBCDecrypter(c.block, iv)
	mode.CryptBlocks(out, ciphertext)
	return unpad(out, c.block.BlockSize())
}
