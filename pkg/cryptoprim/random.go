// random.go provides the system CSPRNG used to seed pkg/cryptoprim.PRNG and
// to generate ephemeral key-exchange material. All random number generation
// uses crypto/rand, which sources entropy from the OS CSPRNG.
package cryptoprim

import (
	"crypto/rand"
	"io"

	qerrors "github.com/sarahazel/tls-core/internal/errors"
)

// Reader is an io.Reader that returns cryptographically secure random bytes.
var Reader = rand.Reader

// SecureRandom reads cryptographically secure random bytes into b.
func SecureRandom(b []byte) error {
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return qerrors.NewCryptoError("SecureRandom", err)
	}
	return nil
}

// SecureRandomBytes returns n cryptographically secure random bytes.
func SecureRandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if err := SecureRandom(b); err != nil {
		return nil, err
	}
	return b, nil
}

// ConstantTimeCompare reports whether a and b are equal, in time independent
// of their contents. Used for MAC and Finished verify_data comparison.
func ConstantTimeCompare(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	var result byte
	for i := range a {
		result |= a[i] ^ b[i]
	}
	return result == 0
}

// Zeroize overwrites b with zeros. The handshake drivers call it on the
// pre-master secret once the master secret has been derived from it.
func Zeroize(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// ZeroizeMultiple zeroizes each of slices.
func ZeroizeMultiple(slices ...[]byte) {
	for _, s := range slices {
		Zeroize(s)
	}
}
