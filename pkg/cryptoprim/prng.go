// prng.go implements a value-typed PRNG: the random source is a value,
// not hidden process-wide state, so a caller can seed two instances
// identically and observe identical output, and the core never reads or
// writes randomness except through WithPRNG's consume-then-install
// transaction.
package cryptoprim

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
)

// PRNG is an immutable, deterministically-seedable random source. Draw never
// mutates its receiver; it returns the bytes drawn plus the PRNG's next
// state, using a domain-separated construction (a counter mixed in via
// HMAC) adapted from a one-shot derivation into a steppable generator.
type PRNG struct {
	seed    [32]byte
	counter uint64
}

// NewPRNG seeds a PRNG from an arbitrary-length seed via SHA-256.
func NewPRNG(seed []byte) PRNG {
	return PRNG{seed: sha256.Sum256(seed)}
}

// NewPRNGFromSystemEntropy seeds a PRNG from the system CSPRNG.
func NewPRNGFromSystemEntropy() (PRNG, error) {
	b, err := SecureRandomBytes(32)
	if err != nil {
		return PRNG{}, err
	}
	var seed [32]byte
	copy(seed[:], b)
	return PRNG{seed: seed}, nil
}

// Draw derives n bytes from the current state and returns them alongside the
// PRNG's next state. The output is HMAC-SHA256(seed, counter) truncated or
// repeated as needed; the next seed is SHA-256(seed || counter || "next") so
// that drawing never reveals a seed usable to predict the next draw.
func (p PRNG) Draw(n int) ([]byte, PRNG) {
	out := make([]byte, 0, n)
	ctr := p.counter
	for len(out) < n {
		var ctrBuf [8]byte
		binary.BigEndian.PutUint64(ctrBuf[:], ctr)
		mac := hmac.New(sha256.New, p.seed[:])
		mac.Write(ctrBuf[:])
		out = append(out, mac.Sum(nil)...)
		ctr++
	}

	h := sha256.New()
	h.Write(p.seed[:])
	var ctrBuf [8]byte
	binary.BigEndian.PutUint64(ctrBuf[:], p.counter)
	h.Write(ctrBuf[:])
	h.Write([]byte("next"))
	var nextSeed [32]byte
	copy(nextSeed[:], h.Sum(nil))

	return out[:n], PRNG{seed: nextSeed, counter: ctr}
}
