// hash.go provides the running hash contexts the transcript digest needs:
// init/update/finalize plus a clone operation that snapshots a context
// without disturbing it, since getHandshakeDigest must be callable more than
// once without perturbing the live transcript (the Finished-message
// idempotence").
package cryptoprim

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding"
	"hash"

	qerrors "github.com/sarahazel/tls-core/internal/errors"
)

// HashID names one of the hash algorithms the transcript or key schedule
// uses. The zero value is not a valid HashID.
type HashID int

const (
	HashMD5 HashID = iota + 1
	HashSHA1
	HashSHA256
)

// String returns the algorithm name.
func (id HashID) String() string {
	switch id {
	case HashMD5:
		return "MD5"
	case HashSHA1:
		return "SHA-1"
	case HashSHA256:
		return "SHA-256"
	default:
		return "unknown"
	}
}

// NewHash returns a freshly initialized hash context for id.
func NewHash(id HashID) hash.Hash {
	switch id {
	case HashMD5:
		return md5.New()
	case HashSHA1:
		return sha1.New()
	case HashSHA256:
		return sha256.New()
	default:
		panic("cryptoprim: unknown HashID")
	}
}

// CloneHash returns an independent copy of h's running state, created with
// NewHash(id). h must have been created by NewHash(id) or a prior CloneHash
// of such a context. The original h is not mutated.
func CloneHash(id HashID, h hash.Hash) (hash.Hash, error) {
	marshaler, ok := h.(encoding.BinaryMarshaler)
	if !ok {
		return nil, qerrors.NewCryptoError("CloneHash", qerrors.ErrInvalidMessage)
	}
	state, err := marshaler.MarshalBinary()
	if err != nil {
		return nil, qerrors.NewCryptoError("CloneHash", err)
	}

	clone := NewHash(id)
	unmarshaler, ok := clone.(encoding.BinaryUnmarshaler)
	if !ok {
		return nil, qerrors.NewCryptoError("CloneHash", qerrors.ErrInvalidMessage)
	}
	if err := unmarshaler.UnmarshalBinary(state); err != nil {
		return nil, qerrors.NewCryptoError("CloneHash", err)
	}
	return clone, nil
}

// Sum finalizes a clone of h without mutating h, returning the digest bytes.
func Sum(id HashID, h hash.Hash) ([]byte, error) {
	clone, err := CloneHash(id, h)
	if err != nil {
		return nil, err
	}
	return clone.Sum(nil), nil
}
