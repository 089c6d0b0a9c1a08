package tlscore

import (
	"math"

	"github.com/sarahazel/tls-core/internal/errors"
	"github.com/sarahazel/tls-core/pkg/cryptoprim"
	"github.com/sarahazel/tls-core/pkg/wire"
)

// Direction selects which direction's CryptState/MacState MakeDigest
// operates on.
type Direction int

const (
	DirectionTx Direction = iota
	DirectionRx
)

func macHashID(alg wire.HashAlgorithm) cryptoprim.HashID {
	if alg == wire.HashAlgorithmSHA256 {
		return cryptoprim.HashSHA256
	}
	return cryptoprim.HashSHA1
}

// MakeDigest computes the record MAC over (sequence || header || content)
// for the given direction, then increments that direction's sequence
// counter. For SSL3 this is the SSLv3 MAC construction over the
// version-less header form; for TLS1.0-1.2 it is plain HMAC over the
// full header including version. Requires cipher and the direction's
// CryptState/MacState to all be set.
func (c *ConnectionState) MakeDigest(dir Direction, header wire.RecordHeader, content []byte) ([]byte, error) {
	if c.cipher == nil {
		return nil, newInternalError("MakeDigest", "cipher not set")
	}

	var cs *CryptState
	var ms *MacState
	if dir == DirectionTx {
		cs, ms = c.txCrypt, c.txMAC
	} else {
		cs, ms = c.rxCrypt, c.rxMAC
	}
	if cs == nil || ms == nil {
		return nil, newInternalError("MakeDigest", "direction key material not set")
	}
	if ms.sequence == math.MaxUint64 {
		return nil, errors.ErrSequenceOverflow
	}

	seq := wire.EncodeWord64(ms.sequence)
	id := macHashID(c.cipher.Hash)

	var digest []byte
	if c.version.IsSSL3() {
		msg := make([]byte, 0, 8+3+len(content))
		msg = append(msg, seq[:]...)
		msg = append(msg, wire.EncodeHeaderNoVer(header)...)
		msg = append(msg, content...)
		digest = cryptoprim.SSLMac(id, cs.MACSecret, msg)
	} else {
		msg := make([]byte, 0, 8+5+len(content))
		msg = append(msg, seq[:]...)
		msg = append(msg, wire.EncodeHeader(header)...)
		msg = append(msg, content...)
		digest = cryptoprim.HMAC(id, cs.MACSecret, msg)
	}

	ms.sequence++
	return digest, nil
}
