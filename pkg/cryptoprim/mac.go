// mac.go implements the two record-MAC constructions the record layer
// dispatches on: plain HMAC for TLS and the pre-HMAC SSLv3 MAC for SSL3.
package cryptoprim

import (
	"crypto/hmac"
	"hash"
)

// HMAC computes HMAC(hashID, key, msg).
func HMAC(id HashID, key, msg []byte) []byte {
	mac := hmac.New(func() hash.Hash { return NewHash(id) }, key)
	mac.Write(msg)
	return mac.Sum(nil)
}

// sslPadMD5Len and sslPadSHA1Len are the SSLv3 MAC pad lengths (RFC 6101
// §5.2.3.1): pad1 is 0x36 and pad2 is 0x5c, each repeated this many times.
const (
	sslPadMD5Len  = 48
	sslPadSHA1Len = 40
)

func sslPadLen(id HashID) int {
	switch id {
	case HashMD5:
		return sslPadMD5Len
	case HashSHA1:
		return sslPadSHA1Len
	default:
		panic("cryptoprim: SSLv3 MAC undefined for " + id.String())
	}
}

// SSLMac computes the SSLv3 MAC construction used by SSL3 records:
//
//	hash(secret || pad2 || hash(secret || pad1 || msg))
func SSLMac(id HashID, secret, msg []byte) []byte {
	padLen := sslPadLen(id)
	pad1 := make([]byte, padLen)
	pad2 := make([]byte, padLen)
	for i := range pad1 {
		pad1[i] = 0x36
		pad2[i] = 0x5c
	}

	inner := NewHash(id)
	inner.Write(secret)
	inner.Write(pad1)
	inner.Write(msg)
	innerSum := inner.Sum(nil)

	outer := NewHash(id)
	outer.Write(secret)
	outer.Write(pad2)
	outer.Write(innerSum)
	return outer.Sum(nil)
}
