package cryptoprim_test

import (
	"bytes"
	"testing"

	"github.com/sarahazel/tls-core/pkg/cryptoprim"
)

func TestHMACDeterministic(t *testing.T) {
	key := []byte("mac secret")
	msg := []byte("record contents")

	out1 := cryptoprim.HMAC(cryptoprim.HashSHA256, key, msg)
	out2 := cryptoprim.HMAC(cryptoprim.HashSHA256, key, msg)
	if !bytes.Equal(out1, out2) {
		t.Error("HMAC should be deterministic")
	}
}

func TestHMACDiffersByHash(t *testing.T) {
	key := []byte("mac secret")
	msg := []byte("record contents")

	sha1 := cryptoprim.HMAC(cryptoprim.HashSHA1, key, msg)
	sha256 := cryptoprim.HMAC(cryptoprim.HashSHA256, key, msg)
	if bytes.Equal(sha1, sha256) {
		t.Error("HMAC-SHA1 and HMAC-SHA256 should not collide")
	}
	if len(sha1) != 20 {
		t.Errorf("HMAC-SHA1 length = %d, want 20", len(sha1))
	}
	if len(sha256) != 32 {
		t.Errorf("HMAC-SHA256 length = %d, want 32", len(sha256))
	}
}

func TestSSLMacDeterministicAndSized(t *testing.T) {
	secret := []byte("ssl mac secret")
	msg := []byte("ssl record contents")

	out1 := cryptoprim.SSLMac(cryptoprim.HashMD5, secret, msg)
	out2 := cryptoprim.SSLMac(cryptoprim.HashMD5, secret, msg)
	if !bytes.Equal(out1, out2) {
		t.Error("SSLMac should be deterministic")
	}
	if len(out1) != 16 {
		t.Errorf("SSLMac(MD5) length = %d, want 16", len(out1))
	}

	sha1Mac := cryptoprim.SSLMac(cryptoprim.HashSHA1, secret, msg)
	if len(sha1Mac) != 20 {
		t.Errorf("SSLMac(SHA1) length = %d, want 20", len(sha1Mac))
	}
}

func TestSSLMacSensitiveToInput(t *testing.T) {
	secret := []byte("ssl mac secret")
	out1 := cryptoprim.SSLMac(cryptoprim.HashMD5, secret, []byte("message one"))
	out2 := cryptoprim.SSLMac(cryptoprim.HashMD5, secret, []byte("message two"))
	if bytes.Equal(out1, out2) {
		t.Error("SSLMac should be sensitive to the message")
	}
}
