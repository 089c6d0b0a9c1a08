package cryptoprim_test

import (
	"bytes"
	"testing"

	"github.com/sarahazel/tls-core/pkg/cryptoprim"
)

func TestAESGCMSealOpenRoundTrip(t *testing.T) {
	key := make([]byte, 16)
	fixedIV := make([]byte, 4)
	for i := range key {
		key[i] = byte(i)
	}

	aead, err := cryptoprim.NewAESGCM(key, fixedIV)
	if err != nil {
		t.Fatalf("NewAESGCM: %v", err)
	}

	plaintext := []byte("application data")
	aad := []byte("record header")

	ciphertext := aead.Seal(0, plaintext, aad)
	got, err := aead.Open(0, ciphertext, aad)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Errorf("round trip mismatch: got %q, want %q", got, plaintext)
	}
}

func TestAESGCMWrongSequenceFails(t *testing.T) {
	key := make([]byte, 16)
	fixedIV := make([]byte, 4)
	aead, _ := cryptoprim.NewAESGCM(key, fixedIV)

	ciphertext := aead.Seal(0, []byte("data"), nil)
	if _, err := aead.Open(1, ciphertext, nil); err == nil {
		t.Error("Open with the wrong sequence number should fail authentication")
	}
}

func TestChaCha20Poly1305RoundTrip(t *testing.T) {
	key := make([]byte, 32)
	fixedIV := make([]byte, 12)
	aead, err := cryptoprim.NewChaCha20Poly1305(key, fixedIV)
	if err != nil {
		t.Fatalf("NewChaCha20Poly1305: %v", err)
	}

	plaintext := []byte("another message")
	ciphertext := aead.Seal(5, plaintext, []byte("aad"))
	got, err := aead.Open(5, ciphertext, []byte("aad"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Error("round trip mismatch")
	}
}

func TestAESGCMTamperedCiphertextFails(t *testing.T) {
	key := make([]byte, 16)
	fixedIV := make([]byte, 4)
	aead, _ := cryptoprim.NewAESGCM(key, fixedIV)

	ciphertext := aead.Seal(0, []byte("data"), nil)
	ciphertext[0] ^= 0xFF
	if _, err := aead.Open(0, ciphertext, nil); err == nil {
		t.Error("Open should fail on tampered ciphertext")
	}
}
