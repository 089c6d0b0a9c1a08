package cryptoprim_test

import (
	"bytes"
	"testing"

	"github.com/sarahazel/tls-core/pkg/cryptoprim"
)

func TestCBCEncryptDecryptRoundTrip(t *testing.T) {
	key := make([]byte, 16)
	for i := range key {
		key[i] = byte(i)
	}
	cbc, err := cryptoprim.NewCBCCipher(key)
	if err != nil {
		t.Fatalf("NewCBCCipher: %v", err)
	}

	iv := make([]byte, cbc.BlockSize())
	macedPlaintext := []byte("plaintext followed by a MAC tag of fixed size!!")

	ciphertext := cbc.Encrypt(iv, macedPlaintext)
	got, err := cbc.Decrypt(ciphertext[:cbc.BlockSize()], ciphertext[cbc.BlockSize():])
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if !bytes.Equal(got, macedPlaintext) {
		t.Errorf("round trip mismatch: got %q, want %q", got, macedPlaintext)
	}
}

func TestCBCDecryptRejectsBadPadding(t *testing.T) {
	key := make([]byte, 16)
	cbc, _ := cryptoprim.NewCBCCipher(key)
	iv := make([]byte, cbc.BlockSize())

	ciphertext := cbc.Encrypt(iv, []byte("short message"))
	body := ciphertext[cbc.BlockSize():]
	body[len(body)-1] ^= 0xFF // corrupt the final padding byte

	if _, err := cbc.Decrypt(ciphertext[:cbc.BlockSize()], body); err == nil {
		t.Error("Decrypt should reject corrupted padding")
	}
}

func TestCBCOutputIsBlockAligned(t *testing.T) {
	key := make([]byte, 16)
	cbc, _ := cryptoprim.NewCBCCipher(key)
	iv := make([]byte, cbc.BlockSize())

	for _, n := range []int{1, 15, 16, 17, 31, 32} {
		ciphertext := cbc.Encrypt(iv, make([]byte, n))
		body := len(ciphertext) - cbc.BlockSize()
		if body%cbc.BlockSize() != 0 {
			t.Errorf("Encrypt(%d bytes) produced non-block-aligned body of %d bytes", n, body)
		}
	}
}
