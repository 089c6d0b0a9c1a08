package cryptoprim_test

import (
	"bytes"
	"testing"

	"github.com/sarahazel/tls-core/pkg/cryptoprim"
)

func TestECDHEX25519SharedSecretAgrees(t *testing.T) {
	client, err := cryptoprim.GenerateECDHEKeyPair(cryptoprim.CurveX25519)
	if err != nil {
		t.Fatalf("GenerateECDHEKeyPair: %v", err)
	}
	server, err := cryptoprim.GenerateECDHEKeyPair(cryptoprim.CurveX25519)
	if err != nil {
		t.Fatalf("GenerateECDHEKeyPair: %v", err)
	}

	secret1, err := cryptoprim.ECDHESharedSecret(client.PrivateKey, server.PublicKey)
	if err != nil {
		t.Fatalf("ECDHESharedSecret: %v", err)
	}
	secret2, err := cryptoprim.ECDHESharedSecret(server.PrivateKey, client.PublicKey)
	if err != nil {
		t.Fatalf("ECDHESharedSecret: %v", err)
	}

	if !bytes.Equal(secret1, secret2) {
		t.Error("both sides of an ECDHE exchange must agree on the shared secret")
	}
}

func TestECDHEP256SharedSecretAgrees(t *testing.T) {
	client, _ := cryptoprim.GenerateECDHEKeyPair(cryptoprim.CurveP256)
	server, _ := cryptoprim.GenerateECDHEKeyPair(cryptoprim.CurveP256)

	secret1, err := cryptoprim.ECDHESharedSecret(client.PrivateKey, server.PublicKey)
	if err != nil {
		t.Fatalf("ECDHESharedSecret: %v", err)
	}
	secret2, err := cryptoprim.ECDHESharedSecret(server.PrivateKey, client.PublicKey)
	if err != nil {
		t.Fatalf("ECDHESharedSecret: %v", err)
	}

	if !bytes.Equal(secret1, secret2) {
		t.Error("both sides of a P-256 ECDHE exchange must agree on the shared secret")
	}
}

func TestParseECDHEPublicKeyRoundTrip(t *testing.T) {
	kp, _ := cryptoprim.GenerateECDHEKeyPair(cryptoprim.CurveX25519)
	parsed, err := cryptoprim.ParseECDHEPublicKey(cryptoprim.CurveX25519, kp.PublicKeyBytes())
	if err != nil {
		t.Fatalf("ParseECDHEPublicKey: %v", err)
	}
	if !bytes.Equal(parsed.Bytes(), kp.PublicKeyBytes()) {
		t.Error("parsed public key bytes should match the original")
	}
}
