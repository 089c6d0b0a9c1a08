package tlscore_test

import (
	"bytes"
	"testing"

	"github.com/sarahazel/tls-core/pkg/cryptoprim"
	"github.com/sarahazel/tls-core/pkg/tlscore"
	"github.com/sarahazel/tls-core/pkg/wire"
)

func TestSequenceZeroProducesZeroPrefixedMACInput(t *testing.T) {
	c := stateWithKeyMaterial(t, tlscore.RoleClient)
	seq, ok := c.TxSequence()
	if !ok || seq != 0 {
		t.Fatalf("expected initial tx sequence 0, got %d (ok=%v)", seq, ok)
	}
	if got := wire.EncodeWord64(seq); got != ([8]byte{}) {
		t.Errorf("EncodeWord64(0) = %v, want eight zero bytes", got)
	}
}

func TestClientFullHandshakeEndToEnd(t *testing.T) {
	prng := cryptoprim.NewPRNG(make([]byte, 32))
	c := tlscore.NewConnectionState(tlscore.RoleClient, prng)
	c.StartHandshakeClient(wire.VersionTLS10, make([]byte, 32))

	assertStatus := func(want tlscore.Status) {
		t.Helper()
		if c.Status().String() != want.String() {
			t.Fatalf("status = %v, want %v", c.Status(), want)
		}
	}

	if err := c.UpdateStatusHS(wire.HandshakeTypeClientHello); err != nil {
		t.Fatalf("ClientHello: %v", err)
	}
	assertStatus(tlscore.StatusHandshake(tlscore.StepClientHello))

	for _, mt := range []wire.HandshakeType{
		wire.HandshakeTypeServerHello,
		wire.HandshakeTypeCertificate,
		wire.HandshakeTypeServerHelloDone,
	} {
		if err := c.UpdateStatusHS(mt); err != nil {
			t.Fatalf("%v: %v", mt, err)
		}
	}
	assertStatus(tlscore.StatusHandshake(tlscore.StepServerHelloDone))

	if err := c.SetServerRandom(make([]byte, 32)); err != nil {
		t.Fatalf("SetServerRandom: %v", err)
	}
	c.SetCipher(wire.CipherSuiteParams{
		Hash: wire.HashAlgorithmSHA1, MACKeyLength: 20, EncKeyLength: 16, FixedIVLength: 16,
	})

	if err := c.UpdateStatusHS(wire.HandshakeTypeClientKeyExchange); err != nil {
		t.Fatalf("ClientKeyExchange: %v", err)
	}
	assertStatus(tlscore.StatusHandshake(tlscore.StepClientKeyXchg))

	if err := c.SetMasterSecret(make([]byte, 48)); err != nil {
		t.Fatalf("SetMasterSecret: %v", err)
	}
	if err := c.SetKeyBlock(); err != nil {
		t.Fatalf("SetKeyBlock: %v", err)
	}

	if err := c.UpdateStatusCC(true); err != nil {
		t.Fatalf("UpdateStatusCC(true): %v", err)
	}
	assertStatus(tlscore.StatusHandshake(tlscore.StepClientChangeCipher))
	c.SwitchTxEncryption()

	if err := c.UpdateStatusHS(wire.HandshakeTypeFinished); err != nil {
		t.Fatalf("client Finished: %v", err)
	}
	assertStatus(tlscore.StatusHandshake(tlscore.StepClientFinished))

	if err := c.UpdateStatusCC(false); err != nil {
		t.Fatalf("UpdateStatusCC(false): %v", err)
	}
	assertStatus(tlscore.StatusHandshake(tlscore.StepServerChangeCipher))
	c.SwitchRxEncryption()

	if err := c.UpdateStatusHS(wire.HandshakeTypeFinished); err != nil {
		t.Fatalf("server Finished: %v", err)
	}
	assertStatus(tlscore.StatusOK)

	if !c.TxEncrypted() || !c.RxEncrypted() {
		t.Error("both directions should be encrypted at handshake completion")
	}

	c.EndHandshake()
	if c.HasHandshake() {
		t.Error("handshake state should be cleared after EndHandshake")
	}
	// Negotiated cipher and encryption flags persist past EndHandshake.
	if _, ok := c.Cipher(); !ok {
		t.Error("cipher should persist after EndHandshake")
	}
	if !c.TxEncrypted() || !c.RxEncrypted() {
		t.Error("encryption flags should persist after EndHandshake")
	}
}

func TestUnexpectedServerHelloInInit(t *testing.T) {
	prng := cryptoprim.NewPRNG(make([]byte, 32))
	c := tlscore.NewConnectionState(tlscore.RoleClient, prng)
	err := c.UpdateStatusHS(wire.HandshakeTypeServerHello)
	if err == nil {
		t.Fatal("expected UnexpectedPacket")
	}
	if c.Status().String() != tlscore.StatusInit.String() {
		t.Errorf("status should remain Init, got %v", c.Status())
	}
}

func TestKeyBlockPartitionReproducesConcatenation(t *testing.T) {
	params := wire.CipherSuiteParams{Hash: wire.HashAlgorithmSHA1, MACKeyLength: 20, EncKeyLength: 16, FixedIVLength: 16}
	want := params.KeyBlockLength()
	got := 2*params.MACKeyLength + 2*params.EncKeyLength + 2*params.FixedIVLength
	if want != got {
		t.Errorf("KeyBlockLength() = %d, want %d", want, got)
	}
}

func TestRoleDefaultsAreExplicit(t *testing.T) {
	if !tlscore.RoleClient.IsClient() {
		t.Error("RoleClient.IsClient() should be true")
	}
	if tlscore.RoleServer.IsClient() {
		t.Error("RoleServer.IsClient() should be false")
	}
}

func TestCryptStateAccessorsRequireKeyBlock(t *testing.T) {
	prng := cryptoprim.NewPRNG(make([]byte, 32))
	c := tlscore.NewConnectionState(tlscore.RoleClient, prng)
	if _, err := c.TxCryptState(); err == nil {
		t.Error("TxCryptState should fail before SetKeyBlock")
	}
	if _, err := c.RxCryptState(); err == nil {
		t.Error("RxCryptState should fail before SetKeyBlock")
	}

	keyed := stateWithKeyMaterial(t, tlscore.RoleClient)
	tx, err := keyed.TxCryptState()
	if err != nil {
		t.Fatalf("TxCryptState: %v", err)
	}
	rx, err := keyed.RxCryptState()
	if err != nil {
		t.Fatalf("RxCryptState: %v", err)
	}
	if len(tx.Key) == 0 || len(rx.Key) == 0 {
		t.Error("expected non-empty key material for both directions")
	}
	if bytes.Equal(tx.Key, rx.Key) {
		t.Error("client write key and read key should differ")
	}
}

func TestTranscriptHashSetSelectionByVersion(t *testing.T) {
	tls12 := newClientState(t)
	tls12.StartHandshakeClient(wire.VersionTLS12, make([]byte, 32))
	tls12.SetServerRandom(make([]byte, 32))
	tls12.SetMasterSecret(make([]byte, 48))
	digest12, err := tls12.GetHandshakeDigest(true)
	if err != nil {
		t.Fatalf("GetHandshakeDigest: %v", err)
	}
	if len(digest12) == 0 {
		t.Error("expected non-empty verify_data")
	}

	tls10 := newClientState(t)
	tls10.StartHandshakeClient(wire.VersionTLS10, make([]byte, 32))
	tls10.SetServerRandom(make([]byte, 32))
	tls10.SetMasterSecret(make([]byte, 48))
	digest10, err := tls10.GetHandshakeDigest(true)
	if err != nil {
		t.Fatalf("GetHandshakeDigest: %v", err)
	}

	if bytes.Equal(digest10, digest12) {
		t.Error("TLS1.0 and TLS1.2 verify_data should differ given different PRF/hash selection")
	}
}
