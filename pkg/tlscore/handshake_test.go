package tlscore_test

import (
	"bytes"
	"testing"

	"github.com/sarahazel/tls-core/pkg/cryptoprim"
	"github.com/sarahazel/tls-core/pkg/tlscore"
	"github.com/sarahazel/tls-core/pkg/wire"
)

func TestHandshakePresenceWindow(t *testing.T) {
	c := newClientState(t)
	if c.HasHandshake() {
		t.Fatal("handshake should be absent before StartHandshakeClient")
	}
	c.StartHandshakeClient(wire.VersionTLS10, make([]byte, 32))
	if !c.HasHandshake() {
		t.Fatal("handshake should be present after StartHandshakeClient")
	}
	c.EndHandshake()
	if c.HasHandshake() {
		t.Fatal("handshake should be absent after EndHandshake")
	}
}

func TestStartHandshakeClientRejectsReentry(t *testing.T) {
	c := newClientState(t)
	first := make([]byte, 32)
	first[0] = 0xAA
	if err := c.StartHandshakeClient(wire.VersionTLS10, first); err != nil {
		t.Fatalf("first StartHandshakeClient: %v", err)
	}

	second := make([]byte, 32)
	second[0] = 0xBB
	if err := c.StartHandshakeClient(wire.VersionTLS12, second); err == nil {
		t.Fatal("StartHandshakeClient on an already-started handshake should fail")
	}

	// The original version must survive the rejected re-entry, and the
	// handshake must still accept the later key-schedule setters.
	if c.Version() != wire.VersionTLS10 {
		t.Errorf("version after rejected re-entry = %v, want %v", c.Version(), wire.VersionTLS10)
	}
	if err := c.SetServerRandom(make([]byte, 32)); err != nil {
		t.Fatalf("SetServerRandom: %v", err)
	}
	if err := c.SetMasterSecret(make([]byte, 48)); err != nil {
		t.Fatalf("SetMasterSecret: %v", err)
	}
}

func TestSetMasterSecretBeforeServerRandomFails(t *testing.T) {
	c := newClientState(t)
	c.StartHandshakeClient(wire.VersionTLS10, make([]byte, 32))
	if err := c.SetMasterSecret(make([]byte, 48)); err == nil {
		t.Error("SetMasterSecret before SetServerRandom should fail with InternalError")
	}
}

func TestSetKeyBlockBeforeCipherFails(t *testing.T) {
	c := newClientState(t)
	c.StartHandshakeClient(wire.VersionTLS10, make([]byte, 32))
	c.SetServerRandom(make([]byte, 32))
	c.SetMasterSecret(make([]byte, 48))
	if err := c.SetKeyBlock(); err == nil {
		t.Error("SetKeyBlock before SetCipher should fail with InternalError")
	}
}

func TestTranscriptEquivalenceUnderSplit(t *testing.T) {
	body := []byte("simulated ClientHello body")

	direct := newClientState(t)
	direct.StartHandshakeClient(wire.VersionTLS10, make([]byte, 32))
	header := wire.EncodeHandshakeHeader(wire.HandshakeHeader{Type: wire.HandshakeTypeClientHello, Length: uint32(len(body))})
	if err := direct.UpdateHandshakeDigest(append(append([]byte{}, header...), body...)); err != nil {
		t.Fatalf("UpdateHandshakeDigest: %v", err)
	}

	split := newClientState(t)
	split.StartHandshakeClient(wire.VersionTLS10, make([]byte, 32))
	if err := split.UpdateHandshakeDigestSplitted(wire.HandshakeTypeClientHello, body); err != nil {
		t.Fatalf("UpdateHandshakeDigestSplitted: %v", err)
	}

	direct.SetServerRandom(make([]byte, 32))
	split.SetServerRandom(make([]byte, 32))
	direct.SetMasterSecret(make([]byte, 48))
	split.SetMasterSecret(make([]byte, 48))

	d1, err := direct.GetHandshakeDigest(true)
	if err != nil {
		t.Fatalf("GetHandshakeDigest (direct): %v", err)
	}
	d2, err := split.GetHandshakeDigest(true)
	if err != nil {
		t.Fatalf("GetHandshakeDigest (split): %v", err)
	}
	if !bytes.Equal(d1, d2) {
		t.Error("UpdateHandshakeDigestSplitted should produce the same transcript as an equivalent direct update")
	}
}

func TestGetHandshakeDigestIsIdempotent(t *testing.T) {
	c := newClientState(t)
	c.StartHandshakeClient(wire.VersionTLS10, make([]byte, 32))
	c.UpdateHandshakeDigest([]byte("some handshake bytes"))
	c.SetServerRandom(make([]byte, 32))
	c.SetMasterSecret(make([]byte, 48))

	first, err := c.GetHandshakeDigest(true)
	if err != nil {
		t.Fatalf("GetHandshakeDigest: %v", err)
	}
	second, err := c.GetHandshakeDigest(true)
	if err != nil {
		t.Fatalf("GetHandshakeDigest: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("GetHandshakeDigest should not mutate the transcript between calls")
	}

	// The live transcript must still be usable after the snapshot reads.
	if err := c.UpdateHandshakeDigest([]byte("more bytes")); err != nil {
		t.Fatalf("UpdateHandshakeDigest after GetHandshakeDigest: %v", err)
	}
}

func TestClientAndServerFinishedDiffer(t *testing.T) {
	c := newClientState(t)
	c.StartHandshakeClient(wire.VersionTLS12, make([]byte, 32))
	c.UpdateHandshakeDigest([]byte("transcript"))
	c.SetServerRandom(make([]byte, 32))
	c.SetMasterSecret(make([]byte, 48))

	clientFinished, err := c.GetHandshakeDigest(true)
	if err != nil {
		t.Fatalf("GetHandshakeDigest(client): %v", err)
	}
	serverFinished, err := c.GetHandshakeDigest(false)
	if err != nil {
		t.Fatalf("GetHandshakeDigest(server): %v", err)
	}
	if bytes.Equal(clientFinished, serverFinished) {
		t.Error("client and server Finished verify_data must differ")
	}
}

func TestSetKeyBlockRoleSplit(t *testing.T) {
	macLen, keyLen, ivLen := 20, 16, 16
	params := wire.CipherSuiteParams{
		Hash:          wire.HashAlgorithmSHA1,
		MACKeyLength:  macLen,
		EncKeyLength:  keyLen,
		FixedIVLength: ivLen,
	}

	run := func(role tlscore.Role) *tlscore.ConnectionState {
		prng := cryptoprim.NewPRNG(make([]byte, 32))
		c := tlscore.NewConnectionState(role, prng)
		c.SetCipher(params)
		if role == tlscore.RoleClient {
			c.StartHandshakeClient(wire.VersionTLS10, make([]byte, 32))
		} else {
			c.StartHandshakeServer(wire.VersionTLS10, make([]byte, 32))
		}
		c.SetServerRandom(make([]byte, 32))
		if err := c.SetMasterSecret(make([]byte, 48)); err != nil {
			t.Fatalf("SetMasterSecret: %v", err)
		}
		if err := c.SetKeyBlock(); err != nil {
			t.Fatalf("SetKeyBlock: %v", err)
		}
		return c
	}

	clientSide := run(tlscore.RoleClient)
	serverSide := run(tlscore.RoleServer)

	// Same inputs, same role-agnostic key-block math: the client's txCrypt
	// key material should equal the server's rxCrypt key material and
	// vice versa. We can't read the private CryptState fields directly
	// from the test package, so assert indirectly via MakeDigest output:
	// client-tx MAC over a fixed message must equal server-rx MAC over
	// the same message, since they share the same CryptState.
	header := wire.RecordHeader{Type: wire.ContentTypeHandshake, Version: wire.VersionTLS10, Length: 5}
	content := []byte("hello")

	clientTxDigest, err := clientSide.MakeDigest(tlscore.DirectionTx, header, content)
	if err != nil {
		t.Fatalf("MakeDigest (client tx): %v", err)
	}
	serverRxDigest, err := serverSide.MakeDigest(tlscore.DirectionRx, header, content)
	if err != nil {
		t.Fatalf("MakeDigest (server rx): %v", err)
	}
	if !bytes.Equal(clientTxDigest, serverRxDigest) {
		t.Error("client's tx direction should share key material with the server's rx direction")
	}
}
