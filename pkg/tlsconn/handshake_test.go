package tlsconn

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"net"
	"testing"
	"time"

	"github.com/sarahazel/tls-core/internal/constants"
	"github.com/sarahazel/tls-core/pkg/cryptoprim"
	"github.com/sarahazel/tls-core/pkg/tlscore"
	"github.com/sarahazel/tls-core/pkg/wire"
)

func testServerIdentity(t *testing.T, suite constants.CipherSuite) ServerIdentity {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "test.invalid"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &priv.PublicKey, priv)
	if err != nil {
		t.Fatalf("CreateCertificate: %v", err)
	}
	return ServerIdentity{Certificate: der, RSAKey: priv, CipherSuite: suite}
}

func runHandshake(t *testing.T, suite constants.CipherSuite) (*Conn, *Conn) {
	t.Helper()
	clientRaw, serverRaw := net.Pipe()

	clientPRNG := cryptoprim.NewPRNG([]byte("client"))
	serverPRNG := cryptoprim.NewPRNG([]byte("server"))
	client := newConn(clientRaw, tlscore.RoleClient, clientPRNG, DefaultConfig())
	server := newConn(serverRaw, tlscore.RoleServer, serverPRNG, DefaultConfig())

	id := testServerIdentity(t, suite)

	clientErr := make(chan error, 1)
	go func() {
		clientErr <- ClientHandshake(client, ClientIdentity{
			Version:      wire.VersionTLS12,
			CipherSuites: []constants.CipherSuite{suite},
		})
	}()

	if err := ServerHandshake(server, id); err != nil {
		t.Fatalf("ServerHandshake: %v", err)
	}
	if err := <-clientErr; err != nil {
		t.Fatalf("ClientHandshake: %v", err)
	}
	return client, server
}

func TestHandshakeEstablishesOK(t *testing.T) {
	client, server := runHandshake(t, constants.CipherSuiteRSAWithAES128CBCSHA)
	defer client.raw.Close()
	defer server.raw.Close()

	if _, ok := client.State().Status().IsHandshake(); ok {
		t.Fatalf("client status still mid-handshake: %v", client.State().Status())
	}
	if client.State().Status().String() != "Ok" {
		t.Fatalf("client status = %v, want Ok", client.State().Status())
	}
	if server.State().Status().String() != "Ok" {
		t.Fatalf("server status = %v, want Ok", server.State().Status())
	}
	if !client.State().TxEncrypted() || !client.State().RxEncrypted() {
		t.Fatal("client directions not both encrypted after handshake")
	}
	if !server.State().TxEncrypted() || !server.State().RxEncrypted() {
		t.Fatal("server directions not both encrypted after handshake")
	}
}

func TestHandshakeAppDataRoundTrip(t *testing.T) {
	client, server := runHandshake(t, constants.CipherSuiteRSAWithAES128CBCSHA)
	defer client.raw.Close()
	defer server.raw.Close()

	msg := []byte("hello over a CBC-protected record")
	done := make(chan error, 1)
	go func() {
		_, err := client.Write(msg)
		done <- err
	}()

	buf := make([]byte, len(msg))
	n, err := server.Read(buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !bytes.Equal(buf[:n], msg) {
		t.Fatalf("got %q, want %q", buf[:n], msg)
	}
}

func TestHandshakeAppDataRoundTripAEAD(t *testing.T) {
	client, server := runHandshake(t, constants.CipherSuiteECDHERSAWithAES128GCMSHA256)
	defer client.raw.Close()
	defer server.raw.Close()

	msg := []byte("AEAD-protected application data")
	done := make(chan error, 1)
	go func() {
		_, err := client.Write(msg)
		done <- err
	}()

	buf := make([]byte, len(msg))
	n, err := server.Read(buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !bytes.Equal(buf[:n], msg) {
		t.Fatalf("got %q, want %q", buf[:n], msg)
	}
}

func TestHandshakeBothSequencesStartAtZero(t *testing.T) {
	client, server := runHandshake(t, constants.CipherSuiteRSAWithAES128CBCSHA)
	defer client.raw.Close()
	defer server.raw.Close()

	// Both sequences start at 0 once keys are engaged; the client's one
	// encrypted Finished record used sequence 0, leaving both at 1.
	seq, ok := client.State().TxSequence()
	if !ok || seq != 1 {
		t.Fatalf("client tx sequence = %d, %v, want 1, true", seq, ok)
	}
	seq, ok = server.State().RxSequence()
	if !ok || seq != 1 {
		t.Fatalf("server rx sequence = %d, %v, want 1, true", seq, ok)
	}
}

// TestHandshakeRejectsUnofferedCipherSuite drives a client that only offers
// an AES256 suite against a server fixed on an AES128 one: the client must
// refuse the ServerHello rather than silently adopting whatever the server
// picked.
func TestHandshakeRejectsUnofferedCipherSuite(t *testing.T) {
	clientRaw, serverRaw := net.Pipe()

	clientPRNG := cryptoprim.NewPRNG([]byte("client"))
	serverPRNG := cryptoprim.NewPRNG([]byte("server"))
	client := newConn(clientRaw, tlscore.RoleClient, clientPRNG, DefaultConfig())
	server := newConn(serverRaw, tlscore.RoleServer, serverPRNG, DefaultConfig())
	defer client.raw.Close()
	defer server.raw.Close()

	id := testServerIdentity(t, constants.CipherSuiteRSAWithAES128CBCSHA)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- ServerHandshake(server, id)
	}()

	err := ClientHandshake(client, ClientIdentity{
		Version:      wire.VersionTLS12,
		CipherSuites: []constants.CipherSuite{constants.CipherSuiteRSAWithAES256CBCSHA},
	})
	if err == nil {
		t.Fatal("ClientHandshake succeeded despite the server choosing an unoffered suite")
	}
	<-serverErr
}

// TestHandshakeRejectsOutOfOrderMessage drives a server that receives an
// application_data record where it expects a ClientKeyExchange.
func TestHandshakeRejectsOutOfOrderMessage(t *testing.T) {
	clientRaw, serverRaw := net.Pipe()
	serverPRNG := cryptoprim.NewPRNG([]byte("server"))
	server := newConn(serverRaw, tlscore.RoleServer, serverPRNG, DefaultConfig())
	defer serverRaw.Close()

	id := testServerIdentity(t, constants.CipherSuiteRSAWithAES128CBCSHA)
	serverErr := make(chan error, 1)
	go func() { serverErr <- ServerHandshake(server, id) }()

	clientPRNG := cryptoprim.NewPRNG([]byte("client"))
	client := newConn(clientRaw, tlscore.RoleClient, clientPRNG, DefaultConfig())
	client.state.StartHandshakeClient(wire.VersionTLS12, client.clientRandom())
	io := &handshakeIO{conn: client}
	chBody := encodeClientHello(wire.VersionTLS12, client.lastClientRandom,
		[]constants.CipherSuite{constants.CipherSuiteRSAWithAES128CBCSHA})
	if err := io.send(wire.HandshakeTypeClientHello, chBody); err != nil {
		t.Fatalf("send ClientHello: %v", err)
	}
	if err := client.state.UpdateStatusHS(wire.HandshakeTypeClientHello); err != nil {
		t.Fatalf("UpdateStatusHS: %v", err)
	}

	// Drain the server's ServerHello/Certificate/ServerHelloDone, then send
	// garbage instead of ClientKeyExchange.
	for i := 0; i < 3; i++ {
		if _, _, err := io.recv(); err != nil {
			t.Fatalf("recv %d: %v", i, err)
		}
	}
	if err := client.writeRecord(wire.ContentTypeApplicationData, []byte("not a handshake message")); err != nil {
		t.Fatalf("writeRecord: %v", err)
	}
	clientRaw.Close()

	if err := <-serverErr; err == nil {
		t.Fatal("ServerHandshake succeeded after receiving an out-of-order message")
	}
}
