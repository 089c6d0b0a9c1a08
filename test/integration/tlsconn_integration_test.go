package integration

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"io"
	"math/big"
	"net"
	"testing"
	"time"

	"github.com/sarahazel/tls-core/internal/constants"
	"github.com/sarahazel/tls-core/pkg/tlsconn"
	"github.com/sarahazel/tls-core/pkg/wire"
)

func generateServerIdentity(t *testing.T, suite constants.CipherSuite) tlsconn.ServerIdentity {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "integration.test"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &priv.PublicKey, priv)
	if err != nil {
		t.Fatalf("CreateCertificate: %v", err)
	}
	return tlsconn.ServerIdentity{Certificate: der, RSAKey: priv, CipherSuite: suite}
}

// TestDialAcceptOverRealTCP drives a full handshake and an application-data
// round trip over an actual loopback TCP socket, rather than net.Pipe, to
// exercise Dial/Accept's real dialing and record fragmentation/reassembly
// over the OS's TCP stack.
func TestDialAcceptOverRealTCP(t *testing.T) {
	suite := constants.CipherSuiteRSAWithAES128CBCSHA
	id := generateServerIdentity(t, suite)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()

	// A message larger than one MaxRecordLength fragment, to exercise
	// writeRecord's fragmentation path over a real socket.
	msg := bytes.Repeat([]byte("integration-round-trip-"), 1500)

	serverErr := make(chan error, 1)
	serverMsg := make(chan []byte, 1)
	go func() {
		raw, err := ln.Accept()
		if err != nil {
			serverErr <- err
			return
		}
		conn, err := tlsconn.Accept(raw, id, tlsconn.DefaultConfig())
		if err != nil {
			serverErr <- err
			return
		}
		// Read returns one record's data per call; collect every fragment.
		buf := make([]byte, len(msg))
		n, err := io.ReadFull(conn, buf)
		if err != nil {
			serverErr <- err
			return
		}
		serverMsg <- append([]byte(nil), buf[:n]...)
		serverErr <- nil
	}()

	clientID := tlsconn.ClientIdentity{
		Version:      wire.VersionTLS12,
		CipherSuites: []constants.CipherSuite{suite},
	}
	conn, err := tlsconn.Dial("tcp", ln.Addr().String(), clientID, tlsconn.DefaultConfig())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	if _, err := conn.Write(msg); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if err := <-serverErr; err != nil {
		t.Fatalf("server: %v", err)
	}
	got := <-serverMsg
	if !bytes.Equal(got, msg) {
		t.Fatalf("got %d bytes, want %d bytes matching", len(got), len(msg))
	}
}

// TestPoolAcquireOverRealTCP exercises the connection pool against a real
// listener accepting multiple sequential connections.
func TestPoolAcquireOverRealTCP(t *testing.T) {
	suite := constants.CipherSuiteRSAWithAES128CBCSHA
	id := generateServerIdentity(t, suite)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()

	go func() {
		for {
			raw, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				conn, err := tlsconn.Accept(raw, id, tlsconn.DefaultConfig())
				if err != nil {
					raw.Close()
					return
				}
				buf := make([]byte, 64)
				for {
					n, err := conn.Read(buf)
					if err != nil {
						return
					}
					if _, err := conn.Write(buf[:n]); err != nil {
						return
					}
				}
			}()
		}
	}()

	clientID := tlsconn.ClientIdentity{
		Version:      wire.VersionTLS12,
		CipherSuites: []constants.CipherSuite{suite},
	}
	pool := tlsconn.NewPool("tcp", ln.Addr().String(), clientID, tlsconn.DefaultConfig(), tlsconn.PoolConfig{MaxConns: 3})
	defer pool.Close()

	for i := 0; i < 3; i++ {
		conn, err := pool.Acquire()
		if err != nil {
			t.Fatalf("Acquire %d: %v", i, err)
		}
		msg := []byte("ping")
		if _, err := conn.Write(msg); err != nil {
			t.Fatalf("Write %d: %v", i, err)
		}
		buf := make([]byte, len(msg))
		if _, err := conn.Read(buf); err != nil {
			t.Fatalf("Read %d: %v", i, err)
		}
		if !bytes.Equal(buf, msg) {
			t.Fatalf("got %q, want %q", buf, msg)
		}
		pool.Release(conn)
	}

	if total, idle := pool.Stats(); total != 1 || idle != 1 {
		t.Fatalf("Stats = %d,%d, want 1,1 (connection should have been reused)", total, idle)
	}
}
