// Package tlscore provides a TLS 1.0/1.1/1.2 connection-state core: the
// handshake status machine, key schedule, transcript digests, and
// per-direction record MAC/sequence state a TLS implementation is built
// around.
//
// # Quick Start
//
// For a complete TLS connection with handshake:
//
//	import "github.com/sarahazel/tls-core/pkg/tlsconn"
//
//	// Server
//	listener, _ := net.Listen("tcp", ":8443")
//	raw, _ := listener.Accept()
//	conn, _ := tlsconn.Accept(raw, serverIdentity, tlsconn.DefaultConfig())
//	buf := make([]byte, 1024)
//	n, _ := conn.Read(buf)
//
//	// Client
//	conn, _ := tlsconn.Dial("tcp", "localhost:8443", clientIdentity, tlsconn.DefaultConfig())
//	conn.Write([]byte("Hello!"))
//
// For the bare connection-state core without a transport wrapped around it:
//
//	import "github.com/sarahazel/tls-core/pkg/tlscore"
//
//	state := tlscore.NewConnectionState(tlscore.RoleClient, prng)
//	state.StartHandshakeClient(wire.VersionTLS12, clientRandom)
//
// # Package Structure
//
// The library is organized into several packages:
//
//   - pkg/tlscore: handshake status machine, key schedule, transcript digests
//   - pkg/tlsconn: record dispatcher, handshake drivers, session tickets, pooling
//   - pkg/cryptoprim: low-level cryptographic primitives (PRF, MAC, CBC, AEAD, ECDHE, RSA)
//   - pkg/wire: wire-format types and codecs (versions, cipher suites, records, handshake messages, alerts)
//   - pkg/metrics: observability primitives (logging, tracing, metrics export)
//   - internal/constants: protocol size and timing constants
//   - internal/errors: structured error types
//
// # Security Properties
//
// The connection-state core enforces:
//
//   - A handshake status machine that rejects out-of-order or duplicate messages
//   - Version-appropriate PRF selection (SSL3 PRF, P_MD5 XOR P_SHA1 for TLS1.0/1.1, P_SHA256 for TLS1.2) and a record MAC whose hash the cipher suite selects
//   - Independent per-direction sequence counters and key material
//   - Constant-time MAC and Finished-message comparison
//
// # Testing
//
// The library includes package-level tests alongside the code they cover:
//
//	go test ./...
//
// # References
//
//   - RFC 5246: The Transport Layer Security (TLS) Protocol Version 1.2
//   - RFC 4346: The Transport Layer Security (TLS) Protocol Version 1.1
//   - RFC 2246: The TLS Protocol Version 1.0
//   - RFC 5288 / RFC 5289: AES-GCM Cipher Suites for TLS
//   - RFC 8422: ECDHE_RSA Cipher Suites
package tlscore
