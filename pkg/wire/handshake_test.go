package wire_test

import (
	"bytes"
	"testing"

	"github.com/sarahazel/tls-core/pkg/wire"
)

func TestHandshakeHeaderRoundTrip(t *testing.T) {
	h := wire.HandshakeHeader{Type: wire.HandshakeTypeClientHello, Length: 300}
	encoded := wire.EncodeHandshakeHeader(h)
	if len(encoded) != 4 {
		t.Fatalf("encoded handshake header length = %d, want 4", len(encoded))
	}
	decoded, err := wire.DecodeHandshakeHeader(encoded)
	if err != nil {
		t.Fatalf("DecodeHandshakeHeader: %v", err)
	}
	if decoded != h {
		t.Errorf("round trip mismatch: got %+v, want %+v", decoded, h)
	}
}

func TestEncodeHandshakeMessagePrependsHeader(t *testing.T) {
	body := []byte("hello body")
	msg := wire.EncodeHandshakeMessage(wire.HandshakeTypeFinished, body)
	if len(msg) != 4+len(body) {
		t.Fatalf("message length = %d, want %d", len(msg), 4+len(body))
	}
	header, err := wire.DecodeHandshakeHeader(msg[:4])
	if err != nil {
		t.Fatalf("DecodeHandshakeHeader: %v", err)
	}
	if header.Type != wire.HandshakeTypeFinished || header.Length != uint32(len(body)) {
		t.Errorf("unexpected header %+v", header)
	}
	if !bytes.Equal(msg[4:], body) {
		t.Error("body should follow the header unmodified")
	}
}

func TestDecodeHandshakeHeaderRejectsShortInput(t *testing.T) {
	if _, err := wire.DecodeHandshakeHeader([]byte{1, 2}); err == nil {
		t.Error("DecodeHandshakeHeader should reject input shorter than 4 bytes")
	}
}
