package wire

import (
	"golang.org/x/crypto/cryptobyte"

	"github.com/sarahazel/tls-core/internal/constants"
	qerrors "github.com/sarahazel/tls-core/internal/errors"
)

// HandshakeType enumerates the handshake message types the status
// machine's HandshakeStep progression is driven by (RFC 5246 §7.4).
type HandshakeType uint8

const (
	HandshakeTypeHelloRequest       HandshakeType = 0
	HandshakeTypeClientHello        HandshakeType = 1
	HandshakeTypeServerHello        HandshakeType = 2
	HandshakeTypeCertificate        HandshakeType = 11
	HandshakeTypeServerKeyExchange  HandshakeType = 12
	HandshakeTypeCertificateRequest HandshakeType = 13
	HandshakeTypeServerHelloDone    HandshakeType = 14
	HandshakeTypeCertificateVerify  HandshakeType = 15
	HandshakeTypeClientKeyExchange  HandshakeType = 16
	HandshakeTypeFinished           HandshakeType = 20
)

func (ht HandshakeType) String() string {
	switch ht {
	case HandshakeTypeHelloRequest:
		return "hello_request"
	case HandshakeTypeClientHello:
		return "client_hello"
	case HandshakeTypeServerHello:
		return "server_hello"
	case HandshakeTypeCertificate:
		return "certificate"
	case HandshakeTypeServerKeyExchange:
		return "server_key_exchange"
	case HandshakeTypeCertificateRequest:
		return "certificate_request"
	case HandshakeTypeServerHelloDone:
		return "server_hello_done"
	case HandshakeTypeCertificateVerify:
		return "certificate_verify"
	case HandshakeTypeClientKeyExchange:
		return "client_key_exchange"
	case HandshakeTypeFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// HandshakeHeader is the 4-byte msg_type(1)||length(3) prefix every
// handshake message carries, independent of the record layer framing
// it rides inside.
type HandshakeHeader struct {
	Type   HandshakeType
	Length uint32 // 24-bit on the wire
}

// EncodeHandshakeHeader serializes a handshake message header.
func EncodeHandshakeHeader(h HandshakeHeader) []byte {
	var b cryptobyte.Builder
	b.AddUint8(uint8(h.Type))
	b.AddUint24(h.Length)
	return b.BytesOrPanic()
}

// DecodeHandshakeHeader parses a 4-byte handshake message header.
func DecodeHandshakeHeader(data []byte) (HandshakeHeader, error) {
	if len(data) < constants.HandshakeHeaderSize {
		return HandshakeHeader{}, qerrors.ErrInvalidMessage
	}
	s := cryptobyte.String(data)
	var typ uint8
	var length uint32
	if !s.ReadUint8(&typ) || !s.ReadUint24(&length) {
		return HandshakeHeader{}, qerrors.ErrInvalidMessage
	}
	return HandshakeHeader{Type: HandshakeType(typ), Length: length}, nil
}

// EncodeHandshakeMessage prefixes body with its handshake header, the
// framing the transcript digest is fed in full (header included) per
// RFC 5246 §7.4.1.
func EncodeHandshakeMessage(typ HandshakeType, body []byte) []byte {
	header := EncodeHandshakeHeader(HandshakeHeader{Type: typ, Length: uint32(len(body))})
	out := make([]byte, 0, len(header)+len(body))
	out = append(out, header...)
	out = append(out, body...)
	return out
}
