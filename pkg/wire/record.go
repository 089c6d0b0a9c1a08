// record.go implements the TLS record header encode/decode
// (EncodeHeader/EncodeHeaderNoVer/DecodeHeader) and the sequence-number
// encoding used in MAC input, built on golang.org/x/crypto/cryptobyte.
// Putting records on a net.Conn is done in pkg/tlsconn.
package wire

import (
	"golang.org/x/crypto/cryptobyte"

	"github.com/sarahazel/tls-core/internal/constants"
	qerrors "github.com/sarahazel/tls-core/internal/errors"
)

// ContentType identifies the record-layer payload kind (RFC 5246 §6.2.1).
type ContentType uint8

const (
	ContentTypeChangeCipherSpec ContentType = 20
	ContentTypeAlert            ContentType = 21
	ContentTypeHandshake        ContentType = 22
	ContentTypeApplicationData  ContentType = 23
)

func (ct ContentType) String() string {
	switch ct {
	case ContentTypeChangeCipherSpec:
		return "change_cipher_spec"
	case ContentTypeAlert:
		return "alert"
	case ContentTypeHandshake:
		return "handshake"
	case ContentTypeApplicationData:
		return "application_data"
	default:
		return "unknown"
	}
}

// RecordHeader is the 5-byte TLSPlaintext/TLSCiphertext header.
type RecordHeader struct {
	Type    ContentType
	Version Version
	Length  uint16
}

// EncodeHeader serializes a record header: type(1) || version(2) || length(2).
func EncodeHeader(h RecordHeader) []byte {
	var b cryptobyte.Builder
	b.AddUint8(uint8(h.Type))
	b.AddUint8(h.Version.Major)
	b.AddUint8(h.Version.Minor)
	b.AddUint16(h.Length)
	return b.BytesOrPanic()
}

// EncodeHeaderNoVer serializes the header without its version field:
// type(1) || length(2). This is the form the SSL3 MAC construction uses,
// predating the version field's inclusion in the MAC input.
func EncodeHeaderNoVer(h RecordHeader) []byte {
	var b cryptobyte.Builder
	b.AddUint8(uint8(h.Type))
	b.AddUint16(h.Length)
	return b.BytesOrPanic()
}

// DecodeHeader parses a 5-byte record header.
func DecodeHeader(data []byte) (RecordHeader, error) {
	if len(data) < constants.RecordHeaderSize {
		return RecordHeader{}, qerrors.ErrInvalidMessage
	}
	s := cryptobyte.String(data)
	var typ, major, minor uint8
	var length uint16
	if !s.ReadUint8(&typ) || !s.ReadUint8(&major) || !s.ReadUint8(&minor) || !s.ReadUint16(&length) {
		return RecordHeader{}, qerrors.ErrInvalidMessage
	}
	return RecordHeader{
		Type:    ContentType(typ),
		Version: Version{Major: major, Minor: minor},
		Length:  length,
	}, nil
}

// EncodeWord64 big-endian encodes a 64-bit sequence number, the
// wire-codec primitive used to embed the sequence number in a MAC input.
func EncodeWord64(u uint64) [8]byte {
	var b [8]byte
	for i := 0; i < 8; i++ {
		b[i] = byte(u >> uint(56-8*i))
	}
	return b
}
