// alert.go defines the AlertMessage/AlertCode/AlertLevel trio for the
// TLS alert registry (RFC 5246 §7.2), which the record layer raises on
// a fatal or warning condition.
package wire

import (
	"golang.org/x/crypto/cryptobyte"

	qerrors "github.com/sarahazel/tls-core/internal/errors"
)

// AlertLevel indicates the severity of the alert.
type AlertLevel uint8

const (
	AlertLevelWarning AlertLevel = 1
	AlertLevelFatal   AlertLevel = 2
)

func (l AlertLevel) String() string {
	switch l {
	case AlertLevelWarning:
		return "warning"
	case AlertLevelFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// AlertCode identifies the specific alert condition (RFC 5246 §7.2.2).
type AlertCode uint8

const (
	AlertCloseNotify            AlertCode = 0
	AlertUnexpectedMessage      AlertCode = 10
	AlertBadRecordMAC           AlertCode = 20
	AlertDecryptionFailed       AlertCode = 21
	AlertRecordOverflow         AlertCode = 22
	AlertHandshakeFailure       AlertCode = 40
	AlertBadCertificate         AlertCode = 42
	AlertUnsupportedCertificate AlertCode = 43
	AlertCertificateExpired     AlertCode = 45
	AlertIllegalParameter       AlertCode = 47
	AlertDecodeError            AlertCode = 50
	AlertDecryptError           AlertCode = 51
	AlertProtocolVersion        AlertCode = 70
	AlertInsufficientSecurity   AlertCode = 71
	AlertInternalError          AlertCode = 80
	AlertNoRenegotiation        AlertCode = 100
)

func (c AlertCode) String() string {
	switch c {
	case AlertCloseNotify:
		return "close_notify"
	case AlertUnexpectedMessage:
		return "unexpected_message"
	case AlertBadRecordMAC:
		return "bad_record_mac"
	case AlertDecryptionFailed:
		return "decryption_failed"
	case AlertRecordOverflow:
		return "record_overflow"
	case AlertHandshakeFailure:
		return "handshake_failure"
	case AlertBadCertificate:
		return "bad_certificate"
	case AlertUnsupportedCertificate:
		return "unsupported_certificate"
	case AlertCertificateExpired:
		return "certificate_expired"
	case AlertIllegalParameter:
		return "illegal_parameter"
	case AlertDecodeError:
		return "decode_error"
	case AlertDecryptError:
		return "decrypt_error"
	case AlertProtocolVersion:
		return "protocol_version"
	case AlertInsufficientSecurity:
		return "insufficient_security"
	case AlertInternalError:
		return "internal_error"
	case AlertNoRenegotiation:
		return "no_renegotiation"
	default:
		return "unknown"
	}
}

// AlertMessage is the 2-byte level||description alert record payload.
type AlertMessage struct {
	Level AlertLevel
	Code  AlertCode
}

// Validate checks that the alert level is one of the two defined values.
func (m AlertMessage) Validate() error {
	if m.Level != AlertLevelWarning && m.Level != AlertLevelFatal {
		return qerrors.ErrInvalidMessage
	}
	return nil
}

// EncodeAlert serializes an alert message to its 2-byte wire form.
func EncodeAlert(m AlertMessage) []byte {
	var b cryptobyte.Builder
	b.AddUint8(uint8(m.Level))
	b.AddUint8(uint8(m.Code))
	return b.BytesOrPanic()
}

// DecodeAlert parses a 2-byte alert message.
func DecodeAlert(data []byte) (AlertMessage, error) {
	if len(data) != 2 {
		return AlertMessage{}, qerrors.ErrInvalidMessage
	}
	s := cryptobyte.String(data)
	var level, code uint8
	if !s.ReadUint8(&level) || !s.ReadUint8(&code) {
		return AlertMessage{}, qerrors.ErrInvalidMessage
	}
	m := AlertMessage{Level: AlertLevel(level), Code: AlertCode(code)}
	return m, m.Validate()
}
