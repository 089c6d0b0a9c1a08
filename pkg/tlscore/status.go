package tlscore

import (
	"github.com/sarahazel/tls-core/pkg/wire"
)

// HandshakeStep names one of the twelve states the handshake status
// machine visits between ClientHello and the final Finished exchange.
type HandshakeStep int

const (
	StepClientHello HandshakeStep = iota
	StepServerHello
	StepServerCertificate
	StepServerKeyXchg
	StepServerCertificateReq
	StepServerHelloDone
	StepClientCertificate
	StepClientKeyXchg
	StepClientCertificateVerify
	StepClientChangeCipher
	StepClientFinished
	StepServerChangeCipher
)

func (s HandshakeStep) String() string {
	switch s {
	case StepClientHello:
		return "ClientHello"
	case StepServerHello:
		return "ServerHello"
	case StepServerCertificate:
		return "ServerCertificate"
	case StepServerKeyXchg:
		return "ServerKeyXchg"
	case StepServerCertificateReq:
		return "ServerCertificateReq"
	case StepServerHelloDone:
		return "ServerHelloDone"
	case StepClientCertificate:
		return "ClientCertificate"
	case StepClientKeyXchg:
		return "ClientKeyXchg"
	case StepClientCertificateVerify:
		return "ClientCertificateVerify"
	case StepClientChangeCipher:
		return "ClientChangeCipher"
	case StepClientFinished:
		return "ClientFinished"
	case StepServerChangeCipher:
		return "ServerChangeCipher"
	default:
		return "UnknownStep"
	}
}

// Status is the overall handshake/connection status.
type Status struct {
	kind statusKind
	step HandshakeStep // meaningful only when kind == statusHandshake
}

type statusKind int

const (
	statusInit statusKind = iota
	statusHandshakeReq
	statusHandshake
	statusOK
)

var (
	StatusInit         = Status{kind: statusInit}
	StatusHandshakeReq = Status{kind: statusHandshakeReq}
	StatusOK           = Status{kind: statusOK}
)

// StatusHandshake builds the Handshake(step) status.
func StatusHandshake(step HandshakeStep) Status {
	return Status{kind: statusHandshake, step: step}
}

// IsHandshake reports whether s is Handshake(step) for some step, and if
// so returns that step.
func (s Status) IsHandshake() (HandshakeStep, bool) {
	return s.step, s.kind == statusHandshake
}

func (s Status) String() string {
	switch s.kind {
	case statusInit:
		return "Init"
	case statusHandshakeReq:
		return "HandshakeReq"
	case statusOK:
		return "Ok"
	case statusHandshake:
		return "Handshake(" + s.step.String() + ")"
	default:
		return "Unknown"
	}
}

func (s Status) equal(other Status) bool {
	return s.kind == other.kind && (s.kind != statusHandshake || s.step == other.step)
}

// transition is one row of the static handshake-message transition table.
// priorStatuses lists every status the transition may fire from; msgType
// names are disambiguated by which of those prior statuses is current.
type transition struct {
	msgType       wire.HandshakeType
	priorStatuses []Status
	next          Status
}

var transitionTable = []transition{
	{wire.HandshakeTypeHelloRequest, []Status{StatusOK}, StatusHandshakeReq},
	{wire.HandshakeTypeClientHello, []Status{StatusInit, StatusHandshakeReq}, StatusHandshake(StepClientHello)},
	{wire.HandshakeTypeServerHello, []Status{StatusHandshake(StepClientHello)}, StatusHandshake(StepServerHello)},
	{wire.HandshakeTypeCertificate, []Status{StatusHandshake(StepServerHello)}, StatusHandshake(StepServerCertificate)},
	{wire.HandshakeTypeServerKeyExchange, []Status{StatusHandshake(StepServerHello), StatusHandshake(StepServerCertificate)}, StatusHandshake(StepServerKeyXchg)},
	{wire.HandshakeTypeCertificateRequest, []Status{StatusHandshake(StepServerHello), StatusHandshake(StepServerCertificate), StatusHandshake(StepServerKeyXchg)}, StatusHandshake(StepServerCertificateReq)},
	{wire.HandshakeTypeServerHelloDone, []Status{StatusHandshake(StepServerHello), StatusHandshake(StepServerCertificate), StatusHandshake(StepServerKeyXchg), StatusHandshake(StepServerCertificateReq)}, StatusHandshake(StepServerHelloDone)},
	{wire.HandshakeTypeCertificate, []Status{StatusHandshake(StepServerHelloDone)}, StatusHandshake(StepClientCertificate)},
	{wire.HandshakeTypeClientKeyExchange, []Status{StatusHandshake(StepServerHelloDone), StatusHandshake(StepClientCertificate)}, StatusHandshake(StepClientKeyXchg)},
	{wire.HandshakeTypeCertificateVerify, []Status{StatusHandshake(StepClientKeyXchg)}, StatusHandshake(StepClientCertificateVerify)},
	{wire.HandshakeTypeFinished, []Status{StatusHandshake(StepClientChangeCipher)}, StatusHandshake(StepClientFinished)},
	{wire.HandshakeTypeFinished, []Status{StatusHandshake(StepServerChangeCipher)}, StatusOK},
}

func statusDescriptor(msgType wire.HandshakeType) string {
	return "handshake:" + msgType.String()
}

// UpdateStatusHS advances the status machine on an incoming handshake
// message type. The first table row whose msgType matches and whose
// priorStatuses set contains the current status wins; if no row matches,
// the status is unchanged and UnexpectedPacket is returned.
func (c *ConnectionState) UpdateStatusHS(msgType wire.HandshakeType) error {
	for _, t := range transitionTable {
		if t.msgType != msgType {
			continue
		}
		for _, prior := range t.priorStatuses {
			if c.status.equal(prior) {
				c.status = t.next
				return nil
			}
		}
	}
	return newUnexpectedPacket(c.status, statusDescriptor(msgType))
}

// UpdateStatusCC advances the status machine on a ChangeCipherSpec.
// sending reports whether this side is sending (true) or receiving
// (false) the CCS. The client's own CCS is observed as a send on the
// client's connection and as a receive on the server's, and conversely
// for the server's CCS; matching isClient against sending disambiguates
// which of the two CCS events on the timeline just happened regardless
// of which endpoint is asking.
func (c *ConnectionState) UpdateStatusCC(sending bool) error {
	isClientEvent := c.role.isClient == sending

	switch {
	case isClientEvent && c.status.equal(StatusHandshake(StepClientKeyXchg)):
		c.status = StatusHandshake(StepClientChangeCipher)
		return nil
	case isClientEvent && c.status.equal(StatusHandshake(StepClientCertificateVerify)):
		c.status = StatusHandshake(StepClientChangeCipher)
		return nil
	case !isClientEvent && c.status.equal(StatusHandshake(StepClientFinished)):
		c.status = StatusHandshake(StepServerChangeCipher)
		return nil
	default:
		return newUnexpectedPacket(c.status, "change_cipher_spec")
	}
}

// WhileStatus repeatedly invokes action while predicate holds for the
// connection's current status, stopping at the first error action
// returns or the first status for which predicate is false.
func (c *ConnectionState) WhileStatus(predicate func(Status) bool, action func() error) error {
	for predicate(c.Status()) {
		if err := action(); err != nil {
			return err
		}
	}
	return nil
}
