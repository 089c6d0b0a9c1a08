package metrics

import (
	"context"
	"encoding/hex"
	"time"
)

// ConnectionObserver provides observability hooks for a single TLS
// connection's lifecycle. Attach one to a tlsconn.Conn to automatically
// record metrics and traces for its handshake and record traffic.
type ConnectionObserver struct {
	collector *Collector
	tracer    Tracer
	logger    *Logger
	sessionID string
	role      string
}

// ConnectionObserverConfig configures a ConnectionObserver.
type ConnectionObserverConfig struct {
	Collector *Collector
	Tracer    Tracer
	Logger    *Logger
	SessionID []byte
	Role      string // "client" or "server"
}

// NewConnectionObserver creates a new connection observer.
func NewConnectionObserver(cfg ConnectionObserverConfig) *ConnectionObserver {
	if cfg.Collector == nil {
		cfg.Collector = Global()
	}
	if cfg.Tracer == nil {
		cfg.Tracer = GetTracer()
	}
	if cfg.Logger == nil {
		cfg.Logger = GetLogger()
	}

	sessionID := ""
	if len(cfg.SessionID) > 0 {
		sessionID = hex.EncodeToString(cfg.SessionID[:min(8, len(cfg.SessionID))])
	}

	return &ConnectionObserver{
		collector: cfg.Collector,
		tracer:    cfg.Tracer,
		logger: cfg.Logger.Named("connection").With(Fields{
			"session_id": sessionID,
			"role":       cfg.Role,
		}),
		sessionID: sessionID,
		role:      cfg.Role,
	}
}

// OnSessionStart should be called when a new connection starts its handshake.
func (o *ConnectionObserver) OnSessionStart() {
	o.collector.SessionStarted()
	o.logger.Info("connection started")
}

// OnSessionEnd should be called when a connection closes cleanly.
func (o *ConnectionObserver) OnSessionEnd() {
	o.collector.SessionEnded()
	o.logger.Info("connection closed")
}

// OnSessionFailed should be called when a connection fails to establish.
func (o *ConnectionObserver) OnSessionFailed(err error) {
	o.collector.SessionFailed()
	o.logger.Error("connection failed", Fields{"error": err.Error()})
}

// OnHandshakeStart returns a context and completion function for handshake tracing.
func (o *ConnectionObserver) OnHandshakeStart(ctx context.Context) (context.Context, func(error)) {
	spanName := SpanHandshakeInitiator
	if o.role == "server" {
		spanName = SpanHandshakeResponder
	}

	start := time.Now()
	ctx, endSpan := o.tracer.StartSpan(ctx, spanName, WithSpanKind(SpanKindServer))

	o.logger.Debug("handshake started")

	return ctx, func(err error) {
		duration := time.Since(start)
		o.collector.RecordHandshakeLatency(duration)

		if err != nil {
			o.logger.Error("handshake failed", Fields{
				"error":    err.Error(),
				"duration": duration.String(),
			})
		} else {
			o.logger.Info("handshake completed", Fields{
				"duration": duration.String(),
			})
		}

		endSpan(err)
	}
}

// OnEncrypt records record-sealing metrics for one outbound record.
func (o *ConnectionObserver) OnEncrypt(ctx context.Context, plaintextLen int) (context.Context, func(error)) {
	start := time.Now()
	ctx, endSpan := o.tracer.StartSpan(ctx, SpanEncrypt)

	return ctx, func(err error) {
		duration := time.Since(start)
		o.collector.RecordEncryptLatency(duration)

		if err != nil {
			o.collector.RecordEncryptError()
			o.logger.Debug("record seal failed", Fields{"error": err.Error()})
		} else {
			o.collector.RecordBytesSent(uint64(plaintextLen))
			o.collector.RecordPacketSent()
		}

		endSpan(err)
	}
}

// OnDecrypt records record-opening metrics for one inbound record.
func (o *ConnectionObserver) OnDecrypt(ctx context.Context, ciphertextLen int) (context.Context, func(error)) {
	start := time.Now()
	ctx, endSpan := o.tracer.StartSpan(ctx, SpanDecrypt)

	return ctx, func(err error) {
		duration := time.Since(start)
		o.collector.RecordDecryptLatency(duration)

		if err != nil {
			o.collector.RecordDecryptError()
			o.logger.Debug("record open failed", Fields{"error": err.Error()})
		} else {
			o.collector.RecordBytesReceived(uint64(ciphertextLen))
			o.collector.RecordPacketReceived()
		}

		endSpan(err)
	}
}

// OnAuthFailure records a record MAC or Finished-message verification failure.
func (o *ConnectionObserver) OnAuthFailure() {
	o.collector.RecordAuthFailure()
	o.logger.Warn("authentication failed")
}

// OnProtocolError records a handshake status-machine or framing violation.
func (o *ConnectionObserver) OnProtocolError(err error) {
	o.collector.RecordProtocolError()
	o.logger.Error("protocol error", Fields{"error": err.Error()})
}

// Logger returns the observer's logger for custom logging.
func (o *ConnectionObserver) Logger() *Logger {
	return o.logger
}

// --- Event Types ---

// EventType represents a type of connection event for logging.
type EventType string

const (
	EventSessionStart   EventType = "session.start"
	EventSessionEnd     EventType = "session.end"
	EventSessionFailed  EventType = "session.failed"
	EventHandshakeStart EventType = "handshake.start"
	EventHandshakeEnd   EventType = "handshake.end"
	EventDataSent       EventType = "data.sent"
	EventDataReceived   EventType = "data.received"
	EventAuthFailed     EventType = "security.auth_failed"
	EventError          EventType = "error"
)

// Event represents a structured connection event.
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	SessionID string                 `json:"session_id,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

// min returns the smaller of two integers.
func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
