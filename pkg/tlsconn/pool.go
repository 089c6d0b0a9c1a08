package tlsconn

import (
	"sync"

	qerrors "github.com/sarahazel/tls-core/internal/errors"
	"github.com/sarahazel/tls-core/pkg/metrics"
)

// PoolConfig bounds a Pool's size.
type PoolConfig struct {
	MaxConns int
}

func (c *PoolConfig) applyDefaults() {
	if c.MaxConns <= 0 {
		c.MaxConns = 16
	}
}

// Pool reuses established client Conns to the same address across
// callers, avoiding repeated handshakes. It is a condensed form of the
// dial-time-health-check/rate-limit pool this package is modeled on:
// this core's pool drops the background health checker and rate limiter
// since neither interacts with the connection-state core this package
// exists to exercise, and keeps the part that does: the idle-list
// acquire/release/close lifecycle.
type Pool struct {
	network string
	address string
	id      ClientIdentity
	cfg     Config
	config  PoolConfig
	logger  *metrics.Logger

	mu     sync.Mutex
	conns  []*Conn
	idle   []*Conn
	closed bool
}

// NewPool creates a pool that dials network/address on demand, up to
// config.MaxConns live connections. If cfg.Observer is set, the pool logs
// acquire/release/close events through its logger.
func NewPool(network, address string, id ClientIdentity, cfg Config, config PoolConfig) *Pool {
	config.applyDefaults()
	p := &Pool{
		network: network,
		address: address,
		id:      id,
		cfg:     cfg,
		config:  config,
		conns:   make([]*Conn, 0, config.MaxConns),
		idle:    make([]*Conn, 0, config.MaxConns),
	}
	if cfg.Observer != nil {
		p.logger = cfg.Observer.Logger().Named("pool")
	}
	return p
}

func (p *Pool) debug(msg string, fields metrics.Fields) {
	if p.logger != nil {
		p.logger.Debug(msg, fields)
	}
}

// Acquire returns an idle connection if one exists, otherwise dials a
// fresh one (subject to MaxConns).
func (p *Pool) Acquire() (*Conn, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, qerrors.ErrPoolClosed
	}
	if n := len(p.idle); n > 0 {
		c := p.idle[n-1]
		p.idle = p.idle[:n-1]
		p.mu.Unlock()
		p.debug("acquired idle connection", metrics.Fields{"idle_remaining": n - 1})
		return c, nil
	}
	if len(p.conns) >= p.config.MaxConns {
		p.mu.Unlock()
		return nil, qerrors.ErrPoolExhausted
	}
	p.mu.Unlock()

	c, err := Dial(p.network, p.address, p.id, p.cfg)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		c.Close()
		return nil, qerrors.ErrPoolClosed
	}
	p.conns = append(p.conns, c)
	total := len(p.conns)
	p.mu.Unlock()
	p.debug("dialed new connection", metrics.Fields{"total": total})
	return c, nil
}

// Release returns c to the idle list for reuse. Callers must not use c
// again after calling Release unless they Acquire it back.
func (p *Pool) Release(c *Conn) {
	p.mu.Lock()
	if p.closed || c.isClosed() {
		p.mu.Unlock()
		return
	}
	p.idle = append(p.idle, c)
	idle := len(p.idle)
	p.mu.Unlock()
	p.debug("released connection to idle list", metrics.Fields{"idle": idle})
}

// Close closes every connection the pool has ever dialed and refuses
// further Acquire calls.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	conns := p.conns
	p.conns, p.idle = nil, nil
	p.mu.Unlock()
	p.debug("closing pool", metrics.Fields{"connections": len(conns)})

	for _, c := range conns {
		_ = c.Close()
	}
	return nil
}

// Stats reports the pool's current total and idle connection counts.
func (p *Pool) Stats() (total, idle int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.conns), len(p.idle)
}
