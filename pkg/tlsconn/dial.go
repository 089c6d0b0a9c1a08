package tlsconn

import (
	"net"

	"github.com/sarahazel/tls-core/pkg/cryptoprim"
	"github.com/sarahazel/tls-core/pkg/tlscore"
)

// Dial opens a TCP connection to addr and runs a full client-role
// handshake over it, returning a Conn ready for application data.
func Dial(network, addr string, id ClientIdentity, cfg Config) (*Conn, error) {
	raw, err := net.Dial(network, addr)
	if err != nil {
		return nil, err
	}
	prng, err := cryptoprim.NewPRNGFromSystemEntropy()
	if err != nil {
		raw.Close()
		return nil, err
	}
	c := newConn(raw, tlscore.RoleClient, prng, cfg)
	if err := ClientHandshake(c, id); err != nil {
		raw.Close()
		return nil, err
	}
	return c, nil
}

// Accept wraps an already-accepted net.Conn and runs a server-role
// handshake over it.
func Accept(raw net.Conn, id ServerIdentity, cfg Config) (*Conn, error) {
	prng, err := cryptoprim.NewPRNGFromSystemEntropy()
	if err != nil {
		raw.Close()
		return nil, err
	}
	c := newConn(raw, tlscore.RoleServer, prng, cfg)
	if err := ServerHandshake(c, id); err != nil {
		raw.Close()
		return nil, err
	}
	return c, nil
}
