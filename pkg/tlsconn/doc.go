// Package tlsconn is the record dispatcher: it owns the net.Conn, frames
// and deframes TLS records, drives pkg/tlscore's connection-state core
// through a handshake, and encrypts/decrypts wire bytes using
// pkg/cryptoprim once the core reports a direction has engaged
// encryption.
package tlsconn
