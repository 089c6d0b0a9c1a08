// Package tlscore owns the per-connection state a TLS 1.0/1.1/1.2 endpoint
// must keep in agreement between its sending and receiving paths: the
// handshake status machine, the negotiated cipher parameters, the key
// schedule derived from the negotiated secrets, the running handshake
// transcript digests, and the per-direction record MAC/sequence state.
//
// The package owns no socket I/O and no wire codec of its own; it consumes
// cryptographic primitives from pkg/cryptoprim and wire types from
// pkg/wire, and is driven exclusively by a single-owner record dispatcher.
package tlscore
