// Package cryptoprim implements the cipher/hash/PRF primitives that the TLS
// connection-state core consumes but does not itself implement: running hash
// contexts, HMAC and the SSLv3 MAC construction, the three TLS PRF variants,
// RSA and ECDHE key exchange, CBC and AEAD bulk ciphers, and a value-typed
// PRNG.
package cryptoprim
