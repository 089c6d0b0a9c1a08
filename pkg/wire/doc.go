// Package wire implements the TLS wire codec the connection-state core
// consumes but does not itself implement: the protocol version type, record
// and handshake header encode/decode, the cipher-suite descriptor table,
// and alert messages.
package wire
