// Package errors defines the error kinds used across the TLS connection-state
// core and its supporting packages. Errors provide enough detail for the
// dispatcher to choose the right TLS alert without leaking secret material.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for cryptographic primitive operations.
var (
	// ErrInvalidKeySize indicates that a key has an incorrect size.
	ErrInvalidKeySize = errors.New("crypto: invalid key size")

	// ErrInvalidCiphertext indicates that ciphertext is malformed or invalid.
	ErrInvalidCiphertext = errors.New("crypto: invalid ciphertext")

	// ErrKeyGenerationFailed indicates that key generation failed.
	ErrKeyGenerationFailed = errors.New("crypto: key generation failed")

	// ErrInvalidPublicKey indicates that a public key is invalid.
	ErrInvalidPublicKey = errors.New("crypto: invalid public key")

	// ErrInvalidPrivateKey indicates that a private key is invalid.
	ErrInvalidPrivateKey = errors.New("crypto: invalid private key")
)

// Sentinel errors for record-layer AEAD/CBC operations.
var (
	// ErrAuthenticationFailed indicates AEAD or CBC-MAC verification failed.
	ErrAuthenticationFailed = errors.New("record: authentication failed")

	// ErrInvalidNonce indicates the nonce size is incorrect.
	ErrInvalidNonce = errors.New("record: invalid nonce size")

	// ErrCiphertextTooShort indicates ciphertext is too short to be valid.
	ErrCiphertextTooShort = errors.New("record: ciphertext too short")

	// ErrSequenceOverflow indicates a direction's 64-bit sequence counter
	// would wrap; the RFC mandates connection failure rather than silent
	// wraparound rather than silently wrapping.
	ErrSequenceOverflow = errors.New("record: sequence number would overflow")
)

// Sentinel errors for protocol/wire operations.
var (
	// ErrInvalidMessage indicates a protocol message is malformed.
	ErrInvalidMessage = errors.New("wire: invalid message")

	// ErrUnsupportedVersion indicates an unsupported protocol version.
	ErrUnsupportedVersion = errors.New("wire: unsupported version")

	// ErrUnsupportedCipherSuite indicates no mutually supported cipher suite.
	ErrUnsupportedCipherSuite = errors.New("wire: unsupported cipher suite")

	// ErrMessageTooLarge indicates a message exceeds the maximum size.
	ErrMessageTooLarge = errors.New("wire: message too large")

	// ErrInvalidTicket indicates a session ticket is invalid or malformed.
	ErrInvalidTicket = errors.New("wire: invalid ticket")

	// ErrExpiredTicket indicates a session ticket has expired.
	ErrExpiredTicket = errors.New("wire: expired ticket")

	// ErrCipherSuiteNotFIPSApproved indicates a cipher suite is rejected
	// under FIPS build constraints.
	ErrCipherSuiteNotFIPSApproved = errors.New("wire: cipher suite not FIPS approved")
)

// Sentinel errors for the connection dispatcher and pool.
var (
	// ErrConnectionClosed indicates the connection has been closed.
	ErrConnectionClosed = errors.New("tlsconn: connection closed")

	// ErrTimeout indicates an operation timed out.
	ErrTimeout = errors.New("tlsconn: operation timed out")

	// ErrPoolClosed indicates the pool has been closed.
	ErrPoolClosed = errors.New("pool: pool is closed")

	// ErrPoolTimeout indicates a pool acquire operation timed out.
	ErrPoolTimeout = errors.New("pool: acquire timed out")

	// ErrPoolExhausted indicates the pool has no available connections.
	ErrPoolExhausted = errors.New("pool: no connections available")
)

// CryptoError wraps a cryptographic primitive error with its operation name.
type CryptoError struct {
	Op  string
	Err error
}

func (e *CryptoError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *CryptoError) Unwrap() error { return e.Err }

// NewCryptoError creates a new CryptoError.
func NewCryptoError(op string, err error) *CryptoError {
	return &CryptoError{Op: op, Err: err}
}

// ProtocolError wraps a dispatcher-level protocol error with a phase label.
// Used for wire-format and I/O failures outside the handshake status
// machine; UnexpectedPacket and InternalError below cover the FSM itself.
type ProtocolError struct {
	Phase string
	Err   error
}

func (e *ProtocolError) Error() string { return fmt.Sprintf("protocol %s: %v", e.Phase, e.Err) }
func (e *ProtocolError) Unwrap() error { return e.Err }

// NewProtocolError creates a new ProtocolError.
func NewProtocolError(phase string, err error) *ProtocolError {
	return &ProtocolError{Phase: phase, Err: err}
}

// UnexpectedPacket is returned by the handshake status machine
// when an incoming handshake message or ChangeCipherSpec is not permitted
// from the current status. The dispatcher translates this upstream into a
// fatal TLS unexpected_message alert.
type UnexpectedPacket struct {
	// Status is the status the connection was in when the packet arrived,
	// formatted via Status.String().
	Status string
	// Descriptor names the packet that was rejected, e.g. "handshake:ServerHello"
	// or "change_cipher_spec".
	Descriptor string
}

func (e *UnexpectedPacket) Error() string {
	return fmt.Sprintf("unexpected packet %s in status %s", e.Descriptor, e.Status)
}

// NewUnexpectedPacket builds an UnexpectedPacket error.
func NewUnexpectedPacket(status, descriptor string) *UnexpectedPacket {
	return &UnexpectedPacket{Status: status, Descriptor: descriptor}
}

// InternalError indicates the caller invoked a core operation whose
// preconditions were not satisfied (cipher set, handshake in progress,
// random installed, etc.). This is always a dispatcher bug,
// never a protocol error, and the core never attempts to recover from it.
type InternalError struct {
	// Site is the operation that detected the violation, e.g. "SetMasterSecret".
	Site string
	// Violated names the precondition that did not hold, e.g. "serverRandom not set".
	Violated string
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error in %s: %s", e.Site, e.Violated)
}

// NewInternalError builds an InternalError.
func NewInternalError(site, violated string) *InternalError {
	return &InternalError{Site: site, Violated: violated}
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool { return errors.As(err, target) }
