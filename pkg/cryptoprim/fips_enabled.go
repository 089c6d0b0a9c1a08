//go:build fips
// +build fips

package cryptoprim

// FIPSMode reports whether the binary was built in FIPS mode. When true,
// only FIPS 140-3 approved cipher suites (constants.CipherSuite.IsFIPSApproved)
// are available.
func FIPSMode() bool { return true }
