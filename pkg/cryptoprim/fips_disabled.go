//go:build !fips
// +build !fips

package cryptoprim

// FIPSMode reports whether the binary was built in FIPS mode. When false,
// all supported cipher suites are available.
func FIPSMode() bool { return false }
