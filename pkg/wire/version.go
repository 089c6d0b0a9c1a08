// version.go represents the TLS record-layer version as the (major, minor)
// pair RFC 2246/4346/5246 put on the wire.
package wire

import (
	"fmt"

	"github.com/sarahazel/tls-core/internal/constants"
)

// Version is a TLS protocol version, totally ordered by (Major, Minor).
type Version struct {
	Major uint8
	Minor uint8
}

// Named versions SSL3 through TLS1.2 (RFC 5246 §9 reserves {3,0}-{3,3}).
var (
	VersionSSL3  = Version{constants.RecordMajorVersion, constants.MinorSSL3}
	VersionTLS10 = Version{constants.RecordMajorVersion, constants.MinorTLS10}
	VersionTLS11 = Version{constants.RecordMajorVersion, constants.MinorTLS11}
	VersionTLS12 = Version{constants.RecordMajorVersion, constants.MinorTLS12}
)

// Bytes returns the 2-byte wire encoding {major, minor}.
func (v Version) Bytes() [2]byte { return [2]byte{v.Major, v.Minor} }

// ParseVersion decodes a 2-byte wire version.
func ParseVersion(b [2]byte) Version { return Version{Major: b[0], Minor: b[1]} }

// Less reports whether v sorts strictly before other.
func (v Version) Less(other Version) bool {
	if v.Major != other.Major {
		return v.Major < other.Major
	}
	return v.Minor < other.Minor
}

// AtLeast reports whether v is other or newer.
func (v Version) AtLeast(other Version) bool {
	return !v.Less(other)
}

// Equal reports whether v and other name the same version.
func (v Version) Equal(other Version) bool {
	return v.Major == other.Major && v.Minor == other.Minor
}

// String returns a human-readable name, e.g. "TLS1.2", or "TLS(3,9)"
// for values outside the four named versions.
func (v Version) String() string {
	switch v {
	case VersionSSL3:
		return "SSL3.0"
	case VersionTLS10:
		return "TLS1.0"
	case VersionTLS11:
		return "TLS1.1"
	case VersionTLS12:
		return "TLS1.2"
	default:
		return fmt.Sprintf("TLS(%d,%d)", v.Major, v.Minor)
	}
}

// IsSSL3 reports whether v is the SSL3 wire version, which selects the SSL
// PRF and SSL MAC construction instead of their TLS counterparts.
func (v Version) IsSSL3() bool { return v.Equal(VersionSSL3) }
