package wire_test

import (
	"testing"

	"github.com/sarahazel/tls-core/internal/constants"
	"github.com/sarahazel/tls-core/pkg/wire"
)

func TestLookupCipherSuiteKnownSuites(t *testing.T) {
	suites := []constants.CipherSuite{
		constants.CipherSuiteRSAWithAES128CBCSHA,
		constants.CipherSuiteRSAWithAES256CBCSHA,
		constants.CipherSuiteRSAWithAES128CBCSHA256,
		constants.CipherSuiteECDHERSAWithAES128GCMSHA256,
		constants.CipherSuiteECDHERSAWithAES256GCMSHA384,
		constants.CipherSuiteECDHERSAWithChaCha20Poly1305,
	}
	for _, cs := range suites {
		params, ok := wire.LookupCipherSuite(cs)
		if !ok {
			t.Errorf("LookupCipherSuite(%v) not found", cs)
			continue
		}
		if params.KeyBlockLength() <= 0 {
			t.Errorf("KeyBlockLength() for %v should be positive", cs)
		}
	}
}

func TestLookupCipherSuiteUnknown(t *testing.T) {
	if _, ok := wire.LookupCipherSuite(constants.CipherSuite(0xFFFF)); ok {
		t.Error("LookupCipherSuite should fail for an unrecognized suite ID")
	}
}

func TestAEADSuitesHaveNoMACKey(t *testing.T) {
	for _, cs := range []constants.CipherSuite{
		constants.CipherSuiteECDHERSAWithAES128GCMSHA256,
		constants.CipherSuiteECDHERSAWithChaCha20Poly1305,
	} {
		params, _ := wire.LookupCipherSuite(cs)
		if !params.IsAEAD {
			t.Errorf("%v should be an AEAD suite", cs)
		}
		if params.MACKeyLength != 0 {
			t.Errorf("%v is AEAD and should have zero MAC key length, got %d", cs, params.MACKeyLength)
		}
	}
}

func TestCBCSuitesHaveMACKeyAndFixedIV(t *testing.T) {
	params, _ := wire.LookupCipherSuite(constants.CipherSuiteRSAWithAES128CBCSHA)
	if params.IsAEAD {
		t.Error("CBC suite should not be flagged AEAD")
	}
	if params.MACKeyLength == 0 {
		t.Error("CBC suite should carry a nonzero MAC key length")
	}
}

func TestKeyBlockLengthMatchesSixWayPartition(t *testing.T) {
	params, _ := wire.LookupCipherSuite(constants.CipherSuiteRSAWithAES128CBCSHA)
	want := 2*params.MACKeyLength + 2*params.EncKeyLength + 2*params.FixedIVLength
	if got := params.KeyBlockLength(); got != want {
		t.Errorf("KeyBlockLength() = %d, want %d", got, want)
	}
}
