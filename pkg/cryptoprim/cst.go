// cst.go implements Conditional Self-Tests for FIPS 140-3 compliance,
// a pairwise-consistency test
// for the ECDHE keypair generator (the only asymmetric keypair generator
// this package owns; RSA keys are supplied externally, not generated here)
// and a health check for pkg/cryptoprim.PRNG. In FIPS mode a CST failure
// panics to prevent use of potentially compromised key material; in
// standard mode a failed pairwise test returns an error and a failed
// health check inside DrawWithCST is not reported.
package cryptoprim

import (
	"bytes"
	"fmt"
	"sync"
	"sync/atomic"
)

// CSTConfig configures Conditional Self-Test behavior.
type CSTConfig struct {
	EnablePairwiseTest   bool
	EnableRNGHealthCheck bool
	// RNGHealthCheckInterval is how often to run a full RNG health check,
	// counted in PRNG.Draw calls routed through DrawWithCST.
	RNGHealthCheckInterval uint64
}

// DefaultCSTConfig enables all tests in FIPS mode, none otherwise.
func DefaultCSTConfig() CSTConfig {
	return CSTConfig{
		EnablePairwiseTest:     FIPSMode(),
		EnableRNGHealthCheck:   FIPSMode(),
		RNGHealthCheckInterval: 1000,
	}
}

var (
	cstConfig     CSTConfig
	cstConfigOnce sync.Once
	drawCallCount atomic.Uint64
	lastDraw      []byte
	lastDrawMu    sync.Mutex
)

// InitCST installs a custom CST configuration. Must be called before any
// cryptographic operation if non-default behavior is needed.
func InitCST(config CSTConfig) {
	cstConfigOnce.Do(func() { cstConfig = config })
}

func getConfig() CSTConfig {
	cstConfigOnce.Do(func() { cstConfig = DefaultCSTConfig() })
	return cstConfig
}

// CSTResult is the outcome of a Conditional Self-Test.
type CSTResult struct {
	Passed bool
	Error  error
}

// PairwiseConsistencyTestECDHE verifies an ECDHE key pair by performing a DH
// exchange with a freshly generated test key pair on the same curve and
// checking both sides agree.
func PairwiseConsistencyTestECDHE(kp *ECDHEKeyPair) *CSTResult {
	if kp == nil || kp.PrivateKey == nil || kp.PublicKey == nil {
		return &CSTResult{Passed: false, Error: fmt.Errorf("invalid key pair")}
	}

	testKP, err := GenerateECDHEKeyPair(kp.Curve)
	if err != nil {
		return &CSTResult{Passed: false, Error: fmt.Errorf("failed to generate test key pair: %w", err)}
	}

	secret1, err := ECDHESharedSecret(kp.PrivateKey, testKP.PublicKey)
	if err != nil {
		return &CSTResult{Passed: false, Error: fmt.Errorf("DH operation 1 failed: %w", err)}
	}
	secret2, err := ECDHESharedSecret(testKP.PrivateKey, kp.PublicKey)
	if err != nil {
		return &CSTResult{Passed: false, Error: fmt.Errorf("DH operation 2 failed: %w", err)}
	}

	if !ConstantTimeCompare(secret1, secret2) {
		return &CSTResult{Passed: false, Error: fmt.Errorf("shared secrets do not match")}
	}
	if allZero(secret1) {
		return &CSTResult{Passed: false, Error: fmt.Errorf("shared secret is all zeros")}
	}
	return &CSTResult{Passed: true}
}

func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

func runPairwiseTestECDHE(kp *ECDHEKeyPair) error {
	config := getConfig()
	if !config.EnablePairwiseTest {
		return nil
	}
	result := PairwiseConsistencyTestECDHE(kp)
	if !result.Passed {
		if FIPSMode() {
			panic(fmt.Sprintf("FIPS CST failed: ECDHE pairwise consistency test: %v", result.Error))
		}
		return result.Error
	}
	return nil
}

// GenerateECDHEKeyPairWithCST generates an ECDHE key pair and runs the
// pairwise consistency test on it before returning.
func GenerateECDHEKeyPairWithCST(curve Curve) (*ECDHEKeyPair, error) {
	kp, err := GenerateECDHEKeyPair(curve)
	if err != nil {
		return nil, err
	}
	if err := runPairwiseTestECDHE(kp); err != nil {
		return nil, fmt.Errorf("pairwise consistency test failed: %w", err)
	}
	return kp, nil
}

// RNGHealthCheck draws two 32-byte samples and verifies neither is all-zero
// and that they are not identical to each other.
func RNGHealthCheck(p PRNG) *CSTResult {
	sample1, p := p.Draw(32)
	sample2, _ := p.Draw(32)

	if allZero(sample1) {
		return &CSTResult{Passed: false, Error: fmt.Errorf("PRNG produced all-zero sample 1")}
	}
	if allZero(sample2) {
		return &CSTResult{Passed: false, Error: fmt.Errorf("PRNG produced all-zero sample 2")}
	}
	if bytes.Equal(sample1, sample2) {
		return &CSTResult{Passed: false, Error: fmt.Errorf("PRNG produced identical consecutive samples")}
	}
	return &CSTResult{Passed: true}
}

// ContinuousDrawTest implements the continuous RNG test FIPS 140-3 requires:
// compare each draw's output to the previous draw's and fail on a match.
func ContinuousDrawTest(output []byte) *CSTResult {
	lastDrawMu.Lock()
	defer lastDrawMu.Unlock()

	if lastDraw == nil {
		lastDraw = append([]byte(nil), output...)
		return &CSTResult{Passed: true}
	}
	if len(output) == len(lastDraw) && bytes.Equal(output, lastDraw) {
		return &CSTResult{Passed: false, Error: fmt.Errorf("PRNG produced repeated output")}
	}
	lastDraw = append(lastDraw[:0], output...)
	return &CSTResult{Passed: true}
}

// DrawWithCST draws n bytes from p, running the continuous test in FIPS
// mode and a periodic full health check per CSTConfig.RNGHealthCheckInterval.
// A failed health check panics in FIPS mode; outside FIPS mode its result
// is discarded.
func DrawWithCST(p PRNG, n int) ([]byte, PRNG) {
	out, next := p.Draw(n)

	if FIPSMode() {
		result := ContinuousDrawTest(out)
		if !result.Passed {
			panic(fmt.Sprintf("FIPS CST failed: continuous RNG test: %v", result.Error))
		}
	}

	config := getConfig()
	if config.EnableRNGHealthCheck {
		count := drawCallCount.Add(1)
		if count%config.RNGHealthCheckInterval == 0 {
			result := RNGHealthCheck(next)
			if !result.Passed && FIPSMode() {
				panic(fmt.Sprintf("FIPS CST failed: RNG health check: %v", result.Error))
			}
		}
	}

	return out, next
}
