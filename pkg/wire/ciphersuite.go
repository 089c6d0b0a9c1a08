// ciphersuite.go is a descriptor table mapping each negotiated suite ID
// to its algorithm parameters. The table drives the six-way key-block
// partition in pkg/tlscore.
package wire

import "github.com/sarahazel/tls-core/internal/constants"

// KeyExchange identifies how the pre-master secret is established.
type KeyExchange uint8

const (
	KeyExchangeRSA KeyExchange = iota
	KeyExchangeECDHERSA
)

// BulkCipher identifies the record-protection algorithm.
type BulkCipher uint8

const (
	BulkCipherAES128CBC BulkCipher = iota
	BulkCipherAES256CBC
	BulkCipherAES128GCM
	BulkCipherChaCha20Poly1305
)

// CipherSuiteParams is the fully expanded set of algorithm parameters a
// negotiated suite implies: key exchange method, bulk cipher, whether
// the bulk cipher is an AEAD (no separate MAC key/no explicit CBC IV),
// and the key/MAC/IV sizes the key-block partition must produce.
type CipherSuiteParams struct {
	KeyExchange  KeyExchange
	Cipher       BulkCipher
	Hash         HashAlgorithm
	IsAEAD       bool
	EncKeyLength int // per-direction bulk encryption key size in bytes
	MACKeyLength int // per-direction MAC key size in bytes (0 for AEAD)
	FixedIVLength int // per-direction fixed IV / salt size in bytes
}

// HashAlgorithm names the PRF/MAC/transcript hash a suite selects.
type HashAlgorithm uint8

const (
	HashAlgorithmSHA1 HashAlgorithm = iota
	HashAlgorithmSHA256
)

var cipherSuiteTable = map[constants.CipherSuite]CipherSuiteParams{
	constants.CipherSuiteRSAWithAES128CBCSHA: {
		KeyExchange: KeyExchangeRSA, Cipher: BulkCipherAES128CBC, Hash: HashAlgorithmSHA1,
		EncKeyLength: 16, MACKeyLength: 20, FixedIVLength: 16,
	},
	constants.CipherSuiteRSAWithAES256CBCSHA: {
		KeyExchange: KeyExchangeRSA, Cipher: BulkCipherAES256CBC, Hash: HashAlgorithmSHA1,
		EncKeyLength: 32, MACKeyLength: 20, FixedIVLength: 16,
	},
	constants.CipherSuiteRSAWithAES128CBCSHA256: {
		KeyExchange: KeyExchangeRSA, Cipher: BulkCipherAES128CBC, Hash: HashAlgorithmSHA256,
		EncKeyLength: 16, MACKeyLength: 32, FixedIVLength: 16,
	},
	constants.CipherSuiteECDHERSAWithAES128GCMSHA256: {
		KeyExchange: KeyExchangeECDHERSA, Cipher: BulkCipherAES128GCM, Hash: HashAlgorithmSHA256,
		IsAEAD: true, EncKeyLength: 16, MACKeyLength: 0, FixedIVLength: 4,
	},
	constants.CipherSuiteECDHERSAWithAES256GCMSHA384: {
		KeyExchange: KeyExchangeECDHERSA, Cipher: BulkCipherAES128GCM, Hash: HashAlgorithmSHA256,
		IsAEAD: true, EncKeyLength: 32, MACKeyLength: 0, FixedIVLength: 4,
	},
	constants.CipherSuiteECDHERSAWithChaCha20Poly1305: {
		KeyExchange: KeyExchangeECDHERSA, Cipher: BulkCipherChaCha20Poly1305, Hash: HashAlgorithmSHA256,
		IsAEAD: true, EncKeyLength: 32, MACKeyLength: 0, FixedIVLength: 12,
	},
}

// LookupCipherSuite returns the algorithm parameters for a negotiated
// suite, and false if the suite is unrecognized.
func LookupCipherSuite(cs constants.CipherSuite) (CipherSuiteParams, bool) {
	p, ok := cipherSuiteTable[cs]
	return p, ok
}

// KeyBlockLength returns the total number of key-block bytes a suite's
// parameters require: two MAC keys, two encryption keys, and two fixed
// IVs.
func (p CipherSuiteParams) KeyBlockLength() int {
	return 2*p.MACKeyLength + 2*p.EncKeyLength + 2*p.FixedIVLength
}
