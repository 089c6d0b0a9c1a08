// prf.go implements the three TLS PRF variants: the SSL3 MD5/SHA1
// construction, the TLS1.0/1.1 MD5⊕SHA1 split PRF, and the TLS1.2
// SHA-256 PRF, plus the master-secret, key-block and Finished verify_data
// derivations built on top of them.
package cryptoprim

import (
	"crypto/md5"
	"crypto/sha1"
	"hash"

	"github.com/sarahazel/tls-core/internal/constants"
	"github.com/sarahazel/tls-core/pkg/wire"
)

// pHash implements RFC 5246 §5's P_hash(secret, seed) expansion for the
// given HMAC hash.
func pHash(id HashID, secret, seed []byte, size int) []byte {
	out := make([]byte, 0, size+NewHash(id).Size())
	a := seed
	for len(out) < size {
		a = HMAC(id, secret, a)
		chunk := HMAC(id, secret, append(append([]byte{}, a...), seed...))
		out = append(out, chunk...)
	}
	return out[:size]
}

// splitPRF is the TLS1.0/1.1 PRF: the secret is split into two (possibly
// overlapping by one byte) halves, each is fed to P_MD5/P_SHA1, and the
// outputs are XORed (RFC 2246 §5).
func splitPRF(secret []byte, label string, seed []byte, size int) []byte {
	labelSeed := append([]byte(label), seed...)

	half := (len(secret) + 1) / 2
	s1 := secret[:half]
	s2 := secret[len(secret)-half:]

	p1 := pHash(HashMD5, s1, labelSeed, size)
	p2 := pHash(HashSHA1, s2, labelSeed, size)

	out := make([]byte, size)
	for i := range out {
		out[i] = p1[i] ^ p2[i]
	}
	return out
}

// prfSHA256 is the TLS1.2 default PRF (RFC 5246 §5): P_SHA256 applied
// directly to the whole secret.
func prfSHA256(secret []byte, label string, seed []byte, size int) []byte {
	labelSeed := append([]byte(label), seed...)
	return pHash(HashSHA256, secret, labelSeed, size)
}

// sslExpand implements the SSLv3 key-material expansion (RFC 6101 §6.1),
// used both for master-secret derivation and key-block derivation:
//
//	for i in 1..n: hash_i = MD5(secret || SHA1(L(i) || secret || seed))
//
// where L(i) is the ASCII letter repeated i times ("A", "BB", "CCC", ...).
func sslExpand(secret, seed []byte, size int) []byte {
	out := make([]byte, 0, size+md5.Size)
	for i := 1; len(out) < size; i++ {
		prefix := make([]byte, i)
		for j := range prefix {
			prefix[j] = byte('A' + i - 1)
		}

		sha := sha1.New()
		sha.Write(prefix)
		sha.Write(secret)
		sha.Write(seed)
		shaSum := sha.Sum(nil)

		md := md5.New()
		md.Write(secret)
		md.Write(shaSum)
		out = append(out, md.Sum(nil)...)
	}
	return out[:size]
}

// PRF dispatches to the version-appropriate pseudo-random function, matching
// the "PRF_version" notation used throughout the key schedule. label is ignored for SSL3, which
// has no notion of ASCII labels.
func PRF(version wire.Version, secret []byte, label string, seed []byte, size int) []byte {
	switch {
	case version.IsSSL3():
		return sslExpand(secret, seed, size)
	case version.Less(wire.VersionTLS12):
		return splitPRF(secret, label, seed, size)
	default:
		return prfSHA256(secret, label, seed, size)
	}
}

// GenerateMasterSecret computes the 48-byte master secret from the
// pre-master secret and both handshake randoms.
func GenerateMasterSecret(version wire.Version, preMaster, clientRandom, serverRandom []byte) []byte {
	seed := append(append([]byte{}, clientRandom...), serverRandom...)
	return PRF(version, preMaster, constants.LabelMasterSecret, seed, constants.MasterSecretSize)
}

// GenerateKeyBlock computes the key-expansion output that SetKeyBlock
// partitions into the six CryptState pieces. Note the seed
// order is serverRandom||clientRandom, the reverse of master-secret
// derivation, per RFC 5246 §6.3.
func GenerateKeyBlock(version wire.Version, clientRandom, serverRandom, masterSecret []byte, size int) []byte {
	seed := append(append([]byte{}, serverRandom...), clientRandom...)
	return PRF(version, masterSecret, constants.LabelKeyExpansion, seed, size)
}

// sslSender identifies which side the SSLv3 Finished hash authenticates.
var (
	sslSenderClient = []byte{0x43, 0x4C, 0x4E, 0x54} // "CLNT"
	sslSenderServer = []byte{0x53, 0x52, 0x56, 0x52} // "SRVR"
)

// sslFinished implements the SSLv3 Finished hash (RFC 6101 §5.6.9):
//
//	md5_hash = MD5(master_secret || pad2 || MD5(handshake_messages || sender || master_secret || pad1))
//	sha_hash = SHA(master_secret || pad2 || SHA(handshake_messages || sender || master_secret || pad1))
//
// concatenated to produce the 36-byte verify_data.
func sslFinished(masterSecret []byte, sender []byte, md5ctx, sha1ctx hash.Hash) ([]byte, error) {
	md5Inner, err := CloneHash(HashMD5, md5ctx)
	if err != nil {
		return nil, err
	}
	sha1Inner, err := CloneHash(HashSHA1, sha1ctx)
	if err != nil {
		return nil, err
	}

	md5Out := sslFinishedHalf(HashMD5, masterSecret, sender, md5Inner)
	sha1Out := sslFinishedHalf(HashSHA1, masterSecret, sender, sha1Inner)
	return append(md5Out, sha1Out...), nil
}

// sslFinishedHalf continues inner, a copy of the running transcript hash,
// with sender||master_secret||pad1 and wraps the result in the outer hash.
func sslFinishedHalf(id HashID, masterSecret, sender []byte, inner hash.Hash) []byte {
	padLen := sslPadLen(id)
	pad1 := make([]byte, padLen)
	pad2 := make([]byte, padLen)
	for i := range pad1 {
		pad1[i] = 0x36
		pad2[i] = 0x5c
	}

	inner.Write(sender)
	inner.Write(masterSecret)
	inner.Write(pad1)
	innerSum := inner.Sum(nil)

	outer := NewHash(id)
	outer.Write(masterSecret)
	outer.Write(pad2)
	outer.Write(innerSum)
	return outer.Sum(nil)
}

// tlsFinished implements the TLS1.0-1.2 Finished verify_data (RFC 5246
// §7.4.9): PRF(masterSecret, label, MD5(transcript)||SHA1(transcript), 12)
// for TLS1.0/1.1, and PRF_SHA256(masterSecret, label, SHA256(transcript),
// 12) for TLS1.2, where the set of transcript contexts supplied already
// matches the negotiated version's extensible hash set.
func tlsFinished(version wire.Version, masterSecret []byte, label string, transcriptHashes [][]byte) []byte {
	seed := make([]byte, 0, 36)
	for _, h := range transcriptHashes {
		seed = append(seed, h...)
	}
	return PRF(version, masterSecret, label, seed, constants.FinishedSizeTLS)
}

// GenerateClientFinished computes the client's verify_data.
//
// For SSL3, md5ctx/sha1ctx must be non-nil and transcriptHashes is ignored.
// For TLS, transcriptHashes carries the already-finalized digests the
// negotiated version requires (MD5+SHA1 for TLS1.0/1.1, SHA256 alone for
// TLS1.2) and md5ctx/sha1ctx are ignored.
func GenerateClientFinished(version wire.Version, masterSecret []byte, md5ctx, sha1ctx hash.Hash, transcriptHashes [][]byte) ([]byte, error) {
	if version.IsSSL3() {
		return sslFinished(masterSecret, sslSenderClient, md5ctx, sha1ctx)
	}
	return tlsFinished(version, masterSecret, constants.LabelClientFinished, transcriptHashes), nil
}

// GenerateServerFinished computes the server's verify_data. See
// GenerateClientFinished for parameter semantics.
func GenerateServerFinished(version wire.Version, masterSecret []byte, md5ctx, sha1ctx hash.Hash, transcriptHashes [][]byte) ([]byte, error) {
	if version.IsSSL3() {
		return sslFinished(masterSecret, sslSenderServer, md5ctx, sha1ctx)
	}
	return tlsFinished(version, masterSecret, constants.LabelServerFinished, transcriptHashes), nil
}
