package tlscore

import (
	"crypto/rsa"
	"hash"

	"github.com/sarahazel/tls-core/pkg/cryptoprim"
	"github.com/sarahazel/tls-core/pkg/wire"
)

// hsPhase tags how far a handshake has progressed through the optional
// fields of handshakeState, replacing a record of nilable pointers with a
// small state variant: each phase implies every field the phases before it
// populate is present, so a precondition check reduces to comparing a
// phase ordinal instead of nil-checking several fields independently.
type hsPhase int

const (
	hsStarted hsPhase = iota
	hsWithServerRandom
	hsWithMasterSecret
	hsWithKeyMaterial
)

func (p hsPhase) atLeast(min hsPhase) bool { return p >= min }

// handshakeState holds the fields that exist only while a handshake is in
// progress. It is created by StartHandshakeClient/StartHandshakeServer and
// discarded by EndHandshake.
type handshakeState struct {
	phase hsPhase

	clientVersion wire.Version
	clientRandom  []byte
	serverRandom  []byte
	masterSecret  []byte

	rsaPublicKey  *rsa.PublicKey
	rsaPrivateKey *rsa.PrivateKey

	// transcript is the extensible set of running handshake-message
	// hashes: {MD5, SHA1} for SSL3/TLS1.0/TLS1.1, {SHA256} alone for
	// TLS1.2, chosen once clientVersion is known and populated lazily on
	// first use.
	transcript map[cryptoprim.HashID]hash.Hash
}

func transcriptHashSet(version wire.Version) []cryptoprim.HashID {
	if version.Less(wire.VersionTLS12) {
		return []cryptoprim.HashID{cryptoprim.HashMD5, cryptoprim.HashSHA1}
	}
	return []cryptoprim.HashID{cryptoprim.HashSHA256}
}

// HasHandshake reports whether a handshake is currently in progress.
func (c *ConnectionState) HasHandshake() bool { return c.handshake != nil }

// StartHandshakeClient installs a fresh handshake state for a client-role
// connection. If a handshake is already in progress it returns an
// InternalError rather than resetting state out from under a connection
// that may already hold negotiated key material.
func (c *ConnectionState) StartHandshakeClient(version wire.Version, clientRandom []byte) error {
	if c.handshake != nil {
		return newInternalError("StartHandshakeClient", "already started")
	}
	c.version = version
	c.handshake = &handshakeState{
		phase:         hsStarted,
		clientVersion: version,
		clientRandom:  clientRandom,
		transcript:    make(map[cryptoprim.HashID]hash.Hash),
	}
	return nil
}

// StartHandshakeServer installs a fresh handshake state for a server-role
// connection from a parsed ClientHello's offered version and random,
// mirroring StartHandshakeClient for the responder side.
func (c *ConnectionState) StartHandshakeServer(version wire.Version, clientRandom []byte) error {
	if c.handshake != nil {
		return newInternalError("StartHandshakeServer", "already started")
	}
	c.version = version
	c.handshake = &handshakeState{
		phase:         hsStarted,
		clientVersion: version,
		clientRandom:  clientRandom,
		transcript:    make(map[cryptoprim.HashID]hash.Hash),
	}
	return nil
}

// EndHandshake clears the handshake state unconditionally. The negotiated
// cipher, version, direction keys, MAC states, and encryption flags are
// unaffected.
func (c *ConnectionState) EndHandshake() {
	c.handshake = nil
}

// activeHashes returns the transcript hash set for the handshake's
// clientVersion, creating any context that doesn't exist yet.
func (h *handshakeState) activeHashes() []cryptoprim.HashID {
	ids := transcriptHashSet(h.clientVersion)
	for _, id := range ids {
		if _, ok := h.transcript[id]; !ok {
			h.transcript[id] = cryptoprim.NewHash(id)
		}
	}
	return ids
}

// UpdateHandshakeDigest appends bytes verbatim to every active transcript
// hash context.
func (c *ConnectionState) UpdateHandshakeDigest(data []byte) error {
	if c.handshake == nil {
		return newInternalError("UpdateHandshakeDigest", "no handshake in progress")
	}
	for _, id := range c.handshake.activeHashes() {
		c.handshake.transcript[id].Write(data)
	}
	return nil
}

// UpdateHandshakeDigestSplitted is equivalent to
// UpdateHandshakeDigest(encodeHandshakeHeader(msgType, len(body)) || body),
// provided for callers that hold only a parsed message body rather than
// its already-encoded header.
func (c *ConnectionState) UpdateHandshakeDigestSplitted(msgType wire.HandshakeType, body []byte) error {
	header := wire.EncodeHandshakeHeader(wire.HandshakeHeader{Type: msgType, Length: uint32(len(body))})
	data := make([]byte, 0, len(header)+len(body))
	data = append(data, header...)
	data = append(data, body...)
	return c.UpdateHandshakeDigest(data)
}

// SetServerRandom installs the server random into the in-progress
// handshake state.
func (c *ConnectionState) SetServerRandom(r []byte) error {
	if c.handshake == nil {
		return newInternalError("SetServerRandom", "no handshake in progress")
	}
	c.handshake.serverRandom = r
	if c.handshake.phase < hsWithServerRandom {
		c.handshake.phase = hsWithServerRandom
	}
	return nil
}

// SetPublicKey installs the peer's RSA public key. Requires a handshake in
// progress.
func (c *ConnectionState) SetPublicKey(pub *rsa.PublicKey) error {
	if c.handshake == nil {
		return newInternalError("SetPublicKey", "no handshake in progress")
	}
	c.handshake.rsaPublicKey = pub
	return nil
}

// SetPrivateKey installs the local RSA private key. Requires a handshake
// in progress.
func (c *ConnectionState) SetPrivateKey(priv *rsa.PrivateKey) error {
	if c.handshake == nil {
		return newInternalError("SetPrivateKey", "no handshake in progress")
	}
	c.handshake.rsaPrivateKey = priv
	return nil
}

// PublicKey and PrivateKey return the handshake's installed RSA keys, if
// any.
func (c *ConnectionState) PublicKey() (*rsa.PublicKey, bool) {
	if c.handshake == nil || c.handshake.rsaPublicKey == nil {
		return nil, false
	}
	return c.handshake.rsaPublicKey, true
}

func (c *ConnectionState) PrivateKey() (*rsa.PrivateKey, bool) {
	if c.handshake == nil || c.handshake.rsaPrivateKey == nil {
		return nil, false
	}
	return c.handshake.rsaPrivateKey, true
}

// SetMasterSecret derives and installs the master secret from preMaster.
// Requires a handshake in progress with serverRandom already set.
func (c *ConnectionState) SetMasterSecret(preMaster []byte) error {
	if c.handshake == nil {
		return newInternalError("SetMasterSecret", "no handshake in progress")
	}
	if !c.handshake.phase.atLeast(hsWithServerRandom) {
		return newInternalError("SetMasterSecret", "serverRandom not set")
	}
	c.handshake.masterSecret = cryptoprim.GenerateMasterSecret(
		c.version, preMaster, c.handshake.clientRandom, c.handshake.serverRandom)
	c.handshake.phase = hsWithMasterSecret
	return nil
}

// SetKeyBlock derives the key-expansion output and partitions it into the
// six CryptState pieces, installing txCrypt/rxCrypt and a freshly
// zeroed txMAC/rxMAC. Requires cipher, serverRandom, and masterSecret all
// set.
func (c *ConnectionState) SetKeyBlock() error {
	if c.cipher == nil {
		return newInternalError("SetKeyBlock", "cipher not set")
	}
	if c.handshake == nil || !c.handshake.phase.atLeast(hsWithMasterSecret) {
		return newInternalError("SetKeyBlock", "masterSecret not set")
	}

	size := c.cipher.KeyBlockLength()
	keyBlock := cryptoprim.GenerateKeyBlock(
		c.version, c.handshake.clientRandom, c.handshake.serverRandom, c.handshake.masterSecret, size)

	macLen, keyLen, ivLen := c.cipher.MACKeyLength, c.cipher.EncKeyLength, c.cipher.FixedIVLength
	want := 2*macLen + 2*keyLen + 2*ivLen
	if len(keyBlock) != want {
		return newInternalError("SetKeyBlock", "key block partition size mismatch")
	}

	offset := 0
	take := func(n int) []byte {
		b := keyBlock[offset : offset+n]
		offset += n
		return b
	}

	clientMAC := take(macLen)
	serverMAC := take(macLen)
	clientKey := take(keyLen)
	serverKey := take(keyLen)
	clientIV := take(ivLen)
	serverIV := take(ivLen)

	cstClient := &CryptState{Key: clientKey, IV: clientIV, MACSecret: clientMAC}
	cstServer := &CryptState{Key: serverKey, IV: serverIV, MACSecret: serverMAC}

	if c.role.isClient {
		c.txCrypt, c.rxCrypt = cstClient, cstServer
	} else {
		c.txCrypt, c.rxCrypt = cstServer, cstClient
	}
	c.txMAC = &MacState{}
	c.rxMAC = &MacState{}

	c.handshake.phase = hsWithKeyMaterial
	return nil
}

// GetHandshakeDigest computes the Finished verify_data for forClient's
// side without mutating the live transcript, so it may be called more
// than once (e.g. to send one side's Finished and later verify the
// peer's) and still yield identical bytes. Requires a handshake in
// progress with masterSecret set.
func (c *ConnectionState) GetHandshakeDigest(forClient bool) ([]byte, error) {
	if c.handshake == nil {
		return nil, newInternalError("GetHandshakeDigest", "no handshake in progress")
	}
	if !c.handshake.phase.atLeast(hsWithMasterSecret) {
		return nil, newInternalError("GetHandshakeDigest", "masterSecret not set")
	}

	if c.version.IsSSL3() {
		md5ctx := c.handshake.transcript[cryptoprim.HashMD5]
		sha1ctx := c.handshake.transcript[cryptoprim.HashSHA1]
		if forClient {
			return cryptoprim.GenerateClientFinished(c.version, c.handshake.masterSecret, md5ctx, sha1ctx, nil)
		}
		return cryptoprim.GenerateServerFinished(c.version, c.handshake.masterSecret, md5ctx, sha1ctx, nil)
	}

	ids := transcriptHashSet(c.version)
	digests := make([][]byte, 0, len(ids))
	for _, id := range ids {
		ctx, ok := c.handshake.transcript[id]
		if !ok {
			ctx = cryptoprim.NewHash(id)
		}
		sum, err := cryptoprim.Sum(id, ctx)
		if err != nil {
			return nil, newInternalError("GetHandshakeDigest", err.Error())
		}
		digests = append(digests, sum)
	}

	if forClient {
		return cryptoprim.GenerateClientFinished(c.version, c.handshake.masterSecret, nil, nil, digests)
	}
	return cryptoprim.GenerateServerFinished(c.version, c.handshake.masterSecret, nil, nil, digests)
}
