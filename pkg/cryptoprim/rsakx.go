// rsakx.go implements RSA key-transport, the classic TLS key-exchange
// method the connection-state core consumes as an external collaborator: the client
// encrypts a 48-byte pre-master secret under the server's RSA public key.
package cryptoprim

import (
	"crypto/rand"
	"crypto/rsa"

	"github.com/sarahazel/tls-core/internal/constants"
	"github.com/sarahazel/tls-core/pkg/wire"
	qerrors "github.com/sarahazel/tls-core/internal/errors"
)

// EncryptPreMasterSecret encrypts a client-generated pre-master secret
// (clientVersion || 46 random bytes, RFC 5246 §7.4.7.1) under the server's
// RSA public key using PKCS#1 v1.5, as RSA key-transport cipher suites
// require.
func EncryptPreMasterSecret(pub *rsa.PublicKey, clientVersion wire.Version) (preMaster, ciphertext []byte, err error) {
	preMaster = make([]byte, constants.MasterSecretSize)
	preMaster[0] = clientVersion.Major
	preMaster[1] = clientVersion.Minor
	if err := SecureRandom(preMaster[2:]); err != nil {
		return nil, nil, err
	}

	ciphertext, err = rsa.EncryptPKCS1v15(rand.Reader, pub, preMaster)
	if err != nil {
		return nil, nil, qerrors.NewCryptoError("EncryptPreMasterSecret", err)
	}
	return preMaster, ciphertext, nil
}

// DecryptPreMasterSecret decrypts a client-supplied pre-master secret under
// the server's RSA private key.
//
// This implementation does not apply the Bleichenbacher countermeasure
// (substituting random bytes on padding failure rather than returning an
// error) that production RSA key-transport servers require; see DESIGN.md.
func DecryptPreMasterSecret(priv *rsa.PrivateKey, ciphertext []byte) ([]byte, error) {
	preMaster, err := rsa.DecryptPKCS1v15(rand.Reader, priv, ciphertext)
	if err != nil {
		return nil, qerrors.NewCryptoError("DecryptPreMasterSecret", err)
	}
	if len(preMaster) != constants.MasterSecretSize {
		return nil, qerrors.NewCryptoError("DecryptPreMasterSecret", qerrors.ErrInvalidMessage)
	}
	return preMaster, nil
}
