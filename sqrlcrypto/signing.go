package sqrlcrypto

import (
	"crypto/ed25519"
	"crypto/rand"
)

// ed25519Signer is a direct port of the teacher's sig_ed25519.go, renamed to
// satisfy the Signer contract.
type ed25519Signer struct{}

// NewSigner returns the reference Ed25519 signer.
func NewSigner() Signer { return ed25519Signer{} }

func (ed25519Signer) GenerateKey() ([]byte, []byte, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, err
	}
	return pub, priv, nil
}

func (ed25519Signer) Sign(priv, message []byte) []byte {
	if len(priv) != ed25519.PrivateKeySize {
		return nil
	}
	return ed25519.Sign(ed25519.PrivateKey(priv), message)
}

func (ed25519Signer) Verify(pub, message, sig []byte) bool {
	if len(pub) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pub), message, sig)
}
