package sqrlcrypto

import (
	"crypto/aes"
	"crypto/cipher"
)

// gcmAEAD implements AEAD with AES-256-GCM, the way the teacher's envelope.go
// reaches for stdlib crypto/aes+crypto/cipher rather than a third-party AEAD
// package for its own encrypt-then-MAC construction.
type gcmAEAD struct{}

// NewAEAD returns the reference AES-GCM AEAD implementation.
func NewAEAD() AEAD { return gcmAEAD{} }

func (gcmAEAD) newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func (g gcmAEAD) Seal(key, nonce, plaintext, aad []byte) []byte {
	gcm, err := g.newGCM(key)
	if err != nil {
		return nil
	}
	return gcm.Seal(nil, nonce, plaintext, aad)
}

func (g gcmAEAD) Open(key, nonce, ciphertext, aad []byte) ([]byte, error) {
	gcm, err := g.newGCM(key)
	if err != nil {
		return nil, err
	}
	return gcm.Open(nil, nonce, ciphertext, aad)
}

func (g gcmAEAD) NonceSize() int {
	gcm, err := g.newGCM(make([]byte, 32))
	if err != nil {
		return 12
	}
	return gcm.NonceSize()
}

func (g gcmAEAD) Overhead() int {
	gcm, err := g.newGCM(make([]byte, 32))
	if err != nil {
		return 16
	}
	return gcm.Overhead()
}
