package sqrlcrypto

import "golang.org/x/crypto/chacha20poly1305"

// legacyAEAD implements AEAD with XChaCha20-Poly1305, the way the teacher's
// legacy_xchacha.go keeps an older AEAD construction alive for data sealed
// before its own envelope.go/GCM refactor. Here it backs the archival type-3
// previous-IUK block rather than the current password/rescue-code blocks, so
// a previous identity's sealed material does not depend on the same
// construction a compromise of the current AES-GCM path would affect.
type legacyAEAD struct{}

// NewLegacyAEAD returns the XChaCha20-Poly1305 AEAD used for type-3 blocks.
func NewLegacyAEAD() AEAD { return legacyAEAD{} }

func (legacyAEAD) Seal(key, nonce, plaintext, aad []byte) []byte {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil
	}
	return aead.Seal(nil, nonce, plaintext, aad)
}

func (legacyAEAD) Open(key, nonce, ciphertext, aad []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	return aead.Open(nil, nonce, ciphertext, aad)
}

func (legacyAEAD) NonceSize() int { return chacha20poly1305.NonceSizeX }

func (legacyAEAD) Overhead() int { return chacha20poly1305.Overhead }
