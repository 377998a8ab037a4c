package sqrlcrypto

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"
)

type hkdfKeyDerivation struct{}

// NewKeyDerivation returns a KeyDerivation that expands the identity's root
// secret via HKDF-SHA256, one fixed info string per derived key.
func NewKeyDerivation() KeyDerivation {
	return hkdfKeyDerivation{}
}

func (hkdfKeyDerivation) MasterKey(iuk []byte) ([]byte, error) {
	return expand(iuk, []byte("SQRL master key"))
}

func (hkdfKeyDerivation) IdentityLockKey(iuk []byte) ([]byte, error) {
	return expand(iuk, []byte("SQRL identity lock key"))
}

func (hkdfKeyDerivation) LocalKey(mk []byte) ([]byte, error) {
	return expand(mk, []byte("SQRL local key"))
}

func expand(secret, info []byte) ([]byte, error) {
	out := make([]byte, 32)
	r := hkdf.New(sha256.New, secret, nil, info)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, err
	}
	return out, nil
}
