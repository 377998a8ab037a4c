package sqrlcrypto

import (
	"crypto/ecdh"
	"crypto/rand"
)

// x25519Agreement is a direct port of the teacher's dh_x25519.go, renamed to
// satisfy the KeyAgreement contract and working in raw byte form instead of
// *ecdh.PrivateKey/*ecdh.PublicKey so callers never touch stdlib types.
type x25519Agreement struct{}

// NewKeyAgreement returns the reference X25519 key agreement implementation.
func NewKeyAgreement() KeyAgreement { return x25519Agreement{} }

func (x25519Agreement) GenerateKey() ([]byte, []byte, error) {
	curve := ecdh.X25519()
	priv, err := curve.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, err
	}
	return priv.PublicKey().Bytes(), priv.Bytes(), nil
}

func (x25519Agreement) SharedSecret(priv, peerPub []byte) ([]byte, error) {
	curve := ecdh.X25519()
	sk, err := curve.NewPrivateKey(priv)
	if err != nil {
		return nil, err
	}
	pk, err := curve.NewPublicKey(peerPub)
	if err != nil {
		return nil, err
	}
	return sk.ECDH(pk)
}
