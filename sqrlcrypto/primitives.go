// Package sqrlcrypto defines the cryptographic primitives the identity core
// consumes but does not itself specify: a memory-hard password KDF, an AEAD
// cipher, Ed25519 signing, Curve25519 key agreement, a random byte source and
// a locked-memory allocator. The core only ever talks to these through the
// interfaces below; the concrete implementations in this package are a
// reference wiring, not part of the protocol.
package sqrlcrypto

import "context"

// EnscryptParams carries the salt and cost factors for the Enscrypt KDF.
type EnscryptParams struct {
	Salt       []byte
	LogN       uint8
	R          uint32
	P          uint32
	Iterations uint32
}

// ProgressFunc reports 0-100 percent completion of a long-running derivation.
// Returning a non-zero value asks the derivation to abort early.
type ProgressFunc func(percent int) int

// KDF derives a fixed-size key from a password, either for a fixed iteration
// count or for as many iterations as fit in a wall-clock budget.
type KDF interface {
	// DeriveIterations runs exactly params.Iterations rounds.
	DeriveIterations(ctx context.Context, password []byte, params EnscryptParams, keyLen int, progress ProgressFunc) ([]byte, error)
	// DeriveSeconds runs as many rounds as fit in the given duration budget and
	// reports back how many it used.
	DeriveSeconds(ctx context.Context, password []byte, salt []byte, seconds uint8, keyLen int, progress ProgressFunc) ([]byte, uint32, error)
}

// AEAD seals and opens a plaintext under a 32-byte key with associated data.
type AEAD interface {
	Seal(key, nonce, plaintext, aad []byte) []byte
	Open(key, nonce, ciphertext, aad []byte) ([]byte, error)
	NonceSize() int
	Overhead() int
}

// Signer signs and verifies with an Ed25519-shaped key pair.
type Signer interface {
	GenerateKey() (pub, priv []byte, err error)
	Sign(priv, message []byte) []byte
	Verify(pub, message, sig []byte) bool
}

// KeyAgreement performs a Curve25519 (X25519) Diffie-Hellman exchange.
type KeyAgreement interface {
	GenerateKey() (pub, priv []byte, err error)
	SharedSecret(priv, peerPub []byte) ([]byte, error)
}

// EntropySource supplies cryptographically secure random bytes.
type EntropySource interface {
	Read(p []byte) (int, error)
}

// LockedMemory locks and unlocks byte slices against swap/paging.
type LockedMemory interface {
	Lock(b []byte) error
	Unlock(b []byte) error
}

// KeyDerivation produces the identity's derived keys from its root secret.
// These correspond to the specification's "generate master key", "generate
// identity lock key" and "generate local key" external primitives.
type KeyDerivation interface {
	MasterKey(iuk []byte) ([]byte, error)
	IdentityLockKey(iuk []byte) ([]byte, error)
	LocalKey(mk []byte) ([]byte, error)
}
