package sqrlcrypto

import "crypto/rand"

// systemEntropy wraps crypto/rand, matching every random-number call in the
// teacher's codebase (rand.Read for salts, nonces, DEKs, IVs).
type systemEntropy struct{}

// NewEntropySource returns the reference entropy source.
func NewEntropySource() EntropySource { return systemEntropy{} }

func (systemEntropy) Read(p []byte) (int, error) { return rand.Read(p) }
