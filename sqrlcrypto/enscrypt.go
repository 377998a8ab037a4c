package sqrlcrypto

import (
	"context"
	"crypto/rand"
	"errors"
	"time"

	"golang.org/x/crypto/scrypt"
)

// DefaultLogN matches libsqrl's SQRL_DEFAULT_N_FACTOR (scrypt cost parameter
// N = 1<<DefaultLogN).
const DefaultLogN = 9

// scryptEnscrypt implements KDF by repeatedly running scrypt and XORing
// successive outputs together, the way libsqrl's sqrl_crypt_enscrypt chains
// rounds of the underlying memory-hard function rather than calling it once.
type scryptEnscrypt struct{}

// NewEnscrypt returns the reference Enscrypt implementation backed by
// golang.org/x/crypto/scrypt.
func NewEnscrypt() KDF { return scryptEnscrypt{} }

func (scryptEnscrypt) DeriveIterations(ctx context.Context, password []byte, params EnscryptParams, keyLen int, progress ProgressFunc) ([]byte, error) {
	if params.Iterations == 0 {
		return nil, errors.New("sqrlcrypto: zero iterations")
	}
	n := 1 << params.LogN
	out := make([]byte, keyLen)
	salt := append([]byte(nil), params.Salt...)
	for i := uint32(0); i < params.Iterations; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		round, err := scrypt.Key(password, salt, n, int(params.R), int(params.P), keyLen)
		if err != nil {
			return nil, err
		}
		xorInto(out, round)
		salt = round
		if progress != nil {
			percent := int(uint64(i+1) * 100 / uint64(params.Iterations))
			if progress(percent) != 0 {
				return nil, errors.New("sqrlcrypto: derivation aborted")
			}
		}
	}
	return out, nil
}

func (s scryptEnscrypt) DeriveSeconds(ctx context.Context, password []byte, salt []byte, seconds uint8, keyLen int, progress ProgressFunc) ([]byte, uint32, error) {
	if len(salt) == 0 {
		salt = make([]byte, 16)
		if _, err := rand.Read(salt); err != nil {
			return nil, 0, err
		}
	}
	n := 1 << DefaultLogN
	budget := time.Duration(seconds) * time.Second
	deadline := time.Now().Add(budget)
	out := make([]byte, keyLen)
	roundSalt := append([]byte(nil), salt...)
	var iterations uint32
	for {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		round, err := scrypt.Key(password, roundSalt, n, 8, 1, keyLen)
		if err != nil {
			return nil, 0, err
		}
		xorInto(out, round)
		roundSalt = round
		iterations++
		if progress != nil {
			elapsed := time.Since(deadline.Add(-budget))
			percent := 100
			if budget > 0 {
				percent = int(elapsed * 100 / budget)
			}
			if percent > 100 {
				percent = 100
			}
			if progress(percent) != 0 {
				return out, iterations, nil
			}
		}
		if budget <= 0 || time.Now().After(deadline) {
			break
		}
	}
	return out, iterations, nil
}

func xorInto(dst, src []byte) {
	n := len(dst)
	if len(src) < n {
		n = len(src)
	}
	for i := 0; i < n; i++ {
		dst[i] ^= src[i]
	}
}
