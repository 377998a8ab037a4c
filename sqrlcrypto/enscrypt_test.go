package sqrlcrypto

import (
	"bytes"
	"context"
	"testing"
)

func TestEnscryptDeriveIterationsDeterministic(t *testing.T) {
	kdf := NewEnscrypt()
	params := EnscryptParams{Salt: []byte("fixed-salt-16byt"), LogN: 4, R: 8, P: 1, Iterations: 2}
	a, err := kdf.DeriveIterations(context.Background(), []byte("password"), params, 32, nil)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	b, err := kdf.DeriveIterations(context.Background(), []byte("password"), params, 32, nil)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatal("expected deterministic output for identical inputs")
	}
}

func TestEnscryptDeriveSecondsReportsIterations(t *testing.T) {
	kdf := NewEnscrypt()
	_, iterations, err := kdf.DeriveSeconds(context.Background(), []byte("password"), []byte("salt"), 0, 32, nil)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if iterations == 0 {
		t.Fatal("expected at least one round even with a zero-second budget")
	}
}

func TestEnscryptProgressAbort(t *testing.T) {
	kdf := NewEnscrypt()
	params := EnscryptParams{Salt: []byte("fixed-salt-16byt"), LogN: 4, R: 8, P: 1, Iterations: 5}
	calls := 0
	_, err := kdf.DeriveIterations(context.Background(), []byte("password"), params, 32, func(percent int) int {
		calls++
		return 1
	})
	if err == nil {
		t.Fatal("expected abort error")
	}
	if calls != 1 {
		t.Fatalf("expected exactly one progress call before abort, got %d", calls)
	}
}
