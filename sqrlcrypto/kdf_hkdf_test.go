package sqrlcrypto

import (
	"bytes"
	"testing"
)

func TestKeyDerivationIsDeterministicAndDistinctPerPurpose(t *testing.T) {
	kd := NewKeyDerivation()
	iuk := randBytes(t, 32)

	mk1, err := kd.MasterKey(iuk)
	if err != nil {
		t.Fatalf("MasterKey: %v", err)
	}
	mk2, err := kd.MasterKey(iuk)
	if err != nil {
		t.Fatalf("MasterKey: %v", err)
	}
	if !bytes.Equal(mk1, mk2) {
		t.Fatal("expected MasterKey to be deterministic for the same IUK")
	}

	ilk, err := kd.IdentityLockKey(iuk)
	if err != nil {
		t.Fatalf("IdentityLockKey: %v", err)
	}
	if bytes.Equal(mk1, ilk) {
		t.Fatal("MasterKey and IdentityLockKey must not collide for the same IUK")
	}

	local, err := kd.LocalKey(mk1)
	if err != nil {
		t.Fatalf("LocalKey: %v", err)
	}
	if bytes.Equal(local, mk1) {
		t.Fatal("LocalKey must differ from its MK input")
	}
}
