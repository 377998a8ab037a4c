package user

import (
	"bytes"
	"testing"

	"sqrlcore/keytable"
	"sqrlcore/storage"
)

func TestSealOpenKeyBlockRoundTrip(t *testing.T) {
	u := NewUser()
	u.options.EnscryptSeconds = 0
	plaintext := make([]byte, keytable.KeySize)
	for i := range plaintext {
		plaintext[i] = byte(i)
	}

	b, err := u.sealKeyBlock(1, []byte("correct"), plaintext, u.options.EnscryptSeconds)
	if err != nil {
		t.Fatalf("sealKeyBlock: %v", err)
	}

	got, err := u.openKeyBlock(b, []byte("correct"))
	if err != nil {
		t.Fatalf("openKeyBlock: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatal("round-tripped plaintext does not match")
	}
}

func TestSealPreviousIUKBlockRoundTrip(t *testing.T) {
	u := NewUser()
	u.options.EnscryptSeconds = 0
	if err := u.SetRescueCode("123456789012345678901234"); err != nil {
		t.Fatalf("SetRescueCode: %v", err)
	}
	piuk0 := make([]byte, keytable.KeySize)
	for i := range piuk0 {
		piuk0[i] = byte(i + 1)
	}
	slot, err := u.keys.NewKey(keytable.PIUK0)
	if err != nil {
		t.Fatalf("NewKey(PIUK0): %v", err)
	}
	copy(slot, piuk0)

	b, err := u.SealPreviousIUKBlock()
	if err != nil {
		t.Fatalf("SealPreviousIUKBlock: %v", err)
	}
	if b.Type() != previousIUKBlockType {
		t.Fatalf("expected block type %d, got %d", previousIUKBlockType, b.Type())
	}

	s := storage.New()
	s.Put(b)

	u2 := NewUser()
	u2.options.EnscryptSeconds = 0
	if err := u2.LoadPreviousIUKs(s, []byte(u.GetRescueCode())); err != nil {
		t.Fatalf("LoadPreviousIUKs: %v", err)
	}
	if !bytes.Equal(u2.keys.Key(keytable.PIUK0), piuk0) {
		t.Fatal("recovered PIUK0 does not match")
	}
	if u2.keys.HasKey(keytable.PIUK1) {
		t.Fatal("PIUK1 should not have been populated")
	}
}

func TestLoadPreviousIUKsRejectsWrongRescueCode(t *testing.T) {
	u := NewUser()
	u.options.EnscryptSeconds = 0
	if err := u.SetRescueCode("123456789012345678901234"); err != nil {
		t.Fatalf("SetRescueCode: %v", err)
	}
	slot, err := u.keys.NewKey(keytable.PIUK0)
	if err != nil {
		t.Fatalf("NewKey(PIUK0): %v", err)
	}
	copy(slot, make([]byte, keytable.KeySize))

	b, err := u.SealPreviousIUKBlock()
	if err != nil {
		t.Fatalf("SealPreviousIUKBlock: %v", err)
	}
	s := storage.New()
	s.Put(b)

	if err := u.LoadPreviousIUKs(s, []byte("000000000000000000000000")); err != ErrWrongCredential {
		t.Fatalf("expected ErrWrongCredential, got %v", err)
	}
}

func TestOpenKeyBlockRejectsWrongCredential(t *testing.T) {
	u := NewUser()
	u.options.EnscryptSeconds = 0
	plaintext := make([]byte, keytable.KeySize)

	b, err := u.sealKeyBlock(1, []byte("correct"), plaintext, u.options.EnscryptSeconds)
	if err != nil {
		t.Fatalf("sealKeyBlock: %v", err)
	}

	if _, err := u.openKeyBlock(b, []byte("wrong")); err != ErrWrongCredential {
		t.Fatalf("expected ErrWrongCredential, got %v", err)
	}
}
