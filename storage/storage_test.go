package storage

import (
	"bytes"
	"context"
	"testing"

	"sqrlcore/block"
)

func makeBlock(t *testing.T, typ, length uint16, fill byte) *block.Block {
	t.Helper()
	b, err := block.Create(typ, length)
	if err != nil {
		t.Fatalf("create block: %v", err)
	}
	payload := make([]byte, length)
	for i := range payload {
		payload[i] = fill
	}
	if length >= block.HeaderSize {
		b.Seek(block.HeaderSize, false)
		b.Write(payload[block.HeaderSize:])
	}
	return b
}

func TestPutHasGetRemove(t *testing.T) {
	s := New()
	b := makeBlock(t, 1, 8, 0xAA)
	s.Put(b)

	if !s.Has(1) {
		t.Fatal("expected block type 1 present")
	}
	if s.Get(1) == nil {
		t.Fatal("expected Get to return the block")
	}
	s.Remove(1)
	if s.Has(1) {
		t.Fatal("expected block removed")
	}
}

func TestPutReplacesSameType(t *testing.T) {
	s := New()
	s.Put(makeBlock(t, 1, 8, 0x01))
	s.Put(makeBlock(t, 1, 8, 0x02))
	if len(s.blocks) != 1 {
		t.Fatalf("expected exactly one block of type 1, got %d", len(s.blocks))
	}
}

func TestSaveLoadBinaryRoundTrip(t *testing.T) {
	s := New()
	s.Put(makeBlock(t, 0, 8, 0x10))
	s.Put(makeBlock(t, 1, 12, 0x20))

	raw := s.Save(ExportAll, EncodingBinary)
	if !bytes.HasPrefix(raw, []byte(binarySignature)) {
		t.Fatalf("expected binary signature, got %q", raw[:8])
	}

	got := New()
	if err := got.Load(raw); err != nil {
		t.Fatalf("load: %v", err)
	}
	if !got.Has(0) || !got.Has(1) {
		t.Fatal("round trip lost a block")
	}
	if !bytes.Equal(got.Get(1).Serialize(), s.Get(1).Serialize()) {
		t.Fatal("round trip altered block contents")
	}
}

func TestSaveLoadBase64RoundTrip(t *testing.T) {
	s := New()
	s.Put(makeBlock(t, 0, 8, 0x33))

	raw := s.Save(ExportAll, EncodingBase64)
	if !bytes.HasPrefix(raw, []byte(base64Signature)) {
		t.Fatalf("expected base64 signature, got %q", raw[:8])
	}

	got := New()
	if err := got.Load(raw); err != nil {
		t.Fatalf("load: %v", err)
	}
	if !got.Has(0) {
		t.Fatal("round trip lost the block")
	}
}

func TestSaveRescueOnlyEmitsType2(t *testing.T) {
	s := New()
	s.Put(makeBlock(t, 1, 8, 0x01))
	s.Put(makeBlock(t, 2, 8, 0x02))

	raw := s.Save(ExportRescue, EncodingBinary)
	got := New()
	if err := got.Load(raw); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Has(1) {
		t.Fatal("rescue export leaked a non-rescue block")
	}
	if !got.Has(2) {
		t.Fatal("rescue export dropped the rescue block")
	}
}

func TestLoadRejectsUnknownSignature(t *testing.T) {
	s := New()
	if err := s.Load([]byte("GARBAGE!")); err == nil {
		t.Fatal("expected error for unknown envelope signature")
	}
}

func TestLoadRejectsTruncatedBlock(t *testing.T) {
	raw := append([]byte(binarySignature), 0x01) // length header truncated
	s := New()
	if err := s.Load(raw); err == nil {
		t.Fatal("expected error for truncated block header")
	}
}

func TestLoadRejectsOverrunLength(t *testing.T) {
	b := makeBlock(t, 1, 8, 0xFF)
	serialized := b.Serialize()
	serialized[0] = 0xFF // claim a length far larger than remains
	raw := append([]byte(binarySignature), serialized...)
	s := New()
	if err := s.Load(raw); err == nil {
		t.Fatal("expected error for block length overrunning input")
	}
}

func TestUniqueIDStableAndEmptyWithoutType0(t *testing.T) {
	s := New()
	if id := s.UniqueID(); id != "" {
		t.Fatalf("expected empty id without a type-0 block, got %q", id)
	}

	s.Put(makeBlock(t, 0, 16, 0x77))
	id1 := s.UniqueID()
	if len(id1) != 43 {
		t.Fatalf("expected 43-character id, got %d: %q", len(id1), id1)
	}
	id2 := s.UniqueID()
	if id1 != id2 {
		t.Fatal("UniqueID is not stable across calls")
	}
}

func TestUniqueIDInsensitiveToInsertionOrder(t *testing.T) {
	before := New()
	before.Put(makeBlock(t, 0, 16, 0x99))
	before.Put(makeBlock(t, 1, 8, 0x01))
	before.Put(makeBlock(t, 2, 8, 0x02))

	after := New()
	after.Put(makeBlock(t, 1, 8, 0x01))
	after.Put(makeBlock(t, 2, 8, 0x02))
	after.Put(makeBlock(t, 0, 16, 0x99))

	if before.UniqueID() != after.UniqueID() {
		t.Fatal("UniqueID depends on the order non-type-0 blocks were inserted")
	}
}

type memAdapter struct{ data map[string][]byte }

func newMemAdapter() *memAdapter { return &memAdapter{data: map[string][]byte{}} }

func (m *memAdapter) Load(_ context.Context, uri string) ([]byte, error) {
	b, ok := m.data[uri]
	if !ok {
		return nil, bytes.ErrTooLarge // any non-nil sentinel
	}
	return b, nil
}

func (m *memAdapter) Save(_ context.Context, uri string, data []byte) error {
	m.data[uri] = append([]byte(nil), data...)
	return nil
}

func TestSaveLoadThroughAdapter(t *testing.T) {
	s := New()
	s.Put(makeBlock(t, 0, 8, 0x44))
	adapter := newMemAdapter()
	ctx := context.Background()

	if err := s.SaveToURI(ctx, adapter, "mem://container", ExportAll, EncodingBinary); err != nil {
		t.Fatalf("save: %v", err)
	}

	got := New()
	if err := got.LoadFromURI(ctx, adapter, "mem://container"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.UniqueID() != s.UniqueID() {
		t.Fatal("round trip through adapter changed the container identity")
	}
}
