package block

import (
	"bytes"
	"testing"
)

func TestCreateZeroesAndSetsFields(t *testing.T) {
	b, err := Create(1, 8)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if b.Type() != 1 || b.Length() != 8 || b.Cursor() != 0 {
		t.Fatalf("unexpected fields: type=%d length=%d cursor=%d", b.Type(), b.Length(), b.Cursor())
	}
	for _, v := range b.DataPointer(false) {
		if v != 0 {
			t.Fatal("freshly created block is not zeroed")
		}
	}
}

// TestCursorMechanics matches scenario S1: a type=1, length=8 block written
// with bytes 0x01..0x08, then read back as u32/u16/u8 from the start.
func TestCursorMechanics(t *testing.T) {
	b, err := Create(1, 8)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	payload := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	if n := b.Write(payload); n != len(payload) {
		t.Fatalf("write returned %d", n)
	}
	b.Seek(0, false)

	if got := b.ReadUint32(); got != 0x04030201 {
		t.Fatalf("ReadUint32 = %#x, want 0x04030201", got)
	}
	if got := b.ReadUint16(); got != 0x0605 {
		t.Fatalf("ReadUint16 = %#x, want 0x0605", got)
	}
	if got := b.ReadUint8(); got != 0x07 {
		t.Fatalf("ReadUint8 = %#x, want 0x07", got)
	}
}

func TestWriteUint16RoundTrip(t *testing.T) {
	b, err := Create(2, 4)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !b.WriteUint16(0xBEEF) {
		t.Fatal("WriteUint16 failed within bounds")
	}
	if !b.WriteUint16(0x1234) {
		t.Fatal("WriteUint16 failed within bounds")
	}
	b.Seek(0, false)
	if got := b.ReadUint16(); got != 0xBEEF {
		t.Fatalf("got %#x", got)
	}
	if got := b.ReadUint16(); got != 0x1234 {
		t.Fatalf("got %#x", got)
	}
}

// TestOverrunLeavesCursorUntouched matches property 2: writes and reads past
// the end of the block fail without side effects.
func TestOverrunLeavesCursorUntouched(t *testing.T) {
	b, err := Create(1, 4)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	b.Seek(2, false)

	if n := b.Write([]byte{0x01, 0x02, 0x03}); n != -1 {
		t.Fatalf("expected overrun write to fail, got n=%d", n)
	}
	if b.Cursor() != 2 {
		t.Fatalf("cursor moved on failed write: %d", b.Cursor())
	}

	if _, n := b.Read(3); n != -1 {
		t.Fatalf("expected overrun read to fail, got n=%d", n)
	}
	if b.Cursor() != 2 {
		t.Fatalf("cursor moved on failed read: %d", b.Cursor())
	}

	if b.WriteUint32(1) {
		t.Fatal("expected WriteUint32 overrun to fail")
	}
	if b.Cursor() != 2 {
		t.Fatalf("cursor moved on failed WriteUint32: %d", b.Cursor())
	}
}

func TestSeekOnlyMovesWithinBounds(t *testing.T) {
	b, err := Create(1, 4)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got := b.Seek(10, false); got != 0 {
		t.Fatalf("out-of-range seek moved cursor to %d", got)
	}
	if got := b.Seek(3, false); got != 3 {
		t.Fatalf("in-range seek returned %d, want 3", got)
	}
	if got := b.Seek(2, true); got != 3 {
		t.Fatalf("out-of-range relative seek moved cursor to %d", got)
	}
}

func TestResizeGrowPreservesPrefixAndZeroExtends(t *testing.T) {
	b, err := Create(1, 4)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	b.Write([]byte{0xAA, 0xBB, 0xCC, 0xDD})
	ok, err := b.Resize(8)
	if err != nil || !ok {
		t.Fatalf("resize failed: ok=%v err=%v", ok, err)
	}
	if b.Length() != 8 {
		t.Fatalf("length = %d, want 8", b.Length())
	}
	want := []byte{0xAA, 0xBB, 0xCC, 0xDD, 0, 0, 0, 0}
	if !bytes.Equal(b.DataPointer(false), want) {
		t.Fatalf("data = %x, want %x", b.DataPointer(false), want)
	}
}

func TestResizeShrinkClampsCursor(t *testing.T) {
	b, err := Create(1, 8)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	b.Seek(6, false)
	ok, err := b.Resize(4)
	if err != nil || !ok {
		t.Fatalf("resize failed: ok=%v err=%v", ok, err)
	}
	if b.Length() != 4 {
		t.Fatalf("length = %d, want 4", b.Length())
	}
	if b.Cursor() >= b.Length() {
		t.Fatalf("cursor %d not clamped below length %d", b.Cursor(), b.Length())
	}
}

// TestResizeReturnsTrueOnSuccess pins down the fix for open question #1: the
// C++ source this is ported from always returned false, even on success.
func TestResizeReturnsTrueOnSuccess(t *testing.T) {
	b, err := Create(1, 4)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	ok, err := b.Resize(16)
	if err != nil {
		t.Fatalf("resize: %v", err)
	}
	if !ok {
		t.Fatal("Resize must report true on success")
	}
}

func TestSerializeStampsHeader(t *testing.T) {
	b, err := Create(0x0002, 8)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	b.Write([]byte{0, 0, 0, 0, 0xAA, 0xBB, 0xCC, 0xDD})

	raw := b.Serialize()
	if len(raw) != 8 {
		t.Fatalf("serialized length = %d, want 8", len(raw))
	}
	if raw[0] != 0x08 || raw[1] != 0x00 {
		t.Fatalf("length header = %x", raw[0:2])
	}
	if raw[2] != 0x02 || raw[3] != 0x00 {
		t.Fatalf("type header = %x", raw[2:4])
	}
	if !bytes.Equal(raw[4:], []byte{0xAA, 0xBB, 0xCC, 0xDD}) {
		t.Fatalf("payload = %x", raw[4:])
	}
}

func TestFromBytesRoundTrip(t *testing.T) {
	b, err := Create(9, 10)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	b.Seek(4, false)
	b.Write([]byte{1, 2, 3, 4, 5, 6})

	raw := b.Serialize()
	got, err := FromBytes(raw)
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if got.Type() != 9 || got.Length() != 10 {
		t.Fatalf("type=%d length=%d", got.Type(), got.Length())
	}
	if !bytes.Equal(got.Serialize(), raw) {
		t.Fatalf("round trip mismatch: %x vs %x", got.Serialize(), raw)
	}
}

func TestFromBytesRejectsTruncatedHeader(t *testing.T) {
	if _, err := FromBytes([]byte{0x01}); err == nil {
		t.Fatal("expected error for truncated header")
	}
}

func TestFromBytesRejectsLengthMismatch(t *testing.T) {
	raw := []byte{0x09, 0x00, 0x01, 0x00, 0xFF} // length field says 9, but only 5 bytes given
	if _, err := FromBytes(raw); err == nil {
		t.Fatal("expected error for length mismatch")
	}
}

func TestClearZeroesData(t *testing.T) {
	b, err := Create(1, 4)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	b.Write([]byte{1, 2, 3, 4})
	data := b.DataPointer(false)
	b.Clear()
	if b.Length() != 0 || b.Type() != 0 || b.Cursor() != 0 {
		t.Fatalf("clear did not reset fields: length=%d type=%d cursor=%d", b.Length(), b.Type(), b.Cursor())
	}
	for _, v := range data {
		if v != 0 {
			t.Fatalf("clear left non-zero bytes in the released data: %x", data)
		}
	}
}
