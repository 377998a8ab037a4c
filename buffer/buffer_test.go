package buffer

import (
	"bytes"
	"testing"
)

func TestAppendAndBytes(t *testing.T) {
	buf := New()
	buf.Append([]byte("hello"))
	buf.AppendByte(' ')
	buf.Append([]byte("world"))
	if !bytes.Equal(buf.Bytes(), []byte("hello world")) {
		t.Fatalf("unexpected contents: %q", buf.Bytes())
	}
	if buf.Len() != 11 {
		t.Fatalf("unexpected len: %d", buf.Len())
	}
}

func TestClearZeroesAndResetsLength(t *testing.T) {
	buf := From([]byte{0x01, 0x02, 0x03})
	held := buf.Bytes()
	buf.Clear()
	if buf.Len() != 0 {
		t.Fatalf("expected len 0 after clear, got %d", buf.Len())
	}
	for _, v := range held {
		if v != 0 {
			t.Fatalf("expected previously held bytes zeroed, got %x", held)
		}
	}
}

func TestSetReplacesContents(t *testing.T) {
	buf := From([]byte("old"))
	buf.Set([]byte("new"))
	if !bytes.Equal(buf.Bytes(), []byte("new")) {
		t.Fatalf("unexpected contents: %q", buf.Bytes())
	}
}

func TestFromDoesNotAliasSource(t *testing.T) {
	src := []byte{0x00}
	buf := From(src)
	src[0] = 0xFF
	if buf.Bytes()[0] != 0x00 {
		t.Fatal("buffer aliased its source slice")
	}
}
