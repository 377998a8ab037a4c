// Package block implements the container's fundamental record: a typed,
// length-prefixed, cursor-driven byte buffer. It is a port of libsqrl's
// SqrlBlock (see block.cpp / SqrlBlock.h in the reference sources), adapted
// to return explicit errors instead of malloc-can-fail sentinels and to fix
// the two bugs the specification calls out: Resize reports true on success,
// and callers of a locked-memory region get it zeroed before release.
package block

import (
	"encoding/binary"
	"errors"

	"sqrlcore/buffer"
	"sqrlcore/sqrlcrypto"
)

// HeaderSize is the number of bytes the length and type fields occupy at the
// start of every block.
const HeaderSize = 4

var locker = sqrlcrypto.NewLockedMemory()

// Block is a cursor-driven reader/writer over a fixed-size, locked buffer.
// The zero value is an empty, typeless block.
type Block struct {
	typ    uint16
	length uint16
	cursor uint16
	data   []byte
}

// Create allocates a new block of the given type and length, zeroed and with
// the cursor at 0.
func Create(typ, length uint16) (*Block, error) {
	b := &Block{}
	if err := b.init(typ, length); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Block) init(typ, length uint16) error {
	b.Clear()
	data := make([]byte, length)
	if err := locker.Lock(data); err != nil {
		return err
	}
	b.data = data
	b.typ = typ
	b.length = length
	return nil
}

// Clear zeroes and releases the block's data, resetting type, length and
// cursor to 0.
func (b *Block) Clear() {
	if b.data != nil {
		for i := range b.data {
			b.data[i] = 0
		}
		locker.Unlock(b.data)
	}
	b.data = nil
	b.typ = 0
	b.length = 0
	b.cursor = 0
}

// Resize preserves leading bytes up to min(old length, newSize), zero-extends
// if growing, and clamps the cursor if it would exceed the new range. It
// returns true iff the reallocation succeeded — unlike the C++ source this
// is ported from, which always returned false even on success (see open
// question #1 in the specification this implements).
func (b *Block) Resize(newSize uint16) (bool, error) {
	if newSize == 0 {
		return false, errors.New("block: resize to zero")
	}
	if newSize == b.length {
		return true, nil
	}
	fresh := make([]byte, newSize)
	n := b.length
	if newSize < n {
		n = newSize
	}
	copy(fresh, b.data[:n])
	if err := locker.Lock(fresh); err != nil {
		return false, err
	}
	if b.data != nil {
		for i := range b.data {
			b.data[i] = 0
		}
		locker.Unlock(b.data)
	}
	b.data = fresh
	b.length = newSize
	if b.cursor >= b.length {
		b.cursor = b.length - 1
	}
	return true, nil
}

// Seek moves the cursor. If offset is true, dest is relative to the current
// cursor; otherwise it is absolute. The move only takes effect if the target
// is strictly less than length. The resulting cursor is always returned.
func (b *Block) Seek(dest uint16, offset bool) uint16 {
	target := int(dest)
	if offset {
		target += int(b.cursor)
	}
	if target < int(b.length) {
		b.cursor = uint16(target)
	}
	return b.cursor
}

// SeekBack moves the cursor backward from the end (absolute: length-dest) or
// from the current position (relative: cursor-dest). The move only takes
// effect if the target is strictly greater than zero.
func (b *Block) SeekBack(dest uint16, offset bool) uint16 {
	var target int
	if offset {
		target = int(b.cursor) - int(dest)
	} else {
		target = int(b.length) - int(dest)
	}
	if target > 0 {
		b.cursor = uint16(target)
	}
	return b.cursor
}

// Write copies p into the block at the cursor and advances it. It returns
// the number of bytes written, or -1 if p would overrun the block (the
// cursor is left untouched on overrun).
func (b *Block) Write(p []byte) int {
	if int(b.cursor)+len(p) > int(b.length) {
		return -1
	}
	copy(b.data[b.cursor:], p)
	b.cursor += uint16(len(p))
	return len(p)
}

// Read copies n bytes starting at the cursor into a new slice and advances
// the cursor. It returns nil and -1 if the read would overrun the block.
func (b *Block) Read(n int) ([]byte, int) {
	if int(b.cursor)+n > int(b.length) {
		return nil, -1
	}
	out := make([]byte, n)
	copy(out, b.data[b.cursor:int(b.cursor)+n])
	b.cursor += uint16(n)
	return out, n
}

// ReadUint8 reads one byte and advances the cursor, or returns 0 on overrun.
func (b *Block) ReadUint8() uint8 {
	if int(b.cursor)+1 > int(b.length) {
		return 0
	}
	v := b.data[b.cursor]
	b.cursor++
	return v
}

// WriteUint8 writes one byte and advances the cursor, or returns false on
// overrun (cursor untouched).
func (b *Block) WriteUint8(v uint8) bool {
	if int(b.cursor)+1 > int(b.length) {
		return false
	}
	b.data[b.cursor] = v
	b.cursor++
	return true
}

// ReadUint16 reads a little-endian uint16 and advances the cursor, or
// returns 0 on overrun.
func (b *Block) ReadUint16() uint16 {
	if int(b.cursor)+2 > int(b.length) {
		return 0
	}
	v := binary.LittleEndian.Uint16(b.data[b.cursor:])
	b.cursor += 2
	return v
}

// WriteUint16 writes a little-endian uint16 and advances the cursor, or
// returns false on overrun (cursor untouched).
func (b *Block) WriteUint16(v uint16) bool {
	if int(b.cursor)+2 > int(b.length) {
		return false
	}
	binary.LittleEndian.PutUint16(b.data[b.cursor:], v)
	b.cursor += 2
	return true
}

// ReadUint32 reads a little-endian uint32 and advances the cursor, or
// returns 0 on overrun.
func (b *Block) ReadUint32() uint32 {
	if int(b.cursor)+4 > int(b.length) {
		return 0
	}
	v := binary.LittleEndian.Uint32(b.data[b.cursor:])
	b.cursor += 4
	return v
}

// WriteUint32 writes a little-endian uint32 and advances the cursor, or
// returns false on overrun (cursor untouched).
func (b *Block) WriteUint32(v uint32) bool {
	if int(b.cursor)+4 > int(b.length) {
		return false
	}
	binary.LittleEndian.PutUint32(b.data[b.cursor:], v)
	b.cursor += 4
	return true
}

// GetData copies the block's entire data buffer (all Length() bytes, the
// 4-byte header region included) into dst, replacing or appending depending
// on append. The header region holds the length and type only if they were
// loaded or written there; unlike Serialize, GetData does not stamp them.
func (b *Block) GetData(dst *buffer.Buffer, append bool) *buffer.Buffer {
	if dst == nil {
		dst = buffer.New()
	} else if !append {
		dst.Clear()
	}
	if b.length > 0 {
		dst.Append(b.data)
	}
	return dst
}

// DataPointer exposes the underlying buffer for zero-copy interop with the
// AEAD primitive. Callers must not read or write past Length().
func (b *Block) DataPointer(atCursor bool) []byte {
	if atCursor {
		return b.data[b.cursor:]
	}
	return b.data
}

// Length returns the block's total on-disk size, including the header.
func (b *Block) Length() uint16 { return b.length }

// Type returns the block's type identifier.
func (b *Block) Type() uint16 { return b.typ }

// Cursor returns the current cursor position.
func (b *Block) Cursor() uint16 { return b.cursor }

// Serialize returns the full on-disk bytes of the block: a 4-byte
// little-endian length+type header stamped over the first 4 bytes of the
// block's data, followed by the rest of data unchanged. This guarantees the
// "first four bytes encode length and type" invariant holds at persist time
// regardless of what the block's own read/write cursor has done to those
// bytes — callers never need to special-case the header.
func (b *Block) Serialize() []byte {
	out := make([]byte, len(b.data))
	copy(out, b.data)
	if len(out) >= HeaderSize {
		binary.LittleEndian.PutUint16(out[0:2], b.length)
		binary.LittleEndian.PutUint16(out[2:4], b.typ)
	}
	return out
}

// FromBytes reconstructs a block from its full on-disk bytes (header +
// payload), as produced by Serialize or read out of a container.
func FromBytes(raw []byte) (*Block, error) {
	if len(raw) < HeaderSize {
		return nil, errors.New("block: truncated header")
	}
	length := binary.LittleEndian.Uint16(raw[0:2])
	typ := binary.LittleEndian.Uint16(raw[2:4])
	if int(length) != len(raw) {
		return nil, errors.New("block: length field does not match payload size")
	}
	b := &Block{}
	if err := b.init(typ, length); err != nil {
		return nil, err
	}
	copy(b.data, raw)
	return b, nil
}
