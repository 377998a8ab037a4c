// Package buffer implements the owned, resizable byte sequence that backs
// every other container in this module. Content is never assumed to be
// NUL-terminated; callers always work with explicit lengths.
package buffer

// Buffer is a mutable, length-tracked sequence of octets.
type Buffer struct {
	b []byte
}

// New returns an empty buffer.
func New() *Buffer { return &Buffer{} }

// From wraps an existing slice as the buffer's initial content. The slice is
// copied so later mutation of src does not alias the buffer.
func From(src []byte) *Buffer {
	buf := &Buffer{b: make([]byte, len(src))}
	copy(buf.b, src)
	return buf
}

// Append adds p to the end of the buffer.
func (buf *Buffer) Append(p []byte) *Buffer {
	buf.b = append(buf.b, p...)
	return buf
}

// AppendByte adds a single byte to the end of the buffer.
func (buf *Buffer) AppendByte(c byte) *Buffer {
	buf.b = append(buf.b, c)
	return buf
}

// Clear resets the buffer to zero length, zeroing any previously held bytes.
func (buf *Buffer) Clear() {
	for i := range buf.b {
		buf.b[i] = 0
	}
	buf.b = buf.b[:0]
}

// Len reports the current length in bytes.
func (buf *Buffer) Len() int { return len(buf.b) }

// Bytes returns the buffer's contents. The returned slice aliases the
// buffer's storage; callers must copy before mutating the buffer further.
func (buf *Buffer) Bytes() []byte { return buf.b }

// Set replaces the buffer's contents with p.
func (buf *Buffer) Set(p []byte) *Buffer {
	buf.Clear()
	return buf.Append(p)
}
