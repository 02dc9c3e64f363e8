package packet

import "encoding/binary"

// Writer accumulates a binary message in little-endian byte order.
// Unlike the fixed-offset builders used for constant-layout messages, Writer
// appends, because most client messages here are variable-length (usernames,
// length-prefixed primes, addon blocks).
type Writer struct {
	buf []byte
}

// NewWriter creates a Writer with the given initial capacity.
func NewWriter(capacity int) *Writer {
	return &Writer{buf: make([]byte, 0, capacity)}
}

// PutByte appends 1 byte.
func (w *Writer) PutByte(v byte) {
	w.buf = append(w.buf, v)
}

// PutUint16 appends uint16 (2 bytes, LE).
func (w *Writer) PutUint16(v uint16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}

// PutUint32 appends uint32 (4 bytes, LE).
func (w *Writer) PutUint32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

// PutUint64 appends uint64 (8 bytes, LE).
func (w *Writer) PutUint64(v uint64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
}

// PutBytes appends raw bytes as-is.
func (w *Writer) PutBytes(b []byte) {
	w.buf = append(w.buf, b...)
}

// PutString appends the string bytes without a terminator.
func (w *Writer) PutString(s string) {
	w.buf = append(w.buf, s...)
}

// PutCString appends the string bytes followed by a null terminator.
func (w *Writer) PutCString(s string) {
	w.buf = append(w.buf, s...)
	w.buf = append(w.buf, 0)
}

// SetUint16 overwrites 2 bytes (LE) at offset. Offset must already be written.
func (w *Writer) SetUint16(offset int, v uint16) {
	binary.LittleEndian.PutUint16(w.buf[offset:], v)
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int {
	return len(w.buf)
}

// Bytes returns the accumulated message. The slice is owned by the Writer
// until the Writer is discarded.
func (w *Writer) Bytes() []byte {
	return w.buf
}
