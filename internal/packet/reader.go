package packet

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Reader предоставляет методы для чтения данных из бинарного сообщения.
// Использует Little-Endian byte order для всех многобайтовых значений.
type Reader struct {
	data []byte
	pos  int
}

// NewReader создаёт новый Reader для чтения сообщения.
func NewReader(data []byte) *Reader {
	return &Reader{
		data: data,
		pos:  0,
	}
}

// ReadByte читает 1 байт.
func (r *Reader) ReadByte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, fmt.Errorf("ReadByte: not enough data (pos=%d, len=%d)", r.pos, len(r.data))
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

// ReadUint16 читает uint16 (2 байта, LE).
func (r *Reader) ReadUint16() (uint16, error) {
	if r.pos+2 > len(r.data) {
		return 0, fmt.Errorf("ReadUint16: not enough data (pos=%d, len=%d)", r.pos, len(r.data))
	}
	val := binary.LittleEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return val, nil
}

// ReadUint32 читает uint32 (4 байта, LE).
func (r *Reader) ReadUint32() (uint32, error) {
	if r.pos+4 > len(r.data) {
		return 0, fmt.Errorf("ReadUint32: not enough data (pos=%d, len=%d)", r.pos, len(r.data))
	}
	val := binary.LittleEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return val, nil
}

// ReadUint64 читает uint64 (8 байт, LE).
func (r *Reader) ReadUint64() (uint64, error) {
	if r.pos+8 > len(r.data) {
		return 0, fmt.Errorf("ReadUint64: not enough data (pos=%d, len=%d)", r.pos, len(r.data))
	}
	val := binary.LittleEndian.Uint64(r.data[r.pos:])
	r.pos += 8
	return val, nil
}

// ReadFloat32 читает float32 (4 байта, LE).
func (r *Reader) ReadFloat32() (float32, error) {
	bits, err := r.ReadUint32()
	if err != nil {
		return 0, fmt.Errorf("ReadFloat32: %w", err)
	}
	return math.Float32frombits(bits), nil
}

// ReadCString reads a null-terminated single-byte string.
// The terminator is consumed but not included in the result.
func (r *Reader) ReadCString() (string, error) {
	start := r.pos
	for r.pos < len(r.data) {
		if r.data[r.pos] == 0 {
			s := string(r.data[start:r.pos])
			r.pos++
			return s, nil
		}
		r.pos++
	}
	r.pos = start
	return "", fmt.Errorf("ReadCString: unterminated string (pos=%d, len=%d)", start, len(r.data))
}

// ReadBytes читает n байт.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("ReadBytes: negative count %d", n)
	}
	if r.pos+n > len(r.data) {
		return nil, fmt.Errorf("ReadBytes: not enough data (pos=%d, need=%d, len=%d)", r.pos, n, len(r.data))
	}

	bytes := make([]byte, n)
	copy(bytes, r.data[r.pos:r.pos+n])
	r.pos += n
	return bytes, nil
}

// Skip пропускает n байт.
func (r *Reader) Skip(n int) error {
	if n < 0 || r.pos+n > len(r.data) {
		return fmt.Errorf("Skip: not enough data (pos=%d, need=%d, len=%d)", r.pos, n, len(r.data))
	}
	r.pos += n
	return nil
}

// Remaining возвращает количество непрочитанных байт.
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

// Position возвращает текущую позицию чтения.
func (r *Reader) Position() int {
	return r.pos
}
