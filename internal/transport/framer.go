package transport

import (
	"encoding/binary"
	"fmt"

	"github.com/udisondev/wowcli/internal/constants"
	"github.com/udisondev/wowcli/internal/protocol"
)

// Framer turns the raw byte stream into discrete protocol messages. Feed
// appends a received chunk; Next extracts the next complete message, or
// reports that more bytes are needed. A non-nil error means the stream is
// unrecoverably desynchronized and the connection must be dropped. Reset
// discards all buffered bytes and partial-frame state; the pipeline calls
// it when a new connection opens so one session's tail can never bleed into
// the next.
//
// Implementations are not goroutine-safe; the pipeline guards Feed/Next/Reset
// with one mutex held only around buffer manipulation, never across dispatch.
type Framer interface {
	Feed(p []byte)
	Next() (protocol.Message, bool, error)
	Reset()
}

// WorldFramer reassembles length-prefixed world frames. The 6-byte header
// (u32 LE length + u16 LE opcode) arrives encrypted once the session cipher
// is active; it is decrypted exactly once per frame, as soon as all six
// bytes are buffered, because the rolling cipher state advances per byte.
type WorldFramer struct {
	cipher *CipherHandle

	buf        []byte
	headerDone bool
	opcode     protocol.Opcode
	bodyLen    int
}

// NewWorldFramer creates a world framer drawing its cipher from handle.
func NewWorldFramer(handle *CipherHandle) *WorldFramer {
	return &WorldFramer{cipher: handle}
}

func (f *WorldFramer) Feed(p []byte) {
	f.buf = append(f.buf, p...)
}

// Reset drops buffered bytes and any half-parsed header.
func (f *WorldFramer) Reset() {
	f.buf = nil
	f.headerDone = false
}

func (f *WorldFramer) Next() (protocol.Message, bool, error) {
	if !f.headerDone {
		if len(f.buf) < constants.WorldHeaderSize {
			return protocol.Message{}, false, nil
		}

		header := f.buf[:constants.WorldHeaderSize]
		f.cipher.Get().Decrypt(header)

		length := binary.LittleEndian.Uint32(header[0:4])
		if length < 2 || length > maxWorldFrameLength {
			// Wrong cipher state or corrupt stream; the length field can
			// not be trusted, so resynchronization is impossible.
			return protocol.Message{}, false, fmt.Errorf("invalid world frame length %d", length)
		}

		f.opcode = protocol.Opcode(binary.LittleEndian.Uint16(header[4:6]))
		f.bodyLen = int(length) - 2
		f.headerDone = true
	}

	total := constants.WorldHeaderSize + f.bodyLen
	if len(f.buf) < total {
		return protocol.Message{}, false, nil
	}

	payload := make([]byte, f.bodyLen)
	copy(payload, f.buf[constants.WorldHeaderSize:total])
	f.buf = f.buf[total:]
	f.headerDone = false

	return protocol.Message{Opcode: f.opcode, Payload: payload}, true, nil
}

// maxWorldFrameLength bounds the declared frame length. The protocol has no
// message anywhere near this size; anything larger indicates a desync.
const maxWorldFrameLength = 1 << 20
