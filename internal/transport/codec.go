package transport

import (
	"encoding/binary"

	"github.com/udisondev/wowcli/internal/constants"
	"github.com/udisondev/wowcli/internal/protocol"
)

// Codec serializes an (opcode, payload) pair into its wire representation,
// applying encryption to the portion of the message the protocol defines as
// encrypted.
type Codec interface {
	Encode(op protocol.Opcode, payload []byte) []byte
}

// AuthCodec frames messages for the auth channel: a single opcode byte
// followed by the payload. The auth channel is never encrypted.
type AuthCodec struct{}

func (AuthCodec) Encode(op protocol.Opcode, payload []byte) []byte {
	out := make([]byte, 1+len(payload))
	out[0] = byte(op)
	copy(out[1:], payload)
	return out
}

// WorldCodec frames messages for the world protocol:
// u32 LE length (opcode + payload) ‖ u16 LE opcode ‖ payload.
// The 6-byte header is encrypted with the pipeline's current cipher; the
// payload is sent in the clear, as the protocol defines.
type WorldCodec struct {
	cipher *CipherHandle
}

// NewWorldCodec creates a world codec drawing its cipher from handle.
func NewWorldCodec(handle *CipherHandle) *WorldCodec {
	return &WorldCodec{cipher: handle}
}

func (c *WorldCodec) Encode(op protocol.Opcode, payload []byte) []byte {
	out := make([]byte, constants.WorldHeaderSize+len(payload))
	binary.LittleEndian.PutUint32(out[0:4], uint32(2+len(payload)))
	binary.LittleEndian.PutUint16(out[4:6], uint16(op))
	copy(out[constants.WorldHeaderSize:], payload)

	// Header crypt carries rolling state; the pipeline serializes sends.
	c.cipher.Get().Encrypt(out[:constants.WorldHeaderSize])
	return out
}
