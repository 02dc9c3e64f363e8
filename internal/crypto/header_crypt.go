package crypto

import (
	"fmt"

	"github.com/udisondev/wowcli/internal/constants"
)

// Cipher transforms frame-header bytes in place. The transport swaps the
// cipher mid-handshake, so both a no-op and a keyed implementation exist.
type Cipher interface {
	Encrypt(data []byte)
	Decrypt(data []byte)
}

// NullCipher is the identity cipher used before session authentication.
type NullCipher struct{}

func (NullCipher) Encrypt(data []byte) {}
func (NullCipher) Decrypt(data []byte) {}

// HeaderCrypt implements the rolling XOR-add stream cipher applied to world
// frame headers once the session is authenticated.
//
// Algorithm (from the original client build, headers only):
//   - Encrypt: out[i] = (raw[i] ^ K[si]) + sendPrev; sendPrev = out[i]
//   - Decrypt: raw[i] = (in[i] - recvPrev) ^ K[ri]; recvPrev = in[i]
//   - The key index of each direction advances by one per byte and wraps at
//     the 40-byte session key length.
//
// Send and receive directions keep independent state; Encrypt and Decrypt
// may therefore run on different goroutines, but each direction itself must
// be driven from a single goroutine (the pipeline serializes sends with a
// mutex and parses frames on one read loop).
type HeaderCrypt struct {
	key []byte

	sendIdx  int
	sendPrev byte
	recvIdx  int
	recvPrev byte
}

// NewHeaderCrypt creates the keyed cipher from the 40-byte session key.
func NewHeaderCrypt(sessionKey []byte) (*HeaderCrypt, error) {
	if len(sessionKey) != constants.SessionKeySize {
		return nil, fmt.Errorf("header crypt: expected %d-byte session key, got %d",
			constants.SessionKeySize, len(sessionKey))
	}
	key := make([]byte, constants.SessionKeySize)
	copy(key, sessionKey)
	return &HeaderCrypt{key: key}, nil
}

// Encrypt encrypts outgoing header bytes in place.
func (hc *HeaderCrypt) Encrypt(data []byte) {
	for i := range data {
		out := (data[i] ^ hc.key[hc.sendIdx]) + hc.sendPrev
		hc.sendPrev = out
		data[i] = out
		hc.sendIdx = (hc.sendIdx + 1) % len(hc.key)
	}
}

// Decrypt decrypts incoming header bytes in place.
func (hc *HeaderCrypt) Decrypt(data []byte) {
	for i := range data {
		in := data[i]
		data[i] = (in - hc.recvPrev) ^ hc.key[hc.recvIdx]
		hc.recvPrev = in
		hc.recvIdx = (hc.recvIdx + 1) % len(hc.key)
	}
}
