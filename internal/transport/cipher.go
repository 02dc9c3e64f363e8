package transport

import (
	"sync/atomic"

	"github.com/udisondev/wowcli/internal/crypto"
)

type cipherBox struct {
	cipher crypto.Cipher
}

// CipherHandle is an atomically-swappable cipher reference shared by the
// codec (sends) and the framer (receives). Swapping replaces the reference;
// it never mutates the active cipher, so a frame being parsed at swap time
// completes under the cipher that was current when its header arrived.
type CipherHandle struct {
	box atomic.Pointer[cipherBox]
}

// NewCipherHandle creates a handle holding the identity cipher.
func NewCipherHandle() *CipherHandle {
	h := &CipherHandle{}
	h.box.Store(&cipherBox{cipher: crypto.NullCipher{}})
	return h
}

// Get returns the current cipher.
func (h *CipherHandle) Get() crypto.Cipher {
	return h.box.Load().cipher
}

// Swap installs a new cipher.
func (h *CipherHandle) Swap(c crypto.Cipher) {
	h.box.Store(&cipherBox{cipher: c})
}
