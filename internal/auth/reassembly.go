package auth

import (
	"encoding/binary"
	"log/slog"
	"sync/atomic"

	"github.com/udisondev/wowcli/internal/constants"
	"github.com/udisondev/wowcli/internal/protocol"
)

// Reassembler frames the auth channel. The protocol has no universal length
// prefix; message boundaries are inferred per-opcode from the fixed and
// self-describing layouts below. This mirrors the real wire protocol and
// must not be replaced with an envelope.
//
// Framing is gated on the opcode the client currently awaits: the channel is
// strictly request/response, so a leading byte other than the expected
// response opcode means the stream is desynchronized. Exactly one byte is
// dropped and framing retried, so a corrupt prefix can never wedge the
// parser or discard a later valid message wholesale.
//
// Feed/Next are serialized by the pipeline; Expect may be called from the
// client goroutine.
type Reassembler struct {
	buf      []byte
	expected atomic.Int32 // awaited response opcode, -1 = none
}

// NewReassembler creates an empty reassembler awaiting nothing.
func NewReassembler() *Reassembler {
	a := &Reassembler{}
	a.expected.Store(-1)
	return a
}

// Expect arms the reassembler for one response opcode.
func (a *Reassembler) Expect(op protocol.Opcode) {
	a.expected.Store(int32(op))
}

// Feed appends a received chunk.
func (a *Reassembler) Feed(p []byte) {
	a.buf = append(a.buf, p...)
}

// Reset drops buffered bytes and disarms the expectation. A partial response
// left over from an abandoned exchange must not prefix the next one.
func (a *Reassembler) Reset() {
	a.buf = nil
	a.expected.Store(-1)
}

// Next extracts the next complete auth message. The returned payload
// excludes the opcode byte. Never returns an error: auth desync is always
// recovered locally.
func (a *Reassembler) Next() (protocol.Message, bool, error) {
	for len(a.buf) > 0 {
		opcode := protocol.Opcode(a.buf[0])

		var size int
		switch {
		case opcode == protocol.AuthLogonChallenge && a.expecting(opcode):
			if len(a.buf) < 3 {
				return protocol.Message{}, false, nil
			}
			if a.buf[2] != protocol.AuthResultSuccess {
				size = constants.ChallengeErrorSize
			} else {
				size = constants.ChallengeSuccessSize
			}

		case opcode == protocol.AuthLogonProof && a.expecting(opcode):
			if len(a.buf) < 2 {
				return protocol.Message{}, false, nil
			}
			if a.buf[1] != protocol.AuthResultSuccess {
				// Error responses are at most 4 bytes; depending on the
				// server build the two trailing pad bytes may be missing,
				// so take whatever is buffered up to that limit.
				size = min(constants.ProofErrorSize, len(a.buf))
			} else {
				size = constants.ProofSuccessSize
			}

		case opcode == protocol.AuthRealmList && a.expecting(opcode):
			if len(a.buf) < 3 {
				return protocol.Message{}, false, nil
			}
			size = 3 + int(binary.LittleEndian.Uint16(a.buf[1:3]))

		default:
			// Desynchronized: drop exactly one byte and retry.
			slog.Debug("dropping unexpected auth byte", "byte", a.buf[0])
			a.buf = a.buf[1:]
			continue
		}

		if len(a.buf) < size {
			return protocol.Message{}, false, nil
		}

		payload := make([]byte, size-1)
		copy(payload, a.buf[1:size])
		a.buf = a.buf[size:]
		return protocol.Message{Opcode: opcode, Payload: payload}, true, nil
	}

	return protocol.Message{}, false, nil
}

func (a *Reassembler) expecting(op protocol.Opcode) bool {
	return a.expected.Load() == int32(op)
}
