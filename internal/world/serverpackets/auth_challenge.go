package serverpackets

import (
	"fmt"

	"github.com/udisondev/wowcli/internal/packet"
)

// ParseAuthChallenge extracts the 4-byte server seed from an auth-challenge
// payload. Later builds append more material after the seed; it is ignored.
func ParseAuthChallenge(payload []byte) ([]byte, error) {
	r := packet.NewReader(payload)
	seed, err := r.ReadBytes(4)
	if err != nil {
		return nil, fmt.Errorf("auth challenge seed: %w", err)
	}
	return seed, nil
}
