package serverpackets

import (
	"fmt"

	"github.com/udisondev/wowcli/internal/constants"
	"github.com/udisondev/wowcli/internal/packet"
	"github.com/udisondev/wowcli/internal/protocol"
)

// Proof is the parsed logon-proof success response.
type Proof struct {
	ServerProof  []byte
	AccountFlags uint32
}

// ParseProof parses a logon-proof response payload (opcode stripped). On a
// non-success result only the result byte is meaningful; Proof is nil.
func ParseProof(payload []byte) (byte, *Proof, error) {
	r := packet.NewReader(payload)

	result, err := r.ReadByte()
	if err != nil {
		return 0, nil, fmt.Errorf("proof response: %w", err)
	}
	if result != protocol.AuthResultSuccess {
		return result, nil, nil
	}

	serverProof, err := r.ReadBytes(constants.ProofSize)
	if err != nil {
		return result, nil, fmt.Errorf("server proof: %w", err)
	}
	flags, err := r.ReadUint32()
	if err != nil {
		return result, nil, fmt.Errorf("account flags: %w", err)
	}

	return result, &Proof{ServerProof: serverProof, AccountFlags: flags}, nil
}
