package serverpackets

import (
	"fmt"

	"github.com/udisondev/wowcli/internal/constants"
	"github.com/udisondev/wowcli/internal/crypto"
	"github.com/udisondev/wowcli/internal/packet"
	"github.com/udisondev/wowcli/internal/protocol"
)

// Challenge is the parsed logon-challenge success response: the SRP6
// material plus the CRC salt for the integrity hash.
type Challenge struct {
	SRP     crypto.Challenge
	CRCSalt []byte
}

// ParseChallenge parses a logon-challenge response payload (opcode already
// stripped). On a non-success result the short error form carries only the
// result byte; Challenge is nil.
//
// Success layout: unk(1), result(1), B(32), gLen(1), g(gLen), primeLen(1),
// prime(primeLen), salt(32), crcSalt(16), securityFlags(1) — 118 payload
// bytes for the fixed server build.
func ParseChallenge(payload []byte) (byte, *Challenge, error) {
	r := packet.NewReader(payload)

	if _, err := r.ReadByte(); err != nil { // unknown/pad byte
		return 0, nil, fmt.Errorf("challenge response: %w", err)
	}
	result, err := r.ReadByte()
	if err != nil {
		return 0, nil, fmt.Errorf("challenge response: %w", err)
	}
	if result != protocol.AuthResultSuccess {
		return result, nil, nil
	}

	serverKey, err := r.ReadBytes(constants.PublicKeySize)
	if err != nil {
		return result, nil, fmt.Errorf("server public key: %w", err)
	}

	genLen, err := r.ReadByte()
	if err != nil {
		return result, nil, fmt.Errorf("generator length: %w", err)
	}
	gen, err := r.ReadBytes(int(genLen))
	if err != nil {
		return result, nil, fmt.Errorf("generator: %w", err)
	}
	if len(gen) == 0 {
		return result, nil, fmt.Errorf("empty generator")
	}

	primeLen, err := r.ReadByte()
	if err != nil {
		return result, nil, fmt.Errorf("prime length: %w", err)
	}
	prime, err := r.ReadBytes(int(primeLen))
	if err != nil {
		return result, nil, fmt.Errorf("prime: %w", err)
	}

	salt, err := r.ReadBytes(constants.SaltSize)
	if err != nil {
		return result, nil, fmt.Errorf("salt: %w", err)
	}
	crcSalt, err := r.ReadBytes(constants.CRCSaltSize)
	if err != nil {
		return result, nil, fmt.Errorf("crc salt: %w", err)
	}

	// Trailing security-flags byte; this client supports none of the
	// two-factor schemes it can announce.
	if r.Remaining() > 0 {
		_, _ = r.ReadByte()
	}

	return result, &Challenge{
		SRP: crypto.Challenge{
			Generator:       gen[0],
			Prime:           prime,
			ServerPublicKey: serverKey,
			Salt:            salt,
		},
		CRCSalt: crcSalt,
	}, nil
}
