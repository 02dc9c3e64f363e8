package serverpackets

import (
	"fmt"

	"github.com/udisondev/wowcli/internal/packet"
	"github.com/udisondev/wowcli/internal/protocol"
)

// AttackAction classifies the combat-notification opcodes.
type AttackAction int

const (
	AttackStart AttackAction = iota
	AttackStop
	AttackNotInRange
	AttackBadFacing
	AttackNotStanding
	AttackDeadTarget
	AttackCantAttack
)

func (a AttackAction) String() string {
	switch a {
	case AttackStart:
		return "start"
	case AttackStop:
		return "stop"
	case AttackNotInRange:
		return "not in range"
	case AttackBadFacing:
		return "bad facing"
	case AttackNotStanding:
		return "not standing"
	case AttackDeadTarget:
		return "dead target"
	case AttackCantAttack:
		return "cannot attack"
	default:
		return fmt.Sprintf("AttackAction(%d)", int(a))
	}
}

// AttackEvent is the decoded form of a combat-notification message. The
// swing-rejection messages carry no GUIDs; Attacker/Target stay zero there.
type AttackEvent struct {
	Action   AttackAction
	Attacker uint64
	Target   uint64
}

var attackActions = map[protocol.Opcode]AttackAction{
	protocol.SMSGAttackStart:            AttackStart,
	protocol.SMSGAttackStop:             AttackStop,
	protocol.SMSGAttackSwingNotInRange:  AttackNotInRange,
	protocol.SMSGAttackSwingBadFacing:   AttackBadFacing,
	protocol.SMSGAttackSwingNotStanding: AttackNotStanding,
	protocol.SMSGAttackSwingDeadTarget:  AttackDeadTarget,
	protocol.SMSGAttackSwingCantAttack:  AttackCantAttack,
}

// IsAttackOpcode reports whether op is one of the combat-notification opcodes.
func IsAttackOpcode(op protocol.Opcode) bool {
	_, ok := attackActions[op]
	return ok
}

// ParseAttackEvent decodes one combat-notification message. Attack-start
// carries two plain GUIDs, attack-stop two packed GUIDs; the four rejection
// reasons have an empty payload.
func ParseAttackEvent(op protocol.Opcode, payload []byte) (AttackEvent, error) {
	action, ok := attackActions[op]
	if !ok {
		return AttackEvent{}, fmt.Errorf("opcode %s is not a combat notification", op)
	}
	ev := AttackEvent{Action: action}

	r := packet.NewReader(payload)
	var err error
	switch action {
	case AttackStart:
		if ev.Attacker, err = r.ReadUint64(); err != nil {
			return ev, fmt.Errorf("attacker guid: %w", err)
		}
		if ev.Target, err = r.ReadUint64(); err != nil {
			return ev, fmt.Errorf("target guid: %w", err)
		}
	case AttackStop:
		if ev.Attacker, err = readPackedGUID(r); err != nil {
			return ev, fmt.Errorf("attacker guid: %w", err)
		}
		if ev.Target, err = readPackedGUID(r); err != nil {
			return ev, fmt.Errorf("target guid: %w", err)
		}
	}
	return ev, nil
}

// readPackedGUID reads a mask byte followed by one byte per set mask bit.
func readPackedGUID(r *packet.Reader) (uint64, error) {
	mask, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	var guid uint64
	for i := range 8 {
		if mask&(1<<i) == 0 {
			continue
		}
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		guid |= uint64(b) << (8 * i)
	}
	return guid, nil
}
