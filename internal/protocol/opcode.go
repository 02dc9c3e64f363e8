package protocol

import "fmt"

// Opcode identifies a protocol message type. The world protocol uses 16-bit
// opcodes; the auth channel uses single-byte opcodes which are widened into
// the same type so both pipelines share one routing key.
type Opcode uint16

// Auth channel opcodes (client↔login server, port 3724).
const (
	AuthLogonChallenge Opcode = 0x00
	AuthLogonProof     Opcode = 0x01
	AuthRealmList      Opcode = 0x10
)

// World opcodes (client↔world server, port 8085). Only the handful the
// transport layer itself needs; everything else is routed opaquely.
const (
	CMSGCharEnum               Opcode = 0x0037
	SMSGCharEnum               Opcode = 0x003B
	SMSGAttackStart            Opcode = 0x0143
	SMSGAttackStop             Opcode = 0x0144
	SMSGAttackSwingNotInRange  Opcode = 0x0145
	SMSGAttackSwingBadFacing   Opcode = 0x0146
	SMSGAttackSwingNotStanding Opcode = 0x0147
	SMSGAttackSwingDeadTarget  Opcode = 0x0148
	SMSGAttackSwingCantAttack  Opcode = 0x0149
	SMSGAuthChallenge          Opcode = 0x01EC
	CMSGAuthSession            Opcode = 0x01ED
	SMSGAuthResponse           Opcode = 0x01EE
)

// Auth result code for a successful step on the auth channel.
const AuthResultSuccess byte = 0x00

// World auth-response result codes.
const (
	// WorldAuthOK is the success code in SMSG_AUTH_RESPONSE.
	WorldAuthOK byte = 0x0C

	// WorldAuthUnknownFailure is reported when the server sends an empty
	// auth response.
	WorldAuthUnknownFailure byte = 0xFF
)

func (o Opcode) String() string {
	return fmt.Sprintf("0x%04X", uint16(o))
}
