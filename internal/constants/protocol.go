package constants

import "time"

// Vanilla 1.12.1 protocol constants.
//
// These values are dictated by the fixed game-client build and the unversioned
// wire protocol it speaks. They match the original Mangos-era server tables.

// Client build identity
const (
	// ClientBuild is the build number reported in the logon challenge and
	// the world session-auth packet.
	ClientBuild = 5875

	// Version triple reported in the logon challenge.
	VersionMajor = 1
	VersionMinor = 12
	VersionPatch = 1

	// AuthProtocolVersion is the logon-challenge protocol byte.
	AuthProtocolVersion = 0x03
)

// Default server ports
const (
	// DefaultAuthPort is the login server port.
	DefaultAuthPort = 3724

	// DefaultWorldPort is the world server port.
	DefaultWorldPort = 8085
)

// SRP6 material sizes
const (
	// PublicKeySize is the size of client/server SRP6 public keys on the wire.
	PublicKeySize = 32

	// SaltSize is the SRP6 salt size.
	SaltSize = 32

	// ProofSize is the SHA-1 proof size (client proof, server proof, CRC hash).
	ProofSize = 20

	// CRCSaltSize is the CRC salt size in the challenge response.
	CRCSaltSize = 16

	// SessionKeySize is the derived session key size (two interleaved SHA-1 digests).
	SessionKeySize = 40

	// PrivateKeySize is the size of the random SRP6 client private exponent.
	PrivateKeySize = 19
)

// Auth channel message sizes (the auth protocol has no universal length prefix;
// sizes are per-opcode, see the reassembly rules in internal/auth).
const (
	// ChallengeSuccessSize is the full logon-challenge success response,
	// including the opcode byte.
	ChallengeSuccessSize = 119

	// ChallengeErrorSize is the short logon-challenge error response.
	ChallengeErrorSize = 3

	// ProofSuccessSize is the full logon-proof success response.
	ProofSuccessSize = 26

	// ProofErrorSize is the short logon-proof error response.
	ProofErrorSize = 4
)

// World frame layout
const (
	// WorldHeaderSize is the frame header: u32 LE length + u16 LE opcode.
	// This is the portion covered by header encryption.
	WorldHeaderSize = 6

	// WorldLengthSize is the length-prefix size inside the header.
	WorldLengthSize = 4
)

// Timeouts and buffers
const (
	// LoginTimeout bounds login, realm-list and world-connect waits.
	LoginTimeout = 10 * time.Second

	// DefaultConnectTimeout bounds the TCP dial.
	DefaultConnectTimeout = 10 * time.Second

	// DefaultReadBufSize is the per-connection read chunk size.
	DefaultReadBufSize = 4096

	// DefaultSendBufSize is the initial capacity for pooled send buffers.
	DefaultSendBufSize = 512
)
