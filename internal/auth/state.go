package auth

// ClientState represents the login handshake state machine.
type ClientState int

const (
	StateIdle ClientState = iota
	StateChallengeSent
	StateProofSent
	StateAuthenticated
	StateFailed
)

func (s ClientState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateChallengeSent:
		return "CHALLENGE_SENT"
	case StateProofSent:
		return "PROOF_SENT"
	case StateAuthenticated:
		return "AUTHENTICATED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}
