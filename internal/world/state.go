package world

// SessionState represents the world session handshake state machine.
type SessionState int

const (
	StateIdle SessionState = iota
	StateHandshake
	StateAuthenticated
	StateFailed
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateHandshake:
		return "HANDSHAKE"
	case StateAuthenticated:
		return "AUTHENTICATED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}
