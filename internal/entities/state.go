package entities

// ConnectionState is the lifecycle state of the single outbound WhatsApp session.
// Exactly one value is live per process; transitions are monotonic within a
// connection attempt, except the silent resume path from persisted credentials
// which skips QRPending.
type ConnectionState int

const (
	StateUninitialized ConnectionState = iota
	StateQRPending
	StateAuthenticating
	StateAuthenticated
	StateClosedRecoverable
	StateClosedTerminal
)

func (s ConnectionState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateQRPending:
		return "qr_pending"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateClosedRecoverable:
		return "closed_recoverable"
	case StateClosedTerminal:
		return "closed_terminal"
	default:
		return "unknown"
	}
}
