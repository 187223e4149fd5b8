package auth

// State is the phase of one authentication attempt.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateRunning
	StateSucceeded
	StateFailed
	StateTimedOut
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateValidating:
		return "Validating"
	case StateRunning:
		return "Running"
	case StateSucceeded:
		return "Succeeded"
	case StateFailed:
		return "Failed"
	case StateTimedOut:
		return "TimedOut"
	case StateCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Terminal reports whether the attempt is over. TimedOut is not terminal: the
// caller still has to pick Retry or Cancel.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed || s == StateCancelled
}

// Observer is notified of every state transition.
type Observer func(State)
