package server

// State is the lifecycle state of a Manager.
type State int

// Lifecycle states.
const (
	StateUninitialized State = iota
	StateBuilt
	StateStarting
	StateListening
	StateResetRequested
	StateResetInProgress
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateBuilt:
		return "built"
	case StateStarting:
		return "starting"
	case StateListening:
		return "listening"
	case StateResetRequested:
		return "reset-requested"
	case StateResetInProgress:
		return "reset-in-progress"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}
