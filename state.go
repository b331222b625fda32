package ripple

// State represents the current state of a Store's flush cycle.
type State int32

const (
	// StateIdle indicates no changes are pending and no flush is scheduled.
	StateIdle State = iota

	// StateDirty indicates staged changes are waiting and a flush is
	// scheduled at the end of the current coalescing window.
	StateDirty
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDirty:
		return "dirty"
	default:
		return "unknown"
	}
}
