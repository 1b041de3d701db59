package plugin

// State is the lifecycle state of a plugin instance.
type State int

// Plugin states.
const (
	// StateUnloaded - discovered but not loaded.
	StateUnloaded State = iota

	// StateLoaded - main chunk ran, commands registered, setup not yet
	// called.
	StateLoaded

	// StateActive - setup completed, plugin running.
	StateActive

	// StateFailed - loading or setup failed; Err holds the cause.
	StateFailed

	// StateClosed - torn down.
	StateClosed
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoaded:
		return "loaded"
	case StateActive:
		return "active"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// IsUsable reports whether the plugin can serve calls.
func (s State) IsUsable() bool {
	return s == StateLoaded || s == StateActive
}
