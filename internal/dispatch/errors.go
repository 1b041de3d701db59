package dispatch

import "errors"

var (
	// ErrAlreadyRunning is returned when starting a loop twice.
	ErrAlreadyRunning = errors.New("dispatch loop already running")

	// ErrNotRunning is returned when stopping a loop that is not running.
	ErrNotRunning = errors.New("dispatch loop not running")
)
