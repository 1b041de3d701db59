package script

import "errors"

var (
	// ErrStateClosed is returned for operations on a closed Lua state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrNotFunction is returned when calling a global that is missing
	// or not a function.
	ErrNotFunction = errors.New("global is not a function")
)
