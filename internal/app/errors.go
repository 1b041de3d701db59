package app

import "errors"

var (
	// ErrAlreadyRunning is returned when an application is started twice.
	ErrAlreadyRunning = errors.New("application is already running")

	// ErrUnknownFrontend reports a frontend name that is not null,
	// console or term.
	ErrUnknownFrontend = errors.New("unknown frontend")

	// ErrBadWorkerCount reports a non-positive async worker count.
	ErrBadWorkerCount = errors.New("async workers must be positive")

	// ErrEmptyBatch reports a batch file with no steps.
	ErrEmptyBatch = errors.New("batch has no steps")

	// ErrBadStep reports a step that does not describe exactly one
	// action.
	ErrBadStep = errors.New("step must set exactly one of open, insert, command or call")
)

// InitError wraps a failure while assembling one component.
type InitError struct {
	Component string
	Err       error
}

func (e *InitError) Error() string {
	return "init " + e.Component + ": " + e.Err.Error()
}

func (e *InitError) Unwrap() error {
	return e.Err
}
