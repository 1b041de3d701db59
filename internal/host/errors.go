package host

import (
	"errors"
	"fmt"
)

// Stale-handle errors are recoverable. A caller holding a handle across a
// suspension point (a dialog, a panel callback) checks IsValid or handles
// these errors before acting again.
var (
	// ErrStaleWindow is returned for operations on a closed window.
	ErrStaleWindow = errors.New("window handle is stale")

	// ErrStaleView is returned for operations on a closed view.
	ErrStaleView = errors.New("view handle is stale")

	// ErrStaleSheet is returned for operations on a closed sheet.
	ErrStaleSheet = errors.New("sheet handle is stale")

	// ErrNotEditing is returned when a buffer mutation runs without the
	// view's open edit session. It signals a caller bug, but mutations
	// report it as an ordinary error so scripts can surface it.
	ErrNotEditing = errors.New("buffer mutation outside an edit session")

	// ErrReadOnly is returned when mutating a read-only view.
	ErrReadOnly = errors.New("view is read-only")

	// ErrUnknownCommand is returned when running a command name nothing
	// has registered.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrOutOfSelection is returned when indexing past the end of a
	// selection.
	ErrOutOfSelection = errors.New("selection index out of range")

	// ErrPhantomSetClosed is returned when updating a closed phantom set.
	ErrPhantomSetClosed = errors.New("phantom set is closed")

	// ErrNoPanel is returned when showing an output panel that was never
	// created.
	ErrNoPanel = errors.New("no such output panel")
)

// UsageError reports a sequencing bug in caller code, such as ending an
// edit session that was never begun. It is raised by panic and is not
// meant to be recovered.
type UsageError struct {
	Op     string
	Detail string
}

// Error returns the error message.
func (e *UsageError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("usage error in %s", e.Op)
	}
	return fmt.Sprintf("usage error in %s: %s", e.Op, e.Detail)
}

// usagePanic raises a UsageError.
func usagePanic(op, detail string) {
	panic(&UsageError{Op: op, Detail: detail})
}
