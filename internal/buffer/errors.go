package buffer

import "errors"

// ErrOutOfRange is returned by mutating operations when a position or
// region does not lie within the buffer.
var ErrOutOfRange = errors.New("position out of range")
