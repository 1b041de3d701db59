package settings

import "errors"

// ErrNotLoaded is returned when saving or reloading a named settings file
// that was never loaded.
var ErrNotLoaded = errors.New("settings not loaded")
