package plugin

import "errors"

// Plugin system errors.
var (
	// ErrPluginNotFound is returned when a plugin cannot be located.
	ErrPluginNotFound = errors.New("plugin not found")

	// ErrNoEntryPoint is returned when a plugin directory has neither a
	// manifest nor an init.lua.
	ErrNoEntryPoint = errors.New("plugin has no entry point")

	// ErrNilManifest is returned when a nil manifest is provided.
	ErrNilManifest = errors.New("manifest is nil")

	// ErrAlreadyLoaded is returned when loading a plugin that is already
	// loaded.
	ErrAlreadyLoaded = errors.New("plugin is already loaded")

	// ErrNotLoaded is returned when using a plugin that is not loaded.
	ErrNotLoaded = errors.New("plugin is not loaded")

	// ErrClosed is returned when using a plugin after Close.
	ErrClosed = errors.New("plugin is closed")
)
