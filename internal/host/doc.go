// Package host implements the scripting session: windows, views, sheets,
// selections, edit sessions, phantoms, completions, commands and the
// process-level services plugins call (clipboard, resources, dialogs).
//
// A Host owns every entity and hands out handles backed by registry
// lookups. Handles go stale when their entity closes; operations on a
// stale handle fail with a recoverable error rather than silently doing
// nothing, and identifiers are never reused within a session. All host
// state is confined to the dispatch loop, so methods here expect to run
// on it and never take out long-lived locks of their own.
package host
