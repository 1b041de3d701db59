// Package dispatch provides the cooperative execution model for the host.
//
// A Loop runs queued tasks one at a time on a single goroutine, the main
// sequence. Everything that touches host state runs there, so host and
// plugin code never needs its own locking. Work that must not block the
// main sequence goes through RunAsync onto a small worker pool; such
// tasks hand results back by posting onto the loop again.
//
// Posting to a stopped loop is a silent no-op. A plugin firing a late
// timer during shutdown gets dropped instead of crashing the host.
package dispatch
