// Package frontend provides user-facing surfaces for a host session.
//
// Console speaks plain lines over a reader/writer pair, which keeps
// batch runs and tests deterministic. Term drives a tcell terminal with
// an interactive picker and prompt. Embedders that want no surface at
// all use host.NullFrontend, which cancels every request.
package frontend
