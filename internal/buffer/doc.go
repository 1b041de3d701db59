// Package buffer implements the text store backing every view: a byte
// buffer with a line index, a change counter and the text queries the
// plugin surface exposes (substr, line lookup, word classification and
// regexp search).
//
// Points and columns count bytes. Read operations clamp positions into
// range; mutating operations validate them and return ErrOutOfRange, so a
// script working from stale coordinates gets an error instead of silently
// corrupting text elsewhere.
package buffer
