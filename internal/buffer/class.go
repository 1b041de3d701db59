package buffer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dshills/stormhost/internal/text"
)

// Classification flags reported by Classify. A point can carry several at
// once, such as a word start that is also a line start.
const (
	ClassWordStart        = 1 << iota // first byte of a word run
	ClassWordEnd                      // just past a word run
	ClassPunctuationStart             // first byte of a punctuation run
	ClassPunctuationEnd               // just past a punctuation run
	ClassSubWordStart                 // camel case or underscore boundary opening a sub-word
	ClassSubWordEnd                   // camel case or underscore boundary closing a sub-word
	ClassLineStart                    // column zero
	ClassLineEnd                      // just before the newline
	ClassEmptyLine                    // the line at the point has no content
)

type charKind int

const (
	kindNone charKind = iota
	kindSpace
	kindWord
	kindPunct
)

func classifyRune(r rune, separators string) charKind {
	switch {
	case unicode.IsSpace(r):
		return kindSpace
	case strings.ContainsRune(separators, r):
		return kindPunct
	default:
		return kindWord
	}
}

// Classify reports the classification flags for pt using the buffer's word
// separators.
func (b *Buffer) Classify(pt text.Point) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.classifyLocked(b.clamp(pt), b.separators)
}

// ClassifyWith is Classify with an explicit separator set. An empty set
// falls back to the buffer's separators.
func (b *Buffer) ClassifyWith(pt text.Point, separators string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if separators == "" {
		separators = b.separators
	}
	return b.classifyLocked(b.clamp(pt), separators)
}

func (b *Buffer) classifyLocked(pt text.Point, separators string) int {
	prev, prevOK := b.runeBefore(pt)
	next, nextOK := b.runeAt(pt)
	prevKind, nextKind := kindSpace, kindSpace
	if prevOK {
		prevKind = classifyRune(prev, separators)
	}
	if nextOK {
		nextKind = classifyRune(next, separators)
	}

	flags := 0
	if prevKind != kindWord && nextKind == kindWord {
		flags |= ClassWordStart
	}
	if prevKind == kindWord && nextKind != kindWord {
		flags |= ClassWordEnd
	}
	if prevKind != kindPunct && nextKind == kindPunct {
		flags |= ClassPunctuationStart
	}
	if prevKind == kindPunct && nextKind != kindPunct {
		flags |= ClassPunctuationEnd
	}
	if prevKind == kindWord && nextKind == kindWord {
		camel := (unicode.IsLower(prev) || unicode.IsDigit(prev)) && unicode.IsUpper(next)
		if camel || (prev == '_' && next != '_') {
			flags |= ClassSubWordStart
		}
		if camel || (next == '_' && prev != '_') {
			flags |= ClassSubWordEnd
		}
	}

	row := b.rowOf(pt)
	start, end := b.lineStarts[row], b.lineContentEnd(row)
	if pt == start {
		flags |= ClassLineStart
	}
	if pt == end {
		flags |= ClassLineEnd
	}
	if start == end {
		flags |= ClassEmptyLine
	}
	return flags
}

// runeBefore decodes the rune ending at pt. Callers hold a lock.
func (b *Buffer) runeBefore(pt text.Point) (rune, bool) {
	if pt <= 0 {
		return 0, false
	}
	r, _ := utf8.DecodeLastRune(b.content[:pt])
	return r, true
}

// runeAt decodes the rune starting at pt. Callers hold a lock.
func (b *Buffer) runeAt(pt text.Point) (rune, bool) {
	if pt >= len(b.content) {
		return 0, false
	}
	r, _ := utf8.DecodeRune(b.content[pt:])
	return r, true
}

// Word returns the run of same-class characters around pt, clipped to the
// line. The character after pt decides the class, falling back to the one
// before it, so a caret at the end of a word still selects that word.
func (b *Buffer) Word(pt text.Point) text.Region {
	b.mu.RLock()
	defer b.mu.RUnlock()
	pt = b.clamp(pt)
	row := b.rowOf(pt)
	lineStart, lineEnd := b.lineStarts[row], b.lineContentEnd(row)
	if pt > lineEnd {
		pt = lineEnd
	}

	kind := kindNone
	if r, ok := b.runeAt(pt); ok && pt < lineEnd {
		kind = classifyRune(r, b.separators)
	}
	if kind == kindNone || kind == kindSpace {
		if r, ok := b.runeBefore(pt); ok && pt > lineStart {
			if k := classifyRune(r, b.separators); k == kindWord || k == kindPunct {
				kind = k
			}
		}
	}
	if kind == kindNone {
		return text.PointRegion(pt)
	}

	begin := pt
	for begin > lineStart {
		r, _ := utf8.DecodeLastRune(b.content[:begin])
		if classifyRune(r, b.separators) != kind {
			break
		}
		begin -= utf8.RuneLen(r)
	}
	end := pt
	for end < lineEnd {
		r, _ := utf8.DecodeRune(b.content[end:])
		if classifyRune(r, b.separators) != kind {
			break
		}
		end += utf8.RuneLen(r)
	}
	return text.NewRegion(begin, end)
}

// FindByClass returns the next point in the given direction whose
// classification matches any flag in classes. The scan always moves at
// least one byte and stops at the buffer edge when nothing matches.
func (b *Buffer) FindByClass(pt text.Point, forward bool, classes int, separators string) text.Point {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if separators == "" {
		separators = b.separators
	}
	pt = b.clamp(pt)
	if forward {
		for pt < len(b.content) {
			pt++
			if b.classifyLocked(pt, separators)&classes != 0 {
				break
			}
		}
		return pt
	}
	for pt > 0 {
		pt--
		if b.classifyLocked(pt, separators)&classes != 0 {
			break
		}
	}
	return pt
}

// ExpandByClass grows r in both directions until each side reaches a point
// whose classification matches any flag in classes. Both sides always move
// at least one byte when the buffer allows it.
func (b *Buffer) ExpandByClass(r text.Region, classes int, separators string) text.Region {
	begin := b.FindByClass(r.Begin(), false, classes, separators)
	end := b.FindByClass(r.End(), true, classes, separators)
	return text.NewRegion(begin, end)
}
