package buffer

import (
	"sort"
	"sync"

	"github.com/dshills/stormhost/internal/text"
)

// DefaultWordSeparators is the punctuation set used for word motion and
// classification until a view overrides it from settings.
const DefaultWordSeparators = "./\\()\"'-:,.;<>~!@#$%^&*|+=[]{}`~?"

// Buffer is a mutable text store with a line index. All methods are safe
// for concurrent use, though the host serializes mutations through the
// dispatch loop.
type Buffer struct {
	mu          sync.RWMutex
	content     []byte
	lineStarts  []int
	changeCount int64
	separators  string
}

// New returns an empty buffer.
func New() *Buffer {
	return NewFromString("")
}

// NewFromString returns a buffer holding s.
func NewFromString(s string) *Buffer {
	b := &Buffer{
		content:    []byte(s),
		separators: DefaultWordSeparators,
	}
	b.reindex()
	return b
}

// reindex rebuilds the line index. Callers hold the write lock.
func (b *Buffer) reindex() {
	starts := b.lineStarts[:0]
	starts = append(starts, 0)
	for i, c := range b.content {
		if c == '\n' {
			starts = append(starts, i+1)
		}
	}
	b.lineStarts = starts
}

// Size returns the buffer length in bytes.
func (b *Buffer) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.content)
}

// ChangeCount returns a counter that increments on every successful
// mutation. Scripts use it to detect that a buffer moved under them.
func (b *Buffer) ChangeCount() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.changeCount
}

// Content returns the full buffer text.
func (b *Buffer) Content() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return string(b.content)
}

// SetWordSeparators replaces the punctuation set used by Word, Classify
// and the class expansion helpers.
func (b *Buffer) SetWordSeparators(s string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.separators = s
}

// WordSeparators returns the current punctuation set.
func (b *Buffer) WordSeparators() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.separators
}

// clamp bounds pt into [0, len(content)]. Callers hold a lock.
func (b *Buffer) clamp(pt text.Point) text.Point {
	if pt < 0 {
		return 0
	}
	if pt > len(b.content) {
		return len(b.content)
	}
	return pt
}

// Substr returns the text covered by r, clamped to the buffer.
func (b *Buffer) Substr(r text.Region) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	begin := b.clamp(r.Begin())
	end := b.clamp(r.End())
	return string(b.content[begin:end])
}

// SubstrPoint returns the single byte at pt as a string, or "" past the
// end of the buffer.
func (b *Buffer) SubstrPoint(pt text.Point) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if pt < 0 || pt >= len(b.content) {
		return ""
	}
	return string(b.content[pt : pt+1])
}

// rowOf returns the index of the line containing pt. Callers hold a lock
// and pass a clamped point.
func (b *Buffer) rowOf(pt text.Point) int {
	// First line start strictly past pt, minus one.
	i := sort.Search(len(b.lineStarts), func(i int) bool {
		return b.lineStarts[i] > pt
	})
	return i - 1
}

// RowCol converts pt into a zero-based row and byte column, clamping pt
// into the buffer first.
func (b *Buffer) RowCol(pt text.Point) (row, col int) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	pt = b.clamp(pt)
	row = b.rowOf(pt)
	return row, pt - b.lineStarts[row]
}

// TextPoint converts a row and byte column into a point. Out-of-range rows
// clamp to the first or last line, and col clamps to the line's content so
// the result never lands inside a newline.
func (b *Buffer) TextPoint(row, col int) text.Point {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if row < 0 {
		row = 0
	}
	if row >= len(b.lineStarts) {
		row = len(b.lineStarts) - 1
	}
	start := b.lineStarts[row]
	end := b.lineContentEnd(row)
	if col < 0 {
		col = 0
	}
	if start+col > end {
		return end
	}
	return start + col
}

// lineContentEnd returns the offset just past the last content byte of
// row, excluding its newline. Callers hold a lock.
func (b *Buffer) lineContentEnd(row int) int {
	if row+1 < len(b.lineStarts) {
		return b.lineStarts[row+1] - 1
	}
	return len(b.content)
}

// lineFullEnd returns the offset just past row including its newline.
// Callers hold a lock.
func (b *Buffer) lineFullEnd(row int) int {
	if row+1 < len(b.lineStarts) {
		return b.lineStarts[row+1]
	}
	return len(b.content)
}

// Line returns the line containing pt, without its trailing newline.
func (b *Buffer) Line(pt text.Point) text.Region {
	b.mu.RLock()
	defer b.mu.RUnlock()
	row := b.rowOf(b.clamp(pt))
	return text.NewRegion(b.lineStarts[row], b.lineContentEnd(row))
}

// LineRegion expands r to cover every line it touches, without the final
// trailing newline.
func (b *Buffer) LineRegion(r text.Region) text.Region {
	b.mu.RLock()
	defer b.mu.RUnlock()
	first := b.rowOf(b.clamp(r.Begin()))
	last := b.rowOf(b.clamp(r.End()))
	return text.NewRegion(b.lineStarts[first], b.lineContentEnd(last))
}

// FullLine returns the line containing pt including its trailing newline.
func (b *Buffer) FullLine(pt text.Point) text.Region {
	b.mu.RLock()
	defer b.mu.RUnlock()
	row := b.rowOf(b.clamp(pt))
	return text.NewRegion(b.lineStarts[row], b.lineFullEnd(row))
}

// FullLineRegion expands r to cover every line it touches including the
// final trailing newline.
func (b *Buffer) FullLineRegion(r text.Region) text.Region {
	b.mu.RLock()
	defer b.mu.RUnlock()
	first := b.rowOf(b.clamp(r.Begin()))
	last := b.rowOf(b.clamp(r.End()))
	return text.NewRegion(b.lineStarts[first], b.lineFullEnd(last))
}

// Lines returns the content region of every line touched by r, in order.
func (b *Buffer) Lines(r text.Region) []text.Region {
	b.mu.RLock()
	defer b.mu.RUnlock()
	first := b.rowOf(b.clamp(r.Begin()))
	last := b.rowOf(b.clamp(r.End()))
	out := make([]text.Region, 0, last-first+1)
	for row := first; row <= last; row++ {
		out = append(out, text.NewRegion(b.lineStarts[row], b.lineContentEnd(row)))
	}
	return out
}

// SplitByNewlines cuts r at newline boundaries, preserving r's exact
// bounds in the first and last pieces.
func (b *Buffer) SplitByNewlines(r text.Region) []text.Region {
	b.mu.RLock()
	defer b.mu.RUnlock()
	begin := b.clamp(r.Begin())
	end := b.clamp(r.End())
	var out []text.Region
	for begin < end {
		row := b.rowOf(begin)
		stop := b.lineFullEnd(row)
		if stop > end {
			stop = end
		}
		piece := stop
		if content := b.lineContentEnd(row); content < piece {
			piece = content
		}
		if piece < begin {
			piece = begin
		}
		out = append(out, text.NewRegion(begin, piece))
		begin = stop
	}
	if len(out) == 0 {
		out = append(out, text.NewRegion(begin, end))
	}
	return out
}

// Insert places s at pt and returns the number of bytes inserted.
func (b *Buffer) Insert(pt text.Point, s string) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if pt < 0 || pt > len(b.content) {
		return 0, ErrOutOfRange
	}
	if s == "" {
		return 0, nil
	}
	b.splice(pt, pt, s)
	return len(s), nil
}

// Erase removes the text covered by r.
func (b *Buffer) Erase(r text.Region) error {
	return b.Replace(r, "")
}

// Replace substitutes the text covered by r with s.
func (b *Buffer) Replace(r text.Region, s string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	begin, end := r.Begin(), r.End()
	if begin < 0 || end > len(b.content) {
		return ErrOutOfRange
	}
	if begin == end && s == "" {
		return nil
	}
	b.splice(begin, end, s)
	return nil
}

// splice replaces content[begin:end] with s, reindexes and bumps the
// change counter. Callers hold the write lock with validated bounds.
func (b *Buffer) splice(begin, end int, s string) {
	var merged []byte
	merged = append(merged, b.content[:begin]...)
	merged = append(merged, s...)
	merged = append(merged, b.content[end:]...)
	b.content = merged
	b.reindex()
	b.changeCount++
}

// LineCount returns the number of lines. An empty buffer has one line.
func (b *Buffer) LineCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.lineStarts)
}

// textLocked returns the content as a string. Callers hold a lock.
func (b *Buffer) textLocked() string {
	return string(b.content)
}
