package buffer

import (
	"fmt"
	"regexp"

	"github.com/dshills/stormhost/internal/text"
)

// FindFlags adjust how Find and FindAll interpret their pattern.
type FindFlags int

const (
	// FindLiteral treats the pattern as plain text instead of a regexp.
	FindLiteral FindFlags = 1 << iota
	// FindIgnoreCase matches case-insensitively.
	FindIgnoreCase
)

// compilePattern builds the matcher for pattern under flags. In regexp
// mode ^ and $ anchor to line boundaries.
func compilePattern(pattern string, flags FindFlags) (*regexp.Regexp, error) {
	if flags&FindLiteral != 0 {
		pattern = regexp.QuoteMeta(pattern)
	}
	prefix := "(?m)"
	if flags&FindIgnoreCase != 0 {
		prefix = "(?mi)"
	}
	re, err := regexp.Compile(prefix + pattern)
	if err != nil {
		return nil, fmt.Errorf("compile pattern %q: %w", pattern, err)
	}
	return re, nil
}

// Find returns the first match of pattern beginning at or after start. The
// boolean is false when the pattern matches nowhere; the error reports a
// pattern that does not compile. Matching runs over the whole buffer so ^
// and $ keep their real line context.
func (b *Buffer) Find(pattern string, start text.Point, flags FindFlags) (text.Region, bool, error) {
	re, err := compilePattern(pattern, flags)
	if err != nil {
		return text.Region{}, false, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	from := b.clamp(start)
	for _, loc := range re.FindAllStringIndex(b.textLocked(), -1) {
		if loc[0] >= from {
			return text.NewRegion(loc[0], loc[1]), true, nil
		}
	}
	return text.Region{}, false, nil
}

// FindAll returns every non-overlapping match of pattern in order.
func (b *Buffer) FindAll(pattern string, flags FindFlags) ([]text.Region, error) {
	re, err := compilePattern(pattern, flags)
	if err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	locs := re.FindAllStringIndex(b.textLocked(), -1)
	out := make([]text.Region, 0, len(locs))
	for _, loc := range locs {
		out = append(out, text.NewRegion(loc[0], loc[1]))
	}
	return out, nil
}
