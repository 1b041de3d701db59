package buffer

import (
	"testing"

	"github.com/dshills/stormhost/internal/text"
)

func TestFind(t *testing.T) {
	b := NewFromString("alpha beta alpha")
	r, ok, err := b.Find("alpha", 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok || !r.Equal(text.NewRegion(0, 5)) {
		t.Errorf("expected [0,5), got %v (ok=%v)", r, ok)
	}
	r, ok, err = b.Find("alpha", 1, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok || !r.Equal(text.NewRegion(11, 16)) {
		t.Errorf("expected [11,16), got %v (ok=%v)", r, ok)
	}
}

func TestFindNotFound(t *testing.T) {
	b := NewFromString("alpha")
	_, ok, err := b.Find("gamma", 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected no match")
	}
}

func TestFindRegexp(t *testing.T) {
	b := NewFromString("x1 y22 z333")
	r, ok, err := b.Find(`[a-z]\d+`, 3, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok || !r.Equal(text.NewRegion(3, 6)) {
		t.Errorf("expected [3,6), got %v", r)
	}
}

func TestFindAnchorsAreLineRelative(t *testing.T) {
	b := NewFromString("aa\nbb")
	r, ok, err := b.Find("^bb$", 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok || !r.Equal(text.NewRegion(3, 5)) {
		t.Errorf("expected [3,5), got %v", r)
	}
}

func TestFindLiteral(t *testing.T) {
	b := NewFromString("cost a+b total")
	r, ok, err := b.Find("a+b", 0, FindLiteral)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok || !r.Equal(text.NewRegion(5, 8)) {
		t.Errorf("expected the literal match at [5,8), got %v", r)
	}
}

func TestFindIgnoreCase(t *testing.T) {
	b := NewFromString("Alpha")
	_, ok, err := b.Find("alpha", 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected case-sensitive search to miss")
	}
	r, ok, err := b.Find("alpha", 0, FindIgnoreCase)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok || !r.Equal(text.NewRegion(0, 5)) {
		t.Errorf("expected [0,5), got %v", r)
	}
}

func TestFindBadPattern(t *testing.T) {
	b := NewFromString("abc")
	if _, _, err := b.Find("[", 0, 0); err == nil {
		t.Error("expected an error for a bad pattern")
	}
	// The same pattern is fine as a literal.
	if _, _, err := b.Find("[", 0, FindLiteral); err != nil {
		t.Errorf("unexpected error in literal mode: %v", err)
	}
}

func TestFindAll(t *testing.T) {
	b := NewFromString("ab ab ab")
	got, err := b.FindAll("ab", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []text.Region{
		text.NewRegion(0, 2),
		text.NewRegion(3, 5),
		text.NewRegion(6, 8),
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d matches, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("match %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestFindAllNoMatches(t *testing.T) {
	b := NewFromString("abc")
	got, err := b.FindAll("zz", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no matches, got %v", got)
	}
}
