package buffer

import (
	"testing"

	"github.com/dshills/stormhost/internal/text"
)

func TestClassifyWordBoundaries(t *testing.T) {
	b := NewFromString("one two")
	tests := []struct {
		pt   text.Point
		want int
	}{
		{0, ClassWordStart | ClassLineStart},
		{3, ClassWordEnd},
		{4, ClassWordStart},
		{7, ClassWordEnd | ClassLineEnd},
	}
	for _, tt := range tests {
		got := b.Classify(tt.pt)
		if got&tt.want != tt.want {
			t.Errorf("Classify(%d): expected flags %b to be set, got %b", tt.pt, tt.want, got)
		}
	}
	if b.Classify(2)&(ClassWordStart|ClassWordEnd) != 0 {
		t.Error("expected no word boundary inside a word")
	}
}

func TestClassifyPunctuation(t *testing.T) {
	b := NewFromString("a.b")
	if got := b.Classify(1); got&ClassPunctuationStart == 0 || got&ClassWordEnd == 0 {
		t.Errorf("expected punctuation start and word end at 1, got %b", got)
	}
	if got := b.Classify(2); got&ClassPunctuationEnd == 0 || got&ClassWordStart == 0 {
		t.Errorf("expected punctuation end and word start at 2, got %b", got)
	}
}

func TestClassifyEmptyLine(t *testing.T) {
	b := NewFromString("a\n\nb")
	got := b.Classify(2)
	want := ClassEmptyLine | ClassLineStart | ClassLineEnd
	if got&want != want {
		t.Errorf("expected empty line flags, got %b", got)
	}
}

func TestClassifySubWords(t *testing.T) {
	b := NewFromString("fooBar baz_qux")
	if got := b.Classify(3); got&ClassSubWordStart == 0 || got&ClassSubWordEnd == 0 {
		t.Errorf("expected camel case boundary at 3, got %b", got)
	}
	if got := b.Classify(10); got&ClassSubWordEnd == 0 {
		t.Errorf("expected sub-word end before underscore, got %b", got)
	}
	if got := b.Classify(11); got&ClassSubWordStart == 0 {
		t.Errorf("expected sub-word start after underscore, got %b", got)
	}
}

func TestClassifyWithCustomSeparators(t *testing.T) {
	b := NewFromString("a-b")
	// Default separators treat '-' as punctuation.
	if got := b.Classify(1); got&ClassPunctuationStart == 0 {
		t.Errorf("expected punctuation start with defaults, got %b", got)
	}
	// Without '-' in the set, "a-b" is one word.
	if got := b.ClassifyWith(1, "."); got&(ClassWordStart|ClassWordEnd|ClassPunctuationStart) != 0 {
		t.Errorf("expected no boundary with custom separators, got %b", got)
	}
}

func TestWord(t *testing.T) {
	b := NewFromString("one two.three")
	tests := []struct {
		name string
		pt   text.Point
		want text.Region
	}{
		{"inside word", 1, text.NewRegion(0, 3)},
		{"start of word", 4, text.NewRegion(4, 7)},
		{"end of word", 3, text.NewRegion(0, 3)},
		{"inside second word", 5, text.NewRegion(4, 7)},
		{"punctuation", 7, text.NewRegion(7, 8)},
		{"after punctuation", 8, text.NewRegion(8, 13)},
	}
	for _, tt := range tests {
		if got := b.Word(tt.pt); !got.Equal(tt.want) {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, got)
		}
	}
}

func TestWordDoesNotCrossLines(t *testing.T) {
	b := NewFromString("one\ntwo")
	if got := b.Word(4); !got.Equal(text.NewRegion(4, 7)) {
		t.Errorf("expected [4,7), got %v", got)
	}
	if got := b.Word(3); !got.Equal(text.NewRegion(0, 3)) {
		t.Errorf("expected the word before the newline, got %v", got)
	}
}

func TestWordOnWhitespace(t *testing.T) {
	b := NewFromString("   ")
	if got := b.Word(1); !got.Empty() {
		t.Errorf("expected an empty region on whitespace, got %v", got)
	}
}

func TestFindByClass(t *testing.T) {
	b := NewFromString("one two three")
	if got := b.FindByClass(0, true, ClassWordStart, ""); got != 4 {
		t.Errorf("expected next word start at 4, got %d", got)
	}
	if got := b.FindByClass(8, false, ClassWordStart, ""); got != 4 {
		t.Errorf("expected previous word start at 4, got %d", got)
	}
	// Scanning past the last match stops at the buffer edge.
	if got := b.FindByClass(8, true, ClassWordStart, ""); got != 13 {
		t.Errorf("expected scan to stop at the end, got %d", got)
	}
	if got := b.FindByClass(2, false, ClassPunctuationStart, ""); got != 0 {
		t.Errorf("expected scan to stop at the start, got %d", got)
	}
}

func TestExpandByClass(t *testing.T) {
	b := NewFromString("one two three")
	got := b.ExpandByClass(text.NewRegion(5, 6), ClassWordStart|ClassWordEnd, "")
	if !got.Equal(text.NewRegion(4, 7)) {
		t.Errorf("expected [4,7), got %v", got)
	}
}
