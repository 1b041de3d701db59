package scope

import "testing"

func TestMatchesPrefix(t *testing.T) {
	cases := []struct {
		scope, selector string
		want            bool
	}{
		{"text.plain", "text", true},
		{"text.plain", "text.plain", true},
		{"text.plain", "text.plain.log", false},
		{"text.plain", "source", false},
		{"text.plain meta.block", "meta", true},
		{"text.plain meta.block", "text meta", true},
		{"text.plain meta.block", "meta text", false}, // order matters
		{"source.go meta.function", "source.go meta.function", true},
		// Prefix matching is on atom boundaries, not raw strings.
		{"text.plaintext", "text.plain", false},
	}
	for _, tc := range cases {
		if got := Matches(tc.scope, tc.selector); got != tc.want {
			t.Errorf("Matches(%q, %q) = %v, want %v", tc.scope, tc.selector, got, tc.want)
		}
	}
}

func TestEmptySelectorMatchesEverything(t *testing.T) {
	if got := Score("text.plain meta.block", ""); got != 1 {
		t.Errorf("empty selector should score 1, got %d", got)
	}
	if got := Score("", ""); got != 1 {
		t.Errorf("empty selector should score 1 on empty scope, got %d", got)
	}
}

func TestScoreDepth(t *testing.T) {
	scope := "text.plain meta.block comment.line"
	shallow := Score(scope, "text")
	deep := Score(scope, "comment")
	if deep <= shallow {
		t.Errorf("deeper match should outscore shallower: deep=%d shallow=%d", deep, shallow)
	}
}

func TestScoreSpecificity(t *testing.T) {
	scope := "source.go meta.function"
	loose := Score(scope, "meta")
	tight := Score(scope, "meta.function")
	if tight <= loose {
		t.Errorf("more atoms should outscore fewer at the same depth: tight=%d loose=%d", tight, loose)
	}
}

func TestAlternativesTakeBestScore(t *testing.T) {
	scope := "source.go meta.function"
	alt := Score(scope, "text, meta.function")
	only := Score(scope, "meta.function")
	if alt != only {
		t.Errorf("best alternative should win: got %d, want %d", alt, only)
	}
	if Score(scope, "text, keyword") != 0 {
		t.Error("no matching alternative should score 0")
	}
}

func TestExclusions(t *testing.T) {
	scope := "source.go meta.function comment.block"
	if Matches(scope, "source - comment") {
		t.Error("exclusion should defeat the match")
	}
	if !Matches(scope, "source - keyword") {
		t.Error("non-matching exclusion should not defeat the match")
	}
	if Matches("source.go comment.block", "source - comment - string") {
		t.Error("any matching exclusion should defeat the match")
	}
}

func TestNoMatchScoresZero(t *testing.T) {
	if got := Score("text.plain", "source.go"); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
}
