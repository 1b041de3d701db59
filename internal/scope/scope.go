// Package scope implements matching and scoring of scope selectors against
// scope names.
//
// A scope name is a space-separated list of elements, each element a
// dot-separated list of atoms, outermost element first: "text.plain
// meta.block.log". A selector is one or more alternatives separated by
// commas. Each alternative is a space-separated list of element patterns,
// optionally followed by " - pattern" exclusions. An element pattern matches
// a scope element when its atoms are a prefix of the element's atoms.
//
// Scoring convention: a matched alternative scores the sum, over its
// patterns, of elementIndex*64 + atomCount, where elementIndex is the
// 0-based index of the matched scope element. Deeper matches therefore
// always outscore shallower ones, and more specific patterns outscore less
// specific ones at the same depth. The empty selector matches every scope
// with score 1. A score of 0 means no match.
package scope

import "strings"

// Score returns the match score of selector against scopeName, or 0 when
// the selector does not match. When the selector has comma alternatives the
// best-scoring alternative wins.
func Score(scopeName, selector string) int {
	selector = strings.TrimSpace(selector)
	if selector == "" {
		return 1
	}

	elements := splitElements(scopeName)
	best := 0
	for _, alt := range strings.Split(selector, ",") {
		if s := scoreAlternative(elements, alt); s > best {
			best = s
		}
	}
	return best
}

// Matches returns true if selector matches scopeName.
func Matches(scopeName, selector string) bool {
	return Score(scopeName, selector) > 0
}

// scoreAlternative scores a single comma-free alternative, or returns 0.
func scoreAlternative(elements [][]string, alt string) int {
	positive, exclusions := splitExclusions(alt)
	if positive == "" {
		return 0
	}
	for _, excl := range exclusions {
		if matchPatterns(elements, strings.Fields(excl)) > 0 {
			return 0
		}
	}
	return matchPatterns(elements, strings.Fields(positive))
}

// matchPatterns matches the pattern sequence against the scope elements in
// order, each pattern binding to a strictly later element than the previous
// one. Returns the score, or 0 when the sequence cannot be placed.
func matchPatterns(elements [][]string, patterns []string) int {
	if len(patterns) == 0 {
		return 0
	}
	score := 0
	next := 0
	for _, pat := range patterns {
		atoms := strings.Split(pat, ".")
		found := -1
		for i := next; i < len(elements); i++ {
			if atomsPrefix(atoms, elements[i]) {
				found = i
				break
			}
		}
		if found < 0 {
			return 0
		}
		score += found*64 + len(atoms)
		next = found + 1
	}
	return score
}

// atomsPrefix returns true if pattern atoms are a prefix of element atoms.
func atomsPrefix(pattern, element []string) bool {
	if len(pattern) > len(element) {
		return false
	}
	for i, a := range pattern {
		if element[i] != a {
			return false
		}
	}
	return true
}

// splitElements breaks a scope name into its elements' atom lists.
func splitElements(scopeName string) [][]string {
	fields := strings.Fields(scopeName)
	elements := make([][]string, len(fields))
	for i, f := range fields {
		elements[i] = strings.Split(f, ".")
	}
	return elements
}

// splitExclusions splits an alternative into its positive part and any
// " - " separated exclusion patterns.
func splitExclusions(alt string) (string, []string) {
	parts := strings.Split(alt, " - ")
	positive := strings.TrimSpace(parts[0])
	var exclusions []string
	for _, p := range parts[1:] {
		p = strings.TrimSpace(p)
		if p != "" {
			exclusions = append(exclusions, p)
		}
	}
	return positive, exclusions
}
