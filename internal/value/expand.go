package value

import (
	"regexp"
	"strings"
)

// variablePattern matches an escaped dollar, a braced reference or a bare
// word reference, in that order.
var variablePattern = regexp.MustCompile(`\\\$|\$\{[A-Za-z0-9_]+\}|\$[A-Za-z0-9_]+`)

// ExpandVariables substitutes $name and ${name} references in every string
// of v using the supplied variables. A reference whose name is not present
// stays literal, and \$ escapes a dollar sign. Containers are walked
// recursively; map keys are never expanded.
func ExpandVariables(v any, variables map[string]string) any {
	switch val := Normalize(v).(type) {
	case string:
		return expandString(val, variables)
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = ExpandVariables(e, variables)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = ExpandVariables(e, variables)
		}
		return out
	default:
		return val
	}
}

func expandString(s string, variables map[string]string) string {
	if !strings.Contains(s, "$") {
		return s
	}
	return variablePattern.ReplaceAllStringFunc(s, func(tok string) string {
		if tok == `\$` {
			return "$"
		}
		var name string
		if strings.HasPrefix(tok, "${") {
			name = tok[2 : len(tok)-1]
		} else {
			name = tok[1:]
		}
		if repl, ok := variables[name]; ok {
			return repl
		}
		return tok
	})
}
