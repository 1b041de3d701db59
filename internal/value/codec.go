package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/pretty"
)

// Encode serializes v as compact JSON. Integers and floats keep their kind:
// float64(1) encodes as "1.0" so a later Decode restores a float, not an
// integer. NaN and infinities are not representable and return an error.
func Encode(v any) (string, error) {
	prepared, err := prepare(v)
	if err != nil {
		return "", err
	}
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(prepared); err != nil {
		return "", fmt.Errorf("encode value: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// EncodePretty serializes v as indented, human-readable JSON suitable for
// settings files and console output.
func EncodePretty(v any) (string, error) {
	compact, err := Encode(v)
	if err != nil {
		return "", err
	}
	opts := &pretty.Options{Indent: "\t", SortKeys: true}
	out := pretty.PrettyOptions([]byte(compact), opts)
	return strings.TrimSuffix(string(out), "\n"), nil
}

// Decode parses JSON into a canonical value. Numbers without a fractional
// part or exponent become int64, all others float64.
func Decode(s string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode value: %w", err)
	}
	// A second token means trailing garbage after the document.
	if dec.More() {
		return nil, fmt.Errorf("decode value: trailing data after JSON document")
	}
	return fromJSON(raw)
}

// prepare walks a normalized value replacing floats with json.Number so the
// encoder emits a representation that preserves the float kind.
func prepare(v any) (any, error) {
	switch val := Normalize(v).(type) {
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil, fmt.Errorf("encode value: %v is not representable in JSON", val)
		}
		return json.Number(formatFloat(val)), nil
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			p, err := prepare(e)
			if err != nil {
				return nil, err
			}
			out[i] = p
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			p, err := prepare(e)
			if err != nil {
				return nil, err
			}
			out[k] = p
		}
		return out, nil
	default:
		return val, nil
	}
}

// formatFloat renders f with a decimal point or exponent so it cannot be
// mistaken for an integer on the way back in.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func fromJSON(v any) (any, error) {
	switch val := v.(type) {
	case nil, bool, string:
		return val, nil
	case json.Number:
		text := val.String()
		if !strings.ContainsAny(text, ".eE") {
			if i, err := val.Int64(); err == nil {
				return i, nil
			}
		}
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("decode value: bad number %q: %w", text, err)
		}
		return f, nil
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			c, err := fromJSON(e)
			if err != nil {
				return nil, err
			}
			out[i] = c
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			c, err := fromJSON(e)
			if err != nil {
				return nil, err
			}
			out[k] = c
		}
		return out, nil
	default:
		return nil, fmt.Errorf("decode value: unexpected token type %T", v)
	}
}
