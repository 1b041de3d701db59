// Package value handles the dynamic values that cross the plugin boundary:
// settings entries, command arguments and encoded payloads.
//
// Values are plain Go dynamics built from nil, bool, int64, float64, string,
// []any and map[string]any. Normalize converts foreign numeric and container
// types into that canonical shape; Encode/Decode round-trip canonical values
// through JSON without losing the int/float distinction.
package value

// Normalize converts v into canonical form: integers widen to int64, floats
// to float64, and typed slices/maps become []any / map[string]any. Values
// already canonical are returned as-is; containers are rebuilt only when a
// member changes.
func Normalize(v any) any {
	switch val := v.(type) {
	case nil, bool, int64, float64, string:
		return val
	case int:
		return int64(val)
	case int8:
		return int64(val)
	case int16:
		return int64(val)
	case int32:
		return int64(val)
	case uint:
		return int64(val)
	case uint8:
		return int64(val)
	case uint16:
		return int64(val)
	case uint32:
		return int64(val)
	case uint64:
		return int64(val)
	case float32:
		return float64(val)
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = Normalize(e)
		}
		return out
	case []string:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = e
		}
		return out
	case []int:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = int64(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = Normalize(e)
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = e
		}
		return out
	default:
		return val
	}
}

// Clone returns a deep copy of v in canonical form. Mutating the copy never
// affects the original.
func Clone(v any) any {
	switch val := v.(type) {
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = Clone(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = Clone(e)
		}
		return out
	default:
		return Normalize(val)
	}
}

// CloneMap is Clone for argument maps. A nil map stays nil.
func CloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, e := range m {
		out[k] = Clone(e)
	}
	return out
}

// Equal reports deep equality of two values after normalization. Integers
// and floats are distinct kinds: Equal(int64(1), float64(1)) is false.
func Equal(a, b any) bool {
	return equalCanonical(Normalize(a), Normalize(b))
}

func equalCanonical(a, b any) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case int64:
		bv, ok := b.(int64)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !equalCanonical(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, e := range av {
			be, present := bv[k]
			if !present || !equalCanonical(e, be) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
