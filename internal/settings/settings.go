package settings

import (
	"sync"

	"github.com/dshills/stormhost/internal/value"
)

// Settings is a mutable map of dynamic values with an optional parent
// supplying fallbacks. Change listeners fire after a mutation actually
// changes the observable value of some key.
type Settings struct {
	mu        sync.RWMutex
	id        int64
	parent    *Settings
	data      map[string]any
	listeners []listener
}

type listener struct {
	tag string
	fn  func()
}

// New returns an empty settings object with the given identity and
// fallback parent. Identities come from the Registry so the script
// boundary can pass them around as plain integers.
func New(id int64, parent *Settings) *Settings {
	return &Settings{
		id:     id,
		parent: parent,
		data:   make(map[string]any),
	}
}

// ID returns the registry identity of this object.
func (s *Settings) ID() int64 {
	return s.id
}

// Get returns the value for key, consulting the parent chain. The boolean
// is false when no layer defines the key.
func (s *Settings) Get(key string) (any, bool) {
	s.mu.RLock()
	v, ok := s.data[key]
	parent := s.parent
	s.mu.RUnlock()
	if ok {
		return value.Clone(v), true
	}
	if parent != nil {
		return parent.Get(key)
	}
	return nil, false
}

// GetDefault returns the value for key or def when absent.
func (s *Settings) GetDefault(key string, def any) any {
	if v, ok := s.Get(key); ok {
		return v
	}
	return value.Normalize(def)
}

// Has reports whether any layer defines key.
func (s *Settings) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Set stores a value for key in this layer. Listeners fire only when the
// observable value changes.
func (s *Settings) Set(key string, v any) {
	v = value.Normalize(v)
	s.mu.Lock()
	old, had := s.lookupLocked(key)
	s.data[key] = value.Clone(v)
	changed := !had || !value.Equal(old, v)
	fns := s.listenersLocked(changed)
	s.mu.Unlock()
	invoke(fns)
}

// Erase removes key from this layer. A parent may still supply a value
// afterwards; listeners fire whenever the observable value changed.
func (s *Settings) Erase(key string) {
	s.mu.Lock()
	old, had := s.lookupLocked(key)
	_, inLayer := s.data[key]
	delete(s.data, key)
	now, has := s.lookupLocked(key)
	changed := inLayer && (!has || had && !value.Equal(old, now))
	fns := s.listenersLocked(changed)
	s.mu.Unlock()
	invoke(fns)
}

// Update applies every entry of values, then fires listeners once if
// anything changed.
func (s *Settings) Update(values map[string]any) {
	s.mu.Lock()
	changed := false
	for k, v := range values {
		v = value.Normalize(v)
		old, had := s.lookupLocked(k)
		s.data[k] = value.Clone(v)
		if !had || !value.Equal(old, v) {
			changed = true
		}
	}
	fns := s.listenersLocked(changed)
	s.mu.Unlock()
	invoke(fns)
}

// replace swaps the whole layer, firing listeners once when the merged
// view changed. Used by the registry on reload.
func (s *Settings) replace(data map[string]any) {
	s.mu.Lock()
	before := s.mergedLocked()
	s.data = make(map[string]any, len(data))
	for k, v := range data {
		s.data[k] = value.Clone(value.Normalize(v))
	}
	changed := !value.Equal(before, s.mergedLocked())
	fns := s.listenersLocked(changed)
	s.mu.Unlock()
	invoke(fns)
}

// lookupLocked resolves key through the chain without taking this
// object's lock again. Parent locks are still acquired.
func (s *Settings) lookupLocked(key string) (any, bool) {
	if v, ok := s.data[key]; ok {
		return v, true
	}
	if s.parent != nil {
		return s.parent.Get(key)
	}
	return nil, false
}

// ToMap returns a merged snapshot of the chain, nearest layer winning.
func (s *Settings) ToMap() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mergedLocked()
}

func (s *Settings) mergedLocked() map[string]any {
	var out map[string]any
	if s.parent != nil {
		out = s.parent.ToMap()
	} else {
		out = make(map[string]any)
	}
	for k, v := range s.data {
		out[k] = value.Clone(v)
	}
	return out
}

// Layer returns a copy of just this object's own entries.
func (s *Settings) Layer() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any, len(s.data))
	for k, v := range s.data {
		out[k] = value.Clone(v)
	}
	return out
}

// AddOnChange registers fn under tag. Multiple registrations stack and
// fire in registration order.
func (s *Settings) AddOnChange(tag string, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, listener{tag: tag, fn: fn})
}

// ClearOnChange removes every listener registered under tag.
func (s *Settings) ClearOnChange(tag string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.listeners[:0]
	for _, l := range s.listeners {
		if l.tag != tag {
			kept = append(kept, l)
		}
	}
	s.listeners = kept
}

// listenersLocked snapshots the callbacks to fire. Callers hold the lock
// and invoke the result after releasing it.
func (s *Settings) listenersLocked(changed bool) []func() {
	if !changed || len(s.listeners) == 0 {
		return nil
	}
	fns := make([]func(), len(s.listeners))
	for i, l := range s.listeners {
		fns[i] = l.fn
	}
	return fns
}

func invoke(fns []func()) {
	for _, fn := range fns {
		fn()
	}
}

// Typed getters. Each returns def when the key is absent or holds a value
// of the wrong kind.

// Bool returns the boolean at key or def.
func (s *Settings) Bool(key string, def bool) bool {
	if v, ok := s.Get(key); ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the integer at key or def. Whole floats convert.
func (s *Settings) Int(key string, def int64) int64 {
	if v, ok := s.Get(key); ok {
		switch n := v.(type) {
		case int64:
			return n
		case float64:
			if n == float64(int64(n)) {
				return int64(n)
			}
		}
	}
	return def
}

// Float returns the number at key or def. Integers widen.
func (s *Settings) Float(key string, def float64) float64 {
	if v, ok := s.Get(key); ok {
		switch n := v.(type) {
		case float64:
			return n
		case int64:
			return float64(n)
		}
	}
	return def
}

// String returns the string at key or def.
func (s *Settings) String(key, def string) string {
	if v, ok := s.Get(key); ok {
		if str, ok := v.(string); ok {
			return str
		}
	}
	return def
}

// List returns the list at key or nil.
func (s *Settings) List(key string) []any {
	if v, ok := s.Get(key); ok {
		if l, ok := v.([]any); ok {
			return l
		}
	}
	return nil
}

// Map returns the object at key or nil.
func (s *Settings) Map(key string) map[string]any {
	if v, ok := s.Get(key); ok {
		if m, ok := v.(map[string]any); ok {
			return m
		}
	}
	return nil
}

// Strings returns the list at key narrowed to its string members, or def
// when absent.
func (s *Settings) Strings(key string, def []string) []string {
	l := s.List(key)
	if l == nil {
		return def
	}
	out := make([]string, 0, len(l))
	for _, e := range l {
		if str, ok := e.(string); ok {
			out = append(out, str)
		}
	}
	return out
}
