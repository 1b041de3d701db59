package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/dshills/stormhost/internal/value"
)

// Registry assigns identities to settings objects and shares named
// settings across callers. A named file loads as two layers: the shipped
// default file underneath, the user file on top.
type Registry struct {
	mu         sync.Mutex
	defaultDir string
	userDir    string
	nextID     int64
	byID       map[int64]*Settings
	named      map[string]*namedEntry
	injected   map[string]map[string]any
}

type namedEntry struct {
	base *Settings
	user *Settings
}

// NewRegistry returns a registry reading defaults from defaultDir and
// user overrides from userDir. Either directory may be empty or missing.
func NewRegistry(defaultDir, userDir string) *Registry {
	return &Registry{
		defaultDir: defaultDir,
		userDir:    userDir,
		byID:       make(map[int64]*Settings),
		named:      make(map[string]*namedEntry),
		injected:   make(map[string]map[string]any),
	}
}

// New creates a fresh unnamed settings object with the given fallback
// parent and registers it for lookup by identity.
func (r *Registry) New(parent *Settings) *Settings {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.newLocked(parent)
}

func (r *Registry) newLocked(parent *Settings) *Settings {
	r.nextID++
	s := New(r.nextID, parent)
	r.byID[s.id] = s
	return s
}

// Find resolves a settings identity. The boolean is false for unknown or
// released identities.
func (r *Registry) Find(id int64) (*Settings, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	return s, ok
}

// Release drops an unnamed settings object from identity lookup. Named
// settings stay registered for the life of the registry.
func (r *Registry) Release(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, entry := range r.named {
		if entry.user.id == id || entry.base.id == id {
			return
		}
	}
	delete(r.byID, id)
}

// Load returns the shared settings object for name, reading its files on
// first use. The same object comes back on every later call. A malformed
// file still yields a usable (possibly empty) object along with the
// error, so callers can log and continue.
func (r *Registry) Load(name string) (*Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.named[name]; ok {
		return entry.user, nil
	}
	base := r.newLocked(nil)
	user := r.newLocked(base)
	entry := &namedEntry{base: base, user: user}
	r.named[name] = entry
	err := r.readLocked(name, entry)
	return user, err
}

// Save writes the user layer of a loaded named settings object to the
// user directory as pretty JSON.
func (r *Registry) Save(name string) error {
	r.mu.Lock()
	entry, ok := r.named[name]
	userDir := r.userDir
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("save %q: %w", name, ErrNotLoaded)
	}
	text, err := value.EncodePretty(entry.user.Layer())
	if err != nil {
		return fmt.Errorf("save %q: %w", name, err)
	}
	if err := os.MkdirAll(userDir, 0o755); err != nil {
		return fmt.Errorf("save %q: %w", name, err)
	}
	path := filepath.Join(userDir, name)
	if err := os.WriteFile(path, []byte(text+"\n"), 0o644); err != nil {
		return fmt.Errorf("save %q: %w", name, err)
	}
	return nil
}

// Reload re-reads a loaded named settings file from disk. Listeners on
// the shared object fire when the merged view changed.
func (r *Registry) Reload(name string) error {
	r.mu.Lock()
	entry, ok := r.named[name]
	injected := r.injectedLocked(name)
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("reload %q: %w", name, ErrNotLoaded)
	}
	return r.readInto(entry, injected, r.defaultDir, r.userDir, name)
}

// ApplyDefaults merges values underneath the on-disk default layer of
// the named settings object. Plugin manifests ship defaults this way:
// the default and user files still win on key collisions, and the
// merge survives reloads.
func (r *Registry) ApplyDefaults(name string, values map[string]any) error {
	r.mu.Lock()
	inj, ok := r.injected[name]
	if !ok {
		inj = make(map[string]any, len(values))
		r.injected[name] = inj
	}
	for k, v := range values {
		inj[k] = value.Clone(value.Normalize(v))
	}
	entry, loaded := r.named[name]
	injected := r.injectedLocked(name)
	r.mu.Unlock()
	if !loaded {
		return nil
	}
	return r.readInto(entry, injected, r.defaultDir, r.userDir, name)
}

// injectedLocked snapshots the injected defaults for name. Callers hold
// the registry lock.
func (r *Registry) injectedLocked(name string) map[string]any {
	inj, ok := r.injected[name]
	if !ok {
		return nil
	}
	out := make(map[string]any, len(inj))
	for k, v := range inj {
		out[k] = value.Clone(v)
	}
	return out
}

// readLocked loads both layers while holding the registry lock.
func (r *Registry) readLocked(name string, entry *namedEntry) error {
	return r.readInto(entry, r.injectedLocked(name), r.defaultDir, r.userDir, name)
}

// readInto loads the default and user files for name into the entry's
// layers, with injected defaults underneath the default file. Missing
// files read as empty.
func (r *Registry) readInto(entry *namedEntry, injected map[string]any, defaultDir, userDir, name string) error {
	var firstErr error
	baseData, err := readSettingsFile(filepath.Join(defaultDir, name))
	if err != nil {
		firstErr = err
	}
	if len(injected) > 0 {
		merged := make(map[string]any, len(injected)+len(baseData))
		for k, v := range injected {
			merged[k] = v
		}
		for k, v := range baseData {
			merged[k] = v
		}
		baseData = merged
	}
	userData, err := readSettingsFile(filepath.Join(userDir, name))
	if err != nil && firstErr == nil {
		firstErr = err
	}
	entry.base.replace(baseData)
	entry.user.replace(userData)
	return firstErr
}

// LoadedNames returns the basenames of every named settings object, for
// the watcher to filter events against.
func (r *Registry) LoadedNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.named))
	for name := range r.named {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dirs returns the default and user directories the registry reads from.
func (r *Registry) Dirs() (defaultDir, userDir string) {
	return r.defaultDir, r.userDir
}

func readSettingsFile(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return map[string]any{}, fmt.Errorf("read settings %s: %w", path, err)
	}
	v, err := value.Decode(string(raw))
	if err != nil {
		return map[string]any{}, fmt.Errorf("parse settings %s: %w", path, err)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return map[string]any{}, fmt.Errorf("parse settings %s: top level is not an object", path)
	}
	return m, nil
}
