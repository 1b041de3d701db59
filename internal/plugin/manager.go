package plugin

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dshills/stormhost/internal/host"
)

// Manager owns every loaded plugin for one host: discovery through the
// loader, load order, and teardown in reverse.
type Manager struct {
	host     *host.Host
	loader   *Loader
	instOpts []InstanceOption

	mu        sync.Mutex
	plugins   map[string]*Instance
	loadOrder []string
}

// NewManager creates a manager loading plugins into h. The instance
// options apply to every plugin it loads. A nil loader means the
// default search paths.
func NewManager(h *host.Host, loader *Loader, opts ...InstanceOption) *Manager {
	if loader == nil {
		loader = NewLoader()
	}
	return &Manager{
		host:     h,
		loader:   loader,
		instOpts: opts,
		plugins:  make(map[string]*Instance),
	}
}

// Loader returns the underlying loader.
func (m *Manager) Loader() *Loader {
	return m.loader
}

// Load finds, loads and activates one plugin. On activation failure
// the instance stays registered in the failed state and the error is
// returned alongside it.
func (m *Manager) Load(name string) (*Instance, error) {
	m.mu.Lock()
	if _, exists := m.plugins[name]; exists {
		m.mu.Unlock()
		return nil, fmt.Errorf("plugin %q: %w", name, ErrAlreadyLoaded)
	}
	m.mu.Unlock()

	info, err := m.loader.Find(name)
	if err != nil {
		return nil, err
	}
	if info.Err != nil {
		return nil, fmt.Errorf("plugin %q: %w", name, info.Err)
	}

	inst, err := NewInstance(m.host, info.Manifest, m.instOpts...)
	if err != nil {
		return nil, err
	}
	if err := inst.Load(); err != nil {
		return nil, err
	}

	// The manifest name is authoritative; it can differ from the
	// directory name the caller asked for.
	m.mu.Lock()
	if _, exists := m.plugins[inst.Name()]; exists {
		m.mu.Unlock()
		inst.Close()
		return nil, fmt.Errorf("plugin %q: %w", inst.Name(), ErrAlreadyLoaded)
	}
	m.plugins[inst.Name()] = inst
	m.loadOrder = append(m.loadOrder, inst.Name())
	m.mu.Unlock()

	if err := inst.Activate(); err != nil {
		return inst, err
	}
	return inst, nil
}

// LoadAll loads every discovered plugin. Per-plugin failures do not
// stop the rest; they come back joined.
func (m *Manager) LoadAll() error {
	var errs []error
	for _, info := range m.loader.Discover() {
		if info.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", info.Name, info.Err))
			continue
		}
		if _, err := m.Load(info.Name); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", info.Name, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%d plugins failed: %w", len(errs), errors.Join(errs...))
	}
	return nil
}

// Unload closes a loaded plugin and forgets it.
func (m *Manager) Unload(name string) error {
	m.mu.Lock()
	inst, exists := m.plugins[name]
	if !exists {
		m.mu.Unlock()
		return fmt.Errorf("plugin %q: %w", name, ErrPluginNotFound)
	}
	delete(m.plugins, name)
	m.removeFromLoadOrder(name)
	m.mu.Unlock()

	inst.Close()
	return nil
}

// UnloadAll closes every plugin in reverse load order.
func (m *Manager) UnloadAll() {
	m.mu.Lock()
	names := make([]string, len(m.loadOrder))
	for i, name := range m.loadOrder {
		names[len(m.loadOrder)-1-i] = name
	}
	m.mu.Unlock()

	for _, name := range names {
		_ = m.Unload(name)
	}
}

// Get returns a loaded plugin by name.
func (m *Manager) Get(name string) (*Instance, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inst, exists := m.plugins[name]
	return inst, exists
}

// List returns every loaded plugin in load order.
func (m *Manager) List() []*Instance {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*Instance, 0, len(m.loadOrder))
	for _, name := range m.loadOrder {
		if inst, exists := m.plugins[name]; exists {
			result = append(result, inst)
		}
	}
	return result
}

// Count returns the number of loaded plugins.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.plugins)
}

// Errors returns the failure cause of every plugin in the failed
// state, keyed by name.
func (m *Manager) Errors() map[string]error {
	m.mu.Lock()
	insts := make(map[string]*Instance, len(m.plugins))
	for name, inst := range m.plugins {
		insts[name] = inst
	}
	m.mu.Unlock()

	errs := make(map[string]error)
	for name, inst := range insts {
		if inst.State() == StateFailed && inst.Err() != nil {
			errs[name] = inst.Err()
		}
	}
	return errs
}

// removeFromLoadOrder drops a name from the load order. Callers hold
// m.mu.
func (m *Manager) removeFromLoadOrder(name string) {
	for i, n := range m.loadOrder {
		if n == name {
			m.loadOrder = append(m.loadOrder[:i], m.loadOrder[i+1:]...)
			return
		}
	}
}
