package plugin

import (
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/dshills/stormhost/internal/host"
	"github.com/dshills/stormhost/internal/script"
)

// Instance is one loaded plugin: a sandboxed script state carrying the
// storm facets its manifest requests, plus the commands it contributes
// to the host registry. Close tears all of it down.
type Instance struct {
	id       string
	manifest *Manifest
	host     *host.Host
	out      io.Writer
	onError  func(error)

	mu    sync.Mutex
	state State
	err   error
	st    *script.State
	ctx   *script.Context
	cmds  []string
}

// InstanceOption configures an Instance.
type InstanceOption func(*Instance)

// WithOutput redirects the plugin's print output.
func WithOutput(w io.Writer) InstanceOption {
	return func(i *Instance) {
		i.out = w
	}
}

// WithErrorReporter receives errors raised inside the plugin's posted
// callbacks, which have no caller to return to. The default reports
// through the frontend's error dialog.
func WithErrorReporter(fn func(error)) InstanceOption {
	return func(i *Instance) {
		i.onError = fn
	}
}

// NewInstance creates an unloaded instance for the manifest.
func NewInstance(h *host.Host, m *Manifest, opts ...InstanceOption) (*Instance, error) {
	if m == nil {
		return nil, ErrNilManifest
	}
	i := &Instance{
		id:       uuid.NewString(),
		manifest: m,
		host:     h,
		state:    StateUnloaded,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// ID returns the instance identity. Each load gets a fresh one.
func (i *Instance) ID() string {
	return i.id
}

// Name returns the plugin name.
func (i *Instance) Name() string {
	return i.manifest.Name
}

// Manifest returns the plugin manifest.
func (i *Instance) Manifest() *Manifest {
	return i.manifest
}

// State returns the lifecycle state.
func (i *Instance) State() State {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

// Err returns the failure cause, if any.
func (i *Instance) Err() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.err
}

// Commands returns the names of the commands this plugin contributed.
func (i *Instance) Commands() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]string(nil), i.cmds...)
}

// Load creates the script state, installs the granted storm facets,
// ships the manifest's settings defaults, runs the main chunk and
// registers the contributed commands.
func (i *Instance) Load() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	switch i.state {
	case StateUnloaded:
	case StateClosed:
		return ErrClosed
	default:
		return ErrAlreadyLoaded
	}

	var stateOpts []script.StateOption
	if i.out != nil {
		stateOpts = append(stateOpts, script.WithOutput(i.out))
	}
	st, err := script.NewState(stateOpts...)
	if err != nil {
		return i.failLocked(err)
	}
	ctx := script.NewContext(i.host)
	if i.onError != nil {
		ctx.OnCallbackError(i.onError)
	}

	if err := script.Install(st, ctx, i.manifest.Grants()); err != nil {
		st.Close()
		return i.failLocked(err)
	}

	if len(i.manifest.Settings) > 0 {
		if err := i.host.Settings().ApplyDefaults(i.manifest.SettingsName(), i.manifest.Settings); err != nil {
			ctx.ReleaseAll()
			st.Close()
			return i.failLocked(fmt.Errorf("settings defaults: %w", err))
		}
	}

	if err := st.DoFile(i.manifest.MainPath()); err != nil {
		ctx.ReleaseAll()
		st.Close()
		return i.failLocked(fmt.Errorf("load %s: %w", i.manifest.Name, err))
	}

	for _, cmd := range i.manifest.Commands {
		if !st.HasFunction(cmd.Handler) {
			ctx.ReleaseAll()
			st.Close()
			return i.failLocked(fmt.Errorf("command %q: handler %q is not defined", cmd.Name, cmd.Handler))
		}
	}

	registry := i.host.Commands()
	for _, cmd := range i.manifest.Commands {
		switch cmd.Scope {
		case ScopeWindow:
			registry.RegisterWindow(cmd.Name, script.NewWindowCommand(st, cmd.Handler))
		case ScopeApplication:
			registry.RegisterApplication(cmd.Name, script.NewApplicationCommand(st, cmd.Handler))
		default:
			registry.RegisterText(cmd.Name, script.NewTextCommand(st, cmd.Handler))
		}
		i.cmds = append(i.cmds, cmd.Name)
	}

	i.st = st
	i.ctx = ctx
	i.state = StateLoaded
	i.err = nil
	return nil
}

// Activate calls the plugin's optional global setup function.
func (i *Instance) Activate() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	switch i.state {
	case StateLoaded:
	case StateClosed:
		return ErrClosed
	default:
		return ErrNotLoaded
	}

	if i.st.HasFunction("setup") {
		if _, err := i.st.Call("setup"); err != nil {
			i.teardownLocked()
			return i.failLocked(fmt.Errorf("setup %s: %w", i.manifest.Name, err))
		}
	}

	i.state = StateActive
	return nil
}

// failLocked records a failure. Callers hold i.mu and have already torn
// down whatever the plugin had built.
func (i *Instance) failLocked(err error) error {
	i.state = StateFailed
	i.err = err
	return err
}

// teardownLocked unregisters the contributed commands, releases
// everything the plugin acquired and closes its script state. Callers
// hold i.mu.
func (i *Instance) teardownLocked() {
	registry := i.host.Commands()
	for _, name := range i.cmds {
		registry.Unregister(name)
	}
	i.cmds = nil
	if i.ctx != nil {
		i.ctx.ReleaseAll()
		i.ctx = nil
	}
	if i.st != nil {
		i.st.Close()
		i.st = nil
	}
}

// Call invokes a global Lua function in the plugin with Go values.
func (i *Instance) Call(fn string, args ...any) ([]any, error) {
	i.mu.Lock()
	st := i.st
	i.mu.Unlock()
	if st == nil {
		return nil, ErrNotLoaded
	}
	return st.CallGlobal(fn, args...)
}

// HasFunction reports whether the plugin defines the named global
// function.
func (i *Instance) HasFunction(name string) bool {
	i.mu.Lock()
	st := i.st
	i.mu.Unlock()
	return st != nil && st.HasFunction(name)
}

// Close unregisters the contributed commands, releases everything the
// plugin acquired and closes its script state. Safe to call twice.
func (i *Instance) Close() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.state == StateClosed {
		return
	}
	i.teardownLocked()
	i.state = StateClosed
}
