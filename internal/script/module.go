package script

import (
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/stormhost/internal/host"
)

// Capability is a permission a plugin must hold to use an API module.
type Capability string

// Available capabilities. Modules with an empty required capability
// are always injected.
const (
	CapabilityWindows     Capability = "windows"
	CapabilityViews       Capability = "views"
	CapabilitySettings    Capability = "settings"
	CapabilityPhantoms    Capability = "phantoms"
	CapabilityCompletions Capability = "completions"
	CapabilityEvents      Capability = "events"
)

// AllCapabilities returns a grant set holding every capability. Used
// for fully trusted scripts such as batch jobs.
func AllCapabilities() map[Capability]bool {
	return map[Capability]bool{
		CapabilityWindows:     true,
		CapabilityViews:       true,
		CapabilitySettings:    true,
		CapabilityPhantoms:    true,
		CapabilityCompletions: true,
		CapabilityEvents:      true,
	}
}

// Module is one facet of the storm namespace.
type Module interface {
	// Name returns the facet name, e.g. "view" for storm.view.
	Name() string

	// RequiredCapability returns the capability needed to use the
	// module, or empty when it is always available.
	RequiredCapability() Capability

	// Register installs the module functions into the Lua state under
	// the _storm_<name> global. The loader collects them afterwards.
	Register(L *lua.LState) error
}

// Context gives API modules access to the host and records everything
// a script acquires, so closing the script releases it all.
type Context struct {
	host *host.Host

	mu        sync.Mutex
	closed    bool
	subs      map[int64]*host.Subscription
	nextSub   int64
	providers []int64
	listeners map[int64][]string
	sets      map[int64]*host.PhantomSet
	nextSet   int64
	onError   func(error)
}

// NewContext creates a script context bound to the host. Callback
// errors surface through the frontend's error dialog until
// OnCallbackError installs a different reporter.
func NewContext(h *host.Host) *Context {
	c := &Context{
		host:      h,
		subs:      make(map[int64]*host.Subscription),
		listeners: make(map[int64][]string),
		sets:      make(map[int64]*host.PhantomSet),
	}
	c.onError = func(err error) {
		h.Frontend().ErrorDialog(err.Error())
	}
	return c
}

// Host returns the bound host.
func (c *Context) Host() *host.Host {
	return c.host
}

// OnCallbackError replaces the reporter for errors raised inside Lua
// callbacks, which have no caller to return to.
func (c *Context) OnCallbackError(fn func(error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if fn != nil {
		c.onError = fn
	}
}

func (c *Context) reportError(err error) {
	c.mu.Lock()
	fn := c.onError
	c.mu.Unlock()
	fn(err)
}

// invoke calls a Lua function immediately. Used for callbacks that the
// host consumes synchronously, such as completion providers.
func (c *Context) invoke(L *lua.LState, fn *lua.LFunction, args ...lua.LValue) []lua.LValue {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	base := L.GetTop()
	L.Push(fn)
	for _, a := range args {
		L.Push(a)
	}
	if err := L.PCall(len(args), lua.MultRet, nil); err != nil {
		c.reportError(err)
		return nil
	}
	n := L.GetTop() - base
	if n <= 0 {
		return nil
	}
	results := make([]lua.LValue, n)
	for i := range results {
		results[i] = L.Get(base + i + 1)
	}
	L.Pop(n)
	return results
}

// post schedules a Lua function onto the host loop. Fire-later
// callbacks (timers, listeners, panel results) always take this path
// so they never re-enter the interpreter mid-call.
func (c *Context) post(L *lua.LState, fn *lua.LFunction, args ...lua.LValue) {
	c.host.Loop().Post(func() {
		c.invoke(L, fn, args...)
	})
}

func (c *Context) trackSubscription(s *host.Subscription) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextSub++
	c.subs[c.nextSub] = s
	return c.nextSub
}

func (c *Context) takeSubscription(id int64) (*host.Subscription, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.subs[id]
	if ok {
		delete(c.subs, id)
	}
	return s, ok
}

func (c *Context) trackProvider(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.providers = append(c.providers, id)
}

func (c *Context) trackListener(settingsID int64, tag string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners[settingsID] = append(c.listeners[settingsID], tag)
}

func (c *Context) putSet(ps *host.PhantomSet) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextSet++
	c.sets[c.nextSet] = ps
	return c.nextSet
}

func (c *Context) getSet(id int64) (*host.PhantomSet, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ps, ok := c.sets[id]
	return ps, ok
}

func (c *Context) takeSet(id int64) (*host.PhantomSet, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ps, ok := c.sets[id]
	if ok {
		delete(c.sets, id)
	}
	return ps, ok
}

// ReleaseAll tears down everything the script acquired: event
// subscriptions, completion providers, settings listeners and phantom
// sets. Pending posted callbacks become no-ops. Safe to call twice.
func (c *Context) ReleaseAll() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	subs := c.subs
	providers := c.providers
	listeners := c.listeners
	sets := c.sets
	c.subs = nil
	c.providers = nil
	c.listeners = nil
	c.sets = nil
	c.mu.Unlock()

	for _, s := range subs {
		s.Cancel()
	}
	for _, id := range providers {
		c.host.UnregisterCompletionProvider(id)
	}
	for settingsID, tags := range listeners {
		if st, ok := c.host.SettingsByID(settingsID); ok {
			for _, tag := range tags {
				st.ClearOnChange(tag)
			}
		}
	}
	for _, ps := range sets {
		ps.Close()
	}
}

// Modules returns the full storm module set bound to ctx.
func Modules(ctx *Context) []Module {
	return []Module{
		NewHostModule(ctx),
		NewWindowModule(ctx),
		NewViewModule(ctx),
		NewSelectionModule(ctx),
		NewSettingsModule(ctx),
		NewRegionModule(),
		NewPhantomModule(ctx),
		NewCompletionModule(ctx),
		NewEventModule(ctx),
	}
}

// Install registers every granted module into the state and assembles
// the storm namespace so require("storm") works.
func Install(st *State, ctx *Context, granted map[Capability]bool) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.closed {
		return ErrStateClosed
	}

	var names []string
	for _, mod := range Modules(ctx) {
		if req := mod.RequiredCapability(); req != "" && !granted[req] {
			continue
		}
		if err := mod.Register(st.L); err != nil {
			return fmt.Errorf("register storm.%s: %w", mod.Name(), err)
		}
		names = append(names, mod.Name())
	}

	return installLoader(st.L, ctx.host, names)
}

// installLoader collects the _storm_* globals into one table and
// preloads it as the storm module, plus one preload per facet so
// require("storm.view") resolves too.
func installLoader(L *lua.LState, h *host.Host, names []string) error {
	storm := L.NewTable()
	for _, name := range names {
		global := "_storm_" + name
		val := L.GetGlobal(global)
		if val == lua.LNil {
			return fmt.Errorf("module %s did not register %s", name, global)
		}
		L.SetField(storm, name, val)
		L.SetGlobal(global, lua.LNil)
	}

	L.SetField(storm, "version", lua.LString(h.Version()))
	L.SetField(storm, "build", lua.LString(h.Build()))
	L.SetField(storm, "channel", lua.LString(h.Channel()))
	L.SetField(storm, "platform", lua.LString(h.Platform()))
	L.SetField(storm, "arch", lua.LString(h.Arch()))
	L.SetField(storm, "api_version", lua.LNumber(1))

	L.PreloadModule("storm", func(L *lua.LState) int {
		L.Push(storm)
		return 1
	})
	for _, name := range names {
		sub := L.GetField(storm, name)
		L.PreloadModule("storm."+name, func(L *lua.LState) int {
			L.Push(sub)
			return 1
		})
	}
	return nil
}
