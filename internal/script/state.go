package script

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"
)

// State wraps a sandboxed gopher-lua runtime.
//
// An LState is not goroutine-safe. The host confines every State to
// its dispatch loop; the mutex here only guards the closed flag and
// direct Go-side access, it does not make concurrent Lua execution
// safe.
type State struct {
	L *lua.LState

	mu     sync.Mutex
	out    io.Writer
	closed bool
}

// StateOption configures a State.
type StateOption func(*State)

// WithOutput redirects the script's print output.
func WithOutput(w io.Writer) StateOption {
	return func(s *State) {
		s.out = w
	}
}

// NewState creates a sandboxed Lua state. Only the base, package,
// table, string, math and a stripped os library are opened.
func NewState(opts ...StateOption) (*State, error) {
	s := &State{out: os.Stdout}
	for _, opt := range opts {
		opt(s)
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	s.L = L

	openLibraries(L)
	s.redirectPrint()
	sandbox(L)

	return s, nil
}

// openLibraries opens the safe standard libraries. The package library
// must come first so require and package.preload exist for the rest.
func openLibraries(L *lua.LState) {
	lua.OpenPackage(L)
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	// io is never opened. os is opened for its time functions and
	// stripped below.
	lua.OpenOs(L)
}

// sandbox removes the escape hatches from the opened libraries.
func sandbox(L *lua.LState) {
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		L.SetGlobal(name, lua.LNil)
	}

	// Keep the real clock and calendar functions, drop everything
	// that touches the process or the filesystem.
	if osMod, ok := L.GetGlobal("os").(*lua.LTable); ok {
		for _, name := range []string{"execute", "exit", "getenv", "remove", "rename", "setlocale", "tmpname"} {
			osMod.RawSetString(name, lua.LNil)
		}
	}

	restrictRequire(L)
}

// requireWhitelist lists the built-in modules scripts may require.
// The storm namespace is preloaded separately by Install.
var requireWhitelist = map[string]bool{
	"string": true,
	"table":  true,
	"math":   true,
	"os":     true,
}

// restrictRequire clears the module search paths and replaces require
// with a whitelist version. Only whitelisted built-ins and modules
// preloaded through package.preload resolve; everything else raises.
func restrictRequire(L *lua.LState) {
	if pkg, ok := L.GetGlobal("package").(*lua.LTable); ok {
		pkg.RawSetString("path", lua.LString(""))
		pkg.RawSetString("cpath", lua.LString(""))
	}

	original := L.GetGlobal("require")
	L.SetGlobal("require", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		if !requireWhitelist[name] && name != "storm" && !strings.HasPrefix(name, "storm.") {
			L.RaiseError("module %q is not available", name)
			return 0
		}
		L.Push(original)
		L.Push(lua.LString(name))
		L.Call(1, 1)
		return 1
	}))
}

// redirectPrint replaces print so script output lands on the
// configured writer instead of process stdout.
func (s *State) redirectPrint() {
	s.L.SetGlobal("print", s.L.NewFunction(func(L *lua.LState) int {
		top := L.GetTop()
		parts := make([]string, top)
		for i := 1; i <= top; i++ {
			parts[i-1] = L.ToStringMeta(L.Get(i)).String()
		}
		fmt.Fprintln(s.out, strings.Join(parts, "\t"))
		return 0
	}))
}

// DoString executes a chunk of Lua source.
func (s *State) DoString(code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStateClosed
	}
	return s.protect(func() error { return s.L.DoString(code) })
}

// DoFile executes a Lua file.
func (s *State) DoFile(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStateClosed
	}
	return s.protect(func() error { return s.L.DoFile(path) })
}

// protect converts a runtime panic out of gopher-lua into an error.
func (s *State) protect(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}

// Global returns the value of a global variable.
func (s *State) Global(name string) lua.LValue {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return lua.LNil
	}
	return s.L.GetGlobal(name)
}

// SetGlobal sets a global variable.
func (s *State) SetGlobal(name string, v lua.LValue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.L.SetGlobal(name, v)
}

// HasFunction reports whether a callable global with the given name
// exists.
func (s *State) HasFunction(name string) bool {
	return s.Global(name).Type() == lua.LTFunction
}

// Call invokes a global Lua function with raw Lua values.
func (s *State) Call(name string, args ...lua.LValue) ([]lua.LValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStateClosed
	}

	fn := s.L.GetGlobal(name)
	if fn.Type() != lua.LTFunction {
		return nil, fmt.Errorf("%w: %s", ErrNotFunction, name)
	}

	base := s.L.GetTop()
	s.L.Push(fn)
	for _, arg := range args {
		s.L.Push(arg)
	}

	err := s.protect(func() error { return s.L.PCall(len(args), lua.MultRet, nil) })
	if err != nil {
		return nil, err
	}

	n := s.L.GetTop() - base
	if n <= 0 {
		return []lua.LValue{}, nil
	}
	results := make([]lua.LValue, n)
	for i := range results {
		results[i] = s.L.Get(base + i + 1)
	}
	s.L.Pop(n)
	return results, nil
}

// CallGlobal invokes a global Lua function with Go values, converting
// arguments and results through the value bridge.
func (s *State) CallGlobal(name string, args ...any) ([]any, error) {
	lvs := make([]lua.LValue, len(args))

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrStateClosed
	}
	for i, arg := range args {
		lvs[i] = toLua(s.L, arg)
	}
	s.mu.Unlock()

	results, err := s.Call(name, lvs...)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(results))
	for i, lv := range results {
		out[i] = toGo(lv)
	}
	return out, nil
}

// IsClosed reports whether Close has been called.
func (s *State) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close releases the Lua runtime. Safe to call twice.
func (s *State) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.L.Close()
}
