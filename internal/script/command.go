package script

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/stormhost/internal/host"
)

// Lua-backed commands. Plugins contribute commands whose handlers are
// Lua globals; the adapters here let the command registry dispatch into
// a script state. Dispatch happens on the host loop, where the state is
// confined, so an adapter never runs concurrently with other script
// work in the same state.

// NewTextCommand adapts the named Lua global into a text command. The
// handler is called as fn(view_id, edit, args); the edit token crosses
// as userdata and can be handed straight to storm.view mutations.
func NewTextCommand(st *State, fn string) host.TextCommand {
	return host.TextCommandFunc(func(v *host.View, e *host.Edit, args map[string]any) error {
		st.mu.Lock()
		if st.closed {
			st.mu.Unlock()
			return ErrStateClosed
		}
		ud := st.L.NewUserData()
		ud.Value = e
		argv := []lua.LValue{lua.LNumber(v.ID()), ud, toLua(st.L, args)}
		st.mu.Unlock()
		_, err := st.Call(fn, argv...)
		return err
	})
}

// NewWindowCommand adapts the named Lua global into a window command,
// called as fn(window_id, args).
func NewWindowCommand(st *State, fn string) host.WindowCommand {
	return host.WindowCommandFunc(func(w *host.Window, args map[string]any) error {
		st.mu.Lock()
		if st.closed {
			st.mu.Unlock()
			return ErrStateClosed
		}
		argv := []lua.LValue{lua.LNumber(w.ID()), toLua(st.L, args)}
		st.mu.Unlock()
		_, err := st.Call(fn, argv...)
		return err
	})
}

// NewApplicationCommand adapts the named Lua global into an application
// command, called as fn(args).
func NewApplicationCommand(st *State, fn string) host.ApplicationCommand {
	return host.ApplicationCommandFunc(func(_ *host.Host, args map[string]any) error {
		st.mu.Lock()
		if st.closed {
			st.mu.Unlock()
			return ErrStateClosed
		}
		argv := []lua.LValue{toLua(st.L, args)}
		st.mu.Unlock()
		_, err := st.Call(fn, argv...)
		return err
	})
}
