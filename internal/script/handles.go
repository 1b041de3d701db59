package script

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/stormhost/internal/host"
	"github.com/dshills/stormhost/internal/settings"
)

// Handle resolvers. Entities cross the Lua boundary as integer ids and
// every call re-resolves through the host registry, so a handle held
// past Close raises a Lua error instead of touching dead state.

func (c *Context) window(L *lua.LState, idx int) *host.Window {
	id := L.CheckInt64(idx)
	w, err := c.host.Window(id)
	if err != nil {
		L.RaiseError("window %d: %v", id, err)
		return nil
	}
	return w
}

func (c *Context) view(L *lua.LState, idx int) *host.View {
	id := L.CheckInt64(idx)
	v, err := c.host.View(id)
	if err != nil {
		L.RaiseError("view %d: %v", id, err)
		return nil
	}
	return v
}

func (c *Context) settingsArg(L *lua.LState, idx int) *settings.Settings {
	id := L.CheckInt64(idx)
	st, ok := c.host.SettingsByID(id)
	if !ok {
		L.RaiseError("settings %d: unknown handle", id)
		return nil
	}
	return st
}

// checkEdit reads an edit session argument produced by view.edit.
func checkEdit(L *lua.LState, idx int) *host.Edit {
	ud := L.CheckUserData(idx)
	e, ok := ud.Value.(*host.Edit)
	if !ok {
		L.ArgError(idx, "edit session expected")
		return nil
	}
	return e
}
