package script

import (
	lua "github.com/yuin/gopher-lua"
)

// SettingsModule implements storm.settings. Settings objects cross as
// integer handles obtained from storm.view.settings or
// storm.host.load_settings.
type SettingsModule struct {
	ctx *Context
}

// NewSettingsModule creates the storm.settings module.
func NewSettingsModule(ctx *Context) *SettingsModule {
	return &SettingsModule{ctx: ctx}
}

// Name returns the module name.
func (m *SettingsModule) Name() string { return "settings" }

// RequiredCapability returns the capability required for this module.
func (m *SettingsModule) RequiredCapability() Capability { return CapabilitySettings }

// Register registers the module into the Lua state.
func (m *SettingsModule) Register(L *lua.LState) error {
	mod := L.NewTable()

	L.SetField(mod, "get", L.NewFunction(m.get))
	L.SetField(mod, "set", L.NewFunction(m.set))
	L.SetField(mod, "has", L.NewFunction(m.has))
	L.SetField(mod, "erase", L.NewFunction(m.erase))
	L.SetField(mod, "update", L.NewFunction(m.update))
	L.SetField(mod, "to_map", L.NewFunction(m.toMap))
	L.SetField(mod, "add_on_change", L.NewFunction(m.addOnChange))
	L.SetField(mod, "clear_on_change", L.NewFunction(m.clearOnChange))

	L.SetGlobal("_storm_settings", mod)
	return nil
}

// get(settings, key, default?) -> value
// Lookups fall through to the parent chain; a missing key yields the
// default, or nil without one.
func (m *SettingsModule) get(L *lua.LState) int {
	st := m.ctx.settingsArg(L, 1)
	key := L.CheckString(2)

	if L.GetTop() >= 3 {
		L.Push(toLua(L, st.GetDefault(key, toGo(L.Get(3)))))
		return 1
	}
	v, ok := st.Get(key)
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(toLua(L, v))
	return 1
}

// set(settings, key, value)
func (m *SettingsModule) set(L *lua.LState) int {
	st := m.ctx.settingsArg(L, 1)
	st.Set(L.CheckString(2), toGo(L.Get(3)))
	return 0
}

// has(settings, key) -> bool
func (m *SettingsModule) has(L *lua.LState) int {
	st := m.ctx.settingsArg(L, 1)
	L.Push(lua.LBool(st.Has(L.CheckString(2))))
	return 1
}

// erase(settings, key)
// Erasing uncovers any parent value for the key.
func (m *SettingsModule) erase(L *lua.LState) int {
	st := m.ctx.settingsArg(L, 1)
	st.Erase(L.CheckString(2))
	return 0
}

// update(settings, {key=value})
// Applies several entries with one change notification.
func (m *SettingsModule) update(L *lua.LState) int {
	st := m.ctx.settingsArg(L, 1)
	values := checkArgs(L, 2)
	if values != nil {
		st.Update(values)
	}
	return 0
}

// to_map(settings) -> {key=value}
// The merged view including parent entries.
func (m *SettingsModule) toMap(L *lua.LState) int {
	st := m.ctx.settingsArg(L, 1)
	L.Push(toLua(L, st.ToMap()))
	return 1
}

// add_on_change(settings, tag, fn)
// fn runs on the host loop after a change. Registrations stack under
// the tag; clear_on_change removes them all.
func (m *SettingsModule) addOnChange(L *lua.LState) int {
	st := m.ctx.settingsArg(L, 1)
	tag := L.CheckString(2)
	fn := L.CheckFunction(3)

	m.ctx.trackListener(st.ID(), tag)
	st.AddOnChange(tag, func() {
		m.ctx.post(L, fn)
	})
	return 0
}

// clear_on_change(settings, tag)
func (m *SettingsModule) clearOnChange(L *lua.LState) int {
	st := m.ctx.settingsArg(L, 1)
	st.ClearOnChange(L.CheckString(2))
	return 0
}
