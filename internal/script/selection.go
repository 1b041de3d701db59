package script

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/stormhost/internal/host"
	"github.com/dshills/stormhost/internal/text"
)

// SelectionModule implements storm.selection over a view's shared
// selection. Functions take the view handle; region lists stay sorted
// and merged on the host side.
type SelectionModule struct {
	ctx *Context
}

// NewSelectionModule creates the storm.selection module.
func NewSelectionModule(ctx *Context) *SelectionModule {
	return &SelectionModule{ctx: ctx}
}

// Name returns the module name.
func (m *SelectionModule) Name() string { return "selection" }

// RequiredCapability returns the capability required for this module.
func (m *SelectionModule) RequiredCapability() Capability { return CapabilityViews }

// Register registers the module into the Lua state.
func (m *SelectionModule) Register(L *lua.LState) error {
	mod := L.NewTable()

	L.SetField(mod, "size", L.NewFunction(m.size))
	L.SetField(mod, "get", L.NewFunction(m.get))
	L.SetField(mod, "regions", L.NewFunction(m.regions))
	L.SetField(mod, "add", L.NewFunction(m.add))
	L.SetField(mod, "add_all", L.NewFunction(m.addAll))
	L.SetField(mod, "subtract", L.NewFunction(m.subtract))
	L.SetField(mod, "clear", L.NewFunction(m.clear))
	L.SetField(mod, "set", L.NewFunction(m.set))
	L.SetField(mod, "contains", L.NewFunction(m.contains))

	L.SetGlobal("_storm_selection", mod)
	return nil
}

func (m *SelectionModule) selection(L *lua.LState) *host.Selection {
	v := m.ctx.view(L, 1)
	sel, err := v.Sel()
	if err != nil {
		L.RaiseError("selection: %v", err)
		return nil
	}
	return sel
}

// size(view) -> int
func (m *SelectionModule) size(L *lua.LState) int {
	sel := m.selection(L)
	n, err := sel.Len()
	if err != nil {
		L.RaiseError("size: %v", err)
		return 0
	}
	L.Push(lua.LNumber(n))
	return 1
}

// get(view, i) -> region
// One-based in Lua fashion.
func (m *SelectionModule) get(L *lua.LState) int {
	sel := m.selection(L)
	i := L.CheckInt(2)
	r, err := sel.Get(i - 1)
	if err != nil {
		L.RaiseError("get: %v", err)
		return 0
	}
	L.Push(regionToLua(L, r))
	return 1
}

// regions(view) -> {regions}
func (m *SelectionModule) regions(L *lua.LState) int {
	sel := m.selection(L)
	regions, err := sel.Regions()
	if err != nil {
		L.RaiseError("regions: %v", err)
		return 0
	}
	L.Push(regionsToLua(L, regions))
	return 1
}

// add(view, region)
// Overlapping and touching covers merge.
func (m *SelectionModule) add(L *lua.LState) int {
	sel := m.selection(L)
	if err := sel.Add(checkRegion(L, 2)); err != nil {
		L.RaiseError("add: %v", err)
		return 0
	}
	return 0
}

// add_all(view, {regions})
func (m *SelectionModule) addAll(L *lua.LState) int {
	sel := m.selection(L)
	if err := sel.AddAll(checkRegions(L, 2)); err != nil {
		L.RaiseError("add_all: %v", err)
		return 0
	}
	return 0
}

// subtract(view, region)
// Removing an interior span splits the surrounding cover.
func (m *SelectionModule) subtract(L *lua.LState) int {
	sel := m.selection(L)
	if err := sel.Subtract(checkRegion(L, 2)); err != nil {
		L.RaiseError("subtract: %v", err)
		return 0
	}
	return 0
}

// clear(view)
func (m *SelectionModule) clear(L *lua.LState) int {
	sel := m.selection(L)
	if err := sel.Clear(); err != nil {
		L.RaiseError("clear: %v", err)
		return 0
	}
	return 0
}

// set(view, region)
// Replaces the whole selection with one region.
func (m *SelectionModule) set(L *lua.LState) int {
	sel := m.selection(L)
	if err := sel.Set(checkRegion(L, 2)); err != nil {
		L.RaiseError("set: %v", err)
		return 0
	}
	return 0
}

// contains(view, point_or_region) -> bool
func (m *SelectionModule) contains(L *lua.LState) int {
	sel := m.selection(L)

	var ok bool
	var err error
	if n, isNum := L.Get(2).(lua.LNumber); isNum {
		ok, err = sel.Contains(text.Point(int(n)))
	} else {
		ok, err = sel.ContainsRegion(checkRegion(L, 2))
	}
	if err != nil {
		L.RaiseError("contains: %v", err)
		return 0
	}
	L.Push(lua.LBool(ok))
	return 1
}
