package script

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/stormhost/internal/host"
	"github.com/dshills/stormhost/internal/text"
)

// PhantomModule implements storm.phantom: inline annotations anchored
// to view regions, singly or reconciled through phantom sets.
type PhantomModule struct {
	ctx *Context
}

// NewPhantomModule creates the storm.phantom module.
func NewPhantomModule(ctx *Context) *PhantomModule {
	return &PhantomModule{ctx: ctx}
}

// Name returns the module name.
func (m *PhantomModule) Name() string { return "phantom" }

// RequiredCapability returns the capability required for this module.
func (m *PhantomModule) RequiredCapability() Capability { return CapabilityPhantoms }

// Register registers the module into the Lua state.
func (m *PhantomModule) Register(L *lua.LState) error {
	mod := L.NewTable()

	L.SetField(mod, "add", L.NewFunction(m.add))
	L.SetField(mod, "erase", L.NewFunction(m.erase))
	L.SetField(mod, "query", L.NewFunction(m.query))
	L.SetField(mod, "create_set", L.NewFunction(m.createSet))
	L.SetField(mod, "update_set", L.NewFunction(m.updateSet))
	L.SetField(mod, "set_phantoms", L.NewFunction(m.setPhantoms))
	L.SetField(mod, "close_set", L.NewFunction(m.closeSet))

	L.SetField(mod, "LAYOUT_INLINE", lua.LNumber(host.LayoutInline))
	L.SetField(mod, "LAYOUT_BELOW", lua.LNumber(host.LayoutBelow))
	L.SetField(mod, "LAYOUT_BLOCK", lua.LNumber(host.LayoutBlock))

	L.SetGlobal("_storm_phantom", mod)
	return nil
}

// checkPhantom reads one phantom table: region, content, layout and an
// optional on_navigate function.
func (m *PhantomModule) checkPhantom(L *lua.LState, t *lua.LTable, idx int) host.Phantom {
	var p host.Phantom

	switch rv := t.RawGetString("region").(type) {
	case lua.LNumber:
		p.Region = text.PointRegion(text.Point(int(rv)))
	case *lua.LTable:
		a, aok := rv.RawGetString("a").(lua.LNumber)
		b, bok := rv.RawGetString("b").(lua.LNumber)
		if !aok || !bok {
			L.ArgError(idx, "phantom region needs numeric fields a and b")
			return p
		}
		p.Region = text.NewRegion(text.Point(int(a)), text.Point(int(b)))
	default:
		L.ArgError(idx, "phantom needs a region field")
		return p
	}

	if content, ok := t.RawGetString("content").(lua.LString); ok {
		p.Content = string(content)
	}
	if layout, ok := t.RawGetString("layout").(lua.LNumber); ok {
		p.Layout = host.PhantomLayout(int(layout))
	}
	if fn, ok := t.RawGetString("on_navigate").(*lua.LFunction); ok {
		p.OnNavigate = func(href string) {
			m.ctx.post(L, fn, lua.LString(href))
		}
	}
	return p
}

func phantomToLua(L *lua.LState, p host.Phantom) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("region", regionToLua(L, p.Region))
	t.RawSetString("content", lua.LString(p.Content))
	t.RawSetString("layout", lua.LNumber(p.Layout))
	return t
}

// add(view, phantom) -> phantom_id
func (m *PhantomModule) add(L *lua.LState) int {
	v := m.ctx.view(L, 1)
	p := m.checkPhantom(L, L.CheckTable(2), 2)

	id, err := v.AddPhantom(p)
	if err != nil {
		L.RaiseError("add: %v", err)
		return 0
	}
	L.Push(lua.LNumber(id))
	return 1
}

// erase(view, phantom_id)
// Erasing an unknown id is a no-op.
func (m *PhantomModule) erase(L *lua.LState) int {
	v := m.ctx.view(L, 1)
	if err := v.ErasePhantom(L.CheckInt64(2)); err != nil {
		L.RaiseError("erase: %v", err)
		return 0
	}
	return 0
}

// query(view, phantom_id) -> region|nil
func (m *PhantomModule) query(L *lua.LState) int {
	v := m.ctx.view(L, 1)
	r, ok := v.QueryPhantom(L.CheckInt64(2))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(regionToLua(L, r))
	return 1
}

// create_set(view) -> set_id
// The set belongs to the script and closes with it.
func (m *PhantomModule) createSet(L *lua.LState) int {
	v := m.ctx.view(L, 1)
	L.Push(lua.LNumber(m.ctx.putSet(host.NewPhantomSet(v))))
	return 1
}

// update_set(set, {phantoms})
// Diffs against the previous update: unchanged phantoms keep their
// ids, vanished ones are erased, new ones attach in order.
func (m *PhantomModule) updateSet(L *lua.LState) int {
	ps, ok := m.ctx.getSet(L.CheckInt64(1))
	if !ok {
		L.RaiseError("update_set: unknown phantom set")
		return 0
	}
	t := L.CheckTable(2)
	n := t.MaxN()
	phantoms := make([]host.Phantom, 0, n)
	for i := 1; i <= n; i++ {
		entry, ok := t.RawGetInt(i).(*lua.LTable)
		if !ok {
			L.ArgError(2, "phantom table expected")
			return 0
		}
		phantoms = append(phantoms, m.checkPhantom(L, entry, 2))
	}

	if err := ps.Update(phantoms); err != nil {
		L.RaiseError("update_set: %v", err)
		return 0
	}
	return 0
}

// set_phantoms(set) -> {phantoms}
func (m *PhantomModule) setPhantoms(L *lua.LState) int {
	ps, ok := m.ctx.getSet(L.CheckInt64(1))
	if !ok {
		L.RaiseError("set_phantoms: unknown phantom set")
		return 0
	}
	t := L.NewTable()
	for i, p := range ps.Phantoms() {
		t.RawSetInt(i+1, phantomToLua(L, p))
	}
	L.Push(t)
	return 1
}

// close_set(set)
// Retracts everything in the set. Closing twice is harmless.
func (m *PhantomModule) closeSet(L *lua.LState) int {
	if ps, ok := m.ctx.takeSet(L.CheckInt64(1)); ok {
		ps.Close()
	}
	return 0
}
