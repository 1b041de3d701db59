package script

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/stormhost/internal/host"
	"github.com/dshills/stormhost/internal/text"
)

// CompletionModule implements storm.completion: registering Lua
// completion providers and querying the assembled results.
type CompletionModule struct {
	ctx *Context
}

// NewCompletionModule creates the storm.completion module.
func NewCompletionModule(ctx *Context) *CompletionModule {
	return &CompletionModule{ctx: ctx}
}

// Name returns the module name.
func (m *CompletionModule) Name() string { return "completion" }

// RequiredCapability returns the capability required for this module.
func (m *CompletionModule) RequiredCapability() Capability { return CapabilityCompletions }

// Register registers the module into the Lua state.
func (m *CompletionModule) Register(L *lua.LState) error {
	mod := L.NewTable()

	L.SetField(mod, "register", L.NewFunction(m.register))
	L.SetField(mod, "unregister", L.NewFunction(m.unregister))
	L.SetField(mod, "query", L.NewFunction(m.query))

	L.SetField(mod, "FORMAT_TEXT", lua.LNumber(host.FormatText))
	L.SetField(mod, "FORMAT_SNIPPET", lua.LNumber(host.FormatSnippet))
	L.SetField(mod, "FORMAT_COMMAND", lua.LNumber(host.FormatCommand))

	L.SetField(mod, "KIND_AMBIGUOUS", lua.LNumber(host.KindAmbiguous))
	L.SetField(mod, "KIND_KEYWORD", lua.LNumber(host.KindKeyword))
	L.SetField(mod, "KIND_TYPE", lua.LNumber(host.KindType))
	L.SetField(mod, "KIND_FUNCTION", lua.LNumber(host.KindFunction))
	L.SetField(mod, "KIND_NAMESPACE", lua.LNumber(host.KindNamespace))
	L.SetField(mod, "KIND_NAVIGATION", lua.LNumber(host.KindNavigation))
	L.SetField(mod, "KIND_MARKUP", lua.LNumber(host.KindMarkup))
	L.SetField(mod, "KIND_VARIABLE", lua.LNumber(host.KindVariable))
	L.SetField(mod, "KIND_SNIPPET", lua.LNumber(host.KindSnippet))

	L.SetField(mod, "INHIBIT_WORD_COMPLETIONS", lua.LNumber(host.InhibitWordCompletions))
	L.SetField(mod, "INHIBIT_EXPLICIT_COMPLETIONS", lua.LNumber(host.InhibitExplicitCompletions))
	L.SetField(mod, "DYNAMIC_COMPLETIONS", lua.LNumber(host.DynamicCompletions))
	L.SetField(mod, "INHIBIT_REORDER", lua.LNumber(host.InhibitReorder))

	L.SetGlobal("_storm_completion", mod)
	return nil
}

// register(fn) -> provider_id
// fn(view, prefix, locations) is called during a query and returns an
// item list and optional flags, or nil to offer nothing. Items are
// tables with trigger, annotation, completion, format, kind and
// details fields; a bare string completes as itself.
func (m *CompletionModule) register(L *lua.LState) int {
	fn := L.CheckFunction(1)

	id := m.ctx.host.RegisterCompletionProvider(func(v *host.View, prefix string, locations []text.Point) *host.CompletionList {
		locs := L.NewTable()
		for i, pt := range locations {
			locs.RawSetInt(i+1, lua.LNumber(pt))
		}

		results := m.ctx.invoke(L, fn, lua.LNumber(v.ID()), lua.LString(prefix), locs)
		if len(results) == 0 || results[0] == lua.LNil {
			return nil
		}
		items, ok := checkItems(L, results[0])
		if !ok {
			return nil
		}
		var flags host.CompletionFlags
		if len(results) > 1 {
			if n, ok := results[1].(lua.LNumber); ok {
				flags = host.CompletionFlags(int(n))
			}
		}
		return host.ResolvedCompletions(items, flags)
	})

	m.ctx.trackProvider(id)
	L.Push(lua.LNumber(id))
	return 1
}

// unregister(provider_id)
func (m *CompletionModule) unregister(L *lua.LState) int {
	m.ctx.host.UnregisterCompletionProvider(L.CheckInt64(1))
	return 0
}

// query(view, prefix, locations, on_complete)
// Asks every provider and calls on_complete(items, flags) on the host
// loop once all lists resolve.
func (m *CompletionModule) query(L *lua.LState) int {
	v := m.ctx.view(L, 1)
	prefix := L.CheckString(2)

	var locations []text.Point
	if t, ok := L.Get(3).(*lua.LTable); ok {
		n := t.MaxN()
		locations = make([]text.Point, 0, n)
		for i := 1; i <= n; i++ {
			if pt, ok := t.RawGetInt(i).(lua.LNumber); ok {
				locations = append(locations, text.Point(int(pt)))
			}
		}
	}
	fn := L.CheckFunction(4)

	err := m.ctx.host.QueryCompletions(v, prefix, locations, func(items []host.CompletionItem, flags host.CompletionFlags) {
		m.ctx.invoke(L, fn, itemsToLua(L, items), lua.LNumber(flags))
	})
	if err != nil {
		L.RaiseError("query: %v", err)
		return 0
	}
	return 0
}

func checkItems(L *lua.LState, lv lua.LValue) ([]host.CompletionItem, bool) {
	t, ok := lv.(*lua.LTable)
	if !ok {
		return nil, false
	}
	n := t.MaxN()
	items := make([]host.CompletionItem, 0, n)
	for i := 1; i <= n; i++ {
		switch v := t.RawGetInt(i).(type) {
		case lua.LString:
			items = append(items, host.CompletionItem{Trigger: string(v), Completion: string(v)})
		case *lua.LTable:
			var item host.CompletionItem
			if s, ok := v.RawGetString("trigger").(lua.LString); ok {
				item.Trigger = string(s)
			}
			if s, ok := v.RawGetString("annotation").(lua.LString); ok {
				item.Annotation = string(s)
			}
			if s, ok := v.RawGetString("completion").(lua.LString); ok {
				item.Completion = string(s)
			}
			if s, ok := v.RawGetString("details").(lua.LString); ok {
				item.Details = string(s)
			}
			if f, ok := v.RawGetString("format").(lua.LNumber); ok {
				item.Format = host.CompletionFormat(int(f))
			}
			if k, ok := v.RawGetString("kind").(lua.LNumber); ok {
				item.Kind = host.CompletionKind(int(k))
			}
			if item.Completion == "" {
				item.Completion = item.Trigger
			}
			items = append(items, item)
		}
	}
	return items, true
}

func itemsToLua(L *lua.LState, items []host.CompletionItem) *lua.LTable {
	t := L.NewTable()
	for i, item := range items {
		entry := L.NewTable()
		entry.RawSetString("trigger", lua.LString(item.Trigger))
		entry.RawSetString("annotation", lua.LString(item.Annotation))
		entry.RawSetString("completion", lua.LString(item.Completion))
		entry.RawSetString("details", lua.LString(item.Details))
		entry.RawSetString("format", lua.LNumber(item.Format))
		entry.RawSetString("kind", lua.LNumber(item.Kind))
		t.RawSetInt(i+1, entry)
	}
	return t
}
