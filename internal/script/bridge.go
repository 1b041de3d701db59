package script

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/stormhost/internal/text"
	"github.com/dshills/stormhost/internal/value"
)

// toLua converts a host value to its Lua representation. Host dynamics
// are JSON-shaped after value.Normalize (nil, bool, int64, float64,
// string, []any, map[string]any), so the conversion is a closed switch
// with no reflection.
func toLua(L *lua.LState, v any) lua.LValue {
	switch val := value.Normalize(v).(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(val)
	case int64:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case string:
		return lua.LString(val)
	case []any:
		t := L.NewTable()
		for i, e := range val {
			t.RawSetInt(i+1, toLua(L, e))
		}
		return t
	case map[string]any:
		t := L.NewTable()
		for k, e := range val {
			t.RawSetString(k, toLua(L, e))
		}
		return t
	default:
		return lua.LNil
	}
}

// toGo converts a Lua value to a host value. Numbers become int64 when
// integral, tables become []any or map[string]any, and circular table
// references are cut to nil.
func toGo(lv lua.LValue) any {
	return goValue(lv, make(map[*lua.LTable]bool))
}

func goValue(lv lua.LValue, visited map[*lua.LTable]bool) any {
	switch v := lv.(type) {
	case *lua.LNilType, nil:
		return nil
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		f := float64(v)
		if f == float64(int64(f)) {
			return int64(f)
		}
		return f
	case lua.LString:
		return string(v)
	case *lua.LTable:
		if visited[v] {
			return nil
		}
		visited[v] = true
		return tableToGo(v, visited)
	case *lua.LUserData:
		return v.Value
	default:
		// Functions and other runtime values have no host shape.
		return nil
	}
}

func tableToGo(t *lua.LTable, visited map[*lua.LTable]bool) any {
	n := t.MaxN()
	count := 0
	t.ForEach(func(lua.LValue, lua.LValue) { count++ })

	if n > 0 && n == count {
		arr := make([]any, n)
		for i := 1; i <= n; i++ {
			arr[i-1] = goValue(t.RawGetInt(i), visited)
		}
		return arr
	}

	m := make(map[string]any, count)
	t.ForEach(func(k, v lua.LValue) {
		var key string
		switch kv := k.(type) {
		case lua.LString:
			key = string(kv)
		case lua.LNumber:
			key = fmt.Sprintf("%v", float64(kv))
		default:
			key = k.String()
		}
		m[key] = goValue(v, visited)
	})
	return m
}

// regionToLua renders a region as a table with a and b fields. The
// xpos field only appears when set.
func regionToLua(L *lua.LState, r text.Region) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("a", lua.LNumber(r.A))
	t.RawSetString("b", lua.LNumber(r.B))
	if r.XPos != 0 {
		t.RawSetString("xpos", lua.LNumber(r.XPos))
	}
	return t
}

// checkRegion reads a region argument. A bare number is accepted as an
// empty region at that point.
func checkRegion(L *lua.LState, idx int) text.Region {
	switch v := L.Get(idx).(type) {
	case lua.LNumber:
		return text.PointRegion(text.Point(int(v)))
	case *lua.LTable:
		a, aok := v.RawGetString("a").(lua.LNumber)
		b, bok := v.RawGetString("b").(lua.LNumber)
		if !aok || !bok {
			L.ArgError(idx, "region needs numeric fields a and b")
			return text.Region{}
		}
		r := text.NewRegion(text.Point(int(a)), text.Point(int(b)))
		if x, ok := v.RawGetString("xpos").(lua.LNumber); ok {
			r.XPos = float64(x)
		}
		return r
	default:
		L.ArgError(idx, "region expected")
		return text.Region{}
	}
}

// checkRegions reads an array-of-regions argument.
func checkRegions(L *lua.LState, idx int) []text.Region {
	t := L.CheckTable(idx)
	n := t.MaxN()
	regions := make([]text.Region, 0, n)
	for i := 1; i <= n; i++ {
		entry := t.RawGetInt(i)
		switch v := entry.(type) {
		case lua.LNumber:
			regions = append(regions, text.PointRegion(text.Point(int(v))))
		case *lua.LTable:
			a, aok := v.RawGetString("a").(lua.LNumber)
			b, bok := v.RawGetString("b").(lua.LNumber)
			if !aok || !bok {
				L.ArgError(idx, fmt.Sprintf("entry %d: region needs numeric fields a and b", i))
				return nil
			}
			r := text.NewRegion(text.Point(int(a)), text.Point(int(b)))
			if x, ok := v.RawGetString("xpos").(lua.LNumber); ok {
				r.XPos = float64(x)
			}
			regions = append(regions, r)
		default:
			L.ArgError(idx, fmt.Sprintf("entry %d: region expected", i))
			return nil
		}
	}
	return regions
}

// regionsToLua renders a slice of regions as an array table.
func regionsToLua(L *lua.LState, regions []text.Region) *lua.LTable {
	t := L.NewTable()
	for i, r := range regions {
		t.RawSetInt(i+1, regionToLua(L, r))
	}
	return t
}

// checkArgs reads an optional command argument table. Missing or nil
// yields a nil map.
func checkArgs(L *lua.LState, idx int) map[string]any {
	v := L.Get(idx)
	if v == lua.LNil {
		return nil
	}
	t, ok := v.(*lua.LTable)
	if !ok {
		L.ArgError(idx, "argument table expected")
		return nil
	}
	m, ok := toGo(t).(map[string]any)
	if !ok {
		// An array-shaped table has no string keys to bind.
		L.ArgError(idx, "argument table must be keyed by name")
		return nil
	}
	return m
}

// optPoint reads an optional point argument with a default.
func optPoint(L *lua.LState, idx int, def text.Point) text.Point {
	v := L.Get(idx)
	if v == lua.LNil {
		return def
	}
	n, ok := v.(lua.LNumber)
	if !ok {
		L.ArgError(idx, "point expected")
		return def
	}
	return text.Point(int(n))
}
