package script

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/stormhost/internal/text"
)

// RegionModule implements storm.region: pure helpers over region
// tables. Nothing here touches host state, so the module needs no
// context and no capability.
type RegionModule struct{}

// NewRegionModule creates the storm.region module.
func NewRegionModule() *RegionModule {
	return &RegionModule{}
}

// Name returns the module name.
func (m *RegionModule) Name() string { return "region" }

// RequiredCapability returns the capability required for this module.
func (m *RegionModule) RequiredCapability() Capability { return "" }

// Register registers the module into the Lua state.
func (m *RegionModule) Register(L *lua.LState) error {
	mod := L.NewTable()

	L.SetField(mod, "new", L.NewFunction(m.new))
	L.SetField(mod, "begin", L.NewFunction(m.begin))
	// end is a Lua keyword, so the accessor carries a trailing
	// underscore.
	L.SetField(mod, "end_", L.NewFunction(m.end_))
	L.SetField(mod, "empty", L.NewFunction(m.empty))
	L.SetField(mod, "size", L.NewFunction(m.size))
	L.SetField(mod, "reversed", L.NewFunction(m.reversed))
	L.SetField(mod, "contains", L.NewFunction(m.contains))
	L.SetField(mod, "cover", L.NewFunction(m.cover))
	L.SetField(mod, "intersects", L.NewFunction(m.intersects))
	L.SetField(mod, "intersection", L.NewFunction(m.intersection))

	L.SetGlobal("_storm_region", mod)
	return nil
}

// new(a, b?) -> region
// One argument makes an empty region at that point.
func (m *RegionModule) new(L *lua.LState) int {
	a := text.Point(L.CheckInt(1))
	b := text.Point(L.OptInt(2, int(a)))
	L.Push(regionToLua(L, text.NewRegion(a, b)))
	return 1
}

// begin(region) -> point
// The lower bound regardless of direction.
func (m *RegionModule) begin(L *lua.LState) int {
	L.Push(lua.LNumber(checkRegion(L, 1).Begin()))
	return 1
}

// end_(region) -> point
func (m *RegionModule) end_(L *lua.LState) int {
	L.Push(lua.LNumber(checkRegion(L, 1).End()))
	return 1
}

// empty(region) -> bool
func (m *RegionModule) empty(L *lua.LState) int {
	L.Push(lua.LBool(checkRegion(L, 1).Empty()))
	return 1
}

// size(region) -> int
func (m *RegionModule) size(L *lua.LState) int {
	L.Push(lua.LNumber(checkRegion(L, 1).Size()))
	return 1
}

// reversed(region) -> bool
// True when the caret end sits before the anchor.
func (m *RegionModule) reversed(L *lua.LState) int {
	L.Push(lua.LBool(checkRegion(L, 1).Reversed()))
	return 1
}

// contains(region, point_or_region) -> bool
func (m *RegionModule) contains(L *lua.LState) int {
	r := checkRegion(L, 1)
	if n, ok := L.Get(2).(lua.LNumber); ok {
		L.Push(lua.LBool(r.Contains(text.Point(int(n)))))
		return 1
	}
	L.Push(lua.LBool(r.ContainsRegion(checkRegion(L, 2))))
	return 1
}

// cover(region, other) -> region
// The smallest region spanning both.
func (m *RegionModule) cover(L *lua.LState) int {
	L.Push(regionToLua(L, checkRegion(L, 1).Cover(checkRegion(L, 2))))
	return 1
}

// intersects(region, other) -> bool
// The authoritative disjointness test; a shared endpoint alone does
// not intersect.
func (m *RegionModule) intersects(L *lua.LState) int {
	L.Push(lua.LBool(checkRegion(L, 1).Intersects(checkRegion(L, 2))))
	return 1
}

// intersection(region, other) -> region
// Disjoint regions yield an empty region; check intersects first when
// the distinction matters.
func (m *RegionModule) intersection(L *lua.LState) int {
	L.Push(regionToLua(L, checkRegion(L, 1).Intersection(checkRegion(L, 2))))
	return 1
}
