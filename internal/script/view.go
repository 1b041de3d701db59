package script

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/stormhost/internal/buffer"
	"github.com/dshills/stormhost/internal/text"
)

// ViewModule implements storm.view. Every function takes a view handle
// as its first argument; functions named after a location accept a
// point or a region where the host API has both forms.
type ViewModule struct {
	ctx *Context
}

// NewViewModule creates the storm.view module.
func NewViewModule(ctx *Context) *ViewModule {
	return &ViewModule{ctx: ctx}
}

// Name returns the module name.
func (m *ViewModule) Name() string { return "view" }

// RequiredCapability returns the capability required for this module.
func (m *ViewModule) RequiredCapability() Capability { return CapabilityViews }

// Register registers the module into the Lua state.
func (m *ViewModule) Register(L *lua.LState) error {
	mod := L.NewTable()

	L.SetField(mod, "is_valid", L.NewFunction(m.isValid))
	L.SetField(mod, "window", L.NewFunction(m.window))
	L.SetField(mod, "name", L.NewFunction(m.name))
	L.SetField(mod, "set_name", L.NewFunction(m.setName))
	L.SetField(mod, "file_name", L.NewFunction(m.fileName))
	L.SetField(mod, "retarget", L.NewFunction(m.retarget))
	L.SetField(mod, "is_scratch", L.NewFunction(m.isScratch))
	L.SetField(mod, "set_scratch", L.NewFunction(m.setScratch))
	L.SetField(mod, "is_read_only", L.NewFunction(m.isReadOnly))
	L.SetField(mod, "set_read_only", L.NewFunction(m.setReadOnly))
	L.SetField(mod, "is_dirty", L.NewFunction(m.isDirty))
	L.SetField(mod, "save", L.NewFunction(m.save))
	L.SetField(mod, "close", L.NewFunction(m.close))
	L.SetField(mod, "size", L.NewFunction(m.size))
	L.SetField(mod, "change_count", L.NewFunction(m.changeCount))

	L.SetField(mod, "substr", L.NewFunction(m.substr))
	L.SetField(mod, "line", L.NewFunction(m.line))
	L.SetField(mod, "full_line", L.NewFunction(m.fullLine))
	L.SetField(mod, "lines", L.NewFunction(m.lines))
	L.SetField(mod, "split_by_newlines", L.NewFunction(m.splitByNewlines))
	L.SetField(mod, "word", L.NewFunction(m.word))
	L.SetField(mod, "classify", L.NewFunction(m.classify))
	L.SetField(mod, "expand_by_class", L.NewFunction(m.expandByClass))
	L.SetField(mod, "find_by_class", L.NewFunction(m.findByClass))
	L.SetField(mod, "find", L.NewFunction(m.find))
	L.SetField(mod, "find_all", L.NewFunction(m.findAll))
	L.SetField(mod, "row_col", L.NewFunction(m.rowCol))
	L.SetField(mod, "text_point", L.NewFunction(m.textPoint))

	L.SetField(mod, "syntax", L.NewFunction(m.syntax))
	L.SetField(mod, "set_syntax", L.NewFunction(m.setSyntax))
	L.SetField(mod, "scope_name", L.NewFunction(m.scopeName))
	L.SetField(mod, "score_selector", L.NewFunction(m.scoreSelector))
	L.SetField(mod, "match_selector", L.NewFunction(m.matchSelector))

	L.SetField(mod, "edit", L.NewFunction(m.edit))
	L.SetField(mod, "insert", L.NewFunction(m.insert))
	L.SetField(mod, "erase", L.NewFunction(m.erase))
	L.SetField(mod, "replace", L.NewFunction(m.replace))

	L.SetField(mod, "add_regions", L.NewFunction(m.addRegions))
	L.SetField(mod, "get_regions", L.NewFunction(m.getRegions))
	L.SetField(mod, "erase_regions", L.NewFunction(m.eraseRegions))
	L.SetField(mod, "region_keys", L.NewFunction(m.regionKeys))

	L.SetField(mod, "set_status", L.NewFunction(m.setStatus))
	L.SetField(mod, "get_status", L.NewFunction(m.getStatus))
	L.SetField(mod, "erase_status", L.NewFunction(m.eraseStatus))

	L.SetField(mod, "show_popup", L.NewFunction(m.showPopup))
	L.SetField(mod, "update_popup", L.NewFunction(m.updatePopup))
	L.SetField(mod, "hide_popup", L.NewFunction(m.hidePopup))
	L.SetField(mod, "is_popup_visible", L.NewFunction(m.isPopupVisible))

	L.SetField(mod, "settings", L.NewFunction(m.settings))
	L.SetField(mod, "command_history", L.NewFunction(m.commandHistory))
	L.SetField(mod, "run_command", L.NewFunction(m.runCommand))

	// Character class flags for classify and friends.
	L.SetField(mod, "CLASS_WORD_START", lua.LNumber(buffer.ClassWordStart))
	L.SetField(mod, "CLASS_WORD_END", lua.LNumber(buffer.ClassWordEnd))
	L.SetField(mod, "CLASS_PUNCTUATION_START", lua.LNumber(buffer.ClassPunctuationStart))
	L.SetField(mod, "CLASS_PUNCTUATION_END", lua.LNumber(buffer.ClassPunctuationEnd))
	L.SetField(mod, "CLASS_SUB_WORD_START", lua.LNumber(buffer.ClassSubWordStart))
	L.SetField(mod, "CLASS_SUB_WORD_END", lua.LNumber(buffer.ClassSubWordEnd))
	L.SetField(mod, "CLASS_LINE_START", lua.LNumber(buffer.ClassLineStart))
	L.SetField(mod, "CLASS_LINE_END", lua.LNumber(buffer.ClassLineEnd))
	L.SetField(mod, "CLASS_EMPTY_LINE", lua.LNumber(buffer.ClassEmptyLine))

	// Search flags for find and find_all.
	L.SetField(mod, "LITERAL", lua.LNumber(buffer.FindLiteral))
	L.SetField(mod, "IGNORE_CASE", lua.LNumber(buffer.FindIgnoreCase))

	L.SetGlobal("_storm_view", mod)
	return nil
}

// is_valid(view) -> bool
// The one view call that accepts a stale handle.
func (m *ViewModule) isValid(L *lua.LState) int {
	id := L.CheckInt64(1)
	v, err := m.ctx.host.View(id)
	L.Push(lua.LBool(err == nil && v.IsValid()))
	return 1
}

// window(view) -> window_id
func (m *ViewModule) window(L *lua.LState) int {
	v := m.ctx.view(L, 1)
	L.Push(lua.LNumber(v.Window().ID()))
	return 1
}

// name(view) -> string
func (m *ViewModule) name(L *lua.LState) int {
	v := m.ctx.view(L, 1)
	L.Push(lua.LString(v.Name()))
	return 1
}

// set_name(view, name)
func (m *ViewModule) setName(L *lua.LState) int {
	v := m.ctx.view(L, 1)
	if err := v.SetName(L.CheckString(2)); err != nil {
		L.RaiseError("set_name: %v", err)
		return 0
	}
	return 0
}

// file_name(view) -> path|nil
func (m *ViewModule) fileName(L *lua.LState) int {
	v := m.ctx.view(L, 1)
	path, ok := v.FileName()
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LString(path))
	return 1
}

// retarget(view, path)
func (m *ViewModule) retarget(L *lua.LState) int {
	v := m.ctx.view(L, 1)
	if err := v.Retarget(L.CheckString(2)); err != nil {
		L.RaiseError("retarget: %v", err)
		return 0
	}
	return 0
}

// is_scratch(view) -> bool
func (m *ViewModule) isScratch(L *lua.LState) int {
	v := m.ctx.view(L, 1)
	L.Push(lua.LBool(v.IsScratch()))
	return 1
}

// set_scratch(view, scratch)
func (m *ViewModule) setScratch(L *lua.LState) int {
	v := m.ctx.view(L, 1)
	if err := v.SetScratch(L.CheckBool(2)); err != nil {
		L.RaiseError("set_scratch: %v", err)
		return 0
	}
	return 0
}

// is_read_only(view) -> bool
func (m *ViewModule) isReadOnly(L *lua.LState) int {
	v := m.ctx.view(L, 1)
	L.Push(lua.LBool(v.IsReadOnly()))
	return 1
}

// set_read_only(view, read_only)
func (m *ViewModule) setReadOnly(L *lua.LState) int {
	v := m.ctx.view(L, 1)
	if err := v.SetReadOnly(L.CheckBool(2)); err != nil {
		L.RaiseError("set_read_only: %v", err)
		return 0
	}
	return 0
}

// is_dirty(view) -> bool
func (m *ViewModule) isDirty(L *lua.LState) int {
	v := m.ctx.view(L, 1)
	L.Push(lua.LBool(v.IsDirty()))
	return 1
}

// save(view)
func (m *ViewModule) save(L *lua.LState) int {
	v := m.ctx.view(L, 1)
	if err := v.Save(); err != nil {
		L.RaiseError("save: %v", err)
		return 0
	}
	return 0
}

// close(view)
func (m *ViewModule) close(L *lua.LState) int {
	v := m.ctx.view(L, 1)
	if err := v.Close(); err != nil {
		L.RaiseError("close: %v", err)
		return 0
	}
	return 0
}

// size(view) -> int
func (m *ViewModule) size(L *lua.LState) int {
	v := m.ctx.view(L, 1)
	n, err := v.Size()
	if err != nil {
		L.RaiseError("size: %v", err)
		return 0
	}
	L.Push(lua.LNumber(n))
	return 1
}

// change_count(view) -> int
func (m *ViewModule) changeCount(L *lua.LState) int {
	v := m.ctx.view(L, 1)
	n, err := v.ChangeCount()
	if err != nil {
		L.RaiseError("change_count: %v", err)
		return 0
	}
	L.Push(lua.LNumber(n))
	return 1
}

// substr(view, region_or_point) -> string
// A point argument yields the single character at that point.
func (m *ViewModule) substr(L *lua.LState) int {
	v := m.ctx.view(L, 1)

	var s string
	var err error
	if n, ok := L.Get(2).(lua.LNumber); ok {
		s, err = v.SubstrPoint(text.Point(int(n)))
	} else {
		s, err = v.Substr(checkRegion(L, 2))
	}
	if err != nil {
		L.RaiseError("substr: %v", err)
		return 0
	}
	L.Push(lua.LString(s))
	return 1
}

// line(view, point_or_region) -> region
func (m *ViewModule) line(L *lua.LState) int {
	v := m.ctx.view(L, 1)

	var r text.Region
	var err error
	if n, ok := L.Get(2).(lua.LNumber); ok {
		r, err = v.Line(text.Point(int(n)))
	} else {
		r, err = v.LineRegion(checkRegion(L, 2))
	}
	if err != nil {
		L.RaiseError("line: %v", err)
		return 0
	}
	L.Push(regionToLua(L, r))
	return 1
}

// full_line(view, point_or_region) -> region
// Like line but the result includes the trailing newline.
func (m *ViewModule) fullLine(L *lua.LState) int {
	v := m.ctx.view(L, 1)

	var r text.Region
	var err error
	if n, ok := L.Get(2).(lua.LNumber); ok {
		r, err = v.FullLine(text.Point(int(n)))
	} else {
		r, err = v.FullLineRegion(checkRegion(L, 2))
	}
	if err != nil {
		L.RaiseError("full_line: %v", err)
		return 0
	}
	L.Push(regionToLua(L, r))
	return 1
}

// lines(view, region) -> {regions}
func (m *ViewModule) lines(L *lua.LState) int {
	v := m.ctx.view(L, 1)
	regions, err := v.Lines(checkRegion(L, 2))
	if err != nil {
		L.RaiseError("lines: %v", err)
		return 0
	}
	L.Push(regionsToLua(L, regions))
	return 1
}

// split_by_newlines(view, region) -> {regions}
func (m *ViewModule) splitByNewlines(L *lua.LState) int {
	v := m.ctx.view(L, 1)
	regions, err := v.SplitByNewlines(checkRegion(L, 2))
	if err != nil {
		L.RaiseError("split_by_newlines: %v", err)
		return 0
	}
	L.Push(regionsToLua(L, regions))
	return 1
}

// word(view, point_or_region) -> region
func (m *ViewModule) word(L *lua.LState) int {
	v := m.ctx.view(L, 1)

	var r text.Region
	var err error
	if n, ok := L.Get(2).(lua.LNumber); ok {
		r, err = v.Word(text.Point(int(n)))
	} else {
		r, err = v.WordRegion(checkRegion(L, 2))
	}
	if err != nil {
		L.RaiseError("word: %v", err)
		return 0
	}
	L.Push(regionToLua(L, r))
	return 1
}

// classify(view, point) -> class_flags
func (m *ViewModule) classify(L *lua.LState) int {
	v := m.ctx.view(L, 1)
	flags, err := v.Classify(text.Point(L.CheckInt(2)))
	if err != nil {
		L.RaiseError("classify: %v", err)
		return 0
	}
	L.Push(lua.LNumber(flags))
	return 1
}

// expand_by_class(view, region, classes, separators?) -> region
func (m *ViewModule) expandByClass(L *lua.LState) int {
	v := m.ctx.view(L, 1)
	r := checkRegion(L, 2)
	classes := L.CheckInt(3)
	separators := L.OptString(4, "")

	out, err := v.ExpandByClass(r, classes, separators)
	if err != nil {
		L.RaiseError("expand_by_class: %v", err)
		return 0
	}
	L.Push(regionToLua(L, out))
	return 1
}

// find_by_class(view, point, forward, classes, separators?) -> point
func (m *ViewModule) findByClass(L *lua.LState) int {
	v := m.ctx.view(L, 1)
	pt := text.Point(L.CheckInt(2))
	forward := L.CheckBool(3)
	classes := L.CheckInt(4)
	separators := L.OptString(5, "")

	out, err := v.FindByClass(pt, forward, classes, separators)
	if err != nil {
		L.RaiseError("find_by_class: %v", err)
		return 0
	}
	L.Push(lua.LNumber(out))
	return 1
}

// find(view, pattern, start?, flags?) -> region|nil
func (m *ViewModule) find(L *lua.LState) int {
	v := m.ctx.view(L, 1)
	pattern := L.CheckString(2)
	start := optPoint(L, 3, 0)
	flags := buffer.FindFlags(L.OptInt(4, 0))

	r, found, err := v.Find(pattern, start, flags)
	if err != nil {
		L.RaiseError("find: %v", err)
		return 0
	}
	if !found {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(regionToLua(L, r))
	return 1
}

// find_all(view, pattern, flags?) -> {regions}
func (m *ViewModule) findAll(L *lua.LState) int {
	v := m.ctx.view(L, 1)
	pattern := L.CheckString(2)
	flags := buffer.FindFlags(L.OptInt(3, 0))

	regions, err := v.FindAll(pattern, flags)
	if err != nil {
		L.RaiseError("find_all: %v", err)
		return 0
	}
	L.Push(regionsToLua(L, regions))
	return 1
}

// row_col(view, point) -> row, col
// Both zero-based.
func (m *ViewModule) rowCol(L *lua.LState) int {
	v := m.ctx.view(L, 1)
	row, col, err := v.RowCol(text.Point(L.CheckInt(2)))
	if err != nil {
		L.RaiseError("row_col: %v", err)
		return 0
	}
	L.Push(lua.LNumber(row))
	L.Push(lua.LNumber(col))
	return 2
}

// text_point(view, row, col) -> point
func (m *ViewModule) textPoint(L *lua.LState) int {
	v := m.ctx.view(L, 1)
	pt, err := v.TextPoint(L.CheckInt(2), L.CheckInt(3))
	if err != nil {
		L.RaiseError("text_point: %v", err)
		return 0
	}
	L.Push(lua.LNumber(pt))
	return 1
}

// syntax(view) -> scope_name
func (m *ViewModule) syntax(L *lua.LState) int {
	v := m.ctx.view(L, 1)
	L.Push(lua.LString(v.Syntax()))
	return 1
}

// set_syntax(view, scope_name)
func (m *ViewModule) setSyntax(L *lua.LState) int {
	v := m.ctx.view(L, 1)
	if err := v.SetSyntax(L.CheckString(2)); err != nil {
		L.RaiseError("set_syntax: %v", err)
		return 0
	}
	return 0
}

// scope_name(view, point) -> string
func (m *ViewModule) scopeName(L *lua.LState) int {
	v := m.ctx.view(L, 1)
	scope, err := v.ScopeName(text.Point(L.CheckInt(2)))
	if err != nil {
		L.RaiseError("scope_name: %v", err)
		return 0
	}
	L.Push(lua.LString(scope))
	return 1
}

// score_selector(view, point, selector) -> int
func (m *ViewModule) scoreSelector(L *lua.LState) int {
	v := m.ctx.view(L, 1)
	score, err := v.ScoreSelector(text.Point(L.CheckInt(2)), L.CheckString(3))
	if err != nil {
		L.RaiseError("score_selector: %v", err)
		return 0
	}
	L.Push(lua.LNumber(score))
	return 1
}

// match_selector(view, point, selector) -> bool
func (m *ViewModule) matchSelector(L *lua.LState) int {
	v := m.ctx.view(L, 1)
	ok, err := v.MatchSelector(text.Point(L.CheckInt(2)), L.CheckString(3))
	if err != nil {
		L.RaiseError("match_selector: %v", err)
		return 0
	}
	L.Push(lua.LBool(ok))
	return 1
}

// edit(view, fn)
// Opens an edit session, calls fn(edit) and closes the session when fn
// returns, normally or not. Mutations are only legal inside fn.
func (m *ViewModule) edit(L *lua.LState) int {
	v := m.ctx.view(L, 1)
	fn := L.CheckFunction(2)

	e, err := v.BeginEdit()
	if err != nil {
		L.RaiseError("edit: %v", err)
		return 0
	}
	defer v.EndEdit(e)

	ud := L.NewUserData()
	ud.Value = e
	L.Push(fn)
	L.Push(ud)
	L.Call(1, 0)
	return 0
}

// insert(view, edit, point, text) -> count
func (m *ViewModule) insert(L *lua.LState) int {
	v := m.ctx.view(L, 1)
	e := checkEdit(L, 2)
	pt := text.Point(L.CheckInt(3))
	s := L.CheckString(4)

	n, err := v.Insert(e, pt, s)
	if err != nil {
		L.RaiseError("insert: %v", err)
		return 0
	}
	L.Push(lua.LNumber(n))
	return 1
}

// erase(view, edit, region)
func (m *ViewModule) erase(L *lua.LState) int {
	v := m.ctx.view(L, 1)
	e := checkEdit(L, 2)
	if err := v.Erase(e, checkRegion(L, 3)); err != nil {
		L.RaiseError("erase: %v", err)
		return 0
	}
	return 0
}

// replace(view, edit, region, text)
func (m *ViewModule) replace(L *lua.LState) int {
	v := m.ctx.view(L, 1)
	e := checkEdit(L, 2)
	r := checkRegion(L, 3)
	if err := v.Replace(e, r, L.CheckString(4)); err != nil {
		L.RaiseError("replace: %v", err)
		return 0
	}
	return 0
}

// add_regions(view, key, regions, scope?)
func (m *ViewModule) addRegions(L *lua.LState) int {
	v := m.ctx.view(L, 1)
	key := L.CheckString(2)
	regions := checkRegions(L, 3)
	scope := L.OptString(4, "")

	if err := v.AddRegions(key, regions, scope); err != nil {
		L.RaiseError("add_regions: %v", err)
		return 0
	}
	return 0
}

// get_regions(view, key) -> {regions}
func (m *ViewModule) getRegions(L *lua.LState) int {
	v := m.ctx.view(L, 1)
	regions, err := v.GetRegions(L.CheckString(2))
	if err != nil {
		L.RaiseError("get_regions: %v", err)
		return 0
	}
	L.Push(regionsToLua(L, regions))
	return 1
}

// erase_regions(view, key)
func (m *ViewModule) eraseRegions(L *lua.LState) int {
	v := m.ctx.view(L, 1)
	if err := v.EraseRegions(L.CheckString(2)); err != nil {
		L.RaiseError("erase_regions: %v", err)
		return 0
	}
	return 0
}

// region_keys(view) -> {keys}
func (m *ViewModule) regionKeys(L *lua.LState) int {
	v := m.ctx.view(L, 1)
	keys, err := v.RegionKeys()
	if err != nil {
		L.RaiseError("region_keys: %v", err)
		return 0
	}
	t := L.NewTable()
	for i, key := range keys {
		t.RawSetInt(i+1, lua.LString(key))
	}
	L.Push(t)
	return 1
}

// set_status(view, key, value)
func (m *ViewModule) setStatus(L *lua.LState) int {
	v := m.ctx.view(L, 1)
	if err := v.SetStatus(L.CheckString(2), L.CheckString(3)); err != nil {
		L.RaiseError("set_status: %v", err)
		return 0
	}
	return 0
}

// get_status(view, key) -> string
func (m *ViewModule) getStatus(L *lua.LState) int {
	v := m.ctx.view(L, 1)
	s, err := v.GetStatus(L.CheckString(2))
	if err != nil {
		L.RaiseError("get_status: %v", err)
		return 0
	}
	L.Push(lua.LString(s))
	return 1
}

// erase_status(view, key)
func (m *ViewModule) eraseStatus(L *lua.LState) int {
	v := m.ctx.view(L, 1)
	if err := v.EraseStatus(L.CheckString(2)); err != nil {
		L.RaiseError("erase_status: %v", err)
		return 0
	}
	return 0
}

// show_popup(view, content, on_navigate?, on_hide?)
func (m *ViewModule) showPopup(L *lua.LState) int {
	v := m.ctx.view(L, 1)
	content := L.CheckString(2)
	onNavigate := optFunction(L, 3)
	onHide := optFunction(L, 4)

	var navFn func(string)
	var hideFn func()
	if onNavigate != nil {
		navFn = func(href string) { m.ctx.invoke(L, onNavigate, lua.LString(href)) }
	}
	if onHide != nil {
		hideFn = func() { m.ctx.invoke(L, onHide) }
	}

	if err := v.ShowPopup(content, navFn, hideFn); err != nil {
		L.RaiseError("show_popup: %v", err)
		return 0
	}
	return 0
}

// update_popup(view, content)
func (m *ViewModule) updatePopup(L *lua.LState) int {
	v := m.ctx.view(L, 1)
	if err := v.UpdatePopup(L.CheckString(2)); err != nil {
		L.RaiseError("update_popup: %v", err)
		return 0
	}
	return 0
}

// hide_popup(view)
func (m *ViewModule) hidePopup(L *lua.LState) int {
	v := m.ctx.view(L, 1)
	if err := v.HidePopup(); err != nil {
		L.RaiseError("hide_popup: %v", err)
		return 0
	}
	return 0
}

// is_popup_visible(view) -> bool
func (m *ViewModule) isPopupVisible(L *lua.LState) int {
	v := m.ctx.view(L, 1)
	L.Push(lua.LBool(v.IsPopupVisible()))
	return 1
}

// settings(view) -> settings_id
func (m *ViewModule) settings(L *lua.LState) int {
	v := m.ctx.view(L, 1)
	st, err := v.Settings()
	if err != nil {
		L.RaiseError("settings: %v", err)
		return 0
	}
	L.Push(lua.LNumber(st.ID()))
	return 1
}

// command_history(view, index?) -> {command=, args=, repeat=}|nil
// Index 0 is the most recent text command, negative indexes reach
// further back.
func (m *ViewModule) commandHistory(L *lua.LState) int {
	v := m.ctx.view(L, 1)
	entry, ok := v.CommandHistory(L.OptInt(2, 0))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	t := L.NewTable()
	t.RawSetString("command", lua.LString(entry.Command))
	if entry.Args != nil {
		t.RawSetString("args", toLua(L, entry.Args))
	}
	t.RawSetString("repeat", lua.LNumber(entry.Repeat))
	L.Push(t)
	return 1
}

// run_command(view, name, args?)
// Runs a text command inside an automatic edit session.
func (m *ViewModule) runCommand(L *lua.LState) int {
	v := m.ctx.view(L, 1)
	name := L.CheckString(2)
	args := checkArgs(L, 3)
	if err := v.RunCommand(name, args); err != nil {
		L.RaiseError("run_command: %v", err)
		return 0
	}
	return 0
}
