package script

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/stormhost/internal/host"
)

// WindowModule implements storm.window. Every function takes a window
// handle as its first argument.
type WindowModule struct {
	ctx *Context
}

// NewWindowModule creates the storm.window module.
func NewWindowModule(ctx *Context) *WindowModule {
	return &WindowModule{ctx: ctx}
}

// Name returns the module name.
func (m *WindowModule) Name() string { return "window" }

// RequiredCapability returns the capability required for this module.
func (m *WindowModule) RequiredCapability() Capability { return CapabilityWindows }

// Register registers the module into the Lua state.
func (m *WindowModule) Register(L *lua.LState) error {
	mod := L.NewTable()

	L.SetField(mod, "is_valid", L.NewFunction(m.isValid))
	L.SetField(mod, "new_file", L.NewFunction(m.newFile))
	L.SetField(mod, "open_file", L.NewFunction(m.openFile))
	L.SetField(mod, "find_open_file", L.NewFunction(m.findOpenFile))
	L.SetField(mod, "views", L.NewFunction(m.views))
	L.SetField(mod, "active_view", L.NewFunction(m.activeView))
	L.SetField(mod, "focus_view", L.NewFunction(m.focusView))
	L.SetField(mod, "close", L.NewFunction(m.close))
	L.SetField(mod, "settings", L.NewFunction(m.settings))
	L.SetField(mod, "status_message", L.NewFunction(m.statusMessage))
	L.SetField(mod, "run_command", L.NewFunction(m.runCommand))

	L.SetField(mod, "create_output_panel", L.NewFunction(m.createOutputPanel))
	L.SetField(mod, "find_output_panel", L.NewFunction(m.findOutputPanel))
	L.SetField(mod, "destroy_output_panel", L.NewFunction(m.destroyOutputPanel))
	L.SetField(mod, "output_panels", L.NewFunction(m.outputPanels))
	L.SetField(mod, "show_output_panel", L.NewFunction(m.showOutputPanel))
	L.SetField(mod, "hide_output_panel", L.NewFunction(m.hideOutputPanel))
	L.SetField(mod, "active_panel", L.NewFunction(m.activePanel))
	L.SetField(mod, "show_input_panel", L.NewFunction(m.showInputPanel))
	L.SetField(mod, "show_quick_panel", L.NewFunction(m.showQuickPanel))

	L.SetField(mod, "project_file_name", L.NewFunction(m.projectFileName))
	L.SetField(mod, "open_project", L.NewFunction(m.openProject))
	L.SetField(mod, "save_project", L.NewFunction(m.saveProject))
	L.SetField(mod, "project_data", L.NewFunction(m.projectData))
	L.SetField(mod, "set_project_data", L.NewFunction(m.setProjectData))
	L.SetField(mod, "project_value", L.NewFunction(m.projectValue))
	L.SetField(mod, "set_project_value", L.NewFunction(m.setProjectValue))
	L.SetField(mod, "folders", L.NewFunction(m.folders))
	L.SetField(mod, "add_folder", L.NewFunction(m.addFolder))
	L.SetField(mod, "extract_variables", L.NewFunction(m.extractVariables))

	// Presentation flags for show_quick_panel.
	L.SetField(mod, "MONOSPACE", lua.LNumber(host.QuickPanelMonospace))
	L.SetField(mod, "KEEP_OPEN", lua.LNumber(host.QuickPanelKeepOpen))

	L.SetGlobal("_storm_window", mod)
	return nil
}

// is_valid(win) -> bool
// The one window call that accepts a stale handle.
func (m *WindowModule) isValid(L *lua.LState) int {
	id := L.CheckInt64(1)
	w, err := m.ctx.host.Window(id)
	L.Push(lua.LBool(err == nil && w.IsValid()))
	return 1
}

// new_file(win) -> view_id
func (m *WindowModule) newFile(L *lua.LState) int {
	w := m.ctx.window(L, 1)
	v, err := w.NewFile()
	if err != nil {
		L.RaiseError("new_file: %v", err)
		return 0
	}
	L.Push(lua.LNumber(v.ID()))
	return 1
}

// open_file(win, path) -> view_id
func (m *WindowModule) openFile(L *lua.LState) int {
	w := m.ctx.window(L, 1)
	path := L.CheckString(2)
	v, err := w.OpenFile(path)
	if err != nil {
		L.RaiseError("open_file: %v", err)
		return 0
	}
	L.Push(lua.LNumber(v.ID()))
	return 1
}

// find_open_file(win, path) -> view_id|nil
// Looks the file up without opening or focusing anything.
func (m *WindowModule) findOpenFile(L *lua.LState) int {
	w := m.ctx.window(L, 1)
	v, ok := w.FindOpenFile(L.CheckString(2))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LNumber(v.ID()))
	return 1
}

// views(win) -> {view_ids}
func (m *WindowModule) views(L *lua.LState) int {
	w := m.ctx.window(L, 1)
	t := L.NewTable()
	for i, v := range w.Views() {
		t.RawSetInt(i+1, lua.LNumber(v.ID()))
	}
	L.Push(t)
	return 1
}

// active_view(win) -> view_id|nil
func (m *WindowModule) activeView(L *lua.LState) int {
	w := m.ctx.window(L, 1)
	v := w.ActiveView()
	if v == nil {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LNumber(v.ID()))
	return 1
}

// focus_view(win, view)
func (m *WindowModule) focusView(L *lua.LState) int {
	w := m.ctx.window(L, 1)
	v := m.ctx.view(L, 2)
	if err := w.FocusView(v); err != nil {
		L.RaiseError("focus_view: %v", err)
		return 0
	}
	return 0
}

// close(win)
func (m *WindowModule) close(L *lua.LState) int {
	w := m.ctx.window(L, 1)
	if err := w.Close(); err != nil {
		L.RaiseError("close: %v", err)
		return 0
	}
	return 0
}

// settings(win) -> settings_id
func (m *WindowModule) settings(L *lua.LState) int {
	w := m.ctx.window(L, 1)
	st, err := w.Settings()
	if err != nil {
		L.RaiseError("settings: %v", err)
		return 0
	}
	L.Push(lua.LNumber(st.ID()))
	return 1
}

// status_message(win, message)
func (m *WindowModule) statusMessage(L *lua.LState) int {
	w := m.ctx.window(L, 1)
	w.StatusMessage(L.CheckString(2))
	return 0
}

// run_command(win, name, args?)
// Runs a window command, bubbling to text and application scope.
func (m *WindowModule) runCommand(L *lua.LState) int {
	w := m.ctx.window(L, 1)
	name := L.CheckString(2)
	args := checkArgs(L, 3)
	if err := w.RunCommand(name, args); err != nil {
		L.RaiseError("run_command: %v", err)
		return 0
	}
	return 0
}

// create_output_panel(win, name) -> view_id
func (m *WindowModule) createOutputPanel(L *lua.LState) int {
	w := m.ctx.window(L, 1)
	v, err := w.CreateOutputPanel(L.CheckString(2))
	if err != nil {
		L.RaiseError("create_output_panel: %v", err)
		return 0
	}
	L.Push(lua.LNumber(v.ID()))
	return 1
}

// find_output_panel(win, name) -> view_id|nil
func (m *WindowModule) findOutputPanel(L *lua.LState) int {
	w := m.ctx.window(L, 1)
	v, ok := w.FindOutputPanel(L.CheckString(2))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LNumber(v.ID()))
	return 1
}

// destroy_output_panel(win, name)
func (m *WindowModule) destroyOutputPanel(L *lua.LState) int {
	w := m.ctx.window(L, 1)
	if err := w.DestroyOutputPanel(L.CheckString(2)); err != nil {
		L.RaiseError("destroy_output_panel: %v", err)
		return 0
	}
	return 0
}

// output_panels(win) -> {names}
func (m *WindowModule) outputPanels(L *lua.LState) int {
	w := m.ctx.window(L, 1)
	t := L.NewTable()
	for i, name := range w.OutputPanels() {
		t.RawSetInt(i+1, lua.LString(name))
	}
	L.Push(t)
	return 1
}

// show_output_panel(win, name)
func (m *WindowModule) showOutputPanel(L *lua.LState) int {
	w := m.ctx.window(L, 1)
	if err := w.ShowOutputPanel(L.CheckString(2)); err != nil {
		L.RaiseError("show_output_panel: %v", err)
		return 0
	}
	return 0
}

// hide_output_panel(win)
func (m *WindowModule) hideOutputPanel(L *lua.LState) int {
	w := m.ctx.window(L, 1)
	w.HideOutputPanel()
	return 0
}

// active_panel(win) -> name|nil
func (m *WindowModule) activePanel(L *lua.LState) int {
	w := m.ctx.window(L, 1)
	name, ok := w.ActivePanel()
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LString(name))
	return 1
}

// show_input_panel(win, caption, initial, on_done?, on_change?, on_cancel?) -> view_id
// Callback arguments arrive on the host loop.
func (m *WindowModule) showInputPanel(L *lua.LState) int {
	w := m.ctx.window(L, 1)
	caption := L.CheckString(2)
	initial := L.OptString(3, "")
	onDone := optFunction(L, 4)
	onChange := optFunction(L, 5)
	onCancel := optFunction(L, 6)

	var doneFn, changeFn func(string)
	var cancelFn func()
	if onDone != nil {
		doneFn = func(s string) { m.ctx.invoke(L, onDone, lua.LString(s)) }
	}
	if onChange != nil {
		changeFn = func(s string) { m.ctx.invoke(L, onChange, lua.LString(s)) }
	}
	if onCancel != nil {
		cancelFn = func() { m.ctx.invoke(L, onCancel) }
	}

	v, err := w.ShowInputPanel(caption, initial, doneFn, changeFn, cancelFn)
	if err != nil {
		L.RaiseError("show_input_panel: %v", err)
		return 0
	}
	L.Push(lua.LNumber(v.ID()))
	return 1
}

// show_quick_panel(win, items, on_select, flags?, selected?, on_highlight?)
// Items are strings or tables with label and annotation fields. The
// select callback gets a zero-based index, -1 on cancel.
func (m *WindowModule) showQuickPanel(L *lua.LState) int {
	w := m.ctx.window(L, 1)
	items := checkQuickItems(L, 2)
	onSelect := L.CheckFunction(3)
	flags := host.QuickPanelFlags(L.OptInt(4, 0))
	selected := L.OptInt(5, -1)
	onHighlight := optFunction(L, 6)

	selectFn := func(i int) { m.ctx.invoke(L, onSelect, lua.LNumber(i)) }
	var highlightFn func(int)
	if onHighlight != nil {
		highlightFn = func(i int) { m.ctx.invoke(L, onHighlight, lua.LNumber(i)) }
	}

	if err := w.ShowQuickPanel(items, selectFn, flags, selected, highlightFn); err != nil {
		L.RaiseError("show_quick_panel: %v", err)
		return 0
	}
	return 0
}

func checkQuickItems(L *lua.LState, idx int) []host.QuickPanelItem {
	t := L.CheckTable(idx)
	n := t.MaxN()
	items := make([]host.QuickPanelItem, 0, n)
	for i := 1; i <= n; i++ {
		switch v := t.RawGetInt(i).(type) {
		case lua.LString:
			items = append(items, host.QuickPanelItem{Label: string(v)})
		case *lua.LTable:
			var item host.QuickPanelItem
			if label, ok := v.RawGetString("label").(lua.LString); ok {
				item.Label = string(label)
			}
			if ann, ok := v.RawGetString("annotation").(lua.LString); ok {
				item.Annotation = string(ann)
			}
			items = append(items, item)
		default:
			L.ArgError(idx, "items must be strings or tables")
			return nil
		}
	}
	return items
}

func optFunction(L *lua.LState, idx int) *lua.LFunction {
	v := L.Get(idx)
	if v == lua.LNil {
		return nil
	}
	fn, ok := v.(*lua.LFunction)
	if !ok {
		L.ArgError(idx, "function expected")
		return nil
	}
	return fn
}

// project_file_name(win) -> path|nil
func (m *WindowModule) projectFileName(L *lua.LState) int {
	w := m.ctx.window(L, 1)
	path, ok := w.ProjectFileName()
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LString(path))
	return 1
}

// open_project(win, path)
func (m *WindowModule) openProject(L *lua.LState) int {
	w := m.ctx.window(L, 1)
	if err := w.OpenProject(L.CheckString(2)); err != nil {
		L.RaiseError("open_project: %v", err)
		return 0
	}
	return 0
}

// save_project(win)
func (m *WindowModule) saveProject(L *lua.LState) int {
	w := m.ctx.window(L, 1)
	if err := w.SaveProject(); err != nil {
		L.RaiseError("save_project: %v", err)
		return 0
	}
	return 0
}

// project_data(win) -> value|nil
func (m *WindowModule) projectData(L *lua.LState) int {
	w := m.ctx.window(L, 1)
	data, ok := w.ProjectData()
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(toLua(L, data))
	return 1
}

// set_project_data(win, value)
func (m *WindowModule) setProjectData(L *lua.LState) int {
	w := m.ctx.window(L, 1)
	if err := w.SetProjectData(toGo(L.Get(2))); err != nil {
		L.RaiseError("set_project_data: %v", err)
		return 0
	}
	return 0
}

// project_value(win, path) -> value|nil
// Reads one dotted-path entry from the project data.
func (m *WindowModule) projectValue(L *lua.LState) int {
	w := m.ctx.window(L, 1)
	v, ok := w.ProjectValue(L.CheckString(2))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(toLua(L, v))
	return 1
}

// set_project_value(win, path, value)
func (m *WindowModule) setProjectValue(L *lua.LState) int {
	w := m.ctx.window(L, 1)
	path := L.CheckString(2)
	if err := w.SetProjectValue(path, toGo(L.Get(3))); err != nil {
		L.RaiseError("set_project_value: %v", err)
		return 0
	}
	return 0
}

// folders(win) -> {paths}
func (m *WindowModule) folders(L *lua.LState) int {
	w := m.ctx.window(L, 1)
	t := L.NewTable()
	for i, path := range w.Folders() {
		t.RawSetInt(i+1, lua.LString(path))
	}
	L.Push(t)
	return 1
}

// add_folder(win, path)
func (m *WindowModule) addFolder(L *lua.LState) int {
	w := m.ctx.window(L, 1)
	if err := w.AddFolder(L.CheckString(2)); err != nil {
		L.RaiseError("add_folder: %v", err)
		return 0
	}
	return 0
}

// extract_variables(win) -> {name=value}
func (m *WindowModule) extractVariables(L *lua.LState) int {
	w := m.ctx.window(L, 1)
	L.Push(toLua(L, w.ExtractVariables()))
	return 1
}
