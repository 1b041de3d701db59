package script

import (
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/stormhost/internal/host"
	"github.com/dshills/stormhost/internal/value"
)

// HostModule implements storm.host: application-level operations that
// need no window or view handle.
type HostModule struct {
	ctx *Context
}

// NewHostModule creates the storm.host module.
func NewHostModule(ctx *Context) *HostModule {
	return &HostModule{ctx: ctx}
}

// Name returns the module name.
func (m *HostModule) Name() string { return "host" }

// RequiredCapability returns the capability required for this module.
// The host facet is always available.
func (m *HostModule) RequiredCapability() Capability { return "" }

// Register registers the module into the Lua state.
func (m *HostModule) Register(L *lua.LState) error {
	mod := L.NewTable()

	L.SetField(mod, "status_message", L.NewFunction(m.statusMessage))
	L.SetField(mod, "message_dialog", L.NewFunction(m.messageDialog))
	L.SetField(mod, "error_dialog", L.NewFunction(m.errorDialog))
	L.SetField(mod, "ok_cancel_dialog", L.NewFunction(m.okCancelDialog))
	L.SetField(mod, "yes_no_cancel_dialog", L.NewFunction(m.yesNoCancelDialog))

	L.SetField(mod, "get_clipboard", L.NewFunction(m.getClipboard))
	L.SetField(mod, "set_clipboard", L.NewFunction(m.setClipboard))

	L.SetField(mod, "set_timeout", L.NewFunction(m.setTimeout))
	L.SetField(mod, "set_timeout_async", L.NewFunction(m.setTimeoutAsync))

	L.SetField(mod, "encode", L.NewFunction(m.encode))
	L.SetField(mod, "decode", L.NewFunction(m.decode))
	L.SetField(mod, "expand_variables", L.NewFunction(m.expandVariables))

	L.SetField(mod, "load_resource", L.NewFunction(m.loadResource))
	L.SetField(mod, "load_binary_resource", L.NewFunction(m.loadBinaryResource))
	L.SetField(mod, "find_resources", L.NewFunction(m.findResources))
	L.SetField(mod, "packages_paths", L.NewFunction(m.packagesPaths))

	L.SetField(mod, "run_command", L.NewFunction(m.runCommand))
	L.SetField(mod, "log_commands", L.NewFunction(m.logCommands))

	L.SetField(mod, "start_macro_recording", L.NewFunction(m.startMacroRecording))
	L.SetField(mod, "stop_macro_recording", L.NewFunction(m.stopMacroRecording))
	L.SetField(mod, "is_recording_macro", L.NewFunction(m.isRecordingMacro))
	L.SetField(mod, "get_macro", L.NewFunction(m.getMacro))
	L.SetField(mod, "run_macro", L.NewFunction(m.runMacro))

	L.SetField(mod, "windows", L.NewFunction(m.windows))
	L.SetField(mod, "active_window", L.NewFunction(m.activeWindow))
	L.SetField(mod, "new_window", L.NewFunction(m.newWindow))

	L.SetField(mod, "load_settings", L.NewFunction(m.loadSettings))
	L.SetField(mod, "save_settings", L.NewFunction(m.saveSettings))

	L.SetField(mod, "version", L.NewFunction(m.version))
	L.SetField(mod, "platform", L.NewFunction(m.platform))
	L.SetField(mod, "arch", L.NewFunction(m.arch))
	L.SetField(mod, "channel", L.NewFunction(m.channel))

	L.SetGlobal("_storm_host", mod)
	return nil
}

// status_message(message)
func (m *HostModule) statusMessage(L *lua.LState) int {
	m.ctx.host.StatusMessage(L.CheckString(1))
	return 0
}

// message_dialog(message)
func (m *HostModule) messageDialog(L *lua.LState) int {
	m.ctx.host.MessageDialog(L.CheckString(1))
	return 0
}

// error_dialog(message)
func (m *HostModule) errorDialog(L *lua.LState) int {
	m.ctx.host.ErrorDialog(L.CheckString(1))
	return 0
}

// ok_cancel_dialog(message, ok_title?) -> bool
func (m *HostModule) okCancelDialog(L *lua.LState) int {
	message := L.CheckString(1)
	okTitle := L.OptString(2, "")
	L.Push(lua.LBool(m.ctx.host.OKCancelDialog(message, okTitle)))
	return 1
}

// yes_no_cancel_dialog(message, yes_title?, no_title?) -> "yes"|"no"|"cancel"
func (m *HostModule) yesNoCancelDialog(L *lua.LState) int {
	message := L.CheckString(1)
	yesTitle := L.OptString(2, "")
	noTitle := L.OptString(3, "")
	L.Push(lua.LString(dialogResultString(m.ctx.host.YesNoCancelDialog(message, yesTitle, noTitle))))
	return 1
}

func dialogResultString(r host.DialogResult) string {
	switch r {
	case host.DialogYes:
		return "yes"
	case host.DialogNo:
		return "no"
	default:
		return "cancel"
	}
}

// get_clipboard() -> string
func (m *HostModule) getClipboard(L *lua.LState) int {
	L.Push(lua.LString(m.ctx.host.Clipboard()))
	return 1
}

// set_clipboard(text)
func (m *HostModule) setClipboard(L *lua.LState) int {
	m.ctx.host.SetClipboard(L.CheckString(1))
	return 0
}

// set_timeout(fn, delay_ms?)
// Runs fn on the host loop after the delay.
func (m *HostModule) setTimeout(L *lua.LState) int {
	fn := L.CheckFunction(1)
	ms := L.OptInt(2, 0)
	if ms <= 0 {
		m.ctx.post(L, fn)
		return 0
	}
	m.ctx.host.Loop().PostDelayed(func() {
		m.ctx.invoke(L, fn)
	}, time.Duration(ms)*time.Millisecond)
	return 0
}

// set_timeout_async(fn, delay_ms?)
// The Lua state is loop-confined, so the async variant only moves the
// wait onto the worker pool; fn itself still runs on the loop.
func (m *HostModule) setTimeoutAsync(L *lua.LState) int {
	fn := L.CheckFunction(1)
	ms := L.OptInt(2, 0)
	m.ctx.host.Loop().RunAsyncDelayed(func() {
		m.ctx.post(L, fn)
	}, time.Duration(ms)*time.Millisecond)
	return 0
}

// encode(value, pretty?) -> string
func (m *HostModule) encode(L *lua.LState) int {
	v := toGo(L.Get(1))
	pretty := L.OptBool(2, false)

	var s string
	var err error
	if pretty {
		s, err = value.EncodePretty(v)
	} else {
		s, err = value.Encode(v)
	}
	if err != nil {
		L.RaiseError("encode: %v", err)
		return 0
	}
	L.Push(lua.LString(s))
	return 1
}

// decode(text) -> value
func (m *HostModule) decode(L *lua.LState) int {
	v, err := value.Decode(L.CheckString(1))
	if err != nil {
		L.RaiseError("decode: %v", err)
		return 0
	}
	L.Push(toLua(L, v))
	return 1
}

// expand_variables(value, variables) -> value
// Replaces ${name} references in strings with entries from the
// variables table. Unknown names stay literal.
func (m *HostModule) expandVariables(L *lua.LState) int {
	v := toGo(L.Get(1))
	t := L.CheckTable(2)

	vars := make(map[string]string)
	t.ForEach(func(k, val lua.LValue) {
		ks, kok := k.(lua.LString)
		vs, vok := val.(lua.LString)
		if kok && vok {
			vars[string(ks)] = string(vs)
		}
	})

	L.Push(toLua(L, value.ExpandVariables(v, vars)))
	return 1
}

// load_resource(name) -> string|nil
func (m *HostModule) loadResource(L *lua.LState) int {
	s, ok := m.ctx.host.LoadResource(L.CheckString(1))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LString(s))
	return 1
}

// load_binary_resource(name) -> string|nil
func (m *HostModule) loadBinaryResource(L *lua.LState) int {
	b, ok := m.ctx.host.LoadBinaryResource(L.CheckString(1))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LString(b))
	return 1
}

// find_resources(pattern) -> {names}
func (m *HostModule) findResources(L *lua.LState) int {
	names := m.ctx.host.FindResources(L.CheckString(1))
	t := L.NewTable()
	for i, name := range names {
		t.RawSetInt(i+1, lua.LString(name))
	}
	L.Push(t)
	return 1
}

// packages_paths() -> {paths}
func (m *HostModule) packagesPaths(L *lua.LState) int {
	t := L.NewTable()
	for i, p := range m.ctx.host.PackagesPaths() {
		t.RawSetInt(i+1, lua.LString(p))
	}
	L.Push(t)
	return 1
}

// run_command(name, args?)
// Runs an application command, falling back to the active window's
// scope chain.
func (m *HostModule) runCommand(L *lua.LState) int {
	name := L.CheckString(1)
	args := checkArgs(L, 2)
	if err := m.ctx.host.RunCommand(name, args); err != nil {
		L.RaiseError("run_command: %v", err)
		return 0
	}
	return 0
}

// log_commands(enabled?)
func (m *HostModule) logCommands(L *lua.LState) int {
	m.ctx.host.LogCommands(L.OptBool(1, true))
	return 0
}

// start_macro_recording()
func (m *HostModule) startMacroRecording(L *lua.LState) int {
	m.ctx.host.StartMacroRecording()
	return 0
}

// stop_macro_recording() -> {steps}
func (m *HostModule) stopMacroRecording(L *lua.LState) int {
	L.Push(macroToLua(L, m.ctx.host.StopMacroRecording()))
	return 1
}

// is_recording_macro() -> bool
func (m *HostModule) isRecordingMacro(L *lua.LState) int {
	L.Push(lua.LBool(m.ctx.host.IsRecordingMacro()))
	return 1
}

// get_macro() -> {steps}
func (m *HostModule) getMacro(L *lua.LState) int {
	L.Push(macroToLua(L, m.ctx.host.GetMacro()))
	return 1
}

// run_macro()
func (m *HostModule) runMacro(L *lua.LState) int {
	if err := m.ctx.host.RunMacro(); err != nil {
		L.RaiseError("run_macro: %v", err)
		return 0
	}
	return 0
}

func macroToLua(L *lua.LState, steps []host.MacroStep) *lua.LTable {
	t := L.NewTable()
	for i, step := range steps {
		entry := L.NewTable()
		entry.RawSetString("command", lua.LString(step.Command))
		if step.Args != nil {
			entry.RawSetString("args", toLua(L, step.Args))
		}
		t.RawSetInt(i+1, entry)
	}
	return t
}

// windows() -> {window_ids}
func (m *HostModule) windows(L *lua.LState) int {
	t := L.NewTable()
	for i, w := range m.ctx.host.Windows() {
		t.RawSetInt(i+1, lua.LNumber(w.ID()))
	}
	L.Push(t)
	return 1
}

// active_window() -> window_id|nil
func (m *HostModule) activeWindow(L *lua.LState) int {
	w := m.ctx.host.ActiveWindow()
	if w == nil {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LNumber(w.ID()))
	return 1
}

// new_window() -> window_id
func (m *HostModule) newWindow(L *lua.LState) int {
	L.Push(lua.LNumber(m.ctx.host.NewWindow().ID()))
	return 1
}

// load_settings(basename) -> settings_id
func (m *HostModule) loadSettings(L *lua.LState) int {
	st, err := m.ctx.host.LoadSettings(L.CheckString(1))
	if err != nil {
		L.RaiseError("load_settings: %v", err)
		return 0
	}
	L.Push(lua.LNumber(st.ID()))
	return 1
}

// save_settings(basename)
func (m *HostModule) saveSettings(L *lua.LState) int {
	if err := m.ctx.host.SaveSettings(L.CheckString(1)); err != nil {
		L.RaiseError("save_settings: %v", err)
		return 0
	}
	return 0
}

// version() -> string
func (m *HostModule) version(L *lua.LState) int {
	L.Push(lua.LString(m.ctx.host.Version()))
	return 1
}

// platform() -> "linux"|"osx"|"windows"
func (m *HostModule) platform(L *lua.LState) int {
	L.Push(lua.LString(m.ctx.host.Platform()))
	return 1
}

// arch() -> string
func (m *HostModule) arch(L *lua.LState) int {
	L.Push(lua.LString(m.ctx.host.Arch()))
	return 1
}

// channel() -> string
func (m *HostModule) channel(L *lua.LState) int {
	L.Push(lua.LString(m.ctx.host.Channel()))
	return 1
}
