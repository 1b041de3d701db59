package script

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/stormhost/internal/host"
	"github.com/dshills/stormhost/internal/settings"
	"github.com/dshills/stormhost/internal/text"
	"github.com/dshills/stormhost/internal/value"
)

func TestHostModule_StatusAndDialogs(t *testing.T) {
	f := &fakeFrontend{okCancelReply: true, yesNoReply: host.DialogNo}
	st, _, _ := newScriptTest(t, host.WithFrontend(f))

	err := st.DoString(`
		storm.host.status_message("indexing")
		storm.host.message_dialog("done")
		storm.host.error_dialog("went wrong")
		assert(storm.host.ok_cancel_dialog("Delete?", "Delete") == true)
		assert(storm.host.yes_no_cancel_dialog("Save?", "Save", "Discard") == "no")
	`)
	if err != nil {
		t.Fatalf("DoString error = %v", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.statuses) != 1 || f.statuses[0] != "indexing" {
		t.Errorf("statuses = %q", f.statuses)
	}
	if len(f.messages) != 1 || f.messages[0] != "done" {
		t.Errorf("messages = %q", f.messages)
	}
	if len(f.errs) != 1 || f.errs[0] != "went wrong" {
		t.Errorf("errs = %q", f.errs)
	}
}

func TestHostModule_DialogDefaultsCancel(t *testing.T) {
	// The null frontend declines everything.
	st, _, _ := newScriptTest(t)

	err := st.DoString(`
		assert(storm.host.ok_cancel_dialog("Proceed?") == false)
		assert(storm.host.yes_no_cancel_dialog("Keep?") == "cancel")
	`)
	if err != nil {
		t.Errorf("DoString error = %v", err)
	}
}

func TestHostModule_BuildInfo(t *testing.T) {
	st, _, _ := newScriptTest(t, host.WithInfo(host.Info{
		Version:  "1.2.0",
		Build:    "4100",
		Channel:  "dev",
		Platform: "linux",
		Arch:     "x64",
	}))

	err := st.DoString(`
		assert(storm.host.version() == "1.2.0")
		assert(storm.host.platform() == "linux")
		assert(storm.host.arch() == "x64")
		assert(storm.host.channel() == "dev")
	`)
	if err != nil {
		t.Errorf("DoString error = %v", err)
	}
}

func TestHostModule_Clipboard(t *testing.T) {
	st, _, h := newScriptTest(t)

	err := st.DoString(`
		assert(storm.host.get_clipboard() == "", "clipboard should start empty")
		storm.host.set_clipboard("copied text")
		assert(storm.host.get_clipboard() == "copied text")
	`)
	if err != nil {
		t.Fatalf("DoString error = %v", err)
	}
	if got := h.Clipboard(); got != "copied text" {
		t.Errorf("Clipboard() = %q, want %q", got, "copied text")
	}
}

func TestHostModule_SetTimeoutRunsInOrder(t *testing.T) {
	st, _, h := newScriptTest(t)

	// The loop starts after the chunk, so both callbacks queue and run
	// in posting order once it does.
	err := st.DoString(`
		order = {}
		storm.host.set_timeout(function() order[#order + 1] = "first" end)
		storm.host.set_timeout(function() order[#order + 1] = "second" end, 0)
		assert(#order == 0, "callbacks must not run inside set_timeout")
	`)
	if err != nil {
		t.Fatalf("DoString error = %v", err)
	}

	startLoop(t, h)
	drain(t, h)

	err = st.DoString(`
		assert(#order == 2, "order = " .. #order)
		assert(order[1] == "first" and order[2] == "second")
	`)
	if err != nil {
		t.Errorf("DoString error = %v", err)
	}
}

func TestHostModule_SetTimeoutDelayed(t *testing.T) {
	f := &fakeFrontend{}
	st, _, h := newScriptTest(t, host.WithFrontend(f))

	err := st.DoString(`
		ticked, ticked_async = false, false
		storm.host.set_timeout(function()
			ticked = true
			storm.host.status_message("tick")
		end, 5)
		storm.host.set_timeout_async(function()
			ticked_async = true
			storm.host.status_message("tock")
		end, 1)
	`)
	if err != nil {
		t.Fatalf("DoString error = %v", err)
	}

	startLoop(t, h)

	deadline := time.Now().Add(2 * time.Second)
	for {
		f.mu.Lock()
		n := len(f.statuses)
		f.mu.Unlock()
		if n >= 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("timers did not fire, statuses = %d", n)
		}
		time.Sleep(time.Millisecond)
	}
	drain(t, h)

	if got := st.Global("ticked"); got != lua.LTrue {
		t.Errorf("ticked = %v, want true", got)
	}
	if got := st.Global("ticked_async"); got != lua.LTrue {
		t.Errorf("ticked_async = %v, want true", got)
	}
}

func TestHostModule_EncodeDecode(t *testing.T) {
	st, _, _ := newScriptTest(t)

	err := st.DoString(`
		local encoded = storm.host.encode({name = "storm", count = 3, tags = {"a", "b"}})
		local back = storm.host.decode(encoded)
		assert(back.name == "storm")
		assert(back.count == 3)
		assert(#back.tags == 2 and back.tags[1] == "a" and back.tags[2] == "b")

		assert(storm.host.encode(nil) == "null")
		assert(storm.host.decode("null") == nil)

		local v = storm.host.decode('{"n": 2.5, "ok": true, "list": [1, null]}')
		assert(v.n == 2.5 and v.ok == true)
		assert(v.list[1] == 1)

		local pretty = storm.host.encode({a = 1}, true)
		assert(string.find(pretty, "\n", 1, true), "pretty output should span lines")

		local ok, err = pcall(storm.host.decode, "{broken")
		assert(not ok, "invalid JSON should raise")
		assert(string.find(err, "decode", 1, true), "error = " .. tostring(err))
	`)
	if err != nil {
		t.Errorf("DoString error = %v", err)
	}
}

func TestHostModule_ExpandVariables(t *testing.T) {
	st, _, _ := newScriptTest(t)

	err := st.DoString(`
		local vars = {file = "main.go", platform = "linux"}
		assert(storm.host.expand_variables("build ${file} on ${platform}", vars)
			== "build main.go on linux")
		assert(storm.host.expand_variables("$file", vars) == "main.go")
		assert(storm.host.expand_variables("${missing} stays", vars) == "${missing} stays")

		local out = storm.host.expand_variables({
			cmd = "run ${file}",
			depth = 2,
			nested = {"${platform}"},
		}, vars)
		assert(out.cmd == "run main.go")
		assert(out.depth == 2)
		assert(out.nested[1] == "linux")
	`)
	if err != nil {
		t.Errorf("DoString error = %v", err)
	}
}

func TestHostModule_Resources(t *testing.T) {
	root1 := t.TempDir()
	root2 := t.TempDir()
	write := func(root, name, content string) {
		t.Helper()
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("MkdirAll error = %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile error = %v", err)
		}
	}
	write(root1, "User/init.lua", "-- user init\n")
	write(root2, "User/init.lua", "-- shadowed\n")
	write(root2, "Theme/dark.storm-theme", `{"bg": "black"}`)
	write(root2, ".hidden/skip.lua", "-- never found\n")

	st, _, _ := newScriptTest(t, host.WithPackagesPath(root1, root2))
	st.SetGlobal("root1", lua.LString(root1))
	st.SetGlobal("root2", lua.LString(root2))

	err := st.DoString(`
		-- The earliest configured root wins for shadowed names.
		assert(storm.host.load_resource("User/init.lua") == "-- user init\n")
		assert(storm.host.load_binary_resource("Theme/dark.storm-theme") == '{"bg": "black"}')
		assert(storm.host.load_resource("User/missing.lua") == nil)

		local lua_files = storm.host.find_resources("*.lua")
		assert(#lua_files == 1 and lua_files[1] == "User/init.lua",
			"find_resources = " .. #lua_files)
		local themes = storm.host.find_resources("*.storm-theme")
		assert(#themes == 1 and themes[1] == "Theme/dark.storm-theme")

		local paths = storm.host.packages_paths()
		assert(#paths == 2 and paths[1] == root1 and paths[2] == root2)
	`)
	if err != nil {
		t.Errorf("DoString error = %v", err)
	}
}

func TestHostModule_RunCommandAndLog(t *testing.T) {
	var buf bytes.Buffer
	st, _, h := newScriptTest(t, host.WithCommandLog(&buf))

	calls := 0
	var gotWho any
	h.Commands().RegisterApplication("greet", host.ApplicationCommandFunc(func(_ *host.Host, args map[string]any) error {
		calls++
		if gotWho == nil {
			gotWho = args["who"]
		}
		return nil
	}))

	err := st.DoString(`
		storm.host.log_commands()
		storm.host.run_command("greet", {who = "moon"})
		storm.host.log_commands(false)
		storm.host.run_command("greet")

		local ok, err = pcall(storm.host.run_command, "no_such_command")
		assert(not ok, "unknown command should raise")
		assert(string.find(err, "no_such_command", 1, true), "error = " .. tostring(err))
	`)
	if err != nil {
		t.Fatalf("DoString error = %v", err)
	}

	if calls != 2 {
		t.Errorf("command ran %d times, want 2", calls)
	}
	if gotWho != "moon" {
		t.Errorf("args who = %v, want moon", gotWho)
	}
	log := buf.String()
	if !strings.Contains(log, "command: application greet") {
		t.Errorf("log missing command line: %q", log)
	}
	if !strings.Contains(log, `"who":"moon"`) {
		t.Errorf("log missing encoded args: %q", log)
	}
	if got := strings.Count(log, "greet"); got != 1 {
		t.Errorf("log has %d greet lines, want 1 (logging was disabled)", got)
	}
}

func TestHostModule_Macros(t *testing.T) {
	st, h, _ := newWindowTest(t)

	h.Commands().RegisterText("type_x", host.TextCommandFunc(func(v *host.View, e *host.Edit, _ map[string]any) error {
		size, err := v.Size()
		if err != nil {
			return err
		}
		_, err = v.Insert(e, text.Point(size), "x")
		return err
	}))
	h.Commands().RegisterApplication("noop", host.ApplicationCommandFunc(func(*host.Host, map[string]any) error {
		return nil
	}))

	err := st.DoString(`
		assert(not storm.host.is_recording_macro())
		assert(#storm.host.get_macro() == 0, "no macro saved yet")

		local v = storm.window.new_file(w)
		storm.host.start_macro_recording()
		assert(storm.host.is_recording_macro())

		storm.view.run_command(v, "type_x")
		storm.view.run_command(v, "type_x")
		storm.host.run_command("noop")

		local steps = storm.host.stop_macro_recording()
		assert(not storm.host.is_recording_macro())
		assert(#steps == 2, "application commands must not record, steps = " .. #steps)
		assert(steps[1].command == "type_x" and steps[2].command == "type_x")
		assert(#storm.host.get_macro() == 2)

		storm.host.run_macro()
		local size = storm.view.size(v)
		assert(storm.view.substr(v, {a = 0, b = size}) == "xxxx",
			"replay should repeat the recorded edits")

		-- An empty recording keeps the previously saved macro.
		storm.host.start_macro_recording()
		local empty = storm.host.stop_macro_recording()
		assert(#empty == 0)
		assert(#storm.host.get_macro() == 2)
	`)
	if err != nil {
		t.Errorf("DoString error = %v", err)
	}
}

func TestHostModule_RunMacroWithoutWindow(t *testing.T) {
	st, _, _ := newScriptTest(t)

	err := st.DoString(`
		local ok, err = pcall(storm.host.run_macro)
		assert(not ok, "run_macro without a window should raise")
		assert(string.find(err, "window", 1, true), "error = " .. tostring(err))
	`)
	if err != nil {
		t.Errorf("DoString error = %v", err)
	}
}

func TestHostModule_WindowManagement(t *testing.T) {
	st, _, h := newScriptTest(t)

	err := st.DoString(`
		assert(#storm.host.windows() == 0)
		assert(storm.host.active_window() == nil)

		local a = storm.host.new_window()
		assert(storm.host.active_window() == a, "first window becomes active")

		local b = storm.host.new_window()
		local wins = storm.host.windows()
		assert(#wins == 2 and wins[1] == a and wins[2] == b)
		assert(storm.host.active_window() == a, "creating a window does not move focus")
	`)
	if err != nil {
		t.Fatalf("DoString error = %v", err)
	}
	if got := len(h.Windows()); got != 2 {
		t.Errorf("Windows() = %d, want 2", got)
	}
}

func TestHostModule_LoadAndSaveSettings(t *testing.T) {
	dir := t.TempDir()
	defaults := filepath.Join(dir, "defaults")
	user := filepath.Join(dir, "user")
	if err := os.MkdirAll(defaults, 0o755); err != nil {
		t.Fatalf("MkdirAll error = %v", err)
	}
	base := filepath.Join(defaults, "Stormfmt.storm-settings")
	if err := os.WriteFile(base, []byte(`{"width": 80, "theme": "dark"}`), 0o644); err != nil {
		t.Fatalf("WriteFile error = %v", err)
	}

	reg := settings.NewRegistry(defaults, user)
	st, _, _ := newScriptTest(t, host.WithSettingsRegistry(reg))

	err := st.DoString(`
		local s = storm.host.load_settings("Stormfmt.storm-settings")
		assert(storm.settings.get(s, "width") == 80)
		assert(storm.settings.get(s, "theme") == "dark")

		-- The same name resolves to the same shared object.
		assert(storm.host.load_settings("Stormfmt.storm-settings") == s)

		storm.settings.set(s, "width", 100)
		storm.host.save_settings("Stormfmt.storm-settings")

		local ok, err = pcall(storm.host.save_settings, "Never.storm-settings")
		assert(not ok, "saving an unloaded name should raise")
		assert(string.find(err, "Never", 1, true), "error = " .. tostring(err))
	`)
	if err != nil {
		t.Fatalf("DoString error = %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(user, "Stormfmt.storm-settings"))
	if err != nil {
		t.Fatalf("ReadFile error = %v", err)
	}
	saved, err := value.Decode(string(raw))
	if err != nil {
		t.Fatalf("Decode error = %v", err)
	}
	m, ok := saved.(map[string]any)
	if !ok {
		t.Fatalf("saved settings are %T, want object", saved)
	}
	if m["width"] != int64(100) {
		t.Errorf("saved width = %v, want 100", m["width"])
	}
	if _, ok := m["theme"]; ok {
		t.Error("save should write only the user layer, found theme")
	}
}

func TestHostModule_LoadSettingsReportsParseErrors(t *testing.T) {
	dir := t.TempDir()
	defaults := filepath.Join(dir, "defaults")
	if err := os.MkdirAll(defaults, 0o755); err != nil {
		t.Fatalf("MkdirAll error = %v", err)
	}
	bad := filepath.Join(defaults, "Broken.storm-settings")
	if err := os.WriteFile(bad, []byte("{oops"), 0o644); err != nil {
		t.Fatalf("WriteFile error = %v", err)
	}

	reg := settings.NewRegistry(defaults, filepath.Join(dir, "user"))
	st, _, _ := newScriptTest(t, host.WithSettingsRegistry(reg))

	err := st.DoString(`
		local ok, err = pcall(storm.host.load_settings, "Broken.storm-settings")
		assert(not ok, "malformed settings should raise")
		assert(string.find(err, "Broken", 1, true), "error = " .. tostring(err))
	`)
	if err != nil {
		t.Errorf("DoString error = %v", err)
	}
}
