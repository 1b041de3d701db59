package script

import (
	"testing"

	lua "github.com/yuin/gopher-lua"
)

func TestSettingsModule_RoundTrip(t *testing.T) {
	st, _, _ := newViewTest(t, "")

	err := st.DoString(`
		local s = storm.view.settings(v)

		storm.settings.set(s, "tab_size", 4)
		storm.settings.set(s, "trim_trailing", true)
		storm.settings.set(s, "rulers", {72, 100})
		storm.settings.set(s, "font", {face = "mono", size = 11.5})

		assert(storm.settings.get(s, "tab_size") == 4, "number")
		assert(storm.settings.get(s, "trim_trailing") == true, "bool")
		assert(storm.settings.get(s, "rulers")[2] == 100, "list")
		assert(storm.settings.get(s, "font").face == "mono", "map")

		assert(storm.settings.has(s, "tab_size"), "has")
		assert(storm.settings.get(s, "missing") == nil, "missing key is nil")

		storm.settings.erase(s, "tab_size")
		assert(not storm.settings.has(s, "tab_size"), "erased")
	`)
	if err != nil {
		t.Errorf("DoString error = %v", err)
	}
}

func TestSettingsModule_GetDefault(t *testing.T) {
	st, _, _ := newViewTest(t, "")

	err := st.DoString(`
		local s = storm.view.settings(v)
		assert(storm.settings.get(s, "word_wrap", false) == false, "default for missing key")
		storm.settings.set(s, "word_wrap", true)
		assert(storm.settings.get(s, "word_wrap", false) == true, "stored value beats the default")
	`)
	if err != nil {
		t.Errorf("DoString error = %v", err)
	}
}

func TestSettingsModule_ParentFallThrough(t *testing.T) {
	st, _, _ := newViewTest(t, "")

	err := st.DoString(`
		local prefs = storm.host.load_settings("Preferences.storm-settings")
		local s = storm.view.settings(v)

		storm.settings.set(prefs, "font_size", 12)
		assert(storm.settings.get(s, "font_size") == 12, "view settings fall through to preferences")

		storm.settings.set(s, "font_size", 14)
		assert(storm.settings.get(s, "font_size") == 14, "view layer shadows")
		assert(storm.settings.get(prefs, "font_size") == 12, "preferences keep their own value")

		storm.settings.erase(s, "font_size")
		assert(storm.settings.get(s, "font_size") == 12, "erase uncovers the parent value")
	`)
	if err != nil {
		t.Errorf("DoString error = %v", err)
	}
}

func TestSettingsModule_ToMapMergesParent(t *testing.T) {
	st, _, _ := newViewTest(t, "")

	err := st.DoString(`
		local prefs = storm.host.load_settings("Preferences.storm-settings")
		local s = storm.view.settings(v)

		storm.settings.set(prefs, "theme", "dark")
		storm.settings.set(prefs, "tab_size", 8)
		storm.settings.set(s, "tab_size", 2)

		local m = storm.settings.to_map(s)
		assert(m.theme == "dark", "parent entry present")
		assert(m.tab_size == 2, "own entry shadows the parent")
	`)
	if err != nil {
		t.Errorf("DoString error = %v", err)
	}
}

func TestSettingsModule_OnChangeFires(t *testing.T) {
	st, h, v := newViewTest(t, "")
	startLoop(t, h)

	err := st.DoString(`
		count = 0
		local s = storm.view.settings(v)
		storm.settings.add_on_change(s, "probe", function() count = count + 1 end)
	`)
	if err != nil {
		t.Fatalf("DoString error = %v", err)
	}

	vs, err := v.Settings()
	if err != nil {
		t.Fatalf("Settings() error = %v", err)
	}
	vs.Set("indent", int64(2))
	drain(t, h)

	if got := st.Global("count"); got != lua.LNumber(1) {
		t.Errorf("count = %v, want 1", got)
	}
}

func TestSettingsModule_UpdateNotifiesOnce(t *testing.T) {
	st, h, v := newViewTest(t, "")
	startLoop(t, h)

	err := st.DoString(`
		count = 0
		local s = storm.view.settings(v)
		storm.settings.add_on_change(s, "probe", function() count = count + 1 end)
	`)
	if err != nil {
		t.Fatalf("DoString error = %v", err)
	}

	vs, err := v.Settings()
	if err != nil {
		t.Fatalf("Settings() error = %v", err)
	}
	vs.Update(map[string]any{"a": int64(1), "b": int64(2)})
	drain(t, h)

	if got := st.Global("count"); got != lua.LNumber(1) {
		t.Errorf("count = %v, want one notification for the whole batch", got)
	}
}

func TestSettingsModule_ListenersStackUnderTag(t *testing.T) {
	st, h, v := newViewTest(t, "")
	startLoop(t, h)

	err := st.DoString(`
		count = 0
		local s = storm.view.settings(v)
		storm.settings.add_on_change(s, "probe", function() count = count + 1 end)
		storm.settings.add_on_change(s, "probe", function() count = count + 10 end)
	`)
	if err != nil {
		t.Fatalf("DoString error = %v", err)
	}

	vs, err := v.Settings()
	if err != nil {
		t.Fatalf("Settings() error = %v", err)
	}
	vs.Set("k", int64(1))
	drain(t, h)

	if got := st.Global("count"); got != lua.LNumber(11) {
		t.Fatalf("count = %v, want 11 from both stacked listeners", got)
	}

	// clear_on_change drops every listener registered under the tag.
	if err := st.DoString(`storm.settings.clear_on_change(storm.view.settings(v), "probe")`); err != nil {
		t.Fatalf("DoString error = %v", err)
	}
	vs.Set("k", int64(2))
	drain(t, h)

	if got := st.Global("count"); got != lua.LNumber(11) {
		t.Errorf("count = %v, want 11 after clear_on_change", got)
	}
}

func TestSettingsModule_UnknownHandle(t *testing.T) {
	st, _, _ := newViewTest(t, "")

	err := st.DoString(`
		assert(not pcall(storm.settings.get, 999999, "k"), "bogus settings handle should fail")
	`)
	if err != nil {
		t.Errorf("DoString error = %v", err)
	}
}
