package script

import (
	"strings"
	"sync"
	"testing"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/stormhost/internal/host"
)

func TestCompletionModule_RegisterAndQuery(t *testing.T) {
	st, h, _ := newViewTest(t, "")

	// The loop starts after the chunk so the posted on_complete runs
	// while the interpreter is idle.
	err := st.DoString(`
		storm.completion.register(function(view_id, prefix, locations)
			assert(view_id == v, "provider sees the queried view")
			assert(prefix == "st", "provider sees the prefix")
			assert(locations[1] == 8, "provider sees the locations")
			return {
				"status_message",
				{
					trigger = "stack",
					annotation = "table",
					completion = "stack()",
					kind = storm.completion.KIND_FUNCTION,
				},
			}, storm.completion.INHIBIT_WORD_COMPLETIONS
		end)

		got = nil
		got_flags = nil
		storm.completion.query(v, "st", {8}, function(items, flags)
			got = items
			got_flags = flags
		end)
	`)
	if err != nil {
		t.Fatalf("DoString error = %v", err)
	}

	startLoop(t, h)
	drain(t, h)

	err = st.DoString(`
		assert(got ~= nil, "on_complete should have run")
		assert(#got == 2, "item count = " .. #got)
		assert(got[1].trigger == "status_message", "bare string trigger")
		assert(got[1].completion == "status_message", "bare strings complete as themselves")
		assert(got[2].completion == "stack()", "table item completion")
		assert(got[2].kind == storm.completion.KIND_FUNCTION, "kind carried through")
		assert(got_flags == storm.completion.INHIBIT_WORD_COMPLETIONS, "flags carried through")
	`)
	if err != nil {
		t.Errorf("DoString error = %v", err)
	}
}

func TestCompletionModule_NoProviders(t *testing.T) {
	st, h, _ := newViewTest(t, "")

	err := st.DoString(`
		called = false
		storm.completion.query(v, "x", {0}, function(items, flags)
			called = true
			assert(#items == 0, "no items without providers")
			assert(flags == 0, "no flags without providers")
		end)
	`)
	if err != nil {
		t.Fatalf("DoString error = %v", err)
	}

	startLoop(t, h)
	drain(t, h)

	if st.Global("called") != lua.LTrue {
		t.Error("on_complete did not run")
	}
}

func TestCompletionModule_ResultsMerge(t *testing.T) {
	st, h, _ := newViewTest(t, "")

	err := st.DoString(`
		storm.completion.register(function()
			return {"alpha"}, storm.completion.INHIBIT_WORD_COMPLETIONS
		end)
		storm.completion.register(function()
			return nil
		end)
		storm.completion.register(function()
			return {"beta"}, storm.completion.INHIBIT_REORDER
		end)

		count = -1
		flags = -1
		storm.completion.query(v, "", {}, function(items, f)
			count = #items
			flags = f
		end)
	`)
	if err != nil {
		t.Fatalf("DoString error = %v", err)
	}

	startLoop(t, h)
	drain(t, h)

	if got := st.Global("count"); got != lua.LNumber(2) {
		t.Errorf("count = %v, want 2 from the contributing providers", got)
	}
	want := lua.LNumber(int(host.InhibitWordCompletions | host.InhibitReorder))
	if got := st.Global("flags"); got != want {
		t.Errorf("flags = %v, want %v", got, want)
	}
}

func TestCompletionModule_Unregister(t *testing.T) {
	st, h, _ := newViewTest(t, "")

	err := st.DoString(`
		local id = storm.completion.register(function() return {"x"} end)
		storm.completion.unregister(id)

		count = -1
		storm.completion.query(v, "", {}, function(items) count = #items end)
	`)
	if err != nil {
		t.Fatalf("DoString error = %v", err)
	}

	startLoop(t, h)
	drain(t, h)

	if got := st.Global("count"); got != lua.LNumber(0) {
		t.Errorf("count = %v, want 0 after unregister", got)
	}
}

func TestCompletionModule_GoQuerySeesLuaProvider(t *testing.T) {
	st, h, _ := newViewTest(t, "")
	startLoop(t, h)

	err := st.DoString(`
		storm.completion.register(function(view_id, prefix)
			return {{trigger = prefix .. "_suffix"}}
		end)
	`)
	if err != nil {
		t.Fatalf("DoString error = %v", err)
	}

	w := h.Windows()[0]
	v := w.Views()[0]

	done := make(chan []host.CompletionItem, 1)
	err = h.QueryCompletions(v, "pre", nil, func(items []host.CompletionItem, _ host.CompletionFlags) {
		done <- items
	})
	if err != nil {
		t.Fatalf("QueryCompletions() error = %v", err)
	}

	select {
	case items := <-done:
		if len(items) != 1 || items[0].Trigger != "pre_suffix" {
			t.Errorf("items = %+v, want one trigger pre_suffix", items)
		}
		if items[0].Completion != "pre_suffix" {
			t.Errorf("Completion = %q, want the trigger as fallback", items[0].Completion)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for completions")
	}
}

func TestCompletionModule_BrokenProviderIsSkipped(t *testing.T) {
	st, ctx, h := newScriptTest(t)
	v, err := h.NewWindow().NewFile()
	if err != nil {
		t.Fatalf("NewFile() error = %v", err)
	}
	st.SetGlobal("v", lua.LNumber(v.ID()))

	var mu sync.Mutex
	var reported []string
	ctx.OnCallbackError(func(err error) {
		mu.Lock()
		reported = append(reported, err.Error())
		mu.Unlock()
	})

	err = st.DoString(`
		storm.completion.register(function() error("provider exploded") end)
		storm.completion.register(function() return {"survivor"} end)

		count = -1
		storm.completion.query(v, "", {}, function(items) count = #items end)
	`)
	if err != nil {
		t.Fatalf("DoString error = %v", err)
	}

	startLoop(t, h)
	drain(t, h)

	if got := st.Global("count"); got != lua.LNumber(1) {
		t.Errorf("count = %v, want the surviving provider's item", got)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(reported) != 1 || !strings.Contains(reported[0], "provider exploded") {
		t.Errorf("reported = %v, want the provider error", reported)
	}
}
