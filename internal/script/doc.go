// Package script embeds a sandboxed Lua runtime and exposes the host
// API to it as the storm namespace.
//
// This package wraps the gopher-lua library to provide:
//   - Sandboxed Lua state management
//   - Go-Lua value conversion for the host's dynamic value model
//   - Capability-gated API module injection
//
// # State
//
// The State type manages one Lua runtime per plugin:
//
//	st, err := script.NewState()
//	if err != nil {
//	    return err
//	}
//	defer st.Close()
//
//	ctx := script.NewContext(h)
//	if err := script.Install(st, ctx, script.AllCapabilities()); err != nil {
//	    return err
//	}
//	if err := st.DoFile("init.lua"); err != nil {
//	    return err
//	}
//
// # The storm namespace
//
// Scripts reach the host through require("storm"):
//
//	local storm = require("storm")
//	local win = storm.host.active_window()
//	local view = storm.window.new_file(win)
//	storm.view.edit(view, function(edit)
//	    storm.view.insert(view, edit, 0, "hello")
//	end)
//
// Windows, views, sheets and settings cross the boundary as integer
// handles. A handle left over from a closed entity raises a Lua error
// the script can pcall; it never crashes the host.
//
// # Threading
//
// A State is not goroutine-safe and is confined to the host dispatch
// loop. Every callback handed to Lua (timers, panel callbacks, event
// and settings listeners) is posted back onto the loop before it runs.
package script
