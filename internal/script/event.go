package script

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/stormhost/internal/host"
)

// EventModule implements storm.event: subscribing Lua callbacks to host
// lifecycle events.
type EventModule struct {
	ctx *Context
}

// NewEventModule creates the storm.event module.
func NewEventModule(ctx *Context) *EventModule {
	return &EventModule{ctx: ctx}
}

// Name returns the module name.
func (m *EventModule) Name() string { return "event" }

// RequiredCapability returns the capability required for this module.
func (m *EventModule) RequiredCapability() Capability { return CapabilityEvents }

// Register registers the module into the Lua state.
func (m *EventModule) Register(L *lua.LState) error {
	mod := L.NewTable()

	L.SetField(mod, "subscribe", L.NewFunction(m.subscribe))
	L.SetField(mod, "unsubscribe", L.NewFunction(m.unsubscribe))

	L.SetField(mod, "NEW_WINDOW", lua.LString(host.EventNewWindow))
	L.SetField(mod, "WINDOW_CLOSED", lua.LString(host.EventWindowClosed))
	L.SetField(mod, "NEW_VIEW", lua.LString(host.EventNewView))
	L.SetField(mod, "VIEW_LOADED", lua.LString(host.EventViewLoaded))
	L.SetField(mod, "VIEW_ACTIVATED", lua.LString(host.EventViewActivated))
	L.SetField(mod, "VIEW_CLOSED", lua.LString(host.EventViewClosed))
	L.SetField(mod, "VIEW_SAVED", lua.LString(host.EventViewSaved))
	L.SetField(mod, "VIEW_MODIFIED", lua.LString(host.EventViewModified))
	L.SetField(mod, "SELECTION_MODIFIED", lua.LString(host.EventSelectionModified))
	L.SetField(mod, "ALL", lua.LString(host.KindAll))

	L.SetGlobal("_storm_event", mod)
	return nil
}

// subscribe(kind, fn) -> subscription_id
// fn(kind, payload) runs on the host loop after the mutation that
// raised the event completes. payload carries view and window handle
// fields when the event concerns them.
func (m *EventModule) subscribe(L *lua.LState) int {
	kind := host.EventKind(L.CheckString(1))
	fn := L.CheckFunction(2)

	sub := m.ctx.host.Events().Subscribe(kind, func(k host.EventKind, p host.Payload) {
		// Handles are captured here, while the emitting mutation still
		// holds valid pointers. The callback itself runs in a later
		// loop tick and must re-resolve them.
		var viewID, windowID int64
		if p.View != nil {
			viewID = p.View.ID()
		}
		if p.Window != nil {
			windowID = p.Window.ID()
		}
		m.ctx.post(L, fn, lua.LString(k), eventPayload(L, viewID, windowID))
	})

	id := m.ctx.trackSubscription(sub)
	L.Push(lua.LNumber(id))
	return 1
}

// unsubscribe(subscription_id)
// Unknown ids are ignored.
func (m *EventModule) unsubscribe(L *lua.LState) int {
	if sub, ok := m.ctx.takeSubscription(L.CheckInt64(1)); ok {
		sub.Cancel()
	}
	return 0
}

func eventPayload(L *lua.LState, viewID, windowID int64) *lua.LTable {
	t := L.NewTable()
	if viewID != 0 {
		t.RawSetString("view", lua.LNumber(viewID))
	}
	if windowID != 0 {
		t.RawSetString("window", lua.LNumber(windowID))
	}
	return t
}
