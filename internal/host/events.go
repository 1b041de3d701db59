package host

import "sync"

// EventKind names a host lifecycle event. Script listeners subscribe by
// kind; KindAll receives every event.
type EventKind string

const (
	EventNewWindow         EventKind = "new_window"
	EventWindowClosed      EventKind = "window_closed"
	EventNewView           EventKind = "new_view"
	EventViewLoaded        EventKind = "view_loaded"
	EventViewActivated     EventKind = "view_activated"
	EventViewClosed        EventKind = "view_closed"
	EventViewSaved         EventKind = "view_saved"
	EventViewModified      EventKind = "view_modified"
	EventSelectionModified EventKind = "selection_modified"

	// KindAll matches every event kind.
	KindAll EventKind = "*"
)

// Payload carries the handles a lifecycle event concerns. View is nil
// for window-level events.
type Payload struct {
	View   *View
	Window *Window
}

// EventHandler receives a lifecycle event. Handlers run synchronously on
// the dispatch loop in subscription order.
type EventHandler func(kind EventKind, p Payload)

// Subscription is a live event registration.
type Subscription struct {
	events *Events
	kind   EventKind
	id     int64
}

// Cancel removes the subscription. Cancelling twice is a no-op.
func (s *Subscription) Cancel() {
	if s == nil || s.events == nil {
		return
	}
	s.events.drop(s.kind, s.id)
	s.events = nil
}

type eventEntry struct {
	id int64
	fn EventHandler
}

// Events is the host's lifecycle event hub.
type Events struct {
	mu       sync.RWMutex
	nextID   int64
	handlers map[EventKind][]eventEntry
}

func newEvents() *Events {
	return &Events{handlers: make(map[EventKind][]eventEntry)}
}

// Subscribe registers a handler for one event kind. Use KindAll to
// observe every event.
func (e *Events) Subscribe(kind EventKind, fn EventHandler) *Subscription {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	id := e.nextID
	e.handlers[kind] = append(e.handlers[kind], eventEntry{id: id, fn: fn})
	return &Subscription{events: e, kind: kind, id: id}
}

func (e *Events) drop(kind EventKind, id int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	entries := e.handlers[kind]
	for i, entry := range entries {
		if entry.id == id {
			e.handlers[kind] = append(entries[:i:i], entries[i+1:]...)
			return
		}
	}
}

// emit delivers an event to its subscribers, then to KindAll
// subscribers. Handlers run outside the hub lock so they may subscribe
// or cancel.
func (e *Events) emit(kind EventKind, p Payload) {
	e.mu.RLock()
	var fns []EventHandler
	for _, entry := range e.handlers[kind] {
		fns = append(fns, entry.fn)
	}
	for _, entry := range e.handlers[KindAll] {
		fns = append(fns, entry.fn)
	}
	e.mu.RUnlock()
	for _, fn := range fns {
		fn(kind, p)
	}
}
