package host

import (
	"fmt"
	"sort"
	"sync"

	"github.com/dshills/stormhost/internal/value"
)

// Command argument maps use the canonical dynamic value kinds; anything
// else is normalized at the script boundary before it gets here.

// ApplicationCommand operates on the host as a whole.
type ApplicationCommand interface {
	Run(h *Host, args map[string]any) error
}

// WindowCommand operates on one window.
type WindowCommand interface {
	Run(w *Window, args map[string]any) error
}

// TextCommand mutates one view. The host opens an edit session around
// the call and closes it on every exit path, so the command body only
// ever sees an open edit.
type TextCommand interface {
	Run(v *View, edit *Edit, args map[string]any) error
}

// ApplicationCommandFunc adapts a function to ApplicationCommand.
type ApplicationCommandFunc func(h *Host, args map[string]any) error

func (f ApplicationCommandFunc) Run(h *Host, args map[string]any) error { return f(h, args) }

// WindowCommandFunc adapts a function to WindowCommand.
type WindowCommandFunc func(w *Window, args map[string]any) error

func (f WindowCommandFunc) Run(w *Window, args map[string]any) error { return f(w, args) }

// TextCommandFunc adapts a function to TextCommand.
type TextCommandFunc func(v *View, edit *Edit, args map[string]any) error

func (f TextCommandFunc) Run(v *View, edit *Edit, args map[string]any) error {
	return f(v, edit, args)
}

// CommandRegistry holds named commands by scope. A name may be bound in
// more than one scope; dispatch resolves the nearest scope first.
type CommandRegistry struct {
	mu     sync.RWMutex
	app    map[string]ApplicationCommand
	window map[string]WindowCommand
	text   map[string]TextCommand
}

// NewCommandRegistry returns an empty registry.
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{
		app:    make(map[string]ApplicationCommand),
		window: make(map[string]WindowCommand),
		text:   make(map[string]TextCommand),
	}
}

// RegisterApplication binds name to an application command.
func (r *CommandRegistry) RegisterApplication(name string, cmd ApplicationCommand) {
	r.mu.Lock()
	r.app[name] = cmd
	r.mu.Unlock()
}

// RegisterWindow binds name to a window command.
func (r *CommandRegistry) RegisterWindow(name string, cmd WindowCommand) {
	r.mu.Lock()
	r.window[name] = cmd
	r.mu.Unlock()
}

// RegisterText binds name to a text command.
func (r *CommandRegistry) RegisterText(name string, cmd TextCommand) {
	r.mu.Lock()
	r.text[name] = cmd
	r.mu.Unlock()
}

// Unregister removes name from every scope. Plugin teardown calls this
// for each contributed command.
func (r *CommandRegistry) Unregister(name string) {
	r.mu.Lock()
	delete(r.app, name)
	delete(r.window, name)
	delete(r.text, name)
	r.mu.Unlock()
}

// Names returns every bound command name, sorted and deduplicated.
func (r *CommandRegistry) Names() []string {
	r.mu.RLock()
	seen := make(map[string]struct{}, len(r.app)+len(r.window)+len(r.text))
	for name := range r.app {
		seen[name] = struct{}{}
	}
	for name := range r.window {
		seen[name] = struct{}{}
	}
	for name := range r.text {
		seen[name] = struct{}{}
	}
	r.mu.RUnlock()
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *CommandRegistry) application(name string) (ApplicationCommand, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.app[name]
	return cmd, ok
}

func (r *CommandRegistry) windowCommand(name string) (WindowCommand, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.window[name]
	return cmd, ok
}

func (r *CommandRegistry) textCommand(name string) (TextCommand, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.text[name]
	return cmd, ok
}

// RunCommand runs an application command, falling back to the active
// window's dispatch when the name is not bound at application scope.
func (h *Host) RunCommand(name string, args map[string]any) error {
	if cmd, ok := h.commands.application(name); ok {
		h.logCommand("application", name, args)
		return cmd.Run(h, args)
	}
	if w := h.ActiveWindow(); w != nil {
		return w.RunCommand(name, args)
	}
	return fmt.Errorf("%w: %s", ErrUnknownCommand, name)
}

// RunCommand runs a window command, falling back to a text command on
// the active view, then to an application command.
func (w *Window) RunCommand(name string, args map[string]any) error {
	if !w.IsValid() {
		return ErrStaleWindow
	}
	h := w.host
	if cmd, ok := h.commands.windowCommand(name); ok {
		h.logCommand("window", name, args)
		h.macro.record(name, args)
		return cmd.Run(w, args)
	}
	if v := w.activeView; v != nil {
		if _, ok := h.commands.textCommand(name); ok {
			return v.RunCommand(name, args)
		}
	}
	if cmd, ok := h.commands.application(name); ok {
		h.logCommand("application", name, args)
		return cmd.Run(h, args)
	}
	return fmt.Errorf("%w: %s", ErrUnknownCommand, name)
}

// RunCommand runs a text command on this view inside a fresh edit
// session. The session closes on every exit path, error or not, so a
// misbehaving command cannot leave the view gated.
func (v *View) RunCommand(name string, args map[string]any) error {
	if !v.IsValid() {
		return ErrStaleView
	}
	cmd, ok := v.host.commands.textCommand(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	v.host.logCommand("text", name, args)
	v.host.macro.record(name, args)
	v.pushHistory(name, args)
	edit, err := v.BeginEdit()
	if err != nil {
		return err
	}
	defer v.EndEdit(edit)
	return cmd.Run(v, edit, args)
}

// HistoryEntry is one executed text command. Consecutive runs of the
// same command with the same arguments fold into one entry with a
// higher Repeat.
type HistoryEntry struct {
	Command string
	Args    map[string]any
	Repeat  int
}

func (v *View) pushHistory(name string, args map[string]any) {
	if n := len(v.history); n > 0 {
		last := &v.history[n-1]
		if last.Command == name && value.Equal(last.Args, args) {
			last.Repeat++
			return
		}
	}
	v.history = append(v.history, HistoryEntry{
		Command: name,
		Args:    value.CloneMap(args),
		Repeat:  1,
	})
}

// CommandHistory returns an executed text command by distance from the
// present: index 0 is the most recent, -1 the one before it. The boolean
// is false when no entry exists that far back.
func (v *View) CommandHistory(index int) (HistoryEntry, bool) {
	if !v.IsValid() || index > 0 {
		return HistoryEntry{}, false
	}
	i := len(v.history) - 1 + index
	if i < 0 || i >= len(v.history) {
		return HistoryEntry{}, false
	}
	entry := v.history[i]
	entry.Args = value.CloneMap(entry.Args)
	return entry, true
}
