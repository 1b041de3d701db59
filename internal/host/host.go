package host

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"

	"github.com/atotto/clipboard"

	"github.com/dshills/stormhost/internal/dispatch"
	"github.com/dshills/stormhost/internal/settings"
	"github.com/dshills/stormhost/internal/value"
)

// Info describes the host build the way scripts see it.
type Info struct {
	Version  string
	Build    string
	Channel  string
	Platform string
	Arch     string
}

// defaultInfo fills in the values for the running binary.
func defaultInfo() Info {
	platform := runtime.GOOS
	switch platform {
	case "darwin":
		platform = "osx"
	}
	arch := runtime.GOARCH
	switch arch {
	case "amd64":
		arch = "x64"
	case "386":
		arch = "x32"
	}
	return Info{
		Version:  "0.9.0",
		Build:    "900",
		Channel:  "dev",
		Platform: platform,
		Arch:     arch,
	}
}

// Host is the session root. It owns all windows, views and sheets, the
// command registry, the macro recorder and the event hub, and fronts the
// process-level services of the scripting surface.
type Host struct {
	mu sync.RWMutex

	loop     *dispatch.Loop
	settings *settings.Registry
	frontend Frontend
	info     Info

	packagesPaths []string
	useSystemClip bool
	clipboardText string

	nextID       int64
	windows      map[int64]*Window
	views        map[int64]*View
	sheets       map[int64]*Sheet
	windowOrder  []int64
	activeWindow int64

	commands    *CommandRegistry
	events      *Events
	macro       *macroRecorder
	completions *completionProviders

	logCommands bool
	commandLog  io.Writer

	loopOpts []dispatch.Option
}

// Option configures a Host.
type Option func(*Host)

// WithFrontend sets the user-facing surface for dialogs and panels.
func WithFrontend(f Frontend) Option {
	return func(h *Host) {
		if f != nil {
			h.frontend = f
		}
	}
}

// WithSettingsRegistry sets the registry backing named settings.
func WithSettingsRegistry(r *settings.Registry) Option {
	return func(h *Host) {
		if r != nil {
			h.settings = r
		}
	}
}

// WithPackagesPath adds directories searched for resources and plugins.
func WithPackagesPath(paths ...string) Option {
	return func(h *Host) {
		h.packagesPaths = append(h.packagesPaths, paths...)
	}
}

// WithInfo overrides the reported build information.
func WithInfo(info Info) Option {
	return func(h *Host) {
		h.info = info
	}
}

// WithSystemClipboard routes clipboard calls to the operating system
// clipboard instead of the in-process fallback.
func WithSystemClipboard(enabled bool) Option {
	return func(h *Host) {
		h.useSystemClip = enabled
	}
}

// WithPanicHandler sets the handler for panics escaping loop tasks.
func WithPanicHandler(fn dispatch.PanicHandler) Option {
	return func(h *Host) {
		h.loopOpts = append(h.loopOpts, dispatch.WithPanicHandler(fn))
	}
}

// WithAsyncWorkers sets the size of the worker pool behind RunAsync.
func WithAsyncWorkers(count int) Option {
	return func(h *Host) {
		h.loopOpts = append(h.loopOpts, dispatch.WithWorkerCount(count))
	}
}

// WithCommandLog sets the destination for command logging.
func WithCommandLog(w io.Writer) Option {
	return func(h *Host) {
		if w != nil {
			h.commandLog = w
		}
	}
}

// New creates a host session with its own dispatch loop. The loop is not
// running yet; the embedding application calls Loop().Run.
func New(opts ...Option) *Host {
	h := &Host{
		frontend:    NullFrontend{},
		settings:    settings.NewRegistry("", ""),
		info:        defaultInfo(),
		windows:     make(map[int64]*Window),
		views:       make(map[int64]*View),
		sheets:      make(map[int64]*Sheet),
		commands:    NewCommandRegistry(),
		events:      newEvents(),
		macro:       &macroRecorder{},
		completions: &completionProviders{},
		commandLog:  os.Stderr,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.loop = dispatch.New(h.loopOpts...)
	return h
}

// Loop returns the dispatch loop every host callback runs on.
func (h *Host) Loop() *dispatch.Loop {
	return h.loop
}

// Settings returns the registry backing named and per-view settings.
func (h *Host) Settings() *settings.Registry {
	return h.settings
}

// Commands returns the command registry.
func (h *Host) Commands() *CommandRegistry {
	return h.commands
}

// Events returns the event hub.
func (h *Host) Events() *Events {
	return h.events
}

// Frontend returns the configured user-facing surface.
func (h *Host) Frontend() Frontend {
	return h.frontend
}

// Version returns the host version string.
func (h *Host) Version() string { return h.info.Version }

// Build returns the host build number string.
func (h *Host) Build() string { return h.info.Build }

// Channel returns the release channel.
func (h *Host) Channel() string { return h.info.Channel }

// Platform returns the platform name: "linux", "osx" or "windows".
func (h *Host) Platform() string { return h.info.Platform }

// Arch returns the processor architecture, such as "x64" or "arm64".
func (h *Host) Arch() string { return h.info.Arch }

// PackagesPaths returns the directories searched for resources.
func (h *Host) PackagesPaths() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, len(h.packagesPaths))
	copy(out, h.packagesPaths)
	return out
}

// allocID hands out a session-unique identifier. Identifiers are never
// reused, so a stale handle can never alias a newer entity.
func (h *Host) allocID() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	return h.nextID
}

// NewWindow creates a window and makes it active when it is the first.
func (h *Host) NewWindow() *Window {
	w := newWindow(h, h.allocID())
	h.mu.Lock()
	h.windows[w.id] = w
	h.windowOrder = append(h.windowOrder, w.id)
	if h.activeWindow == 0 {
		h.activeWindow = w.id
	}
	h.mu.Unlock()
	h.events.emit(EventNewWindow, Payload{Window: w})
	return w
}

// Window resolves a window handle.
func (h *Host) Window(id int64) (*Window, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	w, ok := h.windows[id]
	if !ok {
		return nil, ErrStaleWindow
	}
	return w, nil
}

// View resolves a view handle.
func (h *Host) View(id int64) (*View, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	v, ok := h.views[id]
	if !ok {
		return nil, ErrStaleView
	}
	return v, nil
}

// Sheet resolves a sheet handle.
func (h *Host) Sheet(id int64) (*Sheet, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.sheets[id]
	if !ok {
		return nil, ErrStaleSheet
	}
	return s, nil
}

// Windows returns every open window in creation order.
func (h *Host) Windows() []*Window {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Window, 0, len(h.windowOrder))
	for _, id := range h.windowOrder {
		if w, ok := h.windows[id]; ok {
			out = append(out, w)
		}
	}
	return out
}

// ActiveWindow returns the focused window, or nil when none are open.
func (h *Host) ActiveWindow() *Window {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.windows[h.activeWindow]
}

// FocusWindow makes w the active window.
func (h *Host) FocusWindow(w *Window) error {
	if w == nil || !w.IsValid() {
		return ErrStaleWindow
	}
	h.mu.Lock()
	h.activeWindow = w.id
	h.mu.Unlock()
	return nil
}

// registerView adds a view to handle lookup.
func (h *Host) registerView(v *View) {
	h.mu.Lock()
	h.views[v.id] = v
	h.mu.Unlock()
}

// registerSheet adds a sheet to handle lookup.
func (h *Host) registerSheet(s *Sheet) {
	h.mu.Lock()
	h.sheets[s.id] = s
	h.mu.Unlock()
}

// dropView removes a view from handle lookup.
func (h *Host) dropView(id int64) {
	h.mu.Lock()
	delete(h.views, id)
	h.mu.Unlock()
}

// dropSheet removes a sheet from handle lookup.
func (h *Host) dropSheet(id int64) {
	h.mu.Lock()
	delete(h.sheets, id)
	h.mu.Unlock()
}

// dropWindow removes a window from handle lookup and moves focus to the
// most recently created surviving window.
func (h *Host) dropWindow(id int64) {
	h.mu.Lock()
	delete(h.windows, id)
	order := h.windowOrder[:0]
	for _, wid := range h.windowOrder {
		if wid != id {
			order = append(order, wid)
		}
	}
	h.windowOrder = order
	if h.activeWindow == id {
		h.activeWindow = 0
		if len(order) > 0 {
			h.activeWindow = order[len(order)-1]
		}
	}
	h.mu.Unlock()
}

// SetClipboard stores text on the clipboard. With the system clipboard
// enabled the text also reaches the operating system; failures there fall
// back to the in-process clipboard silently.
func (h *Host) SetClipboard(text string) {
	h.mu.Lock()
	h.clipboardText = text
	system := h.useSystemClip
	h.mu.Unlock()
	if system {
		_ = clipboard.WriteAll(text)
	}
}

// Clipboard returns the clipboard text.
func (h *Host) Clipboard() string {
	h.mu.RLock()
	system := h.useSystemClip
	fallback := h.clipboardText
	h.mu.RUnlock()
	if system {
		if text, err := clipboard.ReadAll(); err == nil {
			return text
		}
	}
	return fallback
}

// LoadSettings returns the shared named settings object for basename.
// Malformed files still produce a usable object; the error reports the
// parse problem for logging.
func (h *Host) LoadSettings(basename string) (*settings.Settings, error) {
	return h.settings.Load(basename)
}

// SaveSettings writes the user layer of a loaded named settings file.
func (h *Host) SaveSettings(basename string) error {
	return h.settings.Save(basename)
}

// SettingsByID resolves a settings identity from the script boundary.
func (h *Host) SettingsByID(id int64) (*settings.Settings, bool) {
	return h.settings.Find(id)
}

// LogCommands turns command logging on or off. While enabled, every
// executed command writes one line to the command log.
func (h *Host) LogCommands(enabled bool) {
	h.mu.Lock()
	h.logCommands = enabled
	h.mu.Unlock()
}

func (h *Host) logCommand(scope, name string, args map[string]any) {
	h.mu.RLock()
	enabled := h.logCommands
	w := h.commandLog
	h.mu.RUnlock()
	if !enabled || w == nil {
		return
	}
	encoded := ""
	if len(args) > 0 {
		encoded, _ = value.Encode(args)
		encoded = " " + encoded
	}
	fmt.Fprintf(w, "command: %s %s%s\n", scope, name, encoded)
}

// Close tears down every window and leaves the host empty. Handles held
// by scripts all go stale.
func (h *Host) Close() {
	for _, w := range h.Windows() {
		_ = w.Close()
	}
}
