package host

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/stormhost/internal/settings"
	"github.com/dshills/stormhost/internal/text"
	"github.com/dshills/stormhost/internal/value"
)

// Window groups views and sheets and carries the project state. Output
// panels, the input panel and the quick panel all hang off a window.
type Window struct {
	host  *Host
	id    int64
	valid bool

	views       []*View
	sheets      []*Sheet
	activeView  *View
	activeSheet *Sheet
	panels      map[string]*View
	activePanel string

	settings *settings.Settings

	projectJSON string
	projectFile string
}

func newWindow(h *Host, id int64) *Window {
	prefs, _ := h.LoadSettings(PreferencesBase)
	return &Window{
		host:     h,
		id:       id,
		valid:    true,
		panels:   make(map[string]*View),
		settings: h.settings.New(prefs),
	}
}

// ID returns the window handle.
func (w *Window) ID() int64 { return w.id }

// IsValid reports whether the window is still open.
func (w *Window) IsValid() bool { return w != nil && w.valid }

// NewFile creates an empty view with its sheet and focuses it.
func (w *Window) NewFile() (*View, error) {
	if !w.IsValid() {
		return nil, ErrStaleWindow
	}
	v := w.attachView("", "")
	w.host.events.emit(EventNewView, Payload{View: v, Window: w})
	return v, nil
}

// OpenFile opens path in a view and focuses it. A path already open in
// this window focuses the existing view instead of opening a second one.
// A path that does not exist yet opens empty and targets the path for a
// later save.
func (w *Window) OpenFile(path string) (*View, error) {
	if !w.IsValid() {
		return nil, ErrStaleWindow
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	for _, v := range w.views {
		if name, ok := v.FileName(); ok && name == abs {
			_ = w.FocusView(v)
			return v, nil
		}
	}

	content := ""
	if raw, err := os.ReadFile(abs); err == nil {
		content = string(raw)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	v := w.attachView(content, abs)
	v.savedChange = v.buf.ChangeCount()
	w.host.events.emit(EventViewLoaded, Payload{View: v, Window: w})
	return v, nil
}

// FindOpenFile returns the view holding path without opening or focusing
// anything. The boolean is false when no view in this window has the file
// open.
func (w *Window) FindOpenFile(path string) (*View, bool) {
	if !w.IsValid() {
		return nil, false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, false
	}
	for _, v := range w.views {
		if name, ok := v.FileName(); ok && name == abs {
			return v, true
		}
	}
	return nil, false
}

// attachView builds a view plus its text sheet and focuses the pair.
func (w *Window) attachView(content, fileName string) *View {
	v := newView(w, w.host.allocID(), content, fileName)
	w.host.registerView(v)
	s := newSheet(w, w.host.allocID(), SheetText, v, "")
	w.host.registerSheet(s)
	w.views = append(w.views, v)
	w.sheets = append(w.sheets, s)
	w.activeView = v
	w.activeSheet = s
	return v
}

// Views returns the window's views in opening order. Output panels are
// not included.
func (w *Window) Views() []*View {
	out := make([]*View, len(w.views))
	copy(out, w.views)
	return out
}

// Sheets returns the window's sheets in opening order.
func (w *Window) Sheets() []*Sheet {
	out := make([]*Sheet, len(w.sheets))
	copy(out, w.sheets)
	return out
}

// ActiveView returns the focused view, or nil when the window is empty.
func (w *Window) ActiveView() *View {
	return w.activeView
}

// ActiveSheet returns the focused sheet, or nil when the window is empty.
func (w *Window) ActiveSheet() *Sheet {
	return w.activeSheet
}

// Settings returns the window's settings object. Views of this window
// fall back to it, and it falls back to the shared preferences.
func (w *Window) Settings() (*settings.Settings, error) {
	if !w.IsValid() {
		return nil, ErrStaleWindow
	}
	return w.settings, nil
}

// FocusView focuses a view of this window.
func (w *Window) FocusView(v *View) error {
	if !w.IsValid() {
		return ErrStaleWindow
	}
	if !v.IsValid() || v.window != w {
		return ErrStaleView
	}
	w.activeView = v
	for _, s := range w.sheets {
		if s.view == v {
			w.activeSheet = s
			break
		}
	}
	w.host.events.emit(EventViewActivated, Payload{View: v, Window: w})
	return nil
}

// FocusSheet focuses a sheet of this window.
func (w *Window) FocusSheet(s *Sheet) error {
	if !w.IsValid() {
		return ErrStaleWindow
	}
	if !s.IsValid() || s.window != w {
		return ErrStaleSheet
	}
	w.activeSheet = s
	if s.view != nil {
		return w.FocusView(s.view)
	}
	return nil
}

// closeView detaches v and its sheet and invalidates both handles.
func (w *Window) closeView(v *View) error {
	if !w.IsValid() {
		return ErrStaleWindow
	}
	kept := w.views[:0]
	found := false
	for _, cur := range w.views {
		if cur == v {
			found = true
			continue
		}
		kept = append(kept, cur)
	}
	if !found {
		return ErrStaleView
	}
	w.views = kept

	keptSheets := w.sheets[:0]
	for _, s := range w.sheets {
		if s.view == v {
			s.invalidate()
			continue
		}
		keptSheets = append(keptSheets, s)
	}
	w.sheets = keptSheets

	v.invalidate()
	if w.activeView == v {
		w.activeView = nil
		w.activeSheet = nil
		if len(w.views) > 0 {
			_ = w.FocusView(w.views[len(w.views)-1])
		}
	}
	w.host.events.emit(EventViewClosed, Payload{View: v, Window: w})
	return nil
}

// closeSheet closes a sheet; text sheets close their view with them.
func (w *Window) closeSheet(s *Sheet) error {
	if !w.IsValid() {
		return ErrStaleWindow
	}
	if s.view != nil {
		return w.closeView(s.view)
	}
	kept := w.sheets[:0]
	found := false
	for _, cur := range w.sheets {
		if cur == s {
			found = true
			continue
		}
		kept = append(kept, cur)
	}
	if !found {
		return ErrStaleSheet
	}
	w.sheets = kept
	s.invalidate()
	if w.activeSheet == s {
		w.activeSheet = nil
	}
	return nil
}

// Close tears down the window: every view, sheet and panel goes stale.
func (w *Window) Close() error {
	if !w.IsValid() {
		return ErrStaleWindow
	}
	for len(w.views) > 0 {
		_ = w.closeView(w.views[len(w.views)-1])
	}
	for name := range w.panels {
		_ = w.DestroyOutputPanel(name)
	}
	w.valid = false
	w.host.settings.Release(w.settings.ID())
	w.host.dropWindow(w.id)
	w.host.events.emit(EventWindowClosed, Payload{Window: w})
	return nil
}

// StatusMessage shows a transient message in the frontend's status area.
func (w *Window) StatusMessage(message string) {
	w.host.frontend.StatusMessage(message)
}

// Output panels.

// CreateOutputPanel returns the named output panel, creating a scratch
// panel view on first use and clearing an existing one. Panel views
// resolve by handle but never appear in Views.
func (w *Window) CreateOutputPanel(name string) (*View, error) {
	if !w.IsValid() {
		return nil, ErrStaleWindow
	}
	if v, ok := w.panels[name]; ok && v.IsValid() {
		// The host owns panel content; the edit gate binds script
		// mutations, so clearing goes straight to the buffer.
		_ = v.buf.Replace(wholeRegion(v.buf.Size()), "")
		return v, nil
	}
	v := newView(w, w.host.allocID(), "", "")
	v.name = "Output: " + name
	v.scratch = true
	w.host.registerView(v)
	w.panels[name] = v
	return v, nil
}

// FindOutputPanel returns the named output panel. The boolean is false
// when it was never created.
func (w *Window) FindOutputPanel(name string) (*View, bool) {
	if !w.IsValid() {
		return nil, false
	}
	v, ok := w.panels[name]
	return v, ok
}

// DestroyOutputPanel removes the named output panel and invalidates its
// view. Destroying an absent panel is a no-op.
func (w *Window) DestroyOutputPanel(name string) error {
	if !w.IsValid() {
		return ErrStaleWindow
	}
	v, ok := w.panels[name]
	if !ok {
		return nil
	}
	delete(w.panels, name)
	if w.activePanel == name {
		w.activePanel = ""
	}
	v.invalidate()
	return nil
}

// OutputPanels returns the names of the window's output panels.
func (w *Window) OutputPanels() []string {
	names := make([]string, 0, len(w.panels))
	for name := range w.panels {
		names = append(names, name)
	}
	return names
}

// ShowOutputPanel marks the named panel as the one currently presented.
func (w *Window) ShowOutputPanel(name string) error {
	if !w.IsValid() {
		return ErrStaleWindow
	}
	if _, ok := w.panels[name]; !ok {
		return fmt.Errorf("show panel %q: %w", name, ErrNoPanel)
	}
	w.activePanel = name
	return nil
}

// HideOutputPanel clears the presented panel. Hiding when nothing is
// shown is a no-op.
func (w *Window) HideOutputPanel() {
	w.activePanel = ""
}

// ActivePanel returns the name of the presented output panel. The
// boolean is false when no panel is shown.
func (w *Window) ActivePanel() (string, bool) {
	if w.activePanel == "" {
		return "", false
	}
	return w.activePanel, true
}

// Input and quick panels.

// ShowInputPanel opens a one-line input surface. onDone receives the
// committed text, onChange every revision, onCancel a dismissal; all fire
// on the dispatch loop. The returned view mirrors the panel's text.
func (w *Window) ShowInputPanel(caption, initial string, onDone, onChange func(string), onCancel func()) (*View, error) {
	if !w.IsValid() {
		return nil, ErrStaleWindow
	}
	panel := newView(w, w.host.allocID(), initial, "")
	panel.name = "Input: " + caption
	panel.scratch = true
	w.host.registerView(panel)

	mirror := func(next func(string)) func(string) {
		return func(content string) {
			if panel.IsValid() {
				_ = panel.buf.Replace(wholeRegion(panel.buf.Size()), content)
			}
			if next != nil {
				next(content)
			}
		}
	}
	w.host.frontend.ShowInputPanel(
		caption,
		initial,
		onLoop(w.host, mirror(onDone)),
		onLoop(w.host, mirror(onChange)),
		onLoopNullary(w.host, onCancel),
	)
	return panel, nil
}

func wholeRegion(size int) text.Region {
	return text.NewRegion(0, size)
}

// ShowQuickPanel opens a selection list. onSelect receives the chosen
// index or -1 for cancellation; onHighlight fires as the user moves
// through items; selected picks the initially highlighted row. Both
// callbacks fire on the dispatch loop.
func (w *Window) ShowQuickPanel(items []QuickPanelItem, onSelect func(int), flags QuickPanelFlags, selected int, onHighlight func(int)) error {
	if !w.IsValid() {
		return ErrStaleWindow
	}
	w.host.frontend.ShowQuickPanel(items, onLoop(w.host, onSelect), flags, selected, onLoop(w.host, onHighlight))
	return nil
}

// Project state.

// ProjectFileName returns the project file path. The boolean is false
// when no project is open.
func (w *Window) ProjectFileName() (string, bool) {
	if w.projectFile == "" {
		return "", false
	}
	return w.projectFile, true
}

// OpenProject loads a project file into the window.
func (w *Window) OpenProject(path string) error {
	if !w.IsValid() {
		return ErrStaleWindow
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("open project %s: %w", path, err)
	}
	if !gjson.ValidBytes(raw) {
		return fmt.Errorf("open project %s: not valid JSON", path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("open project %s: %w", path, err)
	}
	w.projectJSON = string(raw)
	w.projectFile = abs
	return nil
}

// SaveProject writes the project data back to its file.
func (w *Window) SaveProject() error {
	if !w.IsValid() {
		return ErrStaleWindow
	}
	if w.projectFile == "" {
		return fmt.Errorf("save project: no project file")
	}
	pretty, err := value.EncodePretty(mustDecode(w.projectJSON))
	if err != nil {
		return fmt.Errorf("save project: %w", err)
	}
	if err := os.WriteFile(w.projectFile, []byte(pretty+"\n"), 0o644); err != nil {
		return fmt.Errorf("save project: %w", err)
	}
	return nil
}

func mustDecode(raw string) any {
	if raw == "" {
		return map[string]any{}
	}
	v, err := value.Decode(raw)
	if err != nil {
		return map[string]any{}
	}
	return v
}

// ProjectData returns the decoded project contents. The boolean is false
// when no project data has been set.
func (w *Window) ProjectData() (any, bool) {
	if w.projectJSON == "" {
		return nil, false
	}
	return mustDecode(w.projectJSON), true
}

// SetProjectData replaces the project contents. Passing nil clears them.
func (w *Window) SetProjectData(data any) error {
	if !w.IsValid() {
		return ErrStaleWindow
	}
	if data == nil {
		w.projectJSON = ""
		return nil
	}
	encoded, err := value.Encode(data)
	if err != nil {
		return fmt.Errorf("set project data: %w", err)
	}
	w.projectJSON = encoded
	return nil
}

// ProjectValue returns the value at a dotted path inside the project
// data, such as "settings.tab_size" or "folders.0.path". The boolean is
// false when the path does not resolve.
func (w *Window) ProjectValue(path string) (any, bool) {
	if w.projectJSON == "" {
		return nil, false
	}
	res := gjson.Get(w.projectJSON, path)
	if !res.Exists() {
		return nil, false
	}
	v, err := value.Decode(res.Raw)
	if err != nil {
		return nil, false
	}
	return v, true
}

// SetProjectValue writes a value at a dotted path inside the project
// data, creating intermediate objects as needed.
func (w *Window) SetProjectValue(path string, val any) error {
	if !w.IsValid() {
		return ErrStaleWindow
	}
	encoded, err := value.Encode(val)
	if err != nil {
		return fmt.Errorf("set project value %q: %w", path, err)
	}
	base := w.projectJSON
	if base == "" {
		base = "{}"
	}
	next, err := sjson.SetRaw(base, path, encoded)
	if err != nil {
		return fmt.Errorf("set project value %q: %w", path, err)
	}
	w.projectJSON = next
	return nil
}

// Folders returns the project's folder paths in order.
func (w *Window) Folders() []string {
	if w.projectJSON == "" {
		return nil
	}
	var out []string
	for _, res := range gjson.Get(w.projectJSON, "folders.#.path").Array() {
		out = append(out, res.String())
	}
	return out
}

// AddFolder appends a folder to the project.
func (w *Window) AddFolder(path string) error {
	if !w.IsValid() {
		return ErrStaleWindow
	}
	return w.SetProjectValue("folders.-1", map[string]any{"path": path})
}

// ExtractVariables returns the substitution variables describing the
// window's current state, for use with expand_variables.
func (w *Window) ExtractVariables() map[string]string {
	vars := map[string]string{
		"platform": w.host.Platform(),
	}
	if paths := w.host.PackagesPaths(); len(paths) > 0 {
		vars["packages"] = paths[0]
	}
	if v := w.activeView; v != nil {
		if file, ok := v.FileName(); ok {
			ext := filepath.Ext(file)
			base := filepath.Base(file)
			vars["file"] = file
			vars["file_path"] = filepath.Dir(file)
			vars["file_name"] = base
			vars["file_extension"] = strings.TrimPrefix(ext, ".")
			vars["file_base_name"] = strings.TrimSuffix(base, ext)
		}
	}
	if folders := w.Folders(); len(folders) > 0 {
		vars["folder"] = folders[0]
	}
	if w.projectFile != "" {
		ext := filepath.Ext(w.projectFile)
		base := filepath.Base(w.projectFile)
		vars["project"] = w.projectFile
		vars["project_path"] = filepath.Dir(w.projectFile)
		vars["project_name"] = base
		vars["project_base_name"] = strings.TrimSuffix(base, ext)
		vars["project_extension"] = strings.TrimPrefix(ext, ".")
	}
	return vars
}
