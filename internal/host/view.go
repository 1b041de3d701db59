package host

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dshills/stormhost/internal/buffer"
	"github.com/dshills/stormhost/internal/scope"
	"github.com/dshills/stormhost/internal/settings"
	"github.com/dshills/stormhost/internal/text"
)

// PreferencesBase is the named settings file every view's settings fall
// back to.
const PreferencesBase = "Preferences.storm-settings"

// defaultSyntax is the scope name of a view before a syntax is assigned.
const defaultSyntax = "text.plain"

// regionEntry is one named region list added by a script.
type regionEntry struct {
	regions []text.Region
	scope   string
}

// popupState tracks the single popup a view can show.
type popupState struct {
	content    string
	onNavigate func(string)
	onHide     func()
}

// View is an open text buffer bound to a window. Scripts hold views by
// handle; once a view closes, every operation fails with ErrStaleView.
type View struct {
	host   *Host
	window *Window
	id     int64
	valid  bool

	buf      *buffer.Buffer
	sel      *Selection
	settings *settings.Settings

	name        string
	fileName    string
	scratch     bool
	readOnly    bool
	savedChange int64
	syntax      string

	edit          *Edit
	pendingModify bool

	regions map[string]regionEntry
	status  map[string]string
	popup   *popupState

	phantoms    map[int64]Phantom
	nextPhantom int64

	history []HistoryEntry
}

// newView wires a view into the host: settings fall back to the window's
// settings and through them to the shared preferences, and the word
// separator set tracks the settings live.
func newView(w *Window, id int64, content, fileName string) *View {
	v := &View{
		host:     w.host,
		window:   w,
		id:       id,
		valid:    true,
		buf:      buffer.NewFromString(content),
		settings: w.host.settings.New(w.settings),
		fileName: fileName,
		syntax:   defaultSyntax,
		regions:  make(map[string]regionEntry),
		status:   make(map[string]string),
		phantoms: make(map[int64]Phantom),
	}
	v.sel = newSelection(v)
	v.sel.regions = []text.Region{text.PointRegion(0)}

	v.applyWordSeparators()
	v.settings.AddOnChange(v.listenerTag(), func() { v.applyWordSeparators() })
	return v
}

func (v *View) listenerTag() string {
	return fmt.Sprintf("view-%d", v.id)
}

func (v *View) applyWordSeparators() {
	v.buf.SetWordSeparators(v.settings.String("word_separators", buffer.DefaultWordSeparators))
}

// ID returns the view handle.
func (v *View) ID() int64 { return v.id }

// IsValid reports whether the view is still open. Callers resuming after
// a dialog or panel callback check this before touching the view again.
func (v *View) IsValid() bool { return v != nil && v.valid }

// Window returns the owning window, which survives as a handle even
// after the view closes.
func (v *View) Window() *Window { return v.window }

// Settings returns the view's settings object, layered over the shared
// preferences.
func (v *View) Settings() (*settings.Settings, error) {
	if !v.IsValid() {
		return nil, ErrStaleView
	}
	return v.settings, nil
}

// Sel returns the view's shared selection.
func (v *View) Sel() (*Selection, error) {
	if !v.IsValid() {
		return nil, ErrStaleView
	}
	return v.sel, nil
}

// Name returns the display name. Unnamed file-backed views display their
// base filename.
func (v *View) Name() string {
	if v.name != "" {
		return v.name
	}
	if v.fileName != "" {
		return filepath.Base(v.fileName)
	}
	return "untitled"
}

// SetName sets the display name.
func (v *View) SetName(name string) error {
	if !v.IsValid() {
		return ErrStaleView
	}
	v.name = name
	return nil
}

// FileName returns the backing file path. The boolean is false for views
// that have never been assigned a file.
func (v *View) FileName() (string, bool) {
	if v.fileName == "" {
		return "", false
	}
	return v.fileName, true
}

// Retarget points the view at a different backing file without touching
// the buffer.
func (v *View) Retarget(path string) error {
	if !v.IsValid() {
		return ErrStaleView
	}
	v.fileName = path
	return nil
}

// IsScratch reports whether the view suppresses dirty tracking.
func (v *View) IsScratch() bool { return v.scratch }

// SetScratch marks the view as scratch. Scratch views never report dirty
// and never prompt for saving.
func (v *View) SetScratch(scratch bool) error {
	if !v.IsValid() {
		return ErrStaleView
	}
	v.scratch = scratch
	return nil
}

// IsReadOnly reports whether mutations are rejected.
func (v *View) IsReadOnly() bool { return v.readOnly }

// SetReadOnly toggles mutation rejection.
func (v *View) SetReadOnly(readOnly bool) error {
	if !v.IsValid() {
		return ErrStaleView
	}
	v.readOnly = readOnly
	return nil
}

// IsDirty reports whether the buffer changed since the last save or
// load. Scratch views are never dirty.
func (v *View) IsDirty() bool {
	if v.scratch {
		return false
	}
	return v.buf.ChangeCount() != v.savedChange
}

// Save writes the buffer to the backing file.
func (v *View) Save() error {
	if !v.IsValid() {
		return ErrStaleView
	}
	if v.fileName == "" {
		return fmt.Errorf("save view %d: no backing file", v.id)
	}
	if err := os.MkdirAll(filepath.Dir(v.fileName), 0o755); err != nil {
		return fmt.Errorf("save view %d: %w", v.id, err)
	}
	if err := os.WriteFile(v.fileName, []byte(v.buf.Content()), 0o644); err != nil {
		return fmt.Errorf("save view %d: %w", v.id, err)
	}
	v.savedChange = v.buf.ChangeCount()
	v.host.events.emit(EventViewSaved, Payload{View: v, Window: v.window})
	return nil
}

// Close removes the view from its window. The handle and every derived
// object (selection, settings, phantoms) go stale.
func (v *View) Close() error {
	if !v.IsValid() {
		return ErrStaleView
	}
	return v.window.closeView(v)
}

// Syntax returns the scope name assigned to the buffer.
func (v *View) Syntax() string { return v.syntax }

// SetSyntax assigns the scope name used by selector matching, such as
// "source.lua".
func (v *View) SetSyntax(scopeName string) error {
	if !v.IsValid() {
		return ErrStaleView
	}
	if scopeName == "" {
		scopeName = defaultSyntax
	}
	v.syntax = scopeName
	return nil
}

// ScopeName returns the scope at pt. Without a syntax engine attached the
// whole buffer carries the view's base scope.
func (v *View) ScopeName(pt text.Point) (string, error) {
	if !v.IsValid() {
		return "", ErrStaleView
	}
	return v.syntax, nil
}

// ScoreSelector scores selector against the scope at pt. Zero means no
// match.
func (v *View) ScoreSelector(pt text.Point, selector string) (int, error) {
	name, err := v.ScopeName(pt)
	if err != nil {
		return 0, err
	}
	return scope.Score(name, selector), nil
}

// MatchSelector reports whether the scope at pt matches selector.
func (v *View) MatchSelector(pt text.Point, selector string) (bool, error) {
	score, err := v.ScoreSelector(pt, selector)
	if err != nil {
		return false, err
	}
	return score > 0, nil
}

// Text queries. Reads clamp out-of-range positions like the underlying
// buffer does.

// Size returns the buffer length in bytes.
func (v *View) Size() (int, error) {
	if !v.IsValid() {
		return 0, ErrStaleView
	}
	return v.buf.Size(), nil
}

// ChangeCount returns the buffer's mutation counter.
func (v *View) ChangeCount() (int64, error) {
	if !v.IsValid() {
		return 0, ErrStaleView
	}
	return v.buf.ChangeCount(), nil
}

// Substr returns the text covered by r.
func (v *View) Substr(r text.Region) (string, error) {
	if !v.IsValid() {
		return "", ErrStaleView
	}
	return v.buf.Substr(r), nil
}

// SubstrPoint returns the byte at pt as a string.
func (v *View) SubstrPoint(pt text.Point) (string, error) {
	if !v.IsValid() {
		return "", ErrStaleView
	}
	return v.buf.SubstrPoint(pt), nil
}

// RowCol converts a point to zero-based row and byte column.
func (v *View) RowCol(pt text.Point) (row, col int, err error) {
	if !v.IsValid() {
		return 0, 0, ErrStaleView
	}
	row, col = v.buf.RowCol(pt)
	return row, col, nil
}

// TextPoint converts a row and byte column to a point.
func (v *View) TextPoint(row, col int) (text.Point, error) {
	if !v.IsValid() {
		return 0, ErrStaleView
	}
	return v.buf.TextPoint(row, col), nil
}

// Line returns the line containing pt without its newline.
func (v *View) Line(pt text.Point) (text.Region, error) {
	if !v.IsValid() {
		return text.Region{}, ErrStaleView
	}
	return v.buf.Line(pt), nil
}

// LineRegion expands r to whole lines without the final newline.
func (v *View) LineRegion(r text.Region) (text.Region, error) {
	if !v.IsValid() {
		return text.Region{}, ErrStaleView
	}
	return v.buf.LineRegion(r), nil
}

// FullLine returns the line containing pt including its newline.
func (v *View) FullLine(pt text.Point) (text.Region, error) {
	if !v.IsValid() {
		return text.Region{}, ErrStaleView
	}
	return v.buf.FullLine(pt), nil
}

// FullLineRegion expands r to whole lines including the final newline.
func (v *View) FullLineRegion(r text.Region) (text.Region, error) {
	if !v.IsValid() {
		return text.Region{}, ErrStaleView
	}
	return v.buf.FullLineRegion(r), nil
}

// Lines returns the content region of every line touched by r.
func (v *View) Lines(r text.Region) ([]text.Region, error) {
	if !v.IsValid() {
		return nil, ErrStaleView
	}
	return v.buf.Lines(r), nil
}

// SplitByNewlines cuts r at newline boundaries.
func (v *View) SplitByNewlines(r text.Region) ([]text.Region, error) {
	if !v.IsValid() {
		return nil, ErrStaleView
	}
	return v.buf.SplitByNewlines(r), nil
}

// Word returns the word (or punctuation run) around pt.
func (v *View) Word(pt text.Point) (text.Region, error) {
	if !v.IsValid() {
		return text.Region{}, ErrStaleView
	}
	return v.buf.Word(pt), nil
}

// WordRegion expands r so both ends sit on word boundaries.
func (v *View) WordRegion(r text.Region) (text.Region, error) {
	if !v.IsValid() {
		return text.Region{}, ErrStaleView
	}
	begin := v.buf.Word(r.Begin())
	end := v.buf.Word(r.End())
	return begin.Cover(end), nil
}

// Classify returns the classification flags for pt.
func (v *View) Classify(pt text.Point) (int, error) {
	if !v.IsValid() {
		return 0, ErrStaleView
	}
	return v.buf.Classify(pt), nil
}

// ExpandByClass grows r until both sides hit a point matching classes.
func (v *View) ExpandByClass(r text.Region, classes int, separators string) (text.Region, error) {
	if !v.IsValid() {
		return text.Region{}, ErrStaleView
	}
	return v.buf.ExpandByClass(r, classes, separators), nil
}

// FindByClass returns the next point matching classes in the given
// direction.
func (v *View) FindByClass(pt text.Point, forward bool, classes int, separators string) (text.Point, error) {
	if !v.IsValid() {
		return 0, ErrStaleView
	}
	return v.buf.FindByClass(pt, forward, classes, separators), nil
}

// Find returns the first pattern match at or after start. The boolean is
// false when nothing matches.
func (v *View) Find(pattern string, start text.Point, flags buffer.FindFlags) (text.Region, bool, error) {
	if !v.IsValid() {
		return text.Region{}, false, ErrStaleView
	}
	return v.buf.Find(pattern, start, flags)
}

// FindAll returns every pattern match in order.
func (v *View) FindAll(pattern string, flags buffer.FindFlags) ([]text.Region, error) {
	if !v.IsValid() {
		return nil, ErrStaleView
	}
	return v.buf.FindAll(pattern, flags)
}

// Mutations. Each requires the view's open edit session and respects the
// read-only flag. Offsets are validated, not clamped.

// Insert places s at pt and returns the number of bytes inserted.
func (v *View) Insert(e *Edit, pt text.Point, s string) (int, error) {
	if !v.IsValid() {
		return 0, ErrStaleView
	}
	if err := v.checkEdit(e); err != nil {
		return 0, err
	}
	if v.readOnly {
		return 0, ErrReadOnly
	}
	n, err := v.buf.Insert(pt, s)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		v.pendingModify = true
	}
	return n, nil
}

// Erase removes the text covered by r.
func (v *View) Erase(e *Edit, r text.Region) error {
	return v.Replace(e, r, "")
}

// Replace substitutes the text covered by r with s.
func (v *View) Replace(e *Edit, r text.Region, s string) error {
	if !v.IsValid() {
		return ErrStaleView
	}
	if err := v.checkEdit(e); err != nil {
		return err
	}
	if v.readOnly {
		return ErrReadOnly
	}
	before := v.buf.ChangeCount()
	if err := v.buf.Replace(r, s); err != nil {
		return err
	}
	if v.buf.ChangeCount() != before {
		v.pendingModify = true
	}
	return nil
}

// Named regions.

// AddRegions stores a named list of regions with an optional scope used
// for styling. An existing list under the same key is replaced.
func (v *View) AddRegions(key string, regions []text.Region, scopeName string) error {
	if !v.IsValid() {
		return ErrStaleView
	}
	stored := make([]text.Region, len(regions))
	copy(stored, regions)
	v.regions[key] = regionEntry{regions: stored, scope: scopeName}
	return nil
}

// GetRegions returns the named region list, empty when the key was never
// added.
func (v *View) GetRegions(key string) ([]text.Region, error) {
	if !v.IsValid() {
		return nil, ErrStaleView
	}
	entry := v.regions[key]
	out := make([]text.Region, len(entry.regions))
	copy(out, entry.regions)
	return out, nil
}

// EraseRegions removes the named region list. Erasing an absent key is a
// no-op.
func (v *View) EraseRegions(key string) error {
	if !v.IsValid() {
		return ErrStaleView
	}
	delete(v.regions, key)
	return nil
}

// RegionKeys returns every key with stored regions.
func (v *View) RegionKeys() ([]string, error) {
	if !v.IsValid() {
		return nil, ErrStaleView
	}
	keys := make([]string, 0, len(v.regions))
	for k := range v.regions {
		keys = append(keys, k)
	}
	return keys, nil
}

// Status keys.

// SetStatus shows value in the status area under key.
func (v *View) SetStatus(key, value string) error {
	if !v.IsValid() {
		return ErrStaleView
	}
	v.status[key] = value
	return nil
}

// GetStatus returns the status value under key, empty when unset.
func (v *View) GetStatus(key string) (string, error) {
	if !v.IsValid() {
		return "", ErrStaleView
	}
	return v.status[key], nil
}

// EraseStatus removes the status value under key.
func (v *View) EraseStatus(key string) error {
	if !v.IsValid() {
		return ErrStaleView
	}
	delete(v.status, key)
	return nil
}

// Popups. A view shows at most one popup at a time.

// ShowPopup displays content over the view. onNavigate fires for links
// activated inside the popup, onHide when the popup goes away. Showing a
// popup while one is visible replaces it, firing the old popup's hide
// callback.
func (v *View) ShowPopup(content string, onNavigate func(string), onHide func()) error {
	if !v.IsValid() {
		return ErrStaleView
	}
	if v.popup != nil {
		v.dismissPopup()
	}
	v.popup = &popupState{
		content:    content,
		onNavigate: onLoop(v.host, onNavigate),
		onHide:     onLoopNullary(v.host, onHide),
	}
	v.host.frontend.PopupShown(v, content)
	return nil
}

// UpdatePopup replaces the visible popup's content, keeping callbacks.
func (v *View) UpdatePopup(content string) error {
	if !v.IsValid() {
		return ErrStaleView
	}
	if v.popup == nil {
		return nil
	}
	v.popup.content = content
	v.host.frontend.PopupShown(v, content)
	return nil
}

// HidePopup dismisses the popup if one is visible.
func (v *View) HidePopup() error {
	if !v.IsValid() {
		return ErrStaleView
	}
	v.dismissPopup()
	return nil
}

func (v *View) dismissPopup() {
	if v.popup == nil {
		return
	}
	onHide := v.popup.onHide
	v.popup = nil
	v.host.frontend.PopupHidden(v)
	if onHide != nil {
		onHide()
	}
}

// IsPopupVisible reports whether a popup is showing.
func (v *View) IsPopupVisible() bool {
	return v.IsValid() && v.popup != nil
}

// PopupContent returns the visible popup's content, empty when none is
// showing.
func (v *View) PopupContent() string {
	if !v.IsValid() || v.popup == nil {
		return ""
	}
	return v.popup.content
}

// NavigatePopup fires the popup's navigation callback with href, as a
// frontend does when the user activates a link.
func (v *View) NavigatePopup(href string) {
	if !v.IsValid() || v.popup == nil || v.popup.onNavigate == nil {
		return
	}
	v.popup.onNavigate(href)
}

// notifySelectionModified reports a selection change to event listeners.
func (v *View) notifySelectionModified() {
	v.host.events.emit(EventSelectionModified, Payload{View: v, Window: v.window})
}

// notifyModified reports a completed buffer mutation to event listeners.
// Mutations inside one edit session coalesce into a single event.
func (v *View) notifyModified() {
	v.host.events.emit(EventViewModified, Payload{View: v, Window: v.window})
}

// invalidate tears the view down: the popup hides, phantoms drop, the
// settings listener detaches and the handle goes stale.
func (v *View) invalidate() {
	if !v.valid {
		return
	}
	v.dismissPopup()
	for id := range v.phantoms {
		v.host.frontend.PhantomDetached(v, id)
	}
	v.phantoms = make(map[int64]Phantom)
	v.settings.ClearOnChange(v.listenerTag())
	v.host.settings.Release(v.settings.ID())
	v.valid = false
	v.edit = nil
	v.host.dropView(v.id)
}
