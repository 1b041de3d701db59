package host

// SheetKind distinguishes what a sheet presents.
type SheetKind int

const (
	// SheetText presents an editable text view.
	SheetText SheetKind = iota
	// SheetImage presents a non-editable image preview.
	SheetImage
	// SheetHTML presents rendered markup.
	SheetHTML
)

// Sheet is a window tab. Text sheets wrap a view; other kinds carry only
// a name and their source path.
type Sheet struct {
	host   *Host
	window *Window
	id     int64
	valid  bool

	kind SheetKind
	view *View
	name string
}

func newSheet(w *Window, id int64, kind SheetKind, view *View, name string) *Sheet {
	return &Sheet{
		host:   w.host,
		window: w,
		id:     id,
		valid:  true,
		kind:   kind,
		view:   view,
		name:   name,
	}
}

// ID returns the sheet handle.
func (s *Sheet) ID() int64 { return s.id }

// IsValid reports whether the sheet is still open.
func (s *Sheet) IsValid() bool { return s != nil && s.valid }

// Kind returns what the sheet presents.
func (s *Sheet) Kind() SheetKind { return s.kind }

// Window returns the owning window.
func (s *Sheet) Window() *Window { return s.window }

// View returns the wrapped view. The boolean is false for sheet kinds
// that have no view.
func (s *Sheet) View() (*View, bool) {
	if s.view == nil {
		return nil, false
	}
	return s.view, true
}

// Name returns the sheet's display name.
func (s *Sheet) Name() string {
	if s.view != nil {
		return s.view.Name()
	}
	return s.name
}

// Close removes the sheet and its view from the window.
func (s *Sheet) Close() error {
	if !s.IsValid() {
		return ErrStaleSheet
	}
	return s.window.closeSheet(s)
}

// invalidate marks the handle stale and removes it from lookup.
func (s *Sheet) invalidate() {
	if !s.valid {
		return
	}
	s.valid = false
	s.host.dropSheet(s.id)
}
