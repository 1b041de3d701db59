package host

// DialogResult is the outcome of a three-way dialog.
type DialogResult int

const (
	DialogCancel DialogResult = iota
	DialogYes
	DialogNo
)

// QuickPanelItem is one row of a quick panel.
type QuickPanelItem struct {
	Label      string
	Annotation string
}

// QuickPanelFlags adjust quick panel presentation.
type QuickPanelFlags int

const (
	// QuickPanelMonospace renders items in a fixed-width font.
	QuickPanelMonospace QuickPanelFlags = 1 << iota
	// QuickPanelKeepOpen keeps the panel open when focus moves away.
	QuickPanelKeepOpen
)

// Frontend is the user-facing surface the host forwards dialogs, panels
// and status output to. Implementations may run their own goroutines and
// may invoke the given callbacks from any of them; the host wraps every
// callback so it lands back on the dispatch loop.
//
// Quick panel selection reports -1 for cancellation. Input panel
// callbacks other than onDone may be nil.
type Frontend interface {
	StatusMessage(message string)
	MessageDialog(message string)
	ErrorDialog(message string)
	OKCancelDialog(message, okTitle string) bool
	YesNoCancelDialog(message, yesTitle, noTitle string) DialogResult
	ShowInputPanel(prompt, initial string, onDone func(string), onChange func(string), onCancel func())
	ShowQuickPanel(items []QuickPanelItem, onSelect func(int), flags QuickPanelFlags, selected int, onHighlight func(int))
	PopupShown(view *View, content string)
	PopupHidden(view *View)
	PhantomAttached(view *View, id int64, p Phantom)
	PhantomDetached(view *View, id int64)
}

// NullFrontend discards all output and cancels every request. It keeps a
// host usable with no user interface attached, such as in batch runs.
type NullFrontend struct{}

func (NullFrontend) StatusMessage(string)      {}
func (NullFrontend) MessageDialog(string)      {}
func (NullFrontend) ErrorDialog(string)        {}
func (NullFrontend) OKCancelDialog(string, string) bool { return false }
func (NullFrontend) YesNoCancelDialog(string, string, string) DialogResult {
	return DialogCancel
}

func (NullFrontend) ShowInputPanel(prompt, initial string, onDone func(string), onChange func(string), onCancel func()) {
	if onCancel != nil {
		onCancel()
	}
}

func (NullFrontend) ShowQuickPanel(items []QuickPanelItem, onSelect func(int), flags QuickPanelFlags, selected int, onHighlight func(int)) {
	if onSelect != nil {
		onSelect(-1)
	}
}

func (NullFrontend) PopupShown(*View, string)           {}
func (NullFrontend) PopupHidden(*View)                  {}
func (NullFrontend) PhantomAttached(*View, int64, Phantom) {}
func (NullFrontend) PhantomDetached(*View, int64)          {}

var _ Frontend = NullFrontend{}

// StatusMessage shows a transient message in the frontend's status area.
func (h *Host) StatusMessage(message string) {
	h.frontend.StatusMessage(message)
}

// MessageDialog shows a modal informational dialog.
func (h *Host) MessageDialog(message string) {
	h.frontend.MessageDialog(message)
}

// ErrorDialog shows a modal error dialog.
func (h *Host) ErrorDialog(message string) {
	h.frontend.ErrorDialog(message)
}

// OKCancelDialog asks a yes/no question; okTitle labels the confirm
// button. It reports whether the user confirmed.
func (h *Host) OKCancelDialog(message, okTitle string) bool {
	return h.frontend.OKCancelDialog(message, okTitle)
}

// YesNoCancelDialog asks a three-way question.
func (h *Host) YesNoCancelDialog(message, yesTitle, noTitle string) DialogResult {
	return h.frontend.YesNoCancelDialog(message, yesTitle, noTitle)
}

// onLoop wraps a callback so frontends can fire it from any goroutine
// and it still runs on the dispatch loop. Nil stays nil.
func onLoop[T any](h *Host, fn func(T)) func(T) {
	if fn == nil {
		return nil
	}
	return func(arg T) {
		h.loop.Post(func() { fn(arg) })
	}
}

// onLoopNullary is onLoop for parameterless callbacks.
func onLoopNullary(h *Host, fn func()) func() {
	if fn == nil {
		return nil
	}
	return func() {
		h.loop.Post(fn)
	}
}
