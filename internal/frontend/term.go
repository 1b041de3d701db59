package frontend

import (
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/stormhost/internal/host"
)

// Term is an interactive terminal frontend built on tcell. Dialogs and
// panels take the screen over until answered: arrow keys move, enter
// accepts, escape cancels.
type Term struct {
	mu     sync.Mutex
	screen tcell.Screen
	status string
}

// NewTerm opens the terminal screen.
func NewTerm() (*Term, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	return &Term{screen: screen}, nil
}

// Close releases the terminal.
func (t *Term) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.screen.Fini()
}

func (t *Term) drawText(x, y int, style tcell.Style, s string) {
	width, height := t.screen.Size()
	if y < 0 || y >= height {
		return
	}
	for _, r := range s {
		if x >= width {
			return
		}
		t.screen.SetContent(x, y, r, nil, style)
		x++
	}
}

// drawStatus paints the bottom status line.
func (t *Term) drawStatus() {
	width, height := t.screen.Size()
	for x := 0; x < width; x++ {
		t.screen.SetContent(x, height-1, ' ', nil, tcell.StyleDefault.Reverse(true))
	}
	t.drawText(0, height-1, tcell.StyleDefault.Reverse(true), t.status)
}

func (t *Term) redraw() {
	t.screen.Clear()
	t.drawStatus()
	t.screen.Show()
}

func (t *Term) StatusMessage(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = message
	t.redraw()
}

// waitKey blocks until a key event arrives, resyncing on resize.
func (t *Term) waitKey() *tcell.EventKey {
	for {
		switch ev := t.screen.PollEvent().(type) {
		case *tcell.EventKey:
			return ev
		case *tcell.EventResize:
			t.screen.Sync()
		case nil:
			return tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)
		}
	}
}

func (t *Term) modalMessage(style tcell.Style, message, hint string) {
	t.screen.Clear()
	t.drawText(2, 1, style, message)
	t.drawText(2, 3, tcell.StyleDefault.Dim(true), hint)
	t.drawStatus()
	t.screen.Show()
}

func (t *Term) MessageDialog(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.modalMessage(tcell.StyleDefault, message, "press any key")
	t.waitKey()
	t.redraw()
}

func (t *Term) ErrorDialog(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.modalMessage(tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true), message, "press any key")
	t.waitKey()
	t.redraw()
}

func (t *Term) OKCancelDialog(message, okTitle string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if okTitle == "" {
		okTitle = "OK"
	}
	t.modalMessage(tcell.StyleDefault, message, "enter = "+okTitle+", esc = cancel")
	defer t.redraw()
	for {
		ev := t.waitKey()
		switch {
		case ev.Key() == tcell.KeyEnter || ev.Rune() == 'y':
			return true
		case ev.Key() == tcell.KeyEscape || ev.Rune() == 'n':
			return false
		}
	}
}

func (t *Term) YesNoCancelDialog(message, yesTitle, noTitle string) host.DialogResult {
	t.mu.Lock()
	defer t.mu.Unlock()
	if yesTitle == "" {
		yesTitle = "Yes"
	}
	if noTitle == "" {
		noTitle = "No"
	}
	t.modalMessage(tcell.StyleDefault, message, "y = "+yesTitle+", n = "+noTitle+", esc = cancel")
	defer t.redraw()
	for {
		ev := t.waitKey()
		switch {
		case ev.Rune() == 'y':
			return host.DialogYes
		case ev.Rune() == 'n':
			return host.DialogNo
		case ev.Key() == tcell.KeyEscape:
			return host.DialogCancel
		}
	}
}

func (t *Term) ShowInputPanel(prompt, initial string, onDone func(string), onChange func(string), onCancel func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	input := []rune(initial)
	notify := func() {
		if onChange != nil {
			onChange(string(input))
		}
	}
	for {
		t.screen.Clear()
		t.drawText(2, 1, tcell.StyleDefault.Bold(true), prompt)
		t.drawText(2, 2, tcell.StyleDefault, string(input))
		t.screen.ShowCursor(2+len(input), 2)
		t.drawStatus()
		t.screen.Show()

		ev := t.waitKey()
		switch ev.Key() {
		case tcell.KeyEnter:
			t.screen.HideCursor()
			t.redraw()
			if onDone != nil {
				onDone(string(input))
			}
			return
		case tcell.KeyEscape:
			t.screen.HideCursor()
			t.redraw()
			if onCancel != nil {
				onCancel()
			}
			return
		case tcell.KeyBackspace, tcell.KeyBackspace2:
			if len(input) > 0 {
				input = input[:len(input)-1]
				notify()
			}
		case tcell.KeyRune:
			input = append(input, ev.Rune())
			notify()
		}
	}
}

func (t *Term) ShowQuickPanel(items []host.QuickPanelItem, onSelect func(int), flags host.QuickPanelFlags, selected int, onHighlight func(int)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(items) == 0 {
		if onSelect != nil {
			onSelect(-1)
		}
		return
	}
	cursor := selected
	if cursor < 0 || cursor >= len(items) {
		cursor = 0
	}

	move := func(delta int) {
		next := cursor + delta
		if next < 0 || next >= len(items) {
			return
		}
		cursor = next
		if onHighlight != nil {
			onHighlight(cursor)
		}
	}

	for {
		t.screen.Clear()
		_, height := t.screen.Size()
		visible := height - 2
		top := 0
		if cursor >= visible {
			top = cursor - visible + 1
		}
		for row := 0; row < visible && top+row < len(items); row++ {
			item := items[top+row]
			style := tcell.StyleDefault
			if top+row == cursor {
				style = style.Reverse(true)
			}
			t.drawText(1, row, style, item.Label)
			if item.Annotation != "" {
				t.drawText(2+len([]rune(item.Label)), row, style.Dim(true), item.Annotation)
			}
		}
		t.drawStatus()
		t.screen.Show()

		ev := t.waitKey()
		switch {
		case ev.Key() == tcell.KeyEnter:
			t.redraw()
			if onSelect != nil {
				onSelect(cursor)
			}
			return
		case ev.Key() == tcell.KeyEscape:
			t.redraw()
			if onSelect != nil {
				onSelect(-1)
			}
			return
		case ev.Key() == tcell.KeyUp || ev.Key() == tcell.KeyCtrlP:
			move(-1)
		case ev.Key() == tcell.KeyDown || ev.Key() == tcell.KeyCtrlN:
			move(1)
		}
	}
}

func (t *Term) PopupShown(v *host.View, content string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.screen.Clear()
	t.drawText(0, 0, tcell.StyleDefault.Reverse(true), content)
	t.drawStatus()
	t.screen.Show()
}

func (t *Term) PopupHidden(v *host.View) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.redraw()
}

// Phantom content needs an inline buffer renderer to place; the
// terminal surface only tracks them through the status line.
func (t *Term) PhantomAttached(v *host.View, id int64, p host.Phantom) {}
func (t *Term) PhantomDetached(v *host.View, id int64)                 {}

var _ host.Frontend = (*Term)(nil)
