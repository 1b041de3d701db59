package frontend

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/dshills/stormhost/internal/host"
)

// Console is a line-oriented frontend. Output goes out one tagged line
// at a time and every question is answered by reading one input line,
// so a scripted session produces identical transcripts on every run.
type Console struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
}

// NewConsole creates a console frontend over the given streams.
func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{
		in:  bufio.NewReader(in),
		out: out,
	}
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

// readLine returns the next input line without its newline. The boolean
// is false at end of input.
func (c *Console) readLine() (string, bool) {
	line, err := c.in.ReadString('\n')
	line = strings.TrimRight(line, "\r\n")
	if err != nil && line == "" {
		return "", false
	}
	return line, true
}

func (c *Console) StatusMessage(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.printf("[status] %s\n", message)
}

func (c *Console) MessageDialog(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.printf("[message] %s\n", message)
}

func (c *Console) ErrorDialog(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.printf("[error] %s\n", message)
}

func (c *Console) OKCancelDialog(message, okTitle string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if okTitle == "" {
		okTitle = "OK"
	}
	c.printf("%s [y = %s, n = cancel]: ", message, okTitle)
	line, ok := c.readLine()
	if !ok {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func (c *Console) YesNoCancelDialog(message, yesTitle, noTitle string) host.DialogResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	if yesTitle == "" {
		yesTitle = "Yes"
	}
	if noTitle == "" {
		noTitle = "No"
	}
	c.printf("%s [y = %s, n = %s, c = cancel]: ", message, yesTitle, noTitle)
	line, ok := c.readLine()
	if !ok {
		return host.DialogCancel
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return host.DialogYes
	case "n", "no":
		return host.DialogNo
	default:
		return host.DialogCancel
	}
}

func (c *Console) ShowInputPanel(prompt, initial string, onDone func(string), onChange func(string), onCancel func()) {
	c.mu.Lock()
	if initial != "" {
		c.printf("%s [%s]: ", prompt, initial)
	} else {
		c.printf("%s: ", prompt)
	}
	line, ok := c.readLine()
	c.mu.Unlock()
	if !ok {
		if onCancel != nil {
			onCancel()
		}
		return
	}
	if line == "" {
		line = initial
	}
	if onChange != nil {
		onChange(line)
	}
	if onDone != nil {
		onDone(line)
	}
}

func (c *Console) ShowQuickPanel(items []host.QuickPanelItem, onSelect func(int), flags host.QuickPanelFlags, selected int, onHighlight func(int)) {
	c.mu.Lock()
	for i, item := range items {
		marker := " "
		if i == selected {
			marker = ">"
		}
		if item.Annotation != "" {
			c.printf("%s %3d  %s  (%s)\n", marker, i, item.Label, item.Annotation)
		} else {
			c.printf("%s %3d  %s\n", marker, i, item.Label)
		}
	}
	c.printf("select: ")
	line, ok := c.readLine()
	c.mu.Unlock()

	choice := -1
	if ok {
		if n, err := strconv.Atoi(strings.TrimSpace(line)); err == nil && n >= 0 && n < len(items) {
			choice = n
		}
	}
	if choice >= 0 && onHighlight != nil {
		onHighlight(choice)
	}
	if onSelect != nil {
		onSelect(choice)
	}
}

func (c *Console) PopupShown(v *host.View, content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.printf("[popup] %s\n", content)
}

func (c *Console) PopupHidden(v *host.View) {}

func (c *Console) PhantomAttached(v *host.View, id int64, p host.Phantom) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.printf("[phantom %d] %s\n", id, p.Content)
}

func (c *Console) PhantomDetached(v *host.View, id int64) {}

var _ host.Frontend = (*Console)(nil)
