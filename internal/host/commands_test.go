package host

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/dshills/stormhost/internal/text"
)

// registerPrepend binds a text command that inserts args["text"] at the
// start of the view.
func registerPrepend(h *Host) {
	h.Commands().RegisterText("prepend", TextCommandFunc(
		func(v *View, edit *Edit, args map[string]any) error {
			s, _ := args["text"].(string)
			_, err := v.Insert(edit, 0, s)
			return err
		}))
}

func viewContent(t *testing.T, v *View) string {
	t.Helper()
	size, err := v.Size()
	if err != nil {
		t.Fatalf("Size() returned error: %v", err)
	}
	content, err := v.Substr(text.NewRegion(0, size))
	if err != nil {
		t.Fatalf("Substr() returned error: %v", err)
	}
	return content
}

func TestTextCommand_RunsInsideEditSession(t *testing.T) {
	h, v := newTestView(t)
	registerPrepend(h)

	if err := v.RunCommand("prepend", map[string]any{"text": "go"}); err != nil {
		t.Fatalf("RunCommand() returned error: %v", err)
	}
	if got := viewContent(t, v); got != "go" {
		t.Errorf("content = %q, want go", got)
	}

	// The session is closed again: a fresh BeginEdit must succeed.
	edit, err := v.BeginEdit()
	if err != nil {
		t.Fatalf("BeginEdit() after a command returned error: %v", err)
	}
	v.EndEdit(edit)
}

func TestTextCommand_ErrorStillClosesSession(t *testing.T) {
	h, v := newTestView(t)
	wantErr := errors.New("command failed")
	h.Commands().RegisterText("explode", TextCommandFunc(
		func(v *View, edit *Edit, args map[string]any) error {
			_, _ = v.Insert(edit, 0, "partial")
			return wantErr
		}))

	if err := v.RunCommand("explode", nil); !errors.Is(err, wantErr) {
		t.Errorf("RunCommand() = %v, want the command's error", err)
	}
	edit, err := v.BeginEdit()
	if err != nil {
		t.Fatalf("session left open after failing command: %v", err)
	}
	v.EndEdit(edit)
}

func TestRunCommand_BubblesThroughScopes(t *testing.T) {
	h, v := newTestView(t)
	w := v.Window()

	var order []string
	h.Commands().RegisterApplication("shared", ApplicationCommandFunc(
		func(h *Host, args map[string]any) error {
			order = append(order, "app")
			return nil
		}))
	h.Commands().RegisterWindow("shared", WindowCommandFunc(
		func(w *Window, args map[string]any) error {
			order = append(order, "window")
			return nil
		}))
	registerPrepend(h)

	// Window scope wins over application scope for the same name.
	if err := w.RunCommand("shared", nil); err != nil {
		t.Fatal(err)
	}
	// Text commands reach the active view through the window.
	if err := w.RunCommand("prepend", map[string]any{"text": "x"}); err != nil {
		t.Fatal(err)
	}
	// Host dispatch falls through to the active window's scopes.
	if err := h.RunCommand("shared", nil); err != nil {
		t.Fatal(err)
	}

	if want := []string{"window", "app"}; !reflect.DeepEqual(order, want) {
		t.Errorf("dispatch order = %v, want %v", order, want)
	}
	if got := viewContent(t, v); got != "x" {
		t.Errorf("content = %q, want x", got)
	}
}

func TestRunCommand_Unknown(t *testing.T) {
	h, v := newTestView(t)

	if err := h.RunCommand("no_such", nil); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("host RunCommand = %v, want ErrUnknownCommand", err)
	}
	if err := v.Window().RunCommand("no_such", nil); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("window RunCommand = %v, want ErrUnknownCommand", err)
	}
	if err := v.RunCommand("no_such", nil); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("view RunCommand = %v, want ErrUnknownCommand", err)
	}
}

func TestCommandRegistry_NamesAndUnregister(t *testing.T) {
	r := NewCommandRegistry()
	r.RegisterApplication("quit", ApplicationCommandFunc(func(*Host, map[string]any) error { return nil }))
	r.RegisterWindow("new_file", WindowCommandFunc(func(*Window, map[string]any) error { return nil }))
	r.RegisterText("insert", TextCommandFunc(func(*View, *Edit, map[string]any) error { return nil }))
	r.RegisterText("quit", TextCommandFunc(func(*View, *Edit, map[string]any) error { return nil }))

	if got, want := r.Names(), []string{"insert", "new_file", "quit"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}

	r.Unregister("quit")
	if got, want := r.Names(), []string{"insert", "new_file"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Names() after Unregister = %v, want %v", got, want)
	}
	if _, ok := r.application("quit"); ok {
		t.Error("Unregister left the application binding")
	}
	if _, ok := r.textCommand("quit"); ok {
		t.Error("Unregister left the text binding")
	}
}

func TestView_CommandHistory(t *testing.T) {
	h, v := newTestView(t)
	registerPrepend(h)
	h.Commands().RegisterText("noop", TextCommandFunc(
		func(*View, *Edit, map[string]any) error { return nil }))

	_ = v.RunCommand("prepend", map[string]any{"text": "a"})
	_ = v.RunCommand("prepend", map[string]any{"text": "a"})
	_ = v.RunCommand("noop", nil)

	recent, ok := v.CommandHistory(0)
	if !ok || recent.Command != "noop" || recent.Repeat != 1 {
		t.Errorf("CommandHistory(0) = %+v, %v, want noop x1", recent, ok)
	}
	prev, ok := v.CommandHistory(-1)
	if !ok || prev.Command != "prepend" || prev.Repeat != 2 {
		t.Errorf("CommandHistory(-1) = %+v, %v, want prepend x2", prev, ok)
	}
	if prev.Args["text"] != "a" {
		t.Errorf("history args = %v, want the recorded args", prev.Args)
	}
	if _, ok := v.CommandHistory(-2); ok {
		t.Error("CommandHistory(-2) resolved past the oldest entry")
	}
	if _, ok := v.CommandHistory(1); ok {
		t.Error("CommandHistory(1) resolved a future entry")
	}
}

func TestMacro_RecordAndReplay(t *testing.T) {
	h, v := newTestView(t)
	registerPrepend(h)
	h.Commands().RegisterWindow("focus_marker", WindowCommandFunc(
		func(*Window, map[string]any) error { return nil }))
	h.Commands().RegisterApplication("app_only", ApplicationCommandFunc(
		func(*Host, map[string]any) error { return nil }))

	if h.IsRecordingMacro() {
		t.Fatal("recorder starts recording")
	}
	h.StartMacroRecording()
	if !h.IsRecordingMacro() {
		t.Fatal("StartMacroRecording() did not start recording")
	}

	_ = v.RunCommand("prepend", map[string]any{"text": "ab"})
	_ = v.Window().RunCommand("focus_marker", nil)
	_ = h.RunCommand("app_only", nil)

	steps := h.StopMacroRecording()
	if h.IsRecordingMacro() {
		t.Error("StopMacroRecording() left recording on")
	}
	if len(steps) != 2 {
		t.Fatalf("recorded %d steps, want 2 (application commands excluded)", len(steps))
	}
	if steps[0].Command != "prepend" || steps[1].Command != "focus_marker" {
		t.Errorf("steps = %v, want prepend then focus_marker", steps)
	}

	if got := viewContent(t, v); got != "ab" {
		t.Fatalf("content before replay = %q, want ab", got)
	}
	if err := h.RunMacro(); err != nil {
		t.Fatalf("RunMacro() returned error: %v", err)
	}
	if got := viewContent(t, v); got != "abab" {
		t.Errorf("content after replay = %q, want abab", got)
	}
}

func TestMacro_EmptyRecordingKeepsSaved(t *testing.T) {
	h, v := newTestView(t)
	registerPrepend(h)

	h.StartMacroRecording()
	_ = v.RunCommand("prepend", map[string]any{"text": "x"})
	h.StopMacroRecording()

	h.StartMacroRecording()
	if steps := h.StopMacroRecording(); len(steps) != 0 {
		t.Errorf("empty recording returned %d steps", len(steps))
	}
	if saved := h.GetMacro(); len(saved) != 1 || saved[0].Command != "prepend" {
		t.Errorf("GetMacro() = %v, want the earlier recording", saved)
	}
}

func TestMacro_ReplayStopsOnError(t *testing.T) {
	h, v := newTestView(t)
	registerPrepend(h)
	h.Commands().RegisterText("fail", TextCommandFunc(
		func(*View, *Edit, map[string]any) error { return fmt.Errorf("boom") }))

	err := h.RunMacroSteps([]MacroStep{
		{Command: "prepend", Args: map[string]any{"text": "1"}},
		{Command: "fail"},
		{Command: "prepend", Args: map[string]any{"text": "2"}},
	})
	if err == nil {
		t.Fatal("RunMacroSteps() did not surface the failing step")
	}
	if got := viewContent(t, v); got != "1" {
		t.Errorf("content = %q, want only the step before the failure", got)
	}
}
