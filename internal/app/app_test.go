package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestNewApp(t *testing.T) {
	a := newTestApp(t, t.TempDir())

	if a.Host() == nil {
		t.Error("expected a host")
	}
	if a.Plugins() == nil {
		t.Error("expected a plugin manager")
	}
	if a.Logger() == nil {
		t.Error("expected a logger")
	}
	if a.Config() == nil {
		t.Error("expected the config to be kept")
	}
}

func TestNewAppNilConfig(t *testing.T) {
	a, err := New(nil, WithLogger(NullLogger))
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer a.Close()

	if a.Config().UI.Frontend != FrontendConsole {
		t.Errorf("expected default config, got %+v", a.Config().UI)
	}
}

func TestNewAppRejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.UI.Frontend = "holodeck"
	if _, err := New(cfg); !errors.Is(err, ErrUnknownFrontend) {
		t.Errorf("expected ErrUnknownFrontend, got %v", err)
	}
}

func TestOpenFiles(t *testing.T) {
	a := newTestApp(t, t.TempDir())

	dir := t.TempDir()
	first := filepath.Join(dir, "a.txt")
	second := filepath.Join(dir, "b.txt")
	if err := os.WriteFile(first, []byte("aaa"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(second, []byte("bbb"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	// A path that does not exist yet still opens, empty.
	a.OpenFiles([]string{first, second, filepath.Join(dir, "new.txt")})

	w := a.Host().ActiveWindow()
	if w == nil {
		t.Fatal("expected a window")
	}
	if got := len(w.Views()); got != 3 {
		t.Errorf("expected 3 views, got %d", got)
	}
}

func TestOpenFilesNone(t *testing.T) {
	a := newTestApp(t, t.TempDir())
	a.OpenFiles(nil)
	if w := a.Host().ActiveWindow(); w != nil {
		t.Error("expected no window for an empty file list")
	}
}

func TestRunCancelled(t *testing.T) {
	a := newTestApp(t, t.TempDir())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := a.Run(ctx); err != nil {
		t.Fatalf("expected cancellation to be a clean exit, got %v", err)
	}

	// The loop is single use; a second run reports it.
	if err := a.Run(context.Background()); err == nil {
		t.Error("expected an error on the second run")
	}
}

func TestRunBatchAfterRunFails(t *testing.T) {
	a := newTestApp(t, t.TempDir())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := a.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}

	b := &Batch{Steps: []Step{{Insert: "late"}}}
	if err := a.RunBatch(context.Background(), b); err == nil {
		t.Error("expected an error once the loop is spent")
	}
}

func TestAppCloseIdempotent(t *testing.T) {
	a := newTestApp(t, t.TempDir())
	a.Close()
	a.Close()
}

func TestInitError(t *testing.T) {
	cause := errors.New("boom")
	err := &InitError{Component: "frontend", Err: cause}
	if err.Error() != "init frontend: boom" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("expected the cause to unwrap")
	}
}
