package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/dshills/stormhost/internal/dispatch"
	"github.com/dshills/stormhost/internal/frontend"
	"github.com/dshills/stormhost/internal/host"
	"github.com/dshills/stormhost/internal/plugin"
	"github.com/dshills/stormhost/internal/settings"
	"github.com/dshills/stormhost/internal/text"
)

// App is one assembled session. An App runs once; create a new one to
// run again.
type App struct {
	cfg    *Config
	logger *Logger

	host    *host.Host
	plugins *plugin.Manager
	watcher *settings.Watcher
	term    *frontend.Term

	running   atomic.Bool
	closeOnce sync.Once
}

// Option overrides one piece of the default assembly.
type Option func(*setup)

type setup struct {
	logger   *Logger
	frontend host.Frontend
	output   io.Writer
}

// WithLogger replaces the logger built from the configuration.
func WithLogger(l *Logger) Option {
	return func(s *setup) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithAppFrontend replaces the frontend named in the configuration.
func WithAppFrontend(f host.Frontend) Option {
	return func(s *setup) {
		if f != nil {
			s.frontend = f
		}
	}
}

// WithPluginOutput redirects plugin print output. Defaults to stdout.
func WithPluginOutput(w io.Writer) Option {
	return func(s *setup) {
		if w != nil {
			s.output = w
		}
	}
}

// New builds an application from cfg. A nil cfg means defaults.
func New(cfg *Config, opts ...Option) (*App, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &setup{output: os.Stdout}
	for _, opt := range opts {
		opt(s)
	}

	logger := s.logger
	if logger == nil {
		lcfg := DefaultLoggerConfig()
		lcfg.Level = ParseLogLevel(cfg.Logging.Level)
		logger = NewLogger(lcfg)
	}

	a := &App{cfg: cfg, logger: logger}

	front := s.frontend
	if front == nil {
		var err error
		if front, err = a.buildFrontend(); err != nil {
			return nil, &InitError{Component: "frontend", Err: err}
		}
	}

	reg := settings.NewRegistry(cfg.Paths.DefaultSettings, cfg.Paths.UserSettings)

	a.host = host.New(
		host.WithFrontend(front),
		host.WithSettingsRegistry(reg),
		host.WithPackagesPath(cfg.Paths.Packages...),
		host.WithSystemClipboard(cfg.UI.SystemClipboard),
		host.WithAsyncWorkers(cfg.Loop.AsyncWorkers),
		host.WithPanicHandler(func(recovered any, stack []byte) {
			logger.WithComponent("loop").Error("task panic: %v\n%s", recovered, stack)
		}),
	)
	if cfg.Logging.Commands {
		a.host.LogCommands(true)
	}

	// A missing watcher degrades to manual reloads, it never blocks
	// startup.
	if cfg.Settings.Watch {
		w, err := settings.NewWatcher(reg, func(name string, err error) {
			if err != nil {
				logger.WithComponent("settings").Warn("reload %s: %v", name, err)
				return
			}
			logger.WithComponent("settings").Debug("reloaded %s", name)
		})
		if err != nil {
			logger.WithComponent("settings").Warn("watcher unavailable: %v", err)
		} else {
			a.watcher = w
		}
	}

	loader := plugin.NewLoader(plugin.WithPaths(cfg.Paths.Plugins...))
	a.plugins = plugin.NewManager(a.host, loader,
		plugin.WithOutput(s.output),
		plugin.WithErrorReporter(func(err error) {
			logger.WithComponent("plugin").Error("callback: %v", err)
		}),
	)

	return a, nil
}

// buildFrontend constructs the surface named in the configuration.
func (a *App) buildFrontend() (host.Frontend, error) {
	switch a.cfg.UI.Frontend {
	case FrontendNull:
		return host.NullFrontend{}, nil
	case FrontendConsole:
		return frontend.NewConsole(os.Stdin, os.Stdout), nil
	case FrontendTerm:
		t, err := frontend.NewTerm()
		if err != nil {
			return nil, err
		}
		a.term = t
		return t, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFrontend, a.cfg.UI.Frontend)
}

// Host returns the session root.
func (a *App) Host() *host.Host {
	return a.host
}

// Plugins returns the plugin manager.
func (a *App) Plugins() *plugin.Manager {
	return a.plugins
}

// Logger returns the application logger.
func (a *App) Logger() *Logger {
	return a.logger
}

// Config returns the configuration the application was built from.
func (a *App) Config() *Config {
	return a.cfg
}

// LoadPlugins discovers and loads every configured plugin. Per-plugin
// failures are logged and do not abort startup.
func (a *App) LoadPlugins() {
	if err := a.plugins.LoadAll(); err != nil {
		a.logger.WithComponent("plugin").Warn("%v", err)
	}
}

// OpenFiles opens the startup files in the active window. Failures are
// logged and skipped.
func (a *App) OpenFiles(paths []string) {
	if len(paths) == 0 {
		return
	}
	w := a.window()
	for _, path := range paths {
		if _, err := w.OpenFile(path); err != nil {
			a.logger.Warn("open %s: %v", path, err)
		}
	}
}

// Run loads plugins, then blocks on the dispatch loop until ctx is
// cancelled or the loop is stopped. Cancellation is a clean exit.
func (a *App) Run(ctx context.Context) error {
	if !a.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer a.running.Store(false)

	a.LoadPlugins()
	err := a.host.Loop().Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// RunBatch loads plugins, executes the batch on the loop and stops the
// loop after the last step.
func (a *App) RunBatch(ctx context.Context, b *Batch) error {
	if !a.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer a.running.Store(false)

	loopCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	loopDone := make(chan error, 1)
	go func() { loopDone <- a.host.Loop().Run(loopCtx) }()

	a.LoadPlugins()
	err := b.Run(ctx, a)
	cancel()
	<-loopDone
	return err
}

// post runs fn on the dispatch loop and waits for it. A cancelled ctx
// abandons the wait, not the task.
func (a *App) post(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	a.host.Loop().Post(func() { done <- fn() })
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-a.host.Loop().Done():
		return dispatch.ErrNotRunning
	}
}

// window returns the active window, creating the first one on demand.
func (a *App) window() *host.Window {
	if w := a.host.ActiveWindow(); w != nil {
		return w
	}
	return a.host.NewWindow()
}

// activeView returns the active view, creating a scratch view when the
// window is empty.
func (a *App) activeView() (*host.View, error) {
	w := a.window()
	if v := w.ActiveView(); v != nil {
		return v, nil
	}
	return w.NewFile()
}

// runStep executes one batch step. Runs on the dispatch loop.
func (a *App) runStep(s *Step) error {
	switch {
	case s.Open != "":
		_, err := a.window().OpenFile(s.Open)
		return err
	case s.Insert != "":
		return a.insertText(s.Insert)
	case s.Command != nil:
		return a.runCommandStep(s.Command)
	case s.Call != nil:
		inst, ok := a.plugins.Get(s.Call.Plugin)
		if !ok {
			return fmt.Errorf("plugin %q: %w", s.Call.Plugin, plugin.ErrPluginNotFound)
		}
		_, err := inst.Call(s.Call.Function, s.Call.Args...)
		return err
	}
	return ErrBadStep
}

// insertText appends to the active view inside one edit session.
func (a *App) insertText(s string) error {
	v, err := a.activeView()
	if err != nil {
		return err
	}
	e, err := v.BeginEdit()
	if err != nil {
		return err
	}
	defer v.EndEdit(e)
	size, err := v.Size()
	if err != nil {
		return err
	}
	_, err = v.Insert(e, text.Point(size), s)
	return err
}

// runCommandStep dispatches a command step to its scope.
func (a *App) runCommandStep(c *CommandStep) error {
	switch c.Scope {
	case "", plugin.ScopeText:
		v, err := a.activeView()
		if err != nil {
			return err
		}
		return v.RunCommand(c.Name, c.Args)
	case plugin.ScopeWindow:
		return a.window().RunCommand(c.Name, c.Args)
	case plugin.ScopeApplication:
		return a.host.RunCommand(c.Name, c.Args)
	}
	return fmt.Errorf("scope %q: %w", c.Scope, ErrBadStep)
}

// Close tears down plugins, watcher, host and frontend, in that order.
// Safe to call more than once.
func (a *App) Close() {
	a.closeOnce.Do(func() {
		a.plugins.UnloadAll()
		if a.watcher != nil {
			_ = a.watcher.Close()
		}
		a.host.Close()
		if a.term != nil {
			a.term.Close()
		}
	})
}
