package settings

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ErrWatcherClosed is returned from operations on a closed watcher.
var ErrWatcherClosed = errors.New("settings watcher closed")

// debounceDelay coalesces the burst of events editors emit on save.
const debounceDelay = 100 * time.Millisecond

// Watcher reloads named settings when their files change on disk.
type Watcher struct {
	mu       sync.Mutex
	registry *Registry
	watcher  *fsnotify.Watcher
	onReload func(name string, err error)
	pending  map[string]*time.Timer
	closed   bool
	closeCh  chan struct{}
	wg       sync.WaitGroup
}

// NewWatcher starts watching the registry's directories. onReload is
// called after every triggered reload with the reload result; it may be
// nil. Directories that do not exist yet are skipped.
func NewWatcher(registry *Registry, onReload func(name string, err error)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		registry: registry,
		watcher:  fsw,
		onReload: onReload,
		pending:  make(map[string]*time.Timer),
		closeCh:  make(chan struct{}),
	}

	defaultDir, userDir := registry.Dirs()
	for _, dir := range []string{defaultDir, userDir} {
		if dir == "" {
			continue
		}
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, err
		}
	}

	w.wg.Add(1)
	go w.processLoop()
	return w, nil
}

// Close stops the watcher and cancels pending reloads.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	for _, t := range w.pending {
		t.Stop()
	}
	close(w.closeCh)
	w.mu.Unlock()

	w.wg.Wait()
	return w.watcher.Close()
}

func (w *Watcher) processLoop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.closeCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Remove) {
				w.scheduleReload(filepath.Base(event.Name))
			}
		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// scheduleReload debounces reloads per basename and only reacts to files
// the registry actually loaded.
func (w *Watcher) scheduleReload(name string) {
	loaded := false
	for _, n := range w.registry.LoadedNames() {
		if n == name {
			loaded = true
			break
		}
	}
	if !loaded {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if t, ok := w.pending[name]; ok {
		t.Stop()
	}
	w.pending[name] = time.AfterFunc(debounceDelay, func() {
		w.mu.Lock()
		delete(w.pending, name)
		closed := w.closed
		w.mu.Unlock()
		if closed {
			return
		}
		err := w.registry.Reload(name)
		if w.onReload != nil {
			w.onReload(name, err)
		}
	})
}
