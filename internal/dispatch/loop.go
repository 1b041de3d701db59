package dispatch

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"
	"sync"
	"time"
)

// PanicHandler is called when a task panics. The loop keeps running.
type PanicHandler func(recovered any, stack []byte)

func defaultPanicHandler(recovered any, stack []byte) {
	fmt.Fprintf(os.Stderr, "dispatch: task panic: %v\n%s", recovered, stack)
}

type loopState int

const (
	loopCreated loopState = iota
	loopRunning
	loopStopped
)

// Loop executes tasks sequentially on a single goroutine. Tasks may be
// posted from any goroutine, including from inside a running task.
type Loop struct {
	mu        sync.Mutex
	state     loopState
	tasks     []func()
	timers    map[int64]*time.Timer
	nextTimer int64

	wake chan struct{}
	done chan struct{}

	panicHandler PanicHandler
	pool         *Pool
}

// Option configures a Loop.
type Option func(*Loop)

// WithPanicHandler sets the handler invoked when a task panics.
func WithPanicHandler(h PanicHandler) Option {
	return func(l *Loop) {
		if h != nil {
			l.panicHandler = h
		}
	}
}

// WithWorkerCount sets the size of the async worker pool.
func WithWorkerCount(count int) Option {
	return func(l *Loop) {
		if count > 0 {
			l.pool.workerCount = count
		}
	}
}

// New creates a loop. Tasks posted before Run are queued and execute once
// the loop starts.
func New(opts ...Option) *Loop {
	l := &Loop{
		timers:       make(map[int64]*time.Timer),
		wake:         make(chan struct{}, 1),
		done:         make(chan struct{}),
		panicHandler: defaultPanicHandler,
	}
	l.pool = newPool(4)
	for _, opt := range opts {
		opt(l)
	}
	l.pool.panicHandler = l.panicHandler
	return l
}

// Run processes tasks until Stop is called or ctx is cancelled. It blocks
// the calling goroutine, which becomes the main sequence. A loop cannot
// be restarted.
func (l *Loop) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.state != loopCreated {
		l.mu.Unlock()
		return ErrAlreadyRunning
	}
	l.state = loopRunning
	l.mu.Unlock()

	l.pool.start()
	defer close(l.done)
	defer l.pool.stop()

	for {
		for {
			l.mu.Lock()
			if l.state != loopRunning {
				l.mu.Unlock()
				return nil
			}
			if len(l.tasks) == 0 {
				l.mu.Unlock()
				break
			}
			fn := l.tasks[0]
			l.tasks = l.tasks[1:]
			l.mu.Unlock()
			l.invoke(fn)
		}

		select {
		case <-ctx.Done():
			l.halt()
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// Stop halts the loop and discards pending tasks and timers. It does not
// wait for the loop goroutine, so a task may stop its own loop; use Done
// to observe exit. Stopping a loop that is not running returns
// ErrNotRunning.
func (l *Loop) Stop() error {
	l.mu.Lock()
	if l.state != loopRunning {
		l.mu.Unlock()
		return ErrNotRunning
	}
	l.haltLocked()
	l.mu.Unlock()
	l.signal()
	return nil
}

// Done is closed once the loop goroutine has exited.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Running reports whether the loop is processing tasks.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state == loopRunning
}

func (l *Loop) halt() {
	l.mu.Lock()
	l.haltLocked()
	l.mu.Unlock()
}

// haltLocked is shared between Stop and context cancellation. Callers
// hold the lock.
func (l *Loop) haltLocked() {
	l.state = loopStopped
	l.tasks = nil
	for id, t := range l.timers {
		t.Stop()
		delete(l.timers, id)
	}
}

// Post queues fn to run on the main sequence. Posting to a stopped loop
// is a silent no-op.
func (l *Loop) Post(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	if l.state == loopStopped {
		l.mu.Unlock()
		return
	}
	l.tasks = append(l.tasks, fn)
	l.mu.Unlock()
	l.signal()
}

// PostDelayed queues fn to run on the main sequence after at least delay.
func (l *Loop) PostDelayed(fn func(), delay time.Duration) {
	if fn == nil {
		return
	}
	if delay <= 0 {
		l.Post(fn)
		return
	}
	l.mu.Lock()
	if l.state == loopStopped {
		l.mu.Unlock()
		return
	}
	id := l.nextTimer
	l.nextTimer++
	l.timers[id] = time.AfterFunc(delay, func() {
		l.mu.Lock()
		delete(l.timers, id)
		l.mu.Unlock()
		l.Post(fn)
	})
	l.mu.Unlock()
}

// RunAsync executes fn off the main sequence on the worker pool. The task
// must post back onto the loop to touch host state.
func (l *Loop) RunAsync(fn func()) {
	if fn == nil {
		return
	}
	l.pool.submit(fn)
}

// RunAsyncDelayed executes fn on the worker pool after at least delay.
func (l *Loop) RunAsyncDelayed(fn func(), delay time.Duration) {
	if fn == nil {
		return
	}
	if delay <= 0 {
		l.RunAsync(fn)
		return
	}
	l.mu.Lock()
	if l.state == loopStopped {
		l.mu.Unlock()
		return
	}
	id := l.nextTimer
	l.nextTimer++
	l.timers[id] = time.AfterFunc(delay, func() {
		l.mu.Lock()
		delete(l.timers, id)
		l.mu.Unlock()
		l.pool.submit(fn)
	})
	l.mu.Unlock()
}

// Pending returns the number of queued main-sequence tasks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks)
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *Loop) invoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.panicHandler(r, debug.Stack())
		}
	}()
	fn()
}
