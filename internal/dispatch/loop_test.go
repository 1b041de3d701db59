package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"
)

// startLoop runs l on a fresh goroutine and returns a channel carrying
// Run's result.
func startLoop(l *Loop) chan error {
	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(context.Background()) }()
	return errCh
}

func TestLoopRunsTasksInOrder(t *testing.T) {
	l := New()
	startLoop(l)
	defer l.Stop()

	var order []int
	done := make(chan struct{})
	for i := 1; i <= 3; i++ {
		i := i
		l.Post(func() { order = append(order, i) })
	}
	l.Post(func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for tasks")
	}
	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Errorf("expected tasks in post order, got %v", order)
	}
}

func TestPostBeforeRun(t *testing.T) {
	l := New()
	done := make(chan struct{})
	l.Post(func() { close(done) })
	startLoop(l)
	defer l.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a pre-run post to execute once the loop starts")
	}
}

func TestStopDiscardsPending(t *testing.T) {
	l := New()
	startLoop(l)

	started := make(chan struct{})
	release := make(chan struct{})
	ran := false
	l.Post(func() {
		close(started)
		<-release
	})
	l.Post(func() { ran = true })

	<-started
	if err := l.Stop(); err != nil {
		t.Fatalf("unexpected stop error: %v", err)
	}
	close(release)

	select {
	case <-l.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the loop to exit")
	}
	if ran {
		t.Error("expected the pending task to be discarded")
	}
}

func TestPostAfterStopIsSilent(t *testing.T) {
	l := New()
	startLoop(l)
	if err := l.Stop(); err != nil {
		t.Fatalf("unexpected stop error: %v", err)
	}
	<-l.Done()

	l.Post(func() { t.Error("expected the task never to run") })
	l.PostDelayed(func() { t.Error("expected the delayed task never to run") }, time.Millisecond)
	if l.Pending() != 0 {
		t.Errorf("expected no queued tasks, got %d", l.Pending())
	}
	time.Sleep(50 * time.Millisecond)
}

func TestStopWithoutRun(t *testing.T) {
	l := New()
	if err := l.Stop(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("expected ErrNotRunning, got %v", err)
	}
}

func TestRunTwice(t *testing.T) {
	l := New()
	startLoop(l)
	defer l.Stop()

	ready := make(chan struct{})
	l.Post(func() { close(ready) })
	<-ready

	if err := l.Run(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("expected ErrAlreadyRunning, got %v", err)
	}
}

func TestPostDelayed(t *testing.T) {
	l := New()
	startLoop(l)
	defer l.Stop()

	done := make(chan struct{})
	start := time.Now()
	l.PostDelayed(func() { close(done) }, 30*time.Millisecond)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the delayed task")
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("expected at least 30ms delay, got %v", elapsed)
	}
}

func TestRunAsyncRunsOffTheMainSequence(t *testing.T) {
	l := New()
	startLoop(l)
	defer l.Stop()

	asyncDone := make(chan struct{})
	blockLoop := make(chan struct{})
	l.Post(func() {
		l.RunAsync(func() { close(asyncDone) })
		// The async task must complete even though this task still
		// occupies the main sequence.
		select {
		case <-asyncDone:
		case <-time.After(2 * time.Second):
			t.Error("async task did not run while the loop was busy")
		}
		close(blockLoop)
	})

	select {
	case <-blockLoop:
	case <-time.After(3 * time.Second):
		t.Fatal("timed out")
	}
}

func TestRunAsyncDelayed(t *testing.T) {
	l := New()
	startLoop(l)
	defer l.Stop()

	done := make(chan struct{})
	start := time.Now()
	l.RunAsyncDelayed(func() { close(done) }, 20*time.Millisecond)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the delayed async task")
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("expected at least 20ms delay, got %v", elapsed)
	}
}

func TestPanicInTaskKeepsLoopAlive(t *testing.T) {
	panics := make(chan any, 1)
	l := New(WithPanicHandler(func(recovered any, stack []byte) {
		panics <- recovered
	}))
	startLoop(l)
	defer l.Stop()

	survived := make(chan struct{})
	l.Post(func() { panic("boom") })
	l.Post(func() { close(survived) })

	select {
	case r := <-panics:
		if r != "boom" {
			t.Errorf("expected the panic value, got %v", r)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the panic handler")
	}
	select {
	case <-survived:
	case <-time.After(2 * time.Second):
		t.Fatal("expected the loop to keep running after a panic")
	}
}

func TestContextCancelHaltsLoop(t *testing.T) {
	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(ctx) }()

	ready := make(chan struct{})
	l.Post(func() { close(ready) })
	<-ready

	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for Run to return")
	}
	if l.Running() {
		t.Error("expected the loop to report not running")
	}
}

func TestStopFromInsideATask(t *testing.T) {
	l := New()
	errCh := startLoop(l)

	l.Post(func() {
		if err := l.Stop(); err != nil {
			t.Errorf("unexpected stop error: %v", err)
		}
	})

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("expected a clean exit, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the loop to exit")
	}
}
