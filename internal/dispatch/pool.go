package dispatch

import (
	"runtime/debug"
	"sync"
)

type poolState int

const (
	poolCreated poolState = iota
	poolRunning
	poolStopped
)

// Pool runs tasks concurrently on a fixed set of workers. When every
// worker is busy and the queue is full a task runs on a transient
// goroutine instead of blocking or dropping.
type Pool struct {
	mu          sync.Mutex
	state       poolState
	workerCount int
	pending     []func()
	queue       chan func()
	wg          sync.WaitGroup

	panicHandler PanicHandler
}

func newPool(workerCount int) *Pool {
	return &Pool{
		workerCount:  workerCount,
		panicHandler: defaultPanicHandler,
	}
}

// start spawns the workers and flushes tasks submitted before start.
func (p *Pool) start() {
	p.mu.Lock()
	if p.state != poolCreated {
		p.mu.Unlock()
		return
	}
	p.state = poolRunning
	p.queue = make(chan func(), 256)
	pending := p.pending
	p.pending = nil
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	p.mu.Unlock()

	for _, fn := range pending {
		p.submit(fn)
	}
}

// stop closes the queue, lets queued tasks finish and waits for workers.
func (p *Pool) stop() {
	p.mu.Lock()
	if p.state != poolRunning {
		p.state = poolStopped
		p.mu.Unlock()
		return
	}
	p.state = poolStopped
	close(p.queue)
	p.mu.Unlock()
	p.wg.Wait()
}

// submit schedules fn. Before start it is buffered; after stop it is a
// silent no-op.
func (p *Pool) submit(fn func()) {
	p.mu.Lock()
	switch p.state {
	case poolCreated:
		p.pending = append(p.pending, fn)
		p.mu.Unlock()
		return
	case poolStopped:
		p.mu.Unlock()
		return
	}
	select {
	case p.queue <- fn:
		p.mu.Unlock()
	default:
		p.wg.Add(1)
		p.mu.Unlock()
		go func() {
			defer p.wg.Done()
			p.run(fn)
		}()
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for fn := range p.queue {
		p.run(fn)
	}
}

func (p *Pool) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			p.panicHandler(r, debug.Stack())
		}
	}()
	fn()
}
