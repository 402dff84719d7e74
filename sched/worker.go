package sched

import (
	"sync"
	"sync/atomic"
)

// job is one blocking native call handed to a worker goroutine. fn
// does the actual blocking work (file I/O, a network call, anything
// that would stall the main loop) and returns its result pre-encoded
// as bytes — workers never construct a value.Value or touch the heap,
// since neither is safe to use outside the main loop (spec.md §5).
type job struct {
	fn       func() ([]byte, error)
	callback func([]byte, error)
}

// CompletedJob is one finished job waiting to be reinjected as a main
// loop task.
type CompletedJob struct {
	Result   []byte
	Err      error
	Callback func([]byte, error)
}

// WorkerPool runs blocking native calls on a fixed set of goroutines
// and hands finished results back through a mutex-protected queue,
// never a raw channel the collector could race against — grounded on
// the teacher's task manager dispatching MOO's background tasks, now
// generalized to arbitrary native work instead of verb resumption.
type WorkerPool struct {
	jobs chan job

	mu      sync.Mutex
	results []CompletedJob
	pending int64

	wg sync.WaitGroup
}

// NewWorkerPool starts n worker goroutines. n == 0 is valid: Submit
// still accepts jobs but they queue forever, appropriate for
// single-threaded tests that never call Submit.
func NewWorkerPool(n int) *WorkerPool {
	p := &WorkerPool{jobs: make(chan job, 64)}
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go p.runWorker()
	}
	return p
}

func (p *WorkerPool) runWorker() {
	defer p.wg.Done()
	for j := range p.jobs {
		result, err := j.fn()
		p.mu.Lock()
		p.results = append(p.results, CompletedJob{Result: result, Err: err, Callback: j.callback})
		p.mu.Unlock()
		atomic.AddInt64(&p.pending, -1)
	}
}

// Submit queues fn to run on a worker goroutine. cb is invoked later,
// from the main loop via Drain, never from the worker itself.
func (p *WorkerPool) Submit(fn func() ([]byte, error), cb func([]byte, error)) {
	atomic.AddInt64(&p.pending, 1)
	p.jobs <- job{fn: fn, callback: cb}
}

// Pending reports how many submitted jobs have not yet been drained,
// including ones still running.
func (p *WorkerPool) Pending() int {
	p.mu.Lock()
	queued := len(p.results)
	p.mu.Unlock()
	return int(atomic.LoadInt64(&p.pending)) + queued
}

// Drain removes and returns every finished job waiting in the result
// queue. Called only from the main loop.
func (p *WorkerPool) Drain() []CompletedJob {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.results) == 0 {
		return nil
	}
	out := p.results
	p.results = nil
	return out
}
