package sched

import (
	"container/heap"
	"time"
)

// Loop is the cooperative event loop core: a VM invocation runs to
// completion before the loop ever looks at another task, so nothing
// here needs a mutex except the one guarding the worker result queue,
// which genuinely is touched from other goroutines (spec.md §5).
//
// Not a singleton: an embedder owns one Loop per VM instance.
type Loop struct {
	queue  taskQueue
	timers timerHeap
	byID   map[int64]*timerEntry
	nextID int64

	workers *WorkerPool
}

// NewLoop creates an idle loop with workerCount background goroutines
// ready to run blocking native work (0 disables the pool entirely,
// useful for single-threaded deterministic tests).
func NewLoop(workerCount int) *Loop {
	l := &Loop{byID: make(map[int64]*timerEntry)}
	heap.Init(&l.timers)
	l.workers = NewWorkerPool(workerCount)
	return l
}

// Post enqueues t to run on a future iteration, FIFO among other
// posted tasks.
func (l *Loop) Post(t Task) {
	l.queue.push(t)
}

// TimerID identifies a scheduled timer or interval for cancellation.
type TimerID int64

// After schedules t to run once, no sooner than d from now.
func (l *Loop) After(d time.Duration, t Task) TimerID {
	return l.schedule(d, 0, t)
}

// Every schedules t to run repeatedly, first no sooner than d from
// now and then again every d thereafter, rescheduled each time it
// fires rather than drifting against a fixed origin.
func (l *Loop) Every(d time.Duration, t Task) TimerID {
	return l.schedule(d, d, t)
}

func (l *Loop) schedule(delay, period time.Duration, t Task) TimerID {
	l.nextID++
	entry := &timerEntry{
		id:       l.nextID,
		dueAtSeq: time.Now().Add(delay).UnixNano(),
		period:   int64(period),
		task:     t,
	}
	l.byID[entry.id] = entry
	heap.Push(&l.timers, entry)
	return TimerID(entry.id)
}

// Cancel stops a pending timer or interval. Canceling a timer that
// already fired or was never scheduled is a no-op.
func (l *Loop) Cancel(id TimerID) {
	if e, ok := l.byID[int64(id)]; ok {
		e.canceled = true
		delete(l.byID, int64(id))
	}
}

// Idle reports whether the loop has nothing left to do: no posted
// tasks, no pending timers, and no in-flight worker jobs. Run exits
// as soon as Idle reports true at the top of an iteration.
func (l *Loop) Idle() bool {
	return l.queue.empty() && len(l.byID) == 0 && l.workers.Pending() == 0
}

// Run drives the loop until Idle, in the order spec.md §5 requires:
// drain every due timer into the task queue, reap finished worker
// results into the task queue, pop and run exactly one task, then
// either loop again immediately (more work ready) or sleep until the
// next timer is due.
func (l *Loop) Run() {
	for !l.Idle() {
		l.drainDueTimers()
		l.drainWorkerResults()

		if t, ok := l.queue.pop(); ok {
			t()
			continue
		}

		if l.queue.empty() && l.workers.Pending() == 0 && len(l.timers) > 0 {
			next := time.Unix(0, l.timers[0].dueAtSeq)
			if wait := time.Until(next); wait > 0 {
				time.Sleep(wait)
			}
		}
	}
}

func (l *Loop) drainDueTimers() {
	now := time.Now().UnixNano()
	for len(l.timers) > 0 && l.timers[0].dueAtSeq <= now {
		entry := heap.Pop(&l.timers).(*timerEntry)
		if entry.canceled {
			continue
		}
		delete(l.byID, entry.id)
		l.queue.push(entry.task)

		if entry.period > 0 {
			entry.dueAtSeq = now + entry.period
			entry.canceled = false
			l.byID[entry.id] = entry
			heap.Push(&l.timers, entry)
		}
	}
}

func (l *Loop) drainWorkerResults() {
	for _, job := range l.workers.Drain() {
		j := job
		l.queue.push(func() { j.Callback(j.Result, j.Err) })
	}
}

// Spawn hands fn to the worker pool; when fn returns, cb runs on the
// main loop with fn's result, never on the worker goroutine — the
// only way native blocking work is allowed to touch VM/heap state
// (spec.md §5).
func (l *Loop) Spawn(fn func() ([]byte, error), cb func([]byte, error)) {
	l.workers.Submit(fn, cb)
}
