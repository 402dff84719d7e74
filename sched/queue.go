// Package sched implements the cooperative event loop (C5): a FIFO
// task queue, one-shot timers, recurring intervals, and a worker pool
// for blocking native calls that reinjects results into the main loop
// instead of touching VM/heap state from another goroutine. Grounded
// on the teacher's task/manager.go + task/task.go queue and
// server/scheduler.go's timer-ordered dispatch loop, restructured off
// their package-level Manager singleton per spec.md §9's design note.
package sched

import (
	"container/heap"
)

// Task is one unit of work the main loop runs synchronously, inline,
// with no preemption — typically "invoke this Function value with
// these arguments" from the embedder's point of view. Run receives
// nothing from sched itself; sched only decides when to call it.
type Task func()

// taskQueue is a plain FIFO of ready tasks.
type taskQueue struct {
	items []Task
}

func (q *taskQueue) push(t Task) { q.items = append(q.items, t) }

func (q *taskQueue) pop() (Task, bool) {
	if len(q.items) == 0 {
		return nil, false
	}
	t := q.items[0]
	q.items = q.items[1:]
	return t, true
}

func (q *taskQueue) empty() bool { return len(q.items) == 0 }

// timerEntry is one pending timer or interval, ordered by dueAtSeq for
// the min-heap below.
type timerEntry struct {
	id       int64
	dueAtSeq int64 // due time, wall-clock Unix nanoseconds
	period   int64 // 0 for one-shot timers, >0 for intervals
	task     Task
	canceled bool
}

// timerHeap is a container/heap.Interface min-heap on dueAtSeq,
// grounded on server/scheduler.go's use of container/heap for its
// TaskQueue.
type timerHeap []*timerEntry

func (h timerHeap) Len() int            { return len(h) }
func (h timerHeap) Less(i, j int) bool  { return h[i].dueAtSeq < h[j].dueAtSeq }
func (h timerHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *timerHeap) Push(x interface{}) { *h = append(*h, x.(*timerEntry)) }
func (h *timerHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

var _ heap.Interface = (*timerHeap)(nil)
