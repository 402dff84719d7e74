package sched

import (
	"testing"
	"time"
)

func TestPostRunsInFIFOOrder(t *testing.T) {
	loop := NewLoop(0)
	var order []int
	loop.Post(func() { order = append(order, 1) })
	loop.Post(func() { order = append(order, 2) })
	loop.Post(func() { order = append(order, 3) })

	loop.Run()

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("run order = %v, want [1 2 3]", order)
	}
}

func TestAfterFiresOnceNotBeforeDelay(t *testing.T) {
	loop := NewLoop(0)
	fired := false
	loop.After(10*time.Millisecond, func() { fired = true })

	if loop.Idle() {
		t.Fatal("loop reports idle with a pending one-shot timer")
	}
	loop.Run()
	if !fired {
		t.Fatal("After task never ran")
	}
	if !loop.Idle() {
		t.Fatal("loop should be idle once its only timer has fired")
	}
}

func TestEveryReschedulesUntilCanceled(t *testing.T) {
	loop := NewLoop(0)
	count := 0
	var id TimerID
	id = loop.Every(5*time.Millisecond, func() {
		count++
		if count >= 3 {
			loop.Cancel(id)
		}
	})

	deadline := time.Now().Add(500 * time.Millisecond)
	for !loop.Idle() && time.Now().Before(deadline) {
		loop.drainDueTimers()
		loop.drainWorkerResults()
		if task, ok := loop.queue.pop(); ok {
			task()
		}
	}

	if count < 3 {
		t.Fatalf("interval fired %d times before cancel, want at least 3", count)
	}
}

func TestCancelBeforeFireLeavesLoopIdle(t *testing.T) {
	loop := NewLoop(0)
	fired := false
	id := loop.After(50*time.Millisecond, func() { fired = true })
	loop.Cancel(id)

	if !loop.Idle() {
		t.Fatal("loop should be idle immediately after canceling its only timer")
	}
	if fired {
		t.Fatal("canceled timer must never fire")
	}
}

func TestSpawnResultReachesCallbackOnMainLoop(t *testing.T) {
	loop := NewLoop(2)
	done := make(chan struct{})
	var gotResult []byte
	var gotErr error

	loop.Spawn(func() ([]byte, error) {
		return EncodeResult("hello")
	}, func(raw []byte, err error) {
		gotResult, gotErr = raw, err
		close(done)
	})

	go loop.Run()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Spawn callback never ran")
	}

	if gotErr != nil {
		t.Fatalf("callback error = %v, want nil", gotErr)
	}
	res, err := DecodeResult(gotResult)
	if err != nil {
		t.Fatalf("DecodeResult failed: %v", err)
	}
	if !res.OK || res.Data != "hello" {
		t.Fatalf("decoded result = %+v, want OK with data \"hello\"", res)
	}
}
