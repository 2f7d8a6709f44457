package engine

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s := NewScheduler()
	s.Start()
	t.Cleanup(s.Stop)
	return s
}

func TestAfterFiresCallback(t *testing.T) {
	s := newTestScheduler(t)

	fired := make(chan struct{})
	s.After(10*time.Millisecond, func() {
		close(fired)
	})

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("Expected task to fire within a second")
	}
}

func TestTasksDispatchInFireOrder(t *testing.T) {
	s := newTestScheduler(t)

	var mu sync.Mutex
	var order []int
	record := func(n int) func() {
		return func() {
			mu.Lock()
			order = append(order, n)
			mu.Unlock()
		}
	}

	// scheduled out of order, spaced widely enough that goroutine dispatch
	// cannot reorder them
	s.After(130*time.Millisecond, record(3))
	s.After(10*time.Millisecond, record(1))
	s.After(70*time.Millisecond, record(2))

	waitFor(t, time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 3
	})

	mu.Lock()
	defer mu.Unlock()
	for i, n := range order {
		if n != i+1 {
			t.Errorf("Expected dispatch order [1 2 3], got: %v", order)
			break
		}
	}
}

func TestCancelPreventsFire(t *testing.T) {
	s := newTestScheduler(t)

	var fired atomic.Bool
	task := s.After(50*time.Millisecond, func() {
		fired.Store(true)
	})

	if !task.Cancel() {
		t.Error("Expected Cancel to succeed for a pending task")
	}

	time.Sleep(150 * time.Millisecond)
	if fired.Load() {
		t.Error("Expected canceled task not to fire")
	}
}

func TestCancelLosesToDispatchedTask(t *testing.T) {
	s := newTestScheduler(t)

	fired := make(chan struct{})
	task := s.After(time.Millisecond, func() {
		close(fired)
	})

	<-fired
	if task.Cancel() {
		t.Error("Expected Cancel to report false once the task dispatched")
	}
}

func TestCancelTwiceReportsFalse(t *testing.T) {
	s := newTestScheduler(t)

	task := s.After(time.Hour, func() {})
	if !task.Cancel() {
		t.Fatal("Expected first Cancel to succeed")
	}
	if task.Cancel() {
		t.Error("Expected second Cancel to report false")
	}
}

func TestEveryRepeats(t *testing.T) {
	s := newTestScheduler(t)

	var count atomic.Int64
	s.Every(10*time.Millisecond, func() {
		count.Add(1)
	})

	waitFor(t, time.Second, func() bool {
		return count.Load() >= 3
	})
}

func TestStopDropsPendingTasks(t *testing.T) {
	s := NewScheduler()
	s.Start()

	var fired atomic.Bool
	s.After(50*time.Millisecond, func() {
		fired.Store(true)
	})

	s.Stop()
	time.Sleep(150 * time.Millisecond)
	if fired.Load() {
		t.Error("Expected pending task not to fire after Stop")
	}
}
