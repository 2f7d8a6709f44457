package engine

import (
	"sync"
	"time"

	"github.com/google/btree"
)

// Task is a callback scheduled for a future point in time. Tasks are ordered
// by fire time, with the insertion sequence as a tie-break so that tasks
// scheduled for the same instant dispatch in scheduling order.
type Task struct {
	fireAt   time.Time
	seq      uint64
	run      func()
	sched    *Scheduler
	canceled bool // guarded by sched.mu
}

func (t *Task) Less(than btree.Item) bool {
	other := than.(*Task)
	if t.fireAt.Equal(other.fireAt) {
		return t.seq < other.seq
	}
	return t.fireAt.Before(other.fireAt)
}

// Cancel removes the task before it fires. Returns false if the task was
// already dispatched or canceled; a dispatched task always wins over a
// concurrent cancellation.
func (t *Task) Cancel() bool {
	s := t.sched
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.canceled {
		return false
	}
	// edge case: a task the loop already popped is no longer in the tree
	if s.tasks.Delete(t) == nil {
		return false
	}
	t.canceled = true
	return true
}

// Scheduler drives every delayed callback in the exchange (trade fires,
// periodic strategy checks) from a single priority queue instead of one
// timer per event. Callbacks run on their own goroutine.
type Scheduler struct {
	mu    sync.Mutex
	tasks *btree.BTree
	seq   uint64

	wake     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func NewScheduler() *Scheduler {
	return &Scheduler{
		tasks: btree.New(32),
		wake:  make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

func (s *Scheduler) Start() {
	go s.loop()
}

// Stop ends the dispatch loop. Pending tasks never fire; callbacks already
// dispatched are not interrupted.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
	})
}

// After schedules fn to run once after the given delay.
func (s *Scheduler) After(delay time.Duration, fn func()) *Task {
	s.mu.Lock()
	s.seq++
	t := &Task{
		fireAt: time.Now().Add(delay),
		seq:    s.seq,
		run:    fn,
		sched:  s,
	}
	s.tasks.ReplaceOrInsert(t)
	s.mu.Unlock()

	s.notify()
	return t
}

// Every schedules fn at a fixed period for the lifetime of the scheduler.
func (s *Scheduler) Every(period time.Duration, fn func()) {
	var tick func()
	tick = func() {
		fn()
		select {
		case <-s.done:
		default:
			s.After(period, tick)
		}
	}
	s.After(period, tick)
}

func (s *Scheduler) notify() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Scheduler) loop() {
	for {
		s.mu.Lock()
		var wait time.Duration
		hasNext := false
		if s.tasks.Len() > 0 {
			next := s.tasks.Min().(*Task)
			now := time.Now()
			if !next.fireAt.After(now) {
				s.tasks.DeleteMin()
				s.mu.Unlock()
				go next.run()
				continue
			}
			wait = next.fireAt.Sub(now)
			hasNext = true
		}
		s.mu.Unlock()

		if !hasNext {
			select {
			case <-s.done:
				return
			case <-s.wake:
			}
			continue
		}

		timer := time.NewTimer(wait)
		select {
		case <-s.done:
			timer.Stop()
			return
		case <-s.wake:
			timer.Stop()
		case <-timer.C:
		}
	}
}
