package cml

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// pooledScheduler is a Scheduler that caps the number of concurrently
// running fibers, queuing Spawn calls past the limit behind a weighted
// semaphore. Useful for hosts that want CML-style fiber semantics without
// letting an unbounded burst of spawns exhaust OS threads.
type pooledScheduler struct {
	inner *goroutineScheduler
	sem   *semaphore.Weighted
}

// NewPooledScheduler returns a Scheduler backed by goroutines, limited to at
// most limit running concurrently. A Spawn call past the limit blocks (the
// calling goroutine, not the new fiber) until a slot frees up.
func NewPooledScheduler(limit int64) Scheduler {
	return &pooledScheduler{
		inner: &goroutineScheduler{joins: make(map[ThreadID]*CVar)},
		sem:   semaphore.NewWeighted(limit),
	}
}

func (s *pooledScheduler) Spawn(fn func()) ThreadID {
	_ = s.sem.Acquire(context.Background(), 1)
	return s.inner.Spawn(func() {
		defer s.sem.Release(1)
		fn()
	})
}

func (s *pooledScheduler) Yield() { s.inner.Yield() }

func (s *pooledScheduler) JoinEvt(tid ThreadID) Event[struct{}] { return s.inner.JoinEvt(tid) }

var _ Scheduler = (*pooledScheduler)(nil)
