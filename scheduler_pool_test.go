package cml

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPooledSchedulerLimitsConcurrency(t *testing.T) {
	sched := NewPooledScheduler(2)

	var running atomic.Int32
	var maxObserved atomic.Int32
	release := make(chan struct{})

	for i := 0; i < 5; i++ {
		go sched.Spawn(func() {
			n := running.Add(1)
			for {
				old := maxObserved.Load()
				if n <= old || maxObserved.CompareAndSwap(old, n) {
					break
				}
			}
			<-release
			running.Add(-1)
		})
	}

	time.Sleep(20 * time.Millisecond)
	assert.LessOrEqual(t, int(maxObserved.Load()), 2)
	close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	_, err := Sync(ctx, sched.JoinEvt(ThreadID(0)))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
