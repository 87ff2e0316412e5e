package timerwheel

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScheduleFires(t *testing.T) {
	w := New()
	fired := make(chan struct{})
	w.Schedule(5*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("callback never fired")
	}
}

func TestCancelPreventsFiring(t *testing.T) {
	w := New()
	fired := make(chan struct{})
	id := w.Schedule(30*time.Millisecond, func() { close(fired) })

	assert.True(t, w.Cancel(id))
	assert.False(t, w.Cancel(id), "cancelling twice should not succeed twice")

	select {
	case <-fired:
		t.Fatal("cancelled callback fired anyway")
	case <-time.After(60 * time.Millisecond):
	}
}

func TestFiresInOrder(t *testing.T) {
	w := New()
	var mu sync.Mutex
	var order []int
	done := make(chan struct{})

	record := func(n int) {
		mu.Lock()
		order = append(order, n)
		mu.Unlock()
	}

	w.Schedule(20*time.Millisecond, func() { record(2) })
	w.Schedule(5*time.Millisecond, func() { record(1) })
	w.Schedule(35*time.Millisecond, func() {
		record(3)
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timers never fired")
	}
	assert.Equal(t, []int{1, 2, 3}, order)
}
