package barrier

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTwoPartyBarrierTwoRounds(t *testing.T) {
	b := New(0, func(n int) int { return n + 1 })
	a := b.Enroll()
	c := b.Enroll()

	round := func(expect int) {
		var wg sync.WaitGroup
		var sa, sc int
		var erra, errc error
		wg.Add(2)
		go func() { defer wg.Done(); sa, erra = a.Wait(context.Background()) }()
		go func() { defer wg.Done(); sc, errc = c.Wait(context.Background()) }()
		wg.Wait()
		require.NoError(t, erra)
		require.NoError(t, errc)
		assert.Equal(t, expect, sa)
		assert.Equal(t, expect, sc)
	}

	round(1)
	round(2)
}

func TestResignTriggersWhenAllOthersWaiting(t *testing.T) {
	b := New("start", func(s string) string { return s + "!" })
	a := b.Enroll()
	c := b.Enroll()

	done := make(chan string, 1)
	go func() {
		v, err := a.Wait(context.Background())
		if err == nil {
			done <- v
		}
	}()

	time.Sleep(5 * time.Millisecond) // let a register
	c.Resign()

	select {
	case v := <-done:
		assert.Equal(t, "start!", v)
	case <-time.After(time.Second):
		t.Fatal("resign did not trigger the barrier")
	}
}
