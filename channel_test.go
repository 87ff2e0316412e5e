package cml

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelSendRecvRendezvous(t *testing.T) {
	c := NewChannel[int]()

	go func() { _ = c.Send(context.Background(), 5) }()

	v, err := c.Recv(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, v)
}

func TestChannelMultiSenderFIFO(t *testing.T) {
	c := NewChannel[int]()

	var wg sync.WaitGroup
	for _, v := range []int{1, 2, 3} {
		v := v
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.Send(context.Background(), v)
		}()
		// Ensure sends enqueue in this order before the next is spawned, so
		// the FIFO property under test is deterministic.
		time.Sleep(time.Millisecond)
	}

	got := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		v, err := c.Recv(context.Background())
		require.NoError(t, err)
		got = append(got, v)
	}
	wg.Wait()
	assert.Equal(t, []int{1, 2, 3}, got)
}

func TestChannelSendPollRecvPollNeverBlock(t *testing.T) {
	c := NewChannel[int]()

	_, ok := c.RecvPoll()
	assert.False(t, ok)
	assert.False(t, c.SendPoll(1))

	go func() { _ = c.Send(context.Background(), 9) }()
	require.Eventually(t, func() bool {
		v, ok := c.RecvPoll()
		return ok && v == 9
	}, time.Second, time.Millisecond)
}

func TestChannelCloseRejectsNewOffers(t *testing.T) {
	c := NewChannel[int]()
	c.Close()

	assert.Panics(t, func() { _, _ = Sync(context.Background(), c.SendEvt(1)) })
	assert.False(t, c.SendPoll(1))
	_, ok := c.RecvPoll()
	assert.False(t, ok)
}

func TestChannelTimeoutBeatsRecv(t *testing.T) {
	c := NewChannel[int]()

	start := time.Now()
	result, err := Sync(context.Background(), Choose(
		Wrap(c.RecvEvt(), func(v int) string { return "got" }),
		Wrap(Timeout(10*time.Millisecond), func(struct{}) string { return "timeout" }),
	))
	require.NoError(t, err)
	assert.Equal(t, "timeout", result)
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}

func TestChannelRecvBeatsTimeout(t *testing.T) {
	c := NewChannel[int]()
	go func() { _ = c.Send(context.Background(), 7) }()

	result, err := Sync(context.Background(), Choose(
		Wrap(c.RecvEvt(), func(v int) string { return "got" }),
		Wrap(Timeout(500*time.Millisecond), func(struct{}) string { return "timeout" }),
	))
	require.NoError(t, err)
	assert.Equal(t, "got", result)
}

func TestChannelRecvCancelledByContext(t *testing.T) {
	c := NewChannel[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	_, err := c.Recv(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
