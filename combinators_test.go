package cml

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlways(t *testing.T) {
	v, err := Sync(context.Background(), Always(42))
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestWrap(t *testing.T) {
	v, err := Sync(context.Background(), Wrap(Always(3), func(n int) string {
		return "n=3"
	}))
	require.NoError(t, err)
	assert.Equal(t, "n=3", v)
}

func TestChoosePollFastPathSourceOrder(t *testing.T) {
	v, err := Sync(context.Background(), Choose(Always("first"), Always("second")))
	require.NoError(t, err)
	assert.Equal(t, "first", v)
}

func TestGuardLaziness(t *testing.T) {
	ran := false
	g := Guard(func() Event[string] {
		ran = true
		return Always("g")
	})

	v, err := Sync(context.Background(), Choose(Always("x"), g))
	require.NoError(t, err)
	assert.Equal(t, "x", v)
	assert.False(t, ran, "guard thunk must not run when an earlier sibling wins the poll fast path")
}

func TestGuardRunsWhenSelected(t *testing.T) {
	ran := false
	g := Guard(func() Event[string] {
		ran = true
		return Always("g")
	})

	v, err := Sync(context.Background(), g)
	require.NoError(t, err)
	assert.Equal(t, "g", v)
	assert.True(t, ran)
}

func TestWrapHandlerRecoversPanic(t *testing.T) {
	boom := Wrap(Always(0), func(int) int { panic("boom") })
	handled := WrapHandler(boom, func(ex any) int { return -1 })

	v, err := Sync(context.Background(), handled)
	require.NoError(t, err)
	assert.Equal(t, -1, v)
}

func TestWrapHandlerPassesThroughWithoutHandler(t *testing.T) {
	boom := Wrap(Always(0), func(int) int { panic("boom") })
	assert.Panics(t, func() {
		_, _ = Sync(context.Background(), boom)
	})
}

func TestNeverTimesOut(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	_, err := Sync(ctx, Never[int]())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWithNackFiresOnLoss(t *testing.T) {
	c := NewChannel[int]()
	fired := make(chan struct{})

	losing := WithNack(func(nack Event[struct{}]) Event[int] {
		go func() {
			if _, err := Sync(context.Background(), nack); err == nil {
				close(fired)
			}
		}()
		return c.RecvEvt()
	})

	v, err := Sync(context.Background(), Choose(losing, Always(42)))
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("nack did not fire after losing branch")
	}
}

func TestWithNackDoesNotFireOnWin(t *testing.T) {
	cv := NewCVar()
	fired := make(chan struct{})

	winning := WithNack(func(nack Event[struct{}]) Event[struct{}] {
		go func() {
			if _, err := Sync(context.Background(), nack); err == nil {
				close(fired)
			}
		}()
		return cv.Evt()
	})

	cv.Set()
	_, err := Sync(context.Background(), winning)
	require.NoError(t, err)

	select {
	case <-fired:
		t.Fatal("nack fired for the winning branch")
	case <-time.After(20 * time.Millisecond):
	}
}
