package cml

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpawnJoinEvt(t *testing.T) {
	var ran bool
	tid := Spawn(func() { ran = true })

	_, err := Sync(context.Background(), JoinEvt(tid))
	require.NoError(t, err)
	assert.True(t, ran)
}

func TestJoinEvtUnknownThreadIDNeverJoins(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	_, err := Sync(ctx, JoinEvt(ThreadID(0)))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExitStopsOnlyThatFiber(t *testing.T) {
	reached := false
	tid := Spawn(func() {
		Exit()
		reached = true
	})

	_, err := Sync(context.Background(), JoinEvt(tid))
	require.NoError(t, err)
	assert.False(t, reached)
}
