package cml

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeoutFiresAfterDelay(t *testing.T) {
	start := time.Now()
	_, err := Sync(context.Background(), Timeout(10*time.Millisecond))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}

func TestAtTimeInThePastFiresImmediately(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := Sync(ctx, AtTime(time.Now().Add(-time.Minute)))
	require.NoError(t, err)
}

func TestTimeoutLosesToImmediatelyEnabledSibling(t *testing.T) {
	v, err := Sync(context.Background(), Choose(Always("fast"), Wrap(Timeout(time.Hour), func(struct{}) string { return "slow" })))
	require.NoError(t, err)
	assert.Equal(t, "fast", v)
}
