package ivar

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/concurrentml/go-cml"
)

func TestPutThenGetRoundTrip(t *testing.T) {
	iv := New[string]()
	iv.Put("value")

	v, err := iv.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "value", v)

	// Multiple reads return the same value.
	v, err = iv.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "value", v)
}

func TestSecondPutPanics(t *testing.T) {
	iv := New[int]()
	iv.Put(1)

	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		assert.True(t, errors.Is(err, cml.ErrAlreadyWritten))
	}()
	iv.Put(2)
}

func TestGetBlocksUntilPut(t *testing.T) {
	iv := New[int]()
	done := make(chan int, 1)

	go func() {
		v, err := iv.Get(context.Background())
		if err == nil {
			done <- v
		}
	}()

	time.Sleep(5 * time.Millisecond)
	iv.Put(42)

	select {
	case v := <-done:
		assert.Equal(t, 42, v)
	case <-time.After(time.Second):
		t.Fatal("Get never unblocked")
	}
}

func TestTryGetBeforeWrite(t *testing.T) {
	iv := New[int]()
	_, ok := iv.TryGet()
	assert.False(t, ok)
}
