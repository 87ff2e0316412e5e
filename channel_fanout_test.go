package cml

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// TestChannelManyConcurrentRendezvous fans out many concurrent senders and
// receivers over one Channel using errgroup, and checks every value sent is
// received exactly once (rendezvous is one-to-one, never duplicated or
// dropped).
func TestChannelManyConcurrentRendezvous(t *testing.T) {
	const n = 200
	c := NewChannel[int]()

	var eg errgroup.Group
	for i := 0; i < n; i++ {
		i := i
		eg.Go(func() error {
			return c.Send(context.Background(), i)
		})
	}

	results := make(chan int, n)
	var recvg errgroup.Group
	for i := 0; i < n; i++ {
		recvg.Go(func() error {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			v, err := c.Recv(ctx)
			if err != nil {
				return err
			}
			results <- v
			return nil
		})
	}

	require.NoError(t, eg.Wait())
	require.NoError(t, recvg.Wait())
	close(results)

	seen := make(map[int]bool, n)
	for v := range results {
		assert.False(t, seen[v], "value %d received more than once", v)
		seen[v] = true
	}
	assert.Len(t, seen, n)
}
