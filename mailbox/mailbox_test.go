package mailbox

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendThenRecv(t *testing.T) {
	m := New[int]()
	m.Send(1)
	m.Send(2)

	v, err := m.Recv(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	v, err = m.Recv(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestRecvThenSend(t *testing.T) {
	m := New[string]()
	done := make(chan string, 1)

	go func() {
		v, err := m.Recv(context.Background())
		if err == nil {
			done <- v
		}
	}()

	time.Sleep(5 * time.Millisecond) // let the receiver register
	m.Send("hello")

	select {
	case v := <-done:
		assert.Equal(t, "hello", v)
	case <-time.After(time.Second):
		t.Fatal("receiver never woke")
	}
}

func TestSendNeverBlocks(t *testing.T) {
	m := New[int]()
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			m.Send(i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Send blocked with no receivers")
	}
}
