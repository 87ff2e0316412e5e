// Package mailbox provides an asynchronous, unbounded FIFO queue built on
// the core's base-event poll protocol. See spec §4.6.
package mailbox

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/exp/slices"

	"github.com/concurrentml/go-cml"
)

type recvWaiter[T any] struct {
	tid      uint64
	txn      *cml.Transaction
	slot     *T
	done     *atomic.Bool
	priority int
}

// Mailbox is an asynchronous queue: Send never blocks — it enqueues, then
// tries to hand the value directly to the oldest waiting receiver. RecvEvt
// is a base event that, on poll, dequeues immediately if the mailbox is
// non-empty, else registers a waiting receiver, served in FIFO order as
// values arrive.
//
// The zero value is not usable; construct one with New.
type Mailbox[T any] struct {
	mu           sync.Mutex
	queue        []T
	waiters      []*recvWaiter[T]
	nextPriority int
}

// New returns a fresh, empty Mailbox.
func New[T any]() *Mailbox[T] {
	return &Mailbox[T]{}
}

// Send enqueues v. It never blocks: if a receiver is already waiting, v is
// handed to the oldest one directly; otherwise v is appended to the
// internal queue for a future RecvEvt to pick up.
func (m *Mailbox[T]) Send(v T) {
	for {
		m.mu.Lock()
		if len(m.waiters) == 0 {
			m.queue = append(m.queue, v)
			m.mu.Unlock()
			return
		}
		w := m.waiters[0]
		m.waiters = m.waiters[1:]
		m.mu.Unlock()

		if !w.txn.Active() {
			continue
		}
		*w.slot = v
		w.done.Store(true)
		if w.txn.TryCommit() {
			return
		}
		// Lost the race; try the next waiter (or requeue v if none left).
	}
}

func (m *Mailbox[T]) removeWaiter(tid uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.waiters = slices.DeleteFunc(m.waiters, func(w *recvWaiter[T]) bool { return w.tid == tid })
}

// RecvEvt constructs a one-shot Event that receives the next value,
// blocking until one is available if the mailbox is currently empty.
func (m *Mailbox[T]) RecvEvt() cml.Event[T] {
	return cml.NewBaseEvent[T](func() func() cml.Status {
		var offer *recvWaiter[T]
		var value T
		return func() cml.Status {
			if offer != nil {
				if offer.done.Load() {
					return cml.Enabled(offer.priority, value)
				}
				return cml.Blocked(nil)
			}
			m.mu.Lock()
			if len(m.queue) > 0 {
				v := m.queue[0]
				m.queue = m.queue[1:]
				m.mu.Unlock()
				return cml.Enabled(-1, v)
			}
			m.mu.Unlock()
			return cml.Blocked(func(txn *cml.Transaction) func() {
				m.mu.Lock()
				if len(m.queue) > 0 {
					v := m.queue[0]
					m.queue = m.queue[1:]
					m.mu.Unlock()
					value = v
					// Set offer (with done already true) before
					// committing, so a wake re-poll finds offer.done
					// rather than re-reading the queue, which may have
					// gone empty by the time of the re-poll (mirrors
					// barrier.WaitEvt).
					w := &recvWaiter[T]{tid: txn.ID(), txn: txn, slot: &value, done: new(atomic.Bool), priority: -1}
					w.done.Store(true)
					offer = w
					txn.TryCommit()
					return nil
				}
				w := &recvWaiter[T]{
					tid:      txn.ID(),
					txn:      txn,
					slot:     &value,
					done:     new(atomic.Bool),
					priority: m.nextPriority,
				}
				m.nextPriority++
				offer = w
				m.waiters = append(m.waiters, w)
				m.mu.Unlock()
				return func() { m.removeWaiter(w.tid) }
			})
		}
	})
}

// Recv is the blocking convenience sync(recv_evt()).
func (m *Mailbox[T]) Recv(ctx context.Context) (T, error) {
	return cml.Sync(ctx, m.RecvEvt())
}
