package cml

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/exp/slices"

	"github.com/concurrentml/go-cml/internal/idgen"
)

// sendOffer is one pending send, queued on a Channel awaiting a receiver.
// value is immutable from construction, so reading it from a matching
// receiver needs no extra synchronization beyond the channel mutex used
// to dequeue it.
type sendOffer[T any] struct {
	value T
	done  *atomic.Bool
	txn   *Transaction
	tid   uint64
}

// recvOffer is one pending receive, queued on a Channel awaiting a
// sender. slot is written by the matching sender before the sender
// commits this offer's Transaction, so any wake observed by the receiver
// implies the value is already visible in slot (spec §3.4 invariants).
type recvOffer[T any] struct {
	slot *T
	done *atomic.Bool
	txn  *Transaction
	tid  uint64
}

// Channel is a synchronous rendezvous point between a sender and a
// receiver: a successful send and a successful receive always pair up
// one-to-one, transferring exactly one value. See spec §3.4/§4.4.
//
// Channel is safe for concurrent use; construct one with NewChannel.
type Channel[T any] struct {
	id     uint64
	name   string
	logger Logger

	mu     sync.Mutex
	sendQ  []*sendOffer[T]
	recvQ  []*recvOffer[T]
	closed bool
}

// NewChannel constructs a fresh, open Channel.
func NewChannel[T any](opts ...ChannelOption) *Channel[T] {
	cfg := resolveChannelOptions(opts)
	return &Channel[T]{id: idgen.Next(), name: cfg.name, logger: cfg.logger}
}

// Same reports whether c and other are the same Channel, by identity (not
// structural equality — two channels that happen to carry the same
// pending offers are still distinct). See spec §3.4.
func (c *Channel[T]) Same(other *Channel[T]) bool {
	return other != nil && c.id == other.id
}

// Close marks the Channel as refusing new send/recv offers. Offers
// already enqueued before Close continue to completion; synchronizing on a
// SendEvt/RecvEvt after Close (including via Send/Recv) raises ErrClosed
// during the event's poll (as a panic, recoverable by
// WrapHandler — see spec §7's exception-based error model, and DESIGN.md
// for why Closed is modeled as a panic rather than a returned error).
// SendPoll/RecvPoll never panic; a closed Channel simply reports "not
// ready" to them, consistent with "non-blocking polls never raise" (spec
// §7).
func (c *Channel[T]) Close() {
	c.mu.Lock()
	already := c.closed
	c.closed = true
	c.mu.Unlock()
	if !already {
		c.logger.Log(LogEntry{Level: LevelInfo, Category: "channel", Message: "closed"})
	}
}

func (c *Channel[T]) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// matchRecv pops receive offers off the head of recvQ, under the channel
// mutex, discarding cancelled ones, until it finds one whose Transaction is
// still Active, or the queue is exhausted. It does not commit that
// candidate: the caller does, *outside* the mutex, because a winning commit synchronously
// runs that Transaction's composed cleanup, which may need to lock other
// channels (or re-lock this one, for an offer this call didn't already
// remove) — see spec §5 "Deadlock avoidance".
func (c *Channel[T]) matchRecv() *recvOffer[T] {
	for {
		c.mu.Lock()
		if len(c.recvQ) == 0 {
			c.mu.Unlock()
			return nil
		}
		cand := c.recvQ[0]
		c.recvQ = c.recvQ[1:]
		c.mu.Unlock()

		if !cand.txn.Active() {
			continue
		}
		return cand // caller completes the handshake then commits
	}
}

func (c *Channel[T]) matchSend() *sendOffer[T] {
	for {
		c.mu.Lock()
		if len(c.sendQ) == 0 {
			c.mu.Unlock()
			return nil
		}
		cand := c.sendQ[0]
		c.sendQ = c.sendQ[1:]
		c.mu.Unlock()

		if !cand.txn.Active() {
			continue
		}
		return cand
	}
}

// trySend attempts to hand v directly to a live waiting receiver. It
// writes v into the receiver's slot and marks it done *before* committing
// the receiver's Transaction, then returns true. If the matched
// candidate's commit loses a race (e.g. a concurrent timeout cancelled
// it first) it tries the next queued receiver. Returns false once the
// queue is exhausted without a live, committed receiver.
func (c *Channel[T]) trySend(v T) bool {
	for {
		cand := c.matchRecv()
		if cand == nil {
			return false
		}
		*cand.slot = v
		cand.done.Store(true)
		if cand.txn.TryCommit() {
			return true
		}
		// Lost the race (already terminal); the write above is inert —
		// that receiver's Sync call observed its own cancellation and
		// never re-polls this leaf. Try the next candidate.
	}
}

// tryRecv attempts to take a value directly from a live waiting sender.
func (c *Channel[T]) tryRecv() (T, bool) {
	for {
		cand := c.matchSend()
		if cand == nil {
			var zero T
			return zero, false
		}
		cand.done.Store(true)
		if cand.txn.TryCommit() {
			return cand.value, true
		}
	}
}

func (c *Channel[T]) removeSend(tid uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sendQ = slices.DeleteFunc(c.sendQ, func(o *sendOffer[T]) bool { return o.tid == tid })
}

func (c *Channel[T]) removeRecv(tid uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recvQ = slices.DeleteFunc(c.recvQ, func(o *recvOffer[T]) bool { return o.tid == tid })
}

// SendEvt constructs a one-shot Event that rendezvous-sends v. See spec
// §4.4.
func (c *Channel[T]) SendEvt(v T) Event[struct{}] {
	return baseEvent[struct{}](func() pollFunc {
		var offer *sendOffer[T]
		return func() status {
			if offer != nil {
				if offer.done.Load() {
					return enabledStatus(-1, struct{}{})
				}
				return blockedStatus(nil)
			}
			if c.isClosed() {
				panic(closedError("send"))
			}
			if c.trySend(v) {
				return enabledStatus(-1, struct{}{})
			}
			return blockedStatus(func(txn *Transaction) func() {
				c.mu.Lock()
				if c.closed {
					c.mu.Unlock()
					panic(closedError("send"))
				}
				if !txn.Active() {
					// A sibling branch of the same Choose already won
					// during an earlier leaf's registration; matching
					// here would hand v to a live receiver for a send
					// that was never actually chosen.
					c.mu.Unlock()
					return nil
				}
				for {
					if len(c.recvQ) == 0 {
						o := &sendOffer[T]{value: v, done: new(atomic.Bool), txn: txn, tid: txn.ID()}
						offer = o
						c.sendQ = append(c.sendQ, o)
						c.mu.Unlock()
						return func() { c.removeSend(o.tid) }
					}
					cand := c.recvQ[0]
					c.recvQ = c.recvQ[1:]
					if !cand.txn.Active() {
						continue
					}
					// A live receiver raced in between this leaf's poll
					// and its registration: complete the rendezvous now,
					// instead of enqueueing, mirroring trySend/matchRecv.
					// The commit happens outside the mutex, so a
					// composed cleanup it triggers never re-enters this
					// lock while held (spec §5 "Deadlock avoidance").
					c.mu.Unlock()
					*cand.slot = v
					cand.done.Store(true)
					if !cand.txn.TryCommit() {
						// Lost the race on cand; it's already gone from
						// recvQ, so keep looking under a fresh lock hold.
						c.mu.Lock()
						continue
					}
					o := &sendOffer[T]{value: v, done: new(atomic.Bool), txn: txn, tid: txn.ID()}
					o.done.Store(true)
					offer = o
					txn.TryCommit()
					return nil
				}
			})
		}
	})
}

// RecvEvt constructs a one-shot Event that rendezvous-receives a T. See
// spec §4.4.
func (c *Channel[T]) RecvEvt() Event[T] {
	return baseEvent[T](func() pollFunc {
		var offer *recvOffer[T]
		var value T
		return func() status {
			if offer != nil {
				if offer.done.Load() {
					return enabledStatus(-1, value)
				}
				return blockedStatus(nil)
			}
			if c.isClosed() {
				panic(closedError("recv"))
			}
			if v, ok := c.tryRecv(); ok {
				return enabledStatus(-1, v)
			}
			return blockedStatus(func(txn *Transaction) func() {
				c.mu.Lock()
				if c.closed {
					c.mu.Unlock()
					panic(closedError("recv"))
				}
				if !txn.Active() {
					c.mu.Unlock()
					return nil
				}
				for {
					if len(c.sendQ) == 0 {
						o := &recvOffer[T]{slot: &value, done: new(atomic.Bool), txn: txn, tid: txn.ID()}
						offer = o
						c.recvQ = append(c.recvQ, o)
						c.mu.Unlock()
						return func() { c.removeRecv(o.tid) }
					}
					cand := c.sendQ[0]
					c.sendQ = c.sendQ[1:]
					if !cand.txn.Active() {
						continue
					}
					c.mu.Unlock()
					cand.done.Store(true)
					if !cand.txn.TryCommit() {
						c.mu.Lock()
						continue
					}
					o := &recvOffer[T]{slot: &value, done: new(atomic.Bool), txn: txn, tid: txn.ID()}
					value = cand.value
					o.done.Store(true)
					offer = o
					txn.TryCommit()
					return nil
				}
			})
		}
	})
}

// Send is the blocking convenience sync(send_evt(v)). See spec §4.4.
func (c *Channel[T]) Send(ctx context.Context, v T) error {
	_, err := Sync(ctx, c.SendEvt(v))
	return err
}

// Recv is the blocking convenience sync(recv_evt()). See spec §4.4.
func (c *Channel[T]) Recv(ctx context.Context) (T, error) {
	return Sync(ctx, c.RecvEvt())
}

// SendPoll attempts an immediate, non-blocking send. It succeeds iff a
// live receiver is queued at call time; it never blocks and never raises
// for "not ready" or "closed" (spec §7).
func (c *Channel[T]) SendPoll(v T) bool {
	if c.isClosed() {
		return false
	}
	return c.trySend(v)
}

// RecvPoll attempts an immediate, non-blocking receive. It succeeds iff a
// live sender is queued at call time.
func (c *Channel[T]) RecvPoll() (T, bool) {
	if c.isClosed() {
		var zero T
		return zero, false
	}
	return c.tryRecv()
}
