// Package barrier provides an N-party rendezvous with an accumulating
// state. See spec §4.6.
package barrier

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/exp/slices"

	"github.com/concurrentml/go-cml"
)

type waitEntry[S any] struct {
	tid    uint64
	txn    *cml.Transaction
	result *S
	done   *atomic.Bool
}

// Barrier synchronizes a fixed set of participants, each represented by an
// Enrollment obtained from Enroll. When the number of fibers currently
// blocked in WaitEvt equals the number of (non-resigned) enrollments, update
// is applied once to the barrier's state, every waiter is woken with the
// new state, and the barrier resets for its next round.
//
// The zero value is not usable; construct one with New.
type Barrier[S any] struct {
	name   string
	logger cml.Logger

	mu       sync.Mutex
	state    S
	update   func(S) S
	nextID   uint64
	enrolled map[uint64]struct{}
	waiting  []*waitEntry[S]
}

// New returns a Barrier seeded with initial state, applying update once per
// completed round.
func New[S any](initial S, update func(S) S, opts ...BarrierOption) *Barrier[S] {
	cfg := resolveBarrierOptions(opts)
	return &Barrier[S]{
		name:     cfg.name,
		logger:   cfg.logger,
		state:    initial,
		update:   update,
		enrolled: make(map[uint64]struct{}),
	}
}

// Enroll registers a new participant and returns its handle. Enrollment
// count only ever changes via Enroll and Enrollment.Resign.
func (b *Barrier[S]) Enroll() *Enrollment[S] {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.enrolled[id] = struct{}{}
	b.mu.Unlock()
	return &Enrollment[S]{id: id, b: b}
}

// fireLocked applies update and drains the waiting queue for the caller to
// notify after releasing mu. Caller holds b.mu and has already verified the
// round is complete.
func (b *Barrier[S]) fireLocked() (S, []*waitEntry[S]) {
	b.state = b.update(b.state)
	fire := b.waiting
	b.waiting = nil
	b.logger.Log(cml.LogEntry{Level: cml.LevelInfo, Category: "barrier", Message: "round complete: " + b.name})
	return b.state, fire
}

func notifyWaiters[S any](state S, waiters []*waitEntry[S]) {
	for _, w := range waiters {
		*w.result = state
		w.done.Store(true)
		w.txn.TryCommit()
	}
}

func (b *Barrier[S]) removeWaiting(tid uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.waiting = slices.DeleteFunc(b.waiting, func(w *waitEntry[S]) bool { return w.tid == tid })
}

// Enrollment is one participant's handle into a Barrier.
type Enrollment[S any] struct {
	id uint64
	b  *Barrier[S]
}

// WaitEvt constructs a one-shot Event that blocks until every currently
// enrolled participant has called WaitEvt (and synchronized on it) this
// round, then yields the barrier's updated state.
func (e *Enrollment[S]) WaitEvt() cml.Event[S] {
	b := e.b
	return cml.NewBaseEvent[S](func() func() cml.Status {
		var offer *waitEntry[S]
		var value S
		return func() cml.Status {
			if offer != nil {
				if offer.done.Load() {
					return cml.Enabled(-1, value)
				}
				return cml.Blocked(nil)
			}
			return cml.Blocked(func(txn *cml.Transaction) func() {
				b.mu.Lock()
				w := &waitEntry[S]{tid: txn.ID(), txn: txn, result: &value, done: new(atomic.Bool)}
				offer = w
				b.waiting = append(b.waiting, w)
				complete := len(b.enrolled) > 0 && len(b.waiting) == len(b.enrolled)
				var state S
				var fire []*waitEntry[S]
				if complete {
					state, fire = b.fireLocked()
				}
				b.mu.Unlock()
				if complete {
					notifyWaiters(state, fire)
					return nil
				}
				return func() { b.removeWaiting(w.tid) }
			})
		}
	})
}

// Wait is the blocking convenience sync(wait_evt()).
func (e *Enrollment[S]) Wait(ctx context.Context) (S, error) {
	return cml.Sync(ctx, e.WaitEvt())
}

// Resign removes this participant from the barrier. If every remaining
// enrollment is already blocked in WaitEvt, resigning completes the round
// immediately, exactly as if this participant had arrived and then left.
func (e *Enrollment[S]) Resign() {
	b := e.b
	b.mu.Lock()
	delete(b.enrolled, e.id)
	complete := len(b.enrolled) > 0 && len(b.waiting) == len(b.enrolled)
	var state S
	var fire []*waitEntry[S]
	if complete {
		state, fire = b.fireLocked()
	}
	b.mu.Unlock()
	if complete {
		notifyWaiters(state, fire)
	}
}
