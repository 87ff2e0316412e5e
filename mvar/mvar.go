// Package mvar provides a take/put cell of capacity one. See spec §4.6.
package mvar

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/exp/slices"

	"github.com/concurrentml/go-cml"
)

// consumeWaiter is a pending Take or Swap, blocked because the MVar was
// empty at poll time. replace is nil for a Take (the cell goes back to
// empty once served) or points at the value a Swap leaves behind (the cell
// stays full, now holding *replace).
type consumeWaiter[T any] struct {
	tid     uint64
	txn     *cml.Transaction
	replace *T
	result  *T
	done    *atomic.Bool
}

// getWaiter is a pending GetEvt, blocked because the MVar was empty at
// poll time. Unlike consumeWaiter, every currently-pending getWaiter is
// notified whenever the cell next becomes full — a non-destructive read
// has no reason to pick just one winner.
type getWaiter[T any] struct {
	tid    uint64
	txn    *cml.Transaction
	result *T
	done   *atomic.Bool
}

// MVar is a synchronizing cell holding at most one value. Put fails if the
// cell is already full; Take empties it and returns the value, blocking
// until one is available; Get reads the current value without consuming
// it, blocking until one is available; Swap atomically exchanges the
// current value for a new one, blocking until one is available to
// exchange.
//
// The zero value is not usable; construct one with New.
type MVar[T any] struct {
	mu       sync.Mutex
	full     bool
	value    T
	consumeQ []*consumeWaiter[T]
	getQ     []*getWaiter[T]
}

// New returns a fresh, empty MVar.
func New[T any]() *MVar[T] {
	return &MVar[T]{}
}

// fillLocked records v as the cell's contents and drains the pending
// get-waiter queue for the caller to notify after releasing mu.
func (mv *MVar[T]) fillLocked(v T) []*getWaiter[T] {
	mv.value = v
	mv.full = true
	gw := mv.getQ
	mv.getQ = nil
	return gw
}

func notifyGetWaiters[T any](v T, waiters []*getWaiter[T]) {
	for _, w := range waiters {
		*w.result = v
		w.done.Store(true)
		w.txn.TryCommit()
	}
}

// Put fills the MVar with v. It panics, wrapping cml.ErrAlreadyWritten, if
// the cell is already full.
func (mv *MVar[T]) Put(v T) {
	if !mv.TryPut(v) {
		panic(fmt.Errorf("cml/mvar: put: %w", cml.ErrAlreadyWritten))
	}
}

// TryPut is Put without the panic: it reports whether it won the race to
// fill an empty cell. If a Take or Swap is already blocked waiting, v is
// handed to the oldest one directly instead of ever occupying the cell.
func (mv *MVar[T]) TryPut(v T) bool {
	for {
		mv.mu.Lock()
		if len(mv.consumeQ) == 0 {
			if mv.full {
				mv.mu.Unlock()
				return false
			}
			gw := mv.fillLocked(v)
			mv.mu.Unlock()
			notifyGetWaiters(v, gw)
			return true
		}
		w := mv.consumeQ[0]
		mv.consumeQ = mv.consumeQ[1:]
		mv.mu.Unlock()

		if !w.txn.Active() {
			continue
		}
		*w.result = v
		becomesFull := w.replace != nil
		var gw []*getWaiter[T]
		if becomesFull {
			mv.mu.Lock()
			gw = mv.fillLocked(*w.replace)
			mv.mu.Unlock()
		}
		w.done.Store(true)
		if w.txn.TryCommit() {
			if becomesFull {
				notifyGetWaiters(*w.replace, gw)
			}
			return true
		}
		if becomesFull {
			mv.mu.Lock()
			mv.full = false
			mv.mu.Unlock()
		}
		// Lost the race to a concurrent cancellation; v is still in scope,
		// loop to try the next waiter (or a direct fill).
	}
}

// tryConsume is the immediate, non-blocking path shared by TakeEvt/SwapEvt
// and TryTake/TrySwap: if the cell is currently full, it grabs the value
// and, if replace is non-nil, immediately refills with *replace.
func (mv *MVar[T]) tryConsume(replace *T) (T, bool) {
	mv.mu.Lock()
	if !mv.full {
		mv.mu.Unlock()
		var zero T
		return zero, false
	}
	v := mv.value
	if replace != nil {
		mv.value = *replace
	} else {
		mv.full = false
	}
	mv.mu.Unlock()
	return v, true
}

func (mv *MVar[T]) removeConsumeWaiter(tid uint64) {
	mv.mu.Lock()
	defer mv.mu.Unlock()
	mv.consumeQ = slices.DeleteFunc(mv.consumeQ, func(w *consumeWaiter[T]) bool { return w.tid == tid })
}

func (mv *MVar[T]) removeGetWaiter(tid uint64) {
	mv.mu.Lock()
	defer mv.mu.Unlock()
	mv.getQ = slices.DeleteFunc(mv.getQ, func(w *getWaiter[T]) bool { return w.tid == tid })
}

// consumeEvt builds the shared base event behind TakeEvt and SwapEvt.
// replace is nil for Take, or a pointer to the new value for Swap.
func (mv *MVar[T]) consumeEvt(replace *T) cml.Event[T] {
	return cml.NewBaseEvent[T](func() func() cml.Status {
		var offer *consumeWaiter[T]
		var value T
		return func() cml.Status {
			if offer != nil {
				if offer.done.Load() {
					return cml.Enabled(-1, value)
				}
				return cml.Blocked(nil)
			}
			if v, ok := mv.tryConsume(replace); ok {
				return cml.Enabled(-1, v)
			}
			return cml.Blocked(func(txn *cml.Transaction) func() {
				if v, ok := mv.tryConsume(replace); ok {
					value = v
					// Set offer (done already true) before committing, so
					// a wake re-poll observes offer.done instead of
					// re-running tryConsume against a cell this call
					// already drained (or that a concurrent Put/Swap has
					// since refilled with something else).
					w := &consumeWaiter[T]{tid: txn.ID(), txn: txn, replace: replace, result: &value, done: new(atomic.Bool)}
					w.done.Store(true)
					offer = w
					txn.TryCommit()
					return nil
				}
				w := &consumeWaiter[T]{
					tid:     txn.ID(),
					txn:     txn,
					replace: replace,
					result:  &value,
					done:    new(atomic.Bool),
				}
				offer = w
				mv.mu.Lock()
				mv.consumeQ = append(mv.consumeQ, w)
				mv.mu.Unlock()
				return func() { mv.removeConsumeWaiter(w.tid) }
			})
		}
	})
}

// TakeEvt constructs a one-shot Event that empties the cell and yields its
// value, blocking until one is available.
func (mv *MVar[T]) TakeEvt() cml.Event[T] { return mv.consumeEvt(nil) }

// SwapEvt constructs a one-shot Event that atomically exchanges the cell's
// current value for v, yielding the value it replaced, blocking until one
// is available to exchange.
func (mv *MVar[T]) SwapEvt(v T) cml.Event[T] { return mv.consumeEvt(&v) }

// GetEvt constructs a one-shot Event that reads the cell's value without
// consuming it, blocking until one is available.
func (mv *MVar[T]) GetEvt() cml.Event[T] {
	return cml.NewBaseEvent[T](func() func() cml.Status {
		var offer *getWaiter[T]
		var value T
		return func() cml.Status {
			if offer != nil {
				if offer.done.Load() {
					return cml.Enabled(-1, value)
				}
				return cml.Blocked(nil)
			}
			mv.mu.Lock()
			if mv.full {
				v := mv.value
				mv.mu.Unlock()
				return cml.Enabled(-1, v)
			}
			mv.mu.Unlock()
			return cml.Blocked(func(txn *cml.Transaction) func() {
				mv.mu.Lock()
				if mv.full {
					v := mv.value
					mv.mu.Unlock()
					value = v
					// full isn't monotonic (a Take/Swap can drain the
					// cell again), so this mirrors the consumeEvt fix:
					// set offer before committing rather than relying on
					// the re-poll seeing the cell still full.
					w := &getWaiter[T]{tid: txn.ID(), txn: txn, result: &value, done: new(atomic.Bool)}
					w.done.Store(true)
					offer = w
					txn.TryCommit()
					return nil
				}
				w := &getWaiter[T]{tid: txn.ID(), txn: txn, result: &value, done: new(atomic.Bool)}
				offer = w
				mv.getQ = append(mv.getQ, w)
				mv.mu.Unlock()
				return func() { mv.removeGetWaiter(w.tid) }
			})
		}
	})
}

// Take is the blocking convenience sync(take_evt()).
func (mv *MVar[T]) Take(ctx context.Context) (T, error) { return cml.Sync(ctx, mv.TakeEvt()) }

// Get is the blocking convenience sync(get_evt()).
func (mv *MVar[T]) Get(ctx context.Context) (T, error) { return cml.Sync(ctx, mv.GetEvt()) }

// Swap is the blocking convenience sync(swap_evt(v)).
func (mv *MVar[T]) Swap(ctx context.Context, v T) (T, error) { return cml.Sync(ctx, mv.SwapEvt(v)) }

// TryTake is Take without blocking: it reports false if the cell is empty.
func (mv *MVar[T]) TryTake() (T, bool) { return mv.tryConsume(nil) }

// TryGet is Get without blocking: it reports false if the cell is empty.
func (mv *MVar[T]) TryGet() (T, bool) {
	mv.mu.Lock()
	defer mv.mu.Unlock()
	if !mv.full {
		var zero T
		return zero, false
	}
	return mv.value, true
}

// TrySwap is Swap without blocking: it reports false if the cell is empty.
func (mv *MVar[T]) TrySwap(v T) (T, bool) { return mv.tryConsume(&v) }
