package cml

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/concurrentml/go-cml/internal/idgen"
)

// txnState is the tri-valued state of a Transaction. See spec §3.1.
type txnState int32

const (
	txnActive txnState = iota
	txnCommitted
	txnCancelled
)

// Transaction is the shared "am I still the winner?" commit cell for one
// blocked synchronization. Every base event registered during the block
// phase of one Sync call shares a single Transaction; the first to commit
// it wins, everyone else observes a terminal state and abandons.
//
// Transaction is safe for concurrent use. Its zero value is not usable;
// construct one with newTransaction.
type Transaction struct {
	state   atomic.Int32
	id      uint64
	uuid    uuid.UUID
	wake    chan struct{} // closed exactly once, by the winning commit
	wakeSet atomic.Bool

	mu      sync.Mutex
	cleanup func()
}

// newTransaction returns a fresh, Active Transaction with no cleanup set.
func newTransaction() *Transaction {
	t := &Transaction{
		id:   idgen.Next(),
		uuid: idgen.NewUUID(),
		wake: make(chan struct{}),
	}
	t.state.Store(int32(txnActive))
	return t
}

// ID returns the Transaction's monotonic id, used as the wait-queue
// lookup key (spec's "tid").
func (t *Transaction) ID() uint64 { return t.id }

// UUID returns a process-unique diagnostic token for this Transaction,
// suitable for correlating log lines across components.
func (t *Transaction) UUID() uuid.UUID { return t.uuid }

// SetCleanup stores the single cleanup callback run exactly once when the
// Transaction leaves the Active state. The core assumes at most one
// cleanup per registration; a base event composing multiple queue
// memberships must itself compose their removal into one func() before
// calling SetCleanup. Calling SetCleanup after the Transaction has left
// Active silently does nothing (there is nothing left to notify).
func (t *Transaction) SetCleanup(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if txnState(t.state.Load()) != txnActive {
		return
	}
	t.cleanup = fn
}

// TryCommit attempts the Active -> Committed transition. On success it
// wakes the suspended fiber (by closing the wake channel, which any
// goroutine can observe) and returns true. On failure (the Transaction was
// already Committed or Cancelled) it returns false and has no effect.
func (t *Transaction) TryCommit() bool {
	if !t.state.CompareAndSwap(int32(txnActive), int32(txnCommitted)) {
		return false
	}
	t.runCleanup()
	t.wakeOnce()
	return true
}

// TryCancel attempts the Active -> Cancelled transition. On success it
// runs the cleanup hook (if any) and returns true; cancellation of an
// already-terminal Transaction is a silent no-op returning false.
func (t *Transaction) TryCancel() bool {
	if !t.state.CompareAndSwap(int32(txnActive), int32(txnCancelled)) {
		return false
	}
	t.runCleanup()
	t.wakeOnce()
	return true
}

func (t *Transaction) runCleanup() {
	t.mu.Lock()
	fn := t.cleanup
	t.cleanup = nil
	t.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// wakeOnce closes the wake channel exactly once, regardless of whether the
// terminal transition was a commit or a cancel; sync's block phase only
// ever cares that the Transaction left Active, and re-polls to find out
// which leaf (if any) actually won.
func (t *Transaction) wakeOnce() {
	if t.wakeSet.CompareAndSwap(false, true) {
		close(t.wake)
	}
}

// Done returns a channel that is closed once the Transaction leaves the
// Active state. Sync's block phase selects on it to suspend the calling
// goroutine.
func (t *Transaction) Done() <-chan struct{} { return t.wake }

// Active reports whether the Transaction is still in the Active state.
func (t *Transaction) Active() bool {
	return txnState(t.state.Load()) == txnActive
}

// Committed reports whether the Transaction has committed.
func (t *Transaction) Committed() bool {
	return txnState(t.state.Load()) == txnCommitted
}

// Cancelled reports whether the Transaction has been cancelled.
func (t *Transaction) Cancelled() bool {
	return txnState(t.state.Load()) == txnCancelled
}
