package cml

// registerFunc enrolls a Transaction into a base event's wait queue, keyed
// by the Transaction's id, and returns a cleanup closure that removes the
// registration. The sync engine composes every leaf's cleanup into one
// function and installs it on the shared Transaction once, after all
// leaves have registered (spec §4.1's "compose cleanups in the base
// event" allowance) — this is the one place this implementation elides
// the original's register(tid, next) continuation-passing form: Go's
// sequential call stack already provides the required enroll-then-proceed
// ordering, so the explicit "next" thunk carries no extra information
// here. See spec §3.2 and §4.2.
type registerFunc func(txn *Transaction) (cleanup func())

// status is the result of polling one base event: either it is already
// enabled, holding a boxed value of the event's type, or it is blocked and
// offers a registration continuation. Values are boxed as any inside the
// group tree (every leaf within one Event[T] boxes a T; the type is
// recovered by Sync's generic caller) so that Base/Nested/Nack groups can
// share one untyped internal representation regardless of T.
type status struct {
	enabled  bool
	priority int
	value    any
	register registerFunc
}

// enabledStatus constructs a status reporting immediate availability.
// priority follows spec §3.2: -1 for events with no natural waiter rank
// (always, channel offers formed fresh in the poll itself), or the
// waiter's FIFO rank for derived primitives that need it for fairness
// bookkeeping (mailbox; ivar and mvar use -1). The sync engine itself always selects by
// source order (spec §4.5 "Ordering"); priority is carried for
// observability and for use by derived primitives' own internal
// selection, not consulted by Sync.
func enabledStatus(priority int, value any) status {
	return status{enabled: true, priority: priority, value: value}
}

// blockedStatus constructs a status that is not yet enabled, carrying the
// registration continuation for the block phase.
func blockedStatus(register registerFunc) status {
	return status{enabled: false, register: register}
}

// pollFunc is the poll contract every base event implements: a
// non-suspending query returning either an immediate value or a
// registration continuation. See spec §4.2.
type pollFunc func() status
