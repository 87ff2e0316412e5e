package cml

// This file is the extension point derived primitives outside this package
// (mailbox, ivar, mvar, barrier) build on: every one of them is, per spec
// §4.6, "implemented in terms of the base-event poll protocol and a private
// mutex-protected queue; none requires new primitives in the sync engine."
// Status/Register/NewBaseEvent expose exactly that protocol, already used
// internally by Channel and CVar, to other packages in this module without
// widening the package's own internal surface.

// Status reports the result of polling a custom base event. Construct one
// with Enabled or Blocked.
type Status = status

// Register enrolls a Transaction into a custom base event's wait queue and
// returns a cleanup closure run once that Transaction leaves the Active
// state for any reason (commit or cancel). A nil cleanup is fine when there
// is nothing to undo (e.g. the registration immediately committed the
// Transaction itself, as a race guard).
type Register = registerFunc

// Enabled constructs a Status reporting immediate availability. priority
// follows spec §3.2: -1 when the event has no natural waiter rank, or the
// waiter's FIFO enrollment rank for primitives that want it available for
// their own fairness bookkeeping or observability (mailbox does this for
// blocked receivers; ivar and mvar always pass -1).
// Sync itself always selects by source order, never by priority — see the
// "priority" open question recorded in DESIGN.md.
func Enabled(priority int, value any) Status { return enabledStatus(priority, value) }

// Blocked constructs a Status that is not yet enabled, carrying the
// registration continuation used during Sync's block phase.
func Blocked(register Register) Status { return blockedStatus(register) }

// NewBaseEvent constructs an Event[T] from a poll-function factory, exactly
// like the ones Channel.SendEvt/RecvEvt and CVar.Evt build internally.
// newPoll is invoked once per force (i.e. once per Sync call), so any
// per-synchronization local state (a captured "done" flag or value slot)
// should be created fresh inside it, not closed over from outside.
func NewBaseEvent[T any](newPoll func() func() Status) Event[T] {
	return baseEvent[T](func() pollFunc { return newPoll() })
}
