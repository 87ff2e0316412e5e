package cml

// Always returns an Event that is immediately enabled, yielding v, on
// every poll. It never blocks. See spec §4.3.
func Always[T any](v T) Event[T] {
	return baseEvent[T](func() pollFunc {
		return func() status {
			return enabledStatus(-1, v)
		}
	})
}

// Never returns an Event that is never enabled. Alone, synchronizing on
// it blocks forever (until ctx is cancelled); composed into a Choose, it
// contributes nothing. See spec §4.3.
func Never[T any]() Event[T] {
	return Event[T]{force: emptyGroup}
}

// Guard defers event construction to synchronization time: thunk is
// invoked exactly once per Sync call, during force, and the Event it
// returns is forced in turn. Guard's poll must never invoke thunk — only
// force (and therefore registration) may — so that a guard's
// side-effecting construction never leaks when an earlier, or
// poll-fast-path, sibling of its enclosing Choose wins instead. See spec
// §4.3 and the "Guard thunks + lazy evaluation" design note (§9).
func Guard[T any](thunk func() Event[T]) Event[T] {
	return Event[T]{force: func() group {
		return thunk().force()
	}}
}

// Wrap transforms the value of an Enabled event, applying f atomically at
// poll time. Blocked status is passed through unchanged. Wrap preserves
// the inner event's group shape (base/nested/nack), so nack propagation
// through a wrapped branch of a Choose is unaffected. See spec §4.3.
func Wrap[A, B any](e Event[A], f func(A) B) Event[B] {
	return Event[B]{force: func() group {
		inner := e.force()
		return mapGroup(inner, func(v any) any { return f(v.(A)) }, nil)
	}}
}

// WrapHandler is like Wrap, but recovers a panic raised by the inner
// event's force (including a Guard thunk) or by any inner poll, and
// converts it into Enabled(priority=-1, h(ex)) instead of letting it
// propagate. See spec §4.3.
func WrapHandler[T any](e Event[T], h func(ex any) T) Event[T] {
	recoverWith := func(r any) (any, bool) { return h(r), true }
	return Event[T]{force: func() group {
		return forceWithRecover(func() group {
			inner := e.force()
			return mapGroup(inner, func(v any) any { return v }, recoverWith)
		}, recoverWith)
	}}
}

// Choose combines N events of the same type into one: force walks each
// child in source order, flattens any nested groups it yields, and drops
// children that force to empty (Never-equivalent). A single surviving
// group is returned unwrapped; otherwise the survivors are wrapped in a
// nested group. The poll phase has no Choose-specific behavior beyond
// this — Sync's leaf walk (source order, depth-first) is what implements
// selection. See spec §4.3 and §4.5 "Ordering".
func Choose[T any](events ...Event[T]) Event[T] {
	return Event[T]{force: func() group {
		var out []group
		for _, e := range events {
			g := e.force()
			if g.kind == groupBase && len(g.polls) == 0 {
				continue
			}
			if g.kind == groupNested {
				out = append(out, g.children...)
				continue
			}
			out = append(out, g)
		}
		switch len(out) {
		case 0:
			return emptyGroup()
		case 1:
			return out[0]
		default:
			return group{kind: groupNested, children: out}
		}
	}}
}

// WithNack enables losing branches of a Choose to be notified. Force
// creates a fresh CVar, builds an Event over it, passes that Event to fn,
// forces the Event fn returns, and wraps the result in a nack group
// together with the new CVar. When Sync selects a winner, every nack
// group whose subtree did not contain the winning leaf has its CVar Set,
// waking anything synchronizing on that CVar's Evt(). See spec §4.3.
func WithNack[T any](fn func(nack Event[struct{}]) Event[T]) Event[T] {
	return Event[T]{force: func() group {
		cv := NewCVar()
		inner := fn(cv.Evt()).force()
		return group{kind: groupNack, child: &inner, cvar: cv}
	}}
}
