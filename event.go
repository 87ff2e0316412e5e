package cml

// groupKind tags the three shapes a forced event can take. See spec §3.3.
type groupKind int

const (
	groupBase groupKind = iota
	groupNested
	groupNack
)

// group is the tree produced by force(event): a non-empty list of
// pollable leaves (base), a flattened list of subgroups (nested), or one
// subgroup wrapped with a condition variable that fires when the subgroup
// loses the enclosing Choose (nack).
type group struct {
	kind     groupKind
	polls    []pollFunc // groupBase
	children []group    // groupNested
	child    *group     // groupNack
	cvar     *CVar      // groupNack
}

// emptyGroup is the force() result of Never and of a Choose with no
// enabled/blocked descendants: a base group with zero leaves.
func emptyGroup() group { return group{kind: groupBase} }

// Event is a first-class value representing a (possibly deferred, possibly
// composite) synchronization opportunity yielding a T. Events are
// constructed with the combinators in this package and consumed, exactly
// once each, by Sync. An Event's zero value is not usable; always obtain
// one from a combinator (Always, Never, Guard, Wrap, ...) or from a
// Channel's SendEvt/RecvEvt.
type Event[T any] struct {
	force func() group
}

// baseEvent constructs an Event[T] whose force produces a single-leaf base
// group. newPoll is called once per force (i.e. once per Sync call) so
// that any per-synchronization local state (a "done" flag, a captured
// value slot) is fresh for each use — events are single-use.
func baseEvent[T any](newPoll func() pollFunc) Event[T] {
	return Event[T]{force: func() group {
		return group{kind: groupBase, polls: []pollFunc{newPoll()}}
	}}
}

// mapGroup walks g, replacing every leaf poll p with a poll that calls p()
// and, on Enabled, applies f to the boxed value; on Blocked, passes the
// status through unchanged. The group's shape (base/nested/nack) and cvar
// references are preserved so nack propagation still sees the same leaf
// structure. recoverWith, if non-nil, is consulted when p or f panics: the
// panic is recovered and recoverWith(panicValue) supplies the replacement
// enabled value instead of propagating (this is how WrapHandler is built
// on top of the same walk as Wrap).
func mapGroup(g group, f func(any) any, recoverWith func(any) (any, bool)) group {
	switch g.kind {
	case groupBase:
		polls := make([]pollFunc, len(g.polls))
		for i, p := range g.polls {
			p := p
			polls[i] = func() (st status) {
				if recoverWith != nil {
					defer func() {
						if r := recover(); r != nil {
							if v, ok := recoverWith(r); ok {
								st = enabledStatus(-1, v)
								return
							}
							panic(r)
						}
					}()
				}
				inner := p()
				if !inner.enabled {
					return inner
				}
				return enabledStatus(inner.priority, f(inner.value))
			}
		}
		return group{kind: groupBase, polls: polls}
	case groupNested:
		children := make([]group, len(g.children))
		for i, c := range g.children {
			children[i] = mapGroup(c, f, recoverWith)
		}
		return group{kind: groupNested, children: children}
	case groupNack:
		var child *group
		if g.child != nil {
			mapped := mapGroup(*g.child, f, recoverWith)
			child = &mapped
		}
		return group{kind: groupNack, child: child, cvar: g.cvar}
	default:
		return g
	}
}

// forceWithRecover invokes forceFn, catching a panic (from the forced
// event's own construction, e.g. a Guard thunk) and, if recoverWith is
// non-nil, converting it into a single already-Enabled base group holding
// recoverWith's replacement value. Used by WrapHandler, which must catch
// panics from *both* the inner poll and the inner force/guard phase.
func forceWithRecover(forceFn func() group, recoverWith func(any) (any, bool)) (g group) {
	defer func() {
		if r := recover(); r != nil {
			if recoverWith == nil {
				panic(r)
			}
			if v, ok := recoverWith(r); ok {
				g = group{kind: groupBase, polls: []pollFunc{func() status {
					return enabledStatus(-1, v)
				}}}
				return
			}
			panic(r)
		}
	}()
	return forceFn()
}
