package cml

import "context"

// nackRecord tracks one WithNack branch discovered during collection: its
// CVar, and the indices (into the flat leaf list) of every base leaf
// nested beneath it. Nested nacks compose — an outer nack's leafIdx
// includes every leaf of any nack nested within it — so "a branch loses
// if none of its base leaves committed" holds at every nesting level. See
// spec §3.3 and §4.5 step 6.
type nackRecord struct {
	cvar    *CVar
	leafIdx []int
}

// collectLeaves walks a forced group tree depth-first, left to right,
// producing a flat list of leaf polls in source order (spec §4.5
// "Ordering") alongside the nack bookkeeping needed to fire losing
// branches once a winner is known.
func collectLeaves(g group) ([]pollFunc, []nackRecord) {
	var leaves []pollFunc
	var nacks []nackRecord
	var walk func(g group, active []int)
	walk = func(g group, active []int) {
		switch g.kind {
		case groupBase:
			for _, p := range g.polls {
				idx := len(leaves)
				leaves = append(leaves, p)
				for _, n := range active {
					nacks[n].leafIdx = append(nacks[n].leafIdx, idx)
				}
			}
		case groupNested:
			for _, c := range g.children {
				walk(c, active)
			}
		case groupNack:
			nacks = append(nacks, nackRecord{cvar: g.cvar})
			n := len(nacks) - 1
			next := make([]int, len(active)+1)
			copy(next, active)
			next[len(active)] = n
			if g.child != nil {
				walk(*g.child, next)
			}
		}
	}
	walk(g, nil)
	return leaves, nacks
}

// fireNacks sets the CVar of every nackRecord whose leafIdx set does not
// contain winner. See spec §4.5 step 6.
func fireNacks(nacks []nackRecord, winner int) {
	for _, n := range nacks {
		won := false
		for _, idx := range n.leafIdx {
			if idx == winner {
				won = true
				break
			}
		}
		if !won {
			n.cvar.Set()
		}
	}
}

// Sync is the canonical blocking synchronize: it forces e into a group
// tree, polls every leaf for an immediately-enabled branch, and — if none
// is ready — registers every leaf with one shared Transaction and blocks
// the calling goroutine until some base event commits it. Exactly one
// branch's value is returned; losing branches of any enclosing WithNack
// have their nack CVar set before Sync returns.
//
// ctx governs cancellation of the block phase only: if ctx is done before
// any branch becomes enabled, Sync cancels the shared Transaction (running
// every registered leaf's cleanup) and returns ctx.Err(). A nil ctx
// panics, matching this package's convention of panicking on nil
// required arguments rather than silently defaulting.
//
// Panics raised by a poll function, a Wrap transform, or a Guard thunk
// propagate out of Sync unless a WrapHandler in the tree intercepts them
// first. See spec §4.5 and §7.
func Sync[T any](ctx context.Context, e Event[T], opts ...SyncOption) (T, error) {
	if ctx == nil {
		panic("cml: Sync: nil context")
	}
	cfg := resolveSyncOptions(opts)

	g := e.force()
	leaves, nacks := collectLeaves(g)

	var zero T

	if len(leaves) == 0 {
		<-ctx.Done()
		return zero, ctx.Err()
	}

	// Poll phase: first Enabled wins; stop polling immediately so later
	// leaves' opportunistic side effects never fire for a branch that
	// already lost.
	statuses := make([]status, len(leaves))
	winner := -1
	for i, p := range leaves {
		st := p()
		statuses[i] = st
		if st.enabled {
			winner = i
			break
		}
	}

	if winner >= 0 {
		fireNacks(nacks, winner)
		cfg.logger.Log(LogEntry{Level: LevelInfo, Category: "sync", Message: "poll fast path committed"})
		return statuses[winner].value.(T), nil
	}

	// Block phase: every leaf was Blocked. Register each in source order
	// under one shared Transaction.
	txn := newTransaction()
	cfg.logger.Log(LogEntry{Level: LevelDebug, Category: "sync", TxnID: txn.ID(), Message: "entering block phase"})

	var cleanups []func()
	func() {
		defer func() {
			if r := recover(); r != nil {
				installComposedCleanup(txn, cleanups)
				txn.TryCancel()
				panic(r)
			}
		}()
		for _, st := range statuses {
			if st.register == nil {
				continue
			}
			if c := st.register(txn); c != nil {
				cleanups = append(cleanups, c)
			}
		}
		installComposedCleanup(txn, cleanups)
	}()

	select {
	case <-txn.Done():
	case <-ctx.Done():
		if txn.TryCancel() {
			return zero, ctx.Err()
		}
		// txn.Done() was already closed by a racing commit when ctx fired;
		// fall through to the wake-phase re-poll below instead of
		// discarding a real winner.
	}

	if txn.Cancelled() {
		return zero, ctx.Err()
	}

	for i, p := range leaves {
		st := p()
		if st.enabled {
			fireNacks(nacks, i)
			cfg.logger.Log(LogEntry{Level: LevelInfo, Category: "sync", TxnID: txn.ID(), Message: "block phase committed"})
			return st.value.(T), nil
		}
	}
	panic("cml: sync: transaction committed but no leaf became enabled")
}

func installComposedCleanup(txn *Transaction, cleanups []func()) {
	txn.SetCleanup(func() {
		for _, c := range cleanups {
			c()
		}
	})
}
