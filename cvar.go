package cml

import "sync"

// CVar is a two-state, monotonic condition variable: Unset, then Set,
// never back again. It backs WithNack internally, and is also exported
// for direct use — Evt returns an Event that becomes enabled once Set is
// called. See spec §3.5 and §4.6.
//
// The zero value is not usable; construct one with NewCVar.
type CVar struct {
	mu      sync.Mutex
	isSet   bool
	waiters map[uint64]*Transaction
}

// NewCVar returns a fresh, Unset CVar.
func NewCVar() *CVar {
	return &CVar{waiters: make(map[uint64]*Transaction)}
}

// Set transitions the CVar to Set, if it is not already, and commits every
// currently-enrolled, still-Active waiter's Transaction, waking their
// fibers. Calling Set on an already-Set CVar is a no-op. Resetting is not
// supported (spec §3.5: "Resetting is not defined").
func (c *CVar) Set() {
	c.mu.Lock()
	if c.isSet {
		c.mu.Unlock()
		return
	}
	c.isSet = true
	waiters := c.waiters
	c.waiters = nil
	c.mu.Unlock()

	for _, txn := range waiters {
		txn.TryCommit()
	}
}

// IsSet reports whether Set has been called.
func (c *CVar) IsSet() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isSet
}

// Evt returns an Event that becomes enabled (with the zero value) once Set
// is called. Each call to Sync on (an Event derived from) the result polls
// independently; the CVar itself may be waited on repeatedly by many
// goroutines concurrently.
func (c *CVar) Evt() Event[struct{}] {
	return baseEvent[struct{}](func() pollFunc {
		done := false
		return func() status {
			if done {
				return enabledStatus(-1, struct{}{})
			}
			c.mu.Lock()
			if c.isSet {
				c.mu.Unlock()
				done = true
				return enabledStatus(-1, struct{}{})
			}
			c.mu.Unlock()
			return blockedStatus(func(txn *Transaction) func() {
				c.mu.Lock()
				if c.isSet {
					c.mu.Unlock()
					// Set raced us between the unlocked check above and
					// here; commit immediately instead of enrolling.
					txn.TryCommit()
					return nil
				}
				tid := txn.ID()
				c.waiters[tid] = txn
				c.mu.Unlock()
				return func() {
					c.mu.Lock()
					if c.waiters != nil {
						delete(c.waiters, tid)
					}
					c.mu.Unlock()
				}
			})
		}
	})
}
