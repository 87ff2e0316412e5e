// Package idgen hands out monotonic identifiers for Transactions and
// Channels, paired with a uuid.UUID for external diagnostics/tracing
// (log lines, metrics labels) that want a globally-unique token rather
// than a process-local counter.
package idgen

import (
	"sync/atomic"

	"github.com/google/uuid"
)

var counter atomic.Uint64

// Next returns the next monotonic uint64 id, starting at 1. It is used
// for wait-queue lookups, where a small comparable key is wanted and a
// uuid.UUID (16 bytes, not orderable) would be unnecessarily heavy.
func Next() uint64 {
	return counter.Add(1)
}

// NewUUID returns a fresh random UUID, for attaching to diagnostics
// alongside a monotonic id returned by Next.
func NewUUID() uuid.UUID {
	return uuid.New()
}
