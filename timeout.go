package cml

import (
	"sync/atomic"
	"time"

	"github.com/concurrentml/go-cml/internal/timerwheel"
)

// defaultWheel is the process-wide timer facility backing Timeout and
// AtTime. See spec §4.6's "timeout"/"at_time".
var defaultWheel = timerwheel.New()

// Timeout returns an Event that becomes enabled, yielding struct{}{}, once
// span has elapsed since the event was registered by a Sync call — not
// since this call to Timeout (spec §5: "ready no earlier than d after
// registration (not after construction)"). Each call starts its own
// independent timer; composing the same Timeout event into multiple Choose
// expressions would be a mistake, because it is single-use like any other
// Event — construct a fresh Timeout per synchronization attempt. See spec
// §4.6.
func Timeout(span time.Duration) Event[struct{}] {
	return baseEvent[struct{}](func() pollFunc {
		var fired atomic.Bool
		return func() status {
			if fired.Load() || span <= 0 {
				return enabledStatus(-1, struct{}{})
			}
			return blockedStatus(func(txn *Transaction) func() {
				id := defaultWheel.Schedule(span, func() {
					fired.Store(true)
					txn.TryCommit()
				})
				return func() { defaultWheel.Cancel(id) }
			})
		}
	})
}

// AtTime returns an Event that becomes enabled, yielding struct{}{}, once
// wall-clock time t has passed. A t already in the past is enabled
// immediately on the next poll. See spec §4.6.
func AtTime(t time.Time) Event[struct{}] {
	return baseEvent[struct{}](func() pollFunc {
		return atTimePoll(t)
	})
}

// atTimePoll builds AtTime's poll function (Timeout's follows the same
// pattern, scheduling span from registration instead). If
// registered (blocked), it schedules a callback on defaultWheel that sets a
// local done flag and commits the Transaction on fire; the returned cleanup
// cancels that callback, so a Timeout/AtTime that loses a Choose (or whose
// Sync call is cancelled) never leaves a live timer pinned in the wheel
// (spec §5: "If the timeout is composed with other events and another
// branch commits first, the timer is cancelled").
func atTimePoll(t time.Time) pollFunc {
	var fired atomic.Bool
	return func() status {
		if fired.Load() {
			return enabledStatus(-1, struct{}{})
		}
		if !time.Now().Before(t) {
			return enabledStatus(-1, struct{}{})
		}
		return blockedStatus(func(txn *Transaction) func() {
			id := defaultWheel.Schedule(time.Until(t), func() {
				fired.Store(true)
				txn.TryCommit()
			})
			return func() { defaultWheel.Cancel(id) }
		})
	}
}
