// Package timerwheel provides a minimal single-shot timer facility: schedule
// a callback to run after a delay, and cancel it before it fires. It is the
// reference timer used by this module's Timeout/AtTime combinators.
//
// The heap shape (a container/heap min-heap ordered by fire time) is
// adapted from the event loop's timerHeap, but re-expressed here for
// one-shot, externally-driven scheduling: there is no surrounding tick loop
// to piggyback on, so Wheel runs its own dispatcher goroutine, started
// lazily on the first Schedule call and parked on a timer reset to the
// next-soonest deadline.
package timerwheel

import (
	"container/heap"
	"sync"
	"time"
)

// TimerID identifies one scheduled callback, returned by Schedule and
// accepted by Cancel.
type TimerID uint64

type entry struct {
	id    TimerID
	when  time.Time
	fn    func()
	index int // position in the heap slice, maintained by heap.Interface
}

type entryHeap []*entry

func (h entryHeap) Len() int            { return len(h) }
func (h entryHeap) Less(i, j int) bool  { return h[i].when.Before(h[j].when) }
func (h entryHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *entryHeap) Push(x any)         { e := x.(*entry); e.index = len(*h); *h = append(*h, e) }
func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// Wheel is a single-shot timer facility safe for concurrent use. The zero
// value is not usable; construct one with New.
type Wheel struct {
	mu      sync.Mutex
	nextID  TimerID
	entries map[TimerID]*entry
	heap    entryHeap

	wake chan struct{} // buffered 1; nudges the dispatcher to re-evaluate
	once sync.Once
}

// New returns a ready-to-use Wheel.
func New() *Wheel {
	return &Wheel{
		entries: make(map[TimerID]*entry),
		wake:    make(chan struct{}, 1),
	}
}

// Schedule arranges for fn to run, on its own goroutine, once span has
// elapsed. It returns an id that Cancel can use to prevent that. span <= 0
// fires as soon as the dispatcher next runs.
func (w *Wheel) Schedule(span time.Duration, fn func()) TimerID {
	w.once.Do(w.startDispatcher)

	w.mu.Lock()
	w.nextID++
	id := w.nextID
	e := &entry{id: id, when: time.Now().Add(span), fn: fn}
	w.entries[id] = e
	heap.Push(&w.heap, e)
	w.mu.Unlock()

	w.nudge()
	return id
}

// Cancel prevents the callback identified by id from firing, if it has not
// already. It reports whether it won that race.
func (w *Wheel) Cancel(id TimerID) bool {
	w.mu.Lock()
	e, ok := w.entries[id]
	if !ok {
		w.mu.Unlock()
		return false
	}
	delete(w.entries, id)
	if e.index >= 0 {
		heap.Remove(&w.heap, e.index)
	}
	w.mu.Unlock()
	return true
}

func (w *Wheel) nudge() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// startDispatcher runs for the lifetime of the process: its goroutine never
// exits and keeps the Wheel reachable. There is no
// explicit shutdown, matching CML's timers, which are never torn down
// independently of the process.
func (w *Wheel) startDispatcher() {
	go func() {
		timer := time.NewTimer(time.Hour)
		if !timer.Stop() {
			<-timer.C
		}
		for {
			w.mu.Lock()
			var sleep time.Duration
			var due *entry
			if len(w.heap) > 0 {
				head := w.heap[0]
				sleep = time.Until(head.when)
				if sleep <= 0 {
					due = heap.Pop(&w.heap).(*entry)
					delete(w.entries, due.id)
				}
			} else {
				sleep = time.Hour
			}
			w.mu.Unlock()

			if due != nil {
				go due.fn()
				continue
			}

			timer.Reset(sleep)
			select {
			case <-timer.C:
			case <-w.wake:
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
			}
		}
	}()
}
