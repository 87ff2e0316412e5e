package cml

import (
	"runtime"
	"sync"

	"github.com/concurrentml/go-cml/internal/idgen"
)

// ThreadID identifies a fiber spawned with Spawn. See spec §6.
type ThreadID uint64

// exitSignal is the panic value Exit raises; Spawn's wrapper recovers it
// without propagating, terminating only the calling fiber. See spec §9
// "Exception-for-control-flow".
type exitSignal struct{}

// Scheduler is the fiber runtime the core requires of its host: spawn a
// new fiber running fn, and yield the current one. See spec §6's "Fiber
// runtime" external interface. The default, package-level Spawn/Yield/
// JoinEvt/Exit are backed by DefaultScheduler, which maps fibers directly
// onto goroutines — Sync already suspends/resumes via a Transaction's
// wake channel, so no separate scheduler hand-off is needed for that;
// Scheduler exists for the spawn/join/exit surface spec.md asks the core
// to expose (§6), not as a dependency of Sync itself.
type Scheduler interface {
	// Spawn starts fn in a new fiber and returns an identifier that
	// JoinEvt can wait on.
	Spawn(fn func()) ThreadID
	// Yield cooperatively yields the current fiber.
	Yield()
	// JoinEvt returns an Event that becomes enabled once the fiber
	// identified by tid has returned (or called Exit). An unknown tid
	// yields an Event that never becomes enabled.
	JoinEvt(tid ThreadID) Event[struct{}]
}

// goroutineScheduler is the default Scheduler: one goroutine per fiber, a
// CVar per fiber recording completion for JoinEvt.
type goroutineScheduler struct {
	mu    sync.Mutex
	joins map[ThreadID]*CVar
}

// NewGoroutineScheduler returns a Scheduler that spawns one goroutine per
// fiber, with no concurrency limit. This is what the package-level
// Spawn/Yield/JoinEvt/Exit functions use.
func NewGoroutineScheduler() Scheduler {
	return &goroutineScheduler{joins: make(map[ThreadID]*CVar)}
}

func (s *goroutineScheduler) Spawn(fn func()) ThreadID {
	tid := ThreadID(idgen.Next())
	cv := NewCVar()
	s.mu.Lock()
	s.joins[tid] = cv
	s.mu.Unlock()
	go func() {
		defer cv.Set()
		defer func() {
			if r := recover(); r != nil {
				if _, ok := r.(exitSignal); !ok {
					panic(r)
				}
			}
		}()
		fn()
	}()
	return tid
}

func (s *goroutineScheduler) Yield() { runtime.Gosched() }

func (s *goroutineScheduler) JoinEvt(tid ThreadID) Event[struct{}] {
	s.mu.Lock()
	cv, ok := s.joins[tid]
	s.mu.Unlock()
	if !ok {
		return Never[struct{}]()
	}
	return cv.Evt()
}

// DefaultScheduler is used by the package-level Spawn/Yield/JoinEvt/Exit
// convenience functions. Applications embedding the core in their own
// fiber runtime should use their own Scheduler implementation directly
// instead of these package-level functions.
var DefaultScheduler Scheduler = NewGoroutineScheduler()

// Spawn starts thunk as a new fiber on DefaultScheduler.
func Spawn(thunk func()) ThreadID { return DefaultScheduler.Spawn(thunk) }

// Yield cooperatively yields the current fiber on DefaultScheduler.
func Yield() { DefaultScheduler.Yield() }

// JoinEvt returns an Event that becomes enabled once the fiber identified
// by tid (as spawned via the package-level Spawn) has returned or exited.
func JoinEvt(tid ThreadID) Event[struct{}] { return DefaultScheduler.JoinEvt(tid) }

// Exit conceptually unwinds the calling fiber: it stops executing user
// code and its JoinEvt becomes ready. Modeled as a recoverable panic
// caught by Spawn's wrapper, per spec §9.
func Exit() { panic(exitSignal{}) }
