// Package ivar provides a write-once synchronizing cell. See spec §4.6.
package ivar

import (
	"context"
	"fmt"
	"sync"

	"github.com/concurrentml/go-cml"
)

// IVar is a write-once cell: Put succeeds exactly once, after which every
// GetEvt (already blocked or not yet synchronized) observes the written
// value. A second Put panics with cml.ErrAlreadyWritten.
//
// The zero value is not usable; construct one with New.
type IVar[T any] struct {
	mu       sync.Mutex
	written  bool
	value    T
	writtenC *cml.CVar
}

// New returns a fresh, unwritten IVar.
func New[T any]() *IVar[T] {
	return &IVar[T]{writtenC: cml.NewCVar()}
}

// Put writes v and wakes every fiber blocked in GetEvt. It panics, wrapping
// cml.ErrAlreadyWritten, if this IVar has already been written.
func (iv *IVar[T]) Put(v T) {
	iv.mu.Lock()
	if iv.written {
		iv.mu.Unlock()
		panic(fmt.Errorf("cml/ivar: put: %w", cml.ErrAlreadyWritten))
	}
	iv.value = v
	iv.written = true
	iv.mu.Unlock()
	iv.writtenC.Set()
}

// TryPut is Put without the panic: it reports whether it won the race to
// write the first value.
func (iv *IVar[T]) TryPut(v T) bool {
	iv.mu.Lock()
	if iv.written {
		iv.mu.Unlock()
		return false
	}
	iv.value = v
	iv.written = true
	iv.mu.Unlock()
	iv.writtenC.Set()
	return true
}

// GetEvt returns an Event that becomes enabled once this IVar has been
// written, yielding its value. Reads are non-destructive: every GetEvt
// (polled any number of times, by any number of fibers) observes the same
// value once written.
func (iv *IVar[T]) GetEvt() cml.Event[T] {
	return cml.Wrap(iv.writtenC.Evt(), func(struct{}) T {
		iv.mu.Lock()
		defer iv.mu.Unlock()
		return iv.value
	})
}

// Get is the blocking convenience sync(get_evt()).
func (iv *IVar[T]) Get(ctx context.Context) (T, error) {
	return cml.Sync(ctx, iv.GetEvt())
}

// TryGet reads the value non-destructively without blocking. It reports
// false if the IVar has not yet been written.
func (iv *IVar[T]) TryGet() (T, bool) {
	iv.mu.Lock()
	defer iv.mu.Unlock()
	if !iv.written {
		var zero T
		return zero, false
	}
	return iv.value, true
}
