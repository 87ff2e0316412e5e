package cml

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced at the core's boundary. See spec §7.
var (
	// ErrClosed is raised (wrapped, as a panic value) when a send or
	// receive event is synchronized on against a Channel after Close has
	// been called on it. Offers
	// established before Close continue to completion; only *new*
	// send/recv events raise it.
	ErrClosed = errors.New("cml: channel closed")

	// ErrAlreadyWritten is raised (wrapped, as a panic value) by IVar.Put
	// when the IVar already holds a value, and by MVar.Put when the MVar is
	// already full.
	ErrAlreadyWritten = errors.New("cml: already written")

	// ErrNotActive names the condition of a Transaction that is no longer
	// in the Active state. No operation in this package returns it:
	// SetCleanup after commit or cancel silently does nothing.
	ErrNotActive = errors.New("cml: transaction is no longer active")
)

// PanicInWrap is an error type that carries a recovered panic value, such
// as one raised by a Wrap transform, a poll function, or a Guard thunk.
// Neither Sync nor WrapHandler constructs one: WrapHandler passes the raw
// recovered value to its handler, and without a WrapHandler in the tree
// the original panic propagates out of Sync unchanged.
type PanicInWrap struct {
	// Value is the recovered panic value.
	Value any
}

// Error implements the error interface.
func (e *PanicInWrap) Error() string {
	if err, ok := e.Value.(error); ok {
		return fmt.Sprintf("cml: panic in wrap: %v", err)
	}
	return fmt.Sprintf("cml: panic in wrap: %v", e.Value)
}

// Unwrap returns the underlying error, if the panic value was one. This
// allows errors.Is / errors.As to look through a PanicInWrap the same way
// they look through any other wrapped error.
func (e *PanicInWrap) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// closedError annotates ErrClosed with the operation that observed it.
func closedError(op string) error {
	return fmt.Errorf("cml: %s on closed channel: %w", op, ErrClosed)
}
