// Package cml implements the core of a Concurrent ML style runtime:
// first-class synchronous events with selective communication over typed
// rendezvous channels, composable choice, guards, post-commit transforms,
// and negative acknowledgments.
//
// The central type is Event[T], a value representing a (possibly deferred,
// possibly composite) synchronization opportunity. Events are built with
// the combinators in this package (Always, Never, Guard, Wrap, WrapHandler,
// Choose, WithNack, Timeout, AtTime) and consumed, exactly once each, by
// Sync.
//
// A minimal example:
//
//	ch := cml.NewChannel[int]()
//	go func() { ch.Send(context.Background(), 7) }()
//	v, err := cml.Sync(context.Background(), ch.RecvEvt())
//
// Choice composes events so that exactly one branch of many commits:
//
//	evt := cml.Choose(
//		cml.Wrap(ch.RecvEvt(), func(v int) string { return "got" }),
//		cml.Wrap(cml.Timeout(10*time.Millisecond), func(struct{}) string { return "timeout" }),
//	)
//	result, err := cml.Sync(context.Background(), evt)
//
// Synchronization is two-phase: a non-blocking poll walks every leaf of the
// forced event tree looking for one that is already enabled; if none is,
// every leaf registers itself with one shared Transaction and the calling
// goroutine blocks until some base event commits that Transaction. Exactly
// one leaf wins; WithNack lets losing branches of a Choose observe their
// loss and release any resources they reserved speculatively.
//
// The package is safe for concurrent use: channels, condition variables,
// and the derived primitives in the ivar, mvar, mailbox, and barrier
// sub-packages may be shared freely across goroutines synchronizing on
// them concurrently.
package cml
