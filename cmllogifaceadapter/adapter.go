// Package cmllogifaceadapter adapts a github.com/joeycumines/logiface.Logger
// into this module's cml.Logger interface, so applications already using
// logiface for their own structured logging can route this module's
// diagnostics (Sync's block-phase entry and commits, channel close, barrier
// rounds) through the same backend and sinks.
package cmllogifaceadapter

import (
	"github.com/joeycumines/logiface"

	"github.com/concurrentml/go-cml"
)

// Adapter implements cml.Logger over a logiface.Logger[E].
type Adapter[E logiface.Event] struct {
	logger *logiface.Logger[E]
}

// New wraps logger as a cml.Logger.
func New[E logiface.Event](logger *logiface.Logger[E]) *Adapter[E] {
	return &Adapter[E]{logger: logger}
}

var _ cml.Logger = (*Adapter[logiface.Event])(nil)

func toLogifaceLevel(l cml.LogLevel) logiface.Level {
	switch l {
	case cml.LevelDebug:
		return logiface.LevelDebug
	case cml.LevelInfo:
		return logiface.LevelInformational
	case cml.LevelWarn:
		return logiface.LevelWarning
	case cml.LevelError:
		return logiface.LevelError
	default:
		return logiface.LevelInformational
	}
}

// IsEnabled implements cml.Logger.
func (a *Adapter[E]) IsEnabled(level cml.LogLevel) bool {
	return a.logger.Level().Enabled() && a.logger.Level() >= toLogifaceLevel(level)
}

// Log implements cml.Logger, building one logiface event per LogEntry.
func (a *Adapter[E]) Log(entry cml.LogEntry) {
	b := a.logger.Build(toLogifaceLevel(entry.Level))
	if b == nil {
		return
	}
	b = b.Str("category", entry.Category)
	if entry.TxnID != 0 {
		b = b.Uint64("txn_id", entry.TxnID)
	}
	if entry.Err != nil {
		b = b.Err(entry.Err)
	}
	b.Log(entry.Message)
}
