package cml

import (
	"log"
	"sync/atomic"
	"time"
)

// LogLevel is the severity of a LogEntry.
type LogLevel int32

const (
	// LevelDebug is for tracing individual poll/register/commit steps.
	LevelDebug LogLevel = iota
	// LevelInfo is for rendezvous, commit, and nack-firing events.
	LevelInfo
	// LevelWarn is for recoverable anomalies (e.g. a cancel racing a fire).
	LevelWarn
	// LevelError is for propagated panics and protocol violations.
	LevelError
)

// String implements fmt.Stringer.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LogEntry is a single structured diagnostic event emitted by the sync
// engine, a Channel, or a derived primitive.
type LogEntry struct {
	Level     LogLevel
	Category  string // "sync", "channel", "barrier"
	Message   string
	TxnID     uint64
	Err       error
	Timestamp time.Time
}

// Logger is the structured logging interface consumed by this package.
// Applications may supply their own implementation (see the
// cmllogifaceadapter sub-package for a github.com/joeycumines/logiface
// backed adapter) or use StdLogger / NoopLogger.
type Logger interface {
	Log(entry LogEntry)
	IsEnabled(level LogLevel) bool
}

// NoopLogger discards every entry. It is the default Logger used when none
// is configured via WithLogger.
type NoopLogger struct{}

// Log implements Logger.
func (NoopLogger) Log(LogEntry) {}

// IsEnabled implements Logger, always returning false.
func (NoopLogger) IsEnabled(LogLevel) bool { return false }

var _ Logger = NoopLogger{}

// StdLogger adapts the standard library's log package to Logger. It is
// intended for local debugging; production use should supply an adapter
// over whatever structured logging backend the application already uses.
type StdLogger struct {
	level  atomic.Int32
	target *log.Logger
}

// NewStdLogger returns a StdLogger that logs entries at or above minLevel
// to target. A nil target defaults to log.Default().
func NewStdLogger(minLevel LogLevel, target *log.Logger) *StdLogger {
	if target == nil {
		target = log.Default()
	}
	l := &StdLogger{target: target}
	l.level.Store(int32(minLevel))
	return l
}

// IsEnabled implements Logger.
func (l *StdLogger) IsEnabled(level LogLevel) bool {
	return int32(level) >= l.level.Load()
}

// Log implements Logger.
func (l *StdLogger) Log(entry LogEntry) {
	if !l.IsEnabled(entry.Level) {
		return
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	if entry.Err != nil {
		l.target.Printf("[%s] %s txn=%d: %s: %v", entry.Level, entry.Category, entry.TxnID, entry.Message, entry.Err)
		return
	}
	l.target.Printf("[%s] %s txn=%d: %s", entry.Level, entry.Category, entry.TxnID, entry.Message)
}

var _ Logger = (*StdLogger)(nil)
