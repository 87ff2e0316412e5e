package barrier

import "github.com/concurrentml/go-cml"

// barrierOptions holds resolved configuration for a Barrier.
type barrierOptions struct {
	name   string
	logger cml.Logger
}

// BarrierOption configures a New call.
type BarrierOption interface {
	applyBarrier(*barrierOptions)
}

type barrierOptionFunc func(*barrierOptions)

func (f barrierOptionFunc) applyBarrier(o *barrierOptions) { f(o) }

// WithBarrierName attaches a diagnostic name to a Barrier, surfaced in log
// entries but otherwise inert.
func WithBarrierName(name string) BarrierOption {
	return barrierOptionFunc(func(o *barrierOptions) { o.name = name })
}

// WithBarrierLogger injects a Logger used for this Barrier's own
// diagnostics (round completion). Independent of any logger passed to a
// particular cml.Sync call.
func WithBarrierLogger(logger cml.Logger) BarrierOption {
	return barrierOptionFunc(func(o *barrierOptions) {
		if logger != nil {
			o.logger = logger
		}
	})
}

func resolveBarrierOptions(opts []BarrierOption) *barrierOptions {
	cfg := &barrierOptions{logger: cml.NoopLogger{}}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.applyBarrier(cfg)
	}
	return cfg
}
