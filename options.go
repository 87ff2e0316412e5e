package cml

// syncOptions holds resolved configuration for one Sync call.
type syncOptions struct {
	logger Logger
}

// SyncOption configures a single call to Sync.
type SyncOption interface {
	applySync(*syncOptions)
}

type syncOptionFunc func(*syncOptions)

func (f syncOptionFunc) applySync(o *syncOptions) { f(o) }

// WithLogger injects a Logger for one Sync call's diagnostics (entry into
// the block phase, and the commit of a poll-phase or block-phase winner;
// nack firing is not logged). Omitting it is equivalent to
// NoopLogger{}.
func WithLogger(logger Logger) SyncOption {
	return syncOptionFunc(func(o *syncOptions) {
		if logger != nil {
			o.logger = logger
		}
	})
}

func resolveSyncOptions(opts []SyncOption) *syncOptions {
	cfg := &syncOptions{logger: NoopLogger{}}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.applySync(cfg)
	}
	return cfg
}

// channelOptions holds resolved configuration for a Channel.
type channelOptions struct {
	name   string
	logger Logger
}

// ChannelOption configures a NewChannel call.
type ChannelOption interface {
	applyChannel(*channelOptions)
}

type channelOptionFunc func(*channelOptions)

func (f channelOptionFunc) applyChannel(o *channelOptions) { f(o) }

// WithChannelName attaches a diagnostic name to a Channel, surfaced in
// log entries but otherwise inert.
func WithChannelName(name string) ChannelOption {
	return channelOptionFunc(func(o *channelOptions) { o.name = name })
}

// WithChannelLogger injects a Logger used for this Channel's own
// diagnostics (Close is the only event it logs; rendezvous are not
// logged). Independent of any WithLogger passed to
// a particular Sync call.
func WithChannelLogger(logger Logger) ChannelOption {
	return channelOptionFunc(func(o *channelOptions) {
		if logger != nil {
			o.logger = logger
		}
	})
}

func resolveChannelOptions(opts []ChannelOption) *channelOptions {
	cfg := &channelOptions{logger: NoopLogger{}}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.applyChannel(cfg)
	}
	return cfg
}
