package filter

import "log/slog"

// DefaultMaxDepth bounds mapping nesting so hostile input cannot exhaust the
// stack. The top level counts as depth 1.
const DefaultMaxDepth = 64

// Option configures the decoders, Parse and Filter.
type Option func(*options)

type options struct {
	maxDepth int
	logger   *slog.Logger
}

func newOptions(opts []Option) options {
	o := options{
		maxDepth: DefaultMaxDepth,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithMaxDepth sets the maximum mapping nesting depth. Values below 1 keep
// the default.
func WithMaxDepth(n int) Option {
	return func(o *options) {
		if n >= 1 {
			o.maxDepth = n
		}
	}
}

// WithLogger sets the logger used by Filter. Rejections are logged at Debug.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
