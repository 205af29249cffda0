package xq

import (
	"github.com/deepnoodle-ai/xq/vm"
	"github.com/rs/zerolog"
)

// Option configures an xq assembly or execution.
type Option func(*options)

type options struct {
	filename string
	logger   *zerolog.Logger
	observer vm.Observer
	limit    int
}

func collectOptions(opts ...Option) *options {
	o := &options{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

func (o *options) vmOpts() []vm.Option {
	var opts []vm.Option
	if o.logger != nil {
		opts = append(opts, vm.WithLogger(*o.logger))
	}
	if o.observer != nil {
		opts = append(opts, vm.WithObserver(o.observer))
	}
	return opts
}

// WithFilename sets the filename reported in assembler errors.
func WithFilename(filename string) Option {
	return func(o *options) {
		o.filename = filename
	}
}

// WithLogger sets the logger the machine reports fork and instruction
// events to.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = &logger
	}
}

// WithObserver sets an observer for machine execution events.
func WithObserver(observer vm.Observer) Option {
	return func(o *options) {
		o.observer = observer
	}
}

// WithLimit stops execution after n results. Values of n <= 0 mean no
// limit, which never terminates for programs that generate forever.
func WithLimit(n int) Option {
	return func(o *options) {
		o.limit = n
	}
}
