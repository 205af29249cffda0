package vm

import (
	"github.com/deepnoodle-ai/xq/value"
	"github.com/rs/zerolog"
)

// Option is a configuration function for a Machine.
type Option func(*Machine)

// WithInput pushes v onto the operand stack of the initial fork, which is
// how a driver binds the query input before the first result is requested.
// The option may be given more than once; values are pushed in order.
func WithInput(v value.Value) Option {
	return func(m *Machine) {
		m.inputs = append(m.inputs, v)
	}
}

// WithLogger sets the logger used for fork and instruction tracing. Fork
// lifecycle events are logged at debug level and instructions at trace
// level. The default logger discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Machine) {
		m.logger = logger
	}
}

// WithObserver sets an observer for machine execution events.
func WithObserver(observer Observer) Option {
	return func(m *Machine) {
		m.observer = observer
	}
}
