package pipeline

import "github.com/rs/zerolog"

// Option configures a Pipeline.
type Option func(*options)

type options struct {
	name     string
	loop     *Loop
	observer Observer
	log      zerolog.Logger
}

func defaultOptions() options {
	return options{log: zerolog.Nop()}
}

// WithName sets the pipeline name used in logs, observer hooks and metrics.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithLoop runs the pipeline on loop instead of DefaultLoop.
func WithLoop(loop *Loop) Option {
	return func(o *options) { o.loop = loop }
}

// WithObserver attaches run and stage hooks. Use MultiObserver for several.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}

// WithLogger sets the logger for run lifecycle and recovered panics.
func WithLogger(log zerolog.Logger) Option {
	return func(o *options) { o.log = log }
}
