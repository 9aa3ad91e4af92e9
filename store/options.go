package store

import "log/slog"

// options defines all configuration options for the store.
type options struct {
	debug  bool         // Gates diagnostic logging in the worker
	logger *slog.Logger // Destination for diagnostic logging
}

// Option is a function that configures the store options.
type Option func(*options)

// WithDebug enables diagnostic logging in the store worker.
func WithDebug(debug bool) Option {
	return func(o *options) {
		o.debug = debug
	}
}

// WithLogger sets the logger used for diagnostics. Defaults to slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// defaultOptions returns the default configuration.
func defaultOptions() options {
	return options{
		debug:  false,
		logger: slog.Default(),
	}
}
