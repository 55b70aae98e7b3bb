package mixgo

// Options configures Mixture construction.
type Options struct {
	// Logger receives structural-transition events at Debug level.
	// Defaults to a noop logger.
	Logger *Logger
}

// DefaultOptions contains the default configuration.
var DefaultOptions = Options{}

// Option configures Mixture constructor behavior.
type Option func(*Options)

// WithLogger sets the logger used for structural-transition events.
func WithLogger(l *Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}
