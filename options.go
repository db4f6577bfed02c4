package diskbloom

type options struct {
	logger Logger
	hooks  *Hooks
	scheme HashScheme
}

type Option func(*options)

func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func WithHooks(hooks *Hooks) Option {
	return func(o *options) {
		o.hooks = hooks
	}
}

// WithHashScheme replaces the SipHash scheme. Every handle of a table must use the same scheme
func WithHashScheme(scheme HashScheme) Option {
	return func(o *options) {
		o.scheme = scheme
	}
}

func buildOptions(opts []Option) options {
	o := options{
		logger: StdLogger(nil),
		hooks:  NewHooks(),
		scheme: NewSipHashScheme(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = NoOpLogger
	}
	if o.hooks == nil {
		o.hooks = NewHooks()
	}
	return o
}
