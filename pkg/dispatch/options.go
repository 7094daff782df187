package dispatch

import (
	"log/slog"
	"time"
)

// Option configures an Engine.
type Option func(*options)

type options struct {
	maxConcurrency int
	maxAttempts    int
	backoff        Backoff
	attemptTimeout time.Duration
	sinkTimeout    time.Duration
	sink           Sink
	logger         *slog.Logger
	now            func() time.Time
}

func defaultOptions() *options {
	return &options{
		maxConcurrency: 10,
		maxAttempts:    3,
		backoff:        DefaultBackoff(),
		attemptTimeout: 10 * time.Second,
		sinkTimeout:    5 * time.Second,
		sink:           NopSink{},
		logger:         slog.Default(),
		now:            time.Now,
	}
}

// WithMaxConcurrency sets the number of dispatches that may hold a slot at once.
// Values below 1 are rejected by New.
func WithMaxConcurrency(n int) Option {
	return func(o *options) { o.maxConcurrency = n }
}

// WithMaxAttempts sets the number of attempts per request, including the first.
// Values below 1 are rejected by New.
func WithMaxAttempts(n int) Option {
	return func(o *options) { o.maxAttempts = n }
}

// WithBackoff sets the delay strategy between attempts.
func WithBackoff(b Backoff) Option {
	return func(o *options) {
		if b != nil {
			o.backoff = b
		}
	}
}

// WithNoBackoff retries immediately. Useful for tests.
func WithNoBackoff() Option {
	return func(o *options) { o.backoff = FixedBackoff{} }
}

// WithAttemptTimeout bounds every sender call. A timed out attempt is transient.
func WithAttemptTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.attemptTimeout = d
		}
	}
}

// WithSinkTimeout bounds every sink call.
func WithSinkTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.sinkTimeout = d
		}
	}
}

// WithSink sets the result sink. Several sinks are combined into a MultiSink.
func WithSink(sinks ...Sink) Option {
	return func(o *options) {
		clean := make(MultiSink, 0, len(sinks))
		for _, s := range sinks {
			if s != nil {
				clean = append(clean, s)
			}
		}
		switch len(clean) {
		case 0:
			o.sink = NopSink{}
		case 1:
			o.sink = clean[0]
		default:
			o.sink = clean
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
