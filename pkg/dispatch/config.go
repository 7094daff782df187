package dispatch

import "time"

// Config holds engine settings loadable from the environment.
type Config struct {
	// Slots shared by all in-flight dispatches.
	MaxConcurrency int           `yaml:"max_concurrency" env:"DISPATCH_MAX_CONCURRENCY" envDefault:"10"`
	// Attempts per request, including the first.
	MaxAttempts    int           `yaml:"max_attempts" env:"DISPATCH_MAX_ATTEMPTS" envDefault:"3"`
	// Delay after the first failed attempt.
	BackoffBase    time.Duration `yaml:"backoff_base" env:"DISPATCH_BACKOFF_BASE" envDefault:"500ms"`
	// Upper bound for any single delay.
	BackoffCap     time.Duration `yaml:"backoff_cap" env:"DISPATCH_BACKOFF_CAP" envDefault:"30s"`
	// Fraction of random spread, 0 disables jitter.
	BackoffJitter  float64       `yaml:"backoff_jitter" env:"DISPATCH_BACKOFF_JITTER" envDefault:"0.2"`
	// Per-attempt sender deadline.
	AttemptTimeout time.Duration `yaml:"attempt_timeout" env:"DISPATCH_ATTEMPT_TIMEOUT" envDefault:"10s"`
	// Per-call deadline for result sinks.
	SinkTimeout    time.Duration `yaml:"sink_timeout" env:"DISPATCH_SINK_TIMEOUT" envDefault:"5s"`
}

// DefaultConfig mirrors the envDefault tags for callers that skip env loading.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 10,
		MaxAttempts:    3,
		BackoffBase:    500 * time.Millisecond,
		BackoffCap:     30 * time.Second,
		BackoffJitter:  0.2,
		AttemptTimeout: 10 * time.Second,
		SinkTimeout:    5 * time.Second,
	}
}

// NewFromConfig creates an engine from cfg. Explicit options take precedence.
func NewFromConfig(cfg Config, registry *Registry, opts ...Option) (*Engine, error) {
	configOpts := []Option{
		WithMaxConcurrency(cfg.MaxConcurrency),
		WithMaxAttempts(cfg.MaxAttempts),
		WithBackoff(ExponentialBackoff{
			Base:       cfg.BackoffBase,
			Cap:        cfg.BackoffCap,
			Multiplier: 2,
			Jitter:     cfg.BackoffJitter,
		}),
	}
	if cfg.AttemptTimeout > 0 {
		configOpts = append(configOpts, WithAttemptTimeout(cfg.AttemptTimeout))
	}
	if cfg.SinkTimeout > 0 {
		configOpts = append(configOpts, WithSinkTimeout(cfg.SinkTimeout))
	}

	return New(registry, append(configOpts, opts...)...)
}
