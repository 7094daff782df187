package redis

import "time"

// Config configures the Redis connection and the dispatch structures kept in it.
type Config struct {
	ConnectionURL  string        `env:"REDIS_URL"`                              // Empty disables Redis. Format: "redis://:password@localhost:6379/0".
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`    // Connection attempts before giving up.
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`   // Pause between connection attempts.
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"` // Overall deadline for Connect.

	KeyPrefix    string        `env:"REDIS_KEY_PREFIX" envDefault:"dispatch"`         // Namespace for every key written by this package.
	AttemptTTL   time.Duration `env:"REDIS_ATTEMPT_TTL" envDefault:"168h"`            // Lifetime of per-request attempt lists and outcomes.
	StreamMaxLen int64         `env:"REDIS_OUTCOME_STREAM_MAXLEN" envDefault:"10000"` // Approximate cap of the global outcome stream.
	QueueKey     string        `env:"REDIS_QUEUE_KEY" envDefault:"dispatch:requests"` // List consumed by RequestQueue.
	PollTimeout  time.Duration `env:"REDIS_QUEUE_POLL_TIMEOUT" envDefault:"5s"`       // BLPOP timeout between cancellation checks.
}

// Enabled reports whether a connection URL is configured.
func (c Config) Enabled() bool {
	return c.ConnectionURL != ""
}
