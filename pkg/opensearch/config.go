package opensearch

// Config holds OpenSearch client connection parameters with environment variable mapping.
type Config struct {
	Addresses    []string `env:"OPENSEARCH_ADDRESSES"`
	Username     string   `env:"OPENSEARCH_USERNAME"`
	Password     string   `env:"OPENSEARCH_PASSWORD"`
	MaxRetries   int      `env:"OPENSEARCH_MAX_RETRIES" envDefault:"3"`
	DisableRetry bool     `env:"OPENSEARCH_DISABLE_RETRY" envDefault:"false"`
	Index        string   `env:"OPENSEARCH_INDEX" envDefault:"dispatch-outcomes"`
}

// Enabled reports whether at least one node address is configured.
func (c Config) Enabled() bool {
	return len(c.Addresses) > 0
}
