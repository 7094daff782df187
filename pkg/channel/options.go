package channel

import (
	"log/slog"
	"net/http"
	"time"
)

// DefaultPath is appended to the provider base URL.
const DefaultPath = "/notifications"

// Option configures an HTTPSender.
type Option func(*senderOptions)

type senderOptions struct {
	client         *http.Client
	timeout        time.Duration
	path           string
	recipientField string
	token          string
	secret         string
	headers        map[string]string
	breaker        *CircuitBreaker
	logger         *slog.Logger
}

func defaultSenderOptions() *senderOptions {
	return &senderOptions{
		timeout: 10 * time.Second,
		path:    DefaultPath,
		headers: make(map[string]string),
		logger:  slog.Default(),
	}
}

// WithHTTPClient replaces the default pooled client. The client's own
// timeout is left untouched.
func WithHTTPClient(c *http.Client) Option {
	return func(o *senderOptions) {
		if c != nil {
			o.client = c
		}
	}
}

// WithTimeout bounds a single provider request. The engine's per-attempt
// timeout applies as well; the shorter one wins.
func WithTimeout(d time.Duration) Option {
	return func(o *senderOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithPath overrides the request path appended to the base URL.
func WithPath(path string) Option {
	return func(o *senderOptions) {
		if path != "" {
			o.path = path
		}
	}
}

// WithRecipientField overrides the JSON key that carries the recipient.
func WithRecipientField(field string) Option {
	return func(o *senderOptions) {
		if field != "" {
			o.recipientField = field
		}
	}
}

// WithToken sends "Authorization: Bearer <token>" with every request.
func WithToken(token string) Option {
	return func(o *senderOptions) { o.token = token }
}

// WithSigningSecret signs every request body with HMAC-SHA256.
func WithSigningSecret(secret string) Option {
	return func(o *senderOptions) { o.secret = secret }
}

// WithHeader adds a static request header.
func WithHeader(key, value string) Option {
	return func(o *senderOptions) {
		if key != "" && value != "" {
			o.headers[key] = value
		}
	}
}

// WithCircuitBreaker protects the provider with cb. Use one breaker per provider.
func WithCircuitBreaker(cb *CircuitBreaker) Option {
	return func(o *senderOptions) { o.breaker = cb }
}

// WithLogger sets the sender logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *senderOptions) {
		if l != nil {
			o.logger = l
		}
	}
}
