package channel

import (
	"fmt"
	"time"

	"github.com/dmitrymomot/dispatchkit/pkg/dispatch"
)

// ProviderConfig describes one HTTP notification provider.
type ProviderConfig struct {
	BaseURL string
	Token   string
	Secret  string
}

// Config holds provider endpoints for every channel.
type Config struct {
	EmailBaseURL string `env:"EMAIL_API_BASE_URL"`
	EmailToken   string `env:"EMAIL_API_TOKEN"`
	EmailSecret  string `env:"EMAIL_API_SECRET"`

	SMSBaseURL string `env:"SMS_API_BASE_URL"`
	SMSToken   string `env:"SMS_API_TOKEN"`
	SMSSecret  string `env:"SMS_API_SECRET"`

	PushBaseURL string `env:"PUSH_API_BASE_URL"`
	PushToken   string `env:"PUSH_API_TOKEN"`
	PushSecret  string `env:"PUSH_API_SECRET"`

	Path    string        `env:"CHANNEL_API_PATH" envDefault:"/notifications"`
	Timeout time.Duration `env:"CHANNEL_HTTP_TIMEOUT" envDefault:"10s"`

	// Zero disables the per-provider circuit breaker.
	BreakerFailures int           `env:"CHANNEL_BREAKER_FAILURES" envDefault:"5"`
	BreakerRecovery time.Duration `env:"CHANNEL_BREAKER_RECOVERY" envDefault:"30s"`

	Postmark PostmarkConfig
}

// Provider returns the provider settings for ch.
func (c Config) Provider(ch dispatch.Channel) ProviderConfig {
	switch ch {
	case dispatch.ChannelEmail:
		return ProviderConfig{BaseURL: c.EmailBaseURL, Token: c.EmailToken, Secret: c.EmailSecret}
	case dispatch.ChannelSMS:
		return ProviderConfig{BaseURL: c.SMSBaseURL, Token: c.SMSToken, Secret: c.SMSSecret}
	case dispatch.ChannelPush:
		return ProviderConfig{BaseURL: c.PushBaseURL, Token: c.PushToken, Secret: c.PushSecret}
	default:
		return ProviderConfig{}
	}
}

// NewSenders builds one sender per channel. Email goes through Postmark when
// a server token is configured. All HTTP senders share one connection pool
// unless opts supply a client.
func NewSenders(cfg Config, opts ...Option) (map[dispatch.Channel]dispatch.Sender, error) {
	shared := newHTTPClient(cfg.Timeout)
	senders := make(map[dispatch.Channel]dispatch.Sender, len(dispatch.Channels()))

	for _, ch := range dispatch.Channels() {
		if ch == dispatch.ChannelEmail && cfg.Postmark.Enabled() {
			pm, err := NewPostmarkSender(cfg.Postmark)
			if err != nil {
				return nil, fmt.Errorf("email channel: %w", err)
			}
			senders[ch] = pm
			continue
		}

		p := cfg.Provider(ch)
		chOpts := []Option{
			WithHTTPClient(shared),
			WithTimeout(cfg.Timeout),
			WithPath(cfg.Path),
			WithToken(p.Token),
			WithSigningSecret(p.Secret),
		}
		if cfg.BreakerFailures > 0 {
			chOpts = append(chOpts, WithCircuitBreaker(NewCircuitBreaker(cfg.BreakerFailures, 0, cfg.BreakerRecovery)))
		}
		senders[ch] = NewHTTPSender(ch, p.BaseURL, append(chOpts, opts...)...)
	}

	return senders, nil
}

// NewRegistry builds the default registry with a sender for every channel.
func NewRegistry(cfg Config, opts ...Option) (*dispatch.Registry, error) {
	senders, err := NewSenders(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return dispatch.NewRegistry(senders)
}

var (
	_ dispatch.Sender = (*HTTPSender)(nil)
	_ dispatch.Sender = (*PostmarkSender)(nil)
)
