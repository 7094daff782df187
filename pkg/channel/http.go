package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrymomot/dispatchkit/pkg/dispatch"
	"github.com/dmitrymomot/dispatchkit/pkg/logger"
)

const (
	userAgent = "dispatchkit/1.0"

	// Response bodies are only used for error messages.
	maxResponseBody = 64 * 1024
	maxReasonLength = 200
)

// HTTPSender delivers one channel's notifications to a JSON HTTP provider.
// Each Send is exactly one POST to <base URL><path>. Safe for concurrent use.
type HTTPSender struct {
	channel  dispatch.Channel
	endpoint string
	// configErr is reported on every Send when the base URL is unusable.
	configErr error
	opts      *senderOptions
}

// NewHTTPSender creates a sender for ch. A missing or invalid baseURL does not
// fail construction; every Send then returns a permanent ErrMissingConfig.
func NewHTTPSender(ch dispatch.Channel, baseURL string, opts ...Option) *HTTPSender {
	o := defaultSenderOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.recipientField == "" {
		o.recipientField = RecipientField(ch)
	}
	if o.client == nil {
		o.client = newHTTPClient(o.timeout)
	}

	s := &HTTPSender{channel: ch, opts: o}
	s.endpoint, s.configErr = endpoint(baseURL, o.path)
	return s
}

// RecipientField returns the default body key for a channel's recipient.
func RecipientField(ch dispatch.Channel) string {
	switch ch {
	case dispatch.ChannelEmail:
		return "email"
	case dispatch.ChannelSMS:
		return "phone_number"
	case dispatch.ChannelPush:
		return "device_token"
	default:
		return "recipient"
	}
}

// Channel returns the channel this sender serves.
func (s *HTTPSender) Channel() dispatch.Channel {
	return s.channel
}

// Endpoint returns the resolved provider URL, empty when unconfigured.
func (s *HTTPSender) Endpoint() string {
	return s.endpoint
}

// Send performs a single delivery attempt and classifies the result.
func (s *HTTPSender) Send(ctx context.Context, p dispatch.Payload) dispatch.SendResult {
	if s.configErr != nil {
		return dispatch.PermanentFailure(s.configErr, 0)
	}

	cb := s.opts.breaker
	if cb == nil {
		return s.post(ctx, p)
	}

	res := cb.Guard(func() dispatch.SendResult { return s.post(ctx, p) })
	if errors.Is(res.Err, ErrCircuitOpen) {
		s.opts.logger.LogAttrs(ctx, slog.LevelDebug, "provider circuit open, skipping request",
			logger.RequestID(p.RequestID),
			logger.Channel(string(s.channel)),
		)
	}
	return res
}

func (s *HTTPSender) post(ctx context.Context, p dispatch.Payload) dispatch.SendResult {
	body, err := json.Marshal(map[string]map[string]string{
		"notification": {
			"title":               p.Title,
			"content":             p.Content,
			s.opts.recipientField: p.Recipient,
		},
	})
	if err != nil {
		return dispatch.PermanentFailure(fmt.Errorf("marshal request body: %w", err), 0)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return dispatch.PermanentFailure(fmt.Errorf("%w: %w", ErrMissingConfig, err), 0)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", p.RequestID)
	for k, v := range s.opts.headers {
		req.Header.Set(k, v)
	}
	if s.opts.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.opts.token)
	}
	if s.opts.secret != "" {
		sig, err := Sign(s.opts.secret, body)
		if err != nil {
			return dispatch.PermanentFailure(err, 0)
		}
		sig.Apply(req.Header)
	}

	resp, err := s.opts.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return dispatch.TransientFailure(fmt.Errorf("%w: %w", ErrTimeout, err), 0)
		}
		return dispatch.TransientFailure(fmt.Errorf("%w: %w", ErrTemporaryFailure, err), 0)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	return Classify(resp.StatusCode, respBody)
}

// Classify maps a provider HTTP status to a send result: 2xx succeeds,
// 408, 425, 429 and 5xx are transient, other 4xx are permanent, and anything
// else is treated as transient.
func Classify(status int, body []byte) dispatch.SendResult {
	switch {
	case status >= 200 && status < 300:
		return dispatch.Success(status)
	case status == http.StatusRequestTimeout,
		status == http.StatusTooEarly,
		status == http.StatusTooManyRequests,
		status >= 500:
		return dispatch.TransientFailure(statusError(ErrTemporaryFailure, status, body), status)
	case status >= 400:
		return dispatch.PermanentFailure(statusError(ErrProviderRejected, status, body), status)
	default:
		return dispatch.TransientFailure(statusError(ErrTemporaryFailure, status, body), status)
	}
}

func statusError(kind error, status int, body []byte) error {
	reason := strings.TrimSpace(strings.ReplaceAll(string(body), "\n", " "))
	if reason == "" {
		return fmt.Errorf("%w: status %d", kind, status)
	}
	if len(reason) > maxReasonLength {
		reason = reason[:maxReasonLength] + "..."
	}
	return fmt.Errorf("%w: status %d: %s", kind, status, reason)
}

func endpoint(baseURL, path string) (string, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return "", fmt.Errorf("%w: base URL is empty", ErrMissingConfig)
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMissingConfig, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: base URL must use http or https", ErrMissingConfig)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: base URL has no host", ErrMissingConfig)
	}

	return strings.TrimRight(u.String(), "/") + "/" + strings.TrimLeft(path, "/"), nil
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}
