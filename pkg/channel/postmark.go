package channel

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mrz1836/postmark"

	"github.com/dmitrymomot/dispatchkit/pkg/dispatch"
)

// PostmarkAPI is the subset of the Postmark client used by PostmarkSender.
type PostmarkAPI interface {
	SendEmail(ctx context.Context, email postmark.Email) (postmark.EmailResponse, error)
}

// PostmarkConfig configures email delivery through Postmark.
type PostmarkConfig struct {
	ServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	AccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail  string `env:"SENDER_EMAIL"`
	SupportEmail string `env:"SUPPORT_EMAIL"`
	Tag          string `env:"POSTMARK_TAG" envDefault:"notification"`
}

// Enabled reports whether a server token is configured.
func (c PostmarkConfig) Enabled() bool {
	return c.ServerToken != ""
}

// PostmarkSender delivers the email channel through the Postmark API instead
// of a generic HTTP provider.
type PostmarkSender struct {
	client PostmarkAPI
	cfg    PostmarkConfig
}

// NewPostmarkSender creates a sender backed by the official Postmark client.
func NewPostmarkSender(cfg PostmarkConfig) (*PostmarkSender, error) {
	if cfg.ServerToken == "" {
		return nil, fmt.Errorf("%w: POSTMARK_SERVER_TOKEN is required", ErrMissingConfig)
	}
	return NewPostmarkSenderWithClient(postmark.NewClient(cfg.ServerToken, cfg.AccountToken), cfg)
}

// NewPostmarkSenderWithClient creates a sender around an existing client.
func NewPostmarkSenderWithClient(client PostmarkAPI, cfg PostmarkConfig) (*PostmarkSender, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: postmark client is required", ErrMissingConfig)
	}
	if !strings.Contains(cfg.SenderEmail, "@") {
		return nil, fmt.Errorf("%w: SENDER_EMAIL must be an email address", ErrMissingConfig)
	}
	return &PostmarkSender{client: client, cfg: cfg}, nil
}

// Send submits one email. Transport errors are transient; a Postmark API
// error code means the message itself was refused and is permanent.
func (s *PostmarkSender) Send(ctx context.Context, p dispatch.Payload) dispatch.SendResult {
	resp, err := s.client.SendEmail(ctx, postmark.Email{
		From:       s.cfg.SenderEmail,
		ReplyTo:    s.cfg.SupportEmail,
		To:         p.Recipient,
		Subject:    p.Title,
		Tag:        s.cfg.Tag,
		TextBody:   p.Content,
		TrackOpens: true,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return dispatch.TransientFailure(fmt.Errorf("%w: %w", ErrTimeout, err), 0)
		}
		return dispatch.TransientFailure(fmt.Errorf("%w: %w", ErrTemporaryFailure, err), 0)
	}
	if resp.ErrorCode > 0 {
		code := int(resp.ErrorCode)
		return dispatch.PermanentFailure(
			fmt.Errorf("%w: postmark error %d: %s", ErrProviderRejected, code, resp.Message),
			code,
		)
	}
	return dispatch.Success(200)
}
