package dispatch

import (
	"context"
	"errors"
)

// Sender performs a single outbound delivery attempt for one channel.
// Implementations must be safe for concurrent use and must classify every
// non-success result as transient or permanent.
type Sender interface {
	Send(ctx context.Context, p Payload) SendResult
}

// SenderFunc adapts a plain function to the Sender interface.
type SenderFunc func(ctx context.Context, p Payload) SendResult

// Send calls f(ctx, p).
func (f SenderFunc) Send(ctx context.Context, p Payload) SendResult {
	return f(ctx, p)
}

// SendStatus classifies the result of a single attempt.
type SendStatus int

const (
	// SendTransient is the zero value so that an unclassified result is retried
	// rather than silently dropped.
	SendTransient SendStatus = iota
	SendSuccess
	SendPermanent
)

// SendResult is returned by Sender.Send.
type SendResult struct {
	Status SendStatus
	// ProviderStatus is the HTTP status or provider error code, 0 when unknown.
	ProviderStatus int
	Err            error
}

// Success reports that the provider accepted the message.
func Success(providerStatus int) SendResult {
	return SendResult{Status: SendSuccess, ProviderStatus: providerStatus}
}

// TransientFailure reports a failure that is eligible for retry.
func TransientFailure(err error, providerStatus int) SendResult {
	if err == nil {
		err = errors.New("transient failure")
	}
	return SendResult{Status: SendTransient, ProviderStatus: providerStatus, Err: err}
}

// PermanentFailure reports a failure that must not be retried.
func PermanentFailure(err error, providerStatus int) SendResult {
	if err == nil {
		err = errors.New("permanent failure")
	}
	return SendResult{Status: SendPermanent, ProviderStatus: providerStatus, Err: err}
}

// normalized gives every failure an error and maps unknown statuses to
// transient.
func (r SendResult) normalized() SendResult {
	switch {
	case r.Status == SendSuccess:
		return r
	case r.Status == SendPermanent:
		return PermanentFailure(r.Err, r.ProviderStatus)
	default:
		return TransientFailure(r.Err, r.ProviderStatus)
	}
}

func (r SendResult) outcome() AttemptOutcome {
	switch r.Status {
	case SendSuccess:
		return AttemptSuccess
	case SendPermanent:
		return AttemptPermanentFailure
	default:
		return AttemptTransientFailure
	}
}
