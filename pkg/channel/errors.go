package channel

import "errors"

// Provider errors carried inside dispatch.SendResult.Err. The sender decides
// transient versus permanent; these identify the cause.
var (
	ErrMissingConfig    = errors.New("channel: provider is not configured")
	ErrProviderRejected = errors.New("channel: provider rejected the request")
	ErrTemporaryFailure = errors.New("channel: temporary provider failure")
	ErrTimeout          = errors.New("channel: provider request timed out")
	ErrCircuitOpen      = errors.New("channel: provider circuit breaker is open")
)

// Signature errors.
var (
	ErrInvalidSignature = errors.New("channel: invalid request signature")
	ErrEmptyBody        = errors.New("channel: request body is empty")
)

// IsCircuitOpen reports whether err was caused by an open circuit breaker.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, ErrCircuitOpen)
}
