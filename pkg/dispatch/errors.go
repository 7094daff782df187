package dispatch

import "errors"

// Domain errors carried by Outcome.Err. Callers classify outcomes with errors.Is;
// the wrapped detail is intended for logs and sinks.
var (
	// Rejected before any attempt.
	ErrValidation        = errors.New("dispatch: invalid request")
	ErrUnknownChannel    = errors.New("dispatch: unknown channel")
	ErrDuplicateInFlight = errors.New("dispatch: request already in flight")
	ErrEngineClosed      = errors.New("dispatch: engine is closed")

	// Failed after one or more attempts.
	ErrPermanentFailure  = errors.New("dispatch: permanent delivery failure")
	ErrAttemptsExhausted = errors.New("dispatch: delivery attempts exhausted")

	// ErrCanceled is used for both rejected (no attempt yet) and failed (mid-flight) outcomes.
	ErrCanceled = errors.New("dispatch: canceled by caller")

	// ErrInvalidConfig is returned from constructors and is the only error allowed to abort startup.
	ErrInvalidConfig = errors.New("dispatch: invalid configuration")

	ErrNilSender = errors.New("dispatch: sender cannot be nil")
)

// ErrAttemptTimeout marks an attempt that exceeded the per-attempt deadline.
// It is always classified as transient.
var ErrAttemptTimeout = errors.New("dispatch: attempt timed out")

// ErrAwaitTimeout is returned by Handle.AwaitWithTimeout when the dispatch has not finished in time.
var ErrAwaitTimeout = errors.New("dispatch: timed out waiting for outcome")
