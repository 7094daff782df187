package dispatch

import (
	"context"
	"time"
)

// Handle is the future returned by SubmitAsync.
type Handle struct {
	requestID string
	outcome   Outcome
	done      chan struct{}
}

func newHandle(requestID string) *Handle {
	return &Handle{requestID: requestID, done: make(chan struct{})}
}

// complete is called exactly once by the engine.
func (h *Handle) complete(o Outcome) {
	h.outcome = o
	close(h.done)
}

// RequestID returns the id of the submitted request.
func (h *Handle) RequestID() string {
	return h.requestID
}

// Done is closed when the outcome is available.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Await blocks until the dispatch finishes.
func (h *Handle) Await() Outcome {
	<-h.done
	return h.outcome
}

// AwaitContext waits for the outcome or for ctx to end. Giving up does not
// cancel the dispatch; cancel the context passed to SubmitAsync for that.
func (h *Handle) AwaitContext(ctx context.Context) (Outcome, error) {
	select {
	case <-h.done:
		return h.outcome, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

// AwaitWithTimeout waits up to timeout for the outcome.
func (h *Handle) AwaitWithTimeout(timeout time.Duration) (Outcome, error) {
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-h.done:
		return h.outcome, nil
	case <-t.C:
		return Outcome{}, ErrAwaitTimeout
	}
}

// IsComplete reports whether the outcome is available without blocking.
func (h *Handle) IsComplete() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}
