package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/dispatchkit/pkg/logger"
)

// Engine dispatches notification requests to channel senders with bounded
// concurrency, per-request retry with backoff and duplicate suppression.
// It is safe for concurrent use. Zero value is not usable; use New.
type Engine struct {
	registry *Registry
	opts     *options

	// sem holds one token per dispatch that owns a slot.
	sem chan struct{}

	mu       sync.Mutex
	inflight map[string]struct{}
	closed   bool
	wg       sync.WaitGroup

	stats counters
}

// New creates an engine. Invalid settings return ErrInvalidConfig; this is the
// only failure that is expected to abort process startup.
func New(registry *Registry, opts ...Option) (*Engine, error) {
	if registry == nil {
		return nil, fmt.Errorf("%w: registry is required", ErrInvalidConfig)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	if o.maxConcurrency < 1 {
		return nil, fmt.Errorf("%w: max concurrency must be at least 1, got %d", ErrInvalidConfig, o.maxConcurrency)
	}
	if o.maxAttempts < 1 {
		return nil, fmt.Errorf("%w: max attempts must be at least 1, got %d", ErrInvalidConfig, o.maxAttempts)
	}

	return &Engine{
		registry: registry,
		opts:     o,
		sem:      make(chan struct{}, o.maxConcurrency),
		inflight: make(map[string]struct{}),
	}, nil
}

// MustNew is like New but panics on invalid configuration.
func MustNew(registry *Registry, opts ...Option) *Engine {
	e, err := New(registry, opts...)
	if err != nil {
		panic(err)
	}
	return e
}

// Submit dispatches req and blocks until it reaches a terminal state.
// It never returns without an outcome; domain failures are reported through
// Outcome.State and Outcome.Err.
func (e *Engine) Submit(ctx context.Context, req Request) Outcome {
	submittedAt := e.opts.now()
	e.stats.submitted.Add(1)

	ch, sender, err := e.admit(ctx, req)
	if err != nil {
		return e.reject(ctx, req, ch, submittedAt, err)
	}
	defer e.release(req.ID)

	return e.execute(ctx, req, ch, sender, submittedAt)
}

// SubmitAsync admits req synchronously and runs the dispatch in the
// background. Rejections, including duplicates, are visible on the returned
// handle immediately. The slot wait still applies, so a saturated engine
// accumulates pending handles rather than concurrent sends.
func (e *Engine) SubmitAsync(ctx context.Context, req Request) *Handle {
	submittedAt := e.opts.now()
	e.stats.submitted.Add(1)
	h := newHandle(req.ID)

	ch, sender, err := e.admit(ctx, req)
	if err != nil {
		h.complete(e.reject(ctx, req, ch, submittedAt, err))
		return h
	}

	go func() {
		defer e.release(req.ID)
		h.complete(e.execute(ctx, req, ch, sender, submittedAt))
	}()

	return h
}

// Close stops accepting new requests and waits for in-flight dispatches to
// finish or for ctx to expire. It is safe to call more than once.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// MaxConcurrency returns the slot pool size.
func (e *Engine) MaxConcurrency() int {
	return cap(e.sem)
}

// Registry returns the channel registry used by the engine.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// admit checks the in-flight set, then validates and resolves the request and
// claims its id. A request sharing a live id is a duplicate whatever else is
// wrong with it. On success the caller owns the claim and must call release.
func (e *Engine) admit(ctx context.Context, req Request) (Channel, Sender, error) {
	if err := ctx.Err(); err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrCanceled, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, busy := e.inflight[req.ID]; busy {
		return "", nil, fmt.Errorf("%w: %s", ErrDuplicateInFlight, req.ID)
	}
	if err := req.Validate(); err != nil {
		return "", nil, err
	}
	ch, sender, err := e.registry.Resolve(req.Channel)
	if err != nil {
		return "", nil, err
	}
	if e.closed {
		return ch, nil, ErrEngineClosed
	}
	e.inflight[req.ID] = struct{}{}
	// Added under mu so Close never observes a zero counter while a claim is being made.
	e.wg.Add(1)

	return ch, sender, nil
}

func (e *Engine) release(id string) {
	e.mu.Lock()
	delete(e.inflight, id)
	e.mu.Unlock()
	e.wg.Done()
}

// acquire takes a slot. A context canceled before or while waiting wins over
// a free slot, so no attempt starts for a canceled request.
func (e *Engine) acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	// Both select cases may be ready; the slot is given back if cancellation
	// arrived in the meantime.
	if err := ctx.Err(); err != nil {
		<-e.sem
		return err
	}
	e.stats.slotAcquired()
	return nil
}

func (e *Engine) releaseSlot() {
	e.stats.slotReleased()
	<-e.sem
}

// execute runs the attempt loop for an admitted request.
func (e *Engine) execute(ctx context.Context, req Request, ch Channel, sender Sender, submittedAt time.Time) Outcome {
	if err := e.acquire(ctx); err != nil {
		return e.reject(ctx, req, ch, submittedAt, fmt.Errorf("%w: %w", ErrCanceled, err))
	}
	defer e.releaseSlot()

	payload := PayloadFor(req, ch)
	attempts := make([]Attempt, 0, e.opts.maxAttempts)

	for n := 1; ; n++ {
		res, attempt := e.attempt(ctx, sender, payload, n)
		attempts = append(attempts, attempt)
		e.record(ctx, attempt)

		switch res.Status {
		case SendSuccess:
			return e.finish(ctx, req, ch, submittedAt, StateDelivered, attempts, nil)
		case SendPermanent:
			return e.finish(ctx, req, ch, submittedAt, StateFailed, attempts,
				fmt.Errorf("%w: %w", ErrPermanentFailure, res.Err))
		}

		if n >= e.opts.maxAttempts {
			return e.finish(ctx, req, ch, submittedAt, StateFailed, attempts,
				fmt.Errorf("%w after %d attempts: %w", ErrAttemptsExhausted, n, res.Err))
		}

		delay := e.opts.backoff.NextInterval(n)
		e.opts.logger.LogAttrs(ctx, slog.LevelDebug, "delivery attempt failed, retrying",
			logger.RequestID(req.ID),
			logger.Channel(string(ch)),
			logger.Attempt(n),
			slog.Duration("backoff", delay),
			logger.Error(res.Err),
		)

		if err := wait(ctx, delay); err != nil {
			return e.finish(ctx, req, ch, submittedAt, StateFailed, attempts,
				fmt.Errorf("%w: %w", ErrCanceled, err))
		}
	}
}

// attempt performs one sender call. Caller cancellation does not abort the
// call; only the per-attempt timeout does.
func (e *Engine) attempt(ctx context.Context, sender Sender, p Payload, n int) (SendResult, Attempt) {
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.opts.attemptTimeout)
	defer cancel()

	started := e.opts.now()
	res := e.send(actx, sender, p)
	duration := time.Since(started)

	a := Attempt{
		RequestID:      p.RequestID,
		Channel:        p.Channel,
		Number:         n,
		StartedAt:      started,
		Duration:       duration,
		Outcome:        res.outcome(),
		ProviderStatus: res.ProviderStatus,
	}
	if res.Err != nil {
		a.Reason = res.Err.Error()
	}
	return res, a
}

// send runs the sender in its own goroutine so that a sender ignoring its
// context still cannot hold the slot past the attempt deadline.
func (e *Engine) send(ctx context.Context, sender Sender, p Payload) SendResult {
	result := make(chan SendResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				e.opts.logger.LogAttrs(ctx, slog.LevelError, "sender panicked",
					logger.RequestID(p.RequestID),
					logger.Channel(string(p.Channel)),
					slog.Any("panic", r),
				)
				result <- PermanentFailure(fmt.Errorf("sender panicked: %v", r), 0)
			}
		}()
		result <- sender.Send(ctx, p)
	}()

	select {
	case res := <-result:
		return res.normalized()
	case <-ctx.Done():
		return TransientFailure(fmt.Errorf("%w: %w", ErrAttemptTimeout, ctx.Err()), 0)
	}
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) reject(ctx context.Context, req Request, ch Channel, submittedAt time.Time, err error) Outcome {
	o := Outcome{
		RequestID:   req.ID,
		UserID:      req.UserID,
		Channel:     ch,
		State:       StateRejected,
		Attempts:    []Attempt{},
		Reason:      err.Error(),
		SubmittedAt: submittedAt,
		FinishedAt:  e.opts.now(),
		Err:         err,
	}
	e.stats.rejected.Add(1)

	// A duplicate shares its id with a live dispatch; finalizing it would
	// overwrite the live request's record in keyed sinks.
	if errors.Is(err, ErrDuplicateInFlight) {
		e.opts.logger.LogAttrs(ctx, slog.LevelWarn, "duplicate request rejected",
			logger.RequestID(req.ID),
			logger.Channel(string(ch)),
		)
		return o
	}

	e.finalize(ctx, o)
	return o
}

func (e *Engine) finish(ctx context.Context, req Request, ch Channel, submittedAt time.Time, state State, attempts []Attempt, err error) Outcome {
	o := Outcome{
		RequestID:   req.ID,
		UserID:      req.UserID,
		Channel:     ch,
		State:       state,
		Attempts:    attempts,
		SubmittedAt: submittedAt,
		FinishedAt:  e.opts.now(),
		Err:         err,
	}
	if err != nil {
		o.Reason = err.Error()
	}

	switch state {
	case StateDelivered:
		e.stats.delivered.Add(1)
	default:
		e.stats.failed.Add(1)
	}

	e.finalize(ctx, o)
	return o
}

// record and finalize never let a sink affect the dispatch: errors are
// logged, panics recovered, and caller cancellation is ignored.
func (e *Engine) record(ctx context.Context, a Attempt) {
	e.callSink(ctx, "record", a.RequestID, func(sctx context.Context) error {
		return e.opts.sink.Record(sctx, a)
	})
}

func (e *Engine) finalize(ctx context.Context, o Outcome) {
	e.callSink(ctx, "finalize", o.RequestID, func(sctx context.Context) error {
		return e.opts.sink.Finalize(sctx, o)
	})
}

func (e *Engine) callSink(ctx context.Context, op, requestID string, fn func(context.Context) error) {
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.opts.sinkTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			e.opts.logger.LogAttrs(ctx, slog.LevelError, "result sink panicked",
				logger.RequestID(requestID),
				slog.String("operation", op),
				slog.Any("panic", r),
			)
		}
	}()

	if err := fn(sctx); err != nil {
		e.opts.logger.LogAttrs(ctx, slog.LevelError, "result sink failed",
			logger.RequestID(requestID),
			slog.String("operation", op),
			logger.Error(err),
		)
	}
}
