package dispatch_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/dispatchkit/pkg/dispatch"
)

func TestNew_InvalidConfig(t *testing.T) {
	t.Parallel()

	registry := dispatch.MustNewRegistry(map[dispatch.Channel]dispatch.Sender{
		dispatch.ChannelEmail: script(ok()),
	})

	tests := []struct {
		name     string
		registry *dispatch.Registry
		opts     []dispatch.Option
	}{
		{name: "nil registry", registry: nil},
		{name: "zero concurrency", registry: registry, opts: []dispatch.Option{dispatch.WithMaxConcurrency(0)}},
		{name: "zero attempts", registry: registry, opts: []dispatch.Option{dispatch.WithMaxAttempts(0)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			engine, err := dispatch.New(tt.registry, tt.opts...)
			require.Error(t, err)
			assert.ErrorIs(t, err, dispatch.ErrInvalidConfig)
			assert.Nil(t, engine)
		})
	}

	assert.Panics(t, func() { dispatch.MustNew(nil) })
}

func TestSubmit_DeliveredOnFirstAttempt(t *testing.T) {
	t.Parallel()

	sender := script(ok())
	engine, sink := newEngine(t, sender)

	out := engine.Submit(context.Background(), request("req-1", "email"))

	assert.Equal(t, dispatch.StateDelivered, out.State)
	assert.True(t, out.Delivered())
	assert.NoError(t, out.Err)
	assert.Empty(t, out.Reason)
	require.Len(t, out.Attempts, 1)
	assert.Equal(t, 1, out.Attempts[0].Number)
	assert.Equal(t, dispatch.AttemptSuccess, out.Attempts[0].Outcome)
	assert.Equal(t, 200, out.Attempts[0].ProviderStatus)
	assert.Equal(t, dispatch.ChannelEmail, out.Channel)
	assert.False(t, out.FinishedAt.Before(out.SubmittedAt))

	assert.Equal(t, 1, sender.Calls())
	assert.Len(t, sink.Attempts("req-1"), 1)
	recorded, found := sink.Outcome("req-1")
	require.True(t, found)
	assert.Equal(t, dispatch.StateDelivered, recorded.State)
}

func TestSubmit_TransientFailuresExhaustAttempts(t *testing.T) {
	t.Parallel()

	sender := script(transient("provider unavailable"))
	engine, sink := newEngine(t, sender, dispatch.WithMaxAttempts(3))

	out := engine.Submit(context.Background(), request("req-2", "push"))

	assert.Equal(t, dispatch.StateFailed, out.State)
	assert.ErrorIs(t, out.Err, dispatch.ErrAttemptsExhausted)
	assert.Contains(t, out.Reason, "provider unavailable")
	require.Len(t, out.Attempts, 3)
	for i, a := range out.Attempts {
		assert.Equal(t, i+1, a.Number)
		assert.Equal(t, dispatch.AttemptTransientFailure, a.Outcome)
		assert.Equal(t, "provider unavailable", a.Reason)
	}
	assert.Equal(t, 3, sender.Calls())
	assert.Len(t, sink.Attempts("req-2"), 3)
}

func TestSubmit_PermanentFailureStopsImmediately(t *testing.T) {
	t.Parallel()

	sender := script(permanent("invalid recipient"))
	engine, _ := newEngine(t, sender, dispatch.WithMaxAttempts(5))

	req := request("req-3", "sms")
	req.Recipient = "not-a-phone"
	out := engine.Submit(context.Background(), req)

	assert.Equal(t, dispatch.StateFailed, out.State)
	assert.ErrorIs(t, out.Err, dispatch.ErrPermanentFailure)
	assert.Contains(t, out.Reason, "invalid recipient")
	require.Len(t, out.Attempts, 1)
	assert.Equal(t, dispatch.AttemptPermanentFailure, out.Attempts[0].Outcome)
	assert.Equal(t, 400, out.Attempts[0].ProviderStatus)
	assert.Equal(t, 1, sender.Calls())
}

func TestSubmit_RetriesUntilSuccess(t *testing.T) {
	t.Parallel()

	sender := script(transient("timeout"), transient("timeout"), ok())
	engine, _ := newEngine(t, sender, dispatch.WithMaxAttempts(3))

	out := engine.Submit(context.Background(), request("req-4", "email"))

	assert.Equal(t, dispatch.StateDelivered, out.State)
	require.Len(t, out.Attempts, 3)
	assert.Equal(t, dispatch.AttemptTransientFailure, out.Attempts[0].Outcome)
	assert.Equal(t, dispatch.AttemptTransientFailure, out.Attempts[1].Outcome)
	assert.Equal(t, dispatch.AttemptSuccess, out.Attempts[2].Outcome)

	// Every attempt gets the same payload.
	payloads := sender.Payloads()
	require.Len(t, payloads, 3)
	for _, p := range payloads {
		assert.Equal(t, "req-4", p.RequestID)
		assert.Equal(t, dispatch.ChannelEmail, p.Channel)
		assert.Equal(t, "Welcome", p.Title)
		assert.Equal(t, "user@example.com", p.Recipient)
	}
}

func TestSubmit_UnclassifiedResultIsRetried(t *testing.T) {
	t.Parallel()

	sender := script(dispatch.SendResult{}, ok())
	engine, _ := newEngine(t, sender)

	out := engine.Submit(context.Background(), request("req-zero", "email"))

	assert.Equal(t, dispatch.StateDelivered, out.State)
	assert.Len(t, out.Attempts, 2)
}

func TestSubmit_BareFailureResultHasReason(t *testing.T) {
	t.Parallel()

	sender := script(dispatch.SendResult{})
	engine, _ := newEngine(t, sender, dispatch.WithMaxAttempts(2))

	out := engine.Submit(context.Background(), request("req-bare", "email"))

	assert.Equal(t, dispatch.StateFailed, out.State)
	assert.ErrorIs(t, out.Err, dispatch.ErrAttemptsExhausted)
	assert.NotContains(t, out.Reason, "%!")
	require.Len(t, out.Attempts, 2)
	for _, a := range out.Attempts {
		assert.Equal(t, dispatch.AttemptTransientFailure, a.Outcome)
		assert.NotEmpty(t, a.Reason)
	}
}

func TestSubmit_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		req     dispatch.Request
		wantErr error
	}{
		{name: "unknown channel", req: request("rej-1", "fax"), wantErr: dispatch.ErrUnknownChannel},
		{name: "empty channel", req: request("rej-2", ""), wantErr: dispatch.ErrUnknownChannel},
		{name: "missing id", req: request("  ", "email"), wantErr: dispatch.ErrValidation},
		{
			name: "missing title",
			req: dispatch.Request{
				ID: "rej-3", Content: "body", Channel: "email", Recipient: "a@b.c",
			},
			wantErr: dispatch.ErrValidation,
		},
		{
			name: "missing recipient",
			req: dispatch.Request{
				ID: "rej-4", Title: "t", Content: "body", Channel: "sms",
			},
			wantErr: dispatch.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sender := script(ok())
			engine, sink := newEngine(t, sender)

			out := engine.Submit(context.Background(), tt.req)

			assert.Equal(t, dispatch.StateRejected, out.State)
			assert.ErrorIs(t, out.Err, tt.wantErr)
			assert.NotEmpty(t, out.Reason)
			assert.NotNil(t, out.Attempts)
			assert.Empty(t, out.Attempts)
			assert.Equal(t, 0, sender.Calls())
			assert.Empty(t, sink.Attempts(""))
			assert.Len(t, sink.Outcomes(), 1)
		})
	}
}

func TestSubmit_ChannelIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	engine, _ := newEngine(t, script(ok()))

	out := engine.Submit(context.Background(), request("req-case", " EMAIL "))

	assert.Equal(t, dispatch.StateDelivered, out.State)
	assert.Equal(t, dispatch.ChannelEmail, out.Channel)
}

func TestSubmit_UnregisteredChannel(t *testing.T) {
	t.Parallel()

	registry := dispatch.MustNewRegistry(map[dispatch.Channel]dispatch.Sender{
		dispatch.ChannelEmail: script(ok()),
	})
	engine := dispatch.MustNew(registry, dispatch.WithLogger(quietLogger()))

	out := engine.Submit(context.Background(), request("req-push", "push"))

	assert.Equal(t, dispatch.StateRejected, out.State)
	assert.ErrorIs(t, out.Err, dispatch.ErrUnknownChannel)
}

func TestSubmit_DuplicateInFlight(t *testing.T) {
	t.Parallel()

	sender := newGatedSender(ok())
	engine, sink := newEngine(t, sender)
	t.Cleanup(sender.Open)

	first := engine.SubmitAsync(context.Background(), request("dup-1", "email"))
	<-sender.started

	dup := engine.Submit(context.Background(), request("dup-1", "sms"))
	assert.Equal(t, dispatch.StateRejected, dup.State)
	assert.ErrorIs(t, dup.Err, dispatch.ErrDuplicateInFlight)
	assert.Empty(t, dup.Attempts)
	assert.Empty(t, sink.Outcomes(), "duplicate must not be finalized")

	sender.Open()
	out := first.Await()
	assert.Equal(t, dispatch.StateDelivered, out.State)
	assert.Len(t, out.Attempts, 1)

	outcomes := sink.Outcomes()
	require.Len(t, outcomes, 1)
	assert.Equal(t, dispatch.StateDelivered, outcomes[0].State)

	// The id is free again once the first dispatch finished.
	again := engine.Submit(context.Background(), request("dup-1", "email"))
	assert.Equal(t, dispatch.StateDelivered, again.State)
}

func TestSubmit_InvalidRequestWithLiveIDIsDuplicate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		req  dispatch.Request
	}{
		{name: "unknown channel", req: request("live-1", "fax")},
		{name: "missing title", req: dispatch.Request{ID: "live-1", Content: "body", Channel: "email", Recipient: "a@b.c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sender := newGatedSender(ok())
			engine, sink := newEngine(t, sender)
			t.Cleanup(sender.Open)

			live := engine.SubmitAsync(context.Background(), request("live-1", "email"))
			<-sender.started

			dup := engine.Submit(context.Background(), tt.req)
			assert.Equal(t, dispatch.StateRejected, dup.State)
			assert.ErrorIs(t, dup.Err, dispatch.ErrDuplicateInFlight)
			_, stored := sink.Outcome("live-1")
			assert.False(t, stored, "live record must stay untouched")

			sender.Open()
			assert.Equal(t, dispatch.StateDelivered, live.Await().State)
			out, stored := sink.Outcome("live-1")
			require.True(t, stored)
			assert.Equal(t, dispatch.StateDelivered, out.State)
			assert.Len(t, out.Attempts, 1)
		})
	}
}

func TestSubmit_ConcurrencyIsBounded(t *testing.T) {
	t.Parallel()

	const (
		limit    = 3
		requests = 20
	)

	var active, peak atomic.Int32
	sender := dispatch.SenderFunc(func(ctx context.Context, p dispatch.Payload) dispatch.SendResult {
		cur := active.Add(1)
		defer active.Add(-1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		return dispatch.Success(200)
	})

	engine, _ := newEngine(t, sender, dispatch.WithMaxConcurrency(limit))

	var wg sync.WaitGroup
	outcomes := make([]dispatch.Outcome, requests)
	for i := range requests {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i] = engine.Submit(context.Background(), request(fmt.Sprintf("load-%d", i), "email"))
		}(i)
	}
	wg.Wait()

	for _, out := range outcomes {
		assert.Equal(t, dispatch.StateDelivered, out.State)
	}
	assert.LessOrEqual(t, int(peak.Load()), limit)

	stats := engine.Stats()
	assert.LessOrEqual(t, stats.PeakSlots, int64(limit))
	assert.Equal(t, int64(0), stats.ActiveSlots)
	assert.Equal(t, 0, stats.Pending)
	assert.Equal(t, int64(requests), stats.Submitted)
	assert.Equal(t, int64(requests), stats.Delivered)
}

func TestSubmit_CanceledBeforeAdmission(t *testing.T) {
	t.Parallel()

	sender := script(ok())
	engine, _ := newEngine(t, sender)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := engine.Submit(ctx, request("cancel-1", "email"))

	assert.Equal(t, dispatch.StateRejected, out.State)
	assert.ErrorIs(t, out.Err, dispatch.ErrCanceled)
	assert.ErrorIs(t, out.Err, context.Canceled)
	assert.Empty(t, out.Attempts)
	assert.Equal(t, 0, sender.Calls())
}

// lateCancelContext is already canceled but reports no error for its first
// quiet calls to Err, so it passes admission and is seen as canceled later.
type lateCancelContext struct {
	context.Context
	quiet int32
	calls atomic.Int32
}

func newLateCancelContext(quiet int32) *lateCancelContext {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return &lateCancelContext{Context: ctx, quiet: quiet}
}

func (c *lateCancelContext) Err() error {
	if c.calls.Add(1) <= c.quiet {
		return nil
	}
	return c.Context.Err()
}

func TestSubmitAsync_CanceledBeforeFirstAttempt(t *testing.T) {
	t.Parallel()

	// quiet=1 is caught before the slot wait; quiet=2 lets the select run
	// with both a free slot and a closed Done channel.
	for _, quiet := range []int32{1, 2} {
		t.Run(fmt.Sprintf("quiet=%d", quiet), func(t *testing.T) {
			t.Parallel()

			sender := script(ok())
			engine, sink := newEngine(t, sender)

			for i := range 100 {
				h := engine.SubmitAsync(newLateCancelContext(quiet), request(fmt.Sprintf("late-%d", i), "email"))
				out := h.Await()

				require.Equal(t, dispatch.StateRejected, out.State)
				assert.ErrorIs(t, out.Err, dispatch.ErrCanceled)
				assert.Empty(t, out.Attempts)
			}

			assert.Equal(t, 0, sender.Calls())
			assert.Empty(t, sink.Attempts("late-0"))
			assert.Equal(t, int64(0), engine.Stats().ActiveSlots)
			assert.Equal(t, int64(0), engine.Stats().PeakSlots)
		})
	}
}

func TestSubmit_CanceledWhileWaitingForSlot(t *testing.T) {
	t.Parallel()

	blocker := newGatedSender(ok())
	engine, _ := newEngine(t, blocker, dispatch.WithMaxConcurrency(1))
	t.Cleanup(blocker.Open)

	first := engine.SubmitAsync(context.Background(), request("slot-1", "email"))
	<-blocker.started

	ctx, cancel := context.WithCancel(context.Background())
	second := engine.SubmitAsync(ctx, request("slot-2", "email"))

	require.Eventually(t, func() bool { return engine.Stats().Pending == 2 }, time.Second, 5*time.Millisecond)
	cancel()

	out := second.Await()
	assert.Equal(t, dispatch.StateRejected, out.State)
	assert.ErrorIs(t, out.Err, dispatch.ErrCanceled)
	assert.Empty(t, out.Attempts)

	blocker.Open()
	assert.Equal(t, dispatch.StateDelivered, first.Await().State)
}

func TestSubmit_CanceledDuringBackoff(t *testing.T) {
	t.Parallel()

	called := make(chan struct{}, 1)
	sender := dispatch.SenderFunc(func(context.Context, dispatch.Payload) dispatch.SendResult {
		called <- struct{}{}
		return transient("busy")
	})
	engine, sink := newEngine(t, sender,
		dispatch.WithMaxAttempts(5),
		dispatch.WithBackoff(dispatch.FixedBackoff{Interval: time.Hour}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	h := engine.SubmitAsync(ctx, request("backoff-1", "email"))
	<-called
	cancel()

	out, err := h.AwaitWithTimeout(time.Second)
	require.NoError(t, err)
	assert.Equal(t, dispatch.StateFailed, out.State)
	assert.ErrorIs(t, out.Err, dispatch.ErrCanceled)
	assert.Len(t, out.Attempts, 1)

	recorded, found := sink.Outcome("backoff-1")
	require.True(t, found)
	assert.Equal(t, dispatch.StateFailed, recorded.State)
}

func TestSubmit_CancellationDoesNotAbortAttempt(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	started := make(chan struct{})
	var sawCanceled atomic.Bool
	sender := dispatch.SenderFunc(func(ctx context.Context, _ dispatch.Payload) dispatch.SendResult {
		close(started)
		<-release
		sawCanceled.Store(errors.Is(ctx.Err(), context.Canceled))
		return dispatch.Success(202)
	})
	engine, _ := newEngine(t, sender)

	ctx, cancel := context.WithCancel(context.Background())
	h := engine.SubmitAsync(ctx, request("inflight-1", "push"))
	<-started
	cancel()
	close(release)

	out := h.Await()
	assert.Equal(t, dispatch.StateDelivered, out.State)
	assert.False(t, sawCanceled.Load())
}

func TestSubmit_AttemptTimeoutIsTransient(t *testing.T) {
	t.Parallel()

	hang := make(chan struct{})
	t.Cleanup(func() { close(hang) })
	sender := dispatch.SenderFunc(func(context.Context, dispatch.Payload) dispatch.SendResult {
		<-hang
		return dispatch.Success(200)
	})
	engine, _ := newEngine(t, sender,
		dispatch.WithAttemptTimeout(20*time.Millisecond),
		dispatch.WithMaxAttempts(2),
	)

	out := engine.Submit(context.Background(), request("slow-1", "email"))

	assert.Equal(t, dispatch.StateFailed, out.State)
	assert.ErrorIs(t, out.Err, dispatch.ErrAttemptsExhausted)
	assert.ErrorIs(t, out.Err, dispatch.ErrAttemptTimeout)
	require.Len(t, out.Attempts, 2)
	for _, a := range out.Attempts {
		assert.Equal(t, dispatch.AttemptTransientFailure, a.Outcome)
	}
}

func TestSubmit_SenderPanicIsPermanent(t *testing.T) {
	t.Parallel()

	sender := dispatch.SenderFunc(func(context.Context, dispatch.Payload) dispatch.SendResult {
		panic("boom")
	})
	engine, _ := newEngine(t, sender, dispatch.WithMaxAttempts(3))

	out := engine.Submit(context.Background(), request("panic-1", "email"))

	assert.Equal(t, dispatch.StateFailed, out.State)
	assert.ErrorIs(t, out.Err, dispatch.ErrPermanentFailure)
	assert.Contains(t, out.Reason, "boom")
	assert.Len(t, out.Attempts, 1)
}

type failingSink struct {
	panics bool
	calls  atomic.Int32
}

func (s *failingSink) Record(context.Context, dispatch.Attempt) error {
	s.calls.Add(1)
	if s.panics {
		panic("sink exploded")
	}
	return errors.New("sink unavailable")
}

func (s *failingSink) Finalize(context.Context, dispatch.Outcome) error {
	s.calls.Add(1)
	if s.panics {
		panic("sink exploded")
	}
	return errors.New("sink unavailable")
}

func TestSubmit_SinkFailuresDoNotAffectOutcome(t *testing.T) {
	t.Parallel()

	for _, panics := range []bool{false, true} {
		t.Run(fmt.Sprintf("panics=%v", panics), func(t *testing.T) {
			t.Parallel()

			bad := &failingSink{panics: panics}
			memory := dispatch.NewMemorySink()
			engine, _ := newEngine(t, script(transient("once"), ok()), dispatch.WithSink(bad, memory))

			out := engine.Submit(context.Background(), request("sink-1", "email"))

			assert.Equal(t, dispatch.StateDelivered, out.State)
			assert.Len(t, out.Attempts, 2)
			assert.Equal(t, int32(3), bad.calls.Load())
			if !panics {
				// MultiSink still reaches sinks after a failing one.
				assert.Len(t, memory.Attempts("sink-1"), 2)
				_, found := memory.Outcome("sink-1")
				assert.True(t, found)
			}
		})
	}
}

func TestEngine_Close(t *testing.T) {
	t.Parallel()

	sender := newGatedSender(ok())
	engine, _ := newEngine(t, sender)
	t.Cleanup(sender.Open)

	h := engine.SubmitAsync(context.Background(), request("close-1", "email"))
	<-sender.started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, engine.Close(ctx), context.DeadlineExceeded)

	out := engine.Submit(context.Background(), request("close-2", "email"))
	assert.Equal(t, dispatch.StateRejected, out.State)
	assert.ErrorIs(t, out.Err, dispatch.ErrEngineClosed)

	sender.Open()
	assert.Equal(t, dispatch.StateDelivered, h.Await().State)
	assert.NoError(t, engine.Close(context.Background()))
	assert.NoError(t, engine.Close(context.Background()))
}

func TestHandle(t *testing.T) {
	t.Parallel()

	sender := newGatedSender(ok())
	engine, _ := newEngine(t, sender)
	t.Cleanup(sender.Open)

	h := engine.SubmitAsync(context.Background(), request("handle-1", "email"))
	assert.Equal(t, "handle-1", h.RequestID())
	assert.False(t, h.IsComplete())

	_, err := h.AwaitWithTimeout(10 * time.Millisecond)
	assert.ErrorIs(t, err, dispatch.ErrAwaitTimeout)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = h.AwaitContext(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	sender.Open()
	<-h.Done()
	assert.True(t, h.IsComplete())

	out, err := h.AwaitContext(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dispatch.StateDelivered, out.State)
}

func TestSubmitAsync_RejectionIsImmediate(t *testing.T) {
	t.Parallel()

	engine, _ := newEngine(t, script(ok()))

	h := engine.SubmitAsync(context.Background(), request("async-fax", "fax"))

	assert.True(t, h.IsComplete())
	out := h.Await()
	assert.Equal(t, dispatch.StateRejected, out.State)
	assert.ErrorIs(t, out.Err, dispatch.ErrUnknownChannel)
}

func TestEngine_Stats(t *testing.T) {
	t.Parallel()

	engine, _ := newEngine(t, script(ok()), dispatch.WithMaxConcurrency(4))

	engine.Submit(context.Background(), request("s-1", "email"))
	engine.Submit(context.Background(), request("s-2", "fax"))

	stats := engine.Stats()
	assert.Equal(t, 4, stats.MaxConcurrency)
	assert.Equal(t, 4, engine.MaxConcurrency())
	assert.Equal(t, int64(2), stats.Submitted)
	assert.Equal(t, int64(1), stats.Delivered)
	assert.Equal(t, int64(1), stats.Rejected)
	assert.Equal(t, int64(0), stats.Failed)
	assert.Equal(t, int64(1), stats.PeakSlots)
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	registry := dispatch.MustNewRegistry(map[dispatch.Channel]dispatch.Sender{
		dispatch.ChannelEmail: script(transient("down")),
	})
	cfg := dispatch.DefaultConfig()
	cfg.MaxConcurrency = 2
	cfg.MaxAttempts = 4
	cfg.BackoffBase = time.Millisecond
	cfg.BackoffCap = time.Millisecond

	engine, err := dispatch.NewFromConfig(cfg, registry, dispatch.WithLogger(quietLogger()))
	require.NoError(t, err)
	assert.Equal(t, 2, engine.MaxConcurrency())
	assert.Same(t, registry, engine.Registry())

	out := engine.Submit(context.Background(), request("cfg-1", "email"))
	assert.Len(t, out.Attempts, 4)

	cfg.MaxAttempts = 0
	_, err = dispatch.NewFromConfig(cfg, registry)
	assert.ErrorIs(t, err, dispatch.ErrInvalidConfig)
}
