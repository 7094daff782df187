// Package dispatch delivers notification requests to channel senders.
//
// The Engine accepts a Request, validates it, resolves its channel through a
// Registry, and runs delivery attempts against the resolved Sender. Every
// dispatch holds one slot of a bounded pool for its whole lifetime, so a
// saturated engine throttles its callers instead of growing unbounded work.
// Transient failures are retried with backoff up to the configured number of
// attempts; permanent failures are never retried.
//
// # Basic Usage
//
//	registry := dispatch.MustNewRegistry(map[dispatch.Channel]dispatch.Sender{
//	    dispatch.ChannelEmail: emailSender,
//	    dispatch.ChannelSMS:   smsSender,
//	    dispatch.ChannelPush:  pushSender,
//	})
//
//	engine, err := dispatch.New(registry,
//	    dispatch.WithMaxConcurrency(10),
//	    dispatch.WithMaxAttempts(3),
//	    dispatch.WithSink(dispatch.NewLogSink(log)),
//	)
//	if err != nil {
//	    // invalid configuration, abort startup
//	}
//
//	outcome := engine.Submit(ctx, dispatch.Request{
//	    ID:        "ntf_123",
//	    Title:     "Welcome",
//	    Content:   "Thanks for joining",
//	    Channel:   "email",
//	    Recipient: "user@example.com",
//	})
//
//	switch {
//	case outcome.Delivered():
//	case errors.Is(outcome.Err, dispatch.ErrDuplicateInFlight):
//	    // caller error, the first dispatch is unaffected
//	case errors.Is(outcome.Err, dispatch.ErrAttemptsExhausted):
//	    // outcome.Attempts holds the full history
//	}
//
// # Outcomes
//
// Submit always returns exactly one Outcome:
//
//   - StateDelivered: some attempt succeeded.
//   - StateFailed: a permanent failure, all attempts exhausted, or the caller
//     canceled between attempts.
//   - StateRejected: validation failed, the channel is unknown, the request id
//     is already in flight, the engine is closed, or the caller canceled
//     before the first attempt.
//
// # Result Sinks
//
// Each attempt is passed to Sink.Record before the engine proceeds, and each
// outcome to Sink.Finalize. Sink errors are logged and never affect delivery.
// Wrap slow sinks with NewAsyncSink.
package dispatch
