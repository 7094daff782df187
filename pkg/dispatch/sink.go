package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/dmitrymomot/dispatchkit/pkg/logger"
)

// Sink observes dispatch results. It is purely observational: the engine logs
// and swallows every error a sink returns.
type Sink interface {
	// Record is called once per attempt, before the engine takes its next step.
	Record(ctx context.Context, attempt Attempt) error

	// Finalize is called once per terminal outcome.
	Finalize(ctx context.Context, outcome Outcome) error
}

// NopSink discards everything.
type NopSink struct{}

// Record does nothing.
func (NopSink) Record(context.Context, Attempt) error { return nil }

// Finalize does nothing.
func (NopSink) Finalize(context.Context, Outcome) error { return nil }

// MultiSink fans results out to several sinks. Every sink is called even if
// an earlier one fails; errors are joined.
type MultiSink []Sink

// Record passes the attempt to every sink.
func (m MultiSink) Record(ctx context.Context, attempt Attempt) error {
	var errs []error
	for _, s := range m {
		if err := s.Record(ctx, attempt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Finalize passes the outcome to every sink.
func (m MultiSink) Finalize(ctx context.Context, outcome Outcome) error {
	var errs []error
	for _, s := range m {
		if err := s.Finalize(ctx, outcome); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogSink writes attempts at debug level and outcomes at info/warn level.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a log sink. A nil logger falls back to slog.Default().
func NewLogSink(l *slog.Logger) *LogSink {
	if l == nil {
		l = slog.Default()
	}
	return &LogSink{logger: l}
}

// Record logs the attempt at debug level.
func (s *LogSink) Record(ctx context.Context, a Attempt) error {
	s.logger.LogAttrs(ctx, slog.LevelDebug, "delivery attempt",
		logger.RequestID(a.RequestID),
		logger.Channel(string(a.Channel)),
		logger.Attempt(a.Number),
		slog.String("outcome", string(a.Outcome)),
		slog.Int("provider_status", a.ProviderStatus),
		logger.Duration(a.Duration),
	)
	return nil
}

// Finalize logs the outcome, at warn level unless it was delivered.
func (s *LogSink) Finalize(ctx context.Context, o Outcome) error {
	level := slog.LevelInfo
	if o.State != StateDelivered {
		level = slog.LevelWarn
	}
	s.logger.LogAttrs(ctx, level, "dispatch finished",
		logger.RequestID(o.RequestID),
		logger.Channel(string(o.Channel)),
		logger.State(string(o.State)),
		slog.Int("attempts", len(o.Attempts)),
		logger.Error(o.Err),
	)
	return nil
}

// MemorySink keeps an append-only log of attempts and outcomes in memory.
type MemorySink struct {
	mu       sync.RWMutex
	attempts []Attempt
	outcomes []Outcome
}

// NewMemorySink returns an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Record appends the attempt.
func (m *MemorySink) Record(_ context.Context, a Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts = append(m.attempts, a)
	return nil
}

// Finalize appends the outcome.
func (m *MemorySink) Finalize(_ context.Context, o Outcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o.Attempts = append([]Attempt(nil), o.Attempts...)
	m.outcomes = append(m.outcomes, o)
	return nil
}

// Attempts returns a copy of all recorded attempts, optionally filtered by request id.
func (m *MemorySink) Attempts(requestID string) []Attempt {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Attempt, 0, len(m.attempts))
	for _, a := range m.attempts {
		if requestID == "" || a.RequestID == requestID {
			out = append(out, a)
		}
	}
	return out
}

// Outcomes returns a copy of all finalized outcomes.
func (m *MemorySink) Outcomes() []Outcome {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Outcome, len(m.outcomes))
	copy(out, m.outcomes)
	return out
}

// Outcome returns the last finalized outcome for a request id.
func (m *MemorySink) Outcome(requestID string) (Outcome, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := len(m.outcomes) - 1; i >= 0; i-- {
		if m.outcomes[i].RequestID == requestID {
			return m.outcomes[i], true
		}
	}
	return Outcome{}, false
}
