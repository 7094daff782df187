package source

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/dispatchkit/pkg/dispatch"
	"github.com/dmitrymomot/dispatchkit/pkg/logger"
)

// PumpOption configures a Pump.
type PumpOption func(*pumpOptions)

type pumpOptions struct {
	concurrency int
	errorDelay  time.Duration
	onOutcome   func(dispatch.Outcome)
	logger      *slog.Logger
}

// WithConcurrency caps concurrent submissions. Match it to the engine's
// MaxConcurrency so the source is not read faster than slots free up.
func WithConcurrency(n int) PumpOption {
	return func(o *pumpOptions) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithErrorDelay sets the pause after a source error before Next is retried.
func WithErrorDelay(d time.Duration) PumpOption {
	return func(o *pumpOptions) {
		if d > 0 {
			o.errorDelay = d
		}
	}
}

// WithOutcomeHandler is called with every outcome the pump receives.
func WithOutcomeHandler(fn func(dispatch.Outcome)) PumpOption {
	return func(o *pumpOptions) { o.onOutcome = fn }
}

func WithPumpLogger(l *slog.Logger) PumpOption {
	return func(o *pumpOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// Pump drains a Source into a Submitter. At most `concurrency` submissions
// run at once; when all are busy the pump stops reading from the source.
type Pump struct {
	src  Source
	sub  Submitter
	opts pumpOptions

	received atomic.Int64
	skipped  atomic.Int64
}

func NewPump(src Source, sub Submitter, opts ...PumpOption) (*Pump, error) {
	if src == nil {
		return nil, ErrNilSource
	}
	if sub == nil {
		return nil, ErrNilSubmitter
	}

	o := pumpOptions{
		concurrency: 10,
		errorDelay:  time.Second,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Pump{src: src, sub: sub, opts: o}, nil
}

// Run reads until the source closes or ctx ends, then waits for the
// submissions it started. It returns nil when the source was exhausted and
// ctx.Err() when it was stopped.
func (p *Pump) Run(ctx context.Context) error {
	var g errgroup.Group
	g.SetLimit(p.opts.concurrency)

	log := p.opts.logger.With(logger.Component("pump"))
	log.LogAttrs(ctx, slog.LevelInfo, "pump started", slog.Int("concurrency", p.opts.concurrency))

	var runErr error
	for {
		req, err := p.src.Next(ctx)
		if err != nil {
			if errors.Is(err, ErrSourceClosed) {
				break
			}
			if ctx.Err() != nil {
				runErr = ctx.Err()
				break
			}
			if errors.Is(err, ErrMalformedRequest) {
				p.skipped.Add(1)
				log.LogAttrs(ctx, slog.LevelWarn, "skipping malformed request", logger.Error(err))
				continue
			}

			log.LogAttrs(ctx, slog.LevelError, "source read failed", logger.Error(err))
			if werr := sleep(ctx, p.opts.errorDelay); werr != nil {
				runErr = werr
				break
			}
			continue
		}

		p.received.Add(1)
		// Blocks while all submission slots are busy.
		g.Go(func() error {
			out := p.sub.Submit(ctx, req)
			if p.opts.onOutcome != nil {
				p.opts.onOutcome(out)
			}
			return nil
		})
	}

	_ = g.Wait()
	log.LogAttrs(context.WithoutCancel(ctx), slog.LevelInfo, "pump stopped",
		slog.Int64("received", p.received.Load()),
		slog.Int64("skipped", p.skipped.Load()),
	)
	return runErr
}

// Received returns how many requests were read and submitted.
func (p *Pump) Received() int64 {
	return p.received.Load()
}

// Skipped returns how many malformed messages were dropped.
func (p *Pump) Skipped() int64 {
	return p.skipped.Load()
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
