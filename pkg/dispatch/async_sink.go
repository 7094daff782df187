package dispatch

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/dispatchkit/pkg/logger"
)

// AsyncSinkOptions configures buffering for AsyncSink.
type AsyncSinkOptions struct {
	BufferSize   int           // Results queued in memory before new ones are dropped.
	WriteTimeout time.Duration // Per-write deadline applied to the wrapped sink.
	Logger       *slog.Logger
}

type sinkEntry struct {
	attempt *Attempt
	outcome *Outcome
}

// AsyncSink decouples a slow sink (database, search index, object storage)
// from the dispatch path. Writes are queued and performed by one background
// goroutine; when the buffer is full the result is dropped and counted.
type AsyncSink struct {
	next    Sink
	entries chan sinkEntry
	done    chan struct{}
	closed  atomic.Bool
	dropped atomic.Int64
	wg      sync.WaitGroup
	opts    AsyncSinkOptions
}

// NewAsyncSink starts the background writer. Call Close to drain it.
func NewAsyncSink(next Sink, opts AsyncSinkOptions) *AsyncSink {
	if next == nil {
		panic("dispatch: async sink requires a sink")
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = 1024
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &AsyncSink{
		next:    next,
		entries: make(chan sinkEntry, opts.BufferSize),
		done:    make(chan struct{}),
		opts:    opts,
	}
	s.wg.Add(1)
	go s.worker()
	return s
}

// Record queues the attempt, dropping it when the buffer is full.
func (s *AsyncSink) Record(ctx context.Context, a Attempt) error {
	s.enqueue(ctx, sinkEntry{attempt: &a})
	return nil
}

// Finalize queues the outcome, dropping it when the buffer is full.
func (s *AsyncSink) Finalize(ctx context.Context, o Outcome) error {
	s.enqueue(ctx, sinkEntry{outcome: &o})
	return nil
}

// Dropped returns how many results were discarded because the buffer was full
// or the sink was already closed.
func (s *AsyncSink) Dropped() int64 {
	return s.dropped.Load()
}

func (s *AsyncSink) enqueue(ctx context.Context, e sinkEntry) {
	if s.closed.Load() {
		s.dropped.Add(1)
		return
	}
	select {
	case s.entries <- e:
	default:
		s.dropped.Add(1)
		s.opts.Logger.LogAttrs(ctx, slog.LevelWarn, "result sink buffer full, dropping entry",
			logger.Component("async_sink"),
			slog.Int("buffer_size", s.opts.BufferSize),
		)
	}
}

func (s *AsyncSink) worker() {
	defer s.wg.Done()
	for {
		select {
		case e := <-s.entries:
			s.write(e)
		case <-s.done:
			// Drain what is already buffered.
			for {
				select {
				case e := <-s.entries:
					s.write(e)
				default:
					return
				}
			}
		}
	}
}

func (s *AsyncSink) write(e sinkEntry) {
	// Detached from the dispatch context so a finished request does not cancel its own log write.
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.WriteTimeout)
	defer cancel()

	var err error
	switch {
	case e.attempt != nil:
		err = s.next.Record(ctx, *e.attempt)
	case e.outcome != nil:
		err = s.next.Finalize(ctx, *e.outcome)
	}
	if err != nil {
		s.opts.Logger.LogAttrs(ctx, slog.LevelError, "result sink write failed",
			logger.Component("async_sink"),
			logger.Error(err),
		)
	}
}

// Close stops accepting entries and waits for buffered ones to be written.
func (s *AsyncSink) Close(ctx context.Context) error {
	if s.closed.Swap(true) {
		return nil
	}
	close(s.done)

	finished := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
