package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dmitrymomot/dispatchkit/pkg/archive"
	"github.com/dmitrymomot/dispatchkit/pkg/config"
	"github.com/dmitrymomot/dispatchkit/pkg/dispatch"
	"github.com/dmitrymomot/dispatchkit/pkg/httpserver"
	"github.com/dmitrymomot/dispatchkit/pkg/logger"
	"github.com/dmitrymomot/dispatchkit/pkg/mongo"
	"github.com/dmitrymomot/dispatchkit/pkg/opensearch"
	"github.com/dmitrymomot/dispatchkit/pkg/pg"
	"github.com/dmitrymomot/dispatchkit/pkg/redis"
)

// outcomeReader is implemented by the stores that can answer outcome lookups.
type outcomeReader interface {
	Outcome(ctx context.Context, requestID string) (dispatch.Outcome, error)
}

// backends holds everything built from the optional storage configuration.
type backends struct {
	sinks   []dispatch.Sink
	async   []*dispatch.AsyncSink
	checks  []httpserver.Check
	queue   *redis.RequestQueue
	readers []storedReader
	closers []func(context.Context) error
	log     *slog.Logger
}

type storedReader struct {
	reader   outcomeReader
	notFound error
}

func openBackends(ctx context.Context, log *slog.Logger) (_ *backends, err error) {
	var (
		redisCfg redis.Config
		pgCfg    pg.Config
		mongoCfg mongo.Config
		osCfg    opensearch.Config
		s3Cfg    archive.S3Config
		localCfg archive.LocalConfig
	)
	if err := errors.Join(
		config.Load(&redisCfg),
		config.Load(&pgCfg),
		config.Load(&mongoCfg),
		config.Load(&osCfg),
		config.Load(&s3Cfg),
		config.Load(&localCfg),
	); err != nil {
		return nil, err
	}

	b := &backends{
		sinks: []dispatch.Sink{dispatch.NewLogSink(log)},
		log:   log.With(logger.Component("backends")),
	}
	defer func() {
		if err != nil {
			b.close(context.WithoutCancel(ctx))
		}
	}()

	if pgCfg.Enabled() {
		pool, err := pg.Connect(ctx, pgCfg)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func(context.Context) error { pool.Close(); return nil })
		if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
			return nil, err
		}
		store, err := pg.NewOutcomeStore(pool)
		if err != nil {
			return nil, err
		}
		b.addSink("postgres", store)
		b.readers = append(b.readers, storedReader{reader: store, notFound: pg.ErrNotFound})
		b.checks = append(b.checks, httpserver.Check{Name: "postgres", Fn: pg.Healthcheck(pool)})
	}

	if mongoCfg.Enabled() {
		client, err := mongo.New(ctx, mongoCfg)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, client.Disconnect)
		store, err := mongo.NewOutcomeStore(client.Database(mongoCfg.Database).Collection(mongoCfg.Collection))
		if err != nil {
			return nil, err
		}
		b.addSink("mongo", store)
		b.readers = append(b.readers, storedReader{reader: store, notFound: mongo.ErrNotFound})
		b.checks = append(b.checks, httpserver.Check{Name: "mongo", Fn: mongo.Healthcheck(client)})
	}

	if redisCfg.Enabled() {
		client, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func(context.Context) error { return client.Close() })
		attempts, err := redis.NewAttemptLog(client, redisCfg)
		if err != nil {
			return nil, err
		}
		b.addSink("redis", attempts)
		b.readers = append(b.readers, storedReader{reader: attempts, notFound: redis.ErrNotFound})
		b.checks = append(b.checks, httpserver.Check{Name: "redis", Fn: redis.Healthcheck(client)})

		if b.queue, err = redis.NewRequestQueue(client, redisCfg); err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func(context.Context) error { b.queue.Close(); return nil })
	}

	if osCfg.Enabled() {
		client, err := opensearch.New(ctx, osCfg)
		if err != nil {
			return nil, err
		}
		indexer, err := opensearch.NewOutcomeIndexer(client, osCfg.Index)
		if err != nil {
			return nil, err
		}
		if err := indexer.EnsureIndex(ctx); err != nil {
			return nil, err
		}
		b.addSink("opensearch", indexer)
		b.checks = append(b.checks, httpserver.Check{Name: "opensearch", Fn: opensearch.Healthcheck(client)})
	}

	if s3Cfg.Enabled() {
		arch, err := archive.NewS3Archive(ctx, s3Cfg)
		if err != nil {
			return nil, err
		}
		b.addSink("s3_archive", arch)
	} else if localCfg.Enabled() {
		arch, err := archive.NewLocalArchive(localCfg)
		if err != nil {
			return nil, err
		}
		b.addSink("local_archive", arch)
	}

	return b, nil
}

// addSink registers s behind an AsyncSink.
func (b *backends) addSink(name string, s dispatch.Sink) {
	as := dispatch.NewAsyncSink(s, dispatch.AsyncSinkOptions{
		Logger: b.log.With(slog.String("sink", name)),
	})
	b.async = append(b.async, as)
	b.sinks = append(b.sinks, as)
	b.log.LogAttrs(context.Background(), slog.LevelInfo, "outcome sink enabled", slog.String("sink", name))
}

// lookup checks the stores in order and returns the first stored outcome.
func (b *backends) lookup(ctx context.Context, requestID string) (dispatch.Outcome, bool, error) {
	for _, r := range b.readers {
		o, err := r.reader.Outcome(ctx, requestID)
		switch {
		case err == nil:
			return o, true, nil
		case errors.Is(err, r.notFound):
			continue
		default:
			return dispatch.Outcome{}, false, err
		}
	}
	return dispatch.Outcome{}, false, nil
}

// flush drains the buffered sinks.
func (b *backends) flush(ctx context.Context) {
	for _, as := range b.async {
		if err := as.Close(ctx); err != nil {
			b.log.LogAttrs(ctx, slog.LevelWarn, "sink flush incomplete",
				logger.Error(err),
				slog.Int64("dropped", as.Dropped()),
			)
		}
	}
}

// close releases backend connections in reverse order of opening.
func (b *backends) close(ctx context.Context) {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](ctx); err != nil {
			b.log.LogAttrs(ctx, slog.LevelWarn, "backend close failed", logger.Error(err))
		}
	}
}
