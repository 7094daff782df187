// Command dispatcher runs the notification dispatch engine behind an HTTP API
// and, when Redis is configured, drains the Redis request queue.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/dispatchkit/modules/notifications"
	"github.com/dmitrymomot/dispatchkit/pkg/channel"
	"github.com/dmitrymomot/dispatchkit/pkg/config"
	"github.com/dmitrymomot/dispatchkit/pkg/dispatch"
	"github.com/dmitrymomot/dispatchkit/pkg/httpserver"
	"github.com/dmitrymomot/dispatchkit/pkg/logger"
	"github.com/dmitrymomot/dispatchkit/pkg/source"
	"github.com/dmitrymomot/dispatchkit/pkg/traceid"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var logCfg logger.Config
	config.MustLoad(&logCfg)
	log := logger.NewFromConfig(logCfg, logger.WithContextExtractors(traceid.LoggerExtractor()))
	logger.SetAsDefault(log)

	if err := run(ctx, log); err != nil {
		log.LogAttrs(context.Background(), slog.LevelError, "dispatcher stopped with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger) error {
	var (
		dispatchCfg dispatch.Config
		channelCfg  channel.Config
		httpCfg     httpserver.Config
	)
	if err := errors.Join(
		config.Load(&dispatchCfg),
		config.Load(&channelCfg),
		config.Load(&httpCfg),
	); err != nil {
		return err
	}

	registry, err := channel.NewRegistry(channelCfg, channel.WithLogger(log))
	if err != nil {
		return err
	}

	b, err := openBackends(ctx, log)
	if err != nil {
		return err
	}
	defer b.close(context.WithoutCancel(ctx))

	engine, err := dispatch.NewFromConfig(dispatchCfg, registry,
		dispatch.WithLogger(log),
		dispatch.WithSink(b.sinks...),
	)
	if err != nil {
		return err
	}

	mod := notifications.New(engine,
		notifications.WithLogger(log),
		notifications.WithLookup(b.lookup),
	)

	r := chi.NewRouter()
	r.Use(traceid.Middleware)
	r.Get("/health/live", httpserver.LivenessHandler())
	r.Get("/health/ready", httpserver.ReadinessHandler(log, httpCfg.ReadinessTimeout, b.checks...))
	mod.Routes(r)

	srv := httpserver.New(
		httpserver.WithAddr(httpCfg.Addr),
		httpserver.WithReadTimeout(httpCfg.ReadTimeout),
		httpserver.WithReadHeaderTimeout(httpCfg.ReadHeaderTimeout),
		httpserver.WithWriteTimeout(httpCfg.WriteTimeout),
		httpserver.WithIdleTimeout(httpCfg.IdleTimeout),
		httpserver.WithShutdownTimeout(httpCfg.ShutdownTimeout),
		httpserver.WithLogger(log),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx, r)
	})
	if b.queue != nil {
		pump, err := source.NewPump(b.queue, engine,
			source.WithConcurrency(engine.MaxConcurrency()),
			source.WithPumpLogger(log),
		)
		if err != nil {
			return err
		}
		g.Go(func() error {
			err := pump.Run(gctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	runErr := g.Wait()

	// The server and pump are down; let in-flight dispatches finish and flush
	// buffered sinks before the backends are closed.
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), httpCfg.ShutdownTimeout)
	defer cancel()
	closeErr := engine.Close(shutdownCtx)
	if closeErr != nil {
		log.LogAttrs(shutdownCtx, slog.LevelWarn, "engine close", logger.Error(closeErr))
	}
	b.flush(shutdownCtx)

	log.LogAttrs(shutdownCtx, slog.LevelInfo, "dispatcher stopped", slog.Any("stats", engine.Stats()))
	return errors.Join(runErr, closeErr)
}
