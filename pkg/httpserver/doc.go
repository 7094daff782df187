// Package httpserver runs an http.Handler with graceful shutdown and exposes
// liveness and readiness handlers.
//
// Server binds its listener inside Run, so address errors come back as
// ErrStart before anything is served. Run blocks until its context is
// canceled and then shuts down within the configured timeout. Signal
// handling belongs to the caller, typically through signal.NotifyContext.
//
//	srv := httpserver.NewFromConfig(cfg, httpserver.WithLogger(log))
//	r := chi.NewRouter()
//	r.Get("/health/live", httpserver.LivenessHandler())
//	r.Get("/health/ready", httpserver.ReadinessHandler(log, cfg.ReadinessTimeout,
//		httpserver.Check{Name: "redis", Fn: redis.Healthcheck(client)},
//	))
//	if err := srv.Run(ctx, r); err != nil {
//		return err
//	}
//
// ReadinessHandler answers 503 with per-check results when any dependency
// fails, which load balancers treat as "stop routing here".
package httpserver
