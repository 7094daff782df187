// Package pg persists dispatch history in PostgreSQL using pgx/v5.
//
// Connect opens a *pgxpool.Pool from Config, retrying with a linearly growing
// delay until the database answers a ping. Migrate applies the embedded goose
// migrations that create the delivery_attempts and dispatch_outcomes tables;
// set Config.MigrationsPath to run migrations from disk instead.
//
// OutcomeStore implements dispatch.Sink. Every attempt becomes a row in
// delivery_attempts and every terminal outcome a row in dispatch_outcomes.
// Rows are never updated.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, slog.Default()); err != nil {
//		return err
//	}
//
//	store, err := pg.NewOutcomeStore(pool)
//	if err != nil {
//		return err
//	}
//	engine, err := dispatch.New(registry, dispatch.WithSink(store))
//
// Healthcheck returns a probe suitable for readiness endpoints.
package pg
