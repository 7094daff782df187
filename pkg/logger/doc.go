// Package logger builds *slog.Logger instances for the dispatcher and
// provides attribute helpers so that request ids, channels and attempt
// numbers are logged under the same keys everywhere.
//
// # Usage
//
//	log := logger.NewFromConfig(cfg,
//	    logger.WithContextValue("trace_id", traceKey{}),
//	)
//	logger.SetAsDefault(log)
//
//	log.LogAttrs(ctx, slog.LevelWarn, "dispatch finished",
//	    logger.RequestID(outcome.RequestID),
//	    logger.Channel(string(outcome.Channel)),
//	    logger.State(string(outcome.State)),
//	    logger.Error(outcome.Err),
//	)
//
// Error, Errors, RequestID, UserID and Channel return an empty slog.Attr for
// zero values, which slog drops, so callers never need a nil check.
package logger
