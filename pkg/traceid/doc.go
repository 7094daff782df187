// Package traceid correlates inbound HTTP calls with the dispatches and log
// records they produce.
//
// Middleware assigns every request a trace id, taken from the X-Trace-ID
// header when the caller sends a valid one. The id travels in the request
// context, so an asynchronous dispatch started from the request keeps it, and
// LoggerExtractor stamps it on every log record:
//
//	log := logger.New(logger.WithContextExtractors(traceid.LoggerExtractor()))
//	r.Use(traceid.Middleware)
//
// The trace id is separate from the notification request id, which callers
// choose and which drives duplicate suppression.
package traceid
