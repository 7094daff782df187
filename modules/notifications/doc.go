// Package notifications exposes the dispatch engine over HTTP.
//
// The module accepts a notification as JSON, hands it to the engine and maps
// the terminal outcome onto an HTTP status:
//
//	delivered                    200
//	failed after retries         502 delivery_failed
//	rejected (validation)        422 validation_error
//	rejected (unknown channel)   422 unknown_channel
//	rejected (duplicate id)      409 duplicate_in_flight
//	engine closed or canceled    503
//
// POST /notifications/async returns 202 as soon as the request is admitted.
// The outcome can then be fetched from GET /notifications/{id} when the module
// is built with WithLookup backed by one of the outcome stores. A stored
// outcome is returned with 200 in any terminal state, and with 202 and state
// "pending" while the dispatch is still running.
//
// Usage:
//
//	mod := notifications.New(engine,
//		notifications.WithLogger(log),
//		notifications.WithLookup(lookup),
//	)
//	r := chi.NewRouter()
//	r.Use(traceid.Middleware)
//	mod.Routes(r)
package notifications
