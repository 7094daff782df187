package notifications

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/dispatchkit/pkg/dispatch"
	"github.com/dmitrymomot/dispatchkit/pkg/traceid"
)

// Engine is the part of *dispatch.Engine the HTTP module drives.
type Engine interface {
	Submit(ctx context.Context, req dispatch.Request) dispatch.Outcome
	SubmitAsync(ctx context.Context, req dispatch.Request) *dispatch.Handle
	Stats() dispatch.Stats
}

// LookupFunc loads a stored outcome. found is false when nothing is stored
// for the id.
type LookupFunc func(ctx context.Context, requestID string) (outcome dispatch.Outcome, found bool, err error)

// Module exposes the dispatch engine over HTTP.
type Module struct {
	engine Engine
	lookup LookupFunc
	newID  func() string
	log    *slog.Logger
}

// Option configures Module.
type Option func(*Module)

// WithLogger sets the logger. Nil keeps slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(m *Module) {
		if l != nil {
			m.log = l
		}
	}
}

// WithLookup enables GET /notifications/{id}.
func WithLookup(fn LookupFunc) Option {
	return func(m *Module) { m.lookup = fn }
}

// WithIDGenerator replaces the uuid generator used for requests without an id.
func WithIDGenerator(fn func() string) Option {
	return func(m *Module) {
		if fn != nil {
			m.newID = fn
		}
	}
}

// New creates the module. It panics when engine is nil.
func New(engine Engine, opts ...Option) *Module {
	if engine == nil {
		panic("notifications: engine is required")
	}
	m := &Module{
		engine: engine,
		newID:  uuid.NewString,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Routes registers the module endpoints on r:
//
//	POST /notifications        dispatch and wait for the outcome
//	POST /notifications/async  admit and return 202 with the request id
//	GET  /notifications/{id}   stored outcome, when a lookup is configured
//	GET  /stats                engine counters
func (m *Module) Routes(r chi.Router) {
	r.Route("/notifications", func(r chi.Router) {
		r.Post("/", m.submit)
		r.Post("/async", m.submitAsync)
		if m.lookup != nil {
			r.Get("/{id}", m.get)
		}
	})
	r.Get("/stats", m.stats)
}

// Handler returns a router with trace ids and the module routes.
func (m *Module) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(traceid.Middleware)
	m.Routes(r)
	return r
}
