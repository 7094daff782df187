package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/dispatchkit/pkg/dispatch"
	"github.com/dmitrymomot/dispatchkit/pkg/logger"
)

var ErrOutcomeNotFound = errors.New("no outcome stored for this id")

func (m *Module) submit(w http.ResponseWriter, r *http.Request) {
	req, ok := m.bind(w, r)
	if !ok {
		return
	}
	writeOutcome(w, m.engine.Submit(r.Context(), req))
}

func (m *Module) submitAsync(w http.ResponseWriter, r *http.Request) {
	req, ok := m.bind(w, r)
	if !ok {
		return
	}

	// The dispatch outlives the HTTP request; keep its values, drop its cancellation.
	h := m.engine.SubmitAsync(context.WithoutCancel(r.Context()), req)
	if h.IsComplete() {
		if o := h.Await(); o.State == dispatch.StateRejected {
			writeOutcome(w, o)
			return
		}
	}

	w.Header().Set("Location", "/notifications/"+h.RequestID())
	writeJSON(w, http.StatusAccepted, envelope{Data: acceptedView{ID: h.RequestID(), Status: "accepted"}})
}

func (m *Module) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	o, found, err := m.lookup(r.Context(), id)
	if err != nil {
		m.log.LogAttrs(r.Context(), slog.LevelError, "outcome lookup failed",
			logger.Component("notifications_api"),
			logger.RequestID(id),
			logger.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "lookup_failed", errors.New("outcome lookup failed"))
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "not_found", fmt.Errorf("%w: %s", ErrOutcomeNotFound, id))
		return
	}
	writeStored(w, o)
}

func (m *Module) stats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, envelope{Data: m.engine.Stats()})
}

// bind decodes the request body and fills in a missing id. It writes the
// error response itself and reports false when the body is unusable.
func (m *Module) bind(w http.ResponseWriter, r *http.Request) (dispatch.Request, bool) {
	var body submitRequest
	if err := decodeJSON(r, &body); err != nil {
		m.log.LogAttrs(r.Context(), slog.LevelWarn, "rejected notification body",
			logger.Component("notifications_api"),
			logger.Error(err),
		)
		switch {
		case errors.Is(err, ErrUnsupportedMediaType):
			writeError(w, http.StatusUnsupportedMediaType, "unsupported_media_type", err)
		case errors.Is(err, ErrBodyTooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, "body_too_large", err)
		default:
			writeError(w, http.StatusBadRequest, "invalid_json", err)
		}
		return dispatch.Request{}, false
	}

	req := body.Notification.request()
	if req.ID == "" {
		req.ID = m.newID()
	}
	return req, true
}
