package notifications

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrymomot/dispatchkit/pkg/dispatch"
)

// envelope is the body of every JSON response.
type envelope struct {
	Data  any          `json:"data,omitempty"`
	Error *errorDetail `json:"error,omitempty"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type outcomeView struct {
	ID          string        `json:"id"`
	UserID      string        `json:"user_id,omitempty"`
	Channel     string        `json:"channel,omitempty"`
	State       string        `json:"state"`
	Reason      string        `json:"reason,omitempty"`
	Attempts    []attemptView `json:"attempts"`
	SubmittedAt time.Time     `json:"submitted_at"`
	FinishedAt  time.Time     `json:"finished_at"`
	DurationMS  int64         `json:"duration_ms"`
}

type attemptView struct {
	Number         int       `json:"number"`
	Outcome        string    `json:"outcome"`
	ProviderStatus int       `json:"provider_status,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	StartedAt      time.Time `json:"started_at"`
	DurationMS     int64     `json:"duration_ms"`
}

type acceptedView struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func newOutcomeView(o dispatch.Outcome) outcomeView {
	v := outcomeView{
		ID:          o.RequestID,
		UserID:      o.UserID,
		Channel:     string(o.Channel),
		State:       string(o.State),
		Reason:      o.Reason,
		Attempts:    make([]attemptView, 0, len(o.Attempts)),
		SubmittedAt: o.SubmittedAt,
		FinishedAt:  o.FinishedAt,
	}
	if !o.FinishedAt.IsZero() && !o.SubmittedAt.IsZero() {
		v.DurationMS = o.FinishedAt.Sub(o.SubmittedAt).Milliseconds()
	}
	for _, a := range o.Attempts {
		v.Attempts = append(v.Attempts, attemptView{
			Number:         a.Number,
			Outcome:        string(a.Outcome),
			ProviderStatus: a.ProviderStatus,
			Reason:         a.Reason,
			StartedAt:      a.StartedAt,
			DurationMS:     a.Duration.Milliseconds(),
		})
	}
	return v
}

// classify maps an outcome to its HTTP status and, for anything but a
// delivery, an error code.
func classify(o dispatch.Outcome) (int, string) {
	switch o.State {
	case dispatch.StateDelivered:
		return http.StatusOK, ""
	case dispatch.StateFailed:
		if errors.Is(o.Err, dispatch.ErrCanceled) {
			return http.StatusServiceUnavailable, "canceled"
		}
		return http.StatusBadGateway, "delivery_failed"
	}

	switch {
	case errors.Is(o.Err, dispatch.ErrDuplicateInFlight):
		return http.StatusConflict, "duplicate_in_flight"
	case errors.Is(o.Err, dispatch.ErrUnknownChannel):
		return http.StatusUnprocessableEntity, "unknown_channel"
	case errors.Is(o.Err, dispatch.ErrEngineClosed):
		return http.StatusServiceUnavailable, "engine_closed"
	case errors.Is(o.Err, dispatch.ErrCanceled):
		return http.StatusServiceUnavailable, "canceled"
	default:
		return http.StatusUnprocessableEntity, "validation_error"
	}
}

func writeOutcome(w http.ResponseWriter, o dispatch.Outcome) {
	status, code := classify(o)
	body := envelope{Data: newOutcomeView(o)}
	if code != "" {
		body.Error = &errorDetail{Code: code, Message: o.Reason}
	}
	writeJSON(w, status, body)
}

// statePending is reported for a stored dispatch that has no terminal state yet.
const statePending = "pending"

// writeStored answers a lookup with 200 and the stored outcome, or 202 while
// the dispatch has no terminal state. Stores keep the reason text only, so
// the delivery status mapping does not apply here.
func writeStored(w http.ResponseWriter, o dispatch.Outcome) {
	v := newOutcomeView(o)
	if o.State == "" {
		v.State = statePending
		writeJSON(w, http.StatusAccepted, envelope{Data: v})
		return
	}
	writeJSON(w, http.StatusOK, envelope{Data: v})
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	writeJSON(w, status, envelope{Error: &errorDetail{Code: code, Message: err.Error()}})
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
