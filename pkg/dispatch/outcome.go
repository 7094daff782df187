package dispatch

import "time"

// AttemptOutcome is the result of one delivery attempt.
type AttemptOutcome string

const (
	AttemptSuccess          AttemptOutcome = "success"
	AttemptTransientFailure AttemptOutcome = "transient_failure"
	AttemptPermanentFailure AttemptOutcome = "permanent_failure"
)

// Attempt records one try to deliver a request. Immutable once recorded.
type Attempt struct {
	RequestID      string         `json:"request_id"`
	Channel        Channel        `json:"channel"`
	Number         int            `json:"number"`
	StartedAt      time.Time      `json:"started_at"`
	Duration       time.Duration  `json:"duration"`
	Outcome        AttemptOutcome `json:"outcome"`
	ProviderStatus int            `json:"provider_status,omitempty"`
	Reason         string         `json:"reason,omitempty"`
}

// State is the terminal state of a dispatch.
type State string

const (
	StateDelivered State = "delivered"
	StateFailed    State = "failed"
	StateRejected  State = "rejected"
)

// Outcome is the single terminal result of a submitted request.
type Outcome struct {
	RequestID   string    `json:"request_id"`
	UserID      string    `json:"user_id,omitempty"`
	Channel     Channel   `json:"channel,omitempty"`
	State       State     `json:"state"`
	Attempts    []Attempt `json:"attempts"`
	Reason      string    `json:"reason,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
	FinishedAt  time.Time `json:"finished_at"`

	// Err wraps one of the package sentinel errors. Nil for delivered outcomes.
	Err error `json:"-"`
}

// Delivered reports whether some attempt succeeded.
func (o Outcome) Delivered() bool {
	return o.State == StateDelivered
}

// LastAttempt returns the most recent attempt, if any.
func (o Outcome) LastAttempt() (Attempt, bool) {
	if len(o.Attempts) == 0 {
		return Attempt{}, false
	}
	return o.Attempts[len(o.Attempts)-1], true
}
