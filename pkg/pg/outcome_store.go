package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/dispatchkit/pkg/dispatch"
)

// DB is the subset of *pgxpool.Pool used by OutcomeStore.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const (
	insertAttemptSQL = `INSERT INTO delivery_attempts
	(request_id, attempt, channel, outcome, provider_status, reason, started_at, duration_ms)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	insertOutcomeSQL = `INSERT INTO dispatch_outcomes
	(request_id, user_id, channel, state, attempts, reason, submitted_at, finished_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	latestOutcomeSQL = `SELECT request_id, user_id, channel, state, reason, submitted_at, finished_at
	FROM dispatch_outcomes WHERE request_id = $1 ORDER BY finished_at DESC LIMIT 1`

	attemptsSQL = `SELECT request_id, attempt, channel, outcome, provider_status, reason, started_at, duration_ms
	FROM delivery_attempts WHERE request_id = $1 ORDER BY id`

	// Attempts of one dispatch lie between its submission and finish; older
	// dispatches under a reused id fall outside the window.
	dispatchAttemptsSQL = `SELECT request_id, attempt, channel, outcome, provider_status, reason, started_at, duration_ms
	FROM delivery_attempts WHERE request_id = $1 AND started_at >= $2 AND started_at <= $3 ORDER BY id`

	countByStateSQL = `SELECT state, COUNT(*) FROM dispatch_outcomes GROUP BY state`
)

// OutcomeStore is a dispatch.Sink writing to the delivery_attempts and
// dispatch_outcomes tables created by Migrate. Rows are append-only: a
// request id reused after completion gets new rows.
type OutcomeStore struct {
	db DB
}

// NewOutcomeStore returns a store over db, usually a *pgxpool.Pool.
func NewOutcomeStore(db DB) (*OutcomeStore, error) {
	if db == nil {
		return nil, ErrNilDB
	}
	return &OutcomeStore{db: db}, nil
}

// Record appends one attempt row.
func (s *OutcomeStore) Record(ctx context.Context, a dispatch.Attempt) error {
	_, err := s.db.Exec(ctx, insertAttemptSQL,
		a.RequestID,
		a.Number,
		string(a.Channel),
		string(a.Outcome),
		a.ProviderStatus,
		a.Reason,
		a.StartedAt,
		a.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

// Finalize appends one outcome row.
func (s *OutcomeStore) Finalize(ctx context.Context, o dispatch.Outcome) error {
	_, err := s.db.Exec(ctx, insertOutcomeSQL,
		o.RequestID,
		o.UserID,
		string(o.Channel),
		string(o.State),
		len(o.Attempts),
		o.Reason,
		o.SubmittedAt,
		o.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("insert outcome: %w", err)
	}
	return nil
}

// Outcome loads the most recent outcome for a request together with the
// attempts of that dispatch only.
func (s *OutcomeStore) Outcome(ctx context.Context, requestID string) (dispatch.Outcome, error) {
	var (
		o              dispatch.Outcome
		channel, state string
	)
	err := s.db.QueryRow(ctx, latestOutcomeSQL, requestID).
		Scan(&o.RequestID, &o.UserID, &channel, &state, &o.Reason, &o.SubmittedAt, &o.FinishedAt)
	if err != nil {
		if IsNotFoundError(err) {
			return dispatch.Outcome{}, ErrNotFound
		}
		return dispatch.Outcome{}, fmt.Errorf("select outcome: %w", err)
	}
	o.Channel = dispatch.Channel(channel)
	o.State = dispatch.State(state)

	rows, err := s.db.Query(ctx, dispatchAttemptsSQL, requestID, o.SubmittedAt, o.FinishedAt)
	if err != nil {
		return dispatch.Outcome{}, fmt.Errorf("select attempts: %w", err)
	}
	attempts, err := collectAttempts(rows)
	if err != nil {
		return dispatch.Outcome{}, err
	}
	o.Attempts = attempts
	return o, nil
}

// Attempts lists every recorded attempt for a request id in insertion order,
// across all dispatches that used the id.
func (s *OutcomeStore) Attempts(ctx context.Context, requestID string) ([]dispatch.Attempt, error) {
	rows, err := s.db.Query(ctx, attemptsSQL, requestID)
	if err != nil {
		return nil, fmt.Errorf("select attempts: %w", err)
	}
	return collectAttempts(rows)
}

func collectAttempts(rows pgx.Rows) ([]dispatch.Attempt, error) {
	attempts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (dispatch.Attempt, error) {
		var (
			a                dispatch.Attempt
			channel, outcome string
			durationMS       int64
		)
		if err := row.Scan(&a.RequestID, &a.Number, &channel, &outcome, &a.ProviderStatus, &a.Reason, &a.StartedAt, &durationMS); err != nil {
			return a, err
		}
		a.Channel = dispatch.Channel(channel)
		a.Outcome = dispatch.AttemptOutcome(outcome)
		a.Duration = time.Duration(durationMS) * time.Millisecond
		return a, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan attempts: %w", err)
	}
	if attempts == nil {
		attempts = []dispatch.Attempt{}
	}
	return attempts, nil
}

// CountByState returns how many outcomes are stored per terminal state.
func (s *OutcomeStore) CountByState(ctx context.Context) (map[dispatch.State]int64, error) {
	rows, err := s.db.Query(ctx, countByStateSQL)
	if err != nil {
		return nil, fmt.Errorf("count outcomes: %w", err)
	}
	defer rows.Close()

	counts := make(map[dispatch.State]int64)
	for rows.Next() {
		var (
			state string
			n     int64
		)
		if err := rows.Scan(&state, &n); err != nil {
			return nil, fmt.Errorf("count outcomes: %w", err)
		}
		counts[dispatch.State(state)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("count outcomes: %w", err)
	}
	return counts, nil
}

var _ dispatch.Sink = (*OutcomeStore)(nil)
