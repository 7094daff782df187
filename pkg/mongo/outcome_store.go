package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/dispatchkit/pkg/dispatch"
)

// Collection is the subset of *mongo.Collection used by OutcomeStore.
type Collection interface {
	UpdateOne(ctx context.Context, filter, update any, opts ...options.Lister[options.UpdateOneOptions]) (*mongo.UpdateResult, error)
	FindOne(ctx context.Context, filter any, opts ...options.Lister[options.FindOneOptions]) *mongo.SingleResult
}

// statePending marks a document whose dispatch has not finished yet.
const statePending = "pending"

type attemptDocument struct {
	Number         int       `bson:"number"`
	Channel        string    `bson:"channel"`
	Outcome        string    `bson:"outcome"`
	ProviderStatus int       `bson:"provider_status,omitempty"`
	Reason         string    `bson:"reason,omitempty"`
	StartedAt      time.Time `bson:"started_at"`
	DurationMS     int64     `bson:"duration_ms"`
}

type outcomeDocument struct {
	RequestID   string            `bson:"_id"`
	UserID      string            `bson:"user_id,omitempty"`
	Channel     string            `bson:"channel,omitempty"`
	State       string            `bson:"state"`
	Attempts    []attemptDocument `bson:"attempts"`
	Reason      string            `bson:"reason,omitempty"`
	SubmittedAt time.Time         `bson:"submitted_at"`
	FinishedAt  time.Time         `bson:"finished_at"`
	UpdatedAt   time.Time         `bson:"updated_at"`
}

// OutcomeStore is a dispatch.Sink keeping one document per request id. The
// document tracks the latest dispatch of that id: the first attempt resets it,
// later attempts are appended, and Finalize writes the terminal state.
type OutcomeStore struct {
	coll Collection
}

func NewOutcomeStore(coll Collection) (*OutcomeStore, error) {
	if coll == nil {
		return nil, ErrNilCollection
	}
	return &OutcomeStore{coll: coll}, nil
}

func (s *OutcomeStore) Record(ctx context.Context, a dispatch.Attempt) error {
	doc := toAttemptDocument(a)

	var update bson.M
	if a.Number <= 1 {
		update = bson.M{
			"$set": bson.M{
				"channel":    string(a.Channel),
				"state":      statePending,
				"attempts":   []attemptDocument{doc},
				"updated_at": time.Now(),
			},
			"$unset": bson.M{"reason": "", "finished_at": ""},
		}
	} else {
		update = bson.M{
			"$push": bson.M{"attempts": doc},
			"$set":  bson.M{"updated_at": time.Now()},
		}
	}

	if _, err := s.coll.UpdateOne(ctx, bson.M{"_id": a.RequestID}, update, options.UpdateOne().SetUpsert(true)); err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	return nil
}

func (s *OutcomeStore) Finalize(ctx context.Context, o dispatch.Outcome) error {
	attempts := make([]attemptDocument, 0, len(o.Attempts))
	for _, a := range o.Attempts {
		attempts = append(attempts, toAttemptDocument(a))
	}

	update := bson.M{
		"$set": bson.M{
			"user_id":      o.UserID,
			"channel":      string(o.Channel),
			"state":        string(o.State),
			"attempts":     attempts,
			"reason":       o.Reason,
			"submitted_at": o.SubmittedAt,
			"finished_at":  o.FinishedAt,
			"updated_at":   time.Now(),
		},
	}
	if _, err := s.coll.UpdateOne(ctx, bson.M{"_id": o.RequestID}, update, options.UpdateOne().SetUpsert(true)); err != nil {
		return fmt.Errorf("finalize outcome: %w", err)
	}
	return nil
}

// Outcome loads the stored document for a request. A dispatch still in
// progress comes back with an empty State.
func (s *OutcomeStore) Outcome(ctx context.Context, requestID string) (dispatch.Outcome, error) {
	var doc outcomeDocument
	if err := s.coll.FindOne(ctx, bson.M{"_id": requestID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return dispatch.Outcome{}, ErrNotFound
		}
		return dispatch.Outcome{}, fmt.Errorf("find outcome: %w", err)
	}
	return doc.outcome(), nil
}

func toAttemptDocument(a dispatch.Attempt) attemptDocument {
	return attemptDocument{
		Number:         a.Number,
		Channel:        string(a.Channel),
		Outcome:        string(a.Outcome),
		ProviderStatus: a.ProviderStatus,
		Reason:         a.Reason,
		StartedAt:      a.StartedAt,
		DurationMS:     a.Duration.Milliseconds(),
	}
}

func (d outcomeDocument) outcome() dispatch.Outcome {
	o := dispatch.Outcome{
		RequestID:   d.RequestID,
		UserID:      d.UserID,
		Channel:     dispatch.Channel(d.Channel),
		Reason:      d.Reason,
		SubmittedAt: d.SubmittedAt,
		FinishedAt:  d.FinishedAt,
		Attempts:    make([]dispatch.Attempt, 0, len(d.Attempts)),
	}
	if d.State != statePending {
		o.State = dispatch.State(d.State)
	}
	for _, a := range d.Attempts {
		o.Attempts = append(o.Attempts, dispatch.Attempt{
			RequestID:      d.RequestID,
			Channel:        dispatch.Channel(a.Channel),
			Number:         a.Number,
			StartedAt:      a.StartedAt,
			Duration:       time.Duration(a.DurationMS) * time.Millisecond,
			Outcome:        dispatch.AttemptOutcome(a.Outcome),
			ProviderStatus: a.ProviderStatus,
			Reason:         a.Reason,
		})
	}
	return o
}

var _ dispatch.Sink = (*OutcomeStore)(nil)
