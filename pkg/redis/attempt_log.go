package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/dispatchkit/pkg/dispatch"
)

// ErrNotFound is returned when no outcome is stored for a request id.
var ErrNotFound = errors.New("dispatch record not found")

// AttemptLog is a dispatch.Sink that keeps an append-only JSON list of
// attempts per request, the terminal outcome per request, and a capped stream
// of all outcomes for consumers that tail results.
//
// Keys, with the default prefix:
//
//	dispatch:attempts:<request id>  list of attempt JSON
//	dispatch:outcome:<request id>   outcome JSON
//	dispatch:outcomes               stream of outcome summaries
type AttemptLog struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	maxLen int64
}

func NewAttemptLog(client redis.UniversalClient, cfg Config) (*AttemptLog, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "dispatch"
	}
	return &AttemptLog{
		client: client,
		prefix: prefix,
		ttl:    cfg.AttemptTTL,
		maxLen: cfg.StreamMaxLen,
	}, nil
}

func (l *AttemptLog) Record(ctx context.Context, a dispatch.Attempt) error {
	data, err := json.Marshal(a)
	if err != nil {
		return errors.Join(ErrEncodeFailed, err)
	}

	key := l.attemptsKey(a.RequestID)
	_, err = l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, data)
		if l.ttl > 0 {
			pipe.Expire(ctx, key, l.ttl)
		}
		return nil
	})
	if err != nil {
		return errors.Join(ErrWriteFailed, err)
	}
	return nil
}

func (l *AttemptLog) Finalize(ctx context.Context, o dispatch.Outcome) error {
	data, err := json.Marshal(o)
	if err != nil {
		return errors.Join(ErrEncodeFailed, err)
	}

	_, err = l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, l.outcomeKey(o.RequestID), data, l.ttl)
		pipe.XAdd(ctx, &redis.XAddArgs{
			Stream: l.streamKey(),
			MaxLen: l.maxLen,
			Approx: l.maxLen > 0,
			Values: streamValues(o),
		})
		return nil
	})
	if err != nil {
		return errors.Join(ErrWriteFailed, err)
	}
	return nil
}

// Attempts returns the recorded attempts for a request in order.
func (l *AttemptLog) Attempts(ctx context.Context, requestID string) ([]dispatch.Attempt, error) {
	raw, err := l.client.LRange(ctx, l.attemptsKey(requestID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	out := make([]dispatch.Attempt, 0, len(raw))
	for _, item := range raw {
		var a dispatch.Attempt
		if err := json.Unmarshal([]byte(item), &a); err != nil {
			return nil, fmt.Errorf("decode attempt: %w", err)
		}
		out = append(out, a)
	}
	return out, nil
}

// Outcome returns the stored outcome for a request. Outcome.Err is not
// persisted; Reason carries its text.
func (l *AttemptLog) Outcome(ctx context.Context, requestID string) (dispatch.Outcome, error) {
	raw, err := l.client.Get(ctx, l.outcomeKey(requestID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return dispatch.Outcome{}, ErrNotFound
	}
	if err != nil {
		return dispatch.Outcome{}, err
	}

	var o dispatch.Outcome
	if err := json.Unmarshal(raw, &o); err != nil {
		return dispatch.Outcome{}, fmt.Errorf("decode outcome: %w", err)
	}
	return o, nil
}

func (l *AttemptLog) attemptsKey(id string) string { return l.prefix + ":attempts:" + id }
func (l *AttemptLog) outcomeKey(id string) string  { return l.prefix + ":outcome:" + id }
func (l *AttemptLog) streamKey() string            { return l.prefix + ":outcomes" }

func streamValues(o dispatch.Outcome) map[string]any {
	return map[string]any{
		"request_id":  o.RequestID,
		"channel":     string(o.Channel),
		"state":       string(o.State),
		"attempts":    len(o.Attempts),
		"reason":      o.Reason,
		"finished_at": o.FinishedAt.UTC().Format(time.RFC3339Nano),
	}
}
