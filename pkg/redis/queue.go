package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/dispatchkit/pkg/dispatch"
	"github.com/dmitrymomot/dispatchkit/pkg/source"
)

// RequestQueue is a source.Source over a Redis list. Producers RPUSH request
// JSON with Push; Next pops with BLPOP, so every request is handed to exactly
// one consumer. There is no acknowledgement: a popped request belongs to the
// engine even if the process dies before dispatching it.
type RequestQueue struct {
	client      redis.UniversalClient
	key         string
	pollTimeout time.Duration
	closed      atomic.Bool
}

func NewRequestQueue(client redis.UniversalClient, cfg Config) (*RequestQueue, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	key := cfg.QueueKey
	if key == "" {
		key = "dispatch:requests"
	}
	poll := cfg.PollTimeout
	if poll <= 0 {
		poll = 5 * time.Second
	}
	return &RequestQueue{client: client, key: key, pollTimeout: poll}, nil
}

// Push enqueues requests in order. Requests without an id get a new UUID.
func (q *RequestQueue) Push(ctx context.Context, reqs ...dispatch.Request) error {
	if len(reqs) == 0 {
		return nil
	}

	values := make([]any, 0, len(reqs))
	for _, req := range reqs {
		if req.ID == "" {
			req.ID = uuid.NewString()
		}
		data, err := json.Marshal(req)
		if err != nil {
			return errors.Join(ErrEncodeFailed, err)
		}
		values = append(values, data)
	}

	if err := q.client.RPush(ctx, q.key, values...).Err(); err != nil {
		return errors.Join(ErrWriteFailed, err)
	}
	return nil
}

// Next blocks until a request is available. It returns source.ErrSourceClosed
// after Close and wraps source.ErrMalformedRequest for undecodable messages.
func (q *RequestQueue) Next(ctx context.Context) (dispatch.Request, error) {
	for {
		if q.closed.Load() {
			return dispatch.Request{}, source.ErrSourceClosed
		}
		if err := ctx.Err(); err != nil {
			return dispatch.Request{}, err
		}

		res, err := q.client.BLPop(ctx, q.pollTimeout, q.key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return dispatch.Request{}, ctxErr
			}
			return dispatch.Request{}, fmt.Errorf("pop request: %w", err)
		}
		// BLPOP replies with [key, value].
		if len(res) != 2 {
			return dispatch.Request{}, fmt.Errorf("%w: unexpected reply length %d", source.ErrMalformedRequest, len(res))
		}

		var req dispatch.Request
		if err := json.Unmarshal([]byte(res[1]), &req); err != nil {
			return dispatch.Request{}, fmt.Errorf("%w: %w", source.ErrMalformedRequest, err)
		}
		return req, nil
	}
}

// Close makes Next return source.ErrSourceClosed once its current poll ends.
func (q *RequestQueue) Close() {
	q.closed.Store(true)
}

// Len returns the number of queued requests.
func (q *RequestQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}

var _ source.Source = (*RequestQueue)(nil)
var _ dispatch.Sink = (*AttemptLog)(nil)
