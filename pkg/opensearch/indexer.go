package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/dmitrymomot/dispatchkit/pkg/dispatch"
)

// outcomeMapping keeps ids, states and channels as exact-match keywords.
const outcomeMapping = `{
  "mappings": {
    "properties": {
      "request_id":   {"type": "keyword"},
      "user_id":      {"type": "keyword"},
      "channel":      {"type": "keyword"},
      "state":        {"type": "keyword"},
      "reason":       {"type": "text"},
      "attempts":     {"type": "integer"},
      "last_status":  {"type": "integer"},
      "submitted_at": {"type": "date"},
      "finished_at":  {"type": "date"},
      "duration_ms":  {"type": "long"}
    }
  }
}`

type outcomeDocument struct {
	RequestID   string    `json:"request_id"`
	UserID      string    `json:"user_id,omitempty"`
	Channel     string    `json:"channel,omitempty"`
	State       string    `json:"state"`
	Reason      string    `json:"reason,omitempty"`
	Attempts    int       `json:"attempts"`
	LastStatus  int       `json:"last_status,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
	FinishedAt  time.Time `json:"finished_at"`
	DurationMS  int64     `json:"duration_ms"`
}

// OutcomeIndexer is a dispatch.Sink that indexes every terminal outcome as a
// flat document keyed by request id. Attempts are not indexed individually.
type OutcomeIndexer struct {
	transport opensearchapi.Transport
	index     string
}

// NewOutcomeIndexer accepts any transport; *opensearch.Client is the usual one.
func NewOutcomeIndexer(transport opensearchapi.Transport, index string) (*OutcomeIndexer, error) {
	if transport == nil {
		return nil, ErrNilTransport
	}
	if strings.TrimSpace(index) == "" {
		return nil, ErrEmptyIndex
	}
	return &OutcomeIndexer{transport: transport, index: index}, nil
}

// EnsureIndex creates the outcome index with its mapping unless it exists.
func (x *OutcomeIndexer) EnsureIndex(ctx context.Context) error {
	exists, err := opensearchapi.IndicesExistsRequest{Index: []string{x.index}}.Do(ctx, x.transport)
	if err != nil {
		return errors.Join(ErrCreateIndex, err)
	}
	drain(exists)
	if exists.StatusCode == http.StatusOK {
		return nil
	}

	res, err := opensearchapi.IndicesCreateRequest{
		Index: x.index,
		Body:  strings.NewReader(outcomeMapping),
	}.Do(ctx, x.transport)
	if err != nil {
		return errors.Join(ErrCreateIndex, err)
	}
	defer drain(res)
	if res.IsError() {
		return errors.Join(ErrCreateIndex, fmt.Errorf("cluster responded %s", res.Status()))
	}
	return nil
}

// Record is a no-op; only terminal outcomes are indexed.
func (x *OutcomeIndexer) Record(context.Context, dispatch.Attempt) error {
	return nil
}

func (x *OutcomeIndexer) Finalize(ctx context.Context, o dispatch.Outcome) error {
	doc := outcomeDocument{
		RequestID:   o.RequestID,
		UserID:      o.UserID,
		Channel:     string(o.Channel),
		State:       string(o.State),
		Reason:      o.Reason,
		Attempts:    len(o.Attempts),
		SubmittedAt: o.SubmittedAt,
		FinishedAt:  o.FinishedAt,
		DurationMS:  o.FinishedAt.Sub(o.SubmittedAt).Milliseconds(),
	}
	if last, ok := o.LastAttempt(); ok {
		doc.LastStatus = last.ProviderStatus
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return errors.Join(ErrIndexFailed, err)
	}

	res, err := opensearchapi.IndexRequest{
		Index:      x.index,
		DocumentID: o.RequestID,
		Body:       bytes.NewReader(body),
	}.Do(ctx, x.transport)
	if err != nil {
		return errors.Join(ErrIndexFailed, err)
	}
	defer drain(res)
	if res.IsError() {
		return errors.Join(ErrIndexFailed, fmt.Errorf("cluster responded %s", res.Status()))
	}
	return nil
}

func drain(res *opensearchapi.Response) {
	if res == nil || res.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, res.Body)
	_ = res.Body.Close()
}

var _ dispatch.Sink = (*OutcomeIndexer)(nil)
