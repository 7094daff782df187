package opensearch_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/dispatchkit/pkg/dispatch"
	"github.com/dmitrymomot/dispatchkit/pkg/opensearch"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
}

// fakeTransport answers every request with a fixed status and records it.
type fakeTransport struct {
	mu       sync.Mutex
	status   map[string]int
	err      error
	requests []recordedRequest
}

func (f *fakeTransport) Perform(req *http.Request) (*http.Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	var body string
	if req.Body != nil {
		b, _ := io.ReadAll(req.Body)
		body = string(b)
	}

	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{Method: req.Method, Path: req.URL.Path, Body: body})
	status := http.StatusOK
	if s, ok := f.status[req.Method]; ok {
		status = s
	}
	f.mu.Unlock()

	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(`{}`)),
	}, nil
}

func (f *fakeTransport) Requests() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func TestNewOutcomeIndexer(t *testing.T) {
	t.Parallel()

	_, err := opensearch.NewOutcomeIndexer(nil, "outcomes")
	assert.ErrorIs(t, err, opensearch.ErrNilTransport)

	_, err = opensearch.NewOutcomeIndexer(&fakeTransport{}, "  ")
	assert.ErrorIs(t, err, opensearch.ErrEmptyIndex)
}

func TestOutcomeIndexer_Finalize(t *testing.T) {
	t.Parallel()

	tr := &fakeTransport{status: map[string]int{http.MethodPut: http.StatusCreated}}
	idx, err := opensearch.NewOutcomeIndexer(tr, "dispatch-outcomes")
	require.NoError(t, err)

	submitted := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	err = idx.Finalize(context.Background(), dispatch.Outcome{
		RequestID: "req-1",
		UserID:    "user-1",
		Channel:   dispatch.ChannelSMS,
		State:     dispatch.StateFailed,
		Reason:    "number blocked",
		Attempts: []dispatch.Attempt{
			{Number: 1, Outcome: dispatch.AttemptTransientFailure, ProviderStatus: 503},
			{Number: 2, Outcome: dispatch.AttemptPermanentFailure, ProviderStatus: 422},
		},
		SubmittedAt: submitted,
		FinishedAt:  submitted.Add(1500 * time.Millisecond),
	})
	require.NoError(t, err)

	reqs := tr.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPut, reqs[0].Method)
	assert.Equal(t, "/dispatch-outcomes/_doc/req-1", reqs[0].Path)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(reqs[0].Body), &doc))
	assert.Equal(t, "failed", doc["state"])
	assert.Equal(t, "sms", doc["channel"])
	assert.EqualValues(t, 2, doc["attempts"])
	assert.EqualValues(t, 422, doc["last_status"])
	assert.EqualValues(t, 1500, doc["duration_ms"])
}

func TestOutcomeIndexer_FinalizeErrors(t *testing.T) {
	t.Parallel()

	t.Run("cluster error status", func(t *testing.T) {
		t.Parallel()

		tr := &fakeTransport{status: map[string]int{http.MethodPut: http.StatusBadRequest}}
		idx, err := opensearch.NewOutcomeIndexer(tr, "outcomes")
		require.NoError(t, err)

		err = idx.Finalize(context.Background(), dispatch.Outcome{RequestID: "req-2", State: dispatch.StateRejected})
		assert.ErrorIs(t, err, opensearch.ErrIndexFailed)
	})

	t.Run("transport failure", func(t *testing.T) {
		t.Parallel()

		idx, err := opensearch.NewOutcomeIndexer(&fakeTransport{err: errors.New("connection refused")}, "outcomes")
		require.NoError(t, err)

		err = idx.Finalize(context.Background(), dispatch.Outcome{RequestID: "req-3"})
		assert.ErrorIs(t, err, opensearch.ErrIndexFailed)
	})
}

func TestOutcomeIndexer_RecordIsNoop(t *testing.T) {
	t.Parallel()

	tr := &fakeTransport{}
	idx, err := opensearch.NewOutcomeIndexer(tr, "outcomes")
	require.NoError(t, err)

	require.NoError(t, idx.Record(context.Background(), dispatch.Attempt{RequestID: "req-1", Number: 1}))
	assert.Empty(t, tr.Requests())
}

func TestOutcomeIndexer_EnsureIndex(t *testing.T) {
	t.Parallel()

	t.Run("existing index is left alone", func(t *testing.T) {
		t.Parallel()

		tr := &fakeTransport{}
		idx, err := opensearch.NewOutcomeIndexer(tr, "outcomes")
		require.NoError(t, err)

		require.NoError(t, idx.EnsureIndex(context.Background()))
		reqs := tr.Requests()
		require.Len(t, reqs, 1)
		assert.Equal(t, http.MethodHead, reqs[0].Method)
	})

	t.Run("missing index is created with mapping", func(t *testing.T) {
		t.Parallel()

		tr := &fakeTransport{status: map[string]int{http.MethodHead: http.StatusNotFound}}
		idx, err := opensearch.NewOutcomeIndexer(tr, "outcomes")
		require.NoError(t, err)

		require.NoError(t, idx.EnsureIndex(context.Background()))
		reqs := tr.Requests()
		require.Len(t, reqs, 2)
		assert.Equal(t, http.MethodPut, reqs[1].Method)
		assert.Equal(t, "/outcomes", reqs[1].Path)
		assert.Contains(t, reqs[1].Body, `"request_id"`)
	})

	t.Run("create failure", func(t *testing.T) {
		t.Parallel()

		tr := &fakeTransport{status: map[string]int{
			http.MethodHead: http.StatusNotFound,
			http.MethodPut:  http.StatusForbidden,
		}}
		idx, err := opensearch.NewOutcomeIndexer(tr, "outcomes")
		require.NoError(t, err)

		assert.ErrorIs(t, idx.EnsureIndex(context.Background()), opensearch.ErrCreateIndex)
	})
}

func TestNew_NoAddresses(t *testing.T) {
	t.Parallel()

	_, err := opensearch.New(context.Background(), opensearch.Config{})
	assert.ErrorIs(t, err, opensearch.ErrNoAddresses)
}
