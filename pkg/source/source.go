package source

import (
	"context"

	"github.com/dmitrymomot/dispatchkit/pkg/dispatch"
)

// Source yields dispatch requests one at a time. Next blocks until a request
// is available, the source is exhausted (ErrSourceClosed) or ctx ends.
type Source interface {
	Next(ctx context.Context) (dispatch.Request, error)
}

// Submitter runs a request to completion. *dispatch.Engine implements it.
type Submitter interface {
	Submit(ctx context.Context, req dispatch.Request) dispatch.Outcome
}

// ChanSource reads requests from a Go channel. Closing the channel closes the source.
type ChanSource struct {
	ch <-chan dispatch.Request
}

func NewChanSource(ch <-chan dispatch.Request) *ChanSource {
	return &ChanSource{ch: ch}
}

func (s *ChanSource) Next(ctx context.Context) (dispatch.Request, error) {
	select {
	case req, ok := <-s.ch:
		if !ok {
			return dispatch.Request{}, ErrSourceClosed
		}
		return req, nil
	case <-ctx.Done():
		return dispatch.Request{}, ctx.Err()
	}
}

// SliceSource yields a fixed list of requests and then closes.
// Not safe for concurrent use.
type SliceSource struct {
	reqs []dispatch.Request
	pos  int
}

func NewSliceSource(reqs ...dispatch.Request) *SliceSource {
	return &SliceSource{reqs: reqs}
}

func (s *SliceSource) Next(ctx context.Context) (dispatch.Request, error) {
	if err := ctx.Err(); err != nil {
		return dispatch.Request{}, err
	}
	if s.pos >= len(s.reqs) {
		return dispatch.Request{}, ErrSourceClosed
	}
	req := s.reqs[s.pos]
	s.pos++
	return req, nil
}
