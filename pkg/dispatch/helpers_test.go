package dispatch_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/dispatchkit/pkg/dispatch"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// scriptedSender returns the scripted results in order and repeats the last one.
type scriptedSender struct {
	mu       sync.Mutex
	script   []dispatch.SendResult
	calls    atomic.Int32
	payloads []dispatch.Payload
}

func script(results ...dispatch.SendResult) *scriptedSender {
	return &scriptedSender{script: results}
}

func (s *scriptedSender) Send(_ context.Context, p dispatch.Payload) dispatch.SendResult {
	n := int(s.calls.Add(1))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads = append(s.payloads, p)
	if n > len(s.script) {
		return s.script[len(s.script)-1]
	}
	return s.script[n-1]
}

func (s *scriptedSender) Calls() int {
	return int(s.calls.Load())
}

func (s *scriptedSender) Payloads() []dispatch.Payload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]dispatch.Payload(nil), s.payloads...)
}

// gatedSender blocks every call until the gate is opened.
type gatedSender struct {
	gate    chan struct{}
	started chan struct{}
	result  dispatch.SendResult
	once    sync.Once
}

func newGatedSender(result dispatch.SendResult) *gatedSender {
	return &gatedSender{
		gate:    make(chan struct{}),
		started: make(chan struct{}, 64),
		result:  result,
	}
}

func (g *gatedSender) Send(_ context.Context, _ dispatch.Payload) dispatch.SendResult {
	g.started <- struct{}{}
	<-g.gate
	return g.result
}

func (g *gatedSender) Open() {
	g.once.Do(func() { close(g.gate) })
}

func ok() dispatch.SendResult {
	return dispatch.Success(200)
}

func transient(msg string) dispatch.SendResult {
	return dispatch.TransientFailure(errors.New(msg), 503)
}

func permanent(msg string) dispatch.SendResult {
	return dispatch.PermanentFailure(errors.New(msg), 400)
}

func request(id, channel string) dispatch.Request {
	return dispatch.Request{
		ID:        id,
		Title:     "Welcome",
		Content:   "Hello there",
		Channel:   channel,
		Recipient: "user@example.com",
	}
}

// newEngine builds an engine with every channel mapped to sender.
func newEngine(t *testing.T, sender dispatch.Sender, opts ...dispatch.Option) (*dispatch.Engine, *dispatch.MemorySink) {
	t.Helper()

	registry, err := dispatch.NewRegistry(map[dispatch.Channel]dispatch.Sender{
		dispatch.ChannelEmail: sender,
		dispatch.ChannelSMS:   sender,
		dispatch.ChannelPush:  sender,
	})
	require.NoError(t, err)

	sink := dispatch.NewMemorySink()
	base := []dispatch.Option{
		dispatch.WithLogger(quietLogger()),
		dispatch.WithNoBackoff(),
		dispatch.WithSink(sink),
	}

	engine, err := dispatch.New(registry, append(base, opts...)...)
	require.NoError(t, err)
	return engine, sink
}
