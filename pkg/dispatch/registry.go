package dispatch

import (
	"fmt"
	"sort"
)

// Registry resolves channel identifiers to senders. The mapping is fixed at
// construction and safe for concurrent reads.
type Registry struct {
	senders map[Channel]Sender
}

// NewRegistry builds a registry from a channel-to-sender table.
// Channels outside the closed set and nil senders are configuration errors.
func NewRegistry(senders map[Channel]Sender) (*Registry, error) {
	table := make(map[Channel]Sender, len(senders))
	for ch, s := range senders {
		if !ch.Valid() {
			return nil, fmt.Errorf("%w: unsupported channel %q", ErrInvalidConfig, ch)
		}
		if s == nil {
			return nil, fmt.Errorf("%w: %w for channel %q", ErrInvalidConfig, ErrNilSender, ch)
		}
		table[ch] = s
	}
	return &Registry{senders: table}, nil
}

// MustNewRegistry is like NewRegistry but panics on error.
func MustNewRegistry(senders map[Channel]Sender) *Registry {
	r, err := NewRegistry(senders)
	if err != nil {
		panic(err)
	}
	return r
}

// Resolve maps a raw channel identifier to its sender. It fails closed with
// ErrUnknownChannel for identifiers outside the set or without a sender.
func (r *Registry) Resolve(id string) (Channel, Sender, error) {
	ch, err := ParseChannel(id)
	if err != nil {
		return "", nil, err
	}
	s, ok := r.senders[ch]
	if !ok {
		return "", nil, fmt.Errorf("%w: no sender registered for %q", ErrUnknownChannel, ch)
	}
	return ch, s, nil
}

// Channels lists the registered channels in lexical order.
func (r *Registry) Channels() []Channel {
	out := make([]Channel, 0, len(r.senders))
	for ch := range r.senders {
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
