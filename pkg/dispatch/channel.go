package dispatch

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// Channel identifies a delivery channel from the closed set below.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
	ChannelPush  Channel = "push"
)

// Channels returns every supported channel in a stable order.
func Channels() []Channel {
	return []Channel{ChannelEmail, ChannelSMS, ChannelPush}
}

// Valid reports whether c belongs to the closed channel set.
func (c Channel) Valid() bool {
	switch c {
	case ChannelEmail, ChannelSMS, ChannelPush:
		return true
	default:
		return false
	}
}

func (c Channel) String() string {
	return string(c)
}

// ParseChannel matches an identifier against the closed set using Unicode
// case folding, so "EMAIL", "Sms" and " push " resolve as expected.
func ParseChannel(id string) (Channel, error) {
	folded := Channel(cases.Fold().String(strings.TrimSpace(id)))
	if !folded.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownChannel, id)
	}
	return folded, nil
}
