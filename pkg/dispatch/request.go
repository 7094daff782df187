package dispatch

import (
	"fmt"
	"strings"
)

// Request is a notification dispatch request produced by a request source.
// It is treated as an immutable value once submitted.
type Request struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Channel   string `json:"channel"`
	Recipient string `json:"recipient"`

	// UserID is the owner of the originating record. It is carried to sinks
	// and logs only and plays no part in delivery.
	UserID string `json:"user_id,omitempty"`
}

// Validate checks request shape. Channel membership is checked by the registry.
func (r Request) Validate() error {
	var missing []string
	if strings.TrimSpace(r.ID) == "" {
		missing = append(missing, "id")
	}
	if strings.TrimSpace(r.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(r.Content) == "" {
		missing = append(missing, "content")
	}
	if strings.TrimSpace(r.Recipient) == "" {
		missing = append(missing, "recipient")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s required", ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}

// Payload is what a sender needs to perform a single delivery attempt.
type Payload struct {
	RequestID string
	Channel   Channel
	Title     string
	Content   string
	Recipient string
}

// PayloadFor builds the sender payload for a request resolved to channel c.
func PayloadFor(r Request, c Channel) Payload {
	return Payload{
		RequestID: r.ID,
		Channel:   c,
		Title:     r.Title,
		Content:   r.Content,
		Recipient: strings.TrimSpace(r.Recipient),
	}
}
