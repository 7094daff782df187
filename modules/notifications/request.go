package notifications

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/dmitrymomot/dispatchkit/pkg/dispatch"
)

// maxBodySize bounds request bodies (1 MB).
const maxBodySize = 1 << 20

var (
	ErrUnsupportedMediaType = errors.New("unsupported media type, expected application/json")
	ErrBodyTooLarge         = errors.New("request body too large")
	ErrInvalidJSON          = errors.New("invalid JSON request body")
)

type submitRequest struct {
	Notification notification `json:"notification"`
}

type notification struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Channel   string `json:"channel"`
	Recipient string `json:"recipient"`
	UserID    string `json:"user_id"`
}

func (n notification) request() dispatch.Request {
	return dispatch.Request{
		ID:        strings.TrimSpace(n.ID),
		Title:     n.Title,
		Content:   n.Content,
		Channel:   n.Channel,
		Recipient: n.Recipient,
		UserID:    n.UserID,
	}
}

// decodeJSON reads exactly one JSON object into v. Unknown fields and
// trailing data are rejected.
func decodeJSON(r *http.Request, v any) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return ErrUnsupportedMediaType
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if len(body) > maxBodySize {
		return ErrBodyTooLarge
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", ErrInvalidJSON)
		}
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	var extra json.RawMessage
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: unexpected data after JSON object", ErrInvalidJSON)
	}
	return nil
}
