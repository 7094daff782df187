package archive

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/dispatchkit/pkg/dispatch"
)

// DefaultPrefix is the top-level folder for archived outcomes.
const DefaultPrefix = "outcomes"

// Key returns the object key for an outcome: <prefix>/YYYY/MM/DD/<id>.json,
// dated by the UTC finish time. Request ids are path-escaped; an empty id
// gets a random one so nothing is overwritten.
func Key(prefix string, o dispatch.Outcome) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultPrefix
	}

	finished := o.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}

	id := o.RequestID
	if strings.TrimSpace(id) == "" {
		id = uuid.NewString()
	}

	return path.Join(prefix, finished.UTC().Format("2006/01/02"), url.PathEscape(id)+".json")
}

func validateKey(key string) (string, error) {
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." {
			return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return key, nil
}

func encode(o dispatch.Outcome) ([]byte, error) {
	b, err := json.Marshal(o)
	if err != nil {
		return nil, errors.Join(ErrEncodeFailed, err)
	}
	return b, nil
}

func decode(b []byte) (dispatch.Outcome, error) {
	var o dispatch.Outcome
	if err := json.Unmarshal(b, &o); err != nil {
		return dispatch.Outcome{}, errors.Join(ErrDecodeFailed, err)
	}
	return o, nil
}
