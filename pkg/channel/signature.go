package channel

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Signature headers attached to signed provider requests.
const (
	HeaderSignature          = "X-Signature"
	HeaderSignatureTimestamp = "X-Signature-Timestamp"
	HeaderSignatureID        = "X-Signature-ID"
)

// Signature authenticates a request body for the provider.
// Value is hex(HMAC-SHA256(secret, "<timestamp>.<body>")).
type Signature struct {
	Value     string
	Timestamp int64
	ID        string
}

// Apply sets the signature headers on h.
func (s Signature) Apply(h http.Header) {
	h.Set(HeaderSignature, s.Value)
	h.Set(HeaderSignatureTimestamp, strconv.FormatInt(s.Timestamp, 10))
	h.Set(HeaderSignatureID, s.ID)
}

// Sign creates a signature for body at the current time.
func Sign(secret string, body []byte) (Signature, error) {
	return signAt(secret, body, time.Now())
}

func signAt(secret string, body []byte, at time.Time) (Signature, error) {
	if secret == "" {
		return Signature{}, fmt.Errorf("%w: signing secret is required", ErrMissingConfig)
	}
	if len(body) == 0 {
		return Signature{}, ErrEmptyBody
	}

	ts := at.Unix()
	return Signature{
		Value:     computeSignature(secret, ts, body),
		Timestamp: ts,
		ID:        uuid.New().String(),
	}, nil
}

// Verify checks sig against body. A positive maxAge rejects signatures older
// than maxAge and timestamps more than a minute in the future.
func Verify(secret string, body []byte, sig Signature, maxAge time.Duration) error {
	if secret == "" {
		return fmt.Errorf("%w: signing secret is required", ErrMissingConfig)
	}
	if len(body) == 0 {
		return ErrEmptyBody
	}
	if sig.Value == "" {
		return fmt.Errorf("%w: signature is missing", ErrInvalidSignature)
	}

	if maxAge > 0 {
		age := time.Since(time.Unix(sig.Timestamp, 0))
		if age > maxAge {
			return fmt.Errorf("%w: signature is %v old", ErrInvalidSignature, age.Truncate(time.Second))
		}
		if age < -time.Minute {
			return fmt.Errorf("%w: signature timestamp is in the future", ErrInvalidSignature)
		}
	}

	expected := computeSignature(secret, sig.Timestamp, body)
	if !hmac.Equal([]byte(expected), []byte(sig.Value)) {
		return fmt.Errorf("%w: signature mismatch", ErrInvalidSignature)
	}
	return nil
}

// SignatureFromHeader reads the signature headers. The id header is optional.
func SignatureFromHeader(h http.Header) (Signature, error) {
	sig := Signature{
		Value: h.Get(HeaderSignature),
		ID:    h.Get(HeaderSignatureID),
	}
	if sig.Value == "" {
		return Signature{}, fmt.Errorf("%w: missing %s header", ErrInvalidSignature, HeaderSignature)
	}

	ts, err := strconv.ParseInt(h.Get(HeaderSignatureTimestamp), 10, 64)
	if err != nil || ts <= 0 {
		return Signature{}, fmt.Errorf("%w: invalid %s header", ErrInvalidSignature, HeaderSignatureTimestamp)
	}
	sig.Timestamp = ts

	return sig, nil
}

func computeSignature(secret string, ts int64, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte{'.'})
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
