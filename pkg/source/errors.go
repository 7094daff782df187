package source

import "errors"

var (
	// ErrSourceClosed is returned by Next when the source has no more requests.
	ErrSourceClosed = errors.New("source: closed")

	// ErrMalformedRequest is returned by Next for a message that could not be
	// decoded. The message is consumed; the pump logs it and moves on.
	ErrMalformedRequest = errors.New("source: malformed request")

	ErrNilSource    = errors.New("source: source cannot be nil")
	ErrNilSubmitter = errors.New("source: submitter cannot be nil")
)
