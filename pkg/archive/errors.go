package archive

import "errors"

var (
	ErrInvalidConfig      = errors.New("invalid archive configuration")
	ErrFailedToLoadConfig = errors.New("failed to load AWS config")
	ErrInvalidKey         = errors.New("invalid archive key") // Prevents path traversal
	ErrNotFound           = errors.New("archived outcome not found")

	ErrEncodeFailed = errors.New("failed to encode outcome")
	ErrDecodeFailed = errors.New("failed to decode outcome")
	ErrWriteFailed  = errors.New("failed to write archive object")
	ErrReadFailed   = errors.New("failed to read archive object")

	// S3-specific errors for error classification
	ErrBucketNotFound     = errors.New("bucket not found")
	ErrAccessDenied       = errors.New("access denied")
	ErrServiceUnavailable = errors.New("service temporarily unavailable")

	ErrOperationTimeout  = errors.New("operation timed out")
	ErrOperationCanceled = errors.New("operation canceled")
)
