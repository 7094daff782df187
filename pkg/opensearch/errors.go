package opensearch

import "errors"

var (
	// ErrConnectionFailed indicates the OpenSearch client could not be created
	// due to configuration or network issues.
	ErrConnectionFailed = errors.New("opensearch connection failed")

	// ErrHealthcheckFailed indicates the cluster is unreachable or unhealthy.
	ErrHealthcheckFailed = errors.New("opensearch healthcheck failed")

	ErrNoAddresses  = errors.New("opensearch addresses are empty, use OPENSEARCH_ADDRESSES env var")
	ErrNilTransport = errors.New("opensearch transport cannot be nil")
	ErrEmptyIndex   = errors.New("opensearch index name is empty")
	ErrIndexFailed  = errors.New("failed to index outcome")
	ErrCreateIndex  = errors.New("failed to create outcome index")
)
