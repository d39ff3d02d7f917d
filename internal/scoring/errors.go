package scoring

import "errors"

// Gateway failures, distinguishable so the caller can decide whether to abort
// a single item or the whole session.
var (
	// ErrGatewayUnavailable is returned when the scoring function cannot be reached.
	ErrGatewayUnavailable = errors.New("scoring gateway unavailable")

	// ErrGatewayTimeout is returned when the scoring function does not answer in time.
	ErrGatewayTimeout = errors.New("scoring gateway timed out")

	// ErrGatewayRejected is returned for a non-success status or a malformed response.
	ErrGatewayRejected = errors.New("scoring gateway rejected the request")
)
