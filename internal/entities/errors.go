package entities

import "errors"

// Error taxonomy for the gateway. Transient/partial failures degrade with
// sentinel values; these errors are fatal only to the current unit of work.
var (
	// ErrConfigNotFound means the tenant (or its config row) does not exist.
	ErrConfigNotFound = errors.New("tenant config not found")

	// ErrUpstreamUnavailable marks a retryable upstream condition: HTTP 503,
	// or a 200 whose body encodes an UNAVAILABLE status.
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")

	// ErrUpstreamError is any other upstream failure, including exhausted retries.
	ErrUpstreamError = errors.New("upstream call failed")

	// ErrEmbeddingFailure aborts the retrieval branch only, never the whole turn.
	ErrEmbeddingFailure = errors.New("embedding generation failed")

	// ErrVectorSearchFailure aborts the retrieval branch only, never the whole turn.
	ErrVectorSearchFailure = errors.New("vector search failed")

	// ErrToolExecution is returned to the model as a structured tool result,
	// not surfaced as a hard failure.
	ErrToolExecution = errors.New("tool execution failed")

	// ErrConnectionLost is recoverable and triggers bounded reconnection.
	ErrConnectionLost = errors.New("connection lost")

	// ErrLoggedOut is terminal; the process must be restarted for a clean pairing.
	ErrLoggedOut = errors.New("session logged out")
)
