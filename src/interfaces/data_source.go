package interfaces

import "stock-pipeline/src/models"

// -----------------------------------------------------------------------------
// IQuoteFetcher interface for retrieving quotes from the upstream API.
// -----------------------------------------------------------------------------

type IQuoteFetcher interface {

	// Name returns the identifier of the upstream source
	Name() string

	// -----------------------------------------------------------------------------

	// Fetch retrieves one symbol's quote, retrying transient faults with
	// backoff. It never panics; every failure is returned as a typed error
	// from the helpers taxonomy so the caller can classify it.
	Fetch(symbol string) (*models.MQuoteResponse, error)

	// -----------------------------------------------------------------------------

	// Probe performs a lightweight reachability check against the upstream
	// endpoint without consuming quote quota. It returns the HTTP status
	// observed; the error is non-nil only when the endpoint is unreachable.
	Probe() (int, error)
}
