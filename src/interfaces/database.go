package interfaces

import "stock-pipeline/src/models"

// -----------------------------------------------------------------------------
// IQuoteStore defines the contract for storage operations.
// -----------------------------------------------------------------------------

type IQuoteStore interface {

	// -----------------------------------------------------------------------------

	// Connect opens the connection with bounded retry, without touching the
	// schema. Failure after exhaustion is fatal for the caller.
	Connect() error

	// -----------------------------------------------------------------------------

	// Initialize connects (if needed) and ensures the schema exists,
	// idempotently. Failure here is fatal for the run.
	Initialize() error

	// -----------------------------------------------------------------------------

	// UpsertQuote atomically inserts or updates the row keyed by
	// (symbol, latest trading day). A failed write leaves no partial row.
	UpsertQuote(data *models.MQuoteResponse) error

	// -----------------------------------------------------------------------------

	// PruneOlderThan deletes rows whose trading day precedes now minus the
	// retention window. Returns the number of rows removed.
	PruneOlderThan(retentionDays int) (int64, error)

	// -----------------------------------------------------------------------------

	// Stats returns read-only summary statistics for the diagnostic report.
	Stats() (*models.MPipelineStats, error)

	// -----------------------------------------------------------------------------

	// Ping reports storage reachability without mutating state.
	Ping() error

	// -----------------------------------------------------------------------------

	// Version returns the storage engine's version string.
	Version() (string, error)

	// -----------------------------------------------------------------------------

	// Close the database connection
	Close() error
}
