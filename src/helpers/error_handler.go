package helpers

import (
	"fmt"
	"time"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type PipelineError struct {
	Message string
	Cause   error
}

func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// Distinct error classes so callers can tell a fatal failure from a
// per-symbol skip. Configuration and Database errors terminate a run;
// Network, DataSource and Validation errors downgrade to a skip.
type ConfigurationError struct{ PipelineError }
type NetworkError struct{ PipelineError }
type DataSourceError struct{ PipelineError }
type DatabaseError struct{ PipelineError }
type ValidationError struct{ PipelineError }

// -----------------------------------------------------------------------------

func NewConfigurationError(msg string, cause error) *ConfigurationError {
	return &ConfigurationError{PipelineError{Message: msg, Cause: cause}}
}

func NewNetworkError(msg string, cause error) *NetworkError {
	return &NetworkError{PipelineError{Message: msg, Cause: cause}}
}

func NewDataSourceError(msg string, cause error) *DataSourceError {
	return &DataSourceError{PipelineError{Message: msg, Cause: cause}}
}

func NewDatabaseError(msg string, cause error) *DatabaseError {
	return &DatabaseError{PipelineError{Message: msg, Cause: cause}}
}

func NewValidationError(msg string, cause error) *ValidationError {
	return &ValidationError{PipelineError{Message: msg, Cause: cause}}
}

// -----------------------------------------------------------------------------
// Retry Logic
// -----------------------------------------------------------------------------

// SleepFunc is injected wherever a retry loop needs to wait, so tests can
// replace real sleeping with a no-op or a recording clock.
type SleepFunc func(d time.Duration)

// RetryFixed attempts fn up to maxRetries times with a fixed delay between
// attempts. It returns the last error after exhaustion.
func RetryFixed(operation string, maxRetries int, delay time.Duration, sleep SleepFunc, fn func() error) error {
	if sleep == nil {
		sleep = time.Sleep
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if attempt < maxRetries {
			sleep(delay)
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operation, maxRetries, lastErr)
}
