package helpers

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------

func TestPipelineError_MessageFormatting(t *testing.T) {
	bare := &PipelineError{Message: "something broke"}
	assert.Equal(t, "something broke", bare.Error())

	cause := errors.New("connection reset")
	wrapped := NewNetworkError("request failed", cause)
	assert.Equal(t, "request failed: connection reset", wrapped.Error())
}

func TestErrorClasses_PreserveCauseChain(t *testing.T) {
	cause := errors.New("disk full")
	err := NewDatabaseError("failed to store data", cause)

	assert.ErrorIs(t, err, cause)

	// Classes stay distinct: a database error must not match another class.
	var nerr *NetworkError
	assert.False(t, errors.As(err, &nerr))
	var derr *DatabaseError
	assert.True(t, errors.As(err, &derr))
}

// -----------------------------------------------------------------------------

func TestRetryFixed_SucceedsWithoutSleeping(t *testing.T) {
	var sleeps []time.Duration
	record := func(d time.Duration) { sleeps = append(sleeps, d) }

	err := RetryFixed("ping", 3, time.Second, record, func() error { return nil })
	require.NoError(t, err)
	assert.Empty(t, sleeps)
}

func TestRetryFixed_RecoversAfterTransientFailures(t *testing.T) {
	var sleeps []time.Duration
	record := func(d time.Duration) { sleeps = append(sleeps, d) }

	calls := 0
	err := RetryFixed("ping", 3, 2*time.Second, record, func() error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, sleeps)
}

func TestRetryFixed_ExhaustionWrapsLastError(t *testing.T) {
	var sleeps []time.Duration
	record := func(d time.Duration) { sleeps = append(sleeps, d) }

	sentinel := errors.New("still down")
	calls := 0
	err := RetryFixed("database connection", 3, time.Second, record, func() error {
		calls++
		return sentinel
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)
	assert.Contains(t, err.Error(), "database connection failed after 3 attempts")
	assert.Equal(t, 3, calls)
	// No pointless sleep after the final attempt.
	assert.Len(t, sleeps, 2)
}
