package shell_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/venue-shards-go/features/shell"
	"github.com/AntonStoeckl/venue-shards-go/testutil/obsspy"
	"github.com/AntonStoeckl/venue-shards-go/venuestore"
)

func transientConflict() error {
	return errors.Join(venuestore.ErrTransientConflict, errors.New("could not serialize access"))
}

func Test_RetryWithExponentialBackoff_When_FirstAttemptSucceeds(t *testing.T) {
	// setup
	calls := 0

	// act
	meta, err := shell.RetryWithExponentialBackoff(context.Background(), func(context.Context) error {
		calls++
		return nil
	})

	// assert
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, meta.Attempts)
	assert.Equal(t, time.Duration(0), meta.TotalDelay)
	assert.Equal(t, "none", meta.LastErrorType)
	assert.False(t, meta.RetriesExhausted)
}

func Test_RetryWithExponentialBackoff_When_TransientConflictClears(t *testing.T) {
	// setup
	calls := 0

	// act
	meta, err := shell.RetryWithExponentialBackoff(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return transientConflict()
		}
		return nil
	}, shell.WithBaseDelay(time.Millisecond))

	// assert
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, meta.Attempts)
	assert.Greater(t, meta.TotalDelay, time.Duration(0))
	assert.Equal(t, "none", meta.LastErrorType)
}

func Test_RetryWithExponentialBackoff_When_ErrorIsABusinessOutcome(t *testing.T) {
	testCases := []error{
		venuestore.ErrBookingOverlap,
		venuestore.ErrVenueAlreadyExists,
		venuestore.ErrVenueNotFound,
		venuestore.ErrPartitionUnavailable,
		context.DeadlineExceeded,
	}

	for _, want := range testCases {
		t.Run(want.Error(), func(t *testing.T) {
			// setup
			calls := 0

			// act
			meta, err := shell.RetryWithExponentialBackoff(context.Background(), func(context.Context) error {
				calls++
				return want
			})

			// assert
			assert.ErrorIs(t, err, want)
			assert.Equal(t, 1, calls)
			assert.Equal(t, 1, meta.Attempts)
			assert.False(t, meta.RetriesExhausted)
		})
	}
}

func Test_RetryWithExponentialBackoff_When_AttemptsAreExhausted(t *testing.T) {
	// setup
	metrics := obsspy.NewMetricsSpy()
	calls := 0

	// act
	meta, err := shell.RetryWithExponentialBackoff(context.Background(), func(context.Context) error {
		calls++
		return transientConflict()
	},
		shell.WithMaxAttempts(3),
		shell.WithBaseDelay(time.Millisecond),
		shell.WithJitterFactor(0),
		shell.WithRetryMetrics(metrics, "CreateBooking"),
	)

	// assert
	assert.ErrorIs(t, err, venuestore.ErrTransientConflict)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, meta.Attempts)
	assert.True(t, meta.RetriesExhausted)
	assert.Equal(t, "transient_conflict", meta.LastErrorType)
	assert.Equal(t, 3*time.Millisecond, meta.TotalDelay)

	assert.Len(t, metrics.Counters(shell.CommandHandlerRetriesMetric), 2)
	assert.Len(t, metrics.Durations(shell.CommandHandlerRetryDelayMetric), 2)
	assert.True(t, metrics.HasCounter(shell.CommandHandlerMaxRetriesReachedMetric, map[string]string{
		"command_type":     "CreateBooking",
		"final_error_type": "transient_conflict",
	}))
	assert.True(t, metrics.HasCounter(shell.CommandHandlerRetriesMetric, map[string]string{
		"command_type":   "CreateBooking",
		"attempt_number": "2",
		"error_type":     "transient_conflict",
	}))
}

func Test_RetryWithExponentialBackoff_When_ContextIsCanceledDuringBackoff(t *testing.T) {
	// setup
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	// act
	meta, err := shell.RetryWithExponentialBackoff(ctx, func(context.Context) error {
		calls++
		cancel()
		return transientConflict()
	}, shell.WithBaseDelay(time.Second))

	// assert
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, meta.Attempts)
}

func Test_RetryWithExponentialBackoff_When_OptionsAreInvalid(t *testing.T) {
	testCases := []struct {
		name   string
		option shell.RetryOption
		want   error
	}{
		{"zero attempts", shell.WithMaxAttempts(0), shell.ErrInvalidMaxAttempts},
		{"negative delay", shell.WithBaseDelay(-time.Millisecond), shell.ErrNegativeBaseDelay},
		{"jitter above one", shell.WithJitterFactor(1.5), shell.ErrInvalidJitterFactor},
		{"jitter below zero", shell.WithJitterFactor(-0.1), shell.ErrInvalidJitterFactor},
		{"nil collector", shell.WithRetryMetrics(nil, "AddVenue"), shell.ErrNilMetricsCollector},
		{"empty command type", shell.WithRetryMetrics(obsspy.NewMetricsSpy(), ""), shell.ErrEmptyCommandType},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// setup
			calls := 0

			// act
			_, err := shell.RetryWithExponentialBackoff(context.Background(), func(context.Context) error {
				calls++
				return nil
			}, tc.option)

			// assert
			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, 0, calls)
		})
	}
}
