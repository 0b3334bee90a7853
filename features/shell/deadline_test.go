package shell_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/venue-shards-go/features/shell"
	"github.com/AntonStoeckl/venue-shards-go/venuestore"
)

func Test_WithPartitionDeadline_When_CallOutlivesTimeout(t *testing.T) {
	// act
	start := time.Now()
	err := shell.WithPartitionDeadline(context.Background(), 20*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	// assert
	assert.ErrorIs(t, err, venuestore.ErrPartitionUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func Test_WithPartitionDeadline_When_CallFailsInTime(t *testing.T) {
	// setup
	callErr := errors.New("boom")

	// act
	err := shell.WithPartitionDeadline(context.Background(), time.Second, func(context.Context) error {
		return callErr
	})

	// assert
	assert.ErrorIs(t, err, callErr)
	assert.NotErrorIs(t, err, venuestore.ErrPartitionUnavailable)
}

func Test_WithPartitionDeadline_When_TimeoutIsZero(t *testing.T) {
	// act
	var hasDeadline bool
	err := shell.WithPartitionDeadline(context.Background(), 0, func(ctx context.Context) error {
		_, hasDeadline = ctx.Deadline()
		return nil
	})

	// assert
	require.NoError(t, err)
	assert.False(t, hasDeadline)
}

func Test_WithPartitionDeadline_When_ParentIsCanceled(t *testing.T) {
	// setup
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// act
	err := shell.WithPartitionDeadline(ctx, time.Second, func(ctx context.Context) error {
		return ctx.Err()
	})

	// assert
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, venuestore.ErrPartitionUnavailable)
}

func Test_PartitionTimeoutOption_When_NotPositive(t *testing.T) {
	// act
	err := shell.PartitionTimeoutOption(0, func(time.Duration) { t.Fatal("must not apply") })

	// assert
	assert.ErrorIs(t, err, shell.ErrInvalidTimeout)
}
