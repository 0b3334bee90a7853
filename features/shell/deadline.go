package shell

import (
	"context"
	"errors"
	"time"

	"github.com/AntonStoeckl/venue-shards-go/venuestore"
)

// WithPartitionDeadline runs fn, a call to one partition, under timeout.
// A call cut short by its own deadline fails with venuestore.ErrPartitionUnavailable.
// A zero timeout runs fn on ctx unchanged.
func WithPartitionDeadline(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}

	partitionCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := fn(partitionCtx)
	if err != nil && ctx.Err() == nil && errors.Is(partitionCtx.Err(), context.DeadlineExceeded) &&
		!errors.Is(err, venuestore.ErrPartitionUnavailable) {

		return errors.Join(venuestore.ErrPartitionUnavailable, err)
	}

	return err
}

// PartitionTimeoutOption validates a handler's partition timeout before it is applied.
func PartitionTimeoutOption(timeout time.Duration, apply func(time.Duration)) error {
	if timeout <= 0 {
		return ErrInvalidTimeout
	}

	apply(timeout)

	return nil
}
