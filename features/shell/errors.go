package shell

import (
	"context"
	"errors"

	"github.com/AntonStoeckl/venue-shards-go/venuestore"
)

var (
	ErrNilMetricsCollector = errors.New("metrics collector must not be nil")
	ErrEmptyCommandType    = errors.New("command type must not be empty")
	ErrInvalidMaxAttempts  = errors.New("max attempts must be positive")
	ErrNegativeBaseDelay   = errors.New("base delay must not be negative")
	ErrInvalidJitterFactor = errors.New("jitter factor must be between 0.0 and 1.0")
	ErrNilDependency       = errors.New("handler dependency must not be nil")
	ErrInvalidTimeout      = errors.New("partition timeout must be positive")
)

// IsCancellationError reports whether the context of the operation was canceled.
func IsCancellationError(err error) bool {
	return errors.Is(err, context.Canceled)
}

// IsTimeoutError reports whether the operation ran into a deadline.
func IsTimeoutError(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}

// IsTransientConflictError reports a serialization failure or deadlock that may succeed when retried.
func IsTransientConflictError(err error) bool {
	return errors.Is(err, venuestore.ErrTransientConflict)
}

// IsRejection reports an expected business outcome, e.g. an overlapping booking.
func IsRejection(err error) bool {
	return venuestore.IsBusinessOutcome(err)
}
