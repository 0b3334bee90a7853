package venuelock

import (
	"context"
	"errors"
)

var (
	ErrEmptyKey          = errors.New("lock key must not be empty")
	ErrLockNotHeld       = errors.New("lock is not held")
	ErrAcquireCanceled   = errors.New("lock acquisition canceled")
	ErrInvalidLockOption = errors.New("invalid lock option")
)

// Locker acquires exclusive leases on keys.
type Locker interface {
	Acquire(ctx context.Context, key string) (Lease, error)
}

// Lease is a held lock. Release must be called exactly once.
type Lease interface {
	Key() string
	Release(ctx context.Context) error
}

// WithLock runs fn while holding the lease on key and releases it on every path.
// A failing release is joined to fn's error.
func WithLock(ctx context.Context, locker Locker, key string, fn func(ctx context.Context) error) error {
	lease, err := locker.Acquire(ctx, key)
	if err != nil {
		return err
	}

	fnErr := fn(ctx)

	if releaseErr := lease.Release(context.WithoutCancel(ctx)); releaseErr != nil {
		return errors.Join(fnErr, releaseErr)
	}

	return fnErr
}
