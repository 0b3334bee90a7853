package shell

import (
	"context"

	"github.com/AntonStoeckl/venue-shards-go/venuestore"
	"github.com/AntonStoeckl/venue-shards-go/venuestore/venuelock"
)

const venueLockPrefix = "venue:"

// VenueLockKey returns the lock key of a venue. Names differing only in case share a key.
func VenueLockKey(venueName string) string {
	return venueLockPrefix + venuestore.RoutingKey(venueName)
}

// WithOptionalVenueLock runs fn while holding the venue's lease, or directly when locker is nil.
func WithOptionalVenueLock(
	ctx context.Context,
	locker venuelock.Locker,
	venueName string,
	fn func(ctx context.Context) error,
) error {

	if locker == nil {
		return fn(ctx)
	}

	return venuelock.WithLock(ctx, locker, VenueLockKey(venueName), fn)
}
