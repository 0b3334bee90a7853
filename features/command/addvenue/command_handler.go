package addvenue

import (
	"context"
	"time"

	"github.com/AntonStoeckl/venue-shards-go/features/shell"
	"github.com/AntonStoeckl/venue-shards-go/venuestore"
	"github.com/AntonStoeckl/venue-shards-go/venuestore/partition"
	"github.com/AntonStoeckl/venue-shards-go/venuestore/venuelock"
)

// VenueStore is the part of a partition store the handler needs.
type VenueStore interface {
	PartitionName() string
	AddVenue(ctx context.Context, venue venuestore.Venue) (venuestore.VenueID, error)
}

// Result reports where the venue was stored.
type Result struct {
	shell.HandlerResult
	VenueID       venuestore.VenueID
	Partition     partition.ID
	PartitionName string
}

// CommandHandler routes the venue to its partition and adds it there.
type CommandHandler struct {
	resolver         partition.Resolver[VenueStore]
	locker           venuelock.Locker
	retryOptions     []shell.RetryOption
	partitionTimeout time.Duration
}

// Option configures a CommandHandler.
type Option func(*CommandHandler) error

// WithLocker serializes adds of the same venue name through locker.
func WithLocker(locker venuelock.Locker) Option {
	return func(h *CommandHandler) error {
		if locker == nil {
			return shell.ErrNilDependency
		}

		h.locker = locker

		return nil
	}
}

// WithRetryOptions configures the retry of transient storage conflicts.
func WithRetryOptions(opts ...shell.RetryOption) Option {
	return func(h *CommandHandler) error {
		h.retryOptions = opts
		return nil
	}
}

// WithPartitionTimeout bounds each call to the owning partition.
// A call running into it fails with venuestore.ErrPartitionUnavailable.
func WithPartitionTimeout(timeout time.Duration) Option {
	return func(h *CommandHandler) error {
		return shell.PartitionTimeoutOption(timeout, func(d time.Duration) { h.partitionTimeout = d })
	}
}

// NewCommandHandler creates a CommandHandler over one VenueStore per partition.
func NewCommandHandler(resolver partition.Resolver[VenueStore], opts ...Option) (CommandHandler, error) {
	if resolver.Len() == 0 {
		return CommandHandler{}, shell.ErrNilDependency
	}

	h := CommandHandler{resolver: resolver}

	for _, opt := range opts {
		if err := opt(&h); err != nil {
			return CommandHandler{}, err
		}
	}

	return h, nil
}

// Handle adds the venue to its owning partition.
// A duplicate name fails with venuestore.ErrVenueAlreadyExists and is never retried.
func (h CommandHandler) Handle(ctx context.Context, command Command) (Result, error) {
	id, store := h.resolver.For(command.Venue.Name)
	result := Result{Partition: id, PartitionName: store.PartitionName()}

	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(ctx context.Context) error {
		return shell.WithOptionalVenueLock(ctx, h.locker, command.Venue.Name, func(ctx context.Context) error {
			return shell.WithPartitionDeadline(ctx, h.partitionTimeout, func(ctx context.Context) error {
				venueID, addErr := store.AddVenue(ctx, command.Venue)
				if addErr != nil {
					return addErr
				}

				result.VenueID = venueID

				return nil
			})
		})
	}, h.retryOptions...)

	result.HandlerResult = shell.NewHandlerResult(retryMetrics)

	return result, err
}
