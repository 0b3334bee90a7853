package createbooking

import (
	"context"
	"time"

	"github.com/AntonStoeckl/venue-shards-go/features/shell"
	"github.com/AntonStoeckl/venue-shards-go/venuestore"
	"github.com/AntonStoeckl/venue-shards-go/venuestore/partition"
	"github.com/AntonStoeckl/venue-shards-go/venuestore/venuelock"
)

// BookingStore is the part of a partition store the handler needs.
type BookingStore interface {
	PartitionName() string
	CreateBooking(ctx context.Context, request venuestore.BookingRequest) (venuestore.Booking, error)
}

// Result holds the committed booking and its partition.
type Result struct {
	shell.HandlerResult
	Booking       venuestore.Booking
	Partition     partition.ID
	PartitionName string
}

// CommandHandler routes the booking to the partition owning the venue.
type CommandHandler struct {
	resolver         partition.Resolver[BookingStore]
	locker           venuelock.Locker
	retryOptions     []shell.RetryOption
	partitionTimeout time.Duration
}

// Option configures a CommandHandler.
type Option func(*CommandHandler) error

// WithLocker holds the venue's lease in locker while the booking is created.
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

// NewCommandHandler creates a CommandHandler over one BookingStore per partition.
func NewCommandHandler(resolver partition.Resolver[BookingStore], opts ...Option) (CommandHandler, error) {
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

// Handle creates the booking. It fails with venuestore.ErrVenueNotFound for an unknown venue
// and with venuestore.ErrBookingOverlap when the slot overlaps an existing booking that day.
func (h CommandHandler) Handle(ctx context.Context, command Command) (Result, error) {
	id, store := h.resolver.For(command.Request.VenueName)
	result := Result{Partition: id, PartitionName: store.PartitionName()}

	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(ctx context.Context) error {
		return shell.WithOptionalVenueLock(ctx, h.locker, command.Request.VenueName, func(ctx context.Context) error {
			return shell.WithPartitionDeadline(ctx, h.partitionTimeout, func(ctx context.Context) error {
				booking, createErr := store.CreateBooking(ctx, command.Request)
				if createErr != nil {
					return createErr
				}

				result.Booking = booking

				return nil
			})
		})
	}, h.retryOptions...)

	result.HandlerResult = shell.NewHandlerResult(retryMetrics)

	return result, err
}
