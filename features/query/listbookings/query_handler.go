package listbookings

import (
	"context"
	"time"

	"github.com/AntonStoeckl/venue-shards-go/features/shell"
	"github.com/AntonStoeckl/venue-shards-go/venuestore"
	"github.com/AntonStoeckl/venue-shards-go/venuestore/partition"
)

// BookingReader is the part of a partition store the handler needs.
type BookingReader interface {
	PartitionName() string
	ListBookings(ctx context.Context, venueName string, date venuestore.Date) (venuestore.Bookings, error)
}

// Result holds the bookings of the day, ascending by start.
type Result struct {
	Bookings      venuestore.Bookings
	Partition     partition.ID
	PartitionName string
}

// QueryHandler routes the query to the owning partition.
type QueryHandler struct {
	resolver         partition.Resolver[BookingReader]
	partitionTimeout time.Duration
}

// Option configures a QueryHandler.
type Option func(*QueryHandler) error

// WithPartitionTimeout bounds the call to the owning partition.
func WithPartitionTimeout(timeout time.Duration) Option {
	return func(h *QueryHandler) error {
		return shell.PartitionTimeoutOption(timeout, func(d time.Duration) { h.partitionTimeout = d })
	}
}

// NewQueryHandler creates a QueryHandler over one BookingReader per partition.
func NewQueryHandler(resolver partition.Resolver[BookingReader], opts ...Option) (QueryHandler, error) {
	if resolver.Len() == 0 {
		return QueryHandler{}, shell.ErrNilDependency
	}

	h := QueryHandler{resolver: resolver}

	for _, opt := range opts {
		if err := opt(&h); err != nil {
			return QueryHandler{}, err
		}
	}

	return h, nil
}

// Handle lists the bookings or fails with venuestore.ErrVenueNotFound.
func (h QueryHandler) Handle(ctx context.Context, query Query) (Result, error) {
	id, reader := h.resolver.For(query.VenueName)
	result := Result{Partition: id, PartitionName: reader.PartitionName()}

	var bookings venuestore.Bookings

	err := shell.WithPartitionDeadline(ctx, h.partitionTimeout, func(ctx context.Context) error {
		var listErr error
		bookings, listErr = reader.ListBookings(ctx, query.VenueName, query.Date)

		return listErr
	})
	if err != nil {
		return result, err
	}

	bookings.SortByStart()
	result.Bookings = bookings

	return result, nil
}
