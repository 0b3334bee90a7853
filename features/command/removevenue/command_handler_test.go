package removevenue_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/venue-shards-go/features/command/removevenue"
	"github.com/AntonStoeckl/venue-shards-go/testutil/memstore"
	"github.com/AntonStoeckl/venue-shards-go/venuestore"
)

func Test_CommandHandler_Handle_Removes_Venue_And_Bookings(t *testing.T) {
	// setup
	ctx := context.Background()
	stores := memstore.NewCluster(2)
	owner := memstore.Owner(stores, "Grand Hall")

	venue, err := venuestore.BuildVenue("Grand Hall", "Berlin", 300, 120)
	require.NoError(t, err)
	_, err = owner.AddVenue(ctx, venue)
	require.NoError(t, err)

	for _, slot := range [][2]string{{"09:00", "10:00"}, {"10:00", "11:00"}} {
		request, buildErr := venuestore.BuildBookingRequest("Grand Hall", "Ada", "2024-05-01", slot[0], slot[1])
		require.NoError(t, buildErr)
		_, err = owner.CreateBooking(ctx, request)
		require.NoError(t, err)
	}

	resolver, err := memstore.ResolverOf[removevenue.VenueStore](stores)
	require.NoError(t, err)
	handler, err := removevenue.NewCommandHandler(resolver)
	require.NoError(t, err)

	command, err := removevenue.BuildCommand("grand hall")
	require.NoError(t, err)

	// act
	result, err := handler.Handle(ctx, command)

	// assert
	require.NoError(t, err)
	assert.Equal(t, 2, result.RemovedBookings)
	assert.Equal(t, owner.PartitionName(), result.PartitionName)

	_, err = owner.FindVenueByName(ctx, "Grand Hall")
	assert.ErrorIs(t, err, venuestore.ErrVenueNotFound)

	_, err = handler.Handle(ctx, command)
	assert.ErrorIs(t, err, venuestore.ErrVenueNotFound)
}

func Test_BuildCommand_When_NameIsBlank(t *testing.T) {
	_, err := removevenue.BuildCommand("  ")
	assert.ErrorIs(t, err, venuestore.ErrValidation)
}
