package addvenue_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/venue-shards-go/features/command/addvenue"
	"github.com/AntonStoeckl/venue-shards-go/features/shell"
	"github.com/AntonStoeckl/venue-shards-go/testutil/memstore"
	"github.com/AntonStoeckl/venue-shards-go/venuestore"
	"github.com/AntonStoeckl/venue-shards-go/venuestore/venuelock"
)

func newHandler(t *testing.T, stores []*memstore.Store, opts ...addvenue.Option) addvenue.CommandHandler {
	t.Helper()

	resolver, err := memstore.ResolverOf[addvenue.VenueStore](stores)
	require.NoError(t, err)

	handler, err := addvenue.NewCommandHandler(resolver, opts...)
	require.NoError(t, err)

	return handler
}

func buildCommand(t *testing.T, name string) addvenue.Command {
	t.Helper()

	command, err := addvenue.BuildCommand(name, "Berlin", 200, 80)
	require.NoError(t, err)

	return command
}

func Test_CommandHandler_Handle_When_VenueIsNew(t *testing.T) {
	// setup
	stores := memstore.NewCluster(2)
	handler := newHandler(t, stores)

	// act
	result, err := handler.Handle(context.Background(), buildCommand(t, "Grand Hall"))

	// assert
	require.NoError(t, err)
	owner := memstore.Owner(stores, "Grand Hall")
	assert.Equal(t, owner.PartitionName(), result.PartitionName)
	assert.Equal(t, 1, result.RetryAttempts)

	venue, err := owner.FindVenueByName(context.Background(), "grand hall")
	require.NoError(t, err)
	assert.Equal(t, result.VenueID, venue.ID)
	assert.Equal(t, "Grand Hall", venue.Name)
}

func Test_CommandHandler_Handle_When_NameAlreadyExists(t *testing.T) {
	// setup
	stores := memstore.NewCluster(2)
	handler := newHandler(t, stores)
	ctx := context.Background()

	// arrange
	_, err := handler.Handle(ctx, buildCommand(t, "Grand Hall"))
	require.NoError(t, err)

	// act
	_, err = handler.Handle(ctx, buildCommand(t, "GRAND HALL"))

	// assert
	assert.ErrorIs(t, err, venuestore.ErrVenueAlreadyExists)
	venues, err := memstore.Owner(stores, "Grand Hall").SearchVenues(ctx, venuestore.BuildSearchFilter().NameContaining("grand"))
	require.NoError(t, err)
	assert.Len(t, venues, 1)
}

func Test_CommandHandler_Handle_When_ConcurrentAddsUseALocker(t *testing.T) {
	// setup
	stores := memstore.NewCluster(3)
	handler := newHandler(t, stores, addvenue.WithLocker(venuelock.NewLocalLocker()))
	const writers = 8

	// act
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		duplicate int
	)

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := handler.Handle(context.Background(), buildCommand(t, "Grand Hall"))

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, venuestore.ErrVenueAlreadyExists):
				duplicate++
			}
		}()
	}
	wg.Wait()

	// assert
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, writers-1, duplicate)
}

func Test_CommandHandler_Handle_When_TransientConflictOccurs(t *testing.T) {
	// setup
	stores := memstore.NewCluster(2)
	handler := newHandler(t, stores, addvenue.WithRetryOptions(shell.WithBaseDelay(time.Millisecond)))
	memstore.Owner(stores, "Grand Hall").FailNextWith(venuestore.ErrTransientConflict)

	// act
	result, err := handler.Handle(context.Background(), buildCommand(t, "Grand Hall"))

	// assert
	require.NoError(t, err)
	assert.Equal(t, 2, result.RetryAttempts)
	assert.Equal(t, "none", result.LastErrorType)
}

func Test_CommandHandler_Handle_When_PartitionIsUnavailable(t *testing.T) {
	// setup
	stores := memstore.NewCluster(2)
	handler := newHandler(t, stores)
	memstore.Owner(stores, "Grand Hall").SetUnavailable(true)

	// act
	result, err := handler.Handle(context.Background(), buildCommand(t, "Grand Hall"))

	// assert
	assert.ErrorIs(t, err, venuestore.ErrPartitionUnavailable)
	assert.Equal(t, 1, result.RetryAttempts)
}

func Test_BuildCommand_When_InputIsInvalid(t *testing.T) {
	testCases := []struct {
		name     string
		venue    string
		city     string
		capacity int
		price    float64
	}{
		{"empty name", " ", "Berlin", 10, 1},
		{"empty city", "Hall", "", 10, 1},
		{"zero capacity", "Hall", "Berlin", 0, 1},
		{"negative price", "Hall", "Berlin", 10, -1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// act
			_, err := addvenue.BuildCommand(tc.venue, tc.city, tc.capacity, tc.price)

			// assert
			assert.ErrorIs(t, err, venuestore.ErrValidation)
		})
	}
}

func Test_CommandHandler_Handle_When_PartitionDoesNotAnswerInTime(t *testing.T) {
	// setup
	stores := memstore.NewCluster(2)
	handler := newHandler(t, stores, addvenue.WithPartitionTimeout(20*time.Millisecond))
	memstore.Owner(stores, "Grand Hall").SetDelay(5 * time.Second)

	// act
	start := time.Now()
	_, err := handler.Handle(context.Background(), buildCommand(t, "Grand Hall"))

	// assert
	assert.ErrorIs(t, err, venuestore.ErrPartitionUnavailable)
	assert.Less(t, time.Since(start), time.Second)
}
