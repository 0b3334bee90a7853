package listnames_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/venue-shards-go/features/query/listnames"
	"github.com/AntonStoeckl/venue-shards-go/testutil/memstore"
	"github.com/AntonStoeckl/venue-shards-go/venuestore"
	"github.com/AntonStoeckl/venue-shards-go/venuestore/fanout"
	"github.com/AntonStoeckl/venue-shards-go/venuestore/partition"
)

func Test_QueryHandler_Handle_Returns_Names_Of_All_Partitions(t *testing.T) {
	// setup
	ctx := context.Background()
	stores := memstore.NewCluster(2)

	for _, name := range []string{"Grand Hall", "Blue Room", "City Hall"} {
		venue, err := venuestore.BuildVenue(name, "Berlin", 50, 10)
		require.NoError(t, err)
		_, err = memstore.Owner(stores, name).AddVenue(ctx, venue)
		require.NoError(t, err)
	}

	targets := make([]fanout.Target, 0, len(stores))
	for i, s := range stores {
		targets = append(targets, fanout.Target{ID: partition.ID(i), Name: s.PartitionName(), Reader: s})
	}

	engine, err := fanout.NewEngine(targets)
	require.NoError(t, err)

	handler, err := listnames.NewQueryHandler(engine)
	require.NoError(t, err)

	// act
	result, err := handler.Handle(ctx, listnames.BuildQuery(true))

	// assert
	require.NoError(t, err)
	assert.Equal(t, []string{"Blue Room", "City Hall", "Grand Hall"}, result.Values)
}

func Test_NewQueryHandler_When_ListerIsNil(t *testing.T) {
	_, err := listnames.NewQueryHandler(nil)

	assert.Error(t, err)
}
