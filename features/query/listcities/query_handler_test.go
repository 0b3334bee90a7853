package listcities_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/venue-shards-go/features/query/listcities"
	"github.com/AntonStoeckl/venue-shards-go/testutil/memstore"
	"github.com/AntonStoeckl/venue-shards-go/venuestore"
	"github.com/AntonStoeckl/venue-shards-go/venuestore/fanout"
	"github.com/AntonStoeckl/venue-shards-go/venuestore/partition"
)

func setup(t *testing.T) ([]*memstore.Store, listcities.QueryHandler) {
	t.Helper()

	ctx := context.Background()
	stores := memstore.NewCluster(3)

	for i, spec := range [][2]string{
		{"Grand Hall", "Berlin"},
		{"Harbour Hall", "Hamburg"},
		{"City Hall", "Berlin"},
		{"Isar Loft", "Munich"},
	} {
		venue, err := venuestore.BuildVenue(spec[0], spec[1], 50, 10)
		require.NoError(t, err)
		_, err = stores[i%len(stores)].AddVenue(ctx, venue)
		require.NoError(t, err)
	}

	targets := make([]fanout.Target, 0, len(stores))
	for i, s := range stores {
		targets = append(targets, fanout.Target{ID: partition.ID(i), Name: s.PartitionName(), Reader: s})
	}

	engine, err := fanout.NewEngine(targets)
	require.NoError(t, err)

	handler, err := listcities.NewQueryHandler(engine)
	require.NoError(t, err)

	return stores, handler
}

func Test_QueryHandler_Handle_Returns_Sorted_Distinct_Cities(t *testing.T) {
	// setup
	_, handler := setup(t)

	// act
	result, err := handler.Handle(context.Background(), listcities.BuildQuery(false))

	// assert
	require.NoError(t, err)
	assert.Equal(t, []string{"Berlin", "Hamburg", "Munich"}, result.Values)
	assert.Empty(t, result.FailedPartitions())
}

func Test_QueryHandler_Handle_When_OnePartitionIsDown(t *testing.T) {
	// setup
	stores, handler := setup(t)
	stores[1].SetUnavailable(true)

	// act
	result, err := handler.Handle(context.Background(), listcities.BuildQuery(false))

	// assert
	require.NoError(t, err)
	assert.Equal(t, []string{"Berlin", "Munich"}, result.Values)
	assert.Equal(t, []string{"p1"}, result.FailedPartitions())
}

func Test_QueryHandler_Handle_When_StrictAndOnePartitionIsDown(t *testing.T) {
	// setup
	stores, handler := setup(t)
	stores[2].SetUnavailable(true)

	// act
	_, err := handler.Handle(context.Background(), listcities.BuildQuery(true))

	// assert
	assert.ErrorIs(t, err, venuestore.ErrPartitionUnavailable)
}

func Test_QueryHandler_Handle_When_AllPartitionsAreDown(t *testing.T) {
	// setup
	stores, handler := setup(t)
	for _, s := range stores {
		s.SetUnavailable(true)
	}

	// act
	_, err := handler.Handle(context.Background(), listcities.BuildQuery(false))

	// assert
	assert.ErrorIs(t, err, venuestore.ErrPartitionUnavailable)
}
