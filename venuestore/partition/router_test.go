package partition_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/AntonStoeckl/venue-shards-go/venuestore/partition"
)

func Test_NewRouter_When_CountIsNotPositive(t *testing.T) {
	_, err := NewRouter(0)
	assert.ErrorIs(t, err, ErrInvalidPartitionCount)

	_, err = NewRouter(-3)
	assert.ErrorIs(t, err, ErrInvalidPartitionCount)
}

func Test_Route_Is_Stable_Across_Calls_And_Routers(t *testing.T) {
	// setup
	first, err := NewRouter(5)
	require.NoError(t, err)
	second, err := NewRouter(5)
	require.NoError(t, err)

	for i := 0; i < 500; i++ {
		key := fmt.Sprintf("venue-%d", i)

		// act
		a := first.Route(key)
		b := first.Route(key)
		c := second.Route(key)

		// assert
		assert.Equal(t, a, b)
		assert.Equal(t, a, c)
		assert.GreaterOrEqual(t, int(a), 0)
		assert.Less(t, int(a), 5)
	}
}

func Test_Route_Matches_Known_Placements(t *testing.T) {
	testCases := []struct {
		key      string
		count    int
		expected ID
	}{
		{key: "grand hall", count: 2, expected: 0},
		{key: "city hall", count: 2, expected: 1},
		{key: "music hall", count: 2, expected: 0},
		{key: "hall of fame", count: 2, expected: 1},
		{key: "blue room", count: 2, expected: 1},
		{key: "grand hall", count: 3, expected: 1},
		{key: "city hall", count: 3, expected: 0},
		{key: "music hall", count: 3, expected: 2},
		{key: "grand hall", count: 4, expected: 2},
		{key: "city hall", count: 4, expected: 3},
		{key: "music hall", count: 4, expected: 0},
		{key: "blue room", count: 4, expected: 1},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%s/%d", tc.key, tc.count), func(t *testing.T) {
			router, err := NewRouter(tc.count)
			require.NoError(t, err)

			assert.Equal(t, tc.expected, router.Route(tc.key))
		})
	}
}

func Test_RouteVenue_Normalizes_The_Name(t *testing.T) {
	// setup
	router, err := NewRouter(2)
	require.NoError(t, err)

	// act & assert
	assert.Equal(t, ID(0), router.RouteVenue("Grand Hall"))
	assert.Equal(t, ID(0), router.RouteVenue("  GRAND HALL "))
	assert.Equal(t, ID(1), router.RouteVenue("City Hall"))
}

func Test_Route_With_A_Single_Partition(t *testing.T) {
	router, err := NewRouter(1)
	require.NoError(t, err)

	assert.Equal(t, ID(0), router.Route("anything"))
	assert.Equal(t, ID(0), router.Route(""))
}

func Test_Route_Spreads_Keys_Over_All_Partitions(t *testing.T) {
	// setup
	router, err := NewRouter(4)
	require.NoError(t, err)

	counts := make(map[ID]int)

	// act
	for i := 0; i < 4000; i++ {
		counts[router.Route(fmt.Sprintf("venue-%d", i))]++
	}

	// assert
	require.Len(t, counts, 4)
	for id, count := range counts {
		assert.InDelta(t, 1000, count, 200, "partition %d", id)
	}
}
