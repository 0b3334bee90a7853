package fanout_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/venue-shards-go/testutil/logspy"
	"github.com/AntonStoeckl/venue-shards-go/testutil/memstore"
	"github.com/AntonStoeckl/venue-shards-go/testutil/obsspy"
	"github.com/AntonStoeckl/venue-shards-go/venuestore"
	"github.com/AntonStoeckl/venue-shards-go/venuestore/fanout"
	"github.com/AntonStoeckl/venue-shards-go/venuestore/partition"
)

type fixedHealth map[partition.ID]bool

func (h fixedHealth) IsHealthy(id partition.ID) bool {
	healthy, ok := h[id]
	return !ok || healthy
}

func newPartitions(t *testing.T, n int) []*memstore.Store {
	t.Helper()

	stores := make([]*memstore.Store, n)
	for i := range stores {
		stores[i] = memstore.New("p" + partition.ID(i).String())
	}

	return stores
}

func targetsOf(stores []*memstore.Store) []fanout.Target {
	targets := make([]fanout.Target, 0, len(stores))
	for i, s := range stores {
		targets = append(targets, fanout.Target{ID: partition.ID(i), Name: s.PartitionName(), Reader: s})
	}

	return targets
}

func addVenue(t *testing.T, store *memstore.Store, name, city string, capacity int, price float64) {
	t.Helper()

	v, err := venuestore.BuildVenue(name, city, capacity, price)
	require.NoError(t, err)

	_, err = store.AddVenue(context.Background(), v)
	require.NoError(t, err)
}

func newEngine(t *testing.T, stores []*memstore.Store, options ...fanout.Option) *fanout.Engine {
	t.Helper()

	engine, err := fanout.NewEngine(targetsOf(stores), options...)
	require.NoError(t, err)

	return engine
}

func Test_Search_When_MatchesLiveOnDifferentPartitions(t *testing.T) {
	// setup
	stores := newPartitions(t, 2)
	addVenue(t, stores[0], "Grand Hall", "Berlin", 200, 150)
	addVenue(t, stores[1], "City Hall", "Berlin", 80, 60)
	addVenue(t, stores[1], "Blue Room", "Berlin", 20, 40)
	engine := newEngine(t, stores)

	// act
	result, err := engine.Search(context.Background(), venuestore.BuildSearchFilter().NameContaining("hall"))

	// assert
	require.NoError(t, err)
	require.NoError(t, result.Err())
	require.Len(t, result.Hits, 2)
	assert.Equal(t, "City Hall", result.Hits[0].Venue.Name)
	assert.Equal(t, partition.ID(1), result.Hits[0].Partition)
	assert.Equal(t, "Grand Hall", result.Hits[1].Venue.Name)
	assert.Equal(t, partition.ID(0), result.Hits[1].Partition)
	assert.Equal(t, venuestore.Venues{result.Hits[0].Venue, result.Hits[1].Venue}, result.Venues())
}

func Test_Search_When_OnePartitionIsUnreachable(t *testing.T) {
	// setup
	stores := newPartitions(t, 2)
	addVenue(t, stores[0], "Grand Hall", "Berlin", 200, 150)
	addVenue(t, stores[1], "City Hall", "Berlin", 80, 60)
	stores[1].SetUnavailable(true)
	engine := newEngine(t, stores)

	// act
	result, err := engine.Search(context.Background(), venuestore.BuildSearchFilter().NameContaining("hall"))

	// assert
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, "Grand Hall", result.Hits[0].Venue.Name)

	require.Len(t, result.Failures, 1)
	assert.Equal(t, partition.ID(1), result.Failures[0].Partition)
	assert.Equal(t, "p1", result.Failures[0].Name)
	assert.ErrorIs(t, result.Failures[0].Err, venuestore.ErrPartitionUnavailable)
	assert.ErrorIs(t, result.Err(), venuestore.ErrPartialFailure)
	assert.ErrorContains(t, result.Err(), "p1")
}

func Test_Search_When_AllOrNothingAndOnePartitionFails(t *testing.T) {
	// setup
	stores := newPartitions(t, 3)
	addVenue(t, stores[0], "Grand Hall", "Berlin", 200, 150)
	stores[2].SetUnavailable(true)
	engine := newEngine(t, stores)

	// act
	result, err := engine.Search(context.Background(), venuestore.BuildSearchFilter(), fanout.AllOrNothing())

	// assert
	assert.ErrorIs(t, err, venuestore.ErrPartitionUnavailable)
	assert.Empty(t, result.Hits)
	assert.Equal(t, []partition.ID{2}, result.Failures.Partitions())
}

func Test_Search_When_AllOrNothingCancelsSlowPartitions(t *testing.T) {
	// setup
	stores := newPartitions(t, 3)
	addVenue(t, stores[1], "Grand Hall", "Berlin", 200, 150)
	addVenue(t, stores[2], "City Hall", "Hamburg", 80, 60)
	stores[0].SetUnavailable(true)
	stores[1].SetDelay(200 * time.Millisecond)
	stores[2].SetDelay(200 * time.Millisecond)
	engine := newEngine(t, stores, fanout.WithPartitionTimeout(time.Second))

	// act
	result, err := engine.Search(context.Background(), venuestore.BuildSearchFilter(), fanout.AllOrNothing())

	// assert
	assert.ErrorIs(t, err, venuestore.ErrPartitionUnavailable)
	assert.Equal(t, []string{"p0"}, result.Failures.Names())
	assert.Equal(t, []partition.ID{0}, result.Failures.Partitions())
}

func Test_Search_When_AllPartitionsFail(t *testing.T) {
	// setup
	stores := newPartitions(t, 2)
	stores[0].SetUnavailable(true)
	stores[1].SetUnavailable(true)
	engine := newEngine(t, stores)

	// act
	result, err := engine.Search(context.Background(), venuestore.BuildSearchFilter())

	// assert
	assert.ErrorIs(t, err, venuestore.ErrPartitionUnavailable)
	assert.Len(t, result.Failures, 2)
}

func Test_Search_When_OnePartitionIsSlow(t *testing.T) {
	// setup
	stores := newPartitions(t, 2)
	addVenue(t, stores[0], "Grand Hall", "Berlin", 200, 150)
	addVenue(t, stores[1], "City Hall", "Berlin", 80, 60)
	stores[1].SetDelay(5 * time.Second)
	engine := newEngine(t, stores, fanout.WithPartitionTimeout(20*time.Millisecond))

	// act
	start := time.Now()
	result, err := engine.Search(context.Background(), venuestore.BuildSearchFilter())
	elapsed := time.Since(start)

	// assert
	require.NoError(t, err)
	assert.Less(t, elapsed, 2*time.Second)
	require.Len(t, result.Hits, 1)
	require.Len(t, result.Failures, 1)
	assert.ErrorIs(t, result.Failures[0].Err, context.DeadlineExceeded)
}

func Test_Search_When_ParentContextIsCanceled(t *testing.T) {
	// setup
	stores := newPartitions(t, 2)
	engine := newEngine(t, stores)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// act
	_, err := engine.Search(ctx, venuestore.BuildSearchFilter())

	// assert
	assert.ErrorIs(t, err, context.Canceled)
}

func Test_Search_When_PartitionIsMarkedUnhealthy(t *testing.T) {
	// setup
	stores := newPartitions(t, 2)
	addVenue(t, stores[0], "Grand Hall", "Berlin", 200, 150)
	engine := newEngine(t, stores, fanout.WithHealth(fixedHealth{1: false}))

	// act
	result, err := engine.Search(context.Background(), venuestore.BuildSearchFilter())

	// assert
	require.NoError(t, err)
	assert.Len(t, result.Hits, 1)
	require.Len(t, result.Failures, 1)
	assert.ErrorIs(t, result.Failures[0].Err, fanout.ErrPartitionUnhealthy)
	assert.Equal(t, 0, stores[1].Calls())
}

func Test_Search_When_FilterIsInvalid(t *testing.T) {
	// setup
	stores := newPartitions(t, 2)
	engine := newEngine(t, stores)

	// act
	_, err := engine.Search(context.Background(), venuestore.BuildSearchFilter().WithMaxPricePerHour(-1))

	// assert
	assert.ErrorIs(t, err, venuestore.ErrValidation)
	assert.Equal(t, 0, stores[0].Calls())
}

func Test_ListCities_When_CitiesRepeatAcrossPartitions(t *testing.T) {
	// setup
	stores := newPartitions(t, 3)
	addVenue(t, stores[0], "Grand Hall", "Berlin", 200, 150)
	addVenue(t, stores[1], "City Hall", "Berlin", 80, 60)
	addVenue(t, stores[1], "Blue Room", "Amsterdam", 20, 40)
	addVenue(t, stores[2], "Music Hall", "Vienna", 300, 90)
	engine := newEngine(t, stores)

	// act
	cities, citiesErr := engine.ListCities(context.Background())
	names, namesErr := engine.ListNames(context.Background())

	// assert
	require.NoError(t, citiesErr)
	require.NoError(t, namesErr)
	assert.Equal(t, []string{"Amsterdam", "Berlin", "Vienna"}, cities.Values)
	assert.Equal(t, []string{"Blue Room", "City Hall", "Grand Hall", "Music Hall"}, names.Values)
}

func Test_Aggregate_When_AveragingAcrossPartitions(t *testing.T) {
	// setup
	stores := newPartitions(t, 2)
	addVenue(t, stores[0], "A", "Berlin", 100, 10)
	addVenue(t, stores[1], "B", "Berlin", 20, 10)
	addVenue(t, stores[1], "C", "Berlin", 30, 10)
	addVenue(t, stores[1], "D", "Paris", 10, 10)
	engine := newEngine(t, stores)

	// act
	ungrouped, err := engine.Aggregate(context.Background(), venuestore.AggregateQuery{
		Kind:  venuestore.AggregateAverage,
		Field: venuestore.FieldCapacity,
	})
	require.NoError(t, err)

	grouped, err := engine.Aggregate(context.Background(), venuestore.AggregateQuery{
		Kind:    venuestore.AggregateSum,
		Field:   venuestore.FieldCapacity,
		GroupBy: venuestore.GroupByCity,
	})
	require.NoError(t, err)

	// assert
	require.Len(t, ungrouped.Rows, 1)
	assert.Equal(t, int64(4), ungrouped.Rows[0].Count)
	assert.InDelta(t, 40.0, ungrouped.Rows[0].Average, 0.0001)

	require.Len(t, grouped.Rows, 2)
	assert.Equal(t, "Berlin", grouped.Rows[0].Group)
	assert.InDelta(t, 150.0, grouped.Rows[0].Sum, 0.0001)
	assert.Equal(t, "Paris", grouped.Rows[1].Group)
	assert.InDelta(t, 10.0, grouped.Rows[1].Sum, 0.0001)
}

func Test_Aggregate_When_QueryIsInvalid(t *testing.T) {
	// setup
	engine := newEngine(t, newPartitions(t, 1))

	// act
	_, err := engine.Aggregate(context.Background(), venuestore.AggregateQuery{Kind: venuestore.AggregateSum})

	// assert
	assert.ErrorIs(t, err, venuestore.ErrValidation)
}

func Test_NewEngine_When_TargetsAreInvalid(t *testing.T) {
	reader := memstore.New("p0")

	testCases := []struct {
		name     string
		targets  []fanout.Target
		options  []fanout.Option
		expected error
	}{
		{name: "no targets", targets: nil, expected: fanout.ErrNoTargets},
		{name: "nil reader", targets: []fanout.Target{{ID: 0, Name: "p0"}}, expected: fanout.ErrInvalidTarget},
		{name: "empty name", targets: []fanout.Target{{ID: 0, Reader: reader}}, expected: fanout.ErrInvalidTarget},
		{
			name:     "duplicate id",
			targets:  []fanout.Target{{ID: 0, Name: "a", Reader: reader}, {ID: 0, Name: "b", Reader: reader}},
			expected: fanout.ErrInvalidTarget,
		},
		{
			name:     "zero timeout",
			targets:  []fanout.Target{{ID: 0, Name: "a", Reader: reader}},
			options:  []fanout.Option{fanout.WithPartitionTimeout(0)},
			expected: fanout.ErrInvalidTimeout,
		},
		{
			name:     "nil health checker",
			targets:  []fanout.Target{{ID: 0, Name: "a", Reader: reader}},
			options:  []fanout.Option{fanout.WithHealth(nil)},
			expected: fanout.ErrNilHealthChecker,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// act
			engine, err := fanout.NewEngine(tc.targets, tc.options...)

			// assert
			assert.ErrorIs(t, err, tc.expected)
			assert.Nil(t, engine)
		})
	}
}

func Test_Search_When_ObservabilityIsConfigured(t *testing.T) {
	// setup
	logger, logs := logspy.NewLogger()
	metrics := obsspy.NewMetricsSpy()
	tracing := obsspy.NewTracingSpy()

	stores := newPartitions(t, 2)
	addVenue(t, stores[0], "Grand Hall", "Berlin", 200, 150)
	stores[1].SetUnavailable(true)
	engine := newEngine(t, stores,
		fanout.WithLogger(logger),
		fanout.WithMetrics(metrics),
		fanout.WithTracing(tracing),
	)

	// act
	_, err := engine.Search(context.Background(), venuestore.BuildSearchFilter())

	// assert
	require.NoError(t, err)
	assert.True(t, logs.Find(slog.LevelWarn, "fanout partition call failed").WithAttr("partition", "p1").Found())
	assert.True(t, logs.Find(slog.LevelWarn, "fanout degraded: search").WithAttr("failed_partitions", "p1").WithDurationMS().Found())
	assert.True(t, metrics.HasDuration("fanout_query_duration_seconds", map[string]string{
		"operation": "search",
		"status":    venuestore.StatusPartial,
	}))
	assert.True(t, metrics.HasCounter("fanout_partition_failures_total", map[string]string{
		"partition":  "p1",
		"error_type": "partition_unavailable",
	}))

	spans := tracing.Spans("fanout.search")
	require.Len(t, spans, 1)
	assert.Equal(t, venuestore.StatusPartial, spans[0].Status)
	assert.Equal(t, "1", spans[0].EndAttributes["failed_partition_count"])
}
