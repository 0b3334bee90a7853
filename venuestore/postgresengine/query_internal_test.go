package postgresengine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/venue-shards-go/venuestore"
)

func newQueryTestStore(t *testing.T, options ...Option) *Store {
	t.Helper()

	s, err := newStore(nil, options...)
	require.NoError(t, err)

	return s
}

func Test_filterExpressions_When_AllCriteriaSet(t *testing.T) {
	// setup
	s := newQueryTestStore(t)

	// arrange
	filter := venuestore.BuildSearchFilter().
		NameContaining(`50%_off\`).
		InCity("Berlin").
		WithMaxPricePerHour(100)

	ds := s.builder().From(s.tables.Venues).Select(s.venueColumns()...).Where(filterExpressions(filter)...).Prepared(true)

	// act
	sqlQuery, args, err := s.toSQL(context.Background(), ds)

	// assert
	require.NoError(t, err)
	assert.Contains(t, sqlQuery, `"name" ILIKE $1`)
	assert.Contains(t, sqlQuery, `LOWER("city") = LOWER($2)`)
	assert.Contains(t, sqlQuery, `"price_per_hour" <= $3`)
	assert.Contains(t, sqlQuery, `CAST("price_per_hour" AS FLOAT8) AS "price_per_hour"`)
	assert.Equal(t, []any{`%50\%\_off\\%`, "Berlin", float64(100)}, args)
}

func Test_filterExpressions_When_FilterIsEmpty(t *testing.T) {
	// act
	conditions := filterExpressions(venuestore.BuildSearchFilter())

	// assert
	assert.Empty(t, conditions)
}

func Test_aggregateDataset_When_GroupedSum(t *testing.T) {
	// setup
	s := newQueryTestStore(t)

	// arrange
	q := venuestore.AggregateQuery{
		Kind:    venuestore.AggregateSum,
		Field:   venuestore.FieldCapacity,
		GroupBy: venuestore.GroupByCity,
	}

	// act
	ds, distinct := s.aggregateDataset(q)
	sqlQuery, _, err := s.toSQL(context.Background(), ds)

	// assert
	require.NoError(t, err)
	assert.False(t, distinct)
	assert.Contains(t, sqlQuery, `"city" AS "grp"`)
	assert.Contains(t, sqlQuery, `COUNT(*) AS "venue_count"`)
	assert.Contains(t, sqlQuery, `COALESCE(SUM("capacity")`)
	assert.Contains(t, sqlQuery, `AS "field_sum"`)
	assert.Contains(t, sqlQuery, `GROUP BY "city"`)
	assert.Contains(t, sqlQuery, `ORDER BY "city" ASC`)
}

func Test_aggregateDataset_When_UngroupedCount(t *testing.T) {
	// setup
	s := newQueryTestStore(t)

	// arrange
	q := venuestore.AggregateQuery{Kind: venuestore.AggregateCount}

	// act
	ds, distinct := s.aggregateDataset(q)
	sqlQuery, _, err := s.toSQL(context.Background(), ds)

	// assert
	require.NoError(t, err)
	assert.False(t, distinct)
	assert.Contains(t, sqlQuery, `CAST(0 AS FLOAT8) AS "field_sum"`)
	assert.NotContains(t, sqlQuery, "GROUP BY")
}

func Test_aggregateDataset_When_DistinctNamesPerCity(t *testing.T) {
	// setup
	s := newQueryTestStore(t)

	// arrange
	q := venuestore.AggregateQuery{
		Kind:    venuestore.AggregateDistinctNames,
		GroupBy: venuestore.GroupByCity,
		Filter:  venuestore.BuildSearchFilter().InCity("Paris"),
	}

	// act
	ds, distinct := s.aggregateDataset(q)
	sqlQuery, args, err := s.toSQL(context.Background(), ds)

	// assert
	require.NoError(t, err)
	assert.True(t, distinct)
	assert.Contains(t, sqlQuery, `"name" AS "val"`)
	assert.Contains(t, sqlQuery, `GROUP BY "city", "name"`)
	assert.Equal(t, []any{"Paris"}, args)
}

func Test_findVenueQuery_When_TableNamesAreCustom(t *testing.T) {
	// setup
	s := newQueryTestStore(t, WithTableNames(TableNames{
		Venues:        "shard_venues",
		Bookings:      "shard_bookings",
		VenueBookings: "shard_links",
	}))

	// arrange
	ds := s.builder().
		From(s.tables.Venues).
		Select(s.venueColumns()...)

	// act
	sqlQuery, _, err := s.toSQL(context.Background(), ds)

	// assert
	require.NoError(t, err)
	assert.Contains(t, sqlQuery, `FROM "shard_venues"`)
	assert.Contains(t, s.schemaStatements()[2], `REFERENCES "shard_venues" (id)`)
	assert.Contains(t, s.schemaStatements()[2], `REFERENCES "shard_bookings" (id)`)
}
