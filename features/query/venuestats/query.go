// Package venuestats implements the "Venue Statistics" use case: counts, sums, averages, and
// distinct values over the venues of every partition, optionally grouped by city and restricted
// by a search filter.
package venuestats

import (
	"strings"

	"github.com/AntonStoeckl/venue-shards-go/venuestore"
)

const (
	queryType = "VenueStats"
)

// Query wraps a validated aggregate query.
type Query struct {
	Aggregate venuestore.AggregateQuery
	Strict    bool
}

// QueryType returns the type of this query for observability.
func (q Query) QueryType() string {
	return queryType
}

// BuildQuery parses the raw kind, field, and grouping. Field is ignored for kinds that do not need one.
func BuildQuery(kind string, field string, groupBy string, filter venuestore.SearchFilter, strict bool) (Query, error) {
	aggregate := venuestore.AggregateQuery{
		Kind:    venuestore.AggregateKind(normalize(kind)),
		Field:   venuestore.AggregateField(normalize(field)),
		GroupBy: venuestore.GroupBy(normalize(groupBy)),
		Filter:  filter,
	}

	if !aggregate.NeedsField() {
		aggregate.Field = ""
	}

	if err := aggregate.Validate(); err != nil {
		return Query{}, err
	}

	return Query{Aggregate: aggregate, Strict: strict}, nil
}

func normalize(raw string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "-", "_")
}
