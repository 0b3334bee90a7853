// Package searchvenues implements the "Search Venues" use case.
//
// The search fans out to every partition. By default a partition that fails or times out is
// reported in the result and the answers of the others are returned. A strict query fails
// instead with venuestore.ErrPartialFailure.
package searchvenues

import (
	"github.com/AntonStoeckl/venue-shards-go/venuestore"
)

const (
	queryType = "SearchVenues"
)

// Query holds the validated search criteria.
type Query struct {
	Filter venuestore.SearchFilter
	Strict bool
}

// QueryType returns the type of this query for observability.
func (q Query) QueryType() string {
	return queryType
}

// BuildQuery validates the criteria. An empty keyword matches every name, an empty city every city.
// maxPricePerHour is optional.
func BuildQuery(keyword string, city string, maxPricePerHour *float64, strict bool) (Query, error) {
	filter := venuestore.BuildSearchFilter().NameContaining(keyword).InCity(city)
	if maxPricePerHour != nil {
		filter = filter.WithMaxPricePerHour(*maxPricePerHour)
	}

	if err := filter.Validate(); err != nil {
		return Query{}, err
	}

	return Query{Filter: filter, Strict: strict}, nil
}
