// Package listbookings implements the "List Bookings" use case: the occupied slots of one venue
// on one day, ascending by start. It asks only the partition owning the venue.
package listbookings

import (
	"errors"
	"strings"

	"github.com/AntonStoeckl/venue-shards-go/venuestore"
)

const (
	queryType = "ListBookings"
)

// Query names the venue and the day.
type Query struct {
	VenueName string
	Date      venuestore.Date
}

// QueryType returns the type of this query for observability.
func (q Query) QueryType() string {
	return queryType
}

// BuildQuery validates the venue name and parses the date (YYYY-MM-DD).
func BuildQuery(venueName string, date string) (Query, error) {
	venueName = strings.TrimSpace(venueName)
	if venueName == "" {
		return Query{}, errors.Join(venuestore.ErrValidation, errors.New("venue name must not be empty"))
	}

	day, err := venuestore.ParseDate(date)
	if err != nil {
		return Query{}, err
	}

	return Query{VenueName: venueName, Date: day}, nil
}
