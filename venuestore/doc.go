// Package venuestore provides the core domain types and rules for a sharded venue booking store.
//
// This package is storage-agnostic. It defines the venue and booking records, the calendar date
// and time-of-day values bookings are made of, the half-open interval overlap rule, search
// filters, partial and merged aggregates, and the sentinel errors shared by every engine.
//
// Venue names are the routing key. They are compared case-insensitively everywhere:
// RoutingKey normalizes a name for routing, uniqueness checks, and lookups,
// while Venue.Name keeps the casing it was created with.
//
// Key types:
//   - Venue: a bookable place owned by exactly one partition
//   - BookingRequest / Booking: a reservation of one venue on one date for one interval
//   - Interval: a half-open [Start, End) time-of-day range
//   - SearchFilter: keyword, city, and budget predicate evaluated per partition
//   - AggregateQuery / PartialAggregate / AggregateResult: fan-out aggregation
//
// Common usage pattern:
//
//	venue, err := venuestore.BuildVenue("Grand Hall", "LA", 200, 50)
//	if err != nil {
//		// errors.Is(err, venuestore.ErrValidation)
//	}
//
//	request, err := venuestore.BuildBookingRequest("Grand Hall", "Alice", "2024-06-01", "13:00", "14:00")
package venuestore
