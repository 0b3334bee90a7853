// Package addvenue implements the "Add Venue" use case.
//
// The venue name routes the command to exactly one partition. Uniqueness of the name within that
// partition is enforced by the partition store (unique key on the lower-cased name), so two
// concurrent adds of "Grand Hall" and "grand hall" end with one venue and one ErrVenueAlreadyExists.
// An optional venuelock.Locker serializes adds of the same name before they reach the store.
package addvenue
