// Package createbooking implements the "Create Booking" use case.
//
// The partition store checks the requested slot against the venue's bookings of that date and
// inserts the booking and its venue link in one transaction, holding the venue row lock. Two
// overlapping requests for the same venue can therefore never both commit. The optional
// venuelock.Locker adds mutual exclusion in front of the store, e.g. a Redis lock shared by
// several venuectl processes.
//
// Overlap, unknown venue, and invalid input are final outcomes. Only transient storage conflicts
// (serialization failures, deadlocks) are retried.
package createbooking
