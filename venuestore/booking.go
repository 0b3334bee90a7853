package venuestore

import (
	"sort"
	"strings"
)

// BookingID is the partition-local identity of a booking.
type BookingID = int64

// BookingRequest is a validated request to book one venue on one date for one interval.
type BookingRequest struct {
	VenueName  string
	ClientName string
	Date       Date
	Slot       Interval
}

// BuildBookingRequest parses and validates the raw booking input.
func BuildBookingRequest(venueName, clientName, date, startTime, endTime string) (BookingRequest, error) {
	venueName = strings.TrimSpace(venueName)
	if venueName == "" {
		return BookingRequest{}, validationError("venue name must not be empty")
	}

	clientName = strings.TrimSpace(clientName)
	if clientName == "" {
		return BookingRequest{}, validationError("client name must not be empty")
	}

	day, err := ParseDate(date)
	if err != nil {
		return BookingRequest{}, err
	}

	start, err := ParseTimeOfDay(startTime)
	if err != nil {
		return BookingRequest{}, err
	}

	end, err := ParseTimeOfDay(endTime)
	if err != nil {
		return BookingRequest{}, err
	}

	slot, err := NewInterval(start, end)
	if err != nil {
		return BookingRequest{}, err
	}

	return BookingRequest{
		VenueName:  venueName,
		ClientName: clientName,
		Date:       day,
		Slot:       slot,
	}, nil
}

// Booking is a committed reservation linked to exactly one venue in the same partition.
type Booking struct {
	ID         BookingID
	VenueID    VenueID
	ClientName string
	Date       Date
	Slot       Interval
}

// Bookings is a collection of bookings.
type Bookings []Booking

// SortByStart orders the bookings ascending by start time, then by ID.
func (b Bookings) SortByStart() {
	sort.SliceStable(b, func(i, j int) bool {
		if b[i].Slot.Start != b[j].Slot.Start {
			return b[i].Slot.Start < b[j].Slot.Start
		}

		return b[i].ID < b[j].ID
	})
}

// Slots returns the intervals of all bookings.
func (b Bookings) Slots() []Interval {
	slots := make([]Interval, 0, len(b))
	for _, booking := range b {
		slots = append(slots, booking.Slot)
	}

	return slots
}
