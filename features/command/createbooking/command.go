package createbooking

import (
	"github.com/AntonStoeckl/venue-shards-go/venuestore"
)

const (
	commandType = "CreateBooking"
)

// Command is the intent to book one venue for one slot.
type Command struct {
	Request venuestore.BookingRequest
}

// CommandType returns the type of this command for observability.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand parses date (YYYY-MM-DD) and the slot times (HH:MM), and validates the input.
func BuildCommand(venueName, clientName, date, startTime, endTime string) (Command, error) {
	request, err := venuestore.BuildBookingRequest(venueName, clientName, date, startTime, endTime)
	if err != nil {
		return Command{}, err
	}

	return Command{Request: request}, nil
}
