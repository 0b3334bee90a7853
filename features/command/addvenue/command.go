package addvenue

import (
	"github.com/AntonStoeckl/venue-shards-go/venuestore"
)

const (
	commandType = "AddVenue"
)

// Command is the intent to add one venue.
type Command struct {
	Venue venuestore.Venue
}

// CommandType returns the type of this command for observability.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand validates the raw input. Invalid input fails with venuestore.ErrValidation.
func BuildCommand(name string, city string, capacity int, pricePerHour float64) (Command, error) {
	venue, err := venuestore.BuildVenue(name, city, capacity, pricePerHour)
	if err != nil {
		return Command{}, err
	}

	return Command{Venue: venue}, nil
}
