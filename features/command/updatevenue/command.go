// Package updatevenue implements the "Update Venue" admin use case.
// The name is the routing key and cannot change. City, capacity, and price can.
package updatevenue

import (
	"errors"
	"strings"

	"github.com/AntonStoeckl/venue-shards-go/venuestore"
)

const (
	commandType = "UpdateVenue"
)

// Command is the intent to change the attributes of one venue.
type Command struct {
	VenueName string
	Update    venuestore.VenueUpdate
}

// CommandType returns the type of this command for observability.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand validates the new attributes.
func BuildCommand(venueName string, city string, capacity int, pricePerHour float64) (Command, error) {
	venueName = strings.TrimSpace(venueName)
	if venueName == "" {
		return Command{}, errors.Join(venuestore.ErrValidation, errors.New("venue name must not be empty"))
	}

	update, err := venuestore.BuildVenueUpdate(city, capacity, pricePerHour)
	if err != nil {
		return Command{}, err
	}

	return Command{VenueName: venueName, Update: update}, nil
}
