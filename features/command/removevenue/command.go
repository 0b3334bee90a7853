// Package removevenue implements the "Remove Venue" admin use case.
// The venue, its bookings, and the links between them are deleted in one transaction.
package removevenue

import (
	"errors"
	"strings"

	"github.com/AntonStoeckl/venue-shards-go/venuestore"
)

const (
	commandType = "RemoveVenue"
)

// Command is the intent to delete one venue with all its bookings.
type Command struct {
	VenueName string
}

// CommandType returns the type of this command for observability.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand validates the venue name.
func BuildCommand(venueName string) (Command, error) {
	venueName = strings.TrimSpace(venueName)
	if venueName == "" {
		return Command{}, errors.Join(venuestore.ErrValidation, errors.New("venue name must not be empty"))
	}

	return Command{VenueName: venueName}, nil
}
