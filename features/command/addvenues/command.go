package addvenues

import (
	"github.com/AntonStoeckl/venue-shards-go/venuestore"
)

const (
	commandType = "AddVenues"
)

// Rejection is a spec that failed validation. Index is its position in the input.
type Rejection struct {
	Index int
	Name  string
	Err   error
}

// Command is the intent to add many venues.
// Venues holds the valid specs, Rejected the ones that failed validation.
type Command struct {
	Venues   venuestore.Venues
	Rejected []Rejection
}

// CommandType returns the type of this command for observability.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand validates every spec. It never fails as a whole: invalid specs end up in Rejected.
func BuildCommand(specs []VenueSpec) Command {
	command := Command{Venues: make(venuestore.Venues, 0, len(specs))}

	for i, spec := range specs {
		venue, err := venuestore.BuildVenue(spec.Name, spec.City, spec.Capacity, spec.PricePerHour)
		if err != nil {
			command.Rejected = append(command.Rejected, Rejection{Index: i, Name: spec.Name, Err: err})
			continue
		}

		command.Venues = append(command.Venues, venue)
	}

	return command
}
