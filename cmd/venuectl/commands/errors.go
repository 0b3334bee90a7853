package commands

import (
	"context"
	"errors"

	"github.com/AntonStoeckl/venue-shards-go/internal/printer"
	"github.com/AntonStoeckl/venue-shards-go/venuestore"
)

// present prints err with a title and hints that match its kind and returns the error for cobra.
func present(p *printer.Printer, err error) error {
	switch {
	case errors.Is(err, venuestore.ErrValidation):
		return p.Error("Invalid input", err.Error(), "Run the command with --help to see the expected formats")
	case errors.Is(err, venuestore.ErrVenueNotFound):
		return p.Error("Venue not found", err.Error(), "List the known venues with: venuectl search")
	case errors.Is(err, venuestore.ErrVenueAlreadyExists):
		return p.Error("Venue already exists", "Venue names are unique regardless of case.",
			"Pick another name", "Change the existing venue with: venuectl update-venue")
	case errors.Is(err, venuestore.ErrBookingOverlap):
		return p.Error("Slot not available", err.Error(), "List the booked slots with: venuectl bookings")
	case errors.Is(err, venuestore.ErrTransientConflict):
		return p.Error("Conflicting concurrent write", err.Error(), "Retry the command")
	case errors.Is(err, context.Canceled):
		return p.Error("Canceled", err.Error())
	case errors.Is(err, venuestore.ErrPartitionUnavailable), errors.Is(err, context.DeadlineExceeded):
		return p.Error("Partition unavailable", err.Error(),
			"Check the partitions with: venuectl health", "Run the query without --strict to get a partial answer")
	default:
		return p.Error("Command failed", err.Error())
	}
}

// warnFailedPartitions reports the partitions missing from a degraded result.
func warnFailedPartitions(p *printer.Printer, failed []string) {
	for _, name := range failed {
		p.Warning("partition %s did not answer, the result is incomplete", name)
	}
}
