package venuestore

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// VenueID is the partition-local identity of a venue.
type VenueID = int64

// Venue is a bookable place. It is owned by exactly one partition, selected by RoutingKey(Name).
type Venue struct {
	ID           VenueID
	Name         string
	City         string
	Capacity     int
	PricePerHour float64
}

// Venues is a collection of venues.
type Venues []Venue

// VenueUpdate holds the mutable attributes of a venue. The name is the routing key and never changes.
type VenueUpdate struct {
	City         string
	Capacity     int
	PricePerHour float64
}

// RoutingKey normalizes a venue name for partition routing, uniqueness, and lookups.
func RoutingKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Key returns the routing key of the venue.
func (v Venue) Key() string {
	return RoutingKey(v.Name)
}

// BuildVenue validates the raw attributes and returns a Venue without an ID.
func BuildVenue(name string, city string, capacity int, pricePerHour float64) (Venue, error) {
	venue := Venue{
		Name:         strings.TrimSpace(name),
		City:         strings.TrimSpace(city),
		Capacity:     capacity,
		PricePerHour: pricePerHour,
	}

	if venue.Name == "" {
		return Venue{}, validationError("venue name must not be empty")
	}

	if err := validateAttributes(venue.City, venue.Capacity, venue.PricePerHour); err != nil {
		return Venue{}, err
	}

	return venue, nil
}

// BuildVenueUpdate validates the mutable attributes of a venue.
func BuildVenueUpdate(city string, capacity int, pricePerHour float64) (VenueUpdate, error) {
	update := VenueUpdate{
		City:         strings.TrimSpace(city),
		Capacity:     capacity,
		PricePerHour: pricePerHour,
	}

	if err := validateAttributes(update.City, update.Capacity, update.PricePerHour); err != nil {
		return VenueUpdate{}, err
	}

	return update, nil
}

// Apply returns a copy of the venue with the update applied.
func (u VenueUpdate) Apply(v Venue) Venue {
	v.City = u.City
	v.Capacity = u.Capacity
	v.PricePerHour = u.PricePerHour

	return v
}

func validateAttributes(city string, capacity int, pricePerHour float64) error {
	if city == "" {
		return validationError("venue city must not be empty")
	}

	if capacity <= 0 {
		return validationError(fmt.Sprintf("venue capacity must be positive, got %d", capacity))
	}

	if math.IsNaN(pricePerHour) || math.IsInf(pricePerHour, 0) || pricePerHour < 0 {
		return validationError(fmt.Sprintf("venue price per hour must be a non-negative number, got %v", pricePerHour))
	}

	return nil
}

func validationError(msg string) error {
	return errors.Join(ErrValidation, errors.New(msg))
}
