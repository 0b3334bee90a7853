// Package memstore is an in-memory partition store with failure injection, used by unit tests.
// It has the same operation set as postgresengine.Store and evaluates filters and aggregates
// with the venuestore domain functions.
package memstore

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/AntonStoeckl/venue-shards-go/venuestore"
)

// ErrUnreachable is the cause attached to failures injected with SetUnavailable.
var ErrUnreachable = errors.New("memstore: partition unreachable")

// Store is one in-memory partition.
type Store struct {
	mu            sync.Mutex
	name          string
	venues        map[string]venuestore.Venue
	bookings      map[venuestore.VenueID]venuestore.Bookings
	nextVenueID   venuestore.VenueID
	nextBookingID venuestore.BookingID

	unavailable bool
	delay       time.Duration
	failures    []error
	calls       int
}

// New creates an empty partition named name.
func New(name string) *Store {
	return &Store{
		name:     name,
		venues:   make(map[string]venuestore.Venue),
		bookings: make(map[venuestore.VenueID]venuestore.Bookings),
	}
}

// PartitionName returns the partition name.
func (s *Store) PartitionName() string {
	return s.name
}

// SetUnavailable makes every following call fail with ErrPartitionUnavailable until reset.
func (s *Store) SetUnavailable(unavailable bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unavailable = unavailable
}

// SetDelay delays every following call by d, or until the call's context is done.
func (s *Store) SetDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

// FailNextWith queues errors returned by the next calls, one per call.
func (s *Store) FailNextWith(errs ...error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, errs...)
}

// Calls returns how many operations reached the store.
func (s *Store) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.calls
}

// enter simulates the network hop and returns an injected failure if there is one.
func (s *Store) enter(ctx context.Context) error {
	s.mu.Lock()
	s.calls++
	unavailable, delay := s.unavailable, s.delay

	var injected error
	if len(s.failures) > 0 {
		injected = s.failures[0]
		s.failures = s.failures[1:]
	}
	s.mu.Unlock()

	if unavailable {
		return errors.Join(venuestore.ErrPartitionUnavailable, ErrUnreachable)
	}

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-ctx.Done():
			return errors.Join(venuestore.ErrPartitionUnavailable, ctx.Err())
		}
	}

	if err := ctx.Err(); err != nil {
		return errors.Join(venuestore.ErrPartitionUnavailable, err)
	}

	return injected
}

// Ping reports whether the partition answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.enter(ctx)
}

// FindVenueByName returns the venue with the routing key of name.
func (s *Store) FindVenueByName(ctx context.Context, name string) (venuestore.Venue, error) {
	if err := s.enter(ctx); err != nil {
		return venuestore.Venue{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	venue, ok := s.venues[venuestore.RoutingKey(name)]
	if !ok {
		return venuestore.Venue{}, venuestore.ErrVenueNotFound
	}

	return venue, nil
}

// AddVenue inserts the venue unless its routing key is taken.
func (s *Store) AddVenue(ctx context.Context, venue venuestore.Venue) (venuestore.VenueID, error) {
	if err := s.enter(ctx); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.venues[venue.Key()]; exists {
		return 0, venuestore.ErrVenueAlreadyExists
	}

	s.nextVenueID++
	venue.ID = s.nextVenueID
	s.venues[venue.Key()] = venue

	return venue.ID, nil
}

// UpdateVenue applies the update to an existing venue.
func (s *Store) UpdateVenue(ctx context.Context, name string, update venuestore.VenueUpdate) (venuestore.Venue, error) {
	if err := s.enter(ctx); err != nil {
		return venuestore.Venue{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	venue, ok := s.venues[venuestore.RoutingKey(name)]
	if !ok {
		return venuestore.Venue{}, venuestore.ErrVenueNotFound
	}

	venue = update.Apply(venue)
	s.venues[venue.Key()] = venue

	return venue, nil
}

// DeleteVenue removes the venue and its bookings, returning the number of removed bookings.
func (s *Store) DeleteVenue(ctx context.Context, name string) (int, error) {
	if err := s.enter(ctx); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := venuestore.RoutingKey(name)

	venue, ok := s.venues[key]
	if !ok {
		return 0, venuestore.ErrVenueNotFound
	}

	removed := len(s.bookings[venue.ID])
	delete(s.bookings, venue.ID)
	delete(s.venues, key)

	return removed, nil
}

// CreateBooking books the slot unless it overlaps a booking of the same venue and date.
func (s *Store) CreateBooking(ctx context.Context, req venuestore.BookingRequest) (venuestore.Booking, error) {
	if err := s.enter(ctx); err != nil {
		return venuestore.Booking{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	venue, ok := s.venues[venuestore.RoutingKey(req.VenueName)]
	if !ok {
		return venuestore.Booking{}, venuestore.ErrVenueNotFound
	}

	if _, found := venuestore.FirstOverlap(s.bookingsOn(venue.ID, req.Date).Slots(), req.Slot); found {
		return venuestore.Booking{}, venuestore.ErrBookingOverlap
	}

	s.nextBookingID++
	booking := venuestore.Booking{
		ID:         s.nextBookingID,
		VenueID:    venue.ID,
		ClientName: req.ClientName,
		Date:       req.Date,
		Slot:       req.Slot,
	}
	s.bookings[venue.ID] = append(s.bookings[venue.ID], booking)

	return booking, nil
}

// ListBookings returns the venue's bookings on date ascending by start.
func (s *Store) ListBookings(ctx context.Context, venueName string, date venuestore.Date) (venuestore.Bookings, error) {
	if err := s.enter(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	venue, ok := s.venues[venuestore.RoutingKey(venueName)]
	if !ok {
		return nil, venuestore.ErrVenueNotFound
	}

	return s.bookingsOn(venue.ID, date), nil
}

func (s *Store) bookingsOn(venueID venuestore.VenueID, date venuestore.Date) venuestore.Bookings {
	found := make(venuestore.Bookings, 0)
	for _, b := range s.bookings[venueID] {
		if b.Date == date {
			found = append(found, b)
		}
	}

	found.SortByStart()

	return found
}

// SearchVenues returns the matching venues ordered by routing key.
func (s *Store) SearchVenues(ctx context.Context, filter venuestore.SearchFilter) (venuestore.Venues, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	if err := s.enter(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	found := make(venuestore.Venues, 0)
	for _, v := range s.venues {
		if filter.Matches(v) {
			found = append(found, v)
		}
	}

	sort.Slice(found, func(i, j int) bool { return found[i].Key() < found[j].Key() })

	return found, nil
}

// ListDistinctCities returns the distinct cities in ascending order.
func (s *Store) ListDistinctCities(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, func(v venuestore.Venue) string { return v.City })
}

// ListDistinctNames returns the distinct names in ascending order.
func (s *Store) ListDistinctNames(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, func(v venuestore.Venue) string { return v.Name })
}

func (s *Store) distinct(ctx context.Context, value func(venuestore.Venue) string) ([]string, error) {
	if err := s.enter(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	values := make([]string, 0, len(s.venues))
	for _, v := range s.venues {
		values = append(values, value(v))
	}

	slices.Sort(values)

	return slices.Compact(values), nil
}

// AggregateVenues computes this partition's partial aggregate.
func (s *Store) AggregateVenues(ctx context.Context, q venuestore.AggregateQuery) ([]venuestore.PartialAggregate, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	if err := s.enter(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	venues := make(venuestore.Venues, 0, len(s.venues))
	for _, v := range s.venues {
		venues = append(venues, v)
	}

	sort.Slice(venues, func(i, j int) bool { return venues[i].ID < venues[j].ID })

	return venuestore.ComputePartial(venues, q), nil
}
