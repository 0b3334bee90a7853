package postgresengine

import (
	"context"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/AntonStoeckl/venue-shards-go/venuestore"
	"github.com/AntonStoeckl/venue-shards-go/venuestore/postgresengine/internal/adapters"
)

const (
	operationCreateBooking = "create_booking"
	operationListBookings  = "list_bookings"
)

// CreateBooking books the requested slot for the venue, atomically with respect to concurrent bookers.
//
// The venue row is locked with SELECT ... FOR UPDATE, so two transactions booking the same venue
// run one after another while bookings for other venues proceed in parallel. Within the lock the
// day's bookings are checked for overlap, then the booking and its venue link are inserted.
// Either both rows commit or neither does.
func (s *Store) CreateBooking(ctx context.Context, req venuestore.BookingRequest) (venuestore.Booking, error) {
	observer, ctx := s.startOperation(ctx, operationCreateBooking, &req.VenueName)

	var booking venuestore.Booking
	err := s.withTx(ctx, func(tx adapters.DBTx) error {
		venue, err := s.findVenue(ctx, tx, req.VenueName, true)
		if err != nil {
			return err
		}

		existing, err := s.bookingsOfDay(ctx, tx, venue.ID, req.Date)
		if err != nil {
			return err
		}

		if conflict, found := venuestore.FirstOverlap(existing.Slots(), req.Slot); found {
			return errors.Join(
				venuestore.ErrBookingOverlap,
				fmt.Errorf("%s on %s overlaps %s", req.Slot, req.Date, conflict),
			)
		}

		bookingID, err := s.insertBooking(ctx, tx, req)
		if err != nil {
			return err
		}

		if err = s.insertLink(ctx, tx, venue.ID, bookingID); err != nil {
			return err
		}

		booking = venuestore.Booking{
			ID:         bookingID,
			VenueID:    venue.ID,
			ClientName: req.ClientName,
			Date:       req.Date,
			Slot:       req.Slot,
		}

		return nil
	})

	observer.finish(err, boolToCount(err == nil))

	return booking, err
}

// ListBookings returns the venue's bookings on date, ascending by start time.
// An unknown venue yields ErrVenueNotFound, a known venue without bookings an empty list.
func (s *Store) ListBookings(ctx context.Context, venueName string, date venuestore.Date) (venuestore.Bookings, error) {
	observer, ctx := s.startOperation(ctx, operationListBookings, &venueName)

	bookings, err := s.listBookings(ctx, venueName, date)
	observer.finish(err, len(bookings))

	return bookings, err
}

func (s *Store) listBookings(ctx context.Context, venueName string, date venuestore.Date) (venuestore.Bookings, error) {
	venue, err := s.findVenue(ctx, s.db, venueName, false)
	if err != nil {
		return nil, err
	}

	return s.bookingsOfDay(ctx, s.db, venue.ID, date)
}

func (s *Store) bookingsOfDay(
	ctx context.Context,
	q adapters.Querier,
	venueID venuestore.VenueID,
	date venuestore.Date,
) (venuestore.Bookings, error) {

	booking := func(col string) any { return goqu.I(aliasBooking + "." + col) }
	link := func(col string) any { return goqu.I(aliasLink + "." + col) }

	ds := s.builder().
		From(goqu.T(s.tables.Bookings).As(aliasBooking)).
		Join(
			goqu.T(s.tables.VenueBookings).As(aliasLink),
			goqu.On(goqu.I(aliasLink+"."+colBookingID).Eq(goqu.I(aliasBooking+"."+colID))),
		).
		Select(
			booking(colID),
			link(colVenueID),
			booking(colClientName),
			goqu.Cast(goqu.I(aliasBooking+"."+colBookingDate), castText),
			goqu.Cast(goqu.I(aliasBooking+"."+colStartTime), castText),
			goqu.Cast(goqu.I(aliasBooking+"."+colEndTime), castText),
		).
		Where(
			goqu.I(aliasLink+"."+colVenueID).Eq(venueID),
			goqu.I(aliasBooking+"."+colBookingDate).Eq(goqu.Cast(goqu.V(date.String()), castDate)),
		).
		Order(goqu.I(aliasBooking+"."+colStartTime).Asc(), goqu.I(aliasBooking+"."+colID).Asc()).
		Prepared(true)

	sqlQuery, args, err := s.toSQL(ctx, ds)
	if err != nil {
		return nil, err
	}

	rows, err := s.query(ctx, q, operationListBookings, sqlQuery, args)
	if err != nil {
		return nil, err
	}

	bookings, err := collectRows(ctx, s, rows, scanBooking)
	if err != nil {
		return nil, err
	}

	result := venuestore.Bookings(bookings)
	result.SortByStart()

	return result, nil
}

func (s *Store) insertBooking(ctx context.Context, tx adapters.DBTx, req venuestore.BookingRequest) (venuestore.BookingID, error) {
	ds := s.builder().
		Insert(s.tables.Bookings).
		Rows(goqu.Record{
			colClientName:  req.ClientName,
			colBookingDate: goqu.Cast(goqu.V(req.Date.String()), castDate),
			colStartTime:   goqu.Cast(goqu.V(req.Slot.Start.String()), castTime),
			colEndTime:     goqu.Cast(goqu.V(req.Slot.End.String()), castTime),
		}).
		Returning(goqu.C(colID)).
		Prepared(true)

	sqlQuery, args, err := s.toSQL(ctx, ds)
	if err != nil {
		return 0, err
	}

	rows, err := s.query(ctx, tx, operationCreateBooking, sqlQuery, args)
	if err != nil {
		return 0, err
	}

	ids, err := collectRows(ctx, s, rows, scanID)
	if err != nil {
		return 0, err
	}

	if len(ids) == 0 {
		return 0, errors.Join(venuestore.ErrExecutingFailed, errors.New("insert returned no booking id"))
	}

	return ids[0], nil
}

func (s *Store) insertLink(ctx context.Context, tx adapters.DBTx, venueID venuestore.VenueID, bookingID venuestore.BookingID) error {
	ds := s.builder().
		Insert(s.tables.VenueBookings).
		Rows(goqu.Record{
			colVenueID:   venueID,
			colBookingID: bookingID,
		}).
		Prepared(true)

	sqlQuery, args, err := s.toSQL(ctx, ds)
	if err != nil {
		return err
	}

	_, err = s.exec(ctx, tx, operationCreateBooking, sqlQuery, args)

	return err
}

func scanBooking(rows adapters.DBRows) (venuestore.Booking, error) {
	var (
		b                venuestore.Booking
		date, start, end string
	)

	if err := rows.Scan(&b.ID, &b.VenueID, &b.ClientName, &date, &start, &end); err != nil {
		return venuestore.Booking{}, err
	}

	var err error
	if b.Date, err = venuestore.ParseDate(date); err != nil {
		return venuestore.Booking{}, err
	}

	startTime, err := venuestore.ParseTimeOfDay(start)
	if err != nil {
		return venuestore.Booking{}, err
	}

	endTime, err := venuestore.ParseTimeOfDay(end)
	if err != nil {
		return venuestore.Booking{}, err
	}

	b.Slot = venuestore.Interval{Start: startTime, End: endTime}

	return b, nil
}
