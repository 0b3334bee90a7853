package postgresengine

import (
	"context"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/AntonStoeckl/venue-shards-go/venuestore"
	"github.com/AntonStoeckl/venue-shards-go/venuestore/postgresengine/internal/adapters"
)

const (
	operationFindVenue      = "find_venue"
	operationAddVenue       = "add_venue"
	operationUpdateVenue    = "update_venue"
	operationDeleteVenue    = "delete_venue"
	operationSearchVenues   = "search_venues"
	operationDistinctCities = "list_distinct_cities"
	operationDistinctNames  = "list_distinct_names"
	operationAggregate      = "aggregate_venues"

	likeEscaper = `\`
)

var likeReplacer = strings.NewReplacer(likeEscaper, likeEscaper+likeEscaper, "%", likeEscaper+"%", "_", likeEscaper+"_")

// FindVenueByName returns the venue whose routing key equals RoutingKey(name).
func (s *Store) FindVenueByName(ctx context.Context, name string) (venuestore.Venue, error) {
	observer, ctx := s.startOperation(ctx, operationFindVenue, &name)

	venue, err := s.findVenue(ctx, s.db, name, false)
	observer.finish(err, boolToCount(err == nil))

	return venue, err
}

// AddVenue inserts the venue and returns its partition-local ID.
// A venue with the same routing key yields ErrVenueAlreadyExists and leaves the existing row untouched.
func (s *Store) AddVenue(ctx context.Context, venue venuestore.Venue) (venuestore.VenueID, error) {
	observer, ctx := s.startOperation(ctx, operationAddVenue, &venue.Name)

	id, err := s.addVenue(ctx, venue)
	observer.finish(err, boolToCount(err == nil))

	return id, err
}

func (s *Store) addVenue(ctx context.Context, venue venuestore.Venue) (venuestore.VenueID, error) {
	ds := s.builder().
		Insert(s.tables.Venues).
		Rows(goqu.Record{
			colName:         venue.Name,
			colNameKey:      venue.Key(),
			colCity:         venue.City,
			colCapacity:     venue.Capacity,
			colPricePerHour: venue.PricePerHour,
		}).
		OnConflict(goqu.DoNothing()).
		Returning(goqu.C(colID)).
		Prepared(true)

	sqlQuery, args, err := s.toSQL(ctx, ds)
	if err != nil {
		return 0, err
	}

	rows, err := s.query(ctx, s.db, operationAddVenue, sqlQuery, args)
	if err != nil {
		return 0, err
	}

	ids, err := collectRows(ctx, s, rows, scanID)
	if err != nil {
		return 0, err
	}

	if len(ids) == 0 {
		return 0, venuestore.ErrVenueAlreadyExists
	}

	return ids[0], nil
}

// UpdateVenue changes city, capacity, and price of an existing venue and returns the updated venue.
func (s *Store) UpdateVenue(ctx context.Context, name string, update venuestore.VenueUpdate) (venuestore.Venue, error) {
	observer, ctx := s.startOperation(ctx, operationUpdateVenue, &name)

	venue, err := s.updateVenue(ctx, name, update)
	observer.finish(err, boolToCount(err == nil))

	return venue, err
}

func (s *Store) updateVenue(ctx context.Context, name string, update venuestore.VenueUpdate) (venuestore.Venue, error) {
	ds := s.builder().
		Update(s.tables.Venues).
		Set(goqu.Record{
			colCity:         update.City,
			colCapacity:     update.Capacity,
			colPricePerHour: update.PricePerHour,
		}).
		Where(goqu.C(colNameKey).Eq(venuestore.RoutingKey(name))).
		Returning(s.venueColumns()...).
		Prepared(true)

	sqlQuery, args, err := s.toSQL(ctx, ds)
	if err != nil {
		return venuestore.Venue{}, err
	}

	rows, err := s.query(ctx, s.db, operationUpdateVenue, sqlQuery, args)
	if err != nil {
		return venuestore.Venue{}, err
	}

	venues, err := collectRows(ctx, s, rows, scanVenue)
	if err != nil {
		return venuestore.Venue{}, err
	}

	if len(venues) == 0 {
		return venuestore.Venue{}, venuestore.ErrVenueNotFound
	}

	return venues[0], nil
}

// DeleteVenue removes the venue together with its links and bookings in one transaction.
// It returns the number of bookings removed.
func (s *Store) DeleteVenue(ctx context.Context, name string) (int, error) {
	observer, ctx := s.startOperation(ctx, operationDeleteVenue, &name)

	var removed int
	err := s.withTx(ctx, func(tx adapters.DBTx) error {
		venue, err := s.findVenue(ctx, tx, name, true)
		if err != nil {
			return err
		}

		bookingIDs, err := s.deleteLinks(ctx, tx, venue.ID)
		if err != nil {
			return err
		}

		if err = s.deleteBookings(ctx, tx, bookingIDs); err != nil {
			return err
		}

		removed = len(bookingIDs)

		ds := s.builder().
			Delete(s.tables.Venues).
			Where(goqu.C(colID).Eq(venue.ID)).
			Prepared(true)

		sqlQuery, args, err := s.toSQL(ctx, ds)
		if err != nil {
			return err
		}

		_, err = s.exec(ctx, tx, operationDeleteVenue, sqlQuery, args)

		return err
	})

	observer.finish(err, removed)

	return removed, err
}

func (s *Store) deleteLinks(ctx context.Context, tx adapters.DBTx, venueID venuestore.VenueID) ([]venuestore.BookingID, error) {
	ds := s.builder().
		Delete(s.tables.VenueBookings).
		Where(goqu.C(colVenueID).Eq(venueID)).
		Returning(goqu.C(colBookingID)).
		Prepared(true)

	sqlQuery, args, err := s.toSQL(ctx, ds)
	if err != nil {
		return nil, err
	}

	rows, err := s.query(ctx, tx, operationDeleteVenue, sqlQuery, args)
	if err != nil {
		return nil, err
	}

	return collectRows(ctx, s, rows, scanID)
}

func (s *Store) deleteBookings(ctx context.Context, tx adapters.DBTx, ids []venuestore.BookingID) error {
	if len(ids) == 0 {
		return nil
	}

	ds := s.builder().
		Delete(s.tables.Bookings).
		Where(goqu.C(colID).In(ids)).
		Prepared(true)

	sqlQuery, args, err := s.toSQL(ctx, ds)
	if err != nil {
		return err
	}

	_, err = s.exec(ctx, tx, operationDeleteVenue, sqlQuery, args)

	return err
}

// SearchVenues returns the venues matching the filter, ordered by routing key.
func (s *Store) SearchVenues(ctx context.Context, filter venuestore.SearchFilter) (venuestore.Venues, error) {
	observer, ctx := s.startOperation(ctx, operationSearchVenues, nil)

	venues, err := s.searchVenues(ctx, filter)
	observer.finish(err, len(venues))

	return venues, err
}

func (s *Store) searchVenues(ctx context.Context, filter venuestore.SearchFilter) (venuestore.Venues, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	ds := s.builder().
		From(s.tables.Venues).
		Select(s.venueColumns()...).
		Where(filterExpressions(filter)...).
		Order(goqu.C(colNameKey).Asc(), goqu.C(colID).Asc()).
		Prepared(true)

	sqlQuery, args, err := s.toSQL(ctx, ds)
	if err != nil {
		return nil, err
	}

	rows, err := s.query(ctx, s.db, operationSearchVenues, sqlQuery, args)
	if err != nil {
		return nil, err
	}

	return collectRows(ctx, s, rows, scanVenue)
}

// ListDistinctCities returns the distinct cities of this partition in ascending order.
func (s *Store) ListDistinctCities(ctx context.Context) ([]string, error) {
	return s.listDistinct(ctx, operationDistinctCities, colCity)
}

// ListDistinctNames returns the distinct venue names of this partition in ascending order.
func (s *Store) ListDistinctNames(ctx context.Context) ([]string, error) {
	return s.listDistinct(ctx, operationDistinctNames, colName)
}

func (s *Store) listDistinct(ctx context.Context, operation string, column string) ([]string, error) {
	observer, ctx := s.startOperation(ctx, operation, nil)

	values, err := s.queryDistinct(ctx, operation, column)
	observer.finish(err, len(values))

	return values, err
}

func (s *Store) queryDistinct(ctx context.Context, operation string, column string) ([]string, error) {
	ds := s.builder().
		From(s.tables.Venues).
		Select(goqu.C(column)).
		Distinct().
		Order(goqu.C(column).Asc()).
		Prepared(true)

	sqlQuery, args, err := s.toSQL(ctx, ds)
	if err != nil {
		return nil, err
	}

	rows, err := s.query(ctx, s.db, operation, sqlQuery, args)
	if err != nil {
		return nil, err
	}

	return collectRows(ctx, s, rows, scanString)
}

// AggregateVenues computes this partition's contribution to the aggregate query.
// The result merges with the other partitions' partials via venuestore.MergeAggregates.
func (s *Store) AggregateVenues(ctx context.Context, q venuestore.AggregateQuery) ([]venuestore.PartialAggregate, error) {
	observer, ctx := s.startOperation(ctx, operationAggregate, nil)

	partials, err := s.aggregateVenues(ctx, q)
	observer.finish(err, len(partials))

	return partials, err
}

func (s *Store) aggregateVenues(ctx context.Context, q venuestore.AggregateQuery) ([]venuestore.PartialAggregate, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	ds, distinct := s.aggregateDataset(q)

	sqlQuery, args, err := s.toSQL(ctx, ds)
	if err != nil {
		return nil, err
	}

	rows, err := s.query(ctx, s.db, operationAggregate, sqlQuery, args)
	if err != nil {
		return nil, err
	}

	grouped := q.GroupBy == venuestore.GroupByCity

	if !distinct {
		return collectRows(ctx, s, rows, func(r adapters.DBRows) (venuestore.PartialAggregate, error) {
			var p venuestore.PartialAggregate
			if grouped {
				return p, r.Scan(&p.Group, &p.Count, &p.Sum)
			}

			return p, r.Scan(&p.Count, &p.Sum)
		})
	}

	type distinctRow struct {
		group string
		value string
		count int64
	}

	distinctRows, err := collectRows(ctx, s, rows, func(r adapters.DBRows) (distinctRow, error) {
		var d distinctRow
		if grouped {
			return d, r.Scan(&d.group, &d.value, &d.count)
		}

		return d, r.Scan(&d.value, &d.count)
	})
	if err != nil {
		return nil, err
	}

	// rows arrive ordered by group, so consecutive rows fold into one partial
	partials := make([]venuestore.PartialAggregate, 0)
	for _, d := range distinctRows {
		if len(partials) == 0 || partials[len(partials)-1].Group != d.group {
			partials = append(partials, venuestore.PartialAggregate{Group: d.group})
		}

		last := &partials[len(partials)-1]
		last.Count += d.count
		last.Values = append(last.Values, d.value)
	}

	return partials, nil
}

// aggregateDataset builds the aggregate statement. The second result reports a distinct-values kind.
func (s *Store) aggregateDataset(q venuestore.AggregateQuery) (*goqu.SelectDataset, bool) {
	grouped := q.GroupBy == venuestore.GroupByCity
	columns := make([]any, 0, 4)
	groupBy := make([]any, 0, 2)

	if grouped {
		columns = append(columns, goqu.C(colCity).As(aliasGroup))
		groupBy = append(groupBy, goqu.C(colCity))
	}

	ds := s.builder().
		From(s.tables.Venues).
		Where(filterExpressions(q.Filter)...).
		Prepared(true)

	switch q.Kind {
	case venuestore.AggregateDistinctCities, venuestore.AggregateDistinctNames:
		valueColumn := colCity
		if q.Kind == venuestore.AggregateDistinctNames {
			valueColumn = colName
		}

		columns = append(columns, goqu.C(valueColumn).As(aliasValue), goqu.COUNT(goqu.Star()).As(aliasCount))
		groupBy = append(groupBy, goqu.C(valueColumn))

		return ds.Select(columns...).GroupBy(groupBy...).Order(orderBy(groupBy)...), true

	default:
		sum := goqu.L("CAST(0 AS FLOAT8)")
		if q.NeedsField() {
			sum = goqu.L("?", goqu.Cast(goqu.COALESCE(goqu.SUM(goqu.C(string(q.Field))), goqu.L("0")), castFloat8))
		}

		columns = append(columns, goqu.COUNT(goqu.Star()).As(aliasCount), sum.As(aliasSum))
		ds = ds.Select(columns...)

		if grouped {
			ds = ds.GroupBy(groupBy...).Order(orderBy(groupBy)...)
		}

		return ds, false
	}
}

func orderBy(columns []any) []exp.OrderedExpression {
	ordered := make([]exp.OrderedExpression, 0, len(columns))
	for _, column := range columns {
		ordered = append(ordered, column.(exp.IdentifierExpression).Asc())
	}

	return ordered
}

// filterExpressions translates the search filter into WHERE conditions.
func filterExpressions(filter venuestore.SearchFilter) []exp.Expression {
	conditions := make([]exp.Expression, 0, 3)

	if keyword := filter.Keyword(); keyword != "" {
		conditions = append(conditions, goqu.C(colName).ILike("%"+likeReplacer.Replace(keyword)+"%"))
	}

	if city := filter.City(); city != "" {
		conditions = append(conditions, goqu.Func("LOWER", goqu.C(colCity)).Eq(goqu.Func("LOWER", city)))
	}

	if maxPrice, ok := filter.MaxPricePerHour(); ok {
		conditions = append(conditions, goqu.C(colPricePerHour).Lte(maxPrice))
	}

	return conditions
}

// findVenue loads one venue by routing key, optionally locking its row for the surrounding transaction.
func (s *Store) findVenue(ctx context.Context, q adapters.Querier, name string, forUpdate bool) (venuestore.Venue, error) {
	ds := s.builder().
		From(s.tables.Venues).
		Select(s.venueColumns()...).
		Where(goqu.C(colNameKey).Eq(venuestore.RoutingKey(name))).
		Prepared(true)

	if forUpdate {
		ds = ds.ForUpdate(exp.Wait)
	}

	sqlQuery, args, err := s.toSQL(ctx, ds)
	if err != nil {
		return venuestore.Venue{}, err
	}

	rows, err := s.query(ctx, q, operationFindVenue, sqlQuery, args)
	if err != nil {
		return venuestore.Venue{}, err
	}

	venues, err := collectRows(ctx, s, rows, scanVenue)
	if err != nil {
		return venuestore.Venue{}, err
	}

	if len(venues) == 0 {
		return venuestore.Venue{}, venuestore.ErrVenueNotFound
	}

	return venues[0], nil
}

func (s *Store) venueColumns() []any {
	return []any{
		goqu.C(colID),
		goqu.C(colName),
		goqu.C(colCity),
		goqu.C(colCapacity),
		goqu.Cast(goqu.C(colPricePerHour), castFloat8).As(colPricePerHour),
	}
}

func scanVenue(rows adapters.DBRows) (venuestore.Venue, error) {
	var v venuestore.Venue
	err := rows.Scan(&v.ID, &v.Name, &v.City, &v.Capacity, &v.PricePerHour)

	return v, err
}

func scanID(rows adapters.DBRows) (int64, error) {
	var id int64
	err := rows.Scan(&id)

	return id, err
}

func scanString(rows adapters.DBRows) (string, error) {
	var value string
	err := rows.Scan(&value)

	return value, err
}

func boolToCount(ok bool) int {
	if ok {
		return 1
	}

	return 0
}
