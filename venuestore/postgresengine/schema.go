package postgresengine

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const (
	logActionCreateSchema = "create_schema"
	operationCreateSchema = "create_schema"
)

// CreateSchema creates the partition tables and indexes if they do not exist yet.
// The unique name_key column enforces case-insensitive name uniqueness within the partition.
func (s *Store) CreateSchema(ctx context.Context) error {
	observer, ctx := s.startOperation(ctx, operationCreateSchema, nil)

	for _, statement := range s.schemaStatements() {
		if _, err := s.exec(ctx, s.db, logActionCreateSchema, statement, nil); err != nil {
			observer.finish(err, 0)
			return err
		}
	}

	observer.finish(nil, 0)

	return nil
}

func (s *Store) schemaStatements() []string {
	venues := quoteIdent(s.tables.Venues)
	bookings := quoteIdent(s.tables.Bookings)
	links := quoteIdent(s.tables.VenueBookings)
	bookingsDateIndex := quoteIdent(s.tables.Bookings + "_date_idx")
	linksBookingIndex := quoteIdent(s.tables.VenueBookings + "_booking_idx")

	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	name_key TEXT NOT NULL UNIQUE,
	city TEXT NOT NULL,
	capacity INTEGER NOT NULL CHECK (capacity > 0),
	price_per_hour NUMERIC(10, 2) NOT NULL CHECK (price_per_hour >= 0)
)`, venues),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id BIGSERIAL PRIMARY KEY,
	client_name TEXT NOT NULL,
	booking_date DATE NOT NULL,
	start_time TIME NOT NULL,
	end_time TIME NOT NULL,
	CHECK (start_time < end_time)
)`, bookings),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	venue_id BIGINT NOT NULL REFERENCES %s (id),
	booking_id BIGINT NOT NULL REFERENCES %s (id),
	PRIMARY KEY (venue_id, booking_id)
)`, links, venues, bookings),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (booking_date)`, bookingsDateIndex, bookings),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (booking_id)`, linksBookingIndex, links),
	}
}

func quoteIdent(name string) string {
	return pgx.Identifier{name}.Sanitize()
}
