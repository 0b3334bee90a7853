// Package postgresengine provides the PostgreSQL implementation of one venue partition.
//
// A Store owns three tables in its partition database: venues, bookings, and the
// venue_bookings link table. It implements the venue repository (find, add, update, delete,
// search, distinct lists, aggregates) and the booking scheduler for that single partition.
// Routing between partitions happens above this package.
//
// Key features:
//   - Multiple database adapter support (PGX, SQL, SQLX)
//   - Atomic venue creation through a unique routing-key column and ON CONFLICT DO NOTHING
//   - Booking creation in one transaction that locks the venue row with SELECT ... FOR UPDATE,
//     so two overlapping bookings for the same venue can never both commit
//   - Parameterized statements built with goqu, never string-spliced user input
//   - Postgres error classification into the venuestore sentinel errors
//   - Optional logging, metrics, tracing, and contextual logging
//
// Usage examples:
//
//	pool, _ := pgxpool.New(ctx, dsn)
//	store, _ := postgresengine.NewStoreFromPGXPool(pool, postgresengine.WithPartitionName("west"))
//	_ = store.CreateSchema(ctx)
//
//	id, err := store.AddVenue(ctx, venue)
//	bookingID, err := store.CreateBooking(ctx, request)
//	if errors.Is(err, venuestore.ErrBookingOverlap) {
//		// report to the caller, never retry
//	}
package postgresengine
