package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/AntonStoeckl/venue-shards-go/venuestore"
	"github.com/AntonStoeckl/venue-shards-go/venuestore/postgresengine/internal/adapters"
)

const (
	defaultVenuesTable        = "venues"
	defaultBookingsTable      = "bookings"
	defaultVenueBookingsTable = "venue_bookings"
	defaultPartitionName      = "default"

	logMsgBuildQueryFailed   = "failed to build query"
	logMsgDBQueryFailed      = "database query execution failed"
	logMsgDBExecFailed       = "database statement execution failed"
	logMsgCloseRowsFailed    = "failed to close database rows"
	logMsgScanRowFailed      = "failed to scan database row"
	logMsgRowsAffectedFailed = "failed to get rows affected count"
	logMsgBeginTxFailed      = "failed to begin transaction"
	logMsgCommitTxFailed     = "failed to commit transaction"
	logMsgRollbackTxFailed   = "failed to roll back transaction"
	logMsgSQLExecuted        = "executed sql for: "
	logMsgOperation          = "venuestore operation: "
	logMsgOperationRejected  = "venuestore operation rejected: "
	logMsgOperationFailed    = "venuestore operation failed: "

	logAttrError      = "error"
	logAttrQuery      = "query"
	logAttrPartition  = "partition"
	logAttrDurationMS = "duration_ms"
	logAttrOutcome    = "outcome"
	logAttrVenue      = "venue"
	logAttrRowCount   = "row_count"

	colID           = "id"
	colName         = "name"
	colNameKey      = "name_key"
	colCity         = "city"
	colCapacity     = "capacity"
	colPricePerHour = "price_per_hour"
	colClientName   = "client_name"
	colBookingDate  = "booking_date"
	colStartTime    = "start_time"
	colEndTime      = "end_time"
	colVenueID      = "venue_id"
	colBookingID    = "booking_id"

	aliasBooking   = "b"
	aliasLink      = "vb"
	aliasVenue     = "v"
	aliasCount     = "venue_count"
	aliasSum       = "field_sum"
	aliasGroup     = "grp"
	aliasValue     = "val"
	castFloat8     = "FLOAT8"
	castText       = "TEXT"
	castDate       = "DATE"
	castTime       = "TIME"
	dialectPostgre = "postgres"
)

type (
	sqlQueryString = string
	queryArgs      = []any
)

// Store is one partition of the venue store, backed by PostgreSQL.
type Store struct {
	db               adapters.DBAdapter
	tables           TableNames
	partitionName    string
	logger           venuestore.Logger
	metricsCollector venuestore.MetricsCollector
	tracingCollector venuestore.TracingCollector
	contextualLogger venuestore.ContextualLogger
}

// NewStoreFromPGXPool creates a new Store using a pgx Pool with optional configuration.
func NewStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (*Store, error) {
	if db == nil {
		return nil, venuestore.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewPGXAdapter(db), options...)
}

// NewStoreFromSQLDB creates a new Store using a sql.DB with optional configuration.
func NewStoreFromSQLDB(db *sql.DB, options ...Option) (*Store, error) {
	if db == nil {
		return nil, venuestore.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLAdapter(db), options...)
}

// NewStoreFromSQLX creates a new Store using a sqlx.DB with optional configuration.
func NewStoreFromSQLX(db *sqlx.DB, options ...Option) (*Store, error) {
	if db == nil {
		return nil, venuestore.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLXAdapter(db), options...)
}

func newStore(db adapters.DBAdapter, options ...Option) (*Store, error) {
	s := &Store{
		db: db,
		tables: TableNames{
			Venues:        defaultVenuesTable,
			Bookings:      defaultBookingsTable,
			VenueBookings: defaultVenueBookingsTable,
		},
		partitionName: defaultPartitionName,
	}

	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// PartitionName returns the name this store reports in logs, metrics, and spans.
func (s *Store) PartitionName() string {
	return s.partitionName
}

// Ping verifies the partition database answers.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return classifyDBError(venuestore.ErrQueryingFailed, err)
	}

	return nil
}

func (s *Store) builder() goqu.DialectWrapper {
	return goqu.Dialect(dialectPostgre)
}

// toSQL renders a goqu dataset into a parameterized statement.
func (s *Store) toSQL(ctx context.Context, ds interface {
	ToSQL() (string, []any, error)
}) (sqlQueryString, queryArgs, error) {
	sqlQuery, args, err := ds.ToSQL()
	if err != nil {
		s.logError(ctx, logMsgBuildQueryFailed, err)
		return "", nil, errors.Join(venuestore.ErrBuildingQueryFailed, err)
	}

	return sqlQuery, args, nil
}

// query executes a statement that returns rows, with timing and error classification.
func (s *Store) query(
	ctx context.Context,
	q adapters.Querier,
	action string,
	sqlQuery sqlQueryString,
	args queryArgs,
) (adapters.DBRows, error) {

	start := time.Now()
	rows, err := q.Query(ctx, sqlQuery, args...)
	s.logQueryWithDuration(ctx, sqlQuery, action, time.Since(start))

	if err != nil {
		s.logError(ctx, logMsgDBQueryFailed, err, logAttrQuery, sqlQuery)
		return nil, classifyDBError(venuestore.ErrQueryingFailed, err)
	}

	return rows, nil
}

// exec executes a statement without result rows and returns the number of affected rows.
func (s *Store) exec(
	ctx context.Context,
	q adapters.Querier,
	action string,
	sqlQuery sqlQueryString,
	args queryArgs,
) (int64, error) {

	start := time.Now()
	result, err := q.Exec(ctx, sqlQuery, args...)
	s.logQueryWithDuration(ctx, sqlQuery, action, time.Since(start))

	if err != nil {
		s.logError(ctx, logMsgDBExecFailed, err, logAttrQuery, sqlQuery)
		return 0, classifyDBError(venuestore.ErrExecutingFailed, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		s.logError(ctx, logMsgRowsAffectedFailed, err)
		return 0, errors.Join(venuestore.ErrExecutingFailed, err)
	}

	return rowsAffected, nil
}

// withTx runs fn in a transaction. It commits when fn succeeds and rolls back on every other path.
func (s *Store) withTx(ctx context.Context, fn func(tx adapters.DBTx) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		s.logError(ctx, logMsgBeginTxFailed, err)
		return classifyDBError(venuestore.ErrTransactionFailed, err)
	}

	committed := false

	defer func() {
		if committed {
			return
		}

		rollbackErr := tx.Rollback(context.WithoutCancel(ctx))
		if rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			s.logWarn(ctx, logMsgRollbackTxFailed, logAttrError, rollbackErr.Error())
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		s.logError(ctx, logMsgCommitTxFailed, err)
		return classifyDBError(venuestore.ErrTransactionFailed, err)
	}

	committed = true

	return nil
}

// closeRows safely closes database rows and logs any errors.
func (s *Store) closeRows(ctx context.Context, rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		s.logWarn(ctx, logMsgCloseRowsFailed, logAttrError, closeErr.Error())
	}
}

// collectRows scans all rows with scan and always closes them.
func collectRows[T any](
	ctx context.Context,
	s *Store,
	rows adapters.DBRows,
	scan func(adapters.DBRows) (T, error),
) ([]T, error) {

	defer s.closeRows(ctx, rows)

	items := make([]T, 0)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			s.logError(ctx, logMsgScanRowFailed, err)
			return nil, errors.Join(venuestore.ErrScanningDBRowFailed, err)
		}

		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		s.logError(ctx, logMsgDBQueryFailed, err)
		return nil, classifyDBError(venuestore.ErrQueryingFailed, err)
	}

	return items, nil
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
