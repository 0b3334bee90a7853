package postgresengine

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/AntonStoeckl/venue-shards-go/venuestore"
)

const (
	pgUniqueViolation      = "23505"
	pgCheckViolation       = "23514"
	pgForeignKeyViolation  = "23503"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
	pgClassDataException   = "22"
	pgClassConnection      = "08"
	pgClassResources       = "53"
	pgClassOperator        = "57"
)

// sqlState extracts the SQLSTATE of a server error from either driver, empty if err is not one.
func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}

	return ""
}

// classifyDBError maps a driver error onto the venuestore sentinels.
// Errors that never reached the server (dial, network, deadline) mean the partition is unavailable.
func classifyDBError(sentinel error, err error) error {
	state := sqlState(err)

	switch {
	case state == "":
		return errors.Join(venuestore.ErrPartitionUnavailable, sentinel, err)

	case state == pgUniqueViolation:
		return errors.Join(venuestore.ErrVenueAlreadyExists, sentinel, err)

	case state == pgSerializationFailure, state == pgDeadlockDetected, state == pgLockNotAvailable:
		return errors.Join(venuestore.ErrTransientConflict, sentinel, err)

	case state == pgCheckViolation, state == pgForeignKeyViolation, strings.HasPrefix(state, pgClassDataException):
		return errors.Join(venuestore.ErrValidation, sentinel, err)

	case strings.HasPrefix(state, pgClassConnection),
		strings.HasPrefix(state, pgClassResources),
		strings.HasPrefix(state, pgClassOperator):
		return errors.Join(venuestore.ErrPartitionUnavailable, sentinel, err)

	default:
		return errors.Join(sentinel, err)
	}
}
