package venuestore

import "errors"

// Business outcomes. These are returned to callers as typed results and are never retried.
var (
	ErrVenueNotFound      = errors.New("venue not found")
	ErrVenueAlreadyExists = errors.New("venue already exists")
	ErrBookingOverlap     = errors.New("booking overlaps an existing booking")
	ErrValidation         = errors.New("validation failed")
)

// Partition-level failures.
var (
	ErrPartitionUnavailable = errors.New("partition unavailable")
	ErrPartialFailure       = errors.New("partial failure: some partitions did not answer")
	ErrTransientConflict    = errors.New("transient conflict, the operation can be retried")
)

// Technical failures raised by storage engines.
var (
	ErrNilDatabaseConnection = errors.New("database connection must not be nil")
	ErrBuildingQueryFailed   = errors.New("building query failed")
	ErrQueryingFailed        = errors.New("querying failed")
	ErrExecutingFailed       = errors.New("executing statement failed")
	ErrScanningDBRowFailed   = errors.New("scanning db row failed")
	ErrTransactionFailed     = errors.New("transaction failed")
)

// IsBusinessOutcome reports whether err is an expected outcome rather than a technical failure.
func IsBusinessOutcome(err error) bool {
	return errors.Is(err, ErrVenueNotFound) ||
		errors.Is(err, ErrVenueAlreadyExists) ||
		errors.Is(err, ErrBookingOverlap) ||
		errors.Is(err, ErrValidation)
}

// ErrorType returns a short label for err, used in metrics and span attributes.
func ErrorType(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrVenueNotFound):
		return "venue_not_found"
	case errors.Is(err, ErrVenueAlreadyExists):
		return "venue_already_exists"
	case errors.Is(err, ErrBookingOverlap):
		return "booking_overlap"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrTransientConflict):
		return "transient_conflict"
	case errors.Is(err, ErrPartitionUnavailable):
		return "partition_unavailable"
	case errors.Is(err, ErrPartialFailure):
		return "partial_failure"
	case errors.Is(err, ErrBuildingQueryFailed):
		return "build_query"
	case errors.Is(err, ErrScanningDBRowFailed):
		return "row_scan"
	case errors.Is(err, ErrQueryingFailed), errors.Is(err, ErrExecutingFailed):
		return "database_query"
	case errors.Is(err, ErrTransactionFailed):
		return "transaction"
	default:
		return "other"
	}
}
