package postgresengine

import (
	"errors"

	"github.com/AntonStoeckl/venue-shards-go/venuestore"
)

// ErrEmptyTableName is returned when a table name option receives an empty name.
var ErrEmptyTableName = errors.New("empty table name supplied")

// ErrEmptyPartitionName is returned when WithPartitionName receives an empty name.
var ErrEmptyPartitionName = errors.New("empty partition name supplied")

// TableNames holds the names of the three partition tables.
type TableNames struct {
	Venues        string
	Bookings      string
	VenueBookings string
}

// Option defines a functional option for configuring Store.
type Option func(*Store) error

// WithTableNames overrides the default table names (venues, bookings, venue_bookings).
func WithTableNames(names TableNames) Option {
	return func(s *Store) error {
		if names.Venues == "" || names.Bookings == "" || names.VenueBookings == "" {
			return ErrEmptyTableName
		}

		s.tables = names

		return nil
	}
}

// WithPartitionName sets the partition name used in logs, metrics, and spans.
func WithPartitionName(name string) Option {
	return func(s *Store) error {
		if name == "" {
			return ErrEmptyPartitionName
		}

		s.partitionName = name

		return nil
	}
}

// WithLogger sets the logger for the Store.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: SQL statements with execution timing (development use)
// Info level: Completed operations and rejected business outcomes (production-safe)
// Warn level: Non-critical issues like cleanup failures
// Error level: Critical failures that cause operation failures.
func WithLogger(logger venuestore.Logger) Option {
	return func(s *Store) error {
		s.logger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Store.
// It receives operation durations, returned row counts, booking conflicts, and database errors.
func WithMetrics(collector venuestore.MetricsCollector) Option {
	return func(s *Store) error {
		s.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the Store.
func WithTracing(collector venuestore.TracingCollector) Option {
	return func(s *Store) error {
		s.tracingCollector = collector
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the Store.
// It receives the same messages as the Logger, with the operation's context for trace correlation.
func WithContextualLogger(logger venuestore.ContextualLogger) Option {
	return func(s *Store) error {
		s.contextualLogger = logger
		return nil
	}
}
