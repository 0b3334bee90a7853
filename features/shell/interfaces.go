package shell

import (
	"context"

	"github.com/AntonStoeckl/venue-shards-go/venuestore"
)

// Observability interfaces, aliased so feature slices only import shell.
type (
	MetricsCollector           = venuestore.MetricsCollector
	ContextualMetricsCollector = venuestore.ContextualMetricsCollector
	TracingCollector           = venuestore.TracingCollector
	SpanContext                = venuestore.SpanContext
	ContextualLogger           = venuestore.ContextualLogger
	Logger                     = venuestore.Logger
)

// Command is implemented by every write use case input.
type Command interface {
	CommandType() string
}

// Query is implemented by every read use case input.
type Query interface {
	QueryType() string
}

// CommandResult exposes the execution metadata of a handled command.
// Result types get it by embedding HandlerResult.
type CommandResult interface {
	Execution() HandlerResult
}

// DegradedResult is implemented by query results assembled from a fan-out.
// FailedPartitions returns the names of the partitions that did not answer.
type DegradedResult interface {
	FailedPartitions() []string
}

// CoreCommandHandler runs a command without observability concerns.
type CoreCommandHandler[C Command, R CommandResult] interface {
	Handle(ctx context.Context, command C) (R, error)
}

// CoreQueryHandler runs a query without observability concerns.
type CoreQueryHandler[Q Query, R any] interface {
	Handle(ctx context.Context, query Q) (R, error)
}
