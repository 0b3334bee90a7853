package venuestats

import (
	"context"

	"github.com/AntonStoeckl/venue-shards-go/features/shell"
	"github.com/AntonStoeckl/venue-shards-go/venuestore"
	"github.com/AntonStoeckl/venue-shards-go/venuestore/fanout"
)

// Aggregator merges aggregates across all partitions. *fanout.Engine implements it.
type Aggregator interface {
	Aggregate(ctx context.Context, q venuestore.AggregateQuery, opts ...fanout.CallOption) (fanout.AggregateResult, error)
}

// Result is the merged aggregate, one row per group.
type Result struct {
	fanout.AggregateResult
}

// FailedPartitions returns the names of the partitions missing from the result.
func (r Result) FailedPartitions() []string {
	return r.Failures.Names()
}

// QueryHandler runs aggregate queries.
type QueryHandler struct {
	aggregator Aggregator
}

// NewQueryHandler creates a QueryHandler.
func NewQueryHandler(aggregator Aggregator) (QueryHandler, error) {
	if aggregator == nil {
		return QueryHandler{}, shell.ErrNilDependency
	}

	return QueryHandler{aggregator: aggregator}, nil
}

// Handle computes the aggregate.
func (h QueryHandler) Handle(ctx context.Context, query Query) (Result, error) {
	var opts []fanout.CallOption
	if query.Strict {
		opts = append(opts, fanout.AllOrNothing())
	}

	result, err := h.aggregator.Aggregate(ctx, query.Aggregate, opts...)

	return Result{AggregateResult: result}, err
}
