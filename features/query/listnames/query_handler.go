package listnames

import (
	"context"

	"github.com/AntonStoeckl/venue-shards-go/features/shell"
	"github.com/AntonStoeckl/venue-shards-go/venuestore/fanout"
)

// Lister collects values across all partitions. *fanout.Engine implements it.
type Lister interface {
	ListNames(ctx context.Context, opts ...fanout.CallOption) (fanout.ListResult, error)
}

// Result is the merged list.
type Result struct {
	fanout.ListResult
}

// FailedPartitions returns the names of the partitions missing from the result.
func (r Result) FailedPartitions() []string {
	return r.Failures.Names()
}

// QueryHandler runs the query.
type QueryHandler struct {
	lister Lister
}

// NewQueryHandler creates a QueryHandler.
func NewQueryHandler(lister Lister) (QueryHandler, error) {
	if lister == nil {
		return QueryHandler{}, shell.ErrNilDependency
	}

	return QueryHandler{lister: lister}, nil
}

// Handle collects the values.
func (h QueryHandler) Handle(ctx context.Context, query Query) (Result, error) {
	var opts []fanout.CallOption
	if query.Strict {
		opts = append(opts, fanout.AllOrNothing())
	}

	result, err := h.lister.ListNames(ctx, opts...)

	return Result{ListResult: result}, err
}
