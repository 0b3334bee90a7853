package searchvenues

import (
	"context"

	"github.com/AntonStoeckl/venue-shards-go/features/shell"
	"github.com/AntonStoeckl/venue-shards-go/venuestore"
	"github.com/AntonStoeckl/venue-shards-go/venuestore/fanout"
)

// Searcher runs a search across all partitions. *fanout.Engine implements it.
type Searcher interface {
	Search(ctx context.Context, filter venuestore.SearchFilter, opts ...fanout.CallOption) (fanout.SearchResult, error)
}

// Result is the merged search answer.
type Result struct {
	fanout.SearchResult
}

// FailedPartitions returns the names of the partitions missing from the result.
func (r Result) FailedPartitions() []string {
	return r.Failures.Names()
}

// QueryHandler runs search queries.
type QueryHandler struct {
	searcher Searcher
}

// NewQueryHandler creates a QueryHandler.
func NewQueryHandler(searcher Searcher) (QueryHandler, error) {
	if searcher == nil {
		return QueryHandler{}, shell.ErrNilDependency
	}

	return QueryHandler{searcher: searcher}, nil
}

// Handle runs the search.
func (h QueryHandler) Handle(ctx context.Context, query Query) (Result, error) {
	var opts []fanout.CallOption
	if query.Strict {
		opts = append(opts, fanout.AllOrNothing())
	}

	result, err := h.searcher.Search(ctx, query.Filter, opts...)

	return Result{SearchResult: result}, err
}
