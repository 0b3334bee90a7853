package fanout

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/AntonStoeckl/venue-shards-go/venuestore"
	"github.com/AntonStoeckl/venue-shards-go/venuestore/partition"
)

const (
	defaultPartitionTimeout = 5 * time.Second

	operationSearch    = "search"
	operationCities    = "list_cities"
	operationNames     = "list_names"
	operationAggregate = "aggregate"
)

var (
	ErrNoTargets            = errors.New("fanout needs at least one target")
	ErrInvalidTarget        = errors.New("invalid fanout target")
	ErrInvalidTimeout       = errors.New("partition timeout must be positive")
	ErrPartitionUnhealthy   = errors.New("partition is marked unhealthy")
	ErrNilHealthChecker     = errors.New("health checker must not be nil")
	errMissingPartitionName = errors.New("target name must not be empty")
)

// PartitionReader is the read side of one partition.
type PartitionReader interface {
	SearchVenues(ctx context.Context, filter venuestore.SearchFilter) (venuestore.Venues, error)
	ListDistinctCities(ctx context.Context) ([]string, error)
	ListDistinctNames(ctx context.Context) ([]string, error)
	AggregateVenues(ctx context.Context, q venuestore.AggregateQuery) ([]venuestore.PartialAggregate, error)
}

// HealthChecker reports whether a partition is worth asking.
// *partition.HealthMonitor implements it.
type HealthChecker interface {
	IsHealthy(id partition.ID) bool
}

// Target is one partition the engine queries.
type Target struct {
	ID     partition.ID
	Name   string
	Reader PartitionReader
}

// Engine fans read queries out to all targets. It has no routing dependency.
type Engine struct {
	targets          []Target
	partitionTimeout time.Duration
	health           HealthChecker
	logger           venuestore.Logger
	metricsCollector venuestore.MetricsCollector
	tracingCollector venuestore.TracingCollector
	contextualLogger venuestore.ContextualLogger
}

// NewEngine creates an Engine over targets, which must have unique IDs and names and a reader each.
func NewEngine(targets []Target, options ...Option) (*Engine, error) {
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}

	seenIDs := make(map[partition.ID]struct{}, len(targets))
	seenNames := make(map[string]struct{}, len(targets))

	for _, t := range targets {
		switch {
		case t.Reader == nil:
			return nil, errors.Join(ErrInvalidTarget, fmt.Errorf("partition %d has no reader", t.ID))
		case t.Name == "":
			return nil, errors.Join(ErrInvalidTarget, errMissingPartitionName)
		}

		if _, dup := seenIDs[t.ID]; dup {
			return nil, errors.Join(ErrInvalidTarget, fmt.Errorf("duplicate partition id %d", t.ID))
		}

		if _, dup := seenNames[t.Name]; dup {
			return nil, errors.Join(ErrInvalidTarget, fmt.Errorf("duplicate partition name %q", t.Name))
		}

		seenIDs[t.ID] = struct{}{}
		seenNames[t.Name] = struct{}{}
	}

	e := &Engine{
		targets:          slices.Clone(targets),
		partitionTimeout: defaultPartitionTimeout,
	}

	for _, option := range options {
		if err := option(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// Targets returns a copy of the engine's targets.
func (e *Engine) Targets() []Target {
	return slices.Clone(e.targets)
}

// Search returns the venues of all partitions matching the filter.
// Hits are deduplicated by partition and venue ID and ordered by routing key.
func (e *Engine) Search(ctx context.Context, filter venuestore.SearchFilter, opts ...CallOption) (SearchResult, error) {
	if err := filter.Validate(); err != nil {
		return SearchResult{}, err
	}

	outcomes, failures, err := run(ctx, e, operationSearch, newCallConfig(opts), func(ctx context.Context, r PartitionReader) (venuestore.Venues, error) {
		return r.SearchVenues(ctx, filter)
	})
	if err != nil {
		return SearchResult{Failures: failures}, err
	}

	type hitKey struct {
		partition partition.ID
		id        venuestore.VenueID
	}

	seen := make(map[hitKey]struct{})
	hits := make([]Hit, 0)

	for _, o := range outcomes {
		for _, v := range o.value {
			key := hitKey{partition: o.target.ID, id: v.ID}
			if _, dup := seen[key]; dup {
				continue
			}

			seen[key] = struct{}{}
			hits = append(hits, Hit{Partition: o.target.ID, PartitionName: o.target.Name, Venue: v})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		ki, kj := hits[i].Venue.Key(), hits[j].Venue.Key()
		if ki != kj {
			return ki < kj
		}

		if hits[i].Partition != hits[j].Partition {
			return hits[i].Partition < hits[j].Partition
		}

		return hits[i].Venue.ID < hits[j].Venue.ID
	})

	return SearchResult{Hits: hits, Failures: failures}, nil
}

// ListCities returns the union of all partitions' cities, sorted.
func (e *Engine) ListCities(ctx context.Context, opts ...CallOption) (ListResult, error) {
	return e.list(ctx, operationCities, opts, func(ctx context.Context, r PartitionReader) ([]string, error) {
		return r.ListDistinctCities(ctx)
	})
}

// ListNames returns the union of all partitions' venue names, sorted.
func (e *Engine) ListNames(ctx context.Context, opts ...CallOption) (ListResult, error) {
	return e.list(ctx, operationNames, opts, func(ctx context.Context, r PartitionReader) ([]string, error) {
		return r.ListDistinctNames(ctx)
	})
}

func (e *Engine) list(
	ctx context.Context,
	operation string,
	opts []CallOption,
	call func(context.Context, PartitionReader) ([]string, error),
) (ListResult, error) {

	outcomes, failures, err := run(ctx, e, operation, newCallConfig(opts), call)
	if err != nil {
		return ListResult{Failures: failures}, err
	}

	values := make([]string, 0)
	for _, o := range outcomes {
		values = append(values, o.value...)
	}

	slices.Sort(values)

	return ListResult{Values: slices.Compact(values), Failures: failures}, nil
}

// Aggregate computes the query on every partition and merges the partials.
// Counts and sums add up, averages are total sum over total count, distinct values are unioned.
func (e *Engine) Aggregate(ctx context.Context, q venuestore.AggregateQuery, opts ...CallOption) (AggregateResult, error) {
	if err := q.Validate(); err != nil {
		return AggregateResult{}, err
	}

	outcomes, failures, err := run(ctx, e, operationAggregate, newCallConfig(opts), func(ctx context.Context, r PartitionReader) ([]venuestore.PartialAggregate, error) {
		return r.AggregateVenues(ctx, q)
	})
	if err != nil {
		return AggregateResult{Failures: failures}, err
	}

	partials := make([][]venuestore.PartialAggregate, 0, len(outcomes))
	for _, o := range outcomes {
		partials = append(partials, o.value)
	}

	return AggregateResult{AggregateResult: venuestore.MergeAggregates(q, partials...), Failures: failures}, nil
}

func failureNames(failures Failures) string {
	return strings.Join(failures.Names(), ",")
}
