package addvenues

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AntonStoeckl/venue-shards-go/features/shell"
	"github.com/AntonStoeckl/venue-shards-go/venuestore"
	"github.com/AntonStoeckl/venue-shards-go/venuestore/partition"
)

// ErrInvalidConcurrency is returned by WithMaxConcurrency for values below one.
var ErrInvalidConcurrency = errors.New("max concurrency must be positive")

// VenueStore is the part of a partition store the handler needs.
type VenueStore interface {
	PartitionName() string
	AddVenue(ctx context.Context, venue venuestore.Venue) (venuestore.VenueID, error)
}

// VenueFailure is a valid venue the partition did not store.
type VenueFailure struct {
	Name string
	Err  error
}

// PartitionSummary is the outcome of the import on one partition.
type PartitionSummary struct {
	Partition     partition.ID
	PartitionName string
	Inserted      int
	Failures      []VenueFailure
}

// Result holds one summary per partition that received venues, ordered by partition,
// and the specs rejected before routing.
type Result struct {
	shell.HandlerResult
	Summaries []PartitionSummary
	Rejected  []Rejection
}

// Inserted returns the number of venues stored on all partitions.
func (r Result) Inserted() int {
	total := 0
	for _, s := range r.Summaries {
		total += s.Inserted
	}

	return total
}

// Failed returns the number of venues that were rejected or not stored.
func (r Result) Failed() int {
	total := len(r.Rejected)
	for _, s := range r.Summaries {
		total += len(s.Failures)
	}

	return total
}

// CommandHandler writes venues to their partitions, concurrently per partition.
type CommandHandler struct {
	resolver         partition.Resolver[VenueStore]
	maxConcurrency   int
	retryOptions     []shell.RetryOption
	partitionTimeout time.Duration
}

// Option configures a CommandHandler.
type Option func(*CommandHandler) error

// WithMaxConcurrency limits how many partitions are written at the same time.
func WithMaxConcurrency(n int) Option {
	return func(h *CommandHandler) error {
		if n <= 0 {
			return ErrInvalidConcurrency
		}

		h.maxConcurrency = n

		return nil
	}
}

// WithRetryOptions configures the retry of transient storage conflicts per venue.
func WithRetryOptions(opts ...shell.RetryOption) Option {
	return func(h *CommandHandler) error {
		h.retryOptions = opts
		return nil
	}
}

// WithPartitionTimeout bounds each single add. A venue whose add runs into it is reported
// with venuestore.ErrPartitionUnavailable.
func WithPartitionTimeout(timeout time.Duration) Option {
	return func(h *CommandHandler) error {
		return shell.PartitionTimeoutOption(timeout, func(d time.Duration) { h.partitionTimeout = d })
	}
}

// NewCommandHandler creates a CommandHandler over one VenueStore per partition.
func NewCommandHandler(resolver partition.Resolver[VenueStore], opts ...Option) (CommandHandler, error) {
	if resolver.Len() == 0 {
		return CommandHandler{}, shell.ErrNilDependency
	}

	h := CommandHandler{resolver: resolver, maxConcurrency: resolver.Len()}

	for _, opt := range opts {
		if err := opt(&h); err != nil {
			return CommandHandler{}, err
		}
	}

	return h, nil
}

// Handle imports the venues. Per-venue failures, including duplicates, are reported in the
// summaries and do not fail the command. An error is returned only when ctx ends.
func (h CommandHandler) Handle(ctx context.Context, command Command) (Result, error) {
	byPartition := make(map[partition.ID]venuestore.Venues)
	for _, venue := range command.Venues {
		id, _ := h.resolver.For(venue.Name)
		byPartition[id] = append(byPartition[id], venue)
	}

	var (
		mu        sync.Mutex
		summaries = make([]PartitionSummary, 0, len(byPartition))
		attempts  = shell.RetryMetrics{LastErrorType: venuestore.ErrorType(nil)}
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(h.maxConcurrency)

	for id, venues := range byPartition {
		store, err := h.resolver.Get(id)
		if err != nil {
			return Result{}, err
		}

		group.Go(func() error {
			summary, metrics, err := h.importPartition(groupCtx, id, store, venues)

			mu.Lock()
			defer mu.Unlock()
			summaries = append(summaries, summary)
			attempts = mergeRetryMetrics(attempts, metrics)

			return err
		})
	}

	err := group.Wait()

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Partition < summaries[j].Partition
	})

	return Result{
		HandlerResult: shell.NewHandlerResult(attempts),
		Summaries:     summaries,
		Rejected:      command.Rejected,
	}, err
}

// importPartition adds venues one by one. It stops early only when ctx ends.
func (h CommandHandler) importPartition(
	ctx context.Context,
	id partition.ID,
	store VenueStore,
	venues venuestore.Venues,
) (PartitionSummary, shell.RetryMetrics, error) {

	summary := PartitionSummary{Partition: id, PartitionName: store.PartitionName()}
	total := shell.RetryMetrics{LastErrorType: venuestore.ErrorType(nil)}

	for _, venue := range venues {
		if err := ctx.Err(); err != nil {
			return summary, total, err
		}

		metrics, err := shell.RetryWithExponentialBackoff(ctx, func(ctx context.Context) error {
			return shell.WithPartitionDeadline(ctx, h.partitionTimeout, func(ctx context.Context) error {
				_, addErr := store.AddVenue(ctx, venue)
				return addErr
			})
		}, h.retryOptions...)
		total = mergeRetryMetrics(total, metrics)

		if err != nil {
			summary.Failures = append(summary.Failures, VenueFailure{Name: venue.Name, Err: err})
			continue
		}

		summary.Inserted++
	}

	return summary, total, nil
}

// mergeRetryMetrics sums attempts and delays. The error type of a failed run wins over "none".
func mergeRetryMetrics(a, b shell.RetryMetrics) shell.RetryMetrics {
	merged := shell.RetryMetrics{
		Attempts:         a.Attempts + b.Attempts,
		TotalDelay:       a.TotalDelay + b.TotalDelay,
		LastErrorType:    a.LastErrorType,
		RetriesExhausted: a.RetriesExhausted || b.RetriesExhausted,
	}

	if b.LastErrorType != "" && b.LastErrorType != venuestore.ErrorType(nil) {
		merged.LastErrorType = b.LastErrorType
	}

	return merged
}
