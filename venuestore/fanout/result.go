package fanout

import (
	"errors"
	"fmt"

	"github.com/AntonStoeckl/venue-shards-go/venuestore"
	"github.com/AntonStoeckl/venue-shards-go/venuestore/partition"
)

// Failure names a partition whose sub-query failed and why.
type Failure struct {
	Partition partition.ID
	Name      string
	Err       error
}

func (f Failure) Error() string {
	return fmt.Sprintf("partition %s (%d): %v", f.Name, f.Partition, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// Failures lists the partitions that did not contribute to a result.
type Failures []Failure

// Err returns nil for a complete result and an error wrapping ErrPartialFailure and every failure otherwise.
func (f Failures) Err() error {
	if len(f) == 0 {
		return nil
	}

	errs := make([]error, 0, len(f)+1)
	errs = append(errs, venuestore.ErrPartialFailure)
	for _, failure := range f {
		errs = append(errs, failure)
	}

	return errors.Join(errs...)
}

// Partitions returns the IDs of the failed partitions.
func (f Failures) Partitions() []partition.ID {
	ids := make([]partition.ID, 0, len(f))
	for _, failure := range f {
		ids = append(ids, failure.Partition)
	}

	return ids
}

// Hit is one search match and the partition it came from.
type Hit struct {
	Partition     partition.ID
	PartitionName string
	Venue         venuestore.Venue
}

// SearchResult is the merged answer of a search, hits ordered by routing key.
type SearchResult struct {
	Hits     []Hit
	Failures Failures
}

// Venues returns the venues of all hits in hit order.
func (r SearchResult) Venues() venuestore.Venues {
	venues := make(venuestore.Venues, 0, len(r.Hits))
	for _, hit := range r.Hits {
		venues = append(venues, hit.Venue)
	}

	return venues
}

// Err reports a degraded result.
func (r SearchResult) Err() error {
	return r.Failures.Err()
}

// ListResult is a merged, sorted, duplicate-free list of values.
type ListResult struct {
	Values   []string
	Failures Failures
}

// Err reports a degraded result.
func (r ListResult) Err() error {
	return r.Failures.Err()
}

// AggregateResult is the merged aggregate of all answering partitions.
type AggregateResult struct {
	venuestore.AggregateResult
	Failures Failures
}

// Err reports a degraded result.
func (r AggregateResult) Err() error {
	return r.Failures.Err()
}

// Names returns the names of the failed partitions.
func (f Failures) Names() []string {
	names := make([]string, 0, len(f))
	for _, failure := range f {
		names = append(names, failure.Name)
	}

	return names
}
