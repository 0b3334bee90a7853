package partition

import (
	"errors"
	"fmt"
)

// Resolver pairs a Router with one target per partition.
type Resolver[T any] struct {
	router  Router
	targets []T
}

// NewResolver creates a resolver. targets[i] serves partition ID i.
func NewResolver[T any](router Router, targets []T) (Resolver[T], error) {
	if router.Count() < 1 {
		return Resolver[T]{}, ErrInvalidPartitionCount
	}

	if len(targets) != router.Count() {
		return Resolver[T]{}, errors.Join(
			ErrTargetCountMismatch,
			fmt.Errorf("%d targets for %d partitions", len(targets), router.Count()),
		)
	}

	owned := make([]T, len(targets))
	copy(owned, targets)

	return Resolver[T]{router: router, targets: owned}, nil
}

// For returns the partition owning the venue name and its target.
func (r Resolver[T]) For(venueName string) (ID, T) {
	id := r.router.RouteVenue(venueName)

	return id, r.targets[id]
}

// Get returns the target of one partition.
func (r Resolver[T]) Get(id ID) (T, error) {
	var zero T

	if id < 0 || int(id) >= len(r.targets) {
		return zero, errors.Join(ErrUnknownPartition, fmt.Errorf("partition %d", id))
	}

	return r.targets[id], nil
}

// Len returns the number of partitions.
func (r Resolver[T]) Len() int {
	return len(r.targets)
}

// Router returns the underlying router.
func (r Resolver[T]) Router() Router {
	return r.router
}
