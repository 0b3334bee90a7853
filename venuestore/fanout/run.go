package fanout

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/AntonStoeckl/venue-shards-go/venuestore"
)

// outcome is the answer of one partition.
type outcome[T any] struct {
	target Target
	value  T
}

// run calls every target concurrently, each under its own timeout, and returns the successful
// outcomes in target order together with the failures.
//
// In degraded mode an error is returned only when the parent context is done or every partition failed.
// In strict mode the first failure cancels the remaining calls and is returned.
func run[T any](
	ctx context.Context,
	e *Engine,
	operation string,
	cfg callConfig,
	call func(context.Context, PartitionReader) (T, error),
) ([]outcome[T], Failures, error) {

	observer, ctx := e.startOperation(ctx, operation, cfg)

	var (
		outcomes []outcome[T]
		failures Failures
		err      error
	)

	if cfg.allOrNothing {
		outcomes, failures, err = runStrict(ctx, e, call)
	} else {
		outcomes, failures, err = runDegraded(ctx, e, call)
	}

	for _, f := range failures {
		observer.partitionFailed(f)
	}

	observer.finish(len(outcomes), failures, err)

	return outcomes, failures, err
}

func runDegraded[T any](
	ctx context.Context,
	e *Engine,
	call func(context.Context, PartitionReader) (T, error),
) ([]outcome[T], Failures, error) {

	values := make([]T, len(e.targets))
	errs := make([]error, len(e.targets))

	var wg sync.WaitGroup
	for i, target := range e.targets {
		wg.Add(1)
		go func() {
			defer wg.Done()
			values[i], errs[i] = callPartition(ctx, e, target, call)
		}()
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	outcomes := make([]outcome[T], 0, len(e.targets))
	failures := make(Failures, 0)

	for i, target := range e.targets {
		if errs[i] != nil {
			failures = append(failures, Failure{Partition: target.ID, Name: target.Name, Err: errs[i]})
			continue
		}

		outcomes = append(outcomes, outcome[T]{target: target, value: values[i]})
	}

	if len(outcomes) == 0 {
		return nil, failures, errors.Join(venuestore.ErrPartitionUnavailable, failures.Err())
	}

	return outcomes, failures, nil
}

func runStrict[T any](
	ctx context.Context,
	e *Engine,
	call func(context.Context, PartitionReader) (T, error),
) ([]outcome[T], Failures, error) {

	values := make([]T, len(e.targets))

	var (
		mu       sync.Mutex
		failures Failures
	)

	g, groupCtx := errgroup.WithContext(ctx)
	for i, target := range e.targets {
		g.Go(func() error {
			value, err := callPartition(groupCtx, e, target, call)
			if err != nil {
				// a call cut short by a sibling's failure is not a failure of its own partition
				if groupCtx.Err() != nil {
					return err
				}

				failure := Failure{Partition: target.ID, Name: target.Name, Err: err}

				mu.Lock()
				failures = append(failures, failure)
				mu.Unlock()

				return failure
			}

			values[i] = value

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, failures, ctxErr
		}

		return nil, failures, errors.Join(venuestore.ErrPartitionUnavailable, err)
	}

	outcomes := make([]outcome[T], 0, len(e.targets))
	for i, target := range e.targets {
		outcomes = append(outcomes, outcome[T]{target: target, value: values[i]})
	}

	return outcomes, nil, nil
}

// callPartition runs one sub-query under the partition timeout. Unhealthy partitions are not called.
func callPartition[T any](
	ctx context.Context,
	e *Engine,
	target Target,
	call func(context.Context, PartitionReader) (T, error),
) (T, error) {

	var zero T

	if e.health != nil && !e.health.IsHealthy(target.ID) {
		return zero, errors.Join(venuestore.ErrPartitionUnavailable, ErrPartitionUnhealthy)
	}

	partitionCtx, cancel := context.WithTimeout(ctx, e.partitionTimeout)
	defer cancel()

	value, err := call(partitionCtx, target.Reader)
	if err != nil {
		if errors.Is(partitionCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, venuestore.ErrPartitionUnavailable) {
			err = errors.Join(venuestore.ErrPartitionUnavailable, err)
		}

		return zero, err
	}

	return value, nil
}
