package memstore

import (
	"fmt"

	"github.com/AntonStoeckl/venue-shards-go/venuestore/partition"
)

// NewCluster creates n empty partitions named p0 to p<n-1>.
func NewCluster(n int) []*Store {
	stores := make([]*Store, n)
	for i := range stores {
		stores[i] = New("p" + partition.ID(i).String())
	}

	return stores
}

// ResolverOf builds a resolver over stores, typed as the dependency interface T of a handler.
func ResolverOf[T any](stores []*Store) (partition.Resolver[T], error) {
	router, err := partition.NewRouter(len(stores))
	if err != nil {
		return partition.Resolver[T]{}, err
	}

	targets := make([]T, len(stores))
	for i, s := range stores {
		target, ok := any(s).(T)
		if !ok {
			return partition.Resolver[T]{}, fmt.Errorf("memstore.Store does not implement %T", targets[i])
		}

		targets[i] = target
	}

	return partition.NewResolver(router, targets)
}

// Owner returns the store that owns venueName under the default router for len(stores) partitions.
func Owner(stores []*Store, venueName string) *Store {
	router, err := partition.NewRouter(len(stores))
	if err != nil {
		return nil
	}

	return stores[router.RouteVenue(venueName)]
}
