package partition

import (
	"crypto/sha256"
	"math/big"

	"github.com/AntonStoeckl/venue-shards-go/venuestore"
)

// Router maps routing keys to partitions. The zero value is not usable, create it with NewRouter.
type Router struct {
	count int
}

// NewRouter creates a router for count partitions.
func NewRouter(count int) (Router, error) {
	if count < 1 {
		return Router{}, ErrInvalidPartitionCount
	}

	return Router{count: count}, nil
}

// Count returns the number of partitions.
func (r Router) Count() int {
	return r.count
}

// Route returns the partition owning key. The key is used as given, byte for byte.
func (r Router) Route(key string) ID {
	if r.count <= 1 {
		return 0
	}

	digest := sha256.Sum256([]byte(key))
	n := new(big.Int).SetBytes(digest[:])

	return ID(n.Mod(n, big.NewInt(int64(r.count))).Int64())
}

// RouteVenue returns the partition owning the venue with the given name.
func (r Router) RouteVenue(name string) ID {
	return r.Route(venuestore.RoutingKey(name))
}
