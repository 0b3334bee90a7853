// Package partition places venues on a fixed set of independent partitions.
//
// A Router maps a routing key to a partition ID with a pure function: the key's sha256 digest,
// read as a big-endian unsigned integer, modulo the partition count. Any two processes
// configured with the same partition count agree on every placement without coordination.
// Changing the partition count re-routes keys and is not supported.
//
// A Set holds the injected partition descriptors, a Resolver pairs a Router with one
// target per partition (a store, a pool, a reader), and a HealthMonitor tracks which
// partitions currently answer.
//
// Example:
//
//	set, _ := partition.NewSet(descriptors)
//	resolver, _ := partition.NewResolver(set.Router(), stores)
//	id, store := resolver.For("Grand Hall")
package partition
