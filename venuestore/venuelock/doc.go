// Package venuelock provides per-venue mutual exclusion on top of the storage-level guarantees.
//
// LocalLocker serializes callers within one process. RedisLocker serializes callers across
// processes with a Redis key per venue that expires after a TTL.
package venuelock
