// Package addvenues implements the bulk "Add Venues" use case used by venue imports.
//
// Specs are validated first. Invalid specs are rejected before any partition is contacted.
// The valid venues are grouped by owning partition and each partition is written by its own
// goroutine, one venue after the other, so a slow or failing partition does not hold up the
// others. The result is a summary per partition: inserted count and per-venue failures.
package addvenues
