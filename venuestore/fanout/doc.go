// Package fanout issues read queries against every partition in parallel and merges the partial answers.
//
// Each partition call runs under its own timeout. By default a failing partition degrades the
// answer: the merged result of the other partitions is returned together with the list of failed
// partitions, and Err() on the result reports venuestore.ErrPartialFailure. With AllOrNothing the
// first failing partition fails the whole call and cancels the others.
package fanout
