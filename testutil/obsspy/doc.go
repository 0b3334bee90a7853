// Package obsspy provides metrics and tracing spies implementing the venuestore observability interfaces.
package obsspy
