package fanout

import (
	"time"

	"github.com/AntonStoeckl/venue-shards-go/venuestore"
)

// Option configures an Engine.
type Option func(*Engine) error

// WithPartitionTimeout bounds every single partition call. A slow partition fails alone.
func WithPartitionTimeout(timeout time.Duration) Option {
	return func(e *Engine) error {
		if timeout <= 0 {
			return ErrInvalidTimeout
		}

		e.partitionTimeout = timeout

		return nil
	}
}

// WithHealth makes the engine skip partitions the checker reports unhealthy.
// Skipped partitions are reported as failures without waiting for a timeout.
func WithHealth(checker HealthChecker) Option {
	return func(e *Engine) error {
		if checker == nil {
			return ErrNilHealthChecker
		}

		e.health = checker

		return nil
	}
}

// WithLogger sets the logger for the Engine.
func WithLogger(logger venuestore.Logger) Option {
	return func(e *Engine) error {
		e.logger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Engine.
func WithMetrics(collector venuestore.MetricsCollector) Option {
	return func(e *Engine) error {
		e.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the Engine.
func WithTracing(collector venuestore.TracingCollector) Option {
	return func(e *Engine) error {
		e.tracingCollector = collector
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the Engine.
func WithContextualLogger(logger venuestore.ContextualLogger) Option {
	return func(e *Engine) error {
		e.contextualLogger = logger
		return nil
	}
}

// CallOption configures a single fan-out call.
type CallOption func(*callConfig)

type callConfig struct {
	allOrNothing bool
}

// AllOrNothing fails the call as soon as one partition fails instead of returning a degraded result.
func AllOrNothing() CallOption {
	return func(c *callConfig) {
		c.allOrNothing = true
	}
}

func newCallConfig(opts []CallOption) callConfig {
	var cfg callConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}
