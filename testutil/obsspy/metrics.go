package obsspy

import (
	"context"
	"maps"
	"sync"
	"time"
)

// DurationRecord represents a recorded duration metric call.
type DurationRecord struct {
	Metric   string
	Duration time.Duration
	Labels   map[string]string
}

// CounterRecord represents a recorded counter increment call.
type CounterRecord struct {
	Metric string
	Labels map[string]string
}

// ValueRecord represents a recorded value metric call.
type ValueRecord struct {
	Metric string
	Value  float64
	Labels map[string]string
}

// MetricsSpy captures metrics calls. It implements venuestore.ContextualMetricsCollector.
type MetricsSpy struct {
	mu        sync.Mutex
	durations []DurationRecord
	counters  []CounterRecord
	values    []ValueRecord
	withCtx   int
}

// NewMetricsSpy creates an empty MetricsSpy.
func NewMetricsSpy() *MetricsSpy {
	return &MetricsSpy{}
}

// RecordDuration implements venuestore.MetricsCollector.
func (s *MetricsSpy) RecordDuration(metric string, duration time.Duration, labels map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.durations = append(s.durations, DurationRecord{Metric: metric, Duration: duration, Labels: maps.Clone(labels)})
}

// IncrementCounter implements venuestore.MetricsCollector.
func (s *MetricsSpy) IncrementCounter(metric string, labels map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters = append(s.counters, CounterRecord{Metric: metric, Labels: maps.Clone(labels)})
}

// RecordValue implements venuestore.MetricsCollector.
func (s *MetricsSpy) RecordValue(metric string, value float64, labels map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = append(s.values, ValueRecord{Metric: metric, Value: value, Labels: maps.Clone(labels)})
}

// RecordDurationContext implements venuestore.ContextualMetricsCollector.
func (s *MetricsSpy) RecordDurationContext(_ context.Context, metric string, duration time.Duration, labels map[string]string) {
	s.countContextCall()
	s.RecordDuration(metric, duration, labels)
}

// IncrementCounterContext implements venuestore.ContextualMetricsCollector.
func (s *MetricsSpy) IncrementCounterContext(_ context.Context, metric string, labels map[string]string) {
	s.countContextCall()
	s.IncrementCounter(metric, labels)
}

// RecordValueContext implements venuestore.ContextualMetricsCollector.
func (s *MetricsSpy) RecordValueContext(_ context.Context, metric string, value float64, labels map[string]string) {
	s.countContextCall()
	s.RecordValue(metric, value, labels)
}

func (s *MetricsSpy) countContextCall() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.withCtx++
}

// ContextCalls returns how many calls went through the context-aware methods.
func (s *MetricsSpy) ContextCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withCtx
}

// Durations returns the captured duration records of metric.
func (s *MetricsSpy) Durations(metric string) []DurationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := make([]DurationRecord, 0)
	for _, r := range s.durations {
		if r.Metric == metric {
			found = append(found, r)
		}
	}

	return found
}

// Counters returns the captured counter records of metric.
func (s *MetricsSpy) Counters(metric string) []CounterRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := make([]CounterRecord, 0)
	for _, r := range s.counters {
		if r.Metric == metric {
			found = append(found, r)
		}
	}

	return found
}

// Values returns the captured value records of metric.
func (s *MetricsSpy) Values(metric string) []ValueRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := make([]ValueRecord, 0)
	for _, r := range s.values {
		if r.Metric == metric {
			found = append(found, r)
		}
	}

	return found
}

// HasDuration reports whether a duration of metric was recorded whose labels contain all of labels.
func (s *MetricsSpy) HasDuration(metric string, labels map[string]string) bool {
	for _, r := range s.Durations(metric) {
		if containsLabels(r.Labels, labels) {
			return true
		}
	}

	return false
}

// HasCounter reports whether metric was incremented with labels containing all of labels.
func (s *MetricsSpy) HasCounter(metric string, labels map[string]string) bool {
	for _, r := range s.Counters(metric) {
		if containsLabels(r.Labels, labels) {
			return true
		}
	}

	return false
}

func containsLabels(have, want map[string]string) bool {
	for k, v := range want {
		if have[k] != v {
			return false
		}
	}

	return true
}
