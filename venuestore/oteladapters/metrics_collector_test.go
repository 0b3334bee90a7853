package oteladapters_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/AntonStoeckl/venue-shards-go/venuestore/oteladapters"
)

func newMeterFixture() (*oteladapters.MetricsCollector, *sdkmetric.ManualReader) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	return oteladapters.NewMetricsCollector(provider.Meter("test")), reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	return rm
}

func findMetric(t *testing.T, rm metricdata.ResourceMetrics, name string) metricdata.Metrics {
	t.Helper()

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m
			}
		}
	}

	require.FailNow(t, "metric not found", name)

	return metricdata.Metrics{}
}

func Test_MetricsCollector_RecordDuration(t *testing.T) {
	// setup
	collector, reader := newMeterFixture()

	// act
	collector.RecordDurationContext(
		context.Background(),
		"venuestore_operation_duration_seconds",
		150*time.Millisecond,
		map[string]string{"operation": "create_booking", "status": "success"},
	)

	// assert
	m := findMetric(t, collect(t, reader), "venuestore_operation_duration_seconds")
	assert.Equal(t, "s", m.Unit)
	assert.Equal(t, "Venue partition store operation duration", m.Description)

	histogram, ok := m.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, histogram.DataPoints, 1)

	dp := histogram.DataPoints[0]
	assert.Equal(t, uint64(1), dp.Count)
	assert.InDelta(t, 0.15, dp.Sum, 0.001)

	expected := attribute.NewSet(
		attribute.String("operation", "create_booking"),
		attribute.String("status", "success"),
	)
	assert.True(t, dp.Attributes.Equals(&expected))
}

func Test_MetricsCollector_IncrementCounter_When_CalledRepeatedly(t *testing.T) {
	// setup
	collector, reader := newMeterFixture()
	labels := map[string]string{"operation": "search", "partition": "p1"}

	// act
	collector.IncrementCounter("fanout_partition_failures_total", labels)
	collector.IncrementCounter("fanout_partition_failures_total", labels)
	collector.IncrementCounterContext(context.Background(), "fanout_partition_failures_total", labels)

	// assert
	m := findMetric(t, collect(t, reader), "fanout_partition_failures_total")
	assert.Equal(t, "Fan-out query event count", m.Description)

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(3), sum.DataPoints[0].Value)
}

func Test_MetricsCollector_RecordValue_When_GaugeIsOverwritten(t *testing.T) {
	// setup
	collector, reader := newMeterFixture()

	// act
	collector.RecordValue("venuestore_rows_returned", 12, map[string]string{"operation": "search_venues"})
	collector.RecordValueContext(context.Background(), "venuestore_rows_returned", 3, map[string]string{"operation": "search_venues"})

	// assert
	gauge, ok := findMetric(t, collect(t, reader), "venuestore_rows_returned").Data.(metricdata.Gauge[float64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.InDelta(t, 3.0, gauge.DataPoints[0].Value, 0.0001)
}

func Test_MetricsCollector_When_LabelsAreNil(t *testing.T) {
	// setup
	collector, reader := newMeterFixture()

	// act
	collector.IncrementCounter("custom_total", nil)

	// assert
	m := findMetric(t, collect(t, reader), "custom_total")
	assert.Equal(t, "Venue shards event count", m.Description)

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, 0, sum.DataPoints[0].Attributes.Len())
}

func Test_MetricsCollector_When_UsedConcurrently(t *testing.T) {
	// setup
	collector, reader := newMeterFixture()
	const goroutines = 16

	// act
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			collector.IncrementCounter("fanout_partition_failures_total", map[string]string{"operation": "search"})
			collector.RecordDuration("fanout_query_duration_seconds", time.Millisecond, map[string]string{"operation": "search"})
		}()
	}
	wg.Wait()

	// assert
	rm := collect(t, reader)

	sum, ok := findMetric(t, rm, "fanout_partition_failures_total").Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Equal(t, int64(goroutines), sum.DataPoints[0].Value)

	histogram, ok := findMetric(t, rm, "fanout_query_duration_seconds").Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	assert.Equal(t, uint64(goroutines), histogram.DataPoints[0].Count)
}

func Test_MetricsCollector_When_InstrumentNameIsInvalid(t *testing.T) {
	// setup
	collector, _ := newMeterFixture()

	// act & assert
	assert.NotPanics(t, func() {
		collector.IncrementCounter("", map[string]string{"operation": "search"})
		collector.RecordDuration("1invalid", time.Second, nil)
		collector.RecordValue("", 1, nil)
	})
}
