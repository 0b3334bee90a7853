package oteladapters_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/embedded"
	"go.opentelemetry.io/otel/log/noop"

	"github.com/AntonStoeckl/venue-shards-go/venuestore/oteladapters"
)

// emitted is what a record carried when it was emitted. The record itself may be reused by the caller.
type emitted struct {
	severity log.Severity
	body     log.Value
	attrs    map[string]log.Value
}

type recordingLogger struct {
	embedded.Logger

	mu      sync.Mutex
	records []emitted
}

func (r *recordingLogger) Emit(_ context.Context, record log.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records = append(r.records, emitted{
		severity: record.Severity(),
		body:     record.Body(),
		attrs:    attributesOf(record),
	})
}

func (r *recordingLogger) Enabled(context.Context, log.EnabledParameters) bool {
	return true
}

func attributesOf(record log.Record) map[string]log.Value {
	attrs := make(map[string]log.Value)
	record.WalkAttributes(func(kv log.KeyValue) bool {
		attrs[kv.Key] = kv.Value
		return true
	})

	return attrs
}

func Test_SlogBridgeLogger_WithHandler_WritesAllLevels(t *testing.T) {
	// setup
	var buf bytes.Buffer
	logger := oteladapters.NewSlogBridgeLoggerWithHandler(
		slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)
	ctx := context.Background()

	// act
	logger.DebugContext(ctx, "executed sql for: find venue", "partition", "p0")
	logger.InfoContext(ctx, "venuestore operation: add_venue", "row_count", 1)
	logger.WarnContext(ctx, "fanout partition call failed", "partition", "p2")
	logger.ErrorContext(ctx, "venuestore operation failed: create_booking", "error", "boom")

	// assert
	output := buf.String()
	assert.Contains(t, output, `"level":"DEBUG"`)
	assert.Contains(t, output, `"level":"INFO"`)
	assert.Contains(t, output, `"level":"WARN"`)
	assert.Contains(t, output, `"level":"ERROR"`)
	assert.Contains(t, output, `"row_count":1`)
	assert.Contains(t, output, `"partition":"p2"`)
}

func Test_SlogBridgeLogger_When_NoProviderIsConfigured(t *testing.T) {
	// setup
	logger := oteladapters.NewSlogBridgeLogger("venuestore")

	// act & assert
	assert.NotPanics(t, func() {
		logger.InfoContext(context.Background(), "venuestore operation: search_venues", "row_count", 0)
	})
}

func Test_OTelLogger_EmitsTypedAttributes(t *testing.T) {
	// setup
	recorder := &recordingLogger{}
	logger := oteladapters.NewOTelLogger(recorder)

	// act
	logger.WarnContext(context.Background(), "fanout degraded: search",
		"partition", "p1",
		"answered", 2,
		"duration_ms", 12.5,
		"all_or_nothing", false,
		"timeout", 250*time.Millisecond,
		"error", errors.New("partition unavailable"),
	)

	// assert
	require.Len(t, recorder.records, 1)
	record := recorder.records[0]
	assert.Equal(t, log.SeverityWarn, record.severity)
	assert.Equal(t, "fanout degraded: search", record.body.AsString())

	attrs := record.attrs
	assert.Equal(t, "p1", attrs["partition"].AsString())
	assert.Equal(t, int64(2), attrs["answered"].AsInt64())
	assert.InDelta(t, 12.5, attrs["duration_ms"].AsFloat64(), 0.0001)
	assert.False(t, attrs["all_or_nothing"].AsBool())
	assert.Equal(t, int64(250), attrs["timeout"].AsInt64())
	assert.Equal(t, "partition unavailable", attrs["error"].AsString())
}

func Test_OTelLogger_When_ArgumentsAreMalformed(t *testing.T) {
	// setup
	recorder := &recordingLogger{}
	logger := oteladapters.NewOTelLogger(recorder)

	// act
	logger.ErrorContext(context.Background(), "venuestore operation failed: add_venue", "venue", "Main Hall", 42, "ignored", "dangling")

	// assert
	require.Len(t, recorder.records, 1)
	attrs := recorder.records[0].attrs
	assert.Len(t, attrs, 1)
	assert.Equal(t, "Main Hall", attrs["venue"].AsString())
}

func Test_OTelLogger_Severities(t *testing.T) {
	// setup
	recorder := &recordingLogger{}
	logger := oteladapters.NewOTelLogger(recorder)
	ctx := context.Background()

	// act
	logger.DebugContext(ctx, "d")
	logger.InfoContext(ctx, "i")
	logger.WarnContext(ctx, "w")
	logger.ErrorContext(ctx, "e")

	// assert
	require.Len(t, recorder.records, 4)
	assert.Equal(t, log.SeverityDebug, recorder.records[0].severity)
	assert.Equal(t, log.SeverityInfo, recorder.records[1].severity)
	assert.Equal(t, log.SeverityWarn, recorder.records[2].severity)
	assert.Equal(t, log.SeverityError, recorder.records[3].severity)
}

func Test_OTelLogger_WithNoopProvider(t *testing.T) {
	// setup
	logger := oteladapters.NewOTelLogger(noop.NewLoggerProvider().Logger("test"))

	// act & assert
	assert.NotPanics(t, func() {
		logger.InfoContext(context.Background(), "venuestore operation: list_bookings", "row_count", 3)
	})
}
