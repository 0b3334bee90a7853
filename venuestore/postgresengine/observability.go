package postgresengine

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/AntonStoeckl/venue-shards-go/venuestore"
)

const (
	metricOperationDuration = "venuestore_operation_duration_seconds"
	metricDatabaseErrors    = "venuestore_database_errors_total"
	metricBookingConflicts  = "venuestore_booking_conflicts_total"
	metricRowsReturned      = "venuestore_rows_returned"

	spanNamePrefix = "venuestore."

	spanAttrOperation  = "operation"
	spanAttrPartition  = "partition"
	spanAttrStatus     = "status"
	spanAttrErrorType  = "error_type"
	spanAttrRowCount   = "row_count"
	spanAttrDurationMS = "duration_ms"
	spanAttrVenue      = "venue"
)

// logQueryWithDuration logs SQL queries with execution time at debug level if a logger is configured.
func (s *Store) logQueryWithDuration(ctx context.Context, sqlQuery string, action string, duration time.Duration) {
	args := []any{logAttrPartition, s.partitionName, logAttrDurationMS, toMilliseconds(duration), logAttrQuery, sqlQuery}

	if s.logger != nil {
		s.logger.Debug(logMsgSQLExecuted+action, args...)
	}

	if s.contextualLogger != nil {
		s.contextualLogger.DebugContext(ctx, logMsgSQLExecuted+action, args...)
	}
}

// logOperation logs operational information at info level.
func (s *Store) logOperation(ctx context.Context, msg string, args ...any) {
	allArgs := append([]any{logAttrPartition, s.partitionName}, args...)

	if s.logger != nil {
		s.logger.Info(msg, allArgs...)
	}

	if s.contextualLogger != nil {
		s.contextualLogger.InfoContext(ctx, msg, allArgs...)
	}
}

// logWarn logs non-critical issues.
func (s *Store) logWarn(ctx context.Context, msg string, args ...any) {
	allArgs := append([]any{logAttrPartition, s.partitionName}, args...)

	if s.logger != nil {
		s.logger.Warn(msg, allArgs...)
	}

	if s.contextualLogger != nil {
		s.contextualLogger.WarnContext(ctx, msg, allArgs...)
	}
}

// logError logs error information at the error level.
func (s *Store) logError(ctx context.Context, msg string, err error, args ...any) {
	allArgs := append([]any{logAttrPartition, s.partitionName, logAttrError, err.Error()}, args...)

	if s.logger != nil {
		s.logger.Error(msg, allArgs...)
	}

	if s.contextualLogger != nil {
		s.contextualLogger.ErrorContext(ctx, msg, allArgs...)
	}
}

// operationObserver bundles span, metrics, and the completion log of one store operation.
type operationObserver struct {
	s         *Store
	ctx       context.Context
	operation string
	venue     string
	start     time.Time
	span      venuestore.SpanContext
}

// startOperation starts the tracing span and the clock for one store operation.
// venue is the affected venue name, nil for partition-wide reads.
func (s *Store) startOperation(ctx context.Context, operation string, venue *string) (*operationObserver, context.Context) {
	o := &operationObserver{
		s:         s,
		operation: operation,
		start:     time.Now(),
	}

	if venue != nil {
		o.venue = *venue
	}

	if s.tracingCollector != nil {
		attrs := map[string]string{
			spanAttrOperation: operation,
			spanAttrPartition: s.partitionName,
		}
		if o.venue != "" {
			attrs[spanAttrVenue] = o.venue
		}

		ctx, o.span = s.tracingCollector.StartSpan(ctx, spanNamePrefix+operation, attrs)
	}

	o.ctx = ctx

	return o, ctx
}

// finish records the outcome. Business outcomes count as completed operations, not as database errors.
func (o *operationObserver) finish(err error, rowCount int) {
	duration := time.Since(o.start)

	status := venuestore.StatusSuccess
	if err != nil && !venuestore.IsBusinessOutcome(err) {
		status = venuestore.StatusError
	}

	o.recordDuration(duration, status)

	if err == nil && rowCount > 0 {
		o.recordValue(metricRowsReturned, float64(rowCount))
	}

	if err != nil && status == venuestore.StatusError {
		o.incrementCounter(metricDatabaseErrors, map[string]string{spanAttrErrorType: venuestore.ErrorType(err)})
	}

	if err != nil && venuestore.ErrorType(err) == "booking_overlap" {
		o.incrementCounter(metricBookingConflicts, nil)
	}

	o.log(err, rowCount, duration)
	o.finishSpan(err, status, rowCount, duration)
}

func (o *operationObserver) labels(extra map[string]string) map[string]string {
	labels := map[string]string{
		spanAttrOperation: o.operation,
		spanAttrPartition: o.s.partitionName,
	}

	for k, v := range extra {
		labels[k] = v
	}

	return labels
}

func (o *operationObserver) recordDuration(duration time.Duration, status string) {
	if o.s.metricsCollector == nil {
		return
	}

	labels := o.labels(map[string]string{spanAttrStatus: status})

	if contextual, ok := o.s.metricsCollector.(venuestore.ContextualMetricsCollector); ok {
		contextual.RecordDurationContext(o.ctx, metricOperationDuration, duration, labels)
		return
	}

	o.s.metricsCollector.RecordDuration(metricOperationDuration, duration, labels)
}

func (o *operationObserver) recordValue(metric string, value float64) {
	if o.s.metricsCollector == nil {
		return
	}

	labels := o.labels(nil)

	if contextual, ok := o.s.metricsCollector.(venuestore.ContextualMetricsCollector); ok {
		contextual.RecordValueContext(o.ctx, metric, value, labels)
		return
	}

	o.s.metricsCollector.RecordValue(metric, value, labels)
}

func (o *operationObserver) incrementCounter(metric string, extra map[string]string) {
	if o.s.metricsCollector == nil {
		return
	}

	labels := o.labels(extra)

	if contextual, ok := o.s.metricsCollector.(venuestore.ContextualMetricsCollector); ok {
		contextual.IncrementCounterContext(o.ctx, metric, labels)
		return
	}

	o.s.metricsCollector.IncrementCounter(metric, labels)
}

func (o *operationObserver) log(err error, rowCount int, duration time.Duration) {
	args := []any{logAttrDurationMS, toMilliseconds(duration)}
	if o.venue != "" {
		args = append(args, logAttrVenue, o.venue)
	}

	switch {
	case err == nil:
		args = append(args, logAttrRowCount, rowCount)
		o.s.logOperation(o.ctx, logMsgOperation+o.operation, args...)

	case venuestore.IsBusinessOutcome(err):
		args = append(args, logAttrOutcome, venuestore.ErrorType(err))
		o.s.logOperation(o.ctx, logMsgOperationRejected+o.operation, args...)

	default:
		o.s.logError(o.ctx, logMsgOperationFailed+o.operation, err, args...)
	}
}

func (o *operationObserver) finishSpan(err error, status string, rowCount int, duration time.Duration) {
	if o.s.tracingCollector == nil || o.span == nil {
		return
	}

	attrs := map[string]string{
		spanAttrDurationMS: fmt.Sprintf("%.2f", toMilliseconds(duration)),
		spanAttrRowCount:   strconv.Itoa(rowCount),
	}

	if err != nil {
		attrs[spanAttrErrorType] = venuestore.ErrorType(err)
	}

	o.s.tracingCollector.FinishSpan(o.span, status, attrs)
}
