package fanout

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/AntonStoeckl/venue-shards-go/venuestore"
)

const (
	metricFanoutDuration    = "fanout_query_duration_seconds"
	metricPartitionFailures = "fanout_partition_failures_total"

	spanNamePrefix = "fanout."

	logMsgFanoutCompleted  = "fanout completed: "
	logMsgFanoutDegraded   = "fanout degraded: "
	logMsgFanoutFailed     = "fanout failed: "
	logMsgPartitionFailed  = "fanout partition call failed"
	logAttrOperation       = "operation"
	logAttrPartition       = "partition"
	logAttrPartitions      = "partitions"
	logAttrAnswered        = "answered"
	logAttrFailed          = "failed_partitions"
	logAttrStrict          = "all_or_nothing"
	logAttrError           = "error"
	logAttrDurationMS      = "duration_ms"
	attrStatus             = "status"
	attrErrorType          = "error_type"
	attrFailedPartitionCnt = "failed_partition_count"
)

type fanoutObserver struct {
	e         *Engine
	ctx       context.Context
	operation string
	strict    bool
	start     time.Time
	span      venuestore.SpanContext
}

func (e *Engine) startOperation(ctx context.Context, operation string, cfg callConfig) (*fanoutObserver, context.Context) {
	o := &fanoutObserver{
		e:         e,
		operation: operation,
		strict:    cfg.allOrNothing,
		start:     time.Now(),
	}

	if e.tracingCollector != nil {
		ctx, o.span = e.tracingCollector.StartSpan(ctx, spanNamePrefix+operation, map[string]string{
			logAttrOperation:  operation,
			logAttrPartitions: strconv.Itoa(len(e.targets)),
			logAttrStrict:     strconv.FormatBool(cfg.allOrNothing),
		})
	}

	o.ctx = ctx

	return o, ctx
}

func (o *fanoutObserver) partitionFailed(f Failure) {
	args := []any{logAttrOperation, o.operation, logAttrPartition, f.Name, logAttrError, f.Err.Error()}

	if o.e.contextualLogger != nil {
		o.e.contextualLogger.WarnContext(o.ctx, logMsgPartitionFailed, args...)
	}

	if o.e.logger != nil {
		o.e.logger.Warn(logMsgPartitionFailed, args...)
	}

	o.incrementCounter(metricPartitionFailures, map[string]string{
		logAttrOperation: o.operation,
		logAttrPartition: f.Name,
		attrErrorType:    venuestore.ErrorType(f.Err),
	})
}

func (o *fanoutObserver) finish(answered int, failures Failures, err error) {
	duration := time.Since(o.start)

	status := venuestore.StatusSuccess
	switch {
	case err != nil:
		status = venuestore.StatusError
	case len(failures) > 0:
		status = venuestore.StatusPartial
	}

	o.recordDuration(duration, status)

	args := []any{
		logAttrPartitions, len(o.e.targets),
		logAttrAnswered, answered,
		logAttrDurationMS, toMilliseconds(duration),
	}
	if o.strict {
		args = append(args, logAttrStrict, true)
	}
	if len(failures) > 0 {
		args = append(args, logAttrFailed, failureNames(failures))
	}

	switch status {
	case venuestore.StatusError:
		o.e.logError(o.ctx, logMsgFanoutFailed+o.operation, append(args, logAttrError, err.Error())...)
	case venuestore.StatusPartial:
		o.e.logWarn(o.ctx, logMsgFanoutDegraded+o.operation, args...)
	default:
		o.e.logInfo(o.ctx, logMsgFanoutCompleted+o.operation, args...)
	}

	if o.e.tracingCollector == nil || o.span == nil {
		return
	}

	attrs := map[string]string{
		logAttrAnswered:        strconv.Itoa(answered),
		attrFailedPartitionCnt: strconv.Itoa(len(failures)),
		logAttrDurationMS:      fmt.Sprintf("%.2f", toMilliseconds(duration)),
	}
	if err != nil {
		attrs[attrErrorType] = venuestore.ErrorType(err)
	}

	o.e.tracingCollector.FinishSpan(o.span, status, attrs)
}

func (o *fanoutObserver) recordDuration(duration time.Duration, status string) {
	if o.e.metricsCollector == nil {
		return
	}

	labels := map[string]string{logAttrOperation: o.operation, attrStatus: status}

	if contextual, ok := o.e.metricsCollector.(venuestore.ContextualMetricsCollector); ok {
		contextual.RecordDurationContext(o.ctx, metricFanoutDuration, duration, labels)
		return
	}

	o.e.metricsCollector.RecordDuration(metricFanoutDuration, duration, labels)
}

func (o *fanoutObserver) incrementCounter(metric string, labels map[string]string) {
	if o.e.metricsCollector == nil {
		return
	}

	if contextual, ok := o.e.metricsCollector.(venuestore.ContextualMetricsCollector); ok {
		contextual.IncrementCounterContext(o.ctx, metric, labels)
		return
	}

	o.e.metricsCollector.IncrementCounter(metric, labels)
}

func (e *Engine) logInfo(ctx context.Context, msg string, args ...any) {
	if e.contextualLogger != nil {
		e.contextualLogger.InfoContext(ctx, msg, args...)
	}

	if e.logger != nil {
		e.logger.Info(msg, args...)
	}
}

func (e *Engine) logWarn(ctx context.Context, msg string, args ...any) {
	if e.contextualLogger != nil {
		e.contextualLogger.WarnContext(ctx, msg, args...)
	}

	if e.logger != nil {
		e.logger.Warn(msg, args...)
	}
}

func (e *Engine) logError(ctx context.Context, msg string, args ...any) {
	if e.contextualLogger != nil {
		e.contextualLogger.ErrorContext(ctx, msg, args...)
	}

	if e.logger != nil {
		e.logger.Error(msg, args...)
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
