package shell

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/AntonStoeckl/venue-shards-go/venuestore"
)

const (
	// CommandHandlerDurationMetric tracks command handler execution duration.
	CommandHandlerDurationMetric = "commandhandler_handle_duration_seconds"

	// CommandHandlerCallsMetric counts command handler calls by status.
	CommandHandlerCallsMetric = "commandhandler_handle_calls_total"

	// CommandHandlerRejectedMetric counts commands refused with a business outcome.
	//
	// Labels: command_type, outcome (venue_already_exists, booking_overlap, venue_not_found, validation).
	CommandHandlerRejectedMetric = "commandhandler_rejected_operations_total"

	// CommandHandlerRetriesMetric counts retry attempts after transient conflicts.
	//
	// Labels: command_type, attempt_number, error_type.
	CommandHandlerRetriesMetric = "commandhandler_retries_total"

	// CommandHandlerRetryDelayMetric tracks the backoff delays before retries.
	CommandHandlerRetryDelayMetric = "commandhandler_retry_delay_seconds"

	// CommandHandlerMaxRetriesReachedMetric counts commands that failed on their last allowed attempt.
	CommandHandlerMaxRetriesReachedMetric = "commandhandler_max_retries_reached_total"

	// QueryHandlerDurationMetric tracks query handler execution duration.
	QueryHandlerDurationMetric = "queryhandler_handle_duration_seconds"

	// QueryHandlerCallsMetric counts query handler calls by status.
	QueryHandlerCallsMetric = "queryhandler_handle_calls_total"

	// QueryHandlerDegradedMetric counts fan-out queries answered without every partition.
	QueryHandlerDegradedMetric = "queryhandler_degraded_results_total"

	StatusSuccess  = venuestore.StatusSuccess
	StatusError    = venuestore.StatusError
	StatusPartial  = venuestore.StatusPartial
	StatusRejected = "rejected"
	StatusCanceled = "canceled"
	StatusTimeout  = "timeout"

	LogMsgCommandStarted   = "command handler started"
	LogMsgCommandCompleted = "command handler completed"
	LogMsgCommandRejected  = "command handler rejected"
	LogMsgCommandFailed    = "command handler failed"
	LogMsgQueryStarted     = "query handler started"
	LogMsgQueryCompleted   = "query handler completed"
	LogMsgQueryDegraded    = "query handler degraded"
	LogMsgQueryFailed      = "query handler failed"

	LogAttrCommandType    = "command_type"
	LogAttrQueryType      = "query_type"
	LogAttrStatus         = "status"
	LogAttrOutcome        = "outcome"
	LogAttrDurationMS     = "duration_ms"
	LogAttrError          = "error"
	LogAttrErrorType      = "error_type"
	LogAttrAttemptNumber  = "attempt_number"
	LogAttrFinalErrorType = "final_error_type"
	LogAttrRetryAttempts  = "retry_attempts"
	LogAttrFailed         = "failed_partitions"

	SpanNameCommandHandle = "commandhandler.handle"
	SpanNameQueryHandle   = "queryhandler.handle"
)

// BuildCommandLabels returns the metric labels of a command call.
func BuildCommandLabels(commandType, status string) map[string]string {
	return map[string]string{
		LogAttrCommandType: commandType,
		LogAttrStatus:      status,
	}
}

// BuildQueryLabels returns the metric labels of a query call.
func BuildQueryLabels(queryType, status string) map[string]string {
	return map[string]string{
		LogAttrQueryType: queryType,
		LogAttrStatus:    status,
	}
}

// BuildRetryLabels returns the metric labels of one retry attempt.
func BuildRetryLabels(commandType string, attemptNumber int, errorType string) map[string]string {
	return map[string]string{
		LogAttrCommandType:   commandType,
		LogAttrAttemptNumber: strconv.Itoa(attemptNumber),
		LogAttrErrorType:     errorType,
	}
}

// StatusOf maps a handler error to the status used in metrics, spans, and logs.
func StatusOf(err error) string {
	switch {
	case err == nil:
		return StatusSuccess
	case IsRejection(err):
		return StatusRejected
	case IsCancellationError(err):
		return StatusCanceled
	case IsTimeoutError(err):
		return StatusTimeout
	default:
		return StatusError
	}
}

// RecordCommandMetrics records duration and call count of a command, plus the rejection counter.
func RecordCommandMetrics(
	ctx context.Context,
	collector MetricsCollector,
	commandType string,
	status string,
	err error,
	duration time.Duration,
) {

	if collector == nil {
		return
	}

	labels := BuildCommandLabels(commandType, status)
	recordDuration(ctx, collector, CommandHandlerDurationMetric, duration, labels)
	incrementCounter(ctx, collector, CommandHandlerCallsMetric, labels)

	if status == StatusRejected {
		incrementCounter(ctx, collector, CommandHandlerRejectedMetric, map[string]string{
			LogAttrCommandType: commandType,
			LogAttrOutcome:     venuestore.ErrorType(err),
		})
	}
}

// RecordQueryMetrics records duration and call count of a query, plus the degraded counter.
func RecordQueryMetrics(
	ctx context.Context,
	collector MetricsCollector,
	queryType string,
	status string,
	duration time.Duration,
) {

	if collector == nil {
		return
	}

	labels := BuildQueryLabels(queryType, status)
	recordDuration(ctx, collector, QueryHandlerDurationMetric, duration, labels)
	incrementCounter(ctx, collector, QueryHandlerCallsMetric, labels)

	if status == StatusPartial {
		incrementCounter(ctx, collector, QueryHandlerDegradedMetric, map[string]string{LogAttrQueryType: queryType})
	}
}

// StartSpan starts a handler span when tracing is configured.
func StartSpan(
	ctx context.Context,
	tracingCollector TracingCollector,
	spanName string,
	typeAttr string,
	typeName string,
) (context.Context, SpanContext) {

	if tracingCollector == nil {
		return ctx, nil
	}

	return tracingCollector.StartSpan(ctx, spanName, map[string]string{typeAttr: typeName})
}

// FinishSpan ends a handler span with status, duration, and error.
func FinishSpan(
	tracingCollector TracingCollector,
	span SpanContext,
	status string,
	duration time.Duration,
	err error,
) {

	if tracingCollector == nil || span == nil {
		return
	}

	attrs := map[string]string{
		LogAttrStatus:     status,
		LogAttrDurationMS: strconv.FormatFloat(ToMilliseconds(duration), 'f', 2, 64),
	}

	if err != nil {
		attrs[LogAttrError] = err.Error()
		attrs[LogAttrErrorType] = venuestore.ErrorType(err)
	}

	tracingCollector.FinishSpan(span, status, attrs)
}

// LogCommandStart logs the beginning of command processing.
func LogCommandStart(ctx context.Context, logger Logger, contextualLogger ContextualLogger, commandType string) {
	logDebug(ctx, logger, contextualLogger, LogMsgCommandStarted, LogAttrCommandType, commandType)
}

// LogCommandOutcome logs a completed, rejected, or failed command.
func LogCommandOutcome(
	ctx context.Context,
	logger Logger,
	contextualLogger ContextualLogger,
	commandType string,
	result HandlerResult,
	err error,
	duration time.Duration,
) {

	args := []any{
		LogAttrCommandType, commandType,
		LogAttrDurationMS, ToMilliseconds(duration),
	}

	if result.RetryAttempts > 1 {
		args = append(args, LogAttrRetryAttempts, result.RetryAttempts)
	}

	switch StatusOf(err) {
	case StatusSuccess:
		logInfo(ctx, logger, contextualLogger, LogMsgCommandCompleted, args...)
	case StatusRejected:
		args = append(args, LogAttrOutcome, venuestore.ErrorType(err))
		logInfo(ctx, logger, contextualLogger, LogMsgCommandRejected, args...)
	default:
		args = append(args, LogAttrError, err.Error())
		logError(ctx, logger, contextualLogger, LogMsgCommandFailed, args...)
	}
}

// LogQueryStart logs the beginning of query processing.
func LogQueryStart(ctx context.Context, logger Logger, contextualLogger ContextualLogger, queryType string) {
	logDebug(ctx, logger, contextualLogger, LogMsgQueryStarted, LogAttrQueryType, queryType)
}

// LogQueryOutcome logs a completed, degraded, or failed query.
func LogQueryOutcome(
	ctx context.Context,
	logger Logger,
	contextualLogger ContextualLogger,
	queryType string,
	failedPartitions []string,
	err error,
	duration time.Duration,
) {

	args := []any{
		LogAttrQueryType, queryType,
		LogAttrDurationMS, ToMilliseconds(duration),
	}

	switch {
	case err != nil && !IsRejection(err):
		args = append(args, LogAttrError, err.Error())
		logError(ctx, logger, contextualLogger, LogMsgQueryFailed, args...)
	case len(failedPartitions) > 0:
		args = append(args, LogAttrFailed, strings.Join(failedPartitions, ","))
		logWarn(ctx, logger, contextualLogger, LogMsgQueryDegraded, args...)
	default:
		if err != nil {
			args = append(args, LogAttrOutcome, venuestore.ErrorType(err))
		}
		logInfo(ctx, logger, contextualLogger, LogMsgQueryCompleted, args...)
	}
}

// ToMilliseconds converts a duration to float64 milliseconds with 3 decimal places.
func ToMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}

func recordDuration(
	ctx context.Context,
	collector MetricsCollector,
	metric string,
	duration time.Duration,
	labels map[string]string,
) {

	if contextual, ok := collector.(ContextualMetricsCollector); ok {
		contextual.RecordDurationContext(ctx, metric, duration, labels)
		return
	}

	collector.RecordDuration(metric, duration, labels)
}

func incrementCounter(ctx context.Context, collector MetricsCollector, metric string, labels map[string]string) {
	if contextual, ok := collector.(ContextualMetricsCollector); ok {
		contextual.IncrementCounterContext(ctx, metric, labels)
		return
	}

	collector.IncrementCounter(metric, labels)
}

func logDebug(ctx context.Context, logger Logger, contextualLogger ContextualLogger, msg string, args ...any) {
	if contextualLogger != nil {
		contextualLogger.DebugContext(ctx, msg, args...)
	}

	if logger != nil {
		logger.Debug(msg, args...)
	}
}

func logInfo(ctx context.Context, logger Logger, contextualLogger ContextualLogger, msg string, args ...any) {
	if contextualLogger != nil {
		contextualLogger.InfoContext(ctx, msg, args...)
	}

	if logger != nil {
		logger.Info(msg, args...)
	}
}

func logWarn(ctx context.Context, logger Logger, contextualLogger ContextualLogger, msg string, args ...any) {
	if contextualLogger != nil {
		contextualLogger.WarnContext(ctx, msg, args...)
	}

	if logger != nil {
		logger.Warn(msg, args...)
	}
}

func logError(ctx context.Context, logger Logger, contextualLogger ContextualLogger, msg string, args ...any) {
	if contextualLogger != nil {
		contextualLogger.ErrorContext(ctx, msg, args...)
	}

	if logger != nil {
		logger.Error(msg, args...)
	}
}
