package oteladapters

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AntonStoeckl/venue-shards-go/venuestore"
)

const (
	attrStatus = "status"

	statusDescriptionError   = "operation failed"
	statusDescriptionPartial = "some partitions did not answer"
)

// TracingCollector implements venuestore.TracingCollector with an OpenTelemetry tracer.
type TracingCollector struct {
	tracer trace.Tracer
}

// NewTracingCollector creates a TracingCollector. The tracer usually comes from otel.Tracer(name).
func NewTracingCollector(tracer trace.Tracer) *TracingCollector {
	return &TracingCollector{tracer: tracer}
}

// StartSpan starts a child span of whatever span ctx carries and returns the derived context.
func (t *TracingCollector) StartSpan(
	ctx context.Context,
	name string,
	attrs map[string]string,
) (context.Context, venuestore.SpanContext) {

	spanCtx, span := t.tracer.Start(ctx, name, trace.WithAttributes(toAttributes(attrs)...))

	return spanCtx, &OTelSpanContext{span: span}
}

// FinishSpan adds attrs, maps status onto the span status, and ends the span.
// Span contexts that did not come from this collector are ignored.
func (t *TracingCollector) FinishSpan(spanCtx venuestore.SpanContext, status string, attrs map[string]string) {
	otelSpanCtx, ok := spanCtx.(*OTelSpanContext)
	if !ok || otelSpanCtx == nil {
		return
	}

	otelSpanCtx.span.SetAttributes(toAttributes(attrs)...)
	otelSpanCtx.SetStatus(status)
	otelSpanCtx.span.End()
}

var _ venuestore.TracingCollector = (*TracingCollector)(nil)

// OTelSpanContext wraps an OpenTelemetry span as a venuestore.SpanContext.
type OTelSpanContext struct {
	span trace.Span
}

// SetStatus records the outcome on the span.
//
// "success" maps to codes.Ok and "error" to codes.Error. A "partial" fan-out result keeps the
// span status unset, since the caller still got an answer, but is marked with a status
// attribute and an event. Any other value is only recorded as the status attribute.
func (s *OTelSpanContext) SetStatus(status string) {
	switch status {
	case venuestore.StatusSuccess:
		s.span.SetStatus(codes.Ok, "")
	case venuestore.StatusError:
		s.span.SetStatus(codes.Error, statusDescriptionError)
	case venuestore.StatusPartial:
		s.span.SetAttributes(attribute.String(attrStatus, status))
		s.span.AddEvent(statusDescriptionPartial)
	default:
		s.span.SetAttributes(attribute.String(attrStatus, status))
	}
}

// AddAttribute sets a string attribute on the span.
func (s *OTelSpanContext) AddAttribute(key, value string) {
	s.span.SetAttributes(attribute.String(key, value))
}

var _ venuestore.SpanContext = (*OTelSpanContext)(nil)
