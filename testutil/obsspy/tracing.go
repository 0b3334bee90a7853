package obsspy

import (
	"context"
	"maps"
	"sync"

	"github.com/AntonStoeckl/venue-shards-go/venuestore"
)

// SpanContext implements venuestore.SpanContext for testing.
type SpanContext struct {
	mu         sync.Mutex
	status     string
	attributes map[string]string
}

// SetStatus implements venuestore.SpanContext.
func (c *SpanContext) SetStatus(status string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = status
}

// AddAttribute implements venuestore.SpanContext.
func (c *SpanContext) AddAttribute(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.attributes == nil {
		c.attributes = make(map[string]string)
	}

	c.attributes[key] = value
}

// SpanRecord represents one started span and, once finished, its outcome.
type SpanRecord struct {
	Name            string
	StartAttributes map[string]string
	Status          string
	EndAttributes   map[string]string
	Finished        bool
}

// TracingSpy captures tracing calls. It implements venuestore.TracingCollector.
type TracingSpy struct {
	mu    sync.Mutex
	spans []*SpanRecord
	index map[*SpanContext]*SpanRecord
}

// NewTracingSpy creates an empty TracingSpy.
func NewTracingSpy() *TracingSpy {
	return &TracingSpy{index: make(map[*SpanContext]*SpanRecord)}
}

// StartSpan implements venuestore.TracingCollector.
func (s *TracingSpy) StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, venuestore.SpanContext) {
	s.mu.Lock()
	defer s.mu.Unlock()

	spanCtx := &SpanContext{}
	record := &SpanRecord{Name: name, StartAttributes: maps.Clone(attrs)}
	s.spans = append(s.spans, record)
	s.index[spanCtx] = record

	return ctx, spanCtx
}

// FinishSpan implements venuestore.TracingCollector.
func (s *TracingSpy) FinishSpan(spanCtx venuestore.SpanContext, status string, attrs map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := spanCtx.(*SpanContext)
	if !ok {
		return
	}

	record, ok := s.index[c]
	if !ok {
		return
	}

	record.Status = status
	record.EndAttributes = maps.Clone(attrs)
	record.Finished = true
}

// Spans returns copies of all span records named name, in start order.
func (s *TracingSpy) Spans(name string) []SpanRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := make([]SpanRecord, 0)
	for _, r := range s.spans {
		if r.Name == name {
			found = append(found, *r)
		}
	}

	return found
}

// SpanCount returns the number of started spans.
func (s *TracingSpy) SpanCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.spans)
}
