// Package logspy provides a slog.Handler that captures log records for assertions in tests.
package logspy

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Handler is a slog.Handler implementation that captures log records for testing.
type Handler struct {
	records     []slog.Record
	mu          sync.Mutex
	logToStdout bool
}

// NewHandler creates a new Handler.
// Switchable to log to stdout, which can be useful for debugging tests by seeing the actual log output.
func NewHandler(logToStdout bool) *Handler {
	return &Handler{
		records:     make([]slog.Record, 0),
		logToStdout: logToStdout,
	}
}

// NewLogger returns a *slog.Logger writing into a fresh Handler, plus the handler for assertions.
func NewLogger() (*slog.Logger, *Handler) {
	h := NewHandler(false)
	return slog.New(h), h
}

// Handle implements slog.Handler interface.
func (h *Handler) Handle(ctx context.Context, record slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, record.Clone())

	if h.logToStdout {
		_ = slog.NewJSONHandler(os.Stdout, nil).Handle(ctx, record)
	}

	return nil
}

// Enabled implements slog.Handler interface.
func (h *Handler) Enabled(_ context.Context, _ slog.Level) bool {
	return true
}

// WithAttrs implements slog.Handler interface.
func (h *Handler) WithAttrs(_ []slog.Attr) slog.Handler {
	return h
}

// WithGroup implements slog.Handler interface.
func (h *Handler) WithGroup(_ string) slog.Handler {
	return h
}

// RecordCount returns the number of captured log records.
func (h *Handler) RecordCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.records)
}

// Records returns a copy of all captured log records.
func (h *Handler) Records() []slog.Record {
	h.mu.Lock()
	defer h.mu.Unlock()

	records := make([]slog.Record, len(h.records))
	copy(records, h.records)

	return records
}

// Reset clears all captured log records.
func (h *Handler) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = h.records[:0]
}

// Has reports whether a record with the level and a message starting with prefix was captured.
func (h *Handler) Has(level slog.Level, prefix string) bool {
	return h.Find(level, prefix).Found()
}

// Find starts a fluent chain on the first record with the level and a message starting with prefix.
func (h *Handler) Find(level slog.Level, prefix string) *Matcher {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i := range h.records {
		if h.records[i].Level == level && strings.HasPrefix(h.records[i].Message, prefix) {
			record := h.records[i]
			return &Matcher{record: &record, found: true}
		}
	}

	return &Matcher{}
}

// Matcher provides a fluent interface for checking log record attributes.
type Matcher struct {
	record *slog.Record
	found  bool
}

// WithAttr narrows the match to records carrying key with the given value rendered as a string.
func (m *Matcher) WithAttr(key, value string) *Matcher {
	if !m.found {
		return m
	}

	m.found = false
	m.record.Attrs(func(attr slog.Attr) bool {
		if attr.Key == key && attr.Value.String() == value {
			m.found = true
			return false
		}

		return true
	})

	return m
}

// WithDurationMS narrows the match to records carrying a non-negative duration_ms attribute.
func (m *Matcher) WithDurationMS() *Matcher {
	if !m.found {
		return m
	}

	m.found = false
	m.record.Attrs(func(attr slog.Attr) bool {
		if attr.Key != "duration_ms" {
			return true
		}

		switch attr.Value.Kind() {
		case slog.KindFloat64:
			m.found = attr.Value.Float64() >= 0
		case slog.KindInt64:
			m.found = attr.Value.Int64() >= 0
		default:
		}

		return false
	})

	return m
}

// Found reports whether the chain still matches.
func (m *Matcher) Found() bool {
	return m.found
}
