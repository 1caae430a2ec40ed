package telemetry

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	api "go.opentelemetry.io/otel/metric"
)

// Metrics holds the service instruments. A nil *Metrics records nothing.
type Metrics struct {
	requests          api.Int64Counter
	duration          api.Float64Histogram
	versionsCreated   api.Int64Counter
	sequenceConflicts api.Int64Counter
	summaryDegraded   api.Int64Counter
}

// NewMetrics creates all instruments on meter.
func NewMetrics(meter api.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.requests, err = meter.Int64Counter("rfq_api_requests_total",
		api.WithDescription("Total number of API requests"), api.WithUnit("1")); err != nil {
		return nil, fmt.Errorf("failed to create request counter: %w", err)
	}
	if m.duration, err = meter.Float64Histogram("rfq_api_request_duration_seconds",
		api.WithDescription("Duration of API requests"), api.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}
	if m.versionsCreated, err = meter.Int64Counter("rfq_versions_created_total",
		api.WithDescription("Quotation versions created, by entry type"), api.WithUnit("1")); err != nil {
		return nil, fmt.Errorf("failed to create versions counter: %w", err)
	}
	if m.sequenceConflicts, err = meter.Int64Counter("rfq_sequence_conflicts_total",
		api.WithDescription("Sequence number races lost and retried"), api.WithUnit("1")); err != nil {
		return nil, fmt.Errorf("failed to create conflict counter: %w", err)
	}
	if m.summaryDegraded, err = meter.Int64Counter("rfq_summary_degraded_total",
		api.WithDescription("Negotiation summary aggregates that failed and were defaulted"), api.WithUnit("1")); err != nil {
		return nil, fmt.Errorf("failed to create summary degradation counter: %w", err)
	}
	return m, nil
}

// VersionCreated counts a committed quotation version.
func (m *Metrics) VersionCreated(ctx context.Context, entryType string) {
	if m == nil {
		return
	}
	m.versionsCreated.Add(ctx, 1, api.WithAttributes(attribute.String("entry_type", entryType)))
}

// SequenceConflict counts a lost race on a sequence ("version" or "response").
func (m *Metrics) SequenceConflict(ctx context.Context, sequence string) {
	if m == nil {
		return
	}
	m.sequenceConflicts.Add(ctx, 1, api.WithAttributes(attribute.String("sequence", sequence)))
}

// SummaryDegraded counts a summary aggregate that fell back to its default.
func (m *Metrics) SummaryDegraded(ctx context.Context, aggregate string) {
	if m == nil {
		return
	}
	m.summaryDegraded.Add(ctx, 1, api.WithAttributes(attribute.String("aggregate", aggregate)))
}

// RecordRequest records one handled request. route is the mux pattern, which keeps
// cardinality low.
func (m *Metrics) RecordRequest(ctx context.Context, method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := api.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("status_code", status),
	)
	m.requests.Add(ctx, 1, attrs)
	m.duration.Record(ctx, elapsed.Seconds(), attrs)
}

// StatusRecorder captures the status code written by a handler.
type StatusRecorder struct {
	http.ResponseWriter
	Status int
}

func (r *StatusRecorder) WriteHeader(code int) {
	r.Status = code
	r.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer (websocket hijack).
func (r *StatusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

// Hijack passes through to the wrapped writer so websocket upgrades keep working.
func (r *StatusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return h.Hijack()
}

// Instrument wraps next so every request on route is counted and timed.
func (m *Metrics) Instrument(route string, next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &StatusRecorder{ResponseWriter: w, Status: http.StatusOK}
		next.ServeHTTP(rec, r)
		m.RecordRequest(r.Context(), r.Method, route, rec.Status, time.Since(start))
	})
}
