// Package telemetry wires OpenTelemetry metrics: a meter provider backed by a Prometheus
// scrape exporter or an OTLP gRPC exporter, and the service's instruments.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	api "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/sdk/metric"
)

const (
	ExporterScraper = "scraper"
	ExporterGRPC    = "grpc"
	ExporterNone    = "none"
)

// Provider owns the meter provider for the process lifetime.
type Provider struct {
	exporter string
	provider *metric.MeterProvider
}

// Setup creates the meter provider for the given exporter and registers it globally.
// "none" (or empty) yields a no-op provider.
func Setup(ctx context.Context, exporter string) (*Provider, error) {
	p := &Provider{exporter: exporter}
	switch exporter {
	case ExporterScraper:
		// The exporter is both a Reader and a prometheus.Collector on the default registry.
		exp, err := prometheus.New()
		if err != nil {
			return nil, fmt.Errorf("creating prometheus exporter: %w", err)
		}
		p.provider = metric.NewMeterProvider(metric.WithReader(exp))
		slog.Info("metrics enabled", "exporter", exporter)
	case ExporterGRPC:
		// Endpoint comes from OTEL_EXPORTER_OTLP_METRICS_ENDPOINT, default localhost:4317.
		exp, err := otlpmetricgrpc.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("creating otlp grpc exporter: %w", err)
		}
		p.provider = metric.NewMeterProvider(metric.WithReader(metric.NewPeriodicReader(exp)))
		slog.Info("metrics enabled", "exporter", exporter)
	case ExporterNone, "":
		p.exporter = ExporterNone
		return p, nil
	default:
		return nil, fmt.Errorf("unknown metrics exporter %q", exporter)
	}
	otel.SetMeterProvider(p.provider)
	return p, nil
}

// Meter returns a named meter, no-op when metrics are disabled.
func (p *Provider) Meter(name string) api.Meter {
	if p == nil || p.provider == nil {
		return noop.NewMeterProvider().Meter(name)
	}
	return p.provider.Meter(name)
}

// Handler serves /metrics. Only the scraper exporter exposes anything.
func (p *Provider) Handler() http.Handler {
	if p == nil || p.exporter != ExporterScraper {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "metrics exporter is not scraper", http.StatusNotFound)
		})
	}
	return promhttp.Handler()
}

// Shutdown flushes and stops the provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.provider == nil {
		return nil
	}
	if err := p.provider.ForceFlush(ctx); err != nil {
		slog.Warn("flushing metrics", "error", err)
	}
	return p.provider.Shutdown(ctx)
}
