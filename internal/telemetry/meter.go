package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Provider bundles the meter and tracer providers with the scrape handler.
type Provider struct {
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
	handler        http.Handler
	shutdowns      []func(context.Context) error
}

// MeterProvider returns the meter provider; never nil.
func (p *Provider) MeterProvider() metric.MeterProvider {
	return p.meterProvider
}

// TracerProvider returns the tracer provider; never nil.
func (p *Provider) TracerProvider() trace.TracerProvider {
	return p.tracerProvider
}

// Handler returns the Prometheus scrape handler, or nil when metrics are disabled.
func (p *Provider) Handler() http.Handler {
	return p.handler
}

// Shutdown flushes pending spans and stops both providers.
func (p *Provider) Shutdown(ctx context.Context) error {
	var errs []error
	for _, fn := range p.shutdowns {
		if err := fn(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewProvider creates the meter and tracer providers described by cfg. A nil
// config, or a disabled section, yields no-op providers; disabled metrics
// also mean no handler.
// The caller is responsible for calling Shutdown on the returned provider.
func NewProvider(ctx context.Context, cfg *Config, version string) (*Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid telemetry config: %w", err)
	}

	p := &Provider{
		meterProvider:  noop.NewMeterProvider(),
		tracerProvider: tracenoop.NewTracerProvider(),
	}
	if !cfg.MetricsEnabled() && !cfg.TracingEnabled() {
		slog.Info("Telemetry disabled, using no-op providers")
		return p, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.GetServiceName()),
			semconv.ServiceVersion(cfg.GetServiceVersion(version)),
		),
		resource.WithTelemetrySDK(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	if cfg.MetricsEnabled() {
		if err := p.initMetrics(res); err != nil {
			return nil, err
		}
		slog.Info("Metrics initialized", "service", cfg.GetServiceName())
	}

	if cfg.TracingEnabled() {
		tp, err := newTracerProvider(ctx, cfg.Tracing, res)
		if err != nil {
			_ = p.Shutdown(ctx)
			return nil, fmt.Errorf("failed to create tracer provider: %w", err)
		}
		p.tracerProvider = tp
		p.shutdowns = append(p.shutdowns, tp.Shutdown)
	}

	return p, nil
}

func (p *Provider) initMetrics(res *resource.Resource) error {
	registry := prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(mp)

	p.meterProvider = mp
	p.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	p.shutdowns = append(p.shutdowns, mp.Shutdown)
	return nil
}
