// Package observability exposes OpenTelemetry instruments through the
// Prometheus registry so that /metrics serves both instrument families, and
// owns the tracer provider used for job and search spans.
package observability

import (
	"context"
	"errors"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/otlptranslator"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

type Observability struct {
	meterProvider *metric.MeterProvider
	tracing       *tracing
	jobCounter    otelmetric.Int64Counter
	jobDuration   otelmetric.Float64Histogram
	searches      otelmetric.Int64Counter
}

type options struct {
	registerer     promclient.Registerer
	jaegerEndpoint string
	spanProcessors []spanProcessor
}

type Option func(*options)

// WithRegisterer replaces the default Prometheus registerer.
func WithRegisterer(reg promclient.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithJaegerEndpoint exports spans to a Jaeger collector, e.g.
// http://jaeger:14268/api/traces. Empty keeps spans in process.
func WithJaegerEndpoint(endpoint string) Option {
	return func(o *options) { o.jaegerEndpoint = endpoint }
}

func New(serviceName string, opts ...Option) (*Observability, error) {
	cfg := options{registerer: promclient.DefaultRegisterer}
	for _, opt := range opts {
		opt(&cfg)
	}

	// jobs.processed is served as jobs_processed_total.
	exporter, err := prometheus.New(
		prometheus.WithRegisterer(cfg.registerer),
		prometheus.WithTranslationStrategy(otlptranslator.UnderscoreEscapingWithSuffixes),
	)
	if err != nil {
		return nil, err
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)
	meter := provider.Meter(serviceName)

	o := &Observability{meterProvider: provider}

	if o.jobCounter, err = meter.Int64Counter(
		"jobs.processed",
		otelmetric.WithDescription("Number of jobs processed"),
	); err != nil {
		return nil, err
	}
	if o.jobDuration, err = meter.Float64Histogram(
		"jobs.duration",
		otelmetric.WithDescription("Job processing duration"),
		otelmetric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	if o.searches, err = meter.Int64Counter(
		"searches.executed",
		otelmetric.WithDescription("Similarity searches executed"),
	); err != nil {
		return nil, err
	}

	if o.tracing, err = newTracing(serviceName, cfg); err != nil {
		return nil, err
	}
	return o, nil
}

// RecordJob counts a finished job and its duration. Safe on a nil receiver.
func (o *Observability) RecordJob(ctx context.Context, taskType, status string, took time.Duration) {
	if o == nil {
		return
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("task_type", taskType),
		attribute.String("status", status),
	)
	o.jobCounter.Add(ctx, 1, attrs)
	o.jobDuration.Record(ctx, float64(took.Milliseconds()), attrs)
}

// RecordSearch counts a similarity search. Safe on a nil receiver.
func (o *Observability) RecordSearch(ctx context.Context, surface string, cacheHit bool) {
	if o == nil {
		return
	}
	o.searches.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("surface", surface),
		attribute.Bool("cache_hit", cacheHit),
	))
}

// Shutdown flushes pending spans and stops both providers.
func (o *Observability) Shutdown(ctx context.Context) error {
	if o == nil {
		return nil
	}
	var errs []error
	if o.tracing != nil {
		errs = append(errs, o.tracing.shutdown(ctx))
	}
	if o.meterProvider != nil {
		errs = append(errs, o.meterProvider.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
