package observability

import (
	"context"
	"fmt"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"sales-assistant/internal/models"
)

// Observability exposes interpreter activity through an OpenTelemetry meter backed by
// the Prometheus exporter, and a tracer for per-question spans.
type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer
	askCounter     otelmetric.Int64Counter
	askDuration    otelmetric.Float64Histogram
	jobCounter     otelmetric.Int64Counter
}

// New registers the exporter with reg; nil means the default Prometheus registerer.
// Extra span processors (e.g. an exporter's batcher) receive every finished span.
func New(serviceName string, reg promclient.Registerer, processors ...sdktrace.SpanProcessor) (*Observability, error) {
	res := resource.NewSchemaless(attribute.String("service.name", serviceName))

	var opts []prometheus.Option
	if reg != nil {
		opts = append(opts, prometheus.WithRegisterer(reg))
	}

	exporter, err := prometheus.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter), metric.WithResource(res))
	otel.SetMeterProvider(provider)

	traceOpts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	for _, p := range processors {
		traceOpts = append(traceOpts, sdktrace.WithSpanProcessor(p))
	}
	tracerProvider := sdktrace.NewTracerProvider(traceOpts...)
	otel.SetTracerProvider(tracerProvider)

	meter := provider.Meter(serviceName)

	askCounter, err := meter.Int64Counter(
		"sales.asks.processed",
		otelmetric.WithDescription("Number of questions processed"),
	)
	if err != nil {
		return nil, err
	}

	askDuration, err := meter.Float64Histogram(
		"sales.asks.duration",
		otelmetric.WithDescription("Question answering duration"),
		otelmetric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	jobCounter, err := meter.Int64Counter(
		"jobs.processed",
		otelmetric.WithDescription("Number of jobs processed"),
	)
	if err != nil {
		return nil, err
	}

	return &Observability{
		meterProvider:  provider,
		tracerProvider: tracerProvider,
		tracer:         tracerProvider.Tracer(serviceName),
		askCounter:     askCounter,
		askDuration:    askDuration,
		jobCounter:     jobCounter,
	}, nil
}

func (o *Observability) RecordAsk(ctx context.Context, intent models.Intent, outcome string, duration time.Duration) {
	attrs := otelmetric.WithAttributes(
		attribute.String("intent", string(intent)),
		attribute.String("outcome", outcome),
	)
	o.askCounter.Add(ctx, 1, attrs)
	o.askDuration.Record(ctx, float64(duration.Microseconds())/1000, attrs)
}

func (o *Observability) RecordJobProcessed(ctx context.Context, taskType, status string) {
	o.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("task_type", taskType),
		attribute.String("status", status),
	))
}

func (o *Observability) Tracer() trace.Tracer {
	return o.tracer
}

func (o *Observability) Shutdown(ctx context.Context) error {
	if err := o.tracerProvider.Shutdown(ctx); err != nil {
		return err
	}
	return o.meterProvider.Shutdown(ctx)
}
