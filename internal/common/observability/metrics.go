package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Observability records assessment-level OpenTelemetry metrics and owns the
// global tracer provider. The metric exporter registers with the default
// Prometheus registry, so the values show up on the same /metrics endpoint as
// the client_golang collectors.
type Observability struct {
	meterProvider     *metric.MeterProvider
	tracerProvider    *sdktrace.TracerProvider
	assessmentCounter otelmetric.Int64Counter
	assessmentLatency otelmetric.Float64Histogram
	probability       otelmetric.Float64Histogram
}

// New never fails; if the metric exporter cannot be created the returned
// value records no metrics but still traces.
func New(serviceName string, opts ...Option) *Observability {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	tp := newTracerProvider(serviceName, o)
	otel.SetTracerProvider(tp)

	exporter, err := prometheus.New()
	if err != nil {
		return &Observability{tracerProvider: tp}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	counter, _ := meter.Int64Counter(
		"assessments.processed",
		otelmetric.WithDescription("Number of assessments processed"),
	)
	latency, _ := meter.Float64Histogram(
		"assessments.duration",
		otelmetric.WithDescription("End-to-end assessment duration"),
		otelmetric.WithUnit("ms"),
	)
	probability, _ := meter.Float64Histogram(
		"assessments.default_probability",
		otelmetric.WithDescription("Distribution of predicted default probabilities"),
	)

	return &Observability{
		meterProvider:     provider,
		tracerProvider:    tp,
		assessmentCounter: counter,
		assessmentLatency: latency,
		probability:       probability,
	}
}

// RecordAssessment records one submission. status is "scored" or "failed";
// riskTier is empty for failures.
func (o *Observability) RecordAssessment(ctx context.Context, status, riskTier string, duration time.Duration) {
	if o == nil {
		return
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("status", status),
		attribute.String("risk_tier", riskTier),
	)
	if o.assessmentCounter != nil {
		o.assessmentCounter.Add(ctx, 1, attrs)
	}
	if o.assessmentLatency != nil {
		o.assessmentLatency.Record(ctx, float64(duration.Milliseconds()), attrs)
	}
}

func (o *Observability) RecordProbability(ctx context.Context, riskTier string, p float64) {
	if o == nil || o.probability == nil {
		return
	}
	o.probability.Record(ctx, p, otelmetric.WithAttributes(attribute.String("risk_tier", riskTier)))
}

// Shutdown flushes pending spans and stops both providers.
func (o *Observability) Shutdown() {
	if o == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if o.tracerProvider != nil {
		_ = o.tracerProvider.Shutdown(ctx)
	}
	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
}
