package observability

import (
	"context"
	"errors"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Observability owns the OpenTelemetry meter and tracer providers for the process.
type Observability struct {
	meterProvider  *metric.MeterProvider
	meter          otelmetric.Meter
	jobCounter     otelmetric.Int64Counter
	jobDuration    otelmetric.Float64Histogram
	recCounter     otelmetric.Int64Counter
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer
}

type options struct {
	registerer     promclient.Registerer
	tracingEnabled bool
	sampleRatio    float64
	spanProcessors []sdktrace.SpanProcessor
	global         bool
}

type Option func(*options)

// WithRegisterer exports metrics to reg instead of the default Prometheus registry.
func WithRegisterer(reg promclient.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

func WithTracing(enabled bool, sampleRatio float64) Option {
	return func(o *options) {
		o.tracingEnabled = enabled
		o.sampleRatio = sampleRatio
	}
}

// WithSpanProcessor attaches a processor to the tracer provider. It implies tracing.
func WithSpanProcessor(sp sdktrace.SpanProcessor) Option {
	return func(o *options) {
		o.tracingEnabled = true
		o.spanProcessors = append(o.spanProcessors, sp)
	}
}

// AsGlobal installs the providers as the otel globals.
func AsGlobal() Option {
	return func(o *options) { o.global = true }
}

// New never fails; when the exporter cannot be created metrics recording is
// skipped and err says why.
func New(serviceName string, opts ...Option) (*Observability, error) {
	o := options{sampleRatio: 1}
	for _, opt := range opts {
		opt(&o)
	}

	obs := &Observability{tracer: noop.NewTracerProvider().Tracer(serviceName)}
	var errs []error

	exporterOpts := []prometheus.Option{}
	if o.registerer != nil {
		exporterOpts = append(exporterOpts, prometheus.WithRegisterer(o.registerer))
	}
	exporter, err := prometheus.New(exporterOpts...)
	if err != nil {
		errs = append(errs, err)
	} else {
		obs.meterProvider = metric.NewMeterProvider(metric.WithReader(exporter))
		obs.meter = obs.meterProvider.Meter(serviceName)
		if err := obs.initInstruments(); err != nil {
			errs = append(errs, err)
		}
		if o.global {
			otel.SetMeterProvider(obs.meterProvider)
		}
	}

	if o.tracingEnabled {
		obs.tracerProvider = newTracerProvider(serviceName, o.sampleRatio, o.spanProcessors)
		obs.tracer = obs.tracerProvider.Tracer(serviceName)
		if o.global {
			otel.SetTracerProvider(obs.tracerProvider)
		}
	}

	return obs, errors.Join(errs...)
}

// Noop records nothing and hands out non-recording spans.
func Noop() *Observability {
	return &Observability{tracer: noop.NewTracerProvider().Tracer("noop")}
}

// Instrument names carry an otel_ prefix so they never share a family with
// the promauto collectors on the same registry.
func (o *Observability) initInstruments() error {
	var err error
	o.jobCounter, err = o.meter.Int64Counter(
		"otel_jobs_processed",
		otelmetric.WithDescription("Number of jobs processed"),
	)
	if err != nil {
		return err
	}

	o.jobDuration, err = o.meter.Float64Histogram(
		"otel_jobs_duration",
		otelmetric.WithDescription("Job processing duration"),
		otelmetric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	o.recCounter, err = o.meter.Int64Counter(
		"otel_recommendations_served",
		otelmetric.WithDescription("Ranked businesses returned to callers"),
	)
	return err
}

func (o *Observability) RecordJobProcessed(ctx context.Context, taskType, status string) {
	if o.jobCounter != nil {
		o.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("task_type", taskType),
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordJobDuration(ctx context.Context, taskType string, duration time.Duration, status string) {
	if o.jobDuration != nil {
		o.jobDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("task_type", taskType),
			attribute.String("status", status),
		))
	}
}

// RecordRecommendations counts the entries returned for one request.
func (o *Observability) RecordRecommendations(ctx context.Context, source string, count int) {
	if o.recCounter != nil {
		o.recCounter.Add(ctx, int64(count), otelmetric.WithAttributes(
			attribute.String("source", source),
		))
	}
}

func (o *Observability) Shutdown(ctx context.Context) error {
	var errs []error
	if o.meterProvider != nil {
		errs = append(errs, o.meterProvider.Shutdown(ctx))
	}
	if o.tracerProvider != nil {
		errs = append(errs, o.tracerProvider.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
