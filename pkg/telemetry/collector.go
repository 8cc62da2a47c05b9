// Package telemetry exports runtime activity as Prometheus metrics and
// OpenTelemetry spans. A Collector is installed with reactive.WithObserver and
// fed reconcile passes through ObserveReconcile.
package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/delaneyj/rowsignal/pkg/keyed"
	"github.com/delaneyj/rowsignal/pkg/reactive"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultTracerName = "rowsignal"

type Config struct {
	Namespace string
	Subsystem string
	// Buckets are used for the flush and effect duration histograms.
	Buckets  []float64
	Registry prometheus.Registerer
	// TracerProvider defaults to the global provider.
	TracerProvider trace.TracerProvider
	TracerName     string
}

type Option func(*Config)

func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Config) {
		c.TracerProvider = tp
	}
}

func defaultConfig() Config {
	return Config{
		Namespace:  "rowsignal",
		Buckets:    []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05, .1},
		Registry:   prometheus.DefaultRegisterer,
		TracerName: defaultTracerName,
	}
}

// Collector implements reactive.Observer.
type Collector struct {
	flushes        *prometheus.CounterVec
	flushRuns      prometheus.Histogram
	flushDuration  prometheus.Histogram
	effectRuns     *prometheus.CounterVec
	effectErrors   *prometheus.CounterVec
	effectDuration *prometheus.HistogramVec
	reconciles     prometheus.Counter
	rowOps         *prometheus.CounterVec

	tracer trace.Tracer
}

var _ reactive.Observer = (*Collector)(nil)

func New(opts ...Option) *Collector {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.TracerProvider == nil {
		cfg.TracerProvider = otel.GetTracerProvider()
	}
	factory := promauto.With(cfg.Registry)

	return &Collector{
		flushes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "flushes_total",
			Help:      "Scheduler flushes by outcome",
		}, []string{"outcome"}),

		flushRuns: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "flush_effect_runs",
			Help:      "Effect runs performed by one flush",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),

		flushDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "flush_duration_seconds",
			Help:      "Time spent draining one flush",
			Buckets:   cfg.Buckets,
		}),

		effectRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "effect_runs_total",
			Help:      "Effect body executions by effect name",
		}, []string{"effect"}),

		effectErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "effect_errors_total",
			Help:      "Effect bodies that returned an error or panicked",
		}, []string{"effect", "kind"}),

		effectDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "effect_duration_seconds",
			Help:      "Duration of one effect body execution",
			Buckets:   cfg.Buckets,
		}, []string{"effect"}),

		reconciles: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "reconcile_passes_total",
			Help:      "Keyed reconcile passes",
		}),

		rowOps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "reconcile_rows_total",
			Help:      "Rows touched by reconcile passes, by operation",
		}, []string{"op"}),

		tracer: cfg.TracerProvider.Tracer(cfg.TracerName),
	}
}

func (c *Collector) EffectRun(e *reactive.Effect, took time.Duration, err error) {
	name := e.Name()
	if name == "" {
		name = "anonymous"
	}
	c.effectRuns.WithLabelValues(name).Inc()
	c.effectDuration.WithLabelValues(name).Observe(took.Seconds())
	if err != nil {
		c.effectErrors.WithLabelValues(name, errorKind(err)).Inc()
	}
}

// Flushed records the flush and emits a span covering it.
func (c *Collector) Flushed(stats reactive.FlushStats) {
	outcome := "ok"
	if stats.Err != nil {
		outcome = errorKind(stats.Err)
	}
	c.flushes.WithLabelValues(outcome).Inc()
	c.flushRuns.Observe(float64(stats.Runs))
	c.flushDuration.Observe(stats.Took.Seconds())

	_, span := c.tracer.Start(context.Background(), "rowsignal.flush",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithTimestamp(stats.Started),
		trace.WithAttributes(
			attribute.String("rowsignal.runtime", stats.Runtime),
			attribute.Int("rowsignal.runs", stats.Runs),
		),
	)
	if stats.Err != nil {
		span.RecordError(stats.Err)
		span.SetStatus(codes.Error, stats.Err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End(trace.WithTimestamp(stats.Started.Add(stats.Took)))
}

// ObserveReconcile has the signature of directive.ListOptions.OnReconcile.
func (c *Collector) ObserveReconcile(stats keyed.Stats) {
	c.reconciles.Inc()
	for op, n := range map[string]int{
		"created": stats.Created,
		"updated": stats.Updated,
		"moved":   stats.Moved,
		"removed": stats.Removed,
		"skipped": stats.Skipped,
		"failed":  stats.Failed,
	} {
		if n > 0 {
			c.rowOps.WithLabelValues(op).Add(float64(n))
		}
	}
}

func errorKind(err error) string {
	var (
		perr *reactive.PanicError
		rerr *reactive.ReentryError
	)
	switch {
	case errors.As(err, &rerr):
		return "reentry"
	case errors.Is(err, reactive.ErrCycle):
		return "cycle"
	case errors.As(err, &perr):
		return "panic"
	default:
		return "error"
	}
}
