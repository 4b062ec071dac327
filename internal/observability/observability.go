// Package observability holds the Prometheus collectors and the OpenTelemetry
// tracer shared by the reflection pipeline.
package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of every span.
const TracerName = "github.com/jward/phpreflect"

// Metrics are registered on their own registry so several reflectors can
// coexist in one process.
type Metrics struct {
	Registry *prometheus.Registry

	Resolutions   *prometheus.CounterVec
	CacheRequests *prometheus.CounterVec
	FilesParsed   prometheus.Counter
	ParseSeconds  prometheus.Histogram
}

// Label values.
const (
	KindClass    = "class"
	KindFunction = "function"
	KindConstant = "constant"

	CacheHit  = "hit"
	CacheMiss = "miss"
)

func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "phpreflect_resolutions_total",
			Help: "Symbols materialised into reflection models.",
		}, []string{"kind"}),
		CacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "phpreflect_cache_requests_total",
			Help: "Declaration cache lookups by result.",
		}, []string{"result"}),
		FilesParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "phpreflect_files_parsed_total",
			Help: "Source files parsed into declarations.",
		}),
		ParseSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "phpreflect_parse_seconds",
			Help:    "Time spent parsing a source file.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	m.Registry.MustRegister(m.Resolutions, m.CacheRequests, m.FilesParsed, m.ParseSeconds)
	return m
}

func Tracer() trace.Tracer { return otel.Tracer(TracerName) }

// StartSpan starts a span on the package tracer.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

// EndSpan records err, if any, and ends the span.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
