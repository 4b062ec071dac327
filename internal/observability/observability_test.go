package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
	})
	return exporter
}

func TestMetricsAreIndependent(t *testing.T) {
	a, b := NewMetrics(), NewMetrics()
	a.Resolutions.WithLabelValues(KindClass).Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.Resolutions.WithLabelValues(KindClass)))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Resolutions.WithLabelValues(KindClass)))

	n, err := testutil.GatherAndCount(a.Registry, "phpreflect_resolutions_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestEndSpanRecordsError(t *testing.T) {
	exporter := setupTestTracer(t)

	_, span := StartSpan(context.Background(), "parse", attribute.String("path", "a.php"))
	EndSpan(span, errors.New("boom"))
	_, ok := StartSpan(context.Background(), "resolve")
	EndSpan(ok, nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "parse", spans[0].Name)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Contains(t, spans[0].Attributes, attribute.String("path", "a.php"))
	assert.Equal(t, codes.Unset, spans[1].Status.Code)
}
