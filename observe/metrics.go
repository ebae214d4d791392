package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jonwraymond/healthmetrics/health"
)

// Instrument names recorded per probe invocation.
const (
	MetricInvocations = "health.probe.invocations"
	MetricErrors      = "health.probe.errors"
	MetricDuration    = "health.probe.duration_ms"
)

// Metrics records probe invocation metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordInvocation records one probe invocation.
	RecordInvocation(ctx context.Context, meta ProbeMeta, duration time.Duration, res health.Result, err error)
}

type metricsImpl struct {
	invocations  metric.Int64Counter
	errorCount   metric.Int64Counter
	durationHist metric.Float64Histogram
}

// NewMetrics creates the invocation instruments on meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	return newMetrics(meter)
}

func newMetrics(meter metric.Meter) (*metricsImpl, error) {
	invocations, err := meter.Int64Counter(
		MetricInvocations,
		metric.WithDescription("Total number of probe invocations"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		MetricErrors,
		metric.WithDescription("Total number of failed probe invocations"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		MetricDuration,
		metric.WithDescription("Probe invocation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		invocations:  invocations,
		errorCount:   errorCount,
		durationHist: durationHist,
	}, nil
}

// RecordInvocation tags the invocation counter with the reported status, or
// "error" when the invocation failed.
func (m *metricsImpl) RecordInvocation(ctx context.Context, meta ProbeMeta, duration time.Duration, res health.Result, err error) {
	outcome := "error"
	if err == nil {
		outcome = res.Status.String()
	}

	probe := metric.WithAttributes(attribute.String("probe.name", meta.Name))
	m.invocations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("probe.name", meta.Name),
		attribute.String("probe.outcome", outcome),
	))
	if err != nil {
		m.errorCount.Add(ctx, 1, probe)
	}
	m.durationHist.Record(ctx, float64(duration.Microseconds())/1000, probe)
}

type noopMetrics struct{}

func (m *noopMetrics) RecordInvocation(ctx context.Context, meta ProbeMeta, duration time.Duration, res health.Result, err error) {
}
