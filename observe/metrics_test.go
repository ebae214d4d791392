package observe

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/jonwraymond/healthmetrics/health"
)

func newTestMetrics(t *testing.T) (*metricsImpl, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := newMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	return rm
}

func TestMetrics_InvocationCounter(t *testing.T) {
	m, reader := newTestMetrics(t)
	meta := ProbeMeta{Name: "database"}
	ctx := context.Background()

	m.RecordInvocation(ctx, meta, 10*time.Millisecond, health.Up("database"), nil)
	m.RecordInvocation(ctx, meta, 10*time.Millisecond, health.Down("database"), nil)
	m.RecordInvocation(ctx, meta, 10*time.Millisecond, health.Result{}, errors.New("boom"))

	found := findMetric(collect(t, reader), MetricInvocations)
	if found == nil {
		t.Fatalf("%s metric not found", MetricInvocations)
	}
	sum, ok := found.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected Sum[int64], got %T", found.Data)
	}

	byOutcome := map[string]int64{}
	for _, dp := range sum.DataPoints {
		v, _ := dp.Attributes.Value(attribute.Key("probe.outcome"))
		byOutcome[v.AsString()] = dp.Value
	}
	want := map[string]int64{"UP": 1, "DOWN": 1, "error": 1}
	for k, v := range want {
		if byOutcome[k] != v {
			t.Errorf("outcome %s = %d, want %d", k, byOutcome[k], v)
		}
	}
}

func TestMetrics_ErrorCounter(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordInvocation(ctx, ProbeMeta{Name: "ok"}, time.Millisecond, health.Up("ok"), nil)
	if found := findMetric(collect(t, reader), MetricErrors); found != nil {
		if sum, ok := found.Data.(metricdata.Sum[int64]); ok && len(sum.DataPoints) > 0 && sum.DataPoints[0].Value != 0 {
			t.Errorf("errors recorded for a successful invocation: %d", sum.DataPoints[0].Value)
		}
	}

	m.RecordInvocation(ctx, ProbeMeta{Name: "bad"}, time.Millisecond, health.Result{}, errors.New("boom"))
	found := findMetric(collect(t, reader), MetricErrors)
	if found == nil {
		t.Fatalf("%s metric not found", MetricErrors)
	}
	sum := found.Data.(metricdata.Sum[int64])
	if len(sum.DataPoints) != 1 || sum.DataPoints[0].Value != 1 {
		t.Errorf("error data points = %+v, want one point valued 1", sum.DataPoints)
	}
}

func TestMetrics_DurationHistogram(t *testing.T) {
	m, reader := newTestMetrics(t)
	m.RecordInvocation(context.Background(), ProbeMeta{Name: "slow"}, 1500*time.Microsecond, health.Up("slow"), nil)

	found := findMetric(collect(t, reader), MetricDuration)
	if found == nil {
		t.Fatalf("%s metric not found", MetricDuration)
	}
	hist, ok := found.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("expected Histogram[float64], got %T", found.Data)
	}
	if len(hist.DataPoints) != 1 || hist.DataPoints[0].Sum != 1.5 {
		t.Errorf("duration data points = %+v, want one 1.5ms sample", hist.DataPoints)
	}
}

func TestMetrics_ConcurrentRecording(t *testing.T) {
	m, reader := newTestMetrics(t)
	const workers = 20

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RecordInvocation(context.Background(), ProbeMeta{Name: "p"}, time.Millisecond, health.Up("p"), nil)
		}()
	}
	wg.Wait()

	sum := findMetric(collect(t, reader), MetricInvocations).Data.(metricdata.Sum[int64])
	if sum.DataPoints[0].Value != workers {
		t.Errorf("expected count %d, got %d", workers, sum.DataPoints[0].Value)
	}
}

// findMetric searches for a metric by name in ResourceMetrics.
func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}
