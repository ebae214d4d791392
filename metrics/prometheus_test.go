package metrics

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusSink_Gather(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := NewPrometheusSink(reg, WithDescription("application_status", "Group status"))

	var up atomic.Int64
	up.Store(1)
	src := func(context.Context) (float64, error) { return float64(up.Load()), nil }
	inverse := func(context.Context) (float64, error) { return float64(1 - up.Load()), nil }

	if err := s.RegisterGauge("application_status", Tags{"group": "health", "status": "UP"}, src); err != nil {
		t.Fatalf("RegisterGauge() error = %v", err)
	}
	if err := s.RegisterGauge("application_status", Tags{"group": "health", "status": "DOWN"}, inverse); err != nil {
		t.Fatalf("RegisterGauge() error = %v", err)
	}

	want := `
# HELP application_status Group status
# TYPE application_status gauge
application_status{group="health",status="DOWN"} 0
application_status{group="health",status="UP"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(want), "application_status"); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}

	up.Store(0)
	want = `
# HELP application_status Group status
# TYPE application_status gauge
application_status{group="health",status="DOWN"} 1
application_status{group="health",status="UP"} 0
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(want), "application_status"); err != nil {
		t.Errorf("unexpected metrics after change: %v", err)
	}
}

func TestPrometheusSink_FailingSourceDropsSample(t *testing.T) {
	reg := prometheus.NewRegistry()
	var failures atomic.Int64
	s := NewPrometheusSink(reg, WithErrorHandler(func(string, Tags, error) { failures.Add(1) }))

	_ = s.RegisterGauge("application_health_check", Tags{"check": "ok", "status": "UP"}, constSource(1))
	_ = s.RegisterGauge("application_health_check", Tags{"check": "bad", "status": "UP"},
		func(context.Context) (float64, error) { return 0, errors.New("boom") })

	if n := testutil.CollectAndCount(s.collectors["application_health_check"]); n != 1 {
		t.Errorf("collected %d samples, want 1", n)
	}
	if failures.Load() != 1 {
		t.Errorf("error handler called %d times, want 1", failures.Load())
	}
}

func TestPrometheusSink_TagMismatch(t *testing.T) {
	s := NewPrometheusSink(prometheus.NewRegistry())

	if err := s.RegisterGauge("g", Tags{"check": "a", "status": "UP"}, constSource(1)); err != nil {
		t.Fatalf("RegisterGauge() error = %v", err)
	}
	if err := s.RegisterGauge("g", Tags{"group": "a"}, constSource(1)); !errors.Is(err, ErrTagMismatch) {
		t.Errorf("RegisterGauge(other keys) error = %v, want ErrTagMismatch", err)
	}
	if err := s.RegisterGauge("g", Tags{"check": "a", "status": "UP"}, constSource(1)); !errors.Is(err, ErrDuplicateGauge) {
		t.Errorf("RegisterGauge(same) error = %v, want ErrDuplicateGauge", err)
	}
}

func TestPrometheusSink_RegistererConflict(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGauge(prometheus.GaugeOpts{Name: "taken", Help: "x"}))

	s := NewPrometheusSink(reg)
	if err := s.RegisterGauge("taken", Tags{"k": "v"}, constSource(1)); err == nil {
		t.Error("RegisterGauge() should fail when the registerer rejects the collector")
	}
}
