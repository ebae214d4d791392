package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jonwraymond/healthmetrics/config"
	"github.com/jonwraymond/healthmetrics/metrics"
	"github.com/jonwraymond/healthmetrics/observe"
)

func newTestServer(t *testing.T, sink string) (*server, *httptest.Server) {
	t.Helper()

	cfg := config.Default()
	cfg.Metrics.Sink = sink
	cfg.Metrics.Exporter = "none"
	cfg.Logging.Level = "error"

	promReg := prometheus.NewRegistry()
	obs, err := observe.NewObserver(context.Background(), cfg.Observe(promReg))
	if err != nil {
		t.Fatalf("NewObserver() error = %v", err)
	}
	t.Cleanup(func() { _ = obs.Shutdown(context.Background()) })

	srv, err := newServer(context.Background(), cfg, obs, promReg)
	if err != nil {
		t.Fatalf("newServer() error = %v", err)
	}
	ts := httptest.NewServer(srv.routes())
	t.Cleanup(ts.Close)
	return srv, ts
}

func post(t *testing.T, url string) {
	t.Helper()
	resp, err := http.Post(url, "application/json", nil)
	if err != nil {
		t.Fatalf("POST %s error = %v", url, err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("POST %s status = %d, want 204", url, resp.StatusCode)
	}
}

func groupUp(t *testing.T, srv *server, group string) float64 {
	t.Helper()
	v, err := srv.memory.Read(context.Background(), "application_status", metrics.Tags{"group": group, "status": "UP"})
	if err != nil {
		t.Fatalf("Read(%s) error = %v", group, err)
	}
	return v
}

func TestServer_ToggleFollowsCacheWindow(t *testing.T) {
	srv, ts := newTestServer(t, config.SinkMemory)

	if got := groupUp(t, srv, "foo"); got != 1 {
		t.Fatalf("foo UP = %v, want 1", got)
	}

	post(t, ts.URL+"/health/down")
	if got := groupUp(t, srv, "foo"); got != 1 {
		t.Errorf("foo UP inside the cache window = %v, want 1", got)
	}

	post(t, ts.URL+"/cache/reset")
	if got := groupUp(t, srv, "foo"); got != 0 {
		t.Errorf("foo UP after reset = %v, want 0", got)
	}
	// One DOWN member is enough to bring the live group down.
	if got := groupUp(t, srv, "live"); got != 0 {
		t.Errorf("live UP after reset = %v, want 0", got)
	}

	post(t, ts.URL+"/health/up")
	post(t, ts.URL+"/cache/reset")
	if got := groupUp(t, srv, "bar"); got != 1 {
		t.Errorf("bar UP after toggling back = %v, want 1", got)
	}
}

func TestServer_Gauges(t *testing.T) {
	_, ts := newTestServer(t, config.SinkMemory)

	resp, err := http.Get(ts.URL + "/gauges")
	if err != nil {
		t.Fatalf("GET /gauges error = %v", err)
	}
	defer resp.Body.Close()

	var gauges []gaugeValue
	if err := json.NewDecoder(resp.Body).Decode(&gauges); err != nil {
		t.Fatalf("decode error = %v", err)
	}

	found := false
	for _, g := range gauges {
		if g.Name == "application_health_check" && g.Tags["check"] == "demo-inner2" && g.Tags["status"] == "UP" {
			found = true
			if g.Value == nil || *g.Value != 1 {
				t.Errorf("demo-inner2 UP = %v, want 1", g.Value)
			}
		}
	}
	if !found {
		t.Error("GET /gauges should list the demo-inner2 data gauge")
	}
}

func TestServer_Metrics(t *testing.T) {
	_, ts := newTestServer(t, config.SinkPrometheus)

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics error = %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	body := string(raw)
	for _, want := range []string{
		`application_status{group="foo",status="UP"} 1`,
		`application_health_check{check="demo",status="UP"} 1`,
		`application_health_check{check="dynamic-live",status="UP"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("/metrics is missing %s", want)
		}
	}

	gauges, err := http.Get(ts.URL + "/gauges")
	if err != nil {
		t.Fatal(err)
	}
	gauges.Body.Close()
	if gauges.StatusCode != http.StatusNotFound {
		t.Errorf("GET /gauges with prometheus sink = %d, want 404", gauges.StatusCode)
	}
}
