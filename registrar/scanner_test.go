package registrar

import (
	"context"
	"testing"
	"time"

	"github.com/jonwraymond/healthmetrics/health"
	"github.com/jonwraymond/healthmetrics/metrics"
)

type partialSet struct {
	live health.DynamicRegistry
}

func (s partialSet) Liveness() health.DynamicRegistry  { return s.live }
func (s partialSet) Readiness() health.DynamicRegistry { return nil }
func (s partialSet) Startup() health.DynamicRegistry   { return nil }
func (s partialSet) Wellness() health.DynamicRegistry  { return nil }

func TestRegistrar_Scan(t *testing.T) {
	r, _ := newTestRegistrar(t, nil)

	app := health.NewRegistries("app")
	dup := partialSet{live: health.NewCheckList("app-live")}
	other := partialSet{live: health.NewCheckList("other")}
	unnamed := partialSet{live: health.NewCheckList("bad\nname")}

	entries := r.Scan(app, nil, dup, unnamed, other)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}

	want := []string{"app-live", "app-ready", "app-startup", "app-well", "other"}
	if len(names) != len(want) {
		t.Fatalf("Scan() names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Scan()[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestRegistryEntry_Check(t *testing.T) {
	r, _ := newTestRegistrar(t, nil)

	list := health.NewCheckList("db")
	_ = list.Add(newSwitchChecker("primary", true, nil))
	_ = list.Add(newSwitchChecker("replica", false, nil))
	broken := newSwitchChecker("archive", true, nil)
	broken.fail.Store(true)
	_ = list.Add(broken)

	entries := r.Scan(partialSet{live: list})
	if len(entries) != 1 {
		t.Fatalf("Scan() returned %d entries, want 1", len(entries))
	}

	res, err := entries[0].Check(context.Background())
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if res.Name != "db" || res.IsUp() {
		t.Errorf("Check() = %+v, want DOWN result named db", res)
	}

	want := map[string]health.Status{
		"primary": health.StatusUp,
		"replica": health.StatusDown,
		"archive": health.StatusDown,
	}
	for name, st := range want {
		if got := res.Data[name]; got != st {
			t.Errorf("Data[%q] = %v, want %v", name, got, st)
		}
	}
}

func TestRegisterAll_Registries(t *testing.T) {
	r, sink := newTestRegistrar(t, nil)

	set := health.NewRegistries("app")
	a := newSwitchChecker("a", true, nil)
	b := newSwitchChecker("b", true, nil)
	_ = set.Add(a, health.KindLiveness|health.KindReadiness)
	_ = set.Add(b, health.KindReadiness)

	report, err := r.RegisterAll(context.Background(), nil, set)
	if err != nil {
		t.Fatalf("RegisterAll() error = %v", err)
	}
	if report.Registries != 8 || report.Data != 6 {
		t.Errorf("Report = %+v, want 8 registry and 6 data gauges", report)
	}

	if up, down := readCheck(t, sink, "app-ready"); up != 1 || down != 0 {
		t.Errorf("app-ready = (UP %v, DOWN %v), want (1, 0)", up, down)
	}
	if up, _ := readCheck(t, sink, "app-ready-b"); up != 1 {
		t.Errorf("app-ready-b UP = %v, want 1", up)
	}
	if up, _ := readCheck(t, sink, "app-startup"); up != 1 {
		t.Errorf("empty registry app-startup UP = %v, want 1", up)
	}

	b.up.Store(false)
	r.InvalidateCaches()

	if up, down := readCheck(t, sink, "app-ready"); up != 0 || down != 1 {
		t.Errorf("app-ready after toggle = (UP %v, DOWN %v), want (0, 1)", up, down)
	}
	if up, down := readCheck(t, sink, "app-ready-b"); up != 0 || down != 1 {
		t.Errorf("app-ready-b after toggle = (UP %v, DOWN %v), want (0, 1)", up, down)
	}
	if up, _ := readCheck(t, sink, "app-live-a"); up != 1 {
		t.Errorf("app-live-a UP = %v, want 1", up)
	}
}

func TestRegisterAll_RegistryCacheWindow(t *testing.T) {
	clock := newFakeClock()
	cfg := DefaultConfig()
	cfg.CheckTTL = time.Second
	cfg.RegistryTTL = 10 * time.Second

	sink := metrics.NewMemorySink()
	r, err := New(cfg, sink, nil, WithClock(clock.Now))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	list := health.NewCheckList("svc")
	probe := newSwitchChecker("p", true, nil)
	_ = list.Add(probe)

	if _, err := r.RegisterAll(context.Background(), nil, partialSet{live: list}); err != nil {
		t.Fatalf("RegisterAll() error = %v", err)
	}

	for i := 0; i < 5; i++ {
		readCheck(t, sink, "svc")
		readCheck(t, sink, "svc-p")
		clock.Advance(time.Second)
	}
	if n := probe.calls.Load(); n != 1 {
		t.Errorf("underlying check invoked %d times within the registry window, want 1", n)
	}

	clock.Advance(10 * time.Second)
	readCheck(t, sink, "svc")
	if n := probe.calls.Load(); n != 2 {
		t.Errorf("underlying check invoked %d times after the window, want 2", n)
	}
}
