package main

import (
	"context"
	"sync/atomic"

	"github.com/jonwraymond/healthmetrics/config"
	"github.com/jonwraymond/healthmetrics/health"
	"github.com/jonwraymond/healthmetrics/observe"
	"github.com/jonwraymond/healthmetrics/resilience"
)

// switchProbe is a probe whose status is flipped over HTTP. Its data
// exercises every default mapper.
type switchProbe struct {
	name   string
	groups []string
	up     atomic.Bool
}

func newSwitchProbe(name string, groups ...string) *switchProbe {
	p := &switchProbe{name: name, groups: groups}
	p.up.Store(true)
	return p
}

func (p *switchProbe) Name() string     { return p.name }
func (p *switchProbe) Groups() []string { return p.groups }

func (p *switchProbe) Set(up bool) { p.up.Store(up) }

func (p *switchProbe) Check(context.Context) (health.Result, error) {
	up := p.up.Load()
	inner := "DOWN"
	ready := "NOT READY"
	count := 0
	if up {
		inner, ready, count = "UP", "READY", 1
	}
	res := health.Result{Name: p.name, Status: health.StatusOf(up)}
	return res.WithData(map[string]any{
		"flag":   up,
		"inner1": inner,
		"inner2": ready,
		"inner3": count,
		"inner4": health.StatusOf(up),
	}), nil
}

// probeSet is the probes served by the daemon.
type probeSet struct {
	toggle  *switchProbe
	groups  *health.Registry
	dynamic *health.Registries
}

// buildProbes registers the switchable probe in every kind and the memory
// probe in live and well, both behind guards. The dynamic registries carry
// the switchable probe only.
func buildProbes(cfg config.ProbesConfig, logger observe.Logger) (*probeSet, error) {
	toggle := newSwitchProbe("demo", "foo", "bar")
	memory := health.NewMemoryChecker(health.MemoryCheckerConfig{CriticalThreshold: cfg.MemoryCritical})

	guardedToggle := resilience.Guard(toggle, guardConfig(cfg, toggle.Name(), logger))
	guardedMemory := resilience.Guard(memory, guardConfig(cfg, memory.Name(), logger))

	groups := health.NewRegistry()
	if err := groups.Register(guardedToggle, health.KindAll); err != nil {
		return nil, err
	}
	if err := groups.Register(guardedMemory, health.KindLiveness|health.KindWellness); err != nil {
		return nil, err
	}

	dynamic := health.NewRegistries("dynamic")
	if err := dynamic.Add(guardedToggle, health.KindAll); err != nil {
		return nil, err
	}

	return &probeSet{toggle: toggle, groups: groups, dynamic: dynamic}, nil
}

func guardConfig(cfg config.ProbesConfig, name string, logger observe.Logger) resilience.GuardConfig {
	gc := resilience.GuardConfig{Timeout: cfg.Timeout.Duration}
	if cfg.BreakerFailures > 0 {
		probeLog := logger.WithProbe(name)
		gc.Breaker = &resilience.CircuitBreakerConfig{
			MaxFailures:  cfg.BreakerFailures,
			ResetTimeout: cfg.BreakerReset.Duration,
			OnStateChange: func(from, to resilience.State) {
				probeLog.Warn(context.Background(), "probe breaker state changed",
					observe.Field{Key: "from", Value: from.String()},
					observe.Field{Key: "to", Value: to.String()},
				)
			},
		}
	}
	return gc
}
