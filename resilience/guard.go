package resilience

import (
	"context"
	"time"

	"github.com/jonwraymond/healthmetrics/health"
)

// GuardConfig selects the protections put in front of a probe.
type GuardConfig struct {
	// Timeout bounds each invocation. Zero means no watchdog.
	Timeout time.Duration

	// Breaker enables a circuit breaker when non-nil.
	Breaker *CircuitBreakerConfig
}

// Guarded is a checker behind a watchdog and an optional breaker.
type Guarded struct {
	health.Checker
	timeout *Timeout
	breaker *CircuitBreaker
}

// Guard wraps c. The breaker sits outside the timeout, so timeouts count
// as failures.
func Guard(c health.Checker, cfg GuardConfig) *Guarded {
	g := &Guarded{Checker: c}
	if cfg.Timeout > 0 {
		g.timeout = NewTimeout(TimeoutConfig{Timeout: cfg.Timeout})
	}
	if cfg.Breaker != nil {
		g.breaker = NewCircuitBreaker(*cfg.Breaker)
	}
	return g
}

// Check invokes the wrapped checker under the configured protections.
func (g *Guarded) Check(ctx context.Context) (health.Result, error) {
	// A result arriving after a timeout stays unread in the buffer.
	results := make(chan health.Result, 1)
	op := func(ctx context.Context) error {
		res, err := g.Checker.Check(ctx)
		if err == nil {
			results <- res
		}
		return err
	}

	guarded := op
	if g.timeout != nil {
		guarded = func(ctx context.Context) error { return g.timeout.Execute(ctx, op) }
	}
	var err error
	if g.breaker != nil {
		err = g.breaker.Execute(ctx, guarded)
	} else {
		err = guarded(ctx)
	}
	if err != nil {
		return health.Result{}, err
	}
	return <-results, nil
}

// Groups forwards the custom groups of the wrapped checker.
func (g *Guarded) Groups() []string {
	if gc, ok := g.Checker.(health.GroupedChecker); ok {
		return gc.Groups()
	}
	return nil
}

// BreakerState returns the breaker state, or StateClosed without a breaker.
func (g *Guarded) BreakerState() State {
	if g.breaker == nil {
		return StateClosed
	}
	return g.breaker.State()
}

var (
	_ health.Checker        = (*Guarded)(nil)
	_ health.GroupedChecker = (*Guarded)(nil)
)
