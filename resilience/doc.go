// Package resilience guards slow or failing probes.
//
// The result cache serializes invocations per probe but never interrupts
// one, so a hanging probe would block its own refresh forever. Guard puts a
// watchdog timeout and an optional circuit breaker in front of a
// health.Checker:
//
//	guarded := resilience.Guard(dbCheck, resilience.GuardConfig{
//	    Timeout: 2 * time.Second,
//	    Breaker: &resilience.CircuitBreakerConfig{MaxFailures: 3, ResetTimeout: time.Minute},
//	})
//
// A timed-out or rejected invocation fails with ErrTimeout or ErrCircuitOpen,
// which the gauges read as DOWN.
package resilience
