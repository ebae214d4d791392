package resilience

import "errors"

// Sentinel errors returned by guarded probes.
var (
	// ErrCircuitOpen is returned when the breaker rejects an invocation.
	ErrCircuitOpen = errors.New("resilience: circuit breaker is open")

	// ErrTimeout is returned when a probe exceeds its time limit.
	ErrTimeout = errors.New("resilience: probe timed out")
)
