package health

import (
	"context"
	"runtime"
)

// MemoryCheckerConfig configures the memory health checker.
type MemoryCheckerConfig struct {
	// Name overrides the checker name. Default: "memory"
	Name string

	// WarningThreshold is the usage ratio above which "below_warning" turns false.
	// Value should be between 0 and 1. Default: 0.8 (80%)
	WarningThreshold float64

	// CriticalThreshold is the usage ratio at which the check reports DOWN.
	// Value should be between 0 and 1. Default: 0.95 (95%)
	CriticalThreshold float64

	// MaxAlloc is the maximum expected allocation in bytes.
	// If zero, the bytes obtained from the OS are used.
	MaxAlloc uint64
}

// MemoryChecker reports heap usage against configured thresholds.
//
// Its data carries values the default mappers understand:
// "below_warning" and "below_critical" (bool), "heap" (Status),
// "goroutines" and "num_gc" (integers).
type MemoryChecker struct {
	config MemoryCheckerConfig
	stats  func(*runtime.MemStats)
}

// NewMemoryChecker creates a new memory health checker.
func NewMemoryChecker(config MemoryCheckerConfig) *MemoryChecker {
	if config.Name == "" {
		config.Name = "memory"
	}
	if config.WarningThreshold <= 0 || config.WarningThreshold >= 1 {
		config.WarningThreshold = 0.8
	}
	if config.CriticalThreshold <= 0 || config.CriticalThreshold >= 1 {
		config.CriticalThreshold = 0.95
	}
	if config.CriticalThreshold < config.WarningThreshold {
		config.CriticalThreshold = config.WarningThreshold + 0.1
		if config.CriticalThreshold > 1 {
			config.CriticalThreshold = 0.99
		}
	}

	return &MemoryChecker{config: config, stats: runtime.ReadMemStats}
}

// Name returns the name of this checker.
func (m *MemoryChecker) Name() string {
	return m.config.Name
}

// Check performs the memory health check.
func (m *MemoryChecker) Check(ctx context.Context) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	var stats runtime.MemStats
	m.stats(&stats)

	maxAlloc := m.config.MaxAlloc
	if maxAlloc == 0 {
		maxAlloc = stats.Sys
	}

	ratio := 0.0
	if maxAlloc > 0 {
		ratio = float64(stats.Alloc) / float64(maxAlloc)
	}
	belowCritical := ratio < m.config.CriticalThreshold

	return Result{
		Name:   m.config.Name,
		Status: StatusOf(belowCritical),
		Data: map[string]any{
			"below_warning":  ratio < m.config.WarningThreshold,
			"below_critical": belowCritical,
			"heap":           StatusOf(belowCritical),
			"goroutines":     runtime.NumGoroutine(),
			"num_gc":         stats.NumGC,
		},
	}, nil
}
