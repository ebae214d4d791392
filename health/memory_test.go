package health

import (
	"context"
	"runtime"
	"testing"
)

func TestNewMemoryChecker(t *testing.T) {
	checker := NewMemoryChecker(MemoryCheckerConfig{})

	if checker.Name() != "memory" {
		t.Errorf("Name() = %v, want 'memory'", checker.Name())
	}
	if checker.config.WarningThreshold != 0.8 {
		t.Errorf("WarningThreshold = %v, want 0.8", checker.config.WarningThreshold)
	}
	if checker.config.CriticalThreshold != 0.95 {
		t.Errorf("CriticalThreshold = %v, want 0.95", checker.config.CriticalThreshold)
	}
}

func TestNewMemoryChecker_InvalidThresholds(t *testing.T) {
	checker := NewMemoryChecker(MemoryCheckerConfig{
		WarningThreshold: 1.5,
	})
	if checker.config.WarningThreshold != 0.8 {
		t.Errorf("Invalid warning should default to 0.8, got %v", checker.config.WarningThreshold)
	}

	checker = NewMemoryChecker(MemoryCheckerConfig{
		WarningThreshold:  0.9,
		CriticalThreshold: 0.7,
	})
	if checker.config.CriticalThreshold <= checker.config.WarningThreshold {
		t.Error("Critical threshold should be adjusted to be > warning threshold")
	}
}

func fakeStats(alloc, sys uint64) func(*runtime.MemStats) {
	return func(s *runtime.MemStats) {
		s.Alloc = alloc
		s.Sys = sys
		s.NumGC = 3
	}
}

func TestMemoryChecker_Check(t *testing.T) {
	tests := []struct {
		name         string
		alloc        uint64
		wantStatus   Status
		wantWarning  bool
		wantCritical bool
	}{
		{"normal", 10, StatusUp, true, true},
		{"warning", 85, StatusUp, false, true},
		{"critical", 99, StatusDown, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewMemoryChecker(MemoryCheckerConfig{Name: "mem"})
			checker.stats = fakeStats(tt.alloc, 100)

			result, err := checker.Check(context.Background())
			if err != nil {
				t.Fatalf("Check() error = %v", err)
			}
			if result.Name != "mem" {
				t.Errorf("Name = %v, want 'mem'", result.Name)
			}
			if result.Status != tt.wantStatus {
				t.Errorf("Status = %v, want %v", result.Status, tt.wantStatus)
			}
			if result.Data["below_warning"] != tt.wantWarning {
				t.Errorf("below_warning = %v, want %v", result.Data["below_warning"], tt.wantWarning)
			}
			if result.Data["below_critical"] != tt.wantCritical {
				t.Errorf("below_critical = %v, want %v", result.Data["below_critical"], tt.wantCritical)
			}
			if result.Data["heap"] != tt.wantStatus {
				t.Errorf("heap = %v, want %v", result.Data["heap"], tt.wantStatus)
			}
			if result.Data["num_gc"] != uint32(3) {
				t.Errorf("num_gc = %v, want 3", result.Data["num_gc"])
			}
		})
	}
}

func TestMemoryChecker_ContextCancelled(t *testing.T) {
	checker := NewMemoryChecker(MemoryCheckerConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := checker.Check(ctx); err == nil {
		t.Error("Check() with cancelled context should fail")
	}
}
