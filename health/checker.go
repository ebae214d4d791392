package health

import (
	"context"
	"strings"
)

// Status represents the outcome of a health check.
type Status int

const (
	// StatusDown indicates the component is not functioning properly.
	StatusDown Status = iota
	// StatusUp indicates the component is functioning normally.
	StatusUp
)

// String returns the wire representation of the status ("UP" or "DOWN").
func (s Status) String() string {
	if s == StatusUp {
		return "UP"
	}
	return "DOWN"
}

// StatusOf converts a boolean into a Status.
func StatusOf(up bool) Status {
	if up {
		return StatusUp
	}
	return StatusDown
}

// ParseStatus parses "UP" or "DOWN", ignoring case and surrounding space.
func ParseStatus(s string) (Status, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "UP":
		return StatusUp, true
	case "DOWN":
		return StatusDown, true
	default:
		return StatusDown, false
	}
}

// Result contains the outcome of one check invocation.
// A Result is never mutated after it is returned; a new invocation produces a new Result.
type Result struct {
	// Name is the name reported by the check.
	Name string

	// Status is the health status.
	Status Status

	// Data carries arbitrary payload values. Values are expected to be
	// bool, string, an integer kind or Status.
	Data map[string]any
}

// Up creates an UP result.
func Up(name string) Result {
	return Result{Name: name, Status: StatusUp}
}

// Down creates a DOWN result.
func Down(name string) Result {
	return Result{Name: name, Status: StatusDown}
}

// WithData returns a copy of the result carrying data.
func (r Result) WithData(data map[string]any) Result {
	r.Data = data
	return r
}

// IsUp reports whether the result status is StatusUp.
func (r Result) IsUp() bool {
	return r.Status == StatusUp
}

// Checker is the interface for health checks.
//
// Contract:
// - Name is the stable identity of the check and must not change between calls.
// - Check may block; it returns an error when the check could not be evaluated at all.
// - Concurrency: implementations must be safe for concurrent use.
type Checker interface {
	// Name returns the name of this checker.
	Name() string

	// Check performs the health check and returns the result.
	Check(ctx context.Context) (Result, error)
}

// CheckerFunc is an adapter to allow ordinary functions to be used as Checkers.
type CheckerFunc struct {
	name string
	fn   func(context.Context) (Result, error)
}

// NewCheckerFunc creates a new CheckerFunc.
func NewCheckerFunc(name string, fn func(context.Context) (Result, error)) *CheckerFunc {
	return &CheckerFunc{name: name, fn: fn}
}

// Name returns the name of this checker.
func (f *CheckerFunc) Name() string {
	return f.name
}

// Check performs the health check.
func (f *CheckerFunc) Check(ctx context.Context) (Result, error) {
	if f.fn == nil {
		return Result{}, ErrCheckFailed
	}
	return f.fn(ctx)
}

// GroupedChecker is a checker that declares the custom groups it belongs to.
// Registry.Register picks these groups up in addition to the ones passed explicitly.
type GroupedChecker interface {
	Checker

	// Groups returns the custom group names of this checker.
	Groups() []string
}
