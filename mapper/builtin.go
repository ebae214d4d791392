package mapper

import (
	"math"
	"strings"

	"github.com/jonwraymond/healthmetrics/health"
)

// Boolean maps true to up and false to down.
func Boolean() *Typed[bool] {
	return MustNew(Config[bool]{
		Name: "boolean",
		Up:   func(b bool) bool { return b },
		Down: func(b bool) bool { return !b },
	})
}

// Tokens maps strings equal to up or down, ignoring case, to the respective signal.
func Tokens(name, up, down string) (*Typed[string], error) {
	return New(Config[string]{
		Name: name,
		Up:   func(s string) bool { return strings.EqualFold(s, up) },
		Down: func(s string) bool { return strings.EqualFold(s, down) },
	})
}

// UpDown maps "UP" and "DOWN".
func UpDown() *Typed[string] {
	m, _ := Tokens("up-down", "UP", "DOWN")
	return m
}

// ReadyNotReady maps "READY" and "NOT READY".
func ReadyNotReady() *Typed[string] {
	m, _ := Tokens("ready-not-ready", "READY", "NOT READY")
	return m
}

// Integer maps non-zero integers to up and zero to down. Every signed and
// unsigned Go integer kind is accepted.
func Integer() *Typed[int64] {
	return MustNew(Config[int64]{
		Name:    "integer",
		Up:      func(n int64) bool { return n != 0 },
		Down:    func(n int64) bool { return n == 0 },
		Convert: toInt64,
	})
}

// Status maps health.StatusUp and health.StatusDown.
func Status() *Typed[health.Status] {
	return MustNew(Config[health.Status]{
		Name: "status",
		Up:   func(s health.Status) bool { return s == health.StatusUp },
		Down: func(s health.Status) bool { return s == health.StatusDown },
	})
}

// Defaults returns the built-in mappers in resolution order.
func Defaults() []DataMapper {
	return []DataMapper{
		Boolean(),
		UpDown(),
		ReadyNotReady(),
		Integer(),
		Status(),
	}
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return clampUint(uint64(n)), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return clampUint(n), true
	default:
		return 0, false
	}
}

// clampUint keeps large unsigned values non-zero after narrowing.
func clampUint(n uint64) int64 {
	if n > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(n)
}
