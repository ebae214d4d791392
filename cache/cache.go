package cache

import (
	"context"
	"errors"
	"strings"
)

// MaxKeyLength is the maximum allowed length for a cache key.
const MaxKeyLength = 512

// Sentinel errors for cache operations.
var (
	ErrInvalidKey    = errors.New("cache: key is invalid")
	ErrKeyTooLong    = errors.New("cache: key exceeds max length")
	ErrNilLoader     = errors.New("cache: loader is nil")
	ErrWaitAbandoned = errors.New("cache: wait for in-flight load abandoned")
)

// Loader computes the value for a key on a cache miss.
type Loader[V any] func(ctx context.Context) (V, error)

// Fetcher memoizes loader results by key.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - At most one loader call per key is in flight at any time; concurrent
//   callers for that key wait for its outcome.
// - Errors: loader errors are returned to the waiting callers and never cached.
// - Context: a caller whose context ends stops waiting and gets an error
//   wrapping ErrWaitAbandoned; the in-flight load is not cancelled.
type Fetcher[V any] interface {
	// Fetch returns the cached value for key, loading it when absent or expired.
	Fetch(ctx context.Context, key string, load Loader[V]) (V, error)

	// Invalidate drops the cached value for key. Idempotent.
	Invalidate(key string)

	// InvalidateAll drops every cached value.
	InvalidateAll()
}

// ValidateKey checks if a key is valid for caching.
func ValidateKey(key string) error {
	if key == "" || strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	// Reject keys with newlines or carriage returns
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}
