// Package cache provides short-lived memoization of check results.
//
// ResultCache guarantees at most one loader invocation per key and refresh
// window, however many goroutines ask for the key concurrently. Failed loads
// are never stored, so the next caller retries immediately.
package cache
