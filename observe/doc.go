// Package observe instruments probe invocations.
//
// An Observer owns the OpenTelemetry tracer and meter providers and a
// zap-backed Logger. Middleware.WrapProbe decorates a health.Checker so
// every invocation opens a health.probe.<name> span, counts the call and
// its failures, records its duration and logs the outcome.
package observe
