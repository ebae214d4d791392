package observe

import (
	"context"
	"time"

	"github.com/jonwraymond/healthmetrics/health"
)

// Middleware wraps probe invocations with tracing, metrics and logging.
//
// Contract:
//   - Concurrency: WrapProbe returns a checker safe for concurrent use when
//     the wrapped checker is.
//   - Context: the span context is passed to the wrapped checker.
//   - Errors: errors and results of the wrapped checker pass through unchanged.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a Middleware. Nil components are replaced by no-ops.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = newNoopTracer()
	}
	if metrics == nil {
		metrics = &noopMetrics{}
	}
	if logger == nil {
		logger = NopLogger()
	}
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}
	metrics, err := newMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}
	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}

// WrapProbe returns a checker with the same name whose every Check call is
// instrumented.
func (m *Middleware) WrapProbe(c health.Checker) health.Checker {
	return &observedChecker{Checker: c, mw: m, meta: ProbeMetaOf(c)}
}

type observedChecker struct {
	health.Checker
	mw   *Middleware
	meta ProbeMeta
}

func (o *observedChecker) Check(ctx context.Context) (health.Result, error) {
	ctx, span := o.mw.tracer.StartSpan(ctx, o.meta)
	start := time.Now()

	res, err := o.Checker.Check(ctx)

	duration := time.Since(start)
	o.mw.tracer.EndSpan(span, res, err)
	o.mw.metrics.RecordInvocation(ctx, o.meta, duration, res, err)

	logger := o.mw.logger.WithProbe(o.meta.Name)
	fields := []Field{
		{Key: "duration_ms", Value: float64(duration.Microseconds()) / 1000},
	}
	if err != nil {
		fields = append(fields, Field{Key: "error", Value: err.Error()})
		logger.Error(ctx, "probe invocation failed", fields...)
	} else {
		fields = append(fields, Field{Key: "status", Value: res.Status.String()})
		logger.Debug(ctx, "probe invocation completed", fields...)
	}

	return res, err
}
