package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/jonwraymond/healthmetrics/health"
)

// ProbeMeta describes a probe for telemetry purposes.
type ProbeMeta struct {
	Name   string   // Probe name (required)
	Groups []string // Custom groups the probe declares (optional)
}

// ProbeMetaOf builds the metadata of a checker.
func ProbeMetaOf(c health.Checker) ProbeMeta {
	meta := ProbeMeta{Name: c.Name()}
	if gc, ok := c.(health.GroupedChecker); ok {
		meta.Groups = gc.Groups()
	}
	return meta
}

// SpanName returns the span name of one invocation: health.probe.<name>.
func (m ProbeMeta) SpanName() string {
	return "health.probe." + m.Name
}

// Tracer wraps OpenTelemetry tracing around probe invocations.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for a probe invocation.
	StartSpan(ctx context.Context, meta ProbeMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording the outcome.
	EndSpan(span trace.Span, res health.Result, err error)
}

type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer creates a Tracer on the given OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

func (t *tracerImpl) StartSpan(ctx context.Context, meta ProbeMeta) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("probe.name", meta.Name),
		attribute.Bool("probe.error", false),
	}
	if len(meta.Groups) > 0 {
		attrs = append(attrs, attribute.StringSlice("probe.groups", meta.Groups))
	}

	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpan sets the probe status on success. A DOWN result is not a span
// error; only a failed invocation is.
func (t *tracerImpl) EndSpan(span trace.Span, res health.Result, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("probe.error", true))
		span.RecordError(err)
	} else {
		span.SetAttributes(attribute.String("probe.status", res.Status.String()))
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

type noopTracer struct {
	noop trace.Tracer
}

func newNoopTracer() Tracer {
	return &noopTracer{noop: tracenoop.NewTracerProvider().Tracer("noop")}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta ProbeMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, res health.Result, err error) {
	span.End()
}
