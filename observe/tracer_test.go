package observe

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/jonwraymond/healthmetrics/health"
)

type groupedProbe struct {
	*health.CheckerFunc
	groups []string
}

func (g groupedProbe) Groups() []string { return g.groups }

func newRecordingTracer() (*tracetest.SpanRecorder, Tracer) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	return rec, NewTracer(tp.Tracer("test"))
}

func spanAttr(span sdktrace.ReadOnlySpan, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestProbeMeta_SpanName(t *testing.T) {
	if got := (ProbeMeta{Name: "database"}).SpanName(); got != "health.probe.database" {
		t.Errorf("SpanName() = %q, want health.probe.database", got)
	}
}

func TestProbeMetaOf_Groups(t *testing.T) {
	c := groupedProbe{
		CheckerFunc: health.NewCheckerFunc("demo", nil),
		groups:      []string{"foo", "bar"},
	}
	meta := ProbeMetaOf(c)
	if meta.Name != "demo" || len(meta.Groups) != 2 {
		t.Errorf("ProbeMetaOf() = %+v", meta)
	}
}

func TestTracer_SpanAttributes(t *testing.T) {
	rec, tracer := newRecordingTracer()

	_, span := tracer.StartSpan(context.Background(), ProbeMeta{Name: "demo", Groups: []string{"foo"}})
	tracer.EndSpan(span, health.Down("demo"), nil)

	spans := rec.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	s := spans[0]
	if s.Name() != "health.probe.demo" {
		t.Errorf("span name = %q", s.Name())
	}
	if v, ok := spanAttr(s, "probe.status"); !ok || v.AsString() != "DOWN" {
		t.Errorf("probe.status = %v, want DOWN", v.AsString())
	}
	if v, ok := spanAttr(s, "probe.groups"); !ok || len(v.AsStringSlice()) != 1 {
		t.Errorf("probe.groups = %v", v.AsStringSlice())
	}
	if s.Status().Code != codes.Ok {
		t.Errorf("a DOWN result is not a span error, got status %v", s.Status().Code)
	}
}

func TestTracer_ErrorRecording(t *testing.T) {
	rec, tracer := newRecordingTracer()

	_, span := tracer.StartSpan(context.Background(), ProbeMeta{Name: "broken"})
	tracer.EndSpan(span, health.Result{}, errors.New("connection refused"))

	s := rec.Ended()[0]
	if s.Status().Code != codes.Error {
		t.Errorf("status code = %v, want Error", s.Status().Code)
	}
	if v, ok := spanAttr(s, "probe.error"); !ok || !v.AsBool() {
		t.Error("probe.error should be true")
	}
	if len(s.Events()) == 0 {
		t.Error("error event should be recorded")
	}
}

func TestTracer_ContextPropagation(t *testing.T) {
	rec, tracer := newRecordingTracer()

	ctx, parent := tracer.StartSpan(context.Background(), ProbeMeta{Name: "parent"})
	_, child := tracer.StartSpan(ctx, ProbeMeta{Name: "child"})
	tracer.EndSpan(child, health.Up("child"), nil)
	tracer.EndSpan(parent, health.Up("parent"), nil)

	spans := rec.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[0].Parent().SpanID() != spans[1].SpanContext().SpanID() {
		t.Error("child span should be parented to the span in ctx")
	}
}
