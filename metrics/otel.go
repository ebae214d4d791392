package metrics

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OTelSink binds gauges to OpenTelemetry observable gauges. One
// Float64ObservableGauge is created per metric name; its callback evaluates
// every binding of that name on each collection.
type OTelSink struct {
	meter metric.Meter
	opts  options

	mu     sync.Mutex
	gauges map[string]*otelGauge
	keys   map[string]struct{}
}

type otelGauge struct {
	name       string
	instrument metric.Float64ObservableGauge

	mu       sync.RWMutex
	bindings []otelBinding
}

type otelBinding struct {
	tags   Tags
	attrs  attribute.Set
	source ValueSource
}

// NewOTelSink creates a sink on the given meter.
func NewOTelSink(meter metric.Meter, opts ...Option) *OTelSink {
	return &OTelSink{
		meter:  meter,
		opts:   newOptions(opts),
		gauges: make(map[string]*otelGauge),
		keys:   make(map[string]struct{}),
	}
}

// RegisterGauge binds source to the gauge name with the given tags.
func (s *OTelSink) RegisterGauge(name string, tags Tags, source ValueSource) error {
	if err := validate(name, tags, source); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := bindingKey(name, tags)
	if _, exists := s.keys[key]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateGauge, key)
	}

	g, ok := s.gauges[name]
	if !ok {
		var err error
		g, err = s.newGauge(name)
		if err != nil {
			return err
		}
		s.gauges[name] = g
	}

	tags = cloneTags(tags)
	kvs := make([]attribute.KeyValue, 0, len(tags))
	for _, k := range tags.Keys() {
		kvs = append(kvs, attribute.String(k, tags[k]))
	}

	g.mu.Lock()
	g.bindings = append(g.bindings, otelBinding{
		tags:   tags,
		attrs:  attribute.NewSet(kvs...),
		source: source,
	})
	g.mu.Unlock()

	s.keys[key] = struct{}{}
	return nil
}

func (s *OTelSink) newGauge(name string) (*otelGauge, error) {
	instrument, err := s.meter.Float64ObservableGauge(
		name,
		metric.WithDescription(s.opts.description(name)),
	)
	if err != nil {
		return nil, fmt.Errorf("metrics: create gauge %s: %w", name, err)
	}

	g := &otelGauge{name: name, instrument: instrument}
	if _, err := s.meter.RegisterCallback(g.observe(s.opts.onError), instrument); err != nil {
		return nil, fmt.Errorf("metrics: register callback %s: %w", name, err)
	}
	return g, nil
}

func (g *otelGauge) observe(onError ErrorHandler) metric.Callback {
	return func(ctx context.Context, o metric.Observer) error {
		g.mu.RLock()
		bindings := make([]otelBinding, len(g.bindings))
		copy(bindings, g.bindings)
		g.mu.RUnlock()

		for _, b := range bindings {
			v, err := b.source(ctx)
			if err != nil {
				onError(g.name, b.tags, err)
				continue
			}
			o.ObserveFloat64(g.instrument, v, metric.WithAttributeSet(b.attrs))
		}
		return nil
	}
}

// Ensure OTelSink implements Sink
var _ Sink = (*OTelSink)(nil)
