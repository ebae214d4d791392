package metrics

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusSink binds gauges directly to a Prometheus registry. Each metric
// name becomes one collector with a single descriptor whose variable labels
// are the tag keys; every binding of that name must use the same tag keys.
type PrometheusSink struct {
	registerer prometheus.Registerer
	opts       options

	mu         sync.Mutex
	collectors map[string]*gaugeCollector
	keys       map[string]struct{}
}

type gaugeCollector struct {
	name    string
	labels  []string
	desc    *prometheus.Desc
	onError ErrorHandler

	mu       sync.RWMutex
	bindings []promBinding
}

type promBinding struct {
	tags   Tags
	values []string
	source ValueSource
}

// NewPrometheusSink creates a sink registering its collectors on reg.
// A nil registerer means prometheus.DefaultRegisterer.
func NewPrometheusSink(reg prometheus.Registerer, opts ...Option) *PrometheusSink {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &PrometheusSink{
		registerer: reg,
		opts:       newOptions(opts),
		collectors: make(map[string]*gaugeCollector),
		keys:       make(map[string]struct{}),
	}
}

// RegisterGauge binds source to the gauge name with the given tags.
func (s *PrometheusSink) RegisterGauge(name string, tags Tags, source ValueSource) error {
	if err := validate(name, tags, source); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := bindingKey(name, tags)
	if _, exists := s.keys[key]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateGauge, key)
	}

	labels := tags.Keys()
	c, ok := s.collectors[name]
	if !ok {
		c = &gaugeCollector{
			name:    name,
			labels:  labels,
			desc:    prometheus.NewDesc(name, s.opts.description(name), labels, nil),
			onError: s.opts.onError,
		}
		if err := s.registerer.Register(c); err != nil {
			return fmt.Errorf("metrics: register collector %s: %w", name, err)
		}
		s.collectors[name] = c
	} else if !reflect.DeepEqual(c.labels, labels) {
		return fmt.Errorf("%w: %s has %v, got %v", ErrTagMismatch, name, c.labels, labels)
	}

	tags = cloneTags(tags)
	values := make([]string, len(labels))
	for i, k := range labels {
		values[i] = tags[k]
	}

	c.mu.Lock()
	c.bindings = append(c.bindings, promBinding{tags: tags, values: values, source: source})
	c.mu.Unlock()

	s.keys[key] = struct{}{}
	return nil
}

// Describe implements prometheus.Collector.
func (c *gaugeCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

// Collect implements prometheus.Collector. Sources are evaluated outside
// the collector lock so slow sources do not block registration.
func (c *gaugeCollector) Collect(ch chan<- prometheus.Metric) {
	c.mu.RLock()
	bindings := make([]promBinding, len(c.bindings))
	copy(bindings, c.bindings)
	c.mu.RUnlock()

	ctx := context.Background()
	for _, b := range bindings {
		v, err := b.source(ctx)
		if err != nil {
			c.onError(c.name, b.tags, err)
			continue
		}
		m, err := prometheus.NewConstMetric(c.desc, prometheus.GaugeValue, v, b.values...)
		if err != nil {
			c.onError(c.name, b.tags, err)
			continue
		}
		ch <- m
	}
}

// Ensure PrometheusSink implements Sink
var _ Sink = (*PrometheusSink)(nil)

var _ prometheus.Collector = (*gaugeCollector)(nil)
