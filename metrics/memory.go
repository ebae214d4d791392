package metrics

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrGaugeNotFound is returned by MemorySink.Read for unknown bindings.
var ErrGaugeNotFound = errors.New("metrics: gauge not found")

// Binding describes one registered gauge.
type Binding struct {
	Name string
	Tags Tags
}

// MemorySink keeps bindings in memory and evaluates them on demand.
// It backs tests and the debug listing of the host binary.
type MemorySink struct {
	mu       sync.RWMutex
	bindings map[string]memoryBinding
}

type memoryBinding struct {
	Binding
	source ValueSource
}

// NewMemorySink creates an empty sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{bindings: make(map[string]memoryBinding)}
}

// RegisterGauge binds source to the gauge name with the given tags.
func (s *MemorySink) RegisterGauge(name string, tags Tags, source ValueSource) error {
	if err := validate(name, tags, source); err != nil {
		return err
	}

	key := bindingKey(name, tags)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.bindings[key]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateGauge, key)
	}
	s.bindings[key] = memoryBinding{
		Binding: Binding{Name: name, Tags: cloneTags(tags)},
		source:  source,
	}
	return nil
}

// Read evaluates the gauge bound under name and tags.
func (s *MemorySink) Read(ctx context.Context, name string, tags Tags) (float64, error) {
	s.mu.RLock()
	b, ok := s.bindings[bindingKey(name, tags)]
	s.mu.RUnlock()
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrGaugeNotFound, bindingKey(name, tags))
	}
	return b.source(ctx)
}

// Has reports whether a gauge is bound under name and tags.
func (s *MemorySink) Has(name string, tags Tags) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.bindings[bindingKey(name, tags)]
	return ok
}

// Bindings lists every registered gauge, sorted by its rendered name and tags.
func (s *MemorySink) Bindings() []Binding {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.bindings))
	for k := range s.bindings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Binding, 0, len(keys))
	for _, k := range keys {
		b := s.bindings[k]
		out = append(out, Binding{Name: b.Name, Tags: cloneTags(b.Tags)})
	}
	return out
}

// Len returns the number of bindings.
func (s *MemorySink) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.bindings)
}

// Ensure MemorySink implements Sink
var _ Sink = (*MemorySink)(nil)
