package mapper

import "sync"

// Registry holds an ordered collection of mappers. Order is registration
// order and decides ownership: the first mapper that matches a key wins.
type Registry struct {
	mu      sync.RWMutex
	mappers []DataMapper
}

// NewRegistry creates a registry holding mappers in the given order.
func NewRegistry(mappers ...DataMapper) (*Registry, error) {
	r := &Registry{}
	for _, m := range mappers {
		if err := r.Add(m); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// DefaultRegistry returns a registry holding Defaults().
func DefaultRegistry() *Registry {
	return &Registry{mappers: Defaults()}
}

// Add appends a mapper; it ranks below every mapper added before it.
func (r *Registry) Add(m DataMapper) error {
	if m == nil {
		return ErrNilMapper
	}

	r.mu.Lock()
	r.mappers = append(r.mappers, m)
	r.mu.Unlock()
	return nil
}

// Mappers returns the mappers in resolution order.
func (r *Registry) Mappers() []DataMapper {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]DataMapper, len(r.mappers))
	copy(out, r.mappers)
	return out
}

// Len returns the number of mappers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.mappers)
}

// Resolve returns the first mapper, in registration order, that matches the
// (key, value) pair. Unmatched pairs return false.
func (r *Registry) Resolve(key string, value any) (DataMapper, bool) {
	for _, m := range r.Mappers() {
		if Matches(m, key, value) {
			return m, true
		}
	}
	return nil, false
}

// NewPass starts a registration pass with an empty claim set.
func (r *Registry) NewPass() *Pass {
	return &Pass{registry: r, claimed: make(map[string]DataMapper)}
}

// Pass records which data keys have been claimed during one registration
// run. A Pass is not safe for concurrent use; a registration run is sequential.
type Pass struct {
	registry *Registry
	claimed  map[string]DataMapper
}

// Offer lets mapper m claim key if no mapper has claimed it yet and m
// matches the (key, value) pair. m is not evaluated for a claimed key.
func (p *Pass) Offer(m DataMapper, key string, value any) bool {
	if _, done := p.claimed[key]; done {
		return false
	}
	if !Matches(m, key, value) {
		return false
	}
	p.claimed[key] = m
	return true
}

// Claim resolves key against the registry and records the winner. It
// returns false when the key was claimed before or no mapper matches.
func (p *Pass) Claim(key string, value any) (DataMapper, bool) {
	if _, done := p.claimed[key]; done {
		return nil, false
	}
	m, ok := p.registry.Resolve(key, value)
	if !ok {
		return nil, false
	}
	p.claimed[key] = m
	return m, true
}

// Owner returns the mapper that claimed key.
func (p *Pass) Owner(key string) (DataMapper, bool) {
	m, ok := p.claimed[key]
	return m, ok
}

// Unmapped reports whether key is still unclaimed.
func (p *Pass) Unmapped(key string) bool {
	_, done := p.claimed[key]
	return !done
}
