package health

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/jonwraymond/healthmetrics/cache"
)

// Kind is a bit set of the built-in probe kinds a checker belongs to.
type Kind uint8

const (
	// KindLiveness marks a liveness check.
	KindLiveness Kind = 1 << iota
	// KindReadiness marks a readiness check.
	KindReadiness
	// KindStartup marks a startup check.
	KindStartup
	// KindWellness marks a wellness check.
	KindWellness

	// KindAll marks a check as belonging to every built-in kind.
	KindAll = KindLiveness | KindReadiness | KindStartup | KindWellness
)

// Built-in group names as exposed on gauges.
const (
	GroupHealth  = "health"
	GroupLive    = "live"
	GroupReady   = "ready"
	GroupStartup = "startup"
	GroupWell    = "well"
)

// Kinds lists the single-bit kinds in their canonical order.
var Kinds = []Kind{KindLiveness, KindReadiness, KindStartup, KindWellness}

// GroupName returns the built-in group name of a single-bit kind.
func (k Kind) GroupName() string {
	switch k {
	case KindLiveness:
		return GroupLive
	case KindReadiness:
		return GroupReady
	case KindStartup:
		return GroupStartup
	case KindWellness:
		return GroupWell
	default:
		return ""
	}
}

// Has reports whether k contains every bit of other.
func (k Kind) Has(other Kind) bool {
	return other != 0 && k&other == other
}

// IsBuiltinGroup reports whether name is one of the built-in group names.
func IsBuiltinGroup(name string) bool {
	switch name {
	case GroupHealth, GroupLive, GroupReady, GroupStartup, GroupWell:
		return true
	default:
		return false
	}
}

type registration struct {
	checker Checker
	kinds   Kind
	groups  map[string]struct{}
}

// Registry holds statically declared checkers together with their kind and
// group metadata.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*registration
	order   []string // Maintains registration order
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*registration),
		order:   make([]string, 0),
	}
}

// Register adds a checker with the given kinds and custom groups. Groups
// declared by a GroupedChecker are added to the explicit ones. Registering a
// name again replaces the checker and merges its metadata.
func (r *Registry) Register(checker Checker, kinds Kind, groups ...string) error {
	if err := validateChecker(checker); err != nil {
		return err
	}
	if gc, ok := checker.(GroupedChecker); ok {
		groups = append(groups, gc.Groups()...)
	}
	for _, g := range groups {
		if strings.TrimSpace(g) == "" {
			return ErrInvalidGroup
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	name := checker.Name()
	reg, exists := r.entries[name]
	if !exists {
		reg = &registration{groups: make(map[string]struct{})}
		r.entries[name] = reg
		r.order = append(r.order, name)
	}
	reg.checker = checker
	reg.kinds |= kinds
	for _, g := range groups {
		reg.groups[strings.TrimSpace(g)] = struct{}{}
	}
	return nil
}

// Unregister removes a checker from the registry.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[name]; !ok {
		return
	}
	delete(r.entries, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Get returns the checker registered under name.
func (r *Registry) Get(name string) (Checker, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.entries[name]
	if !ok {
		return nil, ErrCheckerNotFound
	}
	return reg.checker, nil
}

// Checkers returns every registered checker in registration order.
func (r *Registry) Checkers() []Checker {
	return r.filter(func(*registration) bool { return true })
}

// Members returns the checkers of a single built-in kind in registration order.
func (r *Registry) Members(kind Kind) []Checker {
	return r.filter(func(reg *registration) bool { return reg.kinds.Has(kind) })
}

// Group resolves a group name to its members. Built-in names resolve to
// their kind ("health" resolves to every checker); any other name resolves to
// the checkers that declared it. The second return value is false when the
// name is neither built-in nor declared by any checker.
func (r *Registry) Group(name string) ([]Checker, bool) {
	switch name {
	case GroupHealth:
		return r.Checkers(), true
	case GroupLive:
		return r.Members(KindLiveness), true
	case GroupReady:
		return r.Members(KindReadiness), true
	case GroupStartup:
		return r.Members(KindStartup), true
	case GroupWell:
		return r.Members(KindWellness), true
	}

	members := r.filter(func(reg *registration) bool {
		_, ok := reg.groups[name]
		return ok
	})
	return members, len(members) > 0
}

// CustomGroups returns the distinct custom group names declared by the
// registered checkers, sorted.
func (r *Registry) CustomGroups() []string {
	r.mu.RLock()
	set := make(map[string]struct{})
	for _, reg := range r.entries {
		for g := range reg.groups {
			set[g] = struct{}{}
		}
	}
	r.mu.RUnlock()

	names := make([]string, 0, len(set))
	for g := range set {
		names = append(names, g)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) filter(keep func(*registration) bool) []Checker {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Checker, 0, len(r.order))
	for _, name := range r.order {
		if reg := r.entries[name]; keep(reg) {
			out = append(out, reg.checker)
		}
	}
	return out
}

// validateChecker rejects nil checkers and names that cannot key a cached
// result.
func validateChecker(checker Checker) error {
	if checker == nil {
		return ErrInvalidChecker
	}
	if err := cache.ValidateKey(checker.Name()); err != nil {
		return fmt.Errorf("%w: name %q: %w", ErrInvalidChecker, checker.Name(), err)
	}
	return nil
}
