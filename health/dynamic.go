package health

import "sync"

// DynamicRegistry is a named collection of checks that can change at runtime,
// as opposed to the statically declared checkers of a Registry.
type DynamicRegistry interface {
	// Name returns the registry name used to tag its gauges.
	Name() string

	// Checks returns a snapshot of the current checks.
	Checks() []Checker
}

// RegistrySet exposes one dynamic registry per built-in kind.
// Any accessor may return nil when the set has no registry for that kind.
type RegistrySet interface {
	Liveness() DynamicRegistry
	Readiness() DynamicRegistry
	Startup() DynamicRegistry
	Wellness() DynamicRegistry
}

// CheckList is a concurrency-safe DynamicRegistry.
type CheckList struct {
	name   string
	mu     sync.RWMutex
	checks []Checker
}

// NewCheckList creates an empty check list.
func NewCheckList(name string) *CheckList {
	return &CheckList{name: name}
}

// Name returns the registry name.
func (l *CheckList) Name() string {
	return l.name
}

// Add appends a check, replacing an existing check with the same name.
func (l *CheckList) Add(checker Checker) error {
	if err := validateChecker(checker); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for i, c := range l.checks {
		if c.Name() == checker.Name() {
			l.checks[i] = checker
			return nil
		}
	}
	l.checks = append(l.checks, checker)
	return nil
}

// Remove deletes the check with the given name.
func (l *CheckList) Remove(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, c := range l.checks {
		if c.Name() == name {
			l.checks = append(l.checks[:i], l.checks[i+1:]...)
			return
		}
	}
}

// Checks returns a snapshot of the current checks.
func (l *CheckList) Checks() []Checker {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Checker, len(l.checks))
	copy(out, l.checks)
	return out
}

// Registries is a RegistrySet backed by four CheckLists named
// "<name>-live", "<name>-ready", "<name>-startup" and "<name>-well".
type Registries struct {
	liveness  *CheckList
	readiness *CheckList
	startup   *CheckList
	wellness  *CheckList
}

// NewRegistries creates a RegistrySet with empty check lists.
func NewRegistries(name string) *Registries {
	return &Registries{
		liveness:  NewCheckList(name + "-" + GroupLive),
		readiness: NewCheckList(name + "-" + GroupReady),
		startup:   NewCheckList(name + "-" + GroupStartup),
		wellness:  NewCheckList(name + "-" + GroupWell),
	}
}

// List returns the check list of a single-bit kind, or nil.
func (r *Registries) List(kind Kind) *CheckList {
	switch kind {
	case KindLiveness:
		return r.liveness
	case KindReadiness:
		return r.readiness
	case KindStartup:
		return r.startup
	case KindWellness:
		return r.wellness
	default:
		return nil
	}
}

// Add adds a checker to every check list selected by kinds.
func (r *Registries) Add(checker Checker, kinds Kind) error {
	for _, k := range Kinds {
		if !kinds.Has(k) {
			continue
		}
		if err := r.List(k).Add(checker); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registries) Liveness() DynamicRegistry  { return r.liveness }
func (r *Registries) Readiness() DynamicRegistry { return r.readiness }
func (r *Registries) Startup() DynamicRegistry   { return r.startup }
func (r *Registries) Wellness() DynamicRegistry  { return r.wellness }

var (
	_ DynamicRegistry = (*CheckList)(nil)
	_ RegistrySet     = (*Registries)(nil)
)
