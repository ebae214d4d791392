package mapper

import (
	"fmt"
	"regexp"
	"strings"
)

// MatchAll is the default key filter.
const MatchAll = ".*"

// DataMapper interprets a typed payload value as an up and a down signal.
//
// Contract:
// - KeyMatches, Mappable, Up and Down are pure and safe for concurrent use.
// - Mappable(v) is true iff v converts to the mapper's type and Up(v) || Down(v).
// - Up and Down are independent; both may hold for the same value.
type DataMapper interface {
	// Name identifies the mapper in logs.
	Name() string

	// KeyMatches reports whether the data key passes the key filter.
	KeyMatches(key string) bool

	// Mappable reports whether the value is of the mapper's type and
	// satisfies at least one of its predicates.
	Mappable(value any) bool

	// Up reports whether the value reads as up. Values of another type are never up.
	Up(value any) bool

	// Down reports whether the value reads as down. Values of another type are never down.
	Down(value any) bool
}

// Config describes a mapper for values of type T.
type Config[T any] struct {
	// Name identifies the mapper. Required.
	Name string

	// KeyFilter is a regular expression that must match the whole data key.
	// Default: ".*"
	KeyFilter string

	// Up is the up predicate. Required.
	Up func(T) bool

	// Down is the down predicate. Required.
	Down func(T) bool

	// Convert narrows an arbitrary value to T. Default: a type assertion.
	Convert func(any) (T, bool)
}

// Typed is the DataMapper implementation for values of type T.
type Typed[T any] struct {
	name    string
	filter  *regexp.Regexp
	up      func(T) bool
	down    func(T) bool
	convert func(any) (T, bool)
}

// New builds a mapper from cfg. It fails with ErrInvalidMapper when a
// required field is missing or the key filter does not compile.
func New[T any](cfg Config[T]) (*Typed[T], error) {
	if strings.TrimSpace(cfg.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidMapper)
	}
	if cfg.Up == nil {
		return nil, fmt.Errorf("%w: %s: up predicate is required", ErrInvalidMapper, cfg.Name)
	}
	if cfg.Down == nil {
		return nil, fmt.Errorf("%w: %s: down predicate is required", ErrInvalidMapper, cfg.Name)
	}
	if cfg.KeyFilter == "" {
		cfg.KeyFilter = MatchAll
	}
	filter, err := regexp.Compile(`^(?:` + cfg.KeyFilter + `)$`)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: key filter: %v", ErrInvalidMapper, cfg.Name, err)
	}
	if cfg.Convert == nil {
		cfg.Convert = assert[T]
	}

	return &Typed[T]{
		name:    cfg.Name,
		filter:  filter,
		up:      cfg.Up,
		down:    cfg.Down,
		convert: cfg.Convert,
	}, nil
}

// MustNew is like New but panics on error. It is meant for package-level
// mapper definitions whose configuration is known to be valid.
func MustNew[T any](cfg Config[T]) *Typed[T] {
	m, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return m
}

func assert[T any](v any) (T, bool) {
	t, ok := v.(T)
	return t, ok
}

// Name returns the mapper name.
func (m *Typed[T]) Name() string {
	return m.name
}

// KeyMatches reports whether key passes the key filter.
func (m *Typed[T]) KeyMatches(key string) bool {
	return m.filter.MatchString(key)
}

// Mappable reports whether value is of type T and satisfies Up or Down.
func (m *Typed[T]) Mappable(value any) bool {
	t, ok := m.convert(value)
	if !ok {
		return false
	}
	return m.up(t) || m.down(t)
}

// Up evaluates the up predicate.
func (m *Typed[T]) Up(value any) bool {
	t, ok := m.convert(value)
	return ok && m.up(t)
}

// Down evaluates the down predicate.
func (m *Typed[T]) Down(value any) bool {
	t, ok := m.convert(value)
	return ok && m.down(t)
}

// Matches reports whether the mapper can claim the (key, value) pair.
func Matches(m DataMapper, key string, value any) bool {
	return m.KeyMatches(key) && m.Mappable(value)
}

// Ensure Typed implements DataMapper
var _ DataMapper = (*Typed[bool])(nil)
