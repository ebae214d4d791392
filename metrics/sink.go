package metrics

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Sentinel errors for sink operations.
var (
	ErrDuplicateGauge = errors.New("metrics: gauge already registered")
	ErrInvalidGauge   = errors.New("metrics: invalid gauge")
	ErrTagMismatch    = errors.New("metrics: tag keys differ from earlier gauges of the same name")
)

// ValueSource produces the current value of a gauge. It is evaluated on every
// scrape; an error drops the sample for that scrape only.
type ValueSource func(ctx context.Context) (float64, error)

// Tags are the labels of one gauge.
type Tags map[string]string

// Keys returns the tag keys, sorted.
func (t Tags) Keys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String renders the tags as {k1="v1",k2="v2"} with sorted keys. Values are
// Go-quoted, so distinct tag sets render distinctly.
func (t Tags) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range t.Keys() {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(strconv.Quote(t[k]))
	}
	b.WriteByte('}')
	return b.String()
}

// Sink receives gauge bindings. Implementations keep every binding alive and
// re-evaluate its source whenever the backend scrapes.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use; sources may
//   be evaluated from several scrapes at once.
// - Errors: registering the same (name, tags) twice fails with ErrDuplicateGauge.
type Sink interface {
	RegisterGauge(name string, tags Tags, source ValueSource) error
}

// ErrorHandler is told about sources that fail during a scrape.
type ErrorHandler func(name string, tags Tags, err error)

// Option configures a sink.
type Option func(*options)

type options struct {
	onError      ErrorHandler
	descriptions map[string]string
}

// WithErrorHandler sets the handler for failing sources. Default: ignore.
func WithErrorHandler(h ErrorHandler) Option {
	return func(o *options) {
		if h != nil {
			o.onError = h
		}
	}
}

// WithDescription sets the help text of a metric name.
func WithDescription(name, help string) Option {
	return func(o *options) {
		o.descriptions[name] = help
	}
}

func newOptions(opts []Option) options {
	o := options{
		onError:      func(string, Tags, error) {},
		descriptions: make(map[string]string),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) description(name string) string {
	if d, ok := o.descriptions[name]; ok {
		return d
	}
	return "Gauge " + name
}

// tagKeyReserved are the characters Tags.String uses as delimiters.
const tagKeyReserved = "=\",{} \t\r\n"

func validate(name string, tags Tags, source ValueSource) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidGauge)
	}
	if source == nil {
		return fmt.Errorf("%w: %s: value source is required", ErrInvalidGauge, name)
	}
	for k := range tags {
		if strings.TrimSpace(k) == "" {
			return fmt.Errorf("%w: %s: empty tag key", ErrInvalidGauge, name)
		}
		if strings.ContainsAny(k, tagKeyReserved) {
			return fmt.Errorf("%w: %s: tag key %q contains a reserved character", ErrInvalidGauge, name, k)
		}
	}
	return nil
}

func bindingKey(name string, tags Tags) string {
	return name + tags.String()
}

func cloneTags(tags Tags) Tags {
	out := make(Tags, len(tags))
	for k, v := range tags {
		out[k] = v
	}
	return out
}
