package registrar

import (
	"context"
	"errors"
	"time"

	"github.com/jonwraymond/healthmetrics/cache"
	"github.com/jonwraymond/healthmetrics/health"
	"github.com/jonwraymond/healthmetrics/mapper"
	"github.com/jonwraymond/healthmetrics/metrics"
	"github.com/jonwraymond/healthmetrics/observe"
)

// Middleware wraps every real probe invocation, i.e. every cache miss.
type Middleware interface {
	WrapProbe(checker health.Checker) health.Checker
}

// Report counts the gauges registered by one run, per category. Each
// projected group, check, data key or registry contributes two gauges.
type Report struct {
	Groups     int
	Checks     int
	Data       int
	Registries int
}

// Total returns the number of gauges registered.
func (r Report) Total() int {
	return r.Groups + r.Checks + r.Data + r.Registries
}

// Registrar binds health checks to gauges on a metrics sink.
//
// Contract:
//   - Concurrency: value sources it registers are safe for concurrent scrapes.
//     Registration itself is a sequential pass; do not call RegisterAll
//     concurrently on the same Registrar.
//   - Caching: a check is invoked at most once per CheckTTL however many
//     gauges and scrapes read it; a scanned registry entry at most once per
//     RegistryTTL.
//   - Errors: invocation failures are never cached.
type Registrar struct {
	cfg        Config
	sink       metrics.Sink
	mappers    *mapper.Registry
	logger     observe.Logger
	middleware Middleware

	checks     *cache.ResultCache[health.Result]
	registries *cache.ResultCache[health.Result]
}

// Option configures a Registrar.
type Option func(*settings)

type settings struct {
	logger     observe.Logger
	middleware Middleware
	clock      func() time.Time
}

// WithLogger sets the logger. Default: discard.
func WithLogger(l observe.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMiddleware wraps every probe invocation.
func WithMiddleware(m Middleware) Option {
	return func(s *settings) {
		s.middleware = m
	}
}

// WithClock replaces time.Now in both caches, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		s.clock = now
	}
}

// New creates a Registrar. A nil mapper registry means mapper.DefaultRegistry().
func New(cfg Config, sink metrics.Sink, mappers *mapper.Registry, opts ...Option) (*Registrar, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sink == nil {
		return nil, ErrNilSink
	}
	if mappers == nil {
		mappers = mapper.DefaultRegistry()
	}

	s := settings{logger: observe.NopLogger()}
	for _, opt := range opts {
		opt(&s)
	}

	var cacheOpts []cache.Option
	if s.clock != nil {
		cacheOpts = append(cacheOpts, cache.WithClock(s.clock))
	}

	return &Registrar{
		cfg:        cfg,
		sink:       sink,
		mappers:    mappers,
		logger:     s.logger,
		middleware: s.middleware,
		checks:     cache.NewResultCache[health.Result](cfg.checkPolicy(), cacheOpts...),
		registries: cache.NewResultCache[health.Result](cfg.registryPolicy(), cacheOpts...),
	}, nil
}

// Config returns the registrar configuration.
func (r *Registrar) Config() Config {
	return r.cfg
}

// RegisterAll registers group aggregates and checks of groups, then one
// entry per dynamic registry found in sets. groups may be nil. Failures do
// not stop the run; they are joined into the returned error.
func (r *Registrar) RegisterAll(ctx context.Context, groups *health.Registry, sets ...health.RegistrySet) (Report, error) {
	var (
		report Report
		errs   []error
	)

	if groups != nil {
		n, err := r.RegisterGroups(ctx, groups)
		report.Groups = n
		if err != nil {
			errs = append(errs, err)
		}

		checks, data, err := r.RegisterChecks(ctx, groups.Checkers())
		report.Checks, report.Data = checks, data
		if err != nil {
			errs = append(errs, err)
		}
	}

	if len(sets) > 0 {
		entries, data, err := r.registerEntries(ctx, r.Scan(sets...), r.fetchEntry)
		report.Registries = entries
		report.Data += data
		if err != nil {
			errs = append(errs, err)
		}
	}

	r.logger.Info(ctx, "health gauges registered",
		observe.Field{Key: "groups", Value: report.Groups},
		observe.Field{Key: "checks", Value: report.Checks},
		observe.Field{Key: "data", Value: report.Data},
		observe.Field{Key: "registries", Value: report.Registries},
	)

	return report, errors.Join(errs...)
}

// InvalidateCaches drops every cached check result and registry entry, so
// the next scrape invokes the probes again.
func (r *Registrar) InvalidateCaches() {
	r.checks.InvalidateAll()
	r.registries.InvalidateAll()
}

// Fetch returns the result of checker through the check cache.
func (r *Registrar) Fetch(ctx context.Context, checker health.Checker) (health.Result, error) {
	return r.checks.Fetch(ctx, checker.Name(), func(ctx context.Context) (health.Result, error) {
		return r.invoke(ctx, checker)
	})
}

// CacheStats returns the activity counters of the check and registry caches.
func (r *Registrar) CacheStats() (checks, registries cache.Stats) {
	return r.checks.Stats(), r.registries.Stats()
}

func (r *Registrar) invoke(ctx context.Context, checker health.Checker) (health.Result, error) {
	if r.middleware != nil {
		checker = r.middleware.WrapProbe(checker)
	}
	res, err := checker.Check(ctx)
	if err != nil {
		return health.Result{}, err
	}
	if res.Name == "" {
		res.Name = checker.Name()
	}
	return res, nil
}

// fetchFunc resolves the current result of a registered checker.
type fetchFunc func(ctx context.Context, checker health.Checker) (health.Result, error)
