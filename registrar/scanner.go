package registrar

import (
	"context"

	"github.com/jonwraymond/healthmetrics/cache"
	"github.com/jonwraymond/healthmetrics/health"
	"github.com/jonwraymond/healthmetrics/observe"
)

// Scan flattens the dynamic registries of sets into one checker per
// registry, in set order then liveness, readiness, startup, wellness. Each
// checker is named after its registry and reports UP iff every check of the
// registry is UP; its data maps each check name to that check's status.
// Nil registries, registries whose name was already seen and names that
// cannot key a cached result are skipped.
func (r *Registrar) Scan(sets ...health.RegistrySet) []health.Checker {
	var entries []health.Checker
	seen := make(map[string]struct{})

	for _, set := range sets {
		if set == nil {
			continue
		}
		for _, reg := range []health.DynamicRegistry{set.Liveness(), set.Readiness(), set.Startup(), set.Wellness()} {
			if reg == nil {
				continue
			}
			if _, dup := seen[reg.Name()]; dup {
				continue
			}
			if err := cache.ValidateKey(reg.Name()); err != nil {
				r.logger.Warn(context.Background(), "registry skipped",
					observe.Field{Key: "registry", Value: reg.Name()},
					observe.Field{Key: "error", Value: err.Error()},
				)
				continue
			}
			seen[reg.Name()] = struct{}{}
			entries = append(entries, &registryEntry{registrar: r, registry: reg})
		}
	}
	return entries
}

// registryEntry presents a dynamic registry as a single checker.
type registryEntry struct {
	registrar *Registrar
	registry  health.DynamicRegistry
}

func (e *registryEntry) Name() string {
	return e.registry.Name()
}

// Check fetches every current check through the check cache. A failing
// check contributes DOWN and does not fail the entry.
func (e *registryEntry) Check(ctx context.Context) (health.Result, error) {
	checks := e.registry.Checks()
	data := make(map[string]any, len(checks))
	status := health.StatusUp

	for _, c := range checks {
		if c == nil {
			continue
		}
		st := health.StatusDown
		res, err := e.registrar.Fetch(ctx, c)
		if err != nil {
			e.registrar.logger.WithProbe(c.Name()).Warn(ctx, "registry check failed",
				observe.Field{Key: "registry", Value: e.Name()},
				observe.Field{Key: "error", Value: err.Error()},
			)
		} else {
			st = res.Status
		}
		if st != health.StatusUp {
			status = health.StatusDown
		}
		data[c.Name()] = st
	}

	return health.Result{Name: e.Name(), Status: status, Data: data}, nil
}

// fetchEntry memoizes registry entries in the registry cache.
func (r *Registrar) fetchEntry(ctx context.Context, entry health.Checker) (health.Result, error) {
	return r.registries.Fetch(ctx, entry.Name(), entry.Check)
}

var _ health.Checker = (*registryEntry)(nil)
