package registrar

import (
	"context"
	"errors"

	"github.com/jonwraymond/healthmetrics/cache"
	"github.com/jonwraymond/healthmetrics/health"
	"github.com/jonwraymond/healthmetrics/metrics"
)

// builtinGroups lists the built-in group names in registration order.
var builtinGroups = []string{
	health.GroupHealth,
	health.GroupLive,
	health.GroupReady,
	health.GroupStartup,
	health.GroupWell,
}

// Project returns the aggregate gauge values of members: up is 1 iff every
// member currently resolves to UP through the check cache. A member whose
// invocation fails counts as DOWN. A group without members is UP.
//
// When ctx ends while a member is still loading, Project returns an error
// wrapping cache.ErrWaitAbandoned and no values.
func (r *Registrar) Project(ctx context.Context, members []health.Checker) (up, down float64, err error) {
	st, err := r.aggregate(ctx, members)
	if err != nil {
		return 0, 0, err
	}
	return gaugeValue(st == health.StatusUp), gaugeValue(st == health.StatusDown), nil
}

func (r *Registrar) aggregate(ctx context.Context, members []health.Checker) (health.Status, error) {
	for _, c := range members {
		if c == nil {
			return health.StatusDown, nil
		}
		res, err := r.Fetch(ctx, c)
		if errors.Is(err, cache.ErrWaitAbandoned) {
			return health.StatusDown, err
		}
		if err != nil || !res.IsUp() {
			return health.StatusDown, nil
		}
	}
	return health.StatusUp, nil
}

// GroupNames returns the built-in group names followed by the sorted custom
// groups of groups. A custom name equal to a built-in one is listed once.
func GroupNames(groups *health.Registry) []string {
	names := make([]string, 0, len(builtinGroups))
	names = append(names, builtinGroups...)
	for _, g := range groups.CustomGroups() {
		if !health.IsBuiltinGroup(g) {
			names = append(names, g)
		}
	}
	return names
}

// RegisterGroups registers a status gauge pair for every group name of
// groups. Membership is resolved on every scrape, so checkers registered
// later are part of the aggregate. It returns the number of gauges registered.
func (r *Registrar) RegisterGroups(ctx context.Context, groups *health.Registry) (int, error) {
	var (
		n    int
		errs []error
	)
	for _, name := range GroupNames(groups) {
		registered, err := r.registerPair(r.cfg.StatusMetric, metrics.Tags{r.cfg.GroupTag: name}, r.groupEval(groups, name))
		n += registered
		if err != nil {
			errs = append(errs, err)
		}
	}
	return n, errors.Join(errs...)
}

func (r *Registrar) groupEval(groups *health.Registry, name string) evalFunc {
	return func(ctx context.Context) (bool, bool, error) {
		members, _ := groups.Group(name)
		st, err := r.aggregate(ctx, members)
		if err != nil {
			return false, false, err
		}
		return st == health.StatusUp, st == health.StatusDown, nil
	}
}
