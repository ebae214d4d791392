package registrar

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jonwraymond/healthmetrics/cache"
	"github.com/jonwraymond/healthmetrics/health"
	"github.com/jonwraymond/healthmetrics/mapper"
	"github.com/jonwraymond/healthmetrics/metrics"
	"github.com/jonwraymond/healthmetrics/observe"
)

// evalFunc reports the current up and down signals behind a gauge pair.
type evalFunc func(ctx context.Context) (up, down bool, err error)

// RegisterChecks registers, for every checker, a status gauge pair tagged
// with the checker name and one gauge pair per data key claimed by a mapper.
// It returns the number of check gauges and of data gauges registered.
//
// The data keys are read from a result fetched during registration. When
// that fetch fails, only the check gauges are registered for the checker.
func (r *Registrar) RegisterChecks(ctx context.Context, checkers []health.Checker) (checks, data int, err error) {
	return r.registerEntries(ctx, checkers, r.Fetch)
}

func (r *Registrar) registerEntries(ctx context.Context, checkers []health.Checker, fetch fetchFunc) (checks, data int, err error) {
	var errs []error
	seen := make(map[string]struct{}, len(checkers))

	for _, c := range checkers {
		if c == nil {
			continue
		}
		name := c.Name()
		if _, dup := seen[name]; dup {
			r.logger.Debug(ctx, "check already registered in this run", observe.Field{Key: "check", Value: name})
			continue
		}
		seen[name] = struct{}{}

		n, err := r.registerPair(r.cfg.CheckMetric, metrics.Tags{r.cfg.CheckTag: name}, statusEval(c, fetch))
		checks += n
		if err != nil {
			errs = append(errs, err)
		}

		res, err := fetch(ctx, c)
		if err != nil {
			r.logger.WithProbe(name).Warn(ctx, "probe failed during registration, data gauges skipped",
				observe.Field{Key: "error", Value: err.Error()})
			continue
		}

		n, err = r.registerData(ctx, c, res, fetch)
		data += n
		if err != nil {
			errs = append(errs, err)
		}
	}

	return checks, data, errors.Join(errs...)
}

// registerData walks the mappers in order and offers each still unclaimed
// data key, in sorted key order, to the current mapper.
func (r *Registrar) registerData(ctx context.Context, c health.Checker, res health.Result, fetch fetchFunc) (int, error) {
	if len(res.Data) == 0 {
		return 0, nil
	}

	keys := make([]string, 0, len(res.Data))
	for k := range res.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var (
		n    int
		errs []error
	)
	pass := r.mappers.NewPass()
	for _, m := range r.mappers.Mappers() {
		for _, key := range keys {
			if !pass.Offer(m, key, res.Data[key]) {
				continue
			}
			tag := c.Name() + r.cfg.KeySeparator + key
			registered, err := r.registerPair(r.cfg.CheckMetric, metrics.Tags{r.cfg.CheckTag: tag}, dataEval(c, key, m, fetch))
			n += registered
			if err != nil {
				errs = append(errs, err)
			}
		}
	}

	logger := r.logger.WithProbe(c.Name())
	for _, key := range keys {
		if pass.Unmapped(key) {
			logger.Debug(ctx, "no mapper for data key", observe.Field{Key: "key", Value: key})
		}
	}

	return n, errors.Join(errs...)
}

// registerPair registers the UP and DOWN gauges of one subject.
func (r *Registrar) registerPair(name string, tags metrics.Tags, eval evalFunc) (int, error) {
	sides := []struct {
		label string
		up    bool
	}{
		{r.cfg.UpLabel, true},
		{r.cfg.DownLabel, false},
	}

	var (
		n    int
		errs []error
	)
	for _, side := range sides {
		t := make(metrics.Tags, len(tags)+1)
		for k, v := range tags {
			t[k] = v
		}
		t[r.cfg.StatusTag] = side.label

		if err := r.sink.RegisterGauge(name, t, gaugeSource(eval, side.up)); err != nil {
			errs = append(errs, fmt.Errorf("registrar: gauge %s%s: %w", name, t, err))
			continue
		}
		n++
	}
	return n, errors.Join(errs...)
}

func gaugeSource(eval evalFunc, up bool) metrics.ValueSource {
	return func(ctx context.Context) (float64, error) {
		u, d, err := eval(ctx)
		if err != nil {
			return 0, err
		}
		if up {
			return gaugeValue(u), nil
		}
		return gaugeValue(d), nil
	}
}

func gaugeValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// statusEval reads a failed invocation as DOWN. An abandoned wait is not
// an outcome of the check, so that read fails instead.
func statusEval(c health.Checker, fetch fetchFunc) evalFunc {
	return func(ctx context.Context) (bool, bool, error) {
		res, err := fetch(ctx, c)
		if errors.Is(err, cache.ErrWaitAbandoned) {
			return false, false, err
		}
		if err != nil {
			return false, true, nil
		}
		return res.IsUp(), !res.IsUp(), nil
	}
}

// dataEval re-reads key from a fresh fetch on every scrape. A key missing
// from the latest result reads 0 on both gauges.
func dataEval(c health.Checker, key string, m mapper.DataMapper, fetch fetchFunc) evalFunc {
	return func(ctx context.Context) (bool, bool, error) {
		res, err := fetch(ctx, c)
		if err != nil {
			return false, false, err
		}
		v, ok := res.Data[key]
		if !ok {
			return false, false, nil
		}
		return m.Up(v), m.Down(v), nil
	}
}
