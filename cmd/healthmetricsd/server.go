package main

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jonwraymond/healthmetrics/config"
	"github.com/jonwraymond/healthmetrics/metrics"
	"github.com/jonwraymond/healthmetrics/observe"
	"github.com/jonwraymond/healthmetrics/registrar"
)

type server struct {
	logger    observe.Logger
	registrar *registrar.Registrar
	probes    *probeSet
	gatherer  prometheus.Gatherer
	memory    *metrics.MemorySink
}

// newSink builds the sink selected in cfg. The memory sink is also
// returned so its gauges can be served as JSON.
func newSink(cfg config.MetricsConfig, obs observe.Observer, reg prometheus.Registerer) (metrics.Sink, *metrics.MemorySink) {
	onError := metrics.WithErrorHandler(func(name string, tags metrics.Tags, err error) {
		obs.Logger().Warn(context.Background(), "gauge source failed",
			observe.Field{Key: "gauge", Value: name},
			observe.Field{Key: "tags", Value: tags.String()},
			observe.Field{Key: "error", Value: err.Error()},
		)
	})

	switch cfg.Sink {
	case config.SinkOTel:
		return metrics.NewOTelSink(obs.Meter(), onError), nil
	case config.SinkMemory:
		s := metrics.NewMemorySink()
		return s, s
	default:
		return metrics.NewPrometheusSink(reg, onError), nil
	}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	r.Get("/gauges", s.handleGauges)

	r.Post("/health/up", s.handleToggle(true))
	r.Post("/health/down", s.handleToggle(false))
	r.Post("/cache/reset", s.handleCacheReset)

	return r
}

// handleToggle flips the switchable probe. Gauges follow once the cached
// result expires or the caches are reset.
func (s *server) handleToggle(up bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.probes.toggle.Set(up)
		s.logger.Info(r.Context(), "probe toggled",
			observe.Field{Key: "probe", Value: s.probes.toggle.Name()},
			observe.Field{Key: "up", Value: up},
		)
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *server) handleCacheReset(w http.ResponseWriter, r *http.Request) {
	s.registrar.InvalidateCaches()
	w.WriteHeader(http.StatusNoContent)
}

type gaugeValue struct {
	Name  string       `json:"name"`
	Tags  metrics.Tags `json:"tags"`
	Value *float64     `json:"value,omitempty"`
	Error string       `json:"error,omitempty"`
}

func (s *server) handleGauges(w http.ResponseWriter, r *http.Request) {
	if s.memory == nil {
		http.Error(w, "gauges are only listed with the memory sink", http.StatusNotFound)
		return
	}

	bindings := s.memory.Bindings()
	out := make([]gaugeValue, 0, len(bindings))
	for _, b := range bindings {
		gv := gaugeValue{Name: b.Name, Tags: b.Tags}
		v, err := s.memory.Read(r.Context(), b.Name, b.Tags)
		if err != nil {
			gv.Error = err.Error()
		} else {
			gv.Value = &v
		}
		out = append(out, gv)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		s.logger.Warn(r.Context(), "encode gauges", observe.Field{Key: "error", Value: err.Error()})
	}
}
