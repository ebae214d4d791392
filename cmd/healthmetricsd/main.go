// Command healthmetricsd registers health probes as gauges and serves them
// over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/jonwraymond/healthmetrics/config"
	"github.com/jonwraymond/healthmetrics/observe"
	"github.com/jonwraymond/healthmetrics/registrar"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "healthmetricsd:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	obs, err := observe.NewObserver(ctx, cfg.Observe(promReg))
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout.Duration)
		defer cancel()
		if err := obs.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintln(os.Stderr, "healthmetricsd: observer shutdown:", err)
		}
	}()
	logger := obs.Logger()

	srv, err := newServer(ctx, cfg, obs, promReg)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "listening", observe.Field{Key: "addr", Value: cfg.HTTP.Addr})
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout.Duration)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// newServer builds the probes, the sink and the registrar, and registers
// every gauge.
func newServer(ctx context.Context, cfg config.Config, obs observe.Observer, promReg *prometheus.Registry) (*server, error) {
	logger := obs.Logger()

	probes, err := buildProbes(cfg.Probes, logger)
	if err != nil {
		return nil, err
	}

	mw, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		return nil, err
	}

	sink, memory := newSink(cfg.Metrics, obs, promReg)
	reg, err := registrar.New(cfg.Registrar(), sink, nil,
		registrar.WithLogger(logger),
		registrar.WithMiddleware(mw),
	)
	if err != nil {
		return nil, err
	}

	report, err := reg.RegisterAll(ctx, probes.groups, probes.dynamic)
	if err != nil {
		// Gauges registered before the failure stay live.
		logger.Error(ctx, "gauge registration incomplete", observe.Field{Key: "error", Value: err.Error()})
	}
	logger.Info(ctx, "gauges registered",
		observe.Field{Key: "sink", Value: cfg.Metrics.Sink},
		observe.Field{Key: "total", Value: report.Total()},
	)

	return &server{
		logger:    logger,
		registrar: reg,
		probes:    probes,
		gatherer:  promReg,
		memory:    memory,
	}, nil
}
