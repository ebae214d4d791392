package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jonwraymond/healthmetrics/observe"
	"github.com/jonwraymond/healthmetrics/registrar"
)

// Sink names accepted in [metrics].sink.
const (
	SinkPrometheus = "prometheus"
	SinkOTel       = "otel"
	SinkMemory     = "memory"
)

// Duration is a time.Duration decoded from a string such as "5s".
type Duration struct {
	time.Duration
}

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("config: duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// MarshalText renders the duration as a Go duration string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config is the daemon configuration.
type Config struct {
	Service ServiceConfig `toml:"service"`
	Metrics MetricsConfig `toml:"metrics"`
	Logging LoggingConfig `toml:"logging"`
	Tracing TracingConfig `toml:"tracing"`
	Cache   CacheConfig   `toml:"cache"`
	HTTP    HTTPConfig    `toml:"http"`
	Probes  ProbesConfig  `toml:"probes"`
}

// ServiceConfig identifies the daemon in telemetry.
type ServiceConfig struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// MetricsConfig selects the gauge sink and names the gauges.
type MetricsConfig struct {
	// Sink is prometheus, otel or memory.
	Sink string `toml:"sink"`
	// Exporter is the OTel metrics exporter used by the otel sink and the
	// probe instrumentation.
	Exporter string `toml:"exporter"`

	StatusMetric string `toml:"status_metric"`
	CheckMetric  string `toml:"check_metric"`
	GroupTag     string `toml:"group_tag"`
	CheckTag     string `toml:"check_tag"`
	StatusTag    string `toml:"status_tag"`
	UpLabel      string `toml:"up_label"`
	DownLabel    string `toml:"down_label"`
	KeySeparator string `toml:"key_separator"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level      string `toml:"level"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`
}

// TracingConfig configures probe invocation spans.
type TracingConfig struct {
	Enabled   bool    `toml:"enabled"`
	Exporter  string  `toml:"exporter"`
	SamplePct float64 `toml:"sample_pct"`
}

// CacheConfig sets the refresh windows. A zero window disables caching.
type CacheConfig struct {
	CheckTTL    Duration `toml:"check_ttl"`
	RegistryTTL Duration `toml:"registry_ttl"`
}

// HTTPConfig configures the daemon listener.
type HTTPConfig struct {
	Addr            string   `toml:"addr"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
}

// ProbesConfig configures the guards around the built-in probes.
type ProbesConfig struct {
	Timeout         Duration `toml:"timeout"`
	BreakerFailures int      `toml:"breaker_failures"`
	BreakerReset    Duration `toml:"breaker_reset"`

	// MemoryCritical is the heap usage ratio at which the memory probe
	// reports DOWN.
	MemoryCritical float64 `toml:"memory_critical"`
}

// Default returns the configuration used for keys a file leaves out.
func Default() Config {
	rc := registrar.DefaultConfig()
	return Config{
		Service: ServiceConfig{Name: "healthmetricsd"},
		Metrics: MetricsConfig{
			Sink:         SinkPrometheus,
			Exporter:     "prometheus",
			StatusMetric: rc.StatusMetric,
			CheckMetric:  rc.CheckMetric,
			GroupTag:     rc.GroupTag,
			CheckTag:     rc.CheckTag,
			StatusTag:    rc.StatusTag,
			UpLabel:      rc.UpLabel,
			DownLabel:    rc.DownLabel,
			KeySeparator: rc.KeySeparator,
		},
		Logging: LoggingConfig{Level: "info"},
		Tracing: TracingConfig{Exporter: "none", SamplePct: 1},
		Cache: CacheConfig{
			CheckTTL:    Duration{rc.CheckTTL},
			RegistryTTL: Duration{rc.RegistryTTL},
		},
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ShutdownTimeout: Duration{10 * time.Second},
		},
		Probes: ProbesConfig{
			Timeout:         Duration{2 * time.Second},
			BreakerFailures: 3,
			BreakerReset:    Duration{30 * time.Second},
			MemoryCritical:  0.95,
		},
	}
}

// Load reads, expands and decodes the file at path on top of Default.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(string(raw))
}

// Parse expands and decodes a TOML document on top of Default. Unknown
// keys are rejected.
func Parse(doc string) (Config, error) {
	expanded, err := ExpandEnv(doc)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()
	md, err := toml.Decode(expanded, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%w: unknown key %q", ErrInvalidConfig, undecoded[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the daemon settings and the derived registrar and
// observer settings.
func (c Config) Validate() error {
	switch c.Metrics.Sink {
	case SinkPrometheus, SinkOTel, SinkMemory:
	default:
		return fmt.Errorf("%w: unknown sink %q", ErrInvalidConfig, c.Metrics.Sink)
	}
	if c.HTTP.Addr == "" {
		return fmt.Errorf("%w: http.addr is required", ErrInvalidConfig)
	}
	for name, d := range map[string]Duration{
		"http.shutdown_timeout": c.HTTP.ShutdownTimeout,
		"probes.timeout":        c.Probes.Timeout,
		"probes.breaker_reset":  c.Probes.BreakerReset,
	} {
		if d.Duration < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalidConfig, name)
		}
	}
	if c.Probes.BreakerFailures < 0 {
		return fmt.Errorf("%w: probes.breaker_failures must not be negative", ErrInvalidConfig)
	}

	if err := c.Registrar().Validate(); err != nil {
		return err
	}
	oc := c.Observe(nil)
	if err := oc.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Registrar returns the registrar settings.
func (c Config) Registrar() registrar.Config {
	return registrar.Config{
		StatusMetric: c.Metrics.StatusMetric,
		CheckMetric:  c.Metrics.CheckMetric,
		GroupTag:     c.Metrics.GroupTag,
		CheckTag:     c.Metrics.CheckTag,
		StatusTag:    c.Metrics.StatusTag,
		UpLabel:      c.Metrics.UpLabel,
		DownLabel:    c.Metrics.DownLabel,
		KeySeparator: c.Metrics.KeySeparator,
		CheckTTL:     c.Cache.CheckTTL.Duration,
		RegistryTTL:  c.Cache.RegistryTTL.Duration,
	}
}

// Observe returns the observer settings. reg receives the prometheus
// exporter; nil means the default registerer.
func (c Config) Observe(reg prometheus.Registerer) observe.Config {
	return observe.Config{
		ServiceName: c.Service.Name,
		Version:     c.Service.Version,
		Tracing: observe.TracingConfig{
			Enabled:   c.Tracing.Enabled,
			Exporter:  c.Tracing.Exporter,
			SamplePct: c.Tracing.SamplePct,
		},
		Metrics: observe.MetricsConfig{
			Enabled:    true,
			Exporter:   c.Metrics.Exporter,
			Registerer: reg,
		},
		Logging: observe.LoggingConfig{
			Enabled:    true,
			Level:      c.Logging.Level,
			File:       c.Logging.File,
			MaxSizeMB:  c.Logging.MaxSizeMB,
			MaxBackups: c.Logging.MaxBackups,
			MaxAgeDays: c.Logging.MaxAgeDays,
			Compress:   c.Logging.Compress,
		},
	}
}
