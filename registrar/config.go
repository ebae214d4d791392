package registrar

import (
	"fmt"
	"strings"
	"time"

	"github.com/jonwraymond/healthmetrics/cache"
)

// Default gauge names, tag keys and status labels.
const (
	DefaultStatusMetric = "application_status"
	DefaultCheckMetric  = "application_health_check"
	DefaultGroupTag     = "group"
	DefaultCheckTag     = "check"
	DefaultStatusTag    = "status"
	DefaultUpLabel      = "UP"
	DefaultDownLabel    = "DOWN"
	DefaultKeySeparator = "-"
)

// Config names the gauges and sets the refresh windows of the two caches.
type Config struct {
	// StatusMetric is the gauge name of group aggregates.
	StatusMetric string
	// CheckMetric is the gauge name of checks and their data keys.
	CheckMetric string

	GroupTag  string
	CheckTag  string
	StatusTag string

	UpLabel   string
	DownLabel string

	// KeySeparator joins a check name and a data key in the check tag.
	KeySeparator string

	// CheckTTL is the refresh window of check results. Zero disables caching.
	CheckTTL time.Duration
	// RegistryTTL is the refresh window of scanned registry entries.
	RegistryTTL time.Duration
}

// DefaultConfig returns the gauge names of the metrics contract and 5s
// refresh windows.
func DefaultConfig() Config {
	return Config{
		StatusMetric: DefaultStatusMetric,
		CheckMetric:  DefaultCheckMetric,
		GroupTag:     DefaultGroupTag,
		CheckTag:     DefaultCheckTag,
		StatusTag:    DefaultStatusTag,
		UpLabel:      DefaultUpLabel,
		DownLabel:    DefaultDownLabel,
		KeySeparator: DefaultKeySeparator,
		CheckTTL:     cache.DefaultTTL,
		RegistryTTL:  cache.DefaultTTL,
	}
}

// Validate checks that every name is set and that the status labels and the
// tag keys used together are distinct.
func (c Config) Validate() error {
	required := []struct {
		field string
		value string
	}{
		{"status metric", c.StatusMetric},
		{"check metric", c.CheckMetric},
		{"group tag", c.GroupTag},
		{"check tag", c.CheckTag},
		{"status tag", c.StatusTag},
		{"up label", c.UpLabel},
		{"down label", c.DownLabel},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidConfig, r.field)
		}
	}

	if c.UpLabel == c.DownLabel {
		return fmt.Errorf("%w: up and down labels must differ", ErrInvalidConfig)
	}
	if c.GroupTag == c.StatusTag || c.CheckTag == c.StatusTag {
		return fmt.Errorf("%w: status tag %q collides with another tag", ErrInvalidConfig, c.StatusTag)
	}
	if c.CheckTTL < 0 || c.RegistryTTL < 0 {
		return fmt.Errorf("%w: cache TTL must not be negative", ErrInvalidConfig)
	}
	return nil
}

func (c Config) checkPolicy() cache.Policy {
	return policyFor(c.CheckTTL)
}

func (c Config) registryPolicy() cache.Policy {
	return policyFor(c.RegistryTTL)
}

// policyFor derives a cache policy from a refresh window. A window longer
// than the default maximum raises the maximum.
func policyFor(ttl time.Duration) cache.Policy {
	if ttl <= 0 {
		return cache.NoCachePolicy()
	}
	p := cache.DefaultPolicy()
	p.DefaultTTL = ttl
	if ttl > p.MaxTTL {
		p.MaxTTL = ttl
	}
	return p
}
