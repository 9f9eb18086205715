// Package config loads the rankwatch YAML configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level rankwatch configuration.
type Config struct {
	// APIKey authenticates against the SERP provider. Falls back to the
	// SERPAPI_KEY environment variable when empty.
	APIKey string `yaml:"api_key"`

	// DatabasePath is the SQLite file holding ranking observations.
	DatabasePath string `yaml:"database_path"`

	// Keywords to monitor and domains to track, checked as a full matrix.
	Keywords []string `yaml:"keywords"`
	Domains  []string `yaml:"domains"`

	// IntervalMinutes is the pause between monitoring cycles.
	IntervalMinutes int `yaml:"interval_minutes"`

	// ProbeDelayMs is the courtesy delay between consecutive probes
	// within a cycle.
	ProbeDelayMs int64 `yaml:"probe_delay_ms"`

	// RunImmediately runs the first cycle at startup instead of waiting
	// a full interval. Defaults to true.
	RunImmediately *bool `yaml:"run_immediately"`

	// RetentionDays is the horizon for purging old observations.
	RetentionDays int `yaml:"retention_days"`

	// SearchParams are provider search parameters merged over the
	// monitor defaults (engine, google_domain, gl, hl, location, ...).
	SearchParams map[string]string `yaml:"search_params"`
}

func (c *Config) defaults() {
	if c.APIKey == "" {
		c.APIKey = os.Getenv("SERPAPI_KEY")
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "rankwatch.db"
	}
	if c.IntervalMinutes <= 0 {
		c.IntervalMinutes = 60
	}
	if c.ProbeDelayMs <= 0 {
		c.ProbeDelayMs = 1000
	}
	if c.RunImmediately == nil {
		v := true
		c.RunImmediately = &v
	}
	if c.RetentionDays <= 0 {
		c.RetentionDays = 90
	}
}

// Interval returns the cycle interval as a duration.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.IntervalMinutes) * time.Minute
}

// ProbeDelay returns the inter-probe courtesy delay as a duration.
func (c *Config) ProbeDelay() time.Duration {
	return time.Duration(c.ProbeDelayMs) * time.Millisecond
}

// Immediate reports whether the first cycle runs at startup.
func (c *Config) Immediate() bool {
	return c.RunImmediately == nil || *c.RunImmediately
}

// Load reads a YAML configuration file and applies defaults. Keyword and
// domain validation happens in monitor.Configure, before any probing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.defaults()
	return &cfg, nil
}
