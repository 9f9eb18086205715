package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rankwatch.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	// WHAT: A full YAML file round-trips into the Config struct.
	path := writeConfig(t, `
api_key: abc123
database_path: /tmp/rank.db
keywords:
  - Private Crawler Cloud
  - AI-Get
domains:
  - dataget.ai
  - dataget.com
interval_minutes: 30
probe_delay_ms: 250
run_immediately: false
retention_days: 14
search_params:
  google_domain: google.com
  gl: us
  hl: en
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIKey != "abc123" {
		t.Errorf("api_key: got %q", cfg.APIKey)
	}
	if len(cfg.Keywords) != 2 || cfg.Keywords[0] != "Private Crawler Cloud" {
		t.Errorf("keywords: got %v", cfg.Keywords)
	}
	if len(cfg.Domains) != 2 {
		t.Errorf("domains: got %v", cfg.Domains)
	}
	if cfg.Interval() != 30*time.Minute {
		t.Errorf("interval: got %v", cfg.Interval())
	}
	if cfg.ProbeDelay() != 250*time.Millisecond {
		t.Errorf("probe delay: got %v", cfg.ProbeDelay())
	}
	if cfg.Immediate() {
		t.Error("run_immediately: explicit false was overridden")
	}
	if cfg.RetentionDays != 14 {
		t.Errorf("retention_days: got %d", cfg.RetentionDays)
	}
	if cfg.SearchParams["gl"] != "us" {
		t.Errorf("search_params: got %v", cfg.SearchParams)
	}
}

func TestLoadDefaults(t *testing.T) {
	// WHAT: Omitted fields fall back to documented defaults.
	path := writeConfig(t, `
keywords: [k]
domains: [d.com]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DatabasePath != "rankwatch.db" {
		t.Errorf("database_path default: got %q", cfg.DatabasePath)
	}
	if cfg.Interval() != time.Hour {
		t.Errorf("interval default: got %v", cfg.Interval())
	}
	if cfg.ProbeDelay() != time.Second {
		t.Errorf("probe delay default: got %v", cfg.ProbeDelay())
	}
	if !cfg.Immediate() {
		t.Error("run_immediately should default to true")
	}
	if cfg.RetentionDays != 90 {
		t.Errorf("retention default: got %d", cfg.RetentionDays)
	}
}

func TestLoadAPIKeyFromEnv(t *testing.T) {
	// WHAT: Missing api_key falls back to SERPAPI_KEY.
	// WHY: Keys belong in the environment, not committed YAML.
	t.Setenv("SERPAPI_KEY", "env-key")
	path := writeConfig(t, `
keywords: [k]
domains: [d.com]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIKey != "env-key" {
		t.Errorf("api_key: got %q, want env-key", cfg.APIKey)
	}
}

func TestLoadMissingFile(t *testing.T) {
	// WHAT: A missing file is an error, not an empty config.
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	// WHAT: Broken YAML surfaces as a parse error.
	path := writeConfig(t, "keywords: [unclosed")
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}
