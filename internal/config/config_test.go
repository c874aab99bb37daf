package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(dataDirEnv, "")

	cfg := Load()

	if cfg.HTTP.Attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", cfg.HTTP.Attempts)
	}
	if cfg.Feeds.MarketTrackerURL == "" || cfg.Feeds.HomeValueURL == "" {
		t.Fatal("feed URLs must have defaults")
	}
	if got := cfg.Paths.MappingPath(); got != filepath.Join("public", "data", "zcta-meta.csv") {
		t.Fatalf("unexpected mapping path: %s", got)
	}
	if cfg.Scheduler.Enabled {
		t.Fatal("scheduler must default to one-shot mode")
	}
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "paths:\n  dataDir: /srv/market\nhttp:\n  attempts: 5\noutput:\n  compress: true\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(configPathEnv, path)
	t.Setenv(homeValueURLEnv, "http://localhost:9999/zhvi.csv")

	cfg := Load()

	if cfg.Paths.DataDir != "/srv/market" {
		t.Fatalf("file override lost: %s", cfg.Paths.DataDir)
	}
	if cfg.HTTP.Attempts != 5 {
		t.Fatalf("expected 5 attempts, got %d", cfg.HTTP.Attempts)
	}
	if !cfg.Output.Compress {
		t.Fatal("compress override lost")
	}
	if cfg.Feeds.HomeValueURL != "http://localhost:9999/zhvi.csv" {
		t.Fatalf("env override lost: %s", cfg.Feeds.HomeValueURL)
	}
	// Untouched settings keep their defaults.
	if cfg.Feeds.MarketTrackerURL == "" {
		t.Fatal("market tracker URL default lost")
	}
}
