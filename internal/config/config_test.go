package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Solver.TimeBudget() != 300*time.Millisecond {
		t.Fatalf("time budget = %v", cfg.Solver.TimeBudget())
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Directions.MaxWaypointsPerSegment != 23 {
		t.Fatalf("waypoints = %d", cfg.Directions.MaxWaypointsPerSegment)
	}
}

func TestLoadFileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
hub:
  name: North Depot
  lat: 13.9
  lng: 100.6
solver:
  max_stops_per_route: 12
  time_budget_ms: 500
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Hub.Name != "North Depot" || cfg.Solver.MaxStopsPerRoute != 12 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	// Untouched sections keep defaults.
	if cfg.Costs.FuelRatePerKm["diesel"] != 3.2 {
		t.Fatalf("diesel rate = %v", cfg.Costs.FuelRatePerKm["diesel"])
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("RATE_RPS", "50")
	t.Setenv("RATE_BURST", "not-a-number")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9090" || cfg.RateRPS != 50 {
		t.Fatalf("env overrides not applied: port=%s rps=%d", cfg.Port, cfg.RateRPS)
	}
	if cfg.RateBurst != 0 {
		t.Fatalf("malformed int should fall back, got %d", cfg.RateBurst)
	}
}

func TestLoadRejectsBadHub(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("hub:\n  lat: 95\n  lng: 100\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected validation error")
	}
}
