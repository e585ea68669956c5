package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full service configuration. The YAML file carries planning
// parameters; connection settings come from the environment so deployments
// can keep secrets out of the file.
type Config struct {
	Hub        HubConfig        `yaml:"hub"`
	Solver     SolverConfig     `yaml:"solver"`
	Costs      CostConfig       `yaml:"costs"`
	Directions DirectionsConfig `yaml:"directions"`
	Notify     NotifyConfig     `yaml:"notify"`

	Port        string `yaml:"-"`
	DatabaseURL string `yaml:"-"`
	RedisURL    string `yaml:"-"`
	SeedPath    string `yaml:"-"`
	RateRPS     int    `yaml:"-"`
	RateBurst   int    `yaml:"-"`
}

type HubConfig struct {
	Name string  `yaml:"name"`
	Lat  float64 `yaml:"lat"`
	Lng  float64 `yaml:"lng"`
}

type SolverConfig struct {
	MaxStopsPerRoute int `yaml:"max_stops_per_route"`
	MaxIterations    int `yaml:"max_iterations"`
	TimeBudgetMs     int `yaml:"time_budget_ms"`
}

func (s SolverConfig) TimeBudget() time.Duration {
	return time.Duration(s.TimeBudgetMs) * time.Millisecond
}

type CostConfig struct {
	// FuelRatePerKm maps fuel type to cost per kilometer.
	FuelRatePerKm      map[string]float64 `yaml:"fuel_rate_per_km"`
	WorkingDaysPerYear int                `yaml:"working_days_per_year"`
}

type DirectionsConfig struct {
	// MaxWaypointsPerSegment bounds intermediate stops per rendered segment,
	// matching downstream directions-API waypoint limits.
	MaxWaypointsPerSegment int `yaml:"max_waypoints_per_segment"`
}

type NotifyConfig struct {
	Endpoints   []NotifyEndpoint `yaml:"endpoints"`
	MaxAttempts int              `yaml:"max_attempts"`
}

type NotifyEndpoint struct {
	URL    string `yaml:"url"`
	Secret string `yaml:"secret"`
}

// Default returns a runnable configuration for when no file is supplied.
func Default() Config {
	return Config{
		Hub:    HubConfig{Name: "Waste Management Hub", Lat: 13.7563, Lng: 100.5018},
		Solver: SolverConfig{MaxStopsPerRoute: 0, MaxIterations: 2000, TimeBudgetMs: 300},
		Costs: CostConfig{
			FuelRatePerKm:      map[string]float64{"diesel": 3.2, "gasoline": 3.8},
			WorkingDaysPerYear: 365,
		},
		Directions: DirectionsConfig{MaxWaypointsPerSegment: 23},
		Notify:     NotifyConfig{MaxAttempts: 5},
		Port:       "8080",
	}
}

// Load reads the YAML file at path (optional) and applies environment
// overrides. A missing file is not an error; a malformed file is.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.RedisURL = os.Getenv("REDIS_URL")
	cfg.SeedPath = os.Getenv("SEED_PATH")
	cfg.RateRPS = envInt("RATE_RPS", 0)
	cfg.RateBurst = envInt("RATE_BURST", 0)
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.Hub.Lat < -90 || c.Hub.Lat > 90 || c.Hub.Lng < -180 || c.Hub.Lng > 180 {
		return fmt.Errorf("hub coordinate out of range: (%v, %v)", c.Hub.Lat, c.Hub.Lng)
	}
	for fuel, rate := range c.Costs.FuelRatePerKm {
		if rate < 0 {
			return fmt.Errorf("fuel rate for %s must be >= 0", fuel)
		}
	}
	if c.Costs.WorkingDaysPerYear <= 0 {
		return fmt.Errorf("working_days_per_year must be > 0")
	}
	if c.Directions.MaxWaypointsPerSegment <= 0 {
		return fmt.Errorf("max_waypoints_per_segment must be > 0")
	}
	if c.Solver.TimeBudgetMs < 0 {
		return fmt.Errorf("time_budget_ms must be >= 0")
	}
	if c.Solver.MaxIterations < 0 {
		return fmt.Errorf("max_iterations must be >= 0")
	}
	return nil
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
