// Package config loads service configuration from an optional YAML file with
// environment overrides for deployment-specific settings.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"fieldroute/internal/model"
)

type Config struct {
	Addr        string          `yaml:"addr"`
	DatabaseURL string          `yaml:"databaseUrl"`
	RedisURL    string          `yaml:"redisUrl"`
	Solver      SolverConfig    `yaml:"solver"`
	Monitor     MonitorConfig   `yaml:"monitor"`
	RateLimit   RateLimitConfig `yaml:"rateLimit"`
}

// SolverConfig are the per-deployment solve defaults; request options
// override them per call.
type SolverConfig struct {
	Penalty       int64  `yaml:"penalty"`
	TimeLimitMs   int    `yaml:"timeLimitMs"`
	FirstSolution string `yaml:"firstSolution"`
	Metaheuristic string `yaml:"metaheuristic"`
	Metric        string `yaml:"metric"`
}

type MonitorConfig struct {
	Enabled       bool    `yaml:"enabled"`
	IntervalSec   int     `yaml:"intervalSec"`
	CPUPercentMax float64 `yaml:"cpuPercentMax"`
	RSSMaxMB      int64   `yaml:"rssMaxMb"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

func Default() Config {
	return Config{
		Addr: ":8080",
		Solver: SolverConfig{
			Penalty:       model.DefaultPenalty,
			TimeLimitMs:   model.DefaultTimeLimitMs,
			FirstSolution: model.FirstSolutionCheapestArc,
			Metaheuristic: model.MetaGuidedLocalSearch,
			Metric:        model.MetricHaversine,
		},
		Monitor:   MonitorConfig{Enabled: true, IntervalSec: 10},
		RateLimit: RateLimitConfig{RPS: 5, Burst: 10},
	}
}

// Load reads the YAML file at path (skipped when empty) over the defaults,
// then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		c.Addr = ":" + v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.RedisURL = v
	}
}

// SolveDefaults returns the configured defaults as solve options.
func (c Config) SolveDefaults() model.SolveOptions {
	penalty := c.Solver.Penalty
	o := model.SolveOptions{
		Penalty:       &penalty,
		TimeLimitMs:   c.Solver.TimeLimitMs,
		FirstSolution: c.Solver.FirstSolution,
		Metaheuristic: c.Solver.Metaheuristic,
		Metric:        c.Solver.Metric,
	}
	o.Normalize()
	return o
}
