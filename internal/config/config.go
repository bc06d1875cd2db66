// Package config provides configuration loading for pillard.
//
// Configuration comes from a YAML file overridden by environment
// variables, with hardcoded defaults underneath.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/fyrsmithlabs/pillard/internal/predict"
)

// Config holds the complete pillard configuration.
type Config struct {
	Server        ServerConfig        `koanf:"server"`
	Observability ObservabilityConfig `koanf:"observability"`
	Log           LogConfig           `koanf:"log"`
	Store         StoreConfig         `koanf:"store"`
	Analysis      AnalysisConfig      `koanf:"analysis"`
	Scheduler     SchedulerConfig     `koanf:"scheduler"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            int           `koanf:"http_port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// GenerateRPS and GenerateBurst rate-limit the expensive generate
	// endpoints per instance.
	GenerateRPS   float64 `koanf:"generate_rps"`
	GenerateBurst int     `koanf:"generate_burst"`
}

// ObservabilityConfig holds OpenTelemetry configuration.
type ObservabilityConfig struct {
	EnableTelemetry bool   `koanf:"enable_telemetry"`
	ServiceName     string `koanf:"service_name"`
	OTLPEndpoint    string `koanf:"otlp_endpoint"`
}

// LogConfig holds logger configuration.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// StoreConfig holds SQLite configuration.
type StoreConfig struct {
	Path string `koanf:"path"`
}

// AnalysisConfig holds the engine tuning knobs.
type AnalysisConfig struct {
	// CorrelationWindowDays is the trailing window correlation analysis
	// joins series over.
	CorrelationWindowDays int `koanf:"correlation_window_days"`

	// MinSampleSize is the minimum shared days a pair needs.
	MinSampleSize int `koanf:"min_sample_size"`

	// Concurrency bounds the analysis fan-out. <= 0 means NumCPU.
	Concurrency int `koanf:"concurrency"`

	// Goals are the tracked goal series for goal_achievement predictions.
	Goals []predict.GoalSpec `koanf:"goals"`
}

// SchedulerConfig holds the periodic analysis schedule.
type SchedulerConfig struct {
	Enabled bool `koanf:"enabled"`

	// DailySpec and WeeklySpec are cron expressions for the daily run and
	// the weekly review compilation.
	DailySpec  string `koanf:"daily_spec"`
	WeeklySpec string `koanf:"weekly_spec"`
}

// Default returns the hardcoded default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            9180,
			ShutdownTimeout: 10 * time.Second,
			GenerateRPS:     1,
			GenerateBurst:   3,
		},
		Observability: ObservabilityConfig{
			EnableTelemetry: true,
			ServiceName:     "pillard",
			OTLPEndpoint:    "localhost:4317",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Store: StoreConfig{
			Path: "pillard.db",
		},
		Analysis: AnalysisConfig{
			CorrelationWindowDays: 90,
			MinSampleSize:         10,
		},
		Scheduler: SchedulerConfig{
			Enabled:    true,
			DailySpec:  "0 6 * * *",
			WeeklySpec: "0 7 * * 1",
		},
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}
	if c.Server.GenerateRPS <= 0 {
		return errors.New("generate rate limit must be positive")
	}
	if c.Observability.EnableTelemetry && c.Observability.ServiceName == "" {
		return errors.New("service name required when telemetry is enabled")
	}
	if c.Store.Path == "" {
		return errors.New("store path is required")
	}
	if c.Analysis.CorrelationWindowDays < 1 {
		return errors.New("correlation window must be at least one day")
	}
	if c.Analysis.MinSampleSize < 2 {
		return errors.New("minimum sample size must be at least 2")
	}
	for i, g := range c.Analysis.Goals {
		if g.Metric.Metric == "" || !g.Metric.Pillar.Valid() {
			return fmt.Errorf("goal %d: invalid metric %q", i, g.Metric)
		}
		if g.TargetDate.IsZero() {
			return fmt.Errorf("goal %d: target date is required", i)
		}
	}
	if c.Scheduler.Enabled {
		if c.Scheduler.DailySpec == "" || c.Scheduler.WeeklySpec == "" {
			return errors.New("scheduler cron specs are required when enabled")
		}
	}
	return nil
}
