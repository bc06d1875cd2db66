package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/pillard/internal/metrics"
	"github.com/fyrsmithlabs/pillard/internal/predict"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 9180, cfg.Server.Port)
	assert.Equal(t, "pillard", cfg.Observability.ServiceName)
	assert.Equal(t, 90, cfg.Analysis.CorrelationWindowDays)
	assert.True(t, cfg.Scheduler.Enabled)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "port too low",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "invalid server port",
		},
		{
			name:    "port too high",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "invalid server port",
		},
		{
			name:    "zero shutdown timeout",
			mutate:  func(c *Config) { c.Server.ShutdownTimeout = 0 },
			wantErr: "shutdown timeout must be positive",
		},
		{
			name:    "zero rate limit",
			mutate:  func(c *Config) { c.Server.GenerateRPS = 0 },
			wantErr: "generate rate limit must be positive",
		},
		{
			name: "telemetry without service name",
			mutate: func(c *Config) {
				c.Observability.EnableTelemetry = true
				c.Observability.ServiceName = ""
			},
			wantErr: "service name required",
		},
		{
			name:    "empty store path",
			mutate:  func(c *Config) { c.Store.Path = "" },
			wantErr: "store path is required",
		},
		{
			name:    "zero correlation window",
			mutate:  func(c *Config) { c.Analysis.CorrelationWindowDays = 0 },
			wantErr: "correlation window",
		},
		{
			name:    "sample size too small",
			mutate:  func(c *Config) { c.Analysis.MinSampleSize = 1 },
			wantErr: "minimum sample size",
		},
		{
			name: "goal without metric",
			mutate: func(c *Config) {
				c.Analysis.Goals = []predict.GoalSpec{{
					Target:     30,
					TargetDate: time.Now().AddDate(0, 1, 0),
				}}
			},
			wantErr: "invalid metric",
		},
		{
			name: "goal without target date",
			mutate: func(c *Config) {
				c.Analysis.Goals = []predict.GoalSpec{{
					Metric: metrics.Key{Pillar: metrics.PillarFinancial, Metric: "savings_rate"},
					Target: 30,
				}}
			},
			wantErr: "target date is required",
		},
		{
			name: "scheduler enabled without specs",
			mutate: func(c *Config) {
				c.Scheduler.Enabled = true
				c.Scheduler.DailySpec = ""
			},
			wantErr: "cron specs are required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_GoalOK(t *testing.T) {
	cfg := Default()
	cfg.Analysis.Goals = []predict.GoalSpec{{
		Metric:     metrics.Key{Pillar: metrics.PillarFinancial, Metric: "savings_rate"},
		Target:     30,
		TargetDate: time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
	}}
	assert.NoError(t, cfg.Validate())
}

func TestValidate_SchedulerDisabledSkipsSpecs(t *testing.T) {
	cfg := Default()
	cfg.Scheduler.Enabled = false
	cfg.Scheduler.DailySpec = ""
	cfg.Scheduler.WeeklySpec = ""
	assert.NoError(t, cfg.Validate())
}
