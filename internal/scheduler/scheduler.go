// Package scheduler runs the periodic analysis jobs: a daily full
// pipeline run per user and a weekly review compilation.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fyrsmithlabs/pillard/internal/briefing"
	"github.com/fyrsmithlabs/pillard/internal/insight"
	"github.com/fyrsmithlabs/pillard/internal/intelligence"
)

// UserLister enumerates users with recorded data. Satisfied by the store.
type UserLister interface {
	ListUsers(ctx context.Context) ([]string, error)
}

// Config configures the scheduler.
type Config struct {
	// DailySpec and WeeklySpec are standard cron expressions.
	DailySpec  string
	WeeklySpec string

	// Concurrency bounds how many users are processed at once per job.
	Concurrency int

	// JobTimeout bounds one whole job sweep.
	JobTimeout time.Duration
}

// DefaultConfig returns sensible defaults: daily run at 06:00, weekly
// review on Monday at 07:00.
func DefaultConfig() *Config {
	return &Config{
		DailySpec:   "0 6 * * *",
		WeeklySpec:  "0 7 * * 1",
		Concurrency: 4,
		JobTimeout:  30 * time.Minute,
	}
}

// Scheduler drives periodic analysis across all users.
type Scheduler struct {
	config       *Config
	users        UserLister
	orchestrator *intelligence.Orchestrator
	briefings    *briefing.Compiler
	logger       *zap.Logger
	cron         *cron.Cron
}

// New creates a scheduler. Jobs are registered but not started.
func New(cfg *Config, users UserLister, orchestrator *intelligence.Orchestrator, briefings *briefing.Compiler, logger *zap.Logger) (*Scheduler, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if users == nil {
		return nil, errors.New("user lister is required")
	}
	if orchestrator == nil {
		return nil, errors.New("orchestrator is required")
	}
	if briefings == nil {
		return nil, errors.New("briefing compiler is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Scheduler{
		config:       cfg,
		users:        users,
		orchestrator: orchestrator,
		briefings:    briefings,
		logger:       logger,
		cron:         cron.New(cron.WithLocation(time.UTC)),
	}

	if _, err := s.cron.AddFunc(cfg.DailySpec, s.runDaily); err != nil {
		return nil, fmt.Errorf("invalid daily cron spec %q: %w", cfg.DailySpec, err)
	}
	if _, err := s.cron.AddFunc(cfg.WeeklySpec, s.runWeekly); err != nil {
		return nil, fmt.Errorf("invalid weekly cron spec %q: %w", cfg.WeeklySpec, err)
	}
	return s, nil
}

// Start begins executing scheduled jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started",
		zap.String("daily", s.config.DailySpec),
		zap.String("weekly", s.config.WeeklySpec),
	)
}

// Stop halts scheduling and waits for running jobs, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop().Done()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler jobs did not finish: %w", ctx.Err())
	}
}

func (s *Scheduler) runDaily() {
	s.sweep("daily", func(ctx context.Context, user string) error {
		_, err := s.orchestrator.RunAll(ctx, user, insight.PeriodDaily)
		if errors.Is(err, intelligence.ErrRunInProgress) {
			// A manual run is underway; the next tick covers this user.
			s.logger.Info("skipping scheduled run, user busy", zap.String("user_id", user))
			return nil
		}
		return err
	})
}

func (s *Scheduler) runWeekly() {
	now := time.Now().UTC()
	s.sweep("weekly", func(ctx context.Context, user string) error {
		// Compile the review for the week that just ended.
		_, err := s.briefings.GenerateWeekly(ctx, user, now.AddDate(0, 0, -7))
		return err
	})
}

// sweep runs fn for every known user with bounded concurrency. Per-user
// failures are logged and do not stop the sweep.
func (s *Scheduler) sweep(job string, fn func(ctx context.Context, user string) error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.JobTimeout)
	defer cancel()

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		s.logger.Error("scheduled sweep failed to list users",
			zap.String("job", job), zap.Error(err))
		return
	}

	start := time.Now()
	var failed atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Concurrency)
	for _, user := range users {
		g.Go(func() error {
			if err := fn(ctx, user); err != nil {
				failed.Add(1)
				s.logger.Error("scheduled job failed for user",
					zap.String("job", job),
					zap.String("user_id", user),
					zap.Error(err),
				)
			}
			return nil
		})
	}
	g.Wait()

	s.logger.Info("scheduled sweep complete",
		zap.String("job", job),
		zap.Int("users", len(users)),
		zap.Int64("failed", failed.Load()),
		zap.Duration("duration", time.Since(start)),
	)
}
