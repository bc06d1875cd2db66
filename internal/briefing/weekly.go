package briefing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/pillard/internal/metrics"
	"github.com/fyrsmithlabs/pillard/internal/recommend"
)

// GenerateWeekly compiles and upserts the review for the week containing
// date. Rerunning for the same week replaces the stored document.
func (c *Compiler) GenerateWeekly(ctx context.Context, userID string, date time.Time) (*WeeklyReview, error) {
	ctx, span := c.tracer.Start(ctx, "briefing.generate_weekly")
	defer span.End()

	weekStart := WeekStart(date)
	weekEnd := weekStart.AddDate(0, 0, 7)
	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.String("week_start", weekStart.Format("2006-01-02")),
	)

	r := &WeeklyReview{
		UserID:      userID,
		WeekStart:   weekStart,
		WeekEnd:     weekEnd.AddDate(0, 0, -1),
		Pillars:     map[metrics.Pillar]PillarSummary{},
		Trends:      map[metrics.Pillar]float64{},
		GeneratedAt: time.Now().UTC(),
	}

	priorStart := weekStart.AddDate(0, 0, -7)
	for _, pillar := range metrics.AllPillars {
		score, keyMetrics, ok, unavailable := c.scorePillar(ctx, userID, pillar, weekStart, weekEnd)
		if unavailable {
			r.Partial = true
		}
		priorScore, _, priorOK, _ := c.scorePillar(ctx, userID, pillar, priorStart, weekStart)

		summary := PillarSummary{
			Score:      score,
			KeyMetrics: keyMetrics,
			HasData:    ok,
		}
		if ok && priorOK {
			summary.PriorScore = priorScore
			summary.Delta = score - priorScore
			r.Trends[pillar] = summary.Delta
		}
		r.Pillars[pillar] = summary
	}

	r.OverallScore = overallScore(r.Pillars)
	r.Wins, r.Concerns = c.winsAndConcerns(r.Trends)
	r.ActionItems = c.actionItems(ctx, userID)
	r.ExecutiveSummary = weeklySummary(r)

	if err := c.store.UpsertWeeklyReview(ctx, r); err != nil {
		spanFail(span, err)
		return nil, wrapSave(err)
	}
	c.recordRun(ctx, "weekly")

	c.logger.Info("weekly review compiled",
		zap.String("user_id", userID),
		zap.String("week_start", weekStart.Format("2006-01-02")),
		zap.Float64("overall_score", r.OverallScore),
		zap.Bool("partial", r.Partial),
	)
	return r, nil
}

// GetWeekly returns the stored review for the week containing date,
// compiling one on demand when none exists yet.
func (c *Compiler) GetWeekly(ctx context.Context, userID string, date time.Time) (*WeeklyReview, error) {
	r, err := c.store.GetWeeklyReview(ctx, userID, WeekStart(date))
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to load weekly review: %w", err)
	}
	return c.GenerateWeekly(ctx, userID, date)
}

// LatestWeekly returns the most recently stored review.
func (c *Compiler) LatestWeekly(ctx context.Context, userID string) (*WeeklyReview, error) {
	r, err := c.store.LatestWeeklyReview(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest weekly review: %w", err)
	}
	return r, nil
}

// winsAndConcerns turns pillar deltas beyond the threshold into narrative
// bullets, biggest movers first. Only pillars with data in both weeks
// appear in trends.
func (c *Compiler) winsAndConcerns(trends map[metrics.Pillar]float64) (wins, concerns []string) {
	type mover struct {
		pillar metrics.Pillar
		delta  float64
	}
	var movers []mover
	for p, delta := range trends {
		movers = append(movers, mover{p, delta})
	}
	sort.Slice(movers, func(i, j int) bool {
		di, dj := movers[i].delta, movers[j].delta
		if di < 0 {
			di = -di
		}
		if dj < 0 {
			dj = -dj
		}
		if di != dj {
			return di > dj
		}
		return movers[i].pillar < movers[j].pillar
	})

	for _, m := range movers {
		switch {
		case m.delta >= c.config.WinThreshold:
			wins = append(wins, fmt.Sprintf("%s score up %.0f points week over week", m.pillar, m.delta))
		case m.delta <= -c.config.WinThreshold:
			concerns = append(concerns, fmt.Sprintf("%s score down %.0f points week over week", m.pillar, -m.delta))
		}
	}
	return wins, concerns
}

// actionItems lifts the titles of the top pending recommendations.
func (c *Compiler) actionItems(ctx context.Context, userID string) []string {
	pending, err := c.recs.List(ctx, userID, recommend.ListFilter{Status: recommend.StatusPending})
	if err != nil {
		c.logger.Warn("recommendations unavailable for weekly review", zap.Error(err))
		return nil
	}
	var out []string
	for _, item := range c.pickPriorities(pending) {
		out = append(out, item.Title)
	}
	return out
}

func weeklySummary(r *WeeklyReview) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Week of %s: overall score %.0f/100.", r.WeekStart.Format("Jan 2"), r.OverallScore)
	if len(r.Wins) > 0 {
		fmt.Fprintf(&sb, " Biggest win: %s.", r.Wins[0])
	}
	if len(r.Concerns) > 0 {
		fmt.Fprintf(&sb, " Watch out: %s.", r.Concerns[0])
	}
	if len(r.Wins) == 0 && len(r.Concerns) == 0 {
		sb.WriteString(" A steady week across all pillars.")
	}
	return sb.String()
}
