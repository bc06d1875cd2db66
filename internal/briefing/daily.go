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

	"github.com/fyrsmithlabs/pillard/internal/insight"
	"github.com/fyrsmithlabs/pillard/internal/metrics"
	"github.com/fyrsmithlabs/pillard/internal/recommend"
)

// GenerateDaily compiles and upserts the briefing for one calendar day.
// Rerunning for the same day replaces the stored document.
func (c *Compiler) GenerateDaily(ctx context.Context, userID string, date time.Time) (*DailyBriefing, error) {
	ctx, span := c.tracer.Start(ctx, "briefing.generate_daily")
	defer span.End()

	day := metrics.Day(date)
	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.String("date", day.Format("2006-01-02")),
	)

	b := &DailyBriefing{
		UserID:      userID,
		Date:        day,
		KeyMetrics:  map[metrics.Pillar][]KeyMetric{},
		GeneratedAt: time.Now().UTC(),
	}

	from := day
	to := day.AddDate(0, 0, 1)
	for _, pillar := range metrics.AllPillars {
		_, keyMetrics, _, unavailable := c.scorePillar(ctx, userID, pillar, from, to)
		if unavailable {
			b.Partial = true
		}
		if len(keyMetrics) > 0 {
			b.KeyMetrics[pillar] = keyMetrics
		}
	}

	unread, err := c.insights.List(ctx, userID, insight.ListFilter{UnreadOnly: true})
	if err != nil {
		c.logger.Warn("insights unavailable for daily briefing", zap.Error(err))
		b.Partial = true
	}
	b.InsightsCount = len(unread)
	b.TopInsights, b.Alerts = c.pickInsights(unread)

	pending, err := c.recs.List(ctx, userID, recommend.ListFilter{Status: recommend.StatusPending})
	if err != nil {
		c.logger.Warn("recommendations unavailable for daily briefing", zap.Error(err))
		b.Partial = true
	}
	b.RecommendationsCount = len(pending)
	b.TopPriorities = c.pickPriorities(pending)

	trend := c.dailyTrend(ctx, userID, day)
	b.Summary = dailySummary(b, trend)
	b.MotivationalMessage = motivation(trend)

	if err := c.store.UpsertDailyBriefing(ctx, b); err != nil {
		spanFail(span, err)
		return nil, wrapSave(err)
	}
	c.recordRun(ctx, "daily")

	c.logger.Info("daily briefing compiled",
		zap.String("user_id", userID),
		zap.String("date", day.Format("2006-01-02")),
		zap.Bool("partial", b.Partial),
	)
	return b, nil
}

// GetDaily returns the stored briefing for a day, compiling one on demand
// when none exists yet.
func (c *Compiler) GetDaily(ctx context.Context, userID string, date time.Time) (*DailyBriefing, error) {
	b, err := c.store.GetDailyBriefing(ctx, userID, metrics.Day(date))
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to load daily briefing: %w", err)
	}
	return c.GenerateDaily(ctx, userID, date)
}

// pickInsights splits unread insights into the top-N list and the alert
// list. High and critical insights are alerts; ordering is severity first,
// newest first within a severity.
func (c *Compiler) pickInsights(unread []*insight.Insight) (top, alerts []BriefItem) {
	sorted := make([]*insight.Insight, len(unread))
	copy(sorted, unread)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Severity.Rank() != sorted[j].Severity.Rank() {
			return sorted[i].Severity.Rank() > sorted[j].Severity.Rank()
		}
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	for _, in := range sorted {
		item := BriefItem{
			ID:       in.ID,
			Title:    in.Title,
			Detail:   in.Description,
			Severity: string(in.Severity),
		}
		if len(top) < c.config.TopN {
			top = append(top, item)
		}
		if in.Severity.Rank() >= insight.SeverityHigh.Rank() {
			alerts = append(alerts, item)
		}
	}
	return top, alerts
}

// pickPriorities returns the top-N pending recommendations ordered by
// priority, then impact, then recency.
func (c *Compiler) pickPriorities(pending []*recommend.Recommendation) []BriefItem {
	sorted := make([]*recommend.Recommendation, len(pending))
	copy(sorted, pending)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Priority != sorted[j].Priority {
			return sorted[i].Priority > sorted[j].Priority
		}
		if sorted[i].ExpectedImpact.Rank() != sorted[j].ExpectedImpact.Rank() {
			return sorted[i].ExpectedImpact.Rank() > sorted[j].ExpectedImpact.Rank()
		}
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	var out []BriefItem
	for _, r := range sorted {
		if len(out) == c.config.TopN {
			break
		}
		out = append(out, BriefItem{
			ID:       r.ID,
			Title:    r.Title,
			Detail:   r.Description,
			Priority: r.Priority,
		})
	}
	return out
}

// dailyTrend compares today's overall score against the trailing week to
// pick the briefing tone.
func (c *Compiler) dailyTrend(ctx context.Context, userID string, day time.Time) string {
	today := c.snapshotScores(ctx, userID, day, day.AddDate(0, 0, 1))
	week := c.snapshotScores(ctx, userID, day.AddDate(0, 0, -7), day)

	cur := overallScore(today)
	prior := overallScore(week)
	if cur == 0 || prior == 0 {
		return "stable"
	}
	switch {
	case cur-prior > 2:
		return "improving"
	case prior-cur > 2:
		return "declining"
	default:
		return "stable"
	}
}

func (c *Compiler) snapshotScores(ctx context.Context, userID string, from, to time.Time) map[metrics.Pillar]PillarSummary {
	out := map[metrics.Pillar]PillarSummary{}
	for _, pillar := range metrics.AllPillars {
		score, keyMetrics, ok, _ := c.scorePillar(ctx, userID, pillar, from, to)
		out[pillar] = PillarSummary{Score: score, KeyMetrics: keyMetrics, HasData: ok}
	}
	return out
}

func dailySummary(b *DailyBriefing, trend string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Good morning. Overall you're trending %s today.", trend)
	if b.InsightsCount > 0 {
		fmt.Fprintf(&sb, " You have %d unread %s", b.InsightsCount, plural(b.InsightsCount, "insight"))
		if b.RecommendationsCount > 0 {
			fmt.Fprintf(&sb, " and %d open %s", b.RecommendationsCount, plural(b.RecommendationsCount, "recommendation"))
		}
		sb.WriteString(".")
	} else if b.RecommendationsCount > 0 {
		fmt.Fprintf(&sb, " You have %d open %s.", b.RecommendationsCount, plural(b.RecommendationsCount, "recommendation"))
	}
	if len(b.Alerts) > 0 {
		fmt.Fprintf(&sb, " %d %s attention.", len(b.Alerts), pluralNeeds(len(b.Alerts)))
	}
	return sb.String()
}

func motivation(trend string) string {
	switch trend {
	case "improving":
		return "Momentum is on your side. Keep the streak going."
	case "declining":
		return "Rough patch. Pick one small thing to turn around today."
	default:
		return "Steady as she goes. Consistency compounds."
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

func pluralNeeds(n int) string {
	if n == 1 {
		return "alert needs"
	}
	return "alerts need"
}
