package briefing

import (
	"context"
	"errors"
	"time"

	"github.com/fyrsmithlabs/pillard/internal/metrics"
)

// ErrNotFound is returned when no document exists for the requested period.
var ErrNotFound = errors.New("briefing: document not found")

// KeyMetric is one headline number in a briefing.
type KeyMetric struct {
	Metric  string  `json:"metric"`
	Value   float64 `json:"value"`
	Unit    string  `json:"unit"`
	Display string  `json:"display"`
}

// BriefItem is a short ranked entry (insight or recommendation).
type BriefItem struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Detail   string `json:"detail,omitempty"`
	Severity string `json:"severity,omitempty"`
	Priority int    `json:"priority,omitempty"`
}

// DailyBriefing is the per-day synthesized document, keyed by (user, date).
type DailyBriefing struct {
	UserID               string                          `json:"-"`
	Date                 time.Time                       `json:"date"`
	Summary              string                          `json:"summary"`
	TopInsights          []BriefItem                     `json:"top_insights"`
	TopPriorities        []BriefItem                     `json:"top_priorities"`
	KeyMetrics           map[metrics.Pillar][]KeyMetric  `json:"key_metrics"`
	Alerts               []BriefItem                     `json:"alerts,omitempty"`
	MotivationalMessage  string                          `json:"motivational_message"`
	InsightsCount        int                             `json:"insights_count"`
	RecommendationsCount int                             `json:"recommendations_count"`
	Partial              bool                            `json:"partial"`
	GeneratedAt          time.Time                       `json:"generated_at"`
}

// PillarSummary is one pillar's aggregate for a weekly review.
type PillarSummary struct {
	Score      float64     `json:"score"`
	PriorScore float64     `json:"prior_score"`
	Delta      float64     `json:"delta"`
	KeyMetrics []KeyMetric `json:"key_metrics"`
	HasData    bool        `json:"has_data"`
}

// WeeklyReview is the per-week synthesized document, keyed by
// (user, week_start). WeekStart is always a Monday.
type WeeklyReview struct {
	UserID           string                           `json:"-"`
	WeekStart        time.Time                        `json:"week_start"`
	WeekEnd          time.Time                        `json:"week_end"`
	OverallScore     float64                          `json:"overall_score"`
	ExecutiveSummary string                           `json:"executive_summary"`
	Pillars          map[metrics.Pillar]PillarSummary `json:"pillars"`
	Wins             []string                         `json:"wins"`
	Concerns         []string                         `json:"concerns"`
	ActionItems      []string                         `json:"action_items"`
	Trends           map[metrics.Pillar]float64       `json:"trends"`
	Partial          bool                             `json:"partial"`
	GeneratedAt      time.Time                        `json:"generated_at"`
}

// Store is the persistence surface for the compiler. Both documents are
// upserted: one row per (user, period key).
type Store interface {
	UpsertDailyBriefing(ctx context.Context, b *DailyBriefing) error
	GetDailyBriefing(ctx context.Context, userID string, date time.Time) (*DailyBriefing, error)

	UpsertWeeklyReview(ctx context.Context, r *WeeklyReview) error
	GetWeeklyReview(ctx context.Context, userID string, weekStart time.Time) (*WeeklyReview, error)
	LatestWeeklyReview(ctx context.Context, userID string) (*WeeklyReview, error)
}

// WeekStart returns the Monday of t's week at UTC midnight.
func WeekStart(t time.Time) time.Time {
	day := metrics.Day(t)
	offset := (int(day.Weekday()) + 6) % 7 // Monday = 0
	return day.AddDate(0, 0, -offset)
}
