package insight

import (
	"context"
	"time"

	"github.com/fyrsmithlabs/pillard/internal/metrics"
)

// Type categorizes an insight.
type Type string

const (
	TypeTrend       Type = "trend"
	TypeAnomaly     Type = "anomaly"
	TypeAchievement Type = "achievement"
	TypeWarning     Type = "warning"
)

// Severity grades how much attention an insight deserves.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank orders severities for sorting; higher is more severe.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// TimePeriod is the analysis window an insight was generated for.
type TimePeriod string

const (
	PeriodDaily   TimePeriod = "daily"
	PeriodWeekly  TimePeriod = "weekly"
	PeriodMonthly TimePeriod = "monthly"
)

// Days returns the window length for a period.
func (p TimePeriod) Days() int {
	switch p {
	case PeriodWeekly:
		return 7
	case PeriodMonthly:
		return 30
	default:
		return 1
	}
}

// Insight is one generated finding. The engine creates insights and never
// deletes them; IsRead is the only field mutated afterwards, by explicit
// user action.
type Insight struct {
	ID             string             `json:"id"`
	UserID         string             `json:"-"`
	Type           Type               `json:"type"`
	Pillar         metrics.Pillar     `json:"pillar"`
	Metric         string             `json:"metric"`
	Title          string             `json:"title"`
	Description    string             `json:"description"`
	Severity       Severity           `json:"severity"`
	Confidence     float64            `json:"confidence"`
	SupportingData map[string]float64 `json:"supporting_data,omitempty"`
	TimePeriod     TimePeriod         `json:"time_period"`
	Actionable     bool               `json:"actionable"`
	IsRead         bool               `json:"is_read"`
	CreatedAt      time.Time          `json:"created_at"`
}

// ListFilter narrows insight listings.
type ListFilter struct {
	Pillar     metrics.Pillar
	Severity   Severity
	TimePeriod TimePeriod
	UnreadOnly bool
	Since      time.Time
}

// Store is the persistence surface the generator needs.
type Store interface {
	SaveInsights(ctx context.Context, batch []*Insight) error
	ListInsights(ctx context.Context, userID string, f ListFilter) ([]*Insight, error)
	MarkInsightRead(ctx context.Context, userID, id string) error

	// HasRecentInsight reports whether an insight with the same
	// (type, pillar, metric) was created at or after since.
	HasRecentInsight(ctx context.Context, userID string, typ Type, pillar metrics.Pillar, metricName string, since time.Time) (bool, error)
}
