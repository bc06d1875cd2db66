package recommend

import (
	"context"
	"time"

	"github.com/fyrsmithlabs/pillard/internal/metrics"
)

// Impact grades the expected benefit of acting on a recommendation.
type Impact string

const (
	ImpactLow    Impact = "low"
	ImpactMedium Impact = "medium"
	ImpactHigh   Impact = "high"
)

// Rank orders impacts for sorting; higher is more impactful.
func (i Impact) Rank() int {
	switch i {
	case ImpactHigh:
		return 3
	case ImpactMedium:
		return 2
	default:
		return 1
	}
}

// Effort grades the estimated cost of acting. It is a fixed property of
// the rule template, never computed.
type Effort string

const (
	EffortLow    Effort = "low"
	EffortMedium Effort = "medium"
	EffortHigh   Effort = "high"
)

// Status is the recommendation lifecycle state. It is the only field
// mutated after creation, via explicit user action.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusDismissed Status = "dismissed"
	StatusCompleted Status = "completed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusDismissed, StatusCompleted:
		return true
	}
	return false
}

// Quadrant is the impact/effort display classification: a deterministic
// 2x2 lookup, not re-derived per rendering.
type Quadrant string

const (
	QuadrantQuickWin     Quadrant = "quick_win"     // high impact, low effort
	QuadrantMajorProject Quadrant = "major_project" // high impact, high effort
	QuadrantFillIn       Quadrant = "fill_in"       // low impact, low effort
	QuadrantThankless    Quadrant = "thankless"     // low impact, high effort
)

// Classify maps impact and effort onto the 2x2 matrix. Medium collapses
// toward the high-impact / high-effort side.
func Classify(impact Impact, effort Effort) Quadrant {
	highImpact := impact != ImpactLow
	lowEffort := effort == EffortLow
	switch {
	case highImpact && lowEffort:
		return QuadrantQuickWin
	case highImpact:
		return QuadrantMajorProject
	case lowEffort:
		return QuadrantFillIn
	default:
		return QuadrantThankless
	}
}

// Recommendation is one actionable suggestion.
type Recommendation struct {
	ID                  string         `json:"id"`
	UserID              string         `json:"-"`
	Pillar              metrics.Pillar `json:"pillar"`
	Category            string         `json:"category"`
	Title               string         `json:"title"`
	Description         string         `json:"description"`
	ActionItems         []string       `json:"action_items"`
	Priority            int            `json:"priority"`
	ExpectedImpact      Impact         `json:"expected_impact"`
	EstimatedEffort     Effort         `json:"estimated_effort"`
	Quadrant            Quadrant       `json:"quadrant"`
	Reasoning           string         `json:"reasoning"`
	SourceCorrelationID string         `json:"source_correlation_id,omitempty"`
	Status              Status         `json:"status"`
	Outcome             string         `json:"outcome,omitempty"`
	CreatedAt           time.Time      `json:"created_at"`
	CompletedAt         *time.Time     `json:"completed_at,omitempty"`
}

// ListFilter narrows recommendation listings.
type ListFilter struct {
	Pillar metrics.Pillar
	Status Status
}

// Store is the persistence surface the engine needs.
type Store interface {
	SaveRecommendations(ctx context.Context, batch []*Recommendation) error
	ListRecommendations(ctx context.Context, userID string, f ListFilter) ([]*Recommendation, error)
	UpdateRecommendationStatus(ctx context.Context, userID, id string, status Status, outcome string, completedAt *time.Time) error

	// HasPendingRecommendation reports whether a pending recommendation
	// already exists for (user, pillar, category).
	HasPendingRecommendation(ctx context.Context, userID string, pillar metrics.Pillar, category string) (bool, error)
}
