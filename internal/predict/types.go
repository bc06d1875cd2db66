package predict

import (
	"context"
	"time"

	"github.com/fyrsmithlabs/pillard/internal/metrics"
)

// Type identifies a prediction family.
type Type string

const (
	TypeGoalAchievement Type = "goal_achievement"
	TypeBurnout         Type = "burnout"
	TypeHealthTrend     Type = "health_trend"
)

// Valid reports whether t is a known prediction type.
func (t Type) Valid() bool {
	switch t {
	case TypeGoalAchievement, TypeBurnout, TypeHealthTrend:
		return true
	}
	return false
}

// Likelihood buckets a probability-like score into five bands.
type Likelihood string

const (
	LikelihoodVeryLow  Likelihood = "very_low"
	LikelihoodLow      Likelihood = "low"
	LikelihoodMedium   Likelihood = "medium"
	LikelihoodHigh     Likelihood = "high"
	LikelihoodVeryHigh Likelihood = "very_high"
)

// LikelihoodFromScore maps a 0-100 score onto five equal-width bands.
func LikelihoodFromScore(score float64) Likelihood {
	switch {
	case score < 20:
		return LikelihoodVeryLow
	case score < 40:
		return LikelihoodLow
	case score < 60:
		return LikelihoodMedium
	case score < 80:
		return LikelihoodHigh
	default:
		return LikelihoodVeryHigh
	}
}

// AtMostLow reports whether l is low or very_low.
func (l Likelihood) AtMostLow() bool {
	return l == LikelihoodVeryLow || l == LikelihoodLow
}

// TrendDirection describes where a fitted series is heading.
type TrendDirection string

const (
	TrendImproving TrendDirection = "improving"
	TrendStable    TrendDirection = "stable"
	TrendDeclining TrendDirection = "declining"
)

// Prediction is one forecast. Records are replaced wholesale per type on
// each run.
type Prediction struct {
	ID              string             `json:"id"`
	UserID          string             `json:"-"`
	Type            Type               `json:"type"`
	Pillar          metrics.Pillar     `json:"pillar"`
	TargetMetric    string             `json:"target_metric"`
	CurrentValue    float64            `json:"current_value"`
	PredictedValue  float64            `json:"predicted_value"`
	TargetDate      time.Time          `json:"target_date"`
	PredictedDate   *time.Time         `json:"predicted_date,omitempty"`
	ConfidenceLevel float64            `json:"confidence_level"`
	Factors         map[string]float64 `json:"factors"`
	TrendDirection  TrendDirection     `json:"trend_direction"`
	Likelihood      Likelihood         `json:"likelihood"`
	Suggestions     []string           `json:"suggestions,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
}

// GoalSpec describes a goal tracked as a metric series approaching a target.
type GoalSpec struct {
	Metric     metrics.Key `koanf:"metric"`
	Target     float64     `koanf:"target"`
	TargetDate time.Time   `koanf:"target_date"`
}

// Store is the persistence surface the service needs.
type Store interface {
	// ReplacePredictions atomically replaces the user's predictions of one
	// type with a fresh set.
	ReplacePredictions(ctx context.Context, userID string, typ Type, batch []*Prediction) error

	ListPredictions(ctx context.Context, userID string, typ Type) ([]*Prediction, error)
}
