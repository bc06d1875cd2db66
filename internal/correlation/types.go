package correlation

import (
	"context"
	"fmt"
	"time"

	"github.com/fyrsmithlabs/pillard/internal/metrics"
)

// Strength classifies the magnitude of a correlation coefficient.
type Strength string

const (
	StrengthWeak     Strength = "weak"
	StrengthModerate Strength = "moderate"
	StrengthStrong   Strength = "strong"
)

// Direction is the sign of a correlation coefficient.
type Direction string

const (
	DirectionPositive Direction = "positive"
	DirectionNegative Direction = "negative"
)

// Correlation is one discovered pairwise relationship. Records are created
// by an engine run and never mutated; each run writes a new batch.
type Correlation struct {
	ID            string         `json:"id"`
	UserID        string         `json:"-"`
	BatchID       string         `json:"batch_id"`
	Pillar1       metrics.Pillar `json:"pillar_1"`
	Metric1       string         `json:"metric_1"`
	Pillar2       metrics.Pillar `json:"pillar_2"`
	Metric2       string         `json:"metric_2"`
	Coefficient   float64        `json:"coefficient"`
	PValue        float64        `json:"p_value"`
	SampleSize    int            `json:"sample_size"`
	Strength      Strength       `json:"strength"`
	Direction     Direction      `json:"direction"`
	Explanation   string         `json:"explanation"`
	IsSignificant bool           `json:"is_significant"`
	DiscoveredAt  time.Time      `json:"discovered_at"`
}

// Key1 returns the first metric key.
func (c *Correlation) Key1() metrics.Key { return metrics.Key{Pillar: c.Pillar1, Metric: c.Metric1} }

// Key2 returns the second metric key.
func (c *Correlation) Key2() metrics.Key { return metrics.Key{Pillar: c.Pillar2, Metric: c.Metric2} }

// ClassifyStrength maps |coefficient| onto a strength band. The 0.3 and 0.7
// boundaries are inclusive on the lower bound: 0.3 is moderate, 0.7 is
// moderate, anything above 0.7 is strong.
func ClassifyStrength(coefficient float64) Strength {
	abs := coefficient
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs < 0.3:
		return StrengthWeak
	case abs <= 0.7:
		return StrengthModerate
	default:
		return StrengthStrong
	}
}

// ClassifyDirection maps the coefficient sign onto a direction.
func ClassifyDirection(coefficient float64) Direction {
	if coefficient > 0 {
		return DirectionPositive
	}
	return DirectionNegative
}

// Explain renders the templated natural-language explanation for a pair.
func Explain(k1, k2 metrics.Key, coefficient float64, sampleSize int) string {
	dir := "rises as well"
	if coefficient <= 0 {
		dir = "tends to fall"
	}
	strength := ClassifyStrength(coefficient)
	return fmt.Sprintf("%s %s relationship: when %s rises, %s %s (r=%.2f over %d shared days)",
		titleCase(string(strength)), string(ClassifyDirection(coefficient)),
		k1, k2, dir, coefficient, sampleSize)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}

// Store is the persistence surface the engine needs. Implemented by the
// SQLite store.
type Store interface {
	// SaveCorrelationBatch persists a fresh batch, replacing the user's
	// previous batch as the latest.
	SaveCorrelationBatch(ctx context.Context, userID, batchID string, batch []*Correlation) error

	// LatestCorrelations returns the user's most recent batch, restricted to
	// correlations discovered within the trailing number of days.
	LatestCorrelations(ctx context.Context, userID string, days int) ([]*Correlation, error)
}
