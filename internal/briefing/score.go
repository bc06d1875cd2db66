package briefing

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fyrsmithlabs/pillard/internal/metrics"
	"github.com/fyrsmithlabs/pillard/internal/stats"
)

// pillarWeights drive the overall weekly score. Health carries the most
// weight; the four must sum to 1.
var pillarWeights = map[metrics.Pillar]float64{
	metrics.PillarFinancial:    0.25,
	metrics.PillarHealth:       0.30,
	metrics.PillarWorkLife:     0.25,
	metrics.PillarProductivity: 0.20,
}

// scorePillar averages the 0-100 scores of a pillar's metrics over a
// window. ok is false when no metric in the pillar had any data, and
// unavailable is true when at least one fetch failed outright.
func (c *Compiler) scorePillar(ctx context.Context, userID string, pillar metrics.Pillar, from, to time.Time) (score float64, keyMetrics []KeyMetric, ok, unavailable bool) {
	var scores []float64
	for _, def := range metrics.PillarMetrics(pillar) {
		series, err := c.source.Fetch(ctx, userID, def.Key, from, to)
		if err != nil {
			unavailable = true
			continue
		}
		if series.IsEmpty() {
			continue
		}
		avg := stats.Mean(series.Values())
		scores = append(scores, def.Score(avg))
		keyMetrics = append(keyMetrics, KeyMetric{
			Metric:  def.Key.Metric,
			Value:   avg,
			Unit:    def.Unit,
			Display: displayValue(pillar, avg, def.Unit),
		})
	}
	if len(scores) == 0 {
		return 0, keyMetrics, false, unavailable
	}
	return stats.Mean(scores), keyMetrics, true, unavailable
}

// overallScore combines pillar scores with the fixed weights. Pillars
// without data are excluded and the remaining weights renormalized.
func overallScore(pillars map[metrics.Pillar]PillarSummary) float64 {
	var weighted, total float64
	for p, summary := range pillars {
		if !summary.HasData {
			continue
		}
		w := pillarWeights[p]
		weighted += summary.Score * w
		total += w
	}
	if total == 0 {
		return 0
	}
	return weighted / total
}

// displayValue renders a headline number. Financial amounts go through
// decimal so cents round half-up instead of drifting through float
// formatting.
func displayValue(pillar metrics.Pillar, v float64, unit string) string {
	if pillar == metrics.PillarFinancial && unit == "usd" {
		return "$" + decimal.NewFromFloat(v).Round(2).StringFixed(2)
	}
	if unit == "" {
		return fmt.Sprintf("%.1f", v)
	}
	return fmt.Sprintf("%.1f %s", v, unit)
}
