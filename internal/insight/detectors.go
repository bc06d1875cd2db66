package insight

import (
	"fmt"
	"math"
	"time"

	"github.com/fyrsmithlabs/pillard/internal/correlation"
	"github.com/fyrsmithlabs/pillard/internal/metrics"
	"github.com/fyrsmithlabs/pillard/internal/stats"
)

// detectAnomaly flags the most recent value when it deviates more than
// sigmaThreshold standard deviations from the trailing mean. At least
// minPrior earlier points are required; a flat history (zero deviation)
// is degenerate and yields nothing.
func detectAnomaly(def metrics.Definition, series metrics.Series, sigmaThreshold float64, minPrior int) *Insight {
	n := series.Len()
	if n < minPrior+1 {
		return nil
	}
	latest := series.Points[n-1]
	prior := series.Values()[:n-1]

	mean := stats.Mean(prior)
	std := stats.StdDev(prior)
	if std == 0 {
		return nil
	}

	sigma := math.Abs(latest.Value-mean) / std
	if sigma < sigmaThreshold {
		return nil
	}

	severity := SeverityMedium
	if sigma > 3 {
		severity = SeverityHigh
	}

	direction := "above"
	if latest.Value < mean {
		direction = "below"
	}

	return &Insight{
		Type:     TypeAnomaly,
		Pillar:   def.Key.Pillar,
		Metric:   def.Key.Metric,
		Title:    fmt.Sprintf("Unusual %s detected", def.Key.Metric),
		Description: fmt.Sprintf("Your latest %s reading of %.1f %s is %.1f standard deviations %s your recent average of %.1f",
			def.Key.Metric, latest.Value, def.Unit, sigma, direction, mean),
		Severity:   severity,
		Confidence: stats.Clamp(sigma/4*100, 0, 100),
		SupportingData: map[string]float64{
			"latest":  latest.Value,
			"mean":    mean,
			"std_dev": std,
			"sigma":   sigma,
		},
		Actionable: true,
	}
}

// detectTrend splits the window into two equal halves and compares means.
// A relative change beyond threshold yields a trend insight tagged
// improving or declining according to the metric's polarity.
func detectTrend(def metrics.Definition, series metrics.Series, threshold float64, minPoints int) *Insight {
	n := series.Len()
	if n < minPoints {
		return nil
	}
	values := series.Values()
	half := n / 2
	first := stats.Mean(values[:half])
	second := stats.Mean(values[n-half:])
	if first == 0 {
		return nil
	}

	change := (second - first) / math.Abs(first)
	if math.Abs(change) < threshold {
		return nil
	}

	improving := (change > 0) == (def.Polarity == metrics.HigherBetter)
	word := "improving"
	severity := SeverityInfo
	if !improving {
		word = "declining"
		severity = SeverityMedium
	}

	return &Insight{
		Type:   TypeTrend,
		Pillar: def.Key.Pillar,
		Metric: def.Key.Metric,
		Title:  fmt.Sprintf("%s is %s", def.Key.String(), word),
		Description: fmt.Sprintf("Your %s has moved %.0f%% (from an average of %.1f to %.1f %s), a %s trend",
			def.Key.Metric, math.Abs(change)*100, first, second, def.Unit, word),
		Severity:   severity,
		Confidence: stats.Clamp(math.Abs(change)/threshold*50, 0, 100),
		SupportingData: map[string]float64{
			"first_half_mean":  first,
			"second_half_mean": second,
			"relative_change":  change,
		},
		Actionable: !improving,
	}
}

// detectAchievement looks for a streak of consecutive trailing days all
// meeting the metric's target condition. Metrics without a configured
// streak are skipped.
func detectAchievement(def metrics.Definition, series metrics.Series) *Insight {
	if def.StreakLen <= 0 || series.Len() < def.StreakLen {
		return nil
	}
	pts := series.Points
	streak := pts[len(pts)-def.StreakLen:]
	for i, p := range streak {
		if !def.MeetsTarget(p.Value) {
			return nil
		}
		if i > 0 {
			// Days must be consecutive, not merely the last N samples.
			prev := metrics.Day(streak[i-1].Date)
			if metrics.Day(p.Date).Sub(prev) != 24*time.Hour {
				return nil
			}
		}
	}

	return &Insight{
		Type:   TypeAchievement,
		Pillar: def.Key.Pillar,
		Metric: def.Key.Metric,
		Title:  fmt.Sprintf("%d-day %s streak", def.StreakLen, def.Key.Metric),
		Description: fmt.Sprintf("You have hit your %s target (%.0f %s) for %d days in a row. Keep it up!",
			def.Key.Metric, def.StreakTarget, def.Unit, def.StreakLen),
		Severity:   SeverityInfo,
		Confidence: 100,
		SupportingData: map[string]float64{
			"streak_days": float64(def.StreakLen),
			"target":      def.StreakTarget,
		},
		Actionable: false,
	}
}

// adverse reports whether a correlation represents a trade-off: improving
// one metric moves the other in its bad direction. It compares the
// coefficient sign against the polarity of both metrics; a negative
// goodness alignment means the pair pulls against each other.
func adverse(c *correlation.Correlation) bool {
	return metrics.GoodnessAlignment(c.Key1(), c.Key2(), c.Coefficient) < 0
}

// fromCorrelation surfaces a significant moderate/strong correlation as a
// cross-pillar insight: a warning when the relationship is directionally
// adverse, otherwise a trend. Severity is high only for strong adverse
// relationships.
func fromCorrelation(c *correlation.Correlation) *Insight {
	if !c.IsSignificant || c.Strength == correlation.StrengthWeak {
		return nil
	}

	typ := TypeTrend
	severity := SeverityMedium
	if adverse(c) {
		typ = TypeWarning
		if c.Strength == correlation.StrengthStrong {
			severity = SeverityHigh
		}
	}

	return &Insight{
		Type:        typ,
		Pillar:      c.Pillar1,
		Metric:      c.Metric1,
		Title:       fmt.Sprintf("%s and %s are linked", c.Key1(), c.Key2()),
		Description: c.Explanation,
		Severity:    severity,
		Confidence:  stats.Clamp((1-c.PValue)*100, 0, 100),
		SupportingData: map[string]float64{
			"coefficient": c.Coefficient,
			"p_value":     c.PValue,
			"sample_size": float64(c.SampleSize),
		},
		Actionable: typ == TypeWarning,
	}
}
