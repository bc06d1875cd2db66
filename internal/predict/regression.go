package predict

import (
	"math"
	"time"

	"github.com/fyrsmithlabs/pillard/internal/metrics"
	"github.com/fyrsmithlabs/pillard/internal/stats"
)

// fitSeries regresses a day-aligned series against day index. ok is false
// for short or degenerate series.
func fitSeries(series metrics.Series) (fit stats.Regression, start time.Time, ok bool) {
	if series.Len() < 3 {
		return stats.Regression{}, time.Time{}, false
	}
	start = metrics.Day(series.Points[0].Date)
	x := make([]float64, series.Len())
	y := make([]float64, series.Len())
	for i, p := range series.Points {
		x[i] = metrics.Day(p.Date).Sub(start).Hours() / 24
		y[i] = p.Value
	}
	fit, ok = stats.LinearRegression(x, y)
	return fit, start, ok
}

// goalForecast projects when a fitted progress line crosses the target.
// A non-positive slope yields no predicted date: the goal shows no
// progress, so the forecast reports declining (or stable for a flat line)
// with likelihood capped at very_low.
func goalForecast(goal GoalSpec, series metrics.Series, now time.Time) *Prediction {
	current := 0.0
	if latest, ok := series.Latest(); ok {
		current = latest.Value
	}

	p := &Prediction{
		Type:         TypeGoalAchievement,
		Pillar:       goal.Metric.Pillar,
		TargetMetric: goal.Metric.Metric,
		CurrentValue: current,
		TargetDate:   goal.TargetDate,
		Factors: map[string]float64{
			"target":        goal.Target,
			"current_value": current,
			"sample_size":   float64(series.Len()),
		},
	}

	fit, start, ok := fitSeries(series)
	if !ok {
		p.PredictedValue = current
		p.TrendDirection = TrendStable
		p.Likelihood = LikelihoodVeryLow
		p.ConfidenceLevel = 10
		return p
	}

	p.Factors["slope_per_day"] = fit.Slope
	p.Factors["r_squared"] = fit.R2

	if fit.Slope <= 0 {
		p.PredictedValue = current
		p.Likelihood = LikelihoodVeryLow
		p.ConfidenceLevel = stats.Clamp(fit.R2*100, 5, 60)
		if fit.Slope == 0 {
			p.TrendDirection = TrendStable
		} else {
			p.TrendDirection = TrendDeclining
		}
		return p
	}

	// Day index at which the fitted line reaches the target.
	crossDay := (goal.Target - fit.Intercept) / fit.Slope
	predicted := start.AddDate(0, 0, int(math.Ceil(crossDay)))
	p.PredictedDate = &predicted
	p.TrendDirection = TrendImproving

	horizon := goal.TargetDate.Sub(now).Hours() / 24
	p.PredictedValue = fit.Intercept + fit.Slope*(now.Sub(start).Hours()/24+math.Max(horizon, 0))

	// Confidence decreases with residual variance and with the distance
	// between predicted and target dates.
	spread := math.Abs(fit.ResidualStd)
	scale := math.Abs(goal.Target)
	if scale == 0 {
		scale = 1
	}
	residualPenalty := stats.Clamp(spread/scale*100, 0, 40)
	daysOff := math.Abs(predicted.Sub(goal.TargetDate).Hours() / 24)
	distancePenalty := stats.Clamp(daysOff/2, 0, 40)
	p.ConfidenceLevel = stats.Clamp(95-residualPenalty-distancePenalty, 5, 95)

	// Likelihood reflects whether the crossing lands before the deadline,
	// discounted by fit quality.
	score := 50.0
	if !predicted.After(goal.TargetDate) {
		score = 80
	}
	score = stats.Clamp(score*math.Sqrt(math.Max(fit.R2, 0)), 0, 100)
	p.Likelihood = LikelihoodFromScore(score)
	p.Factors["predicted_days_off_target"] = daysOff
	return p
}

// healthForecast projects a health metric one horizon ahead of its fitted
// trend and classifies the direction against the metric's polarity.
func healthForecast(def metrics.Definition, series metrics.Series, horizonDays int) *Prediction {
	current := 0.0
	if latest, ok := series.Latest(); ok {
		current = latest.Value
	}

	p := &Prediction{
		Type:         TypeHealthTrend,
		Pillar:       def.Key.Pillar,
		TargetMetric: def.Key.Metric,
		CurrentValue: current,
		TargetDate:   time.Now().UTC().AddDate(0, 0, horizonDays),
		Factors: map[string]float64{
			"sample_size":  float64(series.Len()),
			"horizon_days": float64(horizonDays),
		},
	}

	fit, _, ok := fitSeries(series)
	if !ok {
		p.PredictedValue = current
		p.TrendDirection = TrendStable
		p.Likelihood = LikelihoodMedium
		p.ConfidenceLevel = 10
		return p
	}

	p.PredictedValue = current + fit.Slope*float64(horizonDays)
	p.ConfidenceLevel = stats.Clamp(fit.R2*100, 10, 95)
	p.Factors["slope_per_day"] = fit.Slope
	p.Factors["r_squared"] = fit.R2

	// A slope under 1% of the current level per day counts as flat.
	threshold := math.Abs(current) * 0.01
	switch {
	case math.Abs(fit.Slope) <= threshold:
		p.TrendDirection = TrendStable
		p.Likelihood = LikelihoodMedium
	case (fit.Slope > 0) == (def.Polarity == metrics.HigherBetter):
		p.TrendDirection = TrendImproving
		p.Likelihood = LikelihoodHigh
	default:
		p.TrendDirection = TrendDeclining
		p.Likelihood = LikelihoodLow
	}
	return p
}
