package predict

import (
	"math"

	"github.com/fyrsmithlabs/pillard/internal/stats"
)

// BurnoutInputs are the 30-day aggregates feeding the burnout score.
type BurnoutInputs struct {
	AvgDailyWorkHours  float64
	BoundaryViolations float64
	AvgSleepQuality    float64
}

// BurnoutScore computes the composite 0-100 burnout risk score. Each term
// is clamped before summation and the total is clamped to [0,100]:
//
//	work:   min(40, max(0, (hours-8) * 5))
//	bounds: min(30, violations * 2.5)
//	sleep:  max(0, (7 - quality) * 4)
func BurnoutScore(in BurnoutInputs) float64 {
	work := stats.Clamp((in.AvgDailyWorkHours-8)*5, 0, 40)
	bounds := math.Min(30, in.BoundaryViolations*2.5)
	sleep := math.Max(0, (7-in.AvgSleepQuality)*4)
	return stats.Clamp(work+bounds+sleep, 0, 100)
}

// burnoutTrend mirrors the score interpretation: under 50 the situation is
// holding, above it the trajectory is treated as worsening.
func burnoutTrend(score float64) TrendDirection {
	if score < 50 {
		return TrendStable
	}
	return TrendDeclining
}

// burnoutSuggestions returns the prevention ladder for a given score.
// Higher scores prepend the more drastic interventions.
func burnoutSuggestions(score float64) []string {
	var out []string
	if score > 50 {
		out = append(out,
			"Schedule immediate time off or vacation",
			"Reduce work hours to 40 hours per week maximum",
		)
	}
	if score > 30 {
		out = append(out,
			"Set strict boundaries for after-hours work",
			"Improve sleep quality through better sleep hygiene",
		)
	}
	out = append(out,
		"Practice daily stress management techniques",
		"Increase physical activity and exercise",
	)
	return out
}
