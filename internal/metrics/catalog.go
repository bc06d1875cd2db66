package metrics

// Polarity states whether higher values of a metric are better or worse.
// Trend classification and correlation severity depend on it.
type Polarity int

const (
	HigherBetter Polarity = iota
	LowerBetter
)

// Definition describes one tracked metric: its polarity, unit, the value
// range used to normalize it into a 0-100 pillar score, and the optional
// streak target that drives achievement insights.
type Definition struct {
	Key      Key
	Polarity Polarity
	Unit     string

	// ScoreLow and ScoreHigh map the raw value range onto a 0-100 score.
	// For LowerBetter metrics the mapping is inverted.
	ScoreLow  float64
	ScoreHigh float64

	// StreakTarget and StreakLen configure achievement detection: StreakLen
	// consecutive days meeting the target condition yields an achievement.
	// StreakLen == 0 disables achievement tracking for the metric.
	StreakTarget float64
	StreakLen    int
}

// MeetsTarget reports whether v satisfies the metric's streak condition.
// HigherBetter metrics must reach the target; LowerBetter must stay under it.
func (d Definition) MeetsTarget(v float64) bool {
	if d.Polarity == LowerBetter {
		return v <= d.StreakTarget
	}
	return v >= d.StreakTarget
}

// GoodSign returns +1 for HigherBetter metrics and -1 for LowerBetter ones.
func (d Definition) GoodSign() float64 {
	if d.Polarity == LowerBetter {
		return -1
	}
	return 1
}

// Catalog lists every tracked metric. The set mirrors what the pillar
// collaborators record: transactions roll up to daily spending, work
// sessions to daily hours, and so on.
var Catalog = []Definition{
	{Key: Key{PillarFinancial, "daily_spending"}, Polarity: LowerBetter, Unit: "usd", ScoreLow: 250, ScoreHigh: 20},
	{Key: Key{PillarFinancial, "savings_rate"}, Polarity: HigherBetter, Unit: "percent", ScoreLow: 0, ScoreHigh: 30},

	{Key: Key{PillarHealth, "sleep_hours"}, Polarity: HigherBetter, Unit: "hours", ScoreLow: 4, ScoreHigh: 8},
	{Key: Key{PillarHealth, "sleep_quality"}, Polarity: HigherBetter, Unit: "score", ScoreLow: 2, ScoreHigh: 9},
	{Key: Key{PillarHealth, "exercise_minutes"}, Polarity: HigherBetter, Unit: "minutes", ScoreLow: 0, ScoreHigh: 60, StreakTarget: 30, StreakLen: 5},
	{Key: Key{PillarHealth, "mood_score"}, Polarity: HigherBetter, Unit: "score", ScoreLow: 2, ScoreHigh: 9},
	{Key: Key{PillarHealth, "stress_level"}, Polarity: LowerBetter, Unit: "score", ScoreLow: 9, ScoreHigh: 2},
	{Key: Key{PillarHealth, "energy_level"}, Polarity: HigherBetter, Unit: "score", ScoreLow: 2, ScoreHigh: 9},

	{Key: Key{PillarWorkLife, "work_hours"}, Polarity: LowerBetter, Unit: "hours", ScoreLow: 12, ScoreHigh: 7},
	{Key: Key{PillarWorkLife, "meeting_hours"}, Polarity: LowerBetter, Unit: "hours", ScoreLow: 6, ScoreHigh: 1},
	{Key: Key{PillarWorkLife, "boundary_violations"}, Polarity: LowerBetter, Unit: "count", ScoreLow: 4, ScoreHigh: 0, StreakTarget: 0, StreakLen: 7},

	{Key: Key{PillarProductivity, "focus_score"}, Polarity: HigherBetter, Unit: "score", ScoreLow: 2, ScoreHigh: 9},
	{Key: Key{PillarProductivity, "deep_work_minutes"}, Polarity: HigherBetter, Unit: "minutes", ScoreLow: 0, ScoreHigh: 240, StreakTarget: 120, StreakLen: 5},
	{Key: Key{PillarProductivity, "tasks_completed"}, Polarity: HigherBetter, Unit: "count", ScoreLow: 0, ScoreHigh: 8},
	{Key: Key{PillarProductivity, "distraction_count"}, Polarity: LowerBetter, Unit: "count", ScoreLow: 20, ScoreHigh: 2},
}

// samePillarWhitelist enumerates the same-pillar pairs the correlation
// engine may test. Cross-pillar pairs are always candidates; same-pillar
// pairs are opt-in to keep the batch focused on non-obvious relationships.
var samePillarWhitelist = [][2]Key{
	{{PillarHealth, "sleep_hours"}, {PillarHealth, "sleep_quality"}},
	{{PillarHealth, "exercise_minutes"}, {PillarHealth, "mood_score"}},
	{{PillarWorkLife, "work_hours"}, {PillarWorkLife, "boundary_violations"}},
	{{PillarProductivity, "deep_work_minutes"}, {PillarProductivity, "focus_score"}},
}

// Lookup returns the catalog definition for a key.
func Lookup(k Key) (Definition, bool) {
	for _, d := range Catalog {
		if d.Key == k {
			return d, true
		}
	}
	return Definition{}, false
}

// PillarMetrics returns the catalog definitions belonging to one pillar.
func PillarMetrics(p Pillar) []Definition {
	var out []Definition
	for _, d := range Catalog {
		if d.Key.Pillar == p {
			out = append(out, d)
		}
	}
	return out
}

// CandidatePairs returns the metric pairs the correlation engine should
// test: every cross-pillar pair from the catalog plus the same-pillar
// whitelist. When pillars is non-empty, both sides of a pair must belong
// to the requested set.
func CandidatePairs(pillars []Pillar) [][2]Key {
	include := func(p Pillar) bool {
		if len(pillars) == 0 {
			return true
		}
		for _, x := range pillars {
			if x == p {
				return true
			}
		}
		return false
	}

	var pairs [][2]Key
	for i := 0; i < len(Catalog); i++ {
		for j := i + 1; j < len(Catalog); j++ {
			a, b := Catalog[i].Key, Catalog[j].Key
			if a.Pillar == b.Pillar {
				continue
			}
			if include(a.Pillar) && include(b.Pillar) {
				pairs = append(pairs, [2]Key{a, b})
			}
		}
	}
	for _, p := range samePillarWhitelist {
		if include(p[0].Pillar) {
			pairs = append(pairs, p)
		}
	}
	return pairs
}

// GoodnessAlignment converts a raw correlation coefficient between two
// metrics into a polarity-adjusted one: positive means the metrics' good
// directions move together, negative means improving one worsens the other
// (a trade-off). Unknown metrics yield 0.
func GoodnessAlignment(k1, k2 Key, coefficient float64) float64 {
	d1, ok1 := Lookup(k1)
	d2, ok2 := Lookup(k2)
	if !ok1 || !ok2 {
		return 0
	}
	return coefficient * d1.GoodSign() * d2.GoodSign()
}

// Score normalizes a raw metric value onto 0-100 using the definition's
// score range, inverting for LowerBetter metrics (ScoreLow maps to 0,
// ScoreHigh to 100 in both cases; LowerBetter definitions simply declare
// ScoreLow > ScoreHigh).
func (d Definition) Score(v float64) float64 {
	lo, hi := d.ScoreLow, d.ScoreHigh
	if lo == hi {
		return 50
	}
	s := (v - lo) / (hi - lo) * 100
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}
