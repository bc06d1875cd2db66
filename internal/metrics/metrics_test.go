package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2026, 8, d, 0, 0, 0, 0, time.UTC)
}

func TestDay_TruncatesToUTCMidnight(t *testing.T) {
	in := time.Date(2026, 8, 15, 22, 45, 3, 0, time.FixedZone("CEST", 2*3600))
	out := Day(in)
	assert.Equal(t, time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC), out)
}

func TestInnerJoin_SharedDaysOnly(t *testing.T) {
	a := Series{Points: []Point{
		{Date: day(1), Value: 1},
		{Date: day(2), Value: 2},
		{Date: day(4), Value: 4},
	}}
	b := Series{Points: []Point{
		{Date: day(2), Value: 20},
		{Date: day(3), Value: 30},
		{Date: day(4), Value: 40},
	}}

	x, y := InnerJoin(a, b)
	assert.Equal(t, []float64{2, 4}, x)
	assert.Equal(t, []float64{20, 40}, y)
}

func TestSeries_Latest(t *testing.T) {
	_, ok := Series{}.Latest()
	assert.False(t, ok)

	s := Series{Points: []Point{{Date: day(1), Value: 1}, {Date: day(2), Value: 2}}}
	p, ok := s.Latest()
	require.True(t, ok)
	assert.Equal(t, 2.0, p.Value)
}

func TestDefinition_Score(t *testing.T) {
	sleep, ok := Lookup(Key{PillarHealth, "sleep_hours"})
	require.True(t, ok)

	assert.Equal(t, 0.0, sleep.Score(4))
	assert.Equal(t, 100.0, sleep.Score(8))
	assert.InDelta(t, 50.0, sleep.Score(6), 1e-9)
	assert.Equal(t, 0.0, sleep.Score(2), "below range clamps to 0")
	assert.Equal(t, 100.0, sleep.Score(10), "above range clamps to 100")
}

func TestDefinition_Score_LowerBetter(t *testing.T) {
	spending, ok := Lookup(Key{PillarFinancial, "daily_spending"})
	require.True(t, ok)

	assert.Equal(t, 0.0, spending.Score(250))
	assert.Equal(t, 100.0, spending.Score(20))
	assert.Greater(t, spending.Score(50), spending.Score(200))
}

func TestDefinition_MeetsTarget(t *testing.T) {
	exercise, ok := Lookup(Key{PillarHealth, "exercise_minutes"})
	require.True(t, ok)
	assert.True(t, exercise.MeetsTarget(30))
	assert.False(t, exercise.MeetsTarget(29))

	boundaries, ok := Lookup(Key{PillarWorkLife, "boundary_violations"})
	require.True(t, ok)
	assert.True(t, boundaries.MeetsTarget(0))
	assert.False(t, boundaries.MeetsTarget(1))
}

func TestCandidatePairs_CrossPillarPlusWhitelist(t *testing.T) {
	pairs := CandidatePairs(nil)
	require.NotEmpty(t, pairs)

	samePillar := 0
	for _, p := range pairs {
		if p[0].Pillar == p[1].Pillar {
			samePillar++
		}
	}
	assert.Equal(t, 4, samePillar, "only whitelisted same-pillar pairs")
}

func TestCandidatePairs_PillarFilter(t *testing.T) {
	pairs := CandidatePairs([]Pillar{PillarHealth, PillarWorkLife})
	require.NotEmpty(t, pairs)
	for _, p := range pairs {
		assert.Contains(t, []Pillar{PillarHealth, PillarWorkLife}, p[0].Pillar)
		assert.Contains(t, []Pillar{PillarHealth, PillarWorkLife}, p[1].Pillar)
	}
}

func TestGoodnessAlignment(t *testing.T) {
	sleep := Key{PillarHealth, "sleep_quality"}
	focus := Key{PillarProductivity, "focus_score"}
	workHours := Key{PillarWorkLife, "work_hours"}

	// Both higher-better, positive r: aligned.
	assert.Greater(t, GoodnessAlignment(sleep, focus, 0.8), 0.0)

	// work_hours is lower-better: more work rising with better sleep is
	// still a trade-off once polarity is applied.
	assert.Less(t, GoodnessAlignment(workHours, sleep, 0.6), 0.0)

	// Two lower-better metrics moving together are aligned.
	spending := Key{PillarFinancial, "daily_spending"}
	stress := Key{PillarHealth, "stress_level"}
	assert.Greater(t, GoodnessAlignment(spending, stress, 0.5), 0.0)

	assert.Equal(t, 0.0, GoodnessAlignment(Key{PillarHealth, "nope"}, sleep, 0.9))
}
