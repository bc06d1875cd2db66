package insight

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/pillard/internal/correlation"
	"github.com/fyrsmithlabs/pillard/internal/metrics"
)

func mustLookup(t *testing.T, key metrics.Key) metrics.Definition {
	t.Helper()
	def, ok := metrics.Lookup(key)
	require.True(t, ok, "unknown metric %s", key)
	return def
}

func dailySeries(key metrics.Key, values ...float64) metrics.Series {
	s := metrics.Series{Key: key}
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i, v := range values {
		s.Points = append(s.Points, metrics.Point{Date: base.AddDate(0, 0, i), Value: v})
	}
	return s
}

func TestDetectAnomaly(t *testing.T) {
	def := mustLookup(t, metrics.Key{Pillar: metrics.PillarHealth, Metric: "sleep_hours"})

	// Prior mean 5, population std 1.
	prior := []float64{4, 6, 4, 6, 4, 6, 4, 6}

	t.Run("medium at two sigma", func(t *testing.T) {
		s := dailySeries(def.Key, append(prior, 7.5)...)
		in := detectAnomaly(def, s, 2, 7)
		require.NotNil(t, in)
		assert.Equal(t, TypeAnomaly, in.Type)
		assert.Equal(t, SeverityMedium, in.Severity)
		assert.True(t, in.Actionable)
		assert.InDelta(t, 2.5, in.SupportingData["sigma"], 1e-9)
		assert.Contains(t, in.Description, "above")
	})

	t.Run("high beyond three sigma", func(t *testing.T) {
		s := dailySeries(def.Key, append(prior, 9)...)
		in := detectAnomaly(def, s, 2, 7)
		require.NotNil(t, in)
		assert.Equal(t, SeverityHigh, in.Severity)
	})

	t.Run("below mean direction", func(t *testing.T) {
		s := dailySeries(def.Key, append(prior, 2)...)
		in := detectAnomaly(def, s, 2, 7)
		require.NotNil(t, in)
		assert.Contains(t, in.Description, "below")
	})

	t.Run("within threshold", func(t *testing.T) {
		s := dailySeries(def.Key, append(prior, 6)...)
		assert.Nil(t, detectAnomaly(def, s, 2, 7))
	})

	t.Run("flat history", func(t *testing.T) {
		s := dailySeries(def.Key, 5, 5, 5, 5, 5, 5, 5, 5, 9)
		assert.Nil(t, detectAnomaly(def, s, 2, 7))
	})

	t.Run("insufficient history", func(t *testing.T) {
		s := dailySeries(def.Key, 4, 6, 4, 9)
		assert.Nil(t, detectAnomaly(def, s, 2, 7))
	})
}

func TestDetectTrend(t *testing.T) {
	sleep := mustLookup(t, metrics.Key{Pillar: metrics.PillarHealth, Metric: "sleep_hours"})
	stress := mustLookup(t, metrics.Key{Pillar: metrics.PillarHealth, Metric: "stress_level"})

	t.Run("rising higher-better is improving", func(t *testing.T) {
		s := dailySeries(sleep.Key, 5, 5, 5, 5, 7, 7, 7, 7)
		in := detectTrend(sleep, s, 0.15, 6)
		require.NotNil(t, in)
		assert.Equal(t, TypeTrend, in.Type)
		assert.Equal(t, SeverityInfo, in.Severity)
		assert.False(t, in.Actionable)
		assert.Contains(t, in.Title, "improving")
	})

	t.Run("rising lower-better is declining", func(t *testing.T) {
		s := dailySeries(stress.Key, 4, 4, 4, 4, 6, 6, 6, 6)
		in := detectTrend(stress, s, 0.15, 6)
		require.NotNil(t, in)
		assert.Equal(t, SeverityMedium, in.Severity)
		assert.True(t, in.Actionable)
		assert.Contains(t, in.Title, "declining")
	})

	t.Run("change under threshold", func(t *testing.T) {
		s := dailySeries(sleep.Key, 7, 7, 7, 7, 7.2, 7.2, 7.2, 7.2)
		assert.Nil(t, detectTrend(sleep, s, 0.15, 6))
	})

	t.Run("too few points", func(t *testing.T) {
		s := dailySeries(sleep.Key, 5, 5, 8, 8)
		assert.Nil(t, detectTrend(sleep, s, 0.15, 6))
	})
}

func TestDetectAchievement(t *testing.T) {
	exercise := mustLookup(t, metrics.Key{Pillar: metrics.PillarHealth, Metric: "exercise_minutes"})
	boundaries := mustLookup(t, metrics.Key{Pillar: metrics.PillarWorkLife, Metric: "boundary_violations"})
	mood := mustLookup(t, metrics.Key{Pillar: metrics.PillarHealth, Metric: "mood_score"})

	t.Run("streak met", func(t *testing.T) {
		s := dailySeries(exercise.Key, 35, 40, 30, 45, 30)
		in := detectAchievement(exercise, s)
		require.NotNil(t, in)
		assert.Equal(t, TypeAchievement, in.Type)
		assert.Equal(t, SeverityInfo, in.Severity)
		assert.Equal(t, 100.0, in.Confidence)
		assert.False(t, in.Actionable)
		assert.Contains(t, in.Title, "5-day")
	})

	t.Run("one day misses target", func(t *testing.T) {
		s := dailySeries(exercise.Key, 35, 40, 20, 45, 30)
		assert.Nil(t, detectAchievement(exercise, s))
	})

	t.Run("gap breaks the streak", func(t *testing.T) {
		s := dailySeries(exercise.Key, 35, 40, 30, 45)
		// Fifth sample lands two days after the fourth.
		last := s.Points[len(s.Points)-1].Date
		s.Points = append(s.Points, metrics.Point{Date: last.AddDate(0, 0, 2), Value: 50})
		assert.Nil(t, detectAchievement(exercise, s))
	})

	t.Run("lower-better target", func(t *testing.T) {
		s := dailySeries(boundaries.Key, 0, 0, 0, 0, 0, 0, 0)
		in := detectAchievement(boundaries, s)
		require.NotNil(t, in)
		assert.Contains(t, in.Title, "7-day")
	})

	t.Run("metric without streak config", func(t *testing.T) {
		s := dailySeries(mood.Key, 8, 8, 8, 8, 8, 8, 8)
		assert.Nil(t, detectAchievement(mood, s))
	})
}

func corr(k1, k2 metrics.Key, r float64, significant bool) *correlation.Correlation {
	return &correlation.Correlation{
		ID:            "c1",
		Pillar1:       k1.Pillar,
		Metric1:       k1.Metric,
		Pillar2:       k2.Pillar,
		Metric2:       k2.Metric,
		Coefficient:   r,
		PValue:        0.01,
		SampleSize:    30,
		Strength:      correlation.ClassifyStrength(r),
		Direction:     correlation.ClassifyDirection(r),
		Explanation:   correlation.Explain(k1, k2, r, 30),
		IsSignificant: significant,
	}
}

func TestFromCorrelation(t *testing.T) {
	sleep := metrics.Key{Pillar: metrics.PillarHealth, Metric: "sleep_quality"}
	focus := metrics.Key{Pillar: metrics.PillarProductivity, Metric: "focus_score"}
	workHours := metrics.Key{Pillar: metrics.PillarWorkLife, Metric: "work_hours"}

	t.Run("aligned pair surfaces as trend", func(t *testing.T) {
		in := fromCorrelation(corr(sleep, focus, 0.6, true))
		require.NotNil(t, in)
		assert.Equal(t, TypeTrend, in.Type)
		assert.Equal(t, SeverityMedium, in.Severity)
		assert.False(t, in.Actionable)
	})

	t.Run("strong adverse pair is a high warning", func(t *testing.T) {
		// work_hours is lower-better, so rising together with sleep quality
		// is a trade-off.
		in := fromCorrelation(corr(workHours, sleep, 0.8, true))
		require.NotNil(t, in)
		assert.Equal(t, TypeWarning, in.Type)
		assert.Equal(t, SeverityHigh, in.Severity)
		assert.True(t, in.Actionable)
	})

	t.Run("moderate adverse pair is a medium warning", func(t *testing.T) {
		in := fromCorrelation(corr(workHours, sleep, 0.5, true))
		require.NotNil(t, in)
		assert.Equal(t, TypeWarning, in.Type)
		assert.Equal(t, SeverityMedium, in.Severity)
	})

	t.Run("weak is skipped", func(t *testing.T) {
		assert.Nil(t, fromCorrelation(corr(sleep, focus, 0.2, true)))
	})

	t.Run("not significant is skipped", func(t *testing.T) {
		assert.Nil(t, fromCorrelation(corr(sleep, focus, 0.6, false)))
	})
}
