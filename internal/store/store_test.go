package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/pillard/internal/briefing"
	"github.com/fyrsmithlabs/pillard/internal/correlation"
	"github.com/fyrsmithlabs/pillard/internal/insight"
	"github.com/fyrsmithlabs/pillard/internal/metrics"
	"github.com/fyrsmithlabs/pillard/internal/predict"
	"github.com/fyrsmithlabs/pillard/internal/recommend"
)

// The shared-cache in-memory database outlives a single Open, so every
// test works under its own user ID.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestIngestAndFetch(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	sleep := metrics.Key{Pillar: metrics.PillarHealth, Metric: "sleep_hours"}

	day1 := time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 8, 2, 8, 0, 0, 0, time.UTC)

	err := s.IngestSamples(ctx, "u-fetch", []Sample{
		{Key: sleep, Value: 7, RecordedAt: day1},
		{Key: sleep, Value: 9, RecordedAt: day1.Add(2 * time.Hour)}, // same day
		{Key: sleep, Value: 6, RecordedAt: day2},
	})
	require.NoError(t, err)

	series, err := s.Fetch(ctx, "u-fetch", sleep,
		time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, 2, series.Len())

	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), series.Points[0].Date)
	assert.InDelta(t, 8, series.Points[0].Value, 1e-9, "same-day samples are averaged")
	assert.InDelta(t, 6, series.Points[1].Value, 1e-9)
}

func TestFetch_WindowIsHalfOpen(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	sleep := metrics.Key{Pillar: metrics.PillarHealth, Metric: "sleep_hours"}

	err := s.IngestSamples(ctx, "u-window", []Sample{
		{Key: sleep, Value: 7, RecordedAt: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)},
		{Key: sleep, Value: 8, RecordedAt: time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC)},
	})
	require.NoError(t, err)

	series, err := s.Fetch(ctx, "u-window", sleep,
		time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, 1, series.Len(), "the upper bound is exclusive")
	assert.InDelta(t, 7, series.Points[0].Value, 1e-9)
}

func TestIngestSamples_RejectsUnknownMetric(t *testing.T) {
	s := openTestStore(t)

	err := s.IngestSamples(context.Background(), "u-bad", []Sample{
		{Key: metrics.Key{Pillar: metrics.PillarHealth, Metric: "nope"}, Value: 1, RecordedAt: time.Now()},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown metric")
}

func TestListUsers(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	sleep := metrics.Key{Pillar: metrics.PillarHealth, Metric: "sleep_hours"}

	require.NoError(t, s.IngestSamples(ctx, "u-list-b", []Sample{{Key: sleep, Value: 7, RecordedAt: time.Now()}}))
	require.NoError(t, s.IngestSamples(ctx, "u-list-a", []Sample{{Key: sleep, Value: 7, RecordedAt: time.Now()}}))

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Contains(t, users, "u-list-a")
	assert.Contains(t, users, "u-list-b")
}

func testCorrelation(id, batchID string, r float64, discoveredAt time.Time) *correlation.Correlation {
	return &correlation.Correlation{
		ID:            id,
		BatchID:       batchID,
		Pillar1:       metrics.PillarHealth,
		Metric1:       "sleep_quality",
		Pillar2:       metrics.PillarProductivity,
		Metric2:       "focus_score",
		Coefficient:   r,
		PValue:        0.01,
		SampleSize:    20,
		Strength:      correlation.ClassifyStrength(r),
		Direction:     correlation.ClassifyDirection(r),
		Explanation:   "linked",
		IsSignificant: true,
		DiscoveredAt:  discoveredAt,
	}
}

func TestLatestCorrelations_NewestBatchWins(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.SaveCorrelationBatch(ctx, "u-corr", "batch-1", []*correlation.Correlation{
		testCorrelation("c1", "batch-1", 0.9, now.Add(-time.Hour)),
	}))
	require.NoError(t, s.SaveCorrelationBatch(ctx, "u-corr", "batch-2", []*correlation.Correlation{
		testCorrelation("c2", "batch-2", 0.4, now),
		testCorrelation("c3", "batch-2", -0.8, now),
	}))

	out, err := s.LatestCorrelations(ctx, "u-corr", 90)
	require.NoError(t, err)
	require.Len(t, out, 2, "only the latest batch is returned")

	assert.Equal(t, "c3", out[0].ID, "ordered by absolute coefficient")
	assert.Equal(t, "c2", out[1].ID)
	assert.Equal(t, correlation.StrengthStrong, out[0].Strength)
	assert.True(t, out[0].IsSignificant)
}

func TestLatestCorrelations_NoBatches(t *testing.T) {
	s := openTestStore(t)

	out, err := s.LatestCorrelations(context.Background(), "u-corr-none", 90)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func testInsight(id, userID string, typ insight.Type, createdAt time.Time) *insight.Insight {
	return &insight.Insight{
		ID:             id,
		UserID:         userID,
		Type:           typ,
		Pillar:         metrics.PillarHealth,
		Metric:         "sleep_hours",
		Title:          "title",
		Description:    "description",
		Severity:       insight.SeverityMedium,
		Confidence:     80,
		SupportingData: map[string]float64{"sigma": 2.5},
		TimePeriod:     insight.PeriodDaily,
		Actionable:     true,
		CreatedAt:      createdAt,
	}
}

func TestInsights_SaveListMarkRead(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.SaveInsights(ctx, []*insight.Insight{
		testInsight("i1", "u-ins", insight.TypeAnomaly, now.Add(-time.Hour)),
		testInsight("i2", "u-ins", insight.TypeTrend, now),
	}))

	out, err := s.ListInsights(ctx, "u-ins", insight.ListFilter{})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "i2", out[0].ID, "newest first")
	assert.Equal(t, insight.TypeTrend, out[0].Type)
	assert.InDelta(t, 2.5, out[0].SupportingData["sigma"], 1e-9)
	assert.True(t, out[0].Actionable)
	assert.False(t, out[0].IsRead)

	require.NoError(t, s.MarkInsightRead(ctx, "u-ins", "i1"))

	unread, err := s.ListInsights(ctx, "u-ins", insight.ListFilter{UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, "i2", unread[0].ID)
}

func TestMarkInsightRead_NotFound(t *testing.T) {
	s := openTestStore(t)

	err := s.MarkInsightRead(context.Background(), "u-ins-nf", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestHasRecentInsight(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.SaveInsights(ctx, []*insight.Insight{
		testInsight("i-dedup", "u-dedup", insight.TypeAnomaly, now.Add(-2*time.Hour)),
	}))

	exists, err := s.HasRecentInsight(ctx, "u-dedup", insight.TypeAnomaly, metrics.PillarHealth, "sleep_hours", now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = s.HasRecentInsight(ctx, "u-dedup", insight.TypeAnomaly, metrics.PillarHealth, "sleep_hours", now.Add(-time.Hour))
	require.NoError(t, err)
	assert.False(t, exists, "older than the window")

	exists, err = s.HasRecentInsight(ctx, "u-dedup", insight.TypeTrend, metrics.PillarHealth, "sleep_hours", now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.False(t, exists, "different type")
}

func testRecommendation(id, userID string, priority int, status recommend.Status, createdAt time.Time) *recommend.Recommendation {
	return &recommend.Recommendation{
		ID:              id,
		UserID:          userID,
		Pillar:          metrics.PillarHealth,
		Category:        "sleep",
		Title:           "Improve your sleep routine",
		Description:     "desc",
		ActionItems:     []string{"one", "two"},
		Priority:        priority,
		ExpectedImpact:  recommend.ImpactHigh,
		EstimatedEffort: recommend.EffortLow,
		Quadrant:        recommend.QuadrantQuickWin,
		Reasoning:       "because",
		Status:          status,
		CreatedAt:       createdAt,
	}
}

func TestRecommendations_SaveListUpdate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.SaveRecommendations(ctx, []*recommend.Recommendation{
		testRecommendation("r1", "u-rec", 3, recommend.StatusPending, now.Add(-time.Hour)),
		testRecommendation("r2", "u-rec", 5, recommend.StatusPending, now),
	}))

	out, err := s.ListRecommendations(ctx, "u-rec", recommend.ListFilter{Status: recommend.StatusPending})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "r2", out[0].ID, "highest priority first")
	assert.Equal(t, []string{"one", "two"}, out[0].ActionItems)
	assert.Nil(t, out[0].CompletedAt)

	completedAt := now
	require.NoError(t, s.UpdateRecommendationStatus(ctx, "u-rec", "r1", recommend.StatusCompleted, "done", &completedAt))

	pending, err := s.ListRecommendations(ctx, "u-rec", recommend.ListFilter{Status: recommend.StatusPending})
	require.NoError(t, err)
	require.Len(t, pending, 1)

	completed, err := s.ListRecommendations(ctx, "u-rec", recommend.ListFilter{Status: recommend.StatusCompleted})
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, "done", completed[0].Outcome)
	require.NotNil(t, completed[0].CompletedAt)
}

func TestUpdateRecommendationStatus_NotFound(t *testing.T) {
	s := openTestStore(t)

	err := s.UpdateRecommendationStatus(context.Background(), "u-rec-nf", "missing", recommend.StatusAccepted, "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestHasPendingRecommendation(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveRecommendations(ctx, []*recommend.Recommendation{
		testRecommendation("r-block", "u-pending", 3, recommend.StatusPending, time.Now().UTC()),
	}))

	blocked, err := s.HasPendingRecommendation(ctx, "u-pending", metrics.PillarHealth, "sleep")
	require.NoError(t, err)
	assert.True(t, blocked)

	blocked, err = s.HasPendingRecommendation(ctx, "u-pending", metrics.PillarHealth, "exercise")
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestReplacePredictions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()
	predicted := now.AddDate(0, 0, 14)

	first := &predict.Prediction{
		ID: "p1", Type: predict.TypeBurnout, Pillar: metrics.PillarWorkLife,
		TargetMetric: "burnout_risk", CurrentValue: 28, PredictedValue: 30.8,
		TargetDate: now.AddDate(0, 0, 30), ConfidenceLevel: 75,
		Factors:        map[string]float64{"avg_daily_work_hours": 10},
		TrendDirection: predict.TrendStable, Likelihood: predict.LikelihoodLow,
		Suggestions: []string{"rest"}, CreatedAt: now,
	}
	require.NoError(t, s.ReplacePredictions(ctx, "u-pred", predict.TypeBurnout, []*predict.Prediction{first}))

	second := &predict.Prediction{
		ID: "p2", Type: predict.TypeBurnout, Pillar: metrics.PillarWorkLife,
		TargetMetric: "burnout_risk", CurrentValue: 40, PredictedValue: 44,
		TargetDate: now.AddDate(0, 0, 30), PredictedDate: &predicted,
		ConfidenceLevel: 75, TrendDirection: predict.TrendDeclining,
		Likelihood: predict.LikelihoodMedium, CreatedAt: now,
	}
	require.NoError(t, s.ReplacePredictions(ctx, "u-pred", predict.TypeBurnout, []*predict.Prediction{second}))

	out, err := s.ListPredictions(ctx, "u-pred", predict.TypeBurnout)
	require.NoError(t, err)
	require.Len(t, out, 1, "replace drops the previous set")
	assert.Equal(t, "p2", out[0].ID)
	require.NotNil(t, out[0].PredictedDate)
	assert.Equal(t, predict.LikelihoodMedium, out[0].Likelihood)
}

func TestListPredictions_TypeFilter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	burnout := &predict.Prediction{
		ID: "p-b", Type: predict.TypeBurnout, Pillar: metrics.PillarWorkLife,
		TargetMetric: "burnout_risk", TargetDate: now, TrendDirection: predict.TrendStable,
		Likelihood: predict.LikelihoodLow, CreatedAt: now,
	}
	health := &predict.Prediction{
		ID: "p-h", Type: predict.TypeHealthTrend, Pillar: metrics.PillarHealth,
		TargetMetric: "sleep_quality", TargetDate: now, TrendDirection: predict.TrendImproving,
		Likelihood: predict.LikelihoodHigh, CreatedAt: now,
	}
	require.NoError(t, s.ReplacePredictions(ctx, "u-pred-f", predict.TypeBurnout, []*predict.Prediction{burnout}))
	require.NoError(t, s.ReplacePredictions(ctx, "u-pred-f", predict.TypeHealthTrend, []*predict.Prediction{health}))

	all, err := s.ListPredictions(ctx, "u-pred-f", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	only, err := s.ListPredictions(ctx, "u-pred-f", predict.TypeHealthTrend)
	require.NoError(t, err)
	require.Len(t, only, 1)
	assert.Equal(t, "p-h", only[0].ID)
}

func TestDailyBriefing_UpsertIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	day := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

	_, err := s.GetDailyBriefing(ctx, "u-brief", day)
	assert.ErrorIs(t, err, briefing.ErrNotFound)

	b := &briefing.DailyBriefing{
		UserID: "u-brief", Date: day, Summary: "first",
		KeyMetrics: map[metrics.Pillar][]briefing.KeyMetric{}, GeneratedAt: time.Now().UTC(),
	}
	require.NoError(t, s.UpsertDailyBriefing(ctx, b))

	b.Summary = "second"
	require.NoError(t, s.UpsertDailyBriefing(ctx, b))

	got, err := s.GetDailyBriefing(ctx, "u-brief", day)
	require.NoError(t, err)
	assert.Equal(t, "second", got.Summary, "rerun replaces the stored document")
	assert.Equal(t, "u-brief", got.UserID)
}

func TestWeeklyReview_UpsertGetLatest(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	week1 := time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC)
	week2 := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)

	_, err := s.LatestWeeklyReview(ctx, "u-review")
	assert.ErrorIs(t, err, briefing.ErrNotFound)

	for _, ws := range []time.Time{week1, week2} {
		r := &briefing.WeeklyReview{
			UserID: "u-review", WeekStart: ws, WeekEnd: ws.AddDate(0, 0, 6),
			OverallScore:     70,
			ExecutiveSummary: "week of " + ws.Format("2006-01-02"),
			Pillars:          map[metrics.Pillar]briefing.PillarSummary{},
			Trends:           map[metrics.Pillar]float64{},
			GeneratedAt:      time.Now().UTC(),
		}
		require.NoError(t, s.UpsertWeeklyReview(ctx, r))
	}

	got, err := s.GetWeeklyReview(ctx, "u-review", week1)
	require.NoError(t, err)
	assert.Equal(t, week1, got.WeekStart)

	latest, err := s.LatestWeeklyReview(ctx, "u-review")
	require.NoError(t, err)
	assert.Equal(t, week2, latest.WeekStart)
}
