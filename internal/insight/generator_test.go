package insight

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/pillard/internal/correlation"
	"github.com/fyrsmithlabs/pillard/internal/metrics"
)

type stubSource struct {
	data map[string]metrics.Series
	errs map[string]error
}

func (s *stubSource) Fetch(_ context.Context, _ string, key metrics.Key, _, _ time.Time) (metrics.Series, error) {
	if err := s.errs[key.String()]; err != nil {
		return metrics.Series{}, err
	}
	return s.data[key.String()], nil
}

type stubStore struct {
	saved  []*Insight
	recent map[string]bool
	marked []string
}

func (s *stubStore) SaveInsights(_ context.Context, batch []*Insight) error {
	s.saved = append(s.saved, batch...)
	return nil
}

func (s *stubStore) ListInsights(_ context.Context, _ string, _ ListFilter) ([]*Insight, error) {
	return s.saved, nil
}

func (s *stubStore) MarkInsightRead(_ context.Context, _, id string) error {
	s.marked = append(s.marked, id)
	return nil
}

func (s *stubStore) HasRecentInsight(_ context.Context, _ string, typ Type, pillar metrics.Pillar, metricName string, _ time.Time) (bool, error) {
	return s.recent[string(typ)+"|"+string(pillar)+"|"+metricName], nil
}

type stubLister struct {
	corrs []*correlation.Correlation
	err   error
}

func (s *stubLister) List(context.Context, string, int) ([]*correlation.Correlation, error) {
	return s.corrs, s.err
}

func TestGenerate_SurfacesAchievement(t *testing.T) {
	exercise := metrics.Key{Pillar: metrics.PillarHealth, Metric: "exercise_minutes"}
	source := &stubSource{data: map[string]metrics.Series{
		exercise.String(): dailySeries(exercise, 35, 40, 30, 45, 30),
	}}
	store := &stubStore{recent: map[string]bool{}}

	gen, err := NewGenerator(nil, source, store, nil, nil)
	require.NoError(t, err)

	out, partial, err := gen.Generate(context.Background(), "u1", PeriodDaily)
	require.NoError(t, err)
	assert.False(t, partial)
	require.Len(t, out, 1)

	in := out[0]
	assert.Equal(t, TypeAchievement, in.Type)
	assert.Equal(t, "u1", in.UserID)
	assert.Equal(t, PeriodDaily, in.TimePeriod)
	assert.NotEmpty(t, in.ID)
	assert.False(t, in.CreatedAt.IsZero())
	assert.Equal(t, out, store.saved)
}

func TestGenerate_DedupSuppressesRecent(t *testing.T) {
	exercise := metrics.Key{Pillar: metrics.PillarHealth, Metric: "exercise_minutes"}
	source := &stubSource{data: map[string]metrics.Series{
		exercise.String(): dailySeries(exercise, 35, 40, 30, 45, 30),
	}}
	store := &stubStore{recent: map[string]bool{
		"achievement|health|exercise_minutes": true,
	}}

	gen, err := NewGenerator(nil, source, store, nil, nil)
	require.NoError(t, err)

	out, partial, err := gen.Generate(context.Background(), "u1", PeriodDaily)
	require.NoError(t, err)
	assert.False(t, partial)
	assert.Empty(t, out)
	assert.Empty(t, store.saved)
}

func TestGenerate_IncludesCorrelationInsights(t *testing.T) {
	sleep := metrics.Key{Pillar: metrics.PillarHealth, Metric: "sleep_quality"}
	workHours := metrics.Key{Pillar: metrics.PillarWorkLife, Metric: "work_hours"}

	source := &stubSource{data: map[string]metrics.Series{}}
	store := &stubStore{recent: map[string]bool{}}
	lister := &stubLister{corrs: []*correlation.Correlation{
		corr(workHours, sleep, 0.8, true),
		corr(sleep, workHours, 0.1, true), // weak, dropped
	}}

	gen, err := NewGenerator(nil, source, store, lister, nil)
	require.NoError(t, err)

	out, partial, err := gen.Generate(context.Background(), "u1", PeriodWeekly)
	require.NoError(t, err)
	assert.False(t, partial)
	require.Len(t, out, 1)
	assert.Equal(t, TypeWarning, out[0].Type)
	assert.Equal(t, PeriodWeekly, out[0].TimePeriod)
}

func TestGenerate_UnavailableSourceMarksPartial(t *testing.T) {
	sleep := metrics.Key{Pillar: metrics.PillarHealth, Metric: "sleep_hours"}
	source := &stubSource{
		data: map[string]metrics.Series{},
		errs: map[string]error{sleep.String(): errors.New("pillar down")},
	}
	store := &stubStore{recent: map[string]bool{}}

	gen, err := NewGenerator(nil, source, store, nil, nil)
	require.NoError(t, err)

	out, partial, err := gen.Generate(context.Background(), "u1", PeriodDaily)
	require.NoError(t, err)
	assert.True(t, partial)
	assert.Empty(t, out)
}

func TestGenerate_CorrelationListerFailureIsPartial(t *testing.T) {
	source := &stubSource{data: map[string]metrics.Series{}}
	store := &stubStore{recent: map[string]bool{}}
	lister := &stubLister{err: errors.New("store down")}

	gen, err := NewGenerator(nil, source, store, lister, nil)
	require.NoError(t, err)

	out, partial, err := gen.Generate(context.Background(), "u1", PeriodDaily)
	require.NoError(t, err)
	assert.True(t, partial)
	assert.Empty(t, out)
}

func TestMarkRead(t *testing.T) {
	store := &stubStore{recent: map[string]bool{}}
	gen, err := NewGenerator(nil, &stubSource{}, store, nil, nil)
	require.NoError(t, err)

	require.NoError(t, gen.MarkRead(context.Background(), "u1", "in-1"))
	assert.Equal(t, []string{"in-1"}, store.marked)
}

func TestSeverityRank(t *testing.T) {
	assert.Greater(t, SeverityCritical.Rank(), SeverityHigh.Rank())
	assert.Greater(t, SeverityHigh.Rank(), SeverityMedium.Rank())
	assert.Greater(t, SeverityMedium.Rank(), SeverityLow.Rank())
	assert.Greater(t, SeverityLow.Rank(), SeverityInfo.Rank())
}

func TestTimePeriodDays(t *testing.T) {
	assert.Equal(t, 1, PeriodDaily.Days())
	assert.Equal(t, 7, PeriodWeekly.Days())
	assert.Equal(t, 30, PeriodMonthly.Days())
}
