package correlation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/pillard/internal/metrics"
)

type fakeSource struct {
	data map[string]metrics.Series
	errs map[string]error
}

func (f *fakeSource) Fetch(_ context.Context, _ string, key metrics.Key, _, _ time.Time) (metrics.Series, error) {
	if err := f.errs[key.String()]; err != nil {
		return metrics.Series{}, err
	}
	return f.data[key.String()], nil
}

type fakeStore struct {
	batchID string
	saved   []*Correlation
}

func (f *fakeStore) SaveCorrelationBatch(_ context.Context, _, batchID string, batch []*Correlation) error {
	f.batchID = batchID
	f.saved = batch
	return nil
}

func (f *fakeStore) LatestCorrelations(_ context.Context, _ string, _ int) ([]*Correlation, error) {
	return f.saved, nil
}

func series(key metrics.Key, values ...float64) metrics.Series {
	s := metrics.Series{Key: key}
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i, v := range values {
		s.Points = append(s.Points, metrics.Point{Date: base.AddDate(0, 0, i), Value: v})
	}
	return s
}

func TestClassifyStrength(t *testing.T) {
	tests := []struct {
		coefficient float64
		want        Strength
	}{
		{0.1, StrengthWeak},
		{-0.29, StrengthWeak},
		{0.3, StrengthModerate},
		{-0.45, StrengthModerate},
		{0.7, StrengthModerate},
		{0.71, StrengthStrong},
		{-0.95, StrengthStrong},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyStrength(tt.coefficient), "r=%v", tt.coefficient)
	}
}

func TestClassifyDirection(t *testing.T) {
	assert.Equal(t, DirectionPositive, ClassifyDirection(0.5))
	assert.Equal(t, DirectionNegative, ClassifyDirection(-0.5))
	assert.Equal(t, DirectionNegative, ClassifyDirection(0))
}

func TestExplain(t *testing.T) {
	k1 := metrics.Key{Pillar: metrics.PillarHealth, Metric: "sleep_quality"}
	k2 := metrics.Key{Pillar: metrics.PillarProductivity, Metric: "focus_score"}

	out := Explain(k1, k2, 0.82, 34)
	assert.Contains(t, out, "Strong positive")
	assert.Contains(t, out, "health.sleep_quality")
	assert.Contains(t, out, "34 shared days")
}

func TestAnalyze_FindsSignificantPair(t *testing.T) {
	sleep := metrics.Key{Pillar: metrics.PillarHealth, Metric: "sleep_quality"}
	focus := metrics.Key{Pillar: metrics.PillarProductivity, Metric: "focus_score"}

	sleepVals := []float64{4, 5, 6, 7, 8, 5, 6, 7, 4, 8, 6, 5, 7, 6, 8}
	focusVals := make([]float64, len(sleepVals))
	for i, v := range sleepVals {
		focusVals[i] = v - 1
	}

	source := &fakeSource{data: map[string]metrics.Series{
		sleep.String(): series(sleep, sleepVals...),
		focus.String(): series(focus, focusVals...),
	}}
	store := &fakeStore{}

	engine, err := NewEngine(nil, source, store, nil)
	require.NoError(t, err)

	batch, partial, err := engine.Analyze(context.Background(), "u1",
		[]metrics.Pillar{metrics.PillarHealth, metrics.PillarProductivity})
	require.NoError(t, err)
	assert.False(t, partial)
	require.Len(t, batch, 1)

	c := batch[0]
	assert.InDelta(t, 1.0, c.Coefficient, 1e-9)
	assert.Equal(t, StrengthStrong, c.Strength)
	assert.Equal(t, DirectionPositive, c.Direction)
	assert.Equal(t, 15, c.SampleSize)
	assert.True(t, c.IsSignificant)
	assert.Equal(t, store.batchID, c.BatchID)
}

func TestAnalyze_SkipsInsufficientSamples(t *testing.T) {
	sleep := metrics.Key{Pillar: metrics.PillarHealth, Metric: "sleep_quality"}
	focus := metrics.Key{Pillar: metrics.PillarProductivity, Metric: "focus_score"}

	source := &fakeSource{data: map[string]metrics.Series{
		sleep.String(): series(sleep, 4, 5, 6, 7, 8),
		focus.String(): series(focus, 3, 4, 5, 6, 7),
	}}
	store := &fakeStore{}

	engine, err := NewEngine(nil, source, store, nil)
	require.NoError(t, err)

	batch, partial, err := engine.Analyze(context.Background(), "u1",
		[]metrics.Pillar{metrics.PillarHealth, metrics.PillarProductivity})
	require.NoError(t, err)
	assert.False(t, partial)
	assert.Empty(t, batch, "5 shared days is under the minimum sample size")
}

func TestAnalyze_SkipsZeroVariance(t *testing.T) {
	sleep := metrics.Key{Pillar: metrics.PillarHealth, Metric: "sleep_quality"}
	focus := metrics.Key{Pillar: metrics.PillarProductivity, Metric: "focus_score"}

	constant := make([]float64, 15)
	varying := make([]float64, 15)
	for i := range constant {
		constant[i] = 5
		varying[i] = float64(i % 4)
	}

	source := &fakeSource{data: map[string]metrics.Series{
		sleep.String(): series(sleep, constant...),
		focus.String(): series(focus, varying...),
	}}
	store := &fakeStore{}

	engine, err := NewEngine(nil, source, store, nil)
	require.NoError(t, err)

	batch, partial, err := engine.Analyze(context.Background(), "u1",
		[]metrics.Pillar{metrics.PillarHealth, metrics.PillarProductivity})
	require.NoError(t, err)
	assert.False(t, partial)
	assert.Empty(t, batch)
}

func TestAnalyze_UnavailableSourceMarksPartial(t *testing.T) {
	sleep := metrics.Key{Pillar: metrics.PillarHealth, Metric: "sleep_quality"}

	source := &fakeSource{
		data: map[string]metrics.Series{},
		errs: map[string]error{sleep.String(): errors.New("pillar down")},
	}
	store := &fakeStore{}

	engine, err := NewEngine(nil, source, store, nil)
	require.NoError(t, err)

	batch, partial, err := engine.Analyze(context.Background(), "u1",
		[]metrics.Pillar{metrics.PillarHealth, metrics.PillarProductivity})
	require.NoError(t, err)
	assert.True(t, partial)
	assert.Empty(t, batch)
	assert.NotEmpty(t, store.batchID, "batch is still committed")
}

func TestNewEngine_Validation(t *testing.T) {
	_, err := NewEngine(nil, nil, &fakeStore{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "metric source is required")

	_, err = NewEngine(nil, &fakeSource{}, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store is required")
}
