package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMean(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 2.0, Mean([]float64{1, 2, 3}))
}

func TestStdDev(t *testing.T) {
	assert.Equal(t, 0.0, StdDev([]float64{5, 5, 5}))
	assert.InDelta(t, 2.0, StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 1e-9)
}

func TestPearson_PerfectCorrelation(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{2, 4, 6, 8, 10}

	r, ok := Pearson(x, y)
	require.True(t, ok)
	assert.InDelta(t, 1.0, r, 1e-9)

	yInv := []float64{10, 8, 6, 4, 2}
	r, ok = Pearson(x, yInv)
	require.True(t, ok)
	assert.InDelta(t, -1.0, r, 1e-9)
}

func TestPearson_KnownValue(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 6}
	y := []float64{2, 1, 4, 3, 7, 5}

	r, ok := Pearson(x, y)
	require.True(t, ok)
	assert.InDelta(t, 0.7918, r, 1e-3)
}

func TestPearson_Degenerate(t *testing.T) {
	_, ok := Pearson([]float64{1, 2}, []float64{1})
	assert.False(t, ok, "length mismatch")

	_, ok = Pearson([]float64{1}, []float64{1})
	assert.False(t, ok, "too short")

	_, ok = Pearson([]float64{3, 3, 3}, []float64{1, 2, 3})
	assert.False(t, ok, "zero variance")
}

func TestPearsonPValue(t *testing.T) {
	// Strong correlation over a decent sample is significant.
	p := PearsonPValue(0.9, 20)
	assert.Less(t, p, 0.001)

	// Weak correlation over a small sample is not.
	p = PearsonPValue(0.1, 12)
	assert.Greater(t, p, 0.5)

	// Perfect correlation degenerates to zero.
	assert.Equal(t, 0.0, PearsonPValue(1, 10))

	// Too few points for the t distribution.
	assert.Equal(t, 1.0, PearsonPValue(0.9, 2))
}

func TestPearsonPValue_KnownValue(t *testing.T) {
	// r = 0.5, n = 30: t ~ 3.06, two-tailed p ~ 0.0049.
	p := PearsonPValue(0.5, 30)
	assert.InDelta(t, 0.0049, p, 0.001)
}

func TestLinearRegression(t *testing.T) {
	x := []float64{0, 1, 2, 3, 4}
	y := []float64{1, 3, 5, 7, 9}

	fit, ok := LinearRegression(x, y)
	require.True(t, ok)
	assert.InDelta(t, 2.0, fit.Slope, 1e-9)
	assert.InDelta(t, 1.0, fit.Intercept, 1e-9)
	assert.InDelta(t, 1.0, fit.R2, 1e-9)
	assert.InDelta(t, 0.0, fit.ResidualStd, 1e-9)
}

func TestLinearRegression_Degenerate(t *testing.T) {
	_, ok := LinearRegression([]float64{1}, []float64{1})
	assert.False(t, ok)

	// Identical x values have no defined slope.
	_, ok = LinearRegression([]float64{2, 2, 2}, []float64{1, 2, 3})
	assert.False(t, ok)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 5.0, Clamp(5, 0, 10))
	assert.Equal(t, 0.0, Clamp(-1, 0, 10))
	assert.Equal(t, 10.0, Clamp(11, 0, 10))
}
