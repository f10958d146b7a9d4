package fitting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinearExactFit(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5}
	ys := []float64{5, 7, 9, 11, 13} // y = 2x + 3

	fit, err := Linear(xs, ys)
	require.NoError(t, err)
	assert.InDelta(t, 2, fit.Slope, 1e-9)
	assert.InDelta(t, 3, fit.Intercept, 1e-9)
	assert.InDelta(t, 1, fit.RSquared, 1e-9)
	assert.InDelta(t, 23, fit.Predict(10), 1e-9)
}

func TestLinearNoisyFit(t *testing.T) {
	xs := []float64{1, 2, 3, 4}
	ys := []float64{2.1, 3.9, 6.2, 7.8} // roughly y = 2x

	fit, err := Linear(xs, ys)
	require.NoError(t, err)
	assert.InDelta(t, 2, fit.Slope, 0.1)
	assert.Greater(t, fit.RSquared, 0.99)
}

func TestLinearTooFewSamples(t *testing.T) {
	_, err := Linear([]float64{1}, []float64{2})
	assert.ErrorIs(t, err, ErrTooFewSamples)

	_, err = Linear([]float64{1, 2, 3}, []float64{1, 2})
	assert.ErrorIs(t, err, ErrTooFewSamples)
}

func TestQuadraticExactFit(t *testing.T) {
	xs := []float64{-2, -1, 0, 1, 2, 3}
	ys := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = 1.5*x*x - 2*x + 4
	}

	fit, err := Quadratic(xs, ys)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, fit.A, 1e-9)
	assert.InDelta(t, -2, fit.B, 1e-9)
	assert.InDelta(t, 4, fit.C, 1e-9)
	assert.InDelta(t, 1, fit.RSquared, 1e-9)
	assert.InDelta(t, 1.5*16-2*4+4, fit.Predict(4), 1e-9)
}

func TestQuadraticTooFewSamples(t *testing.T) {
	_, err := Quadratic([]float64{1, 2}, []float64{1, 4})
	assert.ErrorIs(t, err, ErrTooFewSamples)
}

func TestCorrelation(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5}
	up := []float64{2, 4, 6, 8, 10}
	down := []float64{10, 8, 6, 4, 2}

	assert.InDelta(t, 1, Correlation(xs, up), 1e-9)
	assert.InDelta(t, -1, Correlation(xs, down), 1e-9)
}
