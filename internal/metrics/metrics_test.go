package metrics

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	rates = []float64{0, 1, 3, 2, 0, 5, 4, 1}
	noisy = []float64{0.5, 1.2, 2.5, 2.2, 0.1, 4.1, 4.4, 0.9}
)

func TestCorrelation(t *testing.T) {
	assert.InDelta(t, 1.0, Correlation(rates, rates), 1e-12)

	negated := make([]float64, len(rates))
	for i, v := range rates {
		negated[i] = -2 * v
	}
	assert.InDelta(t, -1.0, Correlation(rates, negated), 1e-12)

	cc := Correlation(rates, noisy)
	assert.Greater(t, cc, 0.9)
	assert.Less(t, cc, 1.0)

	assert.True(t, math.IsNaN(Correlation([]float64{2, 2, 2}, []float64{1, 2, 3})))
}

func TestRootMeanSquaredError(t *testing.T) {
	assert.Equal(t, 0.0, RootMeanSquaredError(rates, rates))
	assert.InDelta(t, 2.0, RootMeanSquaredError([]float64{1, 1, 1, 1}, []float64{3, -1, 3, -1}), 1e-12)
}

func TestFractionExplainedVariance(t *testing.T) {
	assert.InDelta(t, 1.0, FractionExplainedVariance(rates, rates), 1e-12)

	// Predicting the mean explains nothing.
	mean := make([]float64, len(rates))
	for i := range mean {
		mean[i] = 2
	}
	assert.InDelta(t, 0.0, FractionExplainedVariance(rates, mean), 1e-12)

	assert.True(t, math.IsInf(FractionExplainedVariance([]float64{1, 1}, []float64{0, 2}), -1))
}

func TestLogLikelihoodImprovement(t *testing.T) {
	// Predicting the mean rate is the null model.
	mean := make([]float64, len(rates))
	for i := range mean {
		mean[i] = 2
	}
	assert.InDelta(t, 0.0, LogLikelihoodImprovement(rates, mean), 1e-12)

	assert.Greater(t, LogLikelihoodImprovement(rates, noisy), 0.0)

	// Zero predictions are clamped, not -Inf.
	zeros := make([]float64, len(rates))
	assert.False(t, math.IsInf(LogLikelihoodImprovement(rates, zeros), 0))

	assert.True(t, math.IsNaN(LogLikelihoodImprovement([]float64{0, 0}, []float64{1, 1})))
}

func TestLengthMismatchPanics(t *testing.T) {
	assert.Panics(t, func() { Correlation([]float64{1, 2}, []float64{1}) })
	assert.Panics(t, func() { RootMeanSquaredError([]float64{1, 2}, []float64{1}) })
}

func TestLookup(t *testing.T) {
	for _, name := range Names() {
		f, err := Lookup(string(name))
		require.NoError(t, err, name)
		require.NotNil(t, f)
	}
	assert.Equal(t, []Name{CC, FEV, LLI, RMSE}, Names())

	f, err := Lookup("cc")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, f(rates, rates), 1e-12)

	_, err = Lookup("bogus")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownMetric))

	var unknown *UnknownMetricError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "bogus", unknown.Name)
	assert.Contains(t, err.Error(), "cc, fev, lli, rmse")
}
