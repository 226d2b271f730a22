// Package metrics implements the goodness-of-fit scores used to compare
// recorded and predicted firing rates of a single cell.
//
// Every metric is a pure function of two equal-length sequences: the true
// response r and the model prediction rhat. The set of metrics is closed and
// resolved by name through Lookup.
//
// Degenerate inputs are not guarded. A response with zero variance gives NaN
// under cc and -Inf or NaN under fev. Sequences of different lengths panic.
package metrics

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Name identifies a metric.
type Name string

// Supported metrics.
const (
	CC   Name = "cc"   // Pearson correlation coefficient
	LLI  Name = "lli"  // Log-likelihood improvement, bits per spike
	RMSE Name = "rmse" // Root mean squared error
	FEV  Name = "fev"  // Fraction of explained variance
)

// MinRate is the floor applied to predicted rates before taking logarithms.
const MinRate = 1e-12

// Func scores a prediction rhat against the true response r.
type Func func(r, rhat []float64) float64

// ErrUnknownMetric is matched by every lookup failure.
var ErrUnknownMetric = errors.New("unknown metric")

// UnknownMetricError reports a metric name outside the supported set.
type UnknownMetricError struct {
	Name string
}

// Error implements the error interface.
func (e *UnknownMetricError) Error() string {
	return fmt.Sprintf("%s %q (supported: %s)", ErrUnknownMetric, e.Name, strings.Join(names(), ", "))
}

// Is makes errors.Is(err, ErrUnknownMetric) succeed.
func (e *UnknownMetricError) Is(target error) bool {
	return target == ErrUnknownMetric
}

var registry = map[Name]Func{
	CC:   Correlation,
	LLI:  LogLikelihoodImprovement,
	RMSE: RootMeanSquaredError,
	FEV:  FractionExplainedVariance,
}

// Lookup resolves a metric name.
func Lookup(name string) (Func, error) {
	f, ok := registry[Name(name)]
	if !ok {
		return nil, &UnknownMetricError{Name: name}
	}
	return f, nil
}

// Names returns the supported metric names in sorted order.
func Names() []Name {
	out := make([]Name, 0, len(registry))
	for n := range registry {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func names() []string {
	ns := Names()
	out := make([]string, len(ns))
	for i, n := range ns {
		out[i] = string(n)
	}
	return out
}

// Correlation returns the Pearson correlation coefficient of r and rhat.
func Correlation(r, rhat []float64) float64 {
	checkLen(r, rhat)
	return stat.Correlation(r, rhat, nil)
}

// LogLikelihoodImprovement returns the Poisson log-likelihood of rhat minus
// that of a constant model predicting the mean rate of r, in bits per spike.
//
// Predicted rates are clamped to MinRate. A silent cell (mean rate 0)
// gives NaN.
func LogLikelihoodImprovement(r, rhat []float64) float64 {
	checkLen(r, rhat)
	mu := stat.Mean(r, nil)

	var model, null float64
	for i, ri := range r {
		rh := math.Max(rhat[i], MinRate)
		model += ri*math.Log(rh) - rh
		null += ri*math.Log(mu) - mu
	}
	n := float64(len(r))
	return (model/n - null/n) / (mu * math.Ln2)
}

// RootMeanSquaredError returns sqrt(mean((r - rhat)^2)).
func RootMeanSquaredError(r, rhat []float64) float64 {
	checkLen(r, rhat)
	return floats.Distance(r, rhat, 2) / math.Sqrt(float64(len(r)))
}

// FractionExplainedVariance returns 1 - mean((r - rhat)^2) / var(r), with the
// population variance of r. It does not correct for trial-to-trial
// variability.
func FractionExplainedVariance(r, rhat []float64) float64 {
	checkLen(r, rhat)
	mse := meanSquaredError(r, rhat)
	_, variance := stat.PopMeanVariance(r, nil)
	return 1 - mse/variance
}

func meanSquaredError(r, rhat []float64) float64 {
	d := floats.Distance(r, rhat, 2)
	return d * d / float64(len(r))
}

func checkLen(r, rhat []float64) {
	if len(r) != len(rhat) {
		panic(fmt.Sprintf("metrics: length mismatch %d != %d", len(r), len(rhat)))
	}
}
