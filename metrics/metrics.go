// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package metrics provides goodness-of-fit scores for predicted firing rates.
//
// Supported metrics:
//   - cc: Pearson correlation coefficient
//   - lli: log-likelihood improvement over a mean-rate model, bits per spike
//   - rmse: root mean squared error
//   - fev: fraction of explained variance
//
// Example:
//
//	score, err := metrics.Lookup("lli")
//	if err != nil {
//	    log.Fatal(err) // errors.Is(err, metrics.ErrUnknownMetric)
//	}
//	bits := score(recorded, predicted)
package metrics

import (
	"github.com/born-ml/deepretina/internal/metrics"
)

// Name identifies a metric.
type Name = metrics.Name

// Supported metrics.
const (
	CC   = metrics.CC
	LLI  = metrics.LLI
	RMSE = metrics.RMSE
	FEV  = metrics.FEV
)

// Func scores a prediction rhat against the true response r.
type Func = metrics.Func

// ErrUnknownMetric is matched by every lookup failure.
var ErrUnknownMetric = metrics.ErrUnknownMetric

// UnknownMetricError reports the rejected name.
type UnknownMetricError = metrics.UnknownMetricError

// Lookup resolves a metric name.
func Lookup(name string) (Func, error) {
	return metrics.Lookup(name)
}

// Names returns the supported metric names.
func Names() []Name {
	return metrics.Names()
}

// CorrelationCoefficient returns the Pearson correlation of r and rhat.
func CorrelationCoefficient(r, rhat []float64) float64 {
	return metrics.Correlation(r, rhat)
}

// LogLikelihoodImprovement returns the Poisson log-likelihood gain of rhat
// over the mean rate of r, in bits per spike.
func LogLikelihoodImprovement(r, rhat []float64) float64 {
	return metrics.LogLikelihoodImprovement(r, rhat)
}

// RootMeanSquaredError returns sqrt(mean((r - rhat)^2)).
func RootMeanSquaredError(r, rhat []float64) float64 {
	return metrics.RootMeanSquaredError(r, rhat)
}

// FractionExplainedVariance returns 1 - mse / var(r).
func FractionExplainedVariance(r, rhat []float64) float64 {
	return metrics.FractionExplainedVariance(r, rhat)
}
