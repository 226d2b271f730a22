// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package toolbox evaluates retina models on held-out experiment data.
//
// Example:
//
//	model, err := loader.LoadModel("models/convnet", "epoch018_iter01300_weights.born")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	data := toolbox.NewFileProvider("data")
//
//	cc, err := toolbox.GetCorrelation(model, data, "naturalscene", []int{0, 1, 2, 3, 4})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cc) // one score per cell, in request order
package toolbox

import (
	"github.com/born-ml/deepretina/internal/evaluate"
	"github.com/born-ml/deepretina/internal/experiments"
	"github.com/born-ml/deepretina/internal/nn"
)

// Provider loads experiment splits.
type Provider = experiments.Provider

// Key identifies one split of one experiment.
type Key = experiments.Key

// Split holds the windowed samples of one split.
type Split = experiments.Split

// Recording is the raw stimulus and response of one split.
type Recording = experiments.Recording

// FileProvider reads experiments from Root/<exptdate>/<stimtype>.born.
type FileProvider = experiments.FileProvider

// NewFileProvider returns a provider rooted at dir.
func NewFileProvider(dir string) *FileProvider {
	return &experiments.FileProvider{Root: dir}
}

// WriteExpt writes recordings as the splits of one experiment file.
func WriteExpt(path string, recs ...Recording) error {
	return experiments.WriteExpt(path, recs...)
}

// Options configures an Evaluator.
type Options = evaluate.Options

// Result holds true and predicted responses, both [N, len(cells)].
type Result = evaluate.Result

// Evaluator runs models over the test splits of a provider.
type Evaluator = evaluate.Evaluator

// DefaultOptions returns history 40, batch size 50 and experiment 15-10-07.
func DefaultOptions() Options {
	return evaluate.DefaultOptions()
}

// NewEvaluator creates an evaluator. Zero option fields take their defaults.
func NewEvaluator(provider Provider, opts Options) *Evaluator {
	return evaluate.New(provider, opts)
}

// GetTestResponses runs model over the test split and returns the true and
// predicted responses of cells in sample order.
func GetTestResponses(model nn.Model, provider Provider, stimType string, cells []int, exptDate string) (*Result, error) {
	return evaluate.GetTestResponses(model, provider, stimType, cells, exptDate)
}

// GetCorrelation returns the correlation coefficient of every cell.
func GetCorrelation(model nn.Model, provider Provider, stimType string, cells []int) ([]float64, error) {
	return evaluate.GetCorrelation(model, provider, stimType, cells)
}

// GetPerformance scores every cell with the named metric.
func GetPerformance(model nn.Model, provider Provider, stimType string, cells []int, metric string) ([]float64, error) {
	return evaluate.GetPerformance(model, provider, stimType, cells, metric)
}
