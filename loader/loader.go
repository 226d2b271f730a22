// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package loader provides model loading for deepretina.
//
// A model directory holds architecture.json (the layer list) and one or more
// weight files, each with one group "layer_<k>" per layer. Layers with
// parameters store their weights in dataset "param_0" and their biases in
// "param_1".
//
// Example usage:
//
//	model, err := loader.LoadModel("models/convnet", "epoch018_iter01300_weights.born")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Activations of the first convolution
//	conv, err := loader.LoadPartialModel(model, 0)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	h, err := conv(batch)
package loader

import (
	"io"

	"github.com/born-ml/deepretina/internal/loader"
	"github.com/born-ml/deepretina/internal/nn"
	"github.com/born-ml/deepretina/internal/tensor"
)

// ArchitectureFile is the architecture description inside a model directory.
const ArchitectureFile = loader.ArchitectureFile

// Architecture is a decoded architecture.json.
type Architecture = loader.Architecture

// LayerConfig describes one layer of an architecture.
type LayerConfig = loader.LayerConfig

// LayerInfo describes one layer group of a weight file.
type LayerInfo = loader.LayerInfo

// Slot selects the weights or the biases of a layer.
type Slot = loader.Slot

// Parameter slots.
const (
	SlotWeights = loader.SlotWeights
	SlotBiases  = loader.SlotBiases
)

// Errors returned by the loader.
var (
	ErrLayerCountMismatch = loader.ErrLayerCountMismatch
	ErrParamCountMismatch = loader.ErrParamCountMismatch
	ErrLayerNotFound      = loader.ErrLayerNotFound
	ErrSlotNotFound       = loader.ErrSlotNotFound
	ErrUnknownLayer       = loader.ErrUnknownLayer
)

// LoadModel builds the model in path and binds it to path/weightFile.
//
// It fails when either file is missing or when the weight file does not fit
// the architecture. No partially loaded model is ever returned.
func LoadModel(path, weightFile string) (*nn.Sequential, error) {
	return loader.LoadModel(path, weightFile)
}

// LoadPartialModel returns an inference function ending at layer layerID.
func LoadPartialModel(model nn.Model, layerID int) (nn.InferenceFunc, error) {
	return loader.LoadPartialModel(model, layerID)
}

// Layers lists the layer groups of a weight file in file order.
func Layers(path, weightFile string) ([]LayerInfo, error) {
	return loader.Layers(path, weightFile)
}

// ListLayers writes a (layer, weights, biases) table of a weight file to w.
//
// Example output:
//
//	+----------+----------------------------+---------------+
//	| layer    | weights                    | biases        |
//	+----------+----------------------------+---------------+
//	| layer_0  | param_0 (8, 40, 13, 13)    | param_1 (8,)  |
//	| layer_1  |                            |               |
func ListLayers(w io.Writer, path, weightFile string) error {
	return loader.ListLayers(w, path, weightFile)
}

// GetWeights reads the weights or biases of one layer from a weight file.
func GetWeights(path, layerName string, slot Slot) (*tensor.Tensor, error) {
	return loader.GetWeights(path, layerName, slot)
}

// ParseSlot accepts "weights", "biases", "param_0" and "param_1".
func ParseSlot(s string) (Slot, error) {
	return loader.ParseSlot(s)
}

// ConvNetOptions configures ConvNet.
type ConvNetOptions = loader.ConvNetOptions

// DefaultConvNetOptions returns the options of the reference model.
func DefaultConvNetOptions() ConvNetOptions {
	return loader.DefaultConvNetOptions()
}

// ConvNet returns the architecture of the convolutional retina model for a
// [history, height, width] stimulus and nCells outputs.
func ConvNet(stimShape [3]int, nCells int, opts ConvNetOptions) (*Architecture, error) {
	return loader.ConvNet(stimShape, nCells, opts)
}

// Build creates a model with zero parameters from an architecture.
func Build(arch *Architecture) (*nn.Sequential, error) {
	return loader.Build(arch)
}

// InitWeights fills the model's parameters from a seeded random source.
func InitWeights(arch *Architecture, model *nn.Sequential, seed uint64) error {
	return loader.InitWeights(arch, model, seed)
}

// SaveModel writes architecture.json and weightFile into dir.
func SaveModel(dir, weightFile string, arch *Architecture, model *nn.Sequential) error {
	return loader.SaveModel(dir, weightFile, arch, model)
}
