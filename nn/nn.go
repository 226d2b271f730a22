// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the inference layers and the model abstraction used by
// deepretina.
//
// # Overview
//
// This package contains:
//   - Model: the three operations an evaluator needs (NumLayers, Partial, Predict)
//   - Layers: Conv2D, Dense, Activation, MaxPool2D, Flatten, Dropout, GaussianNoise
//   - Sequential: the Model built from an ordered list of layers
//   - Parameters: named Weights and Biases of weighted layers
//
// # Basic Usage
//
//	conv, _ := nn.NewConv2D(tensor.Shape{40, 50, 50}, 8, 13, 13, nn.BorderValid, [2]int{1, 1}, nn.ActivationReLU)
//	flat := nn.NewFlatten(conv.OutputShape())
//	dense, _ := nn.NewDense(flat.OutputShape()[0], 5, nn.ActivationSoftplus)
//	model, _ := nn.NewSequential(conv, flat, dense)
//
//	rates, err := model.Predict(batch) // [N, 5]
//
// Models loaded from disk come from the loader package. Dropout and
// GaussianNoise are identities: only the forward pass at inference time is
// implemented.
package nn

import (
	"github.com/born-ml/deepretina/internal/nn"
	"github.com/born-ml/deepretina/internal/tensor"
)

// Model is the capability the evaluator needs from a network.
type Model = nn.Model

// Layer is one step of a sequential model.
type Layer = nn.Layer

// InferenceFunc maps a batch of inputs to a batch of outputs.
type InferenceFunc = nn.InferenceFunc

// Parameter is a named tensor with a fixed shape.
type Parameter = nn.Parameter

// Params holds the Weights and Biases of a weighted layer.
type Params = nn.Params

// Errors returned by layers and models.
var (
	ErrShapeMismatch     = nn.ErrShapeMismatch
	ErrLayerOutOfRange   = nn.ErrLayerOutOfRange
	ErrUnknownActivation = nn.ErrUnknownActivation
)

// Activation names.
const (
	ActivationLinear   = nn.ActivationLinear
	ActivationReLU     = nn.ActivationReLU
	ActivationSoftplus = nn.ActivationSoftplus
	ActivationSigmoid  = nn.ActivationSigmoid
	ActivationTanh     = nn.ActivationTanh
	ActivationExp      = nn.ActivationExp
	ActivationSoftmax  = nn.ActivationSoftmax
)

// Convolution border modes.
const (
	BorderValid = nn.BorderValid
	BorderSame  = nn.BorderSame
)

// Layers

// Conv2D is a 2D convolution with a flipped kernel.
type Conv2D = nn.Conv2D

// NewConv2D creates a convolution over per-sample inputs [C, H, W].
//
// Weights have shape [filters, C, kernelH, kernelW]; biases [filters].
func NewConv2D(inShape tensor.Shape, filters, kernelH, kernelW int, border string, stride [2]int, activation string) (*Conv2D, error) {
	return nn.NewConv2D(inShape, filters, kernelH, kernelW, border, stride, activation)
}

// Dense is a fully connected layer computing x @ W + b.
type Dense = nn.Dense

// NewDense creates a dense layer with weights [in, out] and biases [out].
func NewDense(in, out int, activation string) (*Dense, error) {
	return nn.NewDense(in, out, activation)
}

// Activation applies a named element-wise function.
type Activation = nn.Activation

// NewActivation creates an activation layer for inputs of the given shape.
func NewActivation(name string, shape tensor.Shape) (*Activation, error) {
	return nn.NewActivation(name, shape)
}

// MaxPool2D takes the maximum over non-overlapping windows by default.
type MaxPool2D = nn.MaxPool2D

// NewMaxPool2D creates a max pooling layer. A zero stride equals the pool size.
func NewMaxPool2D(inShape tensor.Shape, pool, stride [2]int) (*MaxPool2D, error) {
	return nn.NewMaxPool2D(inShape, pool, stride)
}

// Flatten reshapes each sample into a vector.
type Flatten = nn.Flatten

// NewFlatten creates a flatten layer.
func NewFlatten(inShape tensor.Shape) *Flatten {
	return nn.NewFlatten(inShape)
}

// Dropout is an identity at inference time.
type Dropout = nn.Dropout

// NewDropout creates a dropout layer with drop probability p in [0, 1).
func NewDropout(p float64, shape tensor.Shape) (*Dropout, error) {
	return nn.NewDropout(p, shape)
}

// GaussianNoise is an identity at inference time.
type GaussianNoise = nn.GaussianNoise

// NewGaussianNoise creates a noise layer with standard deviation sigma.
func NewGaussianNoise(sigma float64, shape tensor.Shape) (*GaussianNoise, error) {
	return nn.NewGaussianNoise(sigma, shape)
}

// Sequential runs layers in order.
type Sequential = nn.Sequential

// NewSequential chains layers, checking that consecutive shapes match.
func NewSequential(layers ...Layer) (*Sequential, error) {
	return nn.NewSequential(layers...)
}
