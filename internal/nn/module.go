// Package nn implements the inference layers of sequential retina models.
//
// This package provides:
//   - Layer interface: forward pass plus optional named parameters
//   - Model interface: layer count, truncated inference and prediction
//   - Layers: Conv2D, Dense, Activation, MaxPool2D, Flatten, Dropout, GaussianNoise
//   - Sequential: the concrete Model built from an ordered layer list
//
// Tensors flow through the layers with a leading batch dimension. Layer
// shapes (InputShape, OutputShape) exclude it.
//
// Only the forward pass is implemented. Dropout and GaussianNoise are
// identities at inference time.
package nn

import (
	"errors"

	"github.com/born-ml/deepretina/internal/tensor"
)

// Errors returned by layers and models.
var (
	ErrShapeMismatch     = errors.New("nn: shape mismatch")
	ErrLayerOutOfRange   = errors.New("nn: layer index out of range")
	ErrUnknownActivation = errors.New("nn: unknown activation")
)

// InferenceFunc maps a batch of inputs to a batch of outputs.
//
// Parameters are frozen: calling an InferenceFunc never changes the model.
type InferenceFunc func(x *tensor.Tensor) (*tensor.Tensor, error)

// Layer is one step of a sequential model.
type Layer interface {
	// Name returns the layer class name used in architecture files,
	// e.g. "Convolution2D".
	Name() string

	// Forward computes the layer output for a batch.
	Forward(x *tensor.Tensor) (*tensor.Tensor, error)

	// Params returns the named parameters of the layer, or nil for layers
	// without parameters (activations, pooling, flatten).
	Params() *Params

	// InputShape and OutputShape are per-sample shapes.
	InputShape() tensor.Shape
	OutputShape() tensor.Shape

	String() string
}

// Model is the capability the evaluator needs from a trained network.
//
// Any framework binding can satisfy it; Sequential is the one this module
// provides.
type Model interface {
	// NumLayers returns the number of layers.
	NumLayers() int

	// Partial returns an inference function whose output is the activation
	// of layer layerID (inclusive) for the same input as the full model.
	Partial(layerID int) (InferenceFunc, error)

	// Predict runs the full model on a batch.
	Predict(x *tensor.Tensor) (*tensor.Tensor, error)
}
