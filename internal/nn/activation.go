package nn

import (
	"fmt"
	"math"

	"github.com/born-ml/deepretina/internal/tensor"
)

// Activation names accepted in architecture files.
const (
	ActivationLinear   = "linear"
	ActivationReLU     = "relu"
	ActivationSoftplus = "softplus"
	ActivationSigmoid  = "sigmoid"
	ActivationTanh     = "tanh"
	ActivationExp      = "exponential"
	ActivationSoftmax  = "softmax"
)

// activationFuncs maps element-wise activation names to their functions.
var activationFuncs = map[string]func(float64) float64{
	ActivationLinear: func(x float64) float64 { return x },
	ActivationReLU:   func(x float64) float64 { return math.Max(0, x) },
	ActivationSoftplus: func(x float64) float64 {
		// log(1 + e^x) without overflow for large x
		if x > 30 {
			return x
		}
		return math.Log1p(math.Exp(x))
	},
	ActivationSigmoid: func(x float64) float64 { return 1.0 / (1.0 + math.Exp(-x)) },
	ActivationTanh:    math.Tanh,
	ActivationExp:     math.Exp,
}

// ValidActivation reports whether name is a supported activation.
func ValidActivation(name string) bool {
	if name == ActivationSoftmax {
		return true
	}
	_, ok := activationFuncs[name]
	return ok
}

// applyActivation applies the named activation to a batch.
//
// Softmax normalizes over all non-batch values of each sample.
func applyActivation(name string, x *tensor.Tensor) (*tensor.Tensor, error) {
	if name == "" || name == ActivationLinear {
		return x, nil
	}
	if name == ActivationSoftmax {
		return softmax(x), nil
	}
	f, ok := activationFuncs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownActivation, name)
	}
	return x.Apply(f), nil
}

func softmax(x *tensor.Tensor) *tensor.Tensor {
	out := x.Clone()
	data := out.Data()
	n := x.Dim(0)
	size := len(data) / n
	for i := 0; i < n; i++ {
		row := data[i*size : (i+1)*size]
		maxVal := math.Inf(-1)
		for _, v := range row {
			maxVal = math.Max(maxVal, v)
		}
		sum := 0.0
		for j, v := range row {
			row[j] = math.Exp(v - maxVal)
			sum += row[j]
		}
		for j := range row {
			row[j] /= sum
		}
	}
	return out
}

// Activation is a parameterless layer applying a named non-linearity.
//
// Example:
//
//	relu, _ := nn.NewActivation(nn.ActivationReLU, tensor.Shape{8, 38, 38})
//	y, err := relu.Forward(x)
type Activation struct {
	activation string
	shape      tensor.Shape
}

// NewActivation creates an activation layer for inputs of the given shape.
func NewActivation(activation string, shape tensor.Shape) (*Activation, error) {
	if !ValidActivation(activation) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownActivation, activation)
	}
	return &Activation{activation: activation, shape: shape.Clone()}, nil
}

// Name returns "Activation".
func (a *Activation) Name() string { return "Activation" }

// Activation returns the activation name.
func (a *Activation) Activation() string { return a.activation }

// Forward applies the activation element-wise.
func (a *Activation) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	return applyActivation(a.activation, x)
}

// Params returns nil.
func (a *Activation) Params() *Params { return nil }

// InputShape returns the per-sample input shape.
func (a *Activation) InputShape() tensor.Shape { return a.shape }

// OutputShape returns the per-sample output shape.
func (a *Activation) OutputShape() tensor.Shape { return a.shape }

// String returns a string representation of the layer.
func (a *Activation) String() string {
	return fmt.Sprintf("Activation(%s)", a.activation)
}
