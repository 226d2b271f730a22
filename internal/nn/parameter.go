package nn

import (
	"fmt"

	"github.com/born-ml/deepretina/internal/tensor"
)

// Parameter is a named tensor with a fixed shape.
type Parameter struct {
	name   string         // "weights" or "biases"
	shape  tensor.Shape   // Declared shape; loads must match it
	tensor *tensor.Tensor // Current values
}

// NewParameter creates a zero-filled parameter of the given shape.
func NewParameter(name string, shape tensor.Shape) *Parameter {
	return &Parameter{
		name:   name,
		shape:  shape.Clone(),
		tensor: tensor.Zeros(shape),
	}
}

// Name returns the parameter name.
func (p *Parameter) Name() string {
	return p.name
}

// Shape returns the declared shape.
func (p *Parameter) Shape() tensor.Shape {
	return p.shape
}

// Tensor returns the parameter values.
func (p *Parameter) Tensor() *tensor.Tensor {
	return p.tensor
}

// Set replaces the values. The shape must equal the declared shape.
func (p *Parameter) Set(t *tensor.Tensor) error {
	if err := p.check(t); err != nil {
		return err
	}
	p.tensor = t
	return nil
}

func (p *Parameter) check(t *tensor.Tensor) error {
	if t == nil {
		return fmt.Errorf("%w: %s is missing", ErrShapeMismatch, p.name)
	}
	if !t.Shape().Equal(p.shape) {
		return fmt.Errorf("%w: %s has shape %v, got %v", ErrShapeMismatch, p.name, p.shape, t.Shape())
	}
	return nil
}

// Params holds the two parameters of a weighted layer.
//
// The on-disk convention stores Weights in dataset "param_0" and Biases in
// "param_1"; callers use the fields and never the positions.
type Params struct {
	Weights *Parameter
	Biases  *Parameter
}

// newParams creates zero-filled weights and biases.
func newParams(weightShape, biasShape tensor.Shape) *Params {
	return &Params{
		Weights: NewParameter("weights", weightShape),
		Biases:  NewParameter("biases", biasShape),
	}
}

// Load sets both parameters. Both shapes are checked before either is
// replaced, so a mismatch leaves p unchanged.
func (p *Params) Load(weights, biases *tensor.Tensor) error {
	if err := p.Weights.check(weights); err != nil {
		return err
	}
	if err := p.Biases.check(biases); err != nil {
		return err
	}
	p.Weights.tensor = weights
	p.Biases.tensor = biases
	return nil
}

// Count returns the number of scalar parameters.
func (p *Params) Count() int {
	return p.Weights.Shape().NumElements() + p.Biases.Shape().NumElements()
}
