package nn

import (
	"fmt"

	"github.com/born-ml/deepretina/internal/tensor"
)

// Dropout randomly zeroes activations during training. At inference it is
// the identity.
type Dropout struct {
	p     float64
	shape tensor.Shape
}

// NewDropout creates a dropout layer with drop probability p.
func NewDropout(p float64, shape tensor.Shape) (*Dropout, error) {
	if p < 0 || p >= 1 {
		return nil, fmt.Errorf("dropout: probability %v not in [0, 1)", p)
	}
	return &Dropout{p: p, shape: shape.Clone()}, nil
}

// Name returns "Dropout".
func (d *Dropout) Name() string { return "Dropout" }

// Forward returns x unchanged.
func (d *Dropout) Forward(x *tensor.Tensor) (*tensor.Tensor, error) { return x, nil }

// Params returns nil.
func (d *Dropout) Params() *Params { return nil }

// InputShape returns the per-sample shape.
func (d *Dropout) InputShape() tensor.Shape { return d.shape }

// OutputShape returns the per-sample shape.
func (d *Dropout) OutputShape() tensor.Shape { return d.shape }

// String returns a string representation of the layer.
func (d *Dropout) String() string { return fmt.Sprintf("Dropout(p=%g)", d.p) }

// GaussianNoise adds zero-mean noise during training. At inference it is the
// identity.
type GaussianNoise struct {
	sigma float64
	shape tensor.Shape
}

// NewGaussianNoise creates a noise layer with standard deviation sigma.
func NewGaussianNoise(sigma float64, shape tensor.Shape) (*GaussianNoise, error) {
	if sigma < 0 {
		return nil, fmt.Errorf("gaussian noise: negative sigma %v", sigma)
	}
	return &GaussianNoise{sigma: sigma, shape: shape.Clone()}, nil
}

// Name returns "GaussianNoise".
func (g *GaussianNoise) Name() string { return "GaussianNoise" }

// Forward returns x unchanged.
func (g *GaussianNoise) Forward(x *tensor.Tensor) (*tensor.Tensor, error) { return x, nil }

// Params returns nil.
func (g *GaussianNoise) Params() *Params { return nil }

// InputShape returns the per-sample shape.
func (g *GaussianNoise) InputShape() tensor.Shape { return g.shape }

// OutputShape returns the per-sample shape.
func (g *GaussianNoise) OutputShape() tensor.Shape { return g.shape }

// String returns a string representation of the layer.
func (g *GaussianNoise) String() string { return fmt.Sprintf("GaussianNoise(sigma=%g)", g.sigma) }
