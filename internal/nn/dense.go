package nn

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/deepretina/internal/tensor"
)

// Dense is a fully connected layer.
//
// Performs y = x @ W + b where:
//   - x has shape [batch, in_features]
//   - W has shape [in_features, out_features]
//   - b has shape [out_features]
//
// The weight layout is [in, out], as stored by the framework that wrote the
// weight files.
type Dense struct {
	inFeatures  int
	outFeatures int
	activation  string
	params      *Params
}

// NewDense creates a dense layer with zero-filled parameters.
func NewDense(inFeatures, outFeatures int, activation string) (*Dense, error) {
	if inFeatures <= 0 || outFeatures <= 0 {
		return nil, fmt.Errorf("dense: invalid features in=%d, out=%d", inFeatures, outFeatures)
	}
	if activation != "" && !ValidActivation(activation) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownActivation, activation)
	}
	return &Dense{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		activation:  activation,
		params:      newParams(tensor.Shape{inFeatures, outFeatures}, tensor.Shape{outFeatures}),
	}, nil
}

// Name returns "Dense".
func (d *Dense) Name() string { return "Dense" }

// Forward computes x @ W + b for a batch [N, in_features].
func (d *Dense) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	shape := x.Shape()
	if len(shape) != 2 || shape[1] != d.inFeatures {
		return nil, fmt.Errorf("%w: dense expects [N %d], got %v", ErrShapeMismatch, d.inFeatures, shape)
	}
	n := shape[0]

	xm := mat.NewDense(n, d.inFeatures, x.Data())
	wm := mat.NewDense(d.inFeatures, d.outFeatures, d.params.Weights.Tensor().Data())
	ym := mat.NewDense(n, d.outFeatures, nil)
	ym.Mul(xm, wm)

	bias := d.params.Biases.Tensor().Data()
	ym.Apply(func(_, j int, v float64) float64 { return v + bias[j] }, ym)

	out, err := tensor.New(tensor.Shape{n, d.outFeatures}, ym.RawMatrix().Data)
	if err != nil {
		return nil, err
	}
	return applyActivation(d.activation, out)
}

// Params returns the dense weights and biases.
func (d *Dense) Params() *Params { return d.params }

// InputShape returns [in_features].
func (d *Dense) InputShape() tensor.Shape { return tensor.Shape{d.inFeatures} }

// OutputShape returns [out_features].
func (d *Dense) OutputShape() tensor.Shape { return tensor.Shape{d.outFeatures} }

// String returns a string representation of the layer.
func (d *Dense) String() string {
	return fmt.Sprintf("Dense(in=%d, out=%d, activation=%s)", d.inFeatures, d.outFeatures, activationLabel(d.activation))
}
