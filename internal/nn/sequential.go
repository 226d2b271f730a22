package nn

import (
	"fmt"
	"strings"

	"github.com/born-ml/deepretina/internal/tensor"
)

// Sequential chains layers; each layer's output is the next layer's input.
//
// Example:
//
//	conv, _ := nn.NewConv2D(tensor.Shape{40, 50, 50}, 8, 13, 13, nn.BorderValid, [2]int{1, 1}, "")
//	relu, _ := nn.NewActivation(nn.ActivationReLU, conv.OutputShape())
//	model, err := nn.NewSequential(conv, relu)
//
//	rates, err := model.Predict(batch)  // [N, 40, 50, 50] -> [N, 8, 38, 38]
type Sequential struct {
	layers []Layer
}

// NewSequential creates a model from layers whose shapes line up.
func NewSequential(layers ...Layer) (*Sequential, error) {
	if len(layers) == 0 {
		return nil, fmt.Errorf("sequential: no layers")
	}
	for i := 1; i < len(layers); i++ {
		prev, cur := layers[i-1].OutputShape(), layers[i].InputShape()
		if !prev.Equal(cur) {
			return nil, fmt.Errorf("%w: layer %d (%s) outputs %v but layer %d (%s) expects %v",
				ErrShapeMismatch, i-1, layers[i-1].Name(), prev, i, layers[i].Name(), cur)
		}
	}
	return &Sequential{layers: layers}, nil
}

// NumLayers returns the number of layers.
func (s *Sequential) NumLayers() int {
	return len(s.layers)
}

// Layer returns the layer at the given index.
//
// Panics if index is out of bounds.
func (s *Sequential) Layer(index int) Layer {
	if index < 0 || index >= len(s.layers) {
		panic("Sequential.Layer: index out of bounds")
	}
	return s.layers[index]
}

// Layers returns the layers in order.
func (s *Sequential) Layers() []Layer {
	return s.layers
}

// InputShape returns the per-sample input shape of the first layer.
func (s *Sequential) InputShape() tensor.Shape {
	return s.layers[0].InputShape()
}

// OutputShape returns the per-sample output shape of the last layer.
func (s *Sequential) OutputShape() tensor.Shape {
	return s.layers[len(s.layers)-1].OutputShape()
}

// forward runs layers [0, last].
func (s *Sequential) forward(x *tensor.Tensor, last int) (*tensor.Tensor, error) {
	shape := x.Shape()
	if len(shape) < 2 || !tensor.Shape(shape[1:]).Equal(s.InputShape()) {
		return nil, fmt.Errorf("%w: model expects [N %v], got %v", ErrShapeMismatch, s.InputShape(), shape)
	}
	out := x
	for i := 0; i <= last; i++ {
		var err error
		out, err = s.layers[i].Forward(out)
		if err != nil {
			return nil, fmt.Errorf("layer %d (%s): %w", i, s.layers[i].Name(), err)
		}
	}
	return out, nil
}

// Predict runs the full model on a batch.
func (s *Sequential) Predict(x *tensor.Tensor) (*tensor.Tensor, error) {
	return s.forward(x, len(s.layers)-1)
}

// Partial returns an inference function producing the activation of layer
// layerID.
func (s *Sequential) Partial(layerID int) (InferenceFunc, error) {
	if layerID < 0 || layerID >= len(s.layers) {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrLayerOutOfRange, layerID, len(s.layers))
	}
	return func(x *tensor.Tensor) (*tensor.Tensor, error) {
		return s.forward(x, layerID)
	}, nil
}

// NumParams returns the number of scalar parameters.
func (s *Sequential) NumParams() int {
	total := 0
	for _, l := range s.layers {
		if p := l.Params(); p != nil {
			total += p.Count()
		}
	}
	return total
}

// String returns a string representation of the model architecture.
func (s *Sequential) String() string {
	var b strings.Builder
	b.WriteString("Sequential(\n")
	for i, l := range s.layers {
		fmt.Fprintf(&b, "  (%d) %s\n", i, l.String())
	}
	b.WriteString(")")
	return b.String()
}

var _ Model = (*Sequential)(nil)
