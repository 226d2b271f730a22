package nn

import (
	"fmt"
	"math"

	"github.com/born-ml/deepretina/internal/tensor"
)

// MaxPool2D is a 2D max pooling layer with ignore_border semantics: windows
// that would run past the edge are dropped.
//
// Input shape:  [batch, channels, height, width]
// Output shape: [batch, channels, (height-pool_h)/stride_h+1, (width-pool_w)/stride_w+1]
type MaxPool2D struct {
	inShape  tensor.Shape
	outShape tensor.Shape
	pool     [2]int
	stride   [2]int
}

// NewMaxPool2D creates a max pooling layer. A zero stride defaults to the
// pool size (non-overlapping windows).
func NewMaxPool2D(inShape tensor.Shape, pool, stride [2]int) (*MaxPool2D, error) {
	if len(inShape) != 3 {
		return nil, fmt.Errorf("%w: maxpool2d expects [C,H,W] input, got %v", ErrShapeMismatch, inShape)
	}
	if pool[0] <= 0 || pool[1] <= 0 {
		return nil, fmt.Errorf("maxpool2d: invalid pool size %v", pool)
	}
	if stride == [2]int{} {
		stride = pool
	}
	if stride[0] <= 0 || stride[1] <= 0 {
		return nil, fmt.Errorf("maxpool2d: invalid stride %v", stride)
	}
	outH := (inShape[1]-pool[0])/stride[0] + 1
	outW := (inShape[2]-pool[1])/stride[1] + 1
	if outH <= 0 || outW <= 0 {
		return nil, fmt.Errorf("%w: pool %v larger than input %v", ErrShapeMismatch, pool, inShape)
	}
	return &MaxPool2D{
		inShape:  inShape.Clone(),
		outShape: tensor.Shape{inShape[0], outH, outW},
		pool:     pool,
		stride:   stride,
	}, nil
}

// Name returns "MaxPooling2D".
func (m *MaxPool2D) Name() string { return "MaxPooling2D" }

// Forward computes the maximum over each pooling window.
func (m *MaxPool2D) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	shape := x.Shape()
	if len(shape) != 4 || !tensor.Shape(shape[1:]).Equal(m.inShape) {
		return nil, fmt.Errorf("%w: maxpool2d expects [N %v], got %v", ErrShapeMismatch, m.inShape, shape)
	}
	n, channels := shape[0], m.inShape[0]
	height, width := m.inShape[1], m.inShape[2]
	outH, outW := m.outShape[1], m.outShape[2]

	in := x.Data()
	out := tensor.Zeros(append(tensor.Shape{n}, m.outShape...))
	od := out.Data()

	for plane := 0; plane < n*channels; plane++ {
		src := in[plane*height*width:]
		dst := od[plane*outH*outW:]
		for i := 0; i < outH; i++ {
			for j := 0; j < outW; j++ {
				best := math.Inf(-1)
				for u := 0; u < m.pool[0]; u++ {
					row := i*m.stride[0] + u
					for v := 0; v < m.pool[1]; v++ {
						best = math.Max(best, src[row*width+j*m.stride[1]+v])
					}
				}
				dst[i*outW+j] = best
			}
		}
	}
	return out, nil
}

// Params returns nil.
func (m *MaxPool2D) Params() *Params { return nil }

// InputShape returns [channels, height, width].
func (m *MaxPool2D) InputShape() tensor.Shape { return m.inShape }

// OutputShape returns [channels, out_h, out_w].
func (m *MaxPool2D) OutputShape() tensor.Shape { return m.outShape }

// String returns a string representation of the layer.
func (m *MaxPool2D) String() string {
	return fmt.Sprintf("MaxPooling2D(pool_size=(%d, %d), stride=(%d, %d))", m.pool[0], m.pool[1], m.stride[0], m.stride[1])
}

// Flatten reshapes [batch, ...] to [batch, prod(...)].
type Flatten struct {
	inShape tensor.Shape
}

// NewFlatten creates a flatten layer.
func NewFlatten(inShape tensor.Shape) *Flatten {
	return &Flatten{inShape: inShape.Clone()}
}

// Name returns "Flatten".
func (f *Flatten) Name() string { return "Flatten" }

// Forward reshapes the batch without copying.
func (f *Flatten) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	if !tensor.Shape(x.Shape()[1:]).Equal(f.inShape) {
		return nil, fmt.Errorf("%w: flatten expects [N %v], got %v", ErrShapeMismatch, f.inShape, x.Shape())
	}
	return x.Reshape(x.Dim(0), f.inShape.NumElements())
}

// Params returns nil.
func (f *Flatten) Params() *Params { return nil }

// InputShape returns the per-sample input shape.
func (f *Flatten) InputShape() tensor.Shape { return f.inShape }

// OutputShape returns [prod(input shape)].
func (f *Flatten) OutputShape() tensor.Shape { return tensor.Shape{f.inShape.NumElements()} }

// String returns a string representation of the layer.
func (f *Flatten) String() string { return "Flatten()" }
