// Package tensor provides the dense N-dimensional arrays used for stimuli,
// responses, layer activations and layer parameters.
//
// Tensors are row-major and always hold float64 values. Parameters are stored
// on disk as float32 and widened on load.
//
// Operations along axis 0 (Index, Slice, Gather, Concat, Stack) are the ones
// the data pipeline needs: a batch of samples is a tensor whose first
// dimension is the sample index.
package tensor

import (
	"errors"
	"fmt"
	"math"
)

// ErrShape is returned when tensor shapes are incompatible with an operation.
var ErrShape = errors.New("tensor: incompatible shape")

// Tensor is a dense row-major array of float64 values.
type Tensor struct {
	shape   Shape
	strides []int
	data    []float64
}

// New wraps data in a tensor of the given shape.
//
// The data slice is not copied. Its length must equal shape.NumElements().
func New(shape Shape, data []float64) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if len(data) != shape.NumElements() {
		return nil, fmt.Errorf("%w: %d values for shape %v", ErrShape, len(data), shape)
	}
	return &Tensor{
		shape:   shape.Clone(),
		strides: shape.ComputeStrides(),
		data:    data,
	}, nil
}

// Zeros creates a zero-filled tensor.
//
// Panics if the shape is invalid.
func Zeros(shape Shape) *Tensor {
	if err := shape.Validate(); err != nil {
		panic(fmt.Sprintf("tensor.Zeros: %v", err))
	}
	return &Tensor{
		shape:   shape.Clone(),
		strides: shape.ComputeStrides(),
		data:    make([]float64, shape.NumElements()),
	}
}

// FromFloat32 creates a tensor from single precision values, copying them.
func FromFloat32(shape Shape, values []float32) (*Tensor, error) {
	data := make([]float64, len(values))
	for i, v := range values {
		data[i] = float64(v)
	}
	return New(shape, data)
}

// FromRows creates a 2D tensor [len(rows), len(rows[0])] from a slice of rows.
func FromRows(rows [][]float64) (*Tensor, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrShape)
	}
	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrShape, i, len(row), cols)
		}
		data = append(data, row...)
	}
	return New(Shape{len(rows), cols}, data)
}

// Shape returns the tensor shape. The returned slice must not be modified.
func (t *Tensor) Shape() Shape {
	return t.shape
}

// Data returns the underlying row-major values.
func (t *Tensor) Data() []float64 {
	return t.data
}

// Float32 returns a single precision copy of the values.
func (t *Tensor) Float32() []float32 {
	out := make([]float32, len(t.data))
	for i, v := range t.data {
		out[i] = float32(v)
	}
	return out
}

// NumElements returns the number of values in the tensor.
func (t *Tensor) NumElements() int {
	return len(t.data)
}

// Dim returns the size of dimension i.
func (t *Tensor) Dim(i int) int {
	return t.shape[i]
}

// offset converts a multi-index into a flat offset.
func (t *Tensor) offset(idx []int) int {
	if len(idx) != len(t.shape) {
		panic(fmt.Sprintf("tensor: %d indices for %dD tensor", len(idx), len(t.shape)))
	}
	off := 0
	for i, v := range idx {
		if v < 0 || v >= t.shape[i] {
			panic(fmt.Sprintf("tensor: index %d out of range for dimension %d of size %d", v, i, t.shape[i]))
		}
		off += v * t.strides[i]
	}
	return off
}

// At returns the value at the given multi-index.
func (t *Tensor) At(idx ...int) float64 {
	return t.data[t.offset(idx)]
}

// Set stores v at the given multi-index.
func (t *Tensor) Set(v float64, idx ...int) {
	t.data[t.offset(idx)] = v
}

// Clone returns a deep copy.
func (t *Tensor) Clone() *Tensor {
	data := make([]float64, len(t.data))
	copy(data, t.data)
	return &Tensor{shape: t.shape.Clone(), strides: t.shape.ComputeStrides(), data: data}
}

// Reshape returns a tensor sharing t's data with a new shape.
func (t *Tensor) Reshape(dims ...int) (*Tensor, error) {
	shape := Shape(dims)
	if shape.NumElements() != len(t.data) {
		return nil, fmt.Errorf("%w: cannot reshape %v to %v", ErrShape, t.shape, shape)
	}
	return New(shape, t.data)
}

// rowSize is the number of values in one sample along axis 0.
func (t *Tensor) rowSize() int {
	return Shape(t.shape[1:]).NumElements()
}

// Index returns sample i along axis 0, sharing data with t.
func (t *Tensor) Index(i int) *Tensor {
	if len(t.shape) < 2 {
		panic("tensor.Index: need at least 2 dimensions")
	}
	if i < 0 || i >= t.shape[0] {
		panic(fmt.Sprintf("tensor.Index: %d out of range [0, %d)", i, t.shape[0]))
	}
	n := t.rowSize()
	sub, _ := New(t.shape[1:], t.data[i*n:(i+1)*n])
	return sub
}

// Slice returns samples [start, end) along axis 0, sharing data with t.
func (t *Tensor) Slice(start, end int) (*Tensor, error) {
	if len(t.shape) == 0 || start < 0 || end > t.shape[0] || start >= end {
		return nil, fmt.Errorf("%w: slice [%d, %d) of %v", ErrShape, start, end, t.shape)
	}
	n := t.rowSize()
	shape := t.shape.Clone()
	shape[0] = end - start
	return New(shape, t.data[start*n:end*n])
}

// Gather copies the samples at the given axis 0 indices, in order.
func (t *Tensor) Gather(indices []int) (*Tensor, error) {
	if len(indices) == 0 {
		return nil, fmt.Errorf("%w: empty gather", ErrShape)
	}
	n := t.rowSize()
	data := make([]float64, 0, len(indices)*n)
	for _, i := range indices {
		if i < 0 || i >= t.shape[0] {
			return nil, fmt.Errorf("%w: gather index %d out of range [0, %d)", ErrShape, i, t.shape[0])
		}
		data = append(data, t.data[i*n:(i+1)*n]...)
	}
	shape := t.shape.Clone()
	shape[0] = len(indices)
	return New(shape, data)
}

// Concat joins tensors along axis 0. All trailing dimensions must match.
func Concat(ts ...*Tensor) (*Tensor, error) {
	if len(ts) == 0 {
		return nil, fmt.Errorf("%w: nothing to concatenate", ErrShape)
	}
	inner := ts[0].shape[1:]
	total := 0
	for i, t := range ts {
		if !Shape(t.shape[1:]).Equal(inner) {
			return nil, fmt.Errorf("%w: tensor %d has shape %v, want (*, %v)", ErrShape, i, t.shape, inner)
		}
		total += t.shape[0]
	}
	data := make([]float64, 0, total*Shape(inner).NumElements())
	for _, t := range ts {
		data = append(data, t.data...)
	}
	shape := append(Shape{total}, inner...)
	return New(shape, data)
}

// Stack joins equally shaped tensors along a new leading axis.
func Stack(ts ...*Tensor) (*Tensor, error) {
	if len(ts) == 0 {
		return nil, fmt.Errorf("%w: nothing to stack", ErrShape)
	}
	inner := ts[0].shape
	data := make([]float64, 0, len(ts)*inner.NumElements())
	for i, t := range ts {
		if !t.shape.Equal(inner) {
			return nil, fmt.Errorf("%w: tensor %d has shape %v, want %v", ErrShape, i, t.shape, inner)
		}
		data = append(data, t.data...)
	}
	return New(append(Shape{len(ts)}, inner...), data)
}

// Column copies column j of a 2D tensor.
func (t *Tensor) Column(j int) ([]float64, error) {
	if len(t.shape) != 2 {
		return nil, fmt.Errorf("%w: column of %dD tensor", ErrShape, len(t.shape))
	}
	rows, cols := t.shape[0], t.shape[1]
	if j < 0 || j >= cols {
		return nil, fmt.Errorf("%w: column %d out of range [0, %d)", ErrShape, j, cols)
	}
	out := make([]float64, rows)
	for i := range out {
		out[i] = t.data[i*cols+j]
	}
	return out, nil
}

// Apply returns a new tensor with f applied element-wise.
func (t *Tensor) Apply(f func(float64) float64) *Tensor {
	out := t.Clone()
	for i, v := range out.data {
		out.data[i] = f(v)
	}
	return out
}

// AllClose reports whether both tensors have the same shape and every pair of
// values differs by at most tol.
func (t *Tensor) AllClose(other *Tensor, tol float64) bool {
	if !t.shape.Equal(other.shape) {
		return false
	}
	for i, v := range t.data {
		if math.Abs(v-other.data[i]) > tol {
			return false
		}
	}
	return true
}

// String returns a short description of the tensor.
func (t *Tensor) String() string {
	return fmt.Sprintf("Tensor%v", t.shape)
}
