// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public API for the dense arrays that flow
// through deepretina models.
//
// Tensors are float64, row-major, with every dimension > 0. By convention the
// first axis is the batch (samples) axis.
//
// Example:
//
//	x := tensor.Zeros(tensor.Shape{50, 40, 50, 50}) // 50 samples of 40 frames
//	x.Set(1.0, 0, 39, 25, 25)
//	first := x.Index(0)                           // [40, 50, 50] view
package tensor

import (
	"github.com/born-ml/deepretina/internal/tensor"
)

// Shape is a tensor shape, e.g. Shape{8, 40, 13, 13}.
type Shape = tensor.Shape

// Tensor is a dense float64 N-d array.
type Tensor = tensor.Tensor

// ErrShape reports an invalid shape or an incompatible pair of shapes.
var ErrShape = tensor.ErrShape

// New wraps data in a tensor of the given shape without copying.
func New(shape Shape, data []float64) (*Tensor, error) {
	return tensor.New(shape, data)
}

// Zeros creates a zero-filled tensor. It panics on an invalid shape.
func Zeros(shape Shape) *Tensor {
	return tensor.Zeros(shape)
}

// FromFloat32 converts float32 values into a tensor.
func FromFloat32(shape Shape, values []float32) (*Tensor, error) {
	return tensor.FromFloat32(shape, values)
}

// FromRows builds a 2D tensor from equally long rows.
//
// Example:
//
//	y, err := tensor.FromRows([][]float64{{0.1, 0.4}, {0.3, 0.2}}) // [2, 2]
func FromRows(rows [][]float64) (*Tensor, error) {
	return tensor.FromRows(rows)
}

// Concat joins tensors along the first axis.
func Concat(ts ...*Tensor) (*Tensor, error) {
	return tensor.Concat(ts...)
}

// Stack joins equally shaped tensors along a new first axis.
func Stack(ts ...*Tensor) (*Tensor, error) {
	return tensor.Stack(ts...)
}
