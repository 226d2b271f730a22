// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor_test

import (
	"errors"
	"testing"

	"github.com/born-ml/deepretina/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicAPI(t *testing.T) {
	a, err := tensor.FromRows([][]float64{{1, 2}, {3, 4}})
	require.NoError(t, err)
	b := tensor.Zeros(tensor.Shape{1, 2})

	c, err := tensor.Concat(a, b)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{3, 2}, c.Shape())
	assert.Equal(t, []float64{1, 2, 3, 4, 0, 0}, c.Data())

	s, err := tensor.Stack(a, a)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 2, 2}, s.Shape())

	f, err := tensor.FromFloat32(tensor.Shape{2}, []float32{0.5, -1})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, -1}, f.Data())

	_, err = tensor.New(tensor.Shape{3}, []float64{1, 2})
	assert.True(t, errors.Is(err, tensor.ErrShape))
}
