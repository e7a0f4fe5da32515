// Copyright 2026 The SNGrad Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"math/rand"

	"github.com/sngrad-ml/sngrad/internal/nn"
	"github.com/sngrad-ml/sngrad/internal/tensor"
)

// MLP is a fully connected classifier with ReLU hidden activations and
// a linear output layer.
type MLP[B tensor.Backend] = nn.MLP[B]

// NewMLP creates an MLP from the given layer sizes. At least two sizes
// are required (input and output width).
//
// Example:
//
//	backend := cpu.New()
//	model, err := nn.NewMLP([]int{784, 128, 10}, backend)
func NewMLP[B tensor.Backend](layerSizes []int, backend B) (*MLP[B], error) {
	return nn.NewMLP(layerSizes, backend)
}

// ParamTree holds the parameters of every layer. Trees are immutable:
// optimizer steps return new trees instead of updating in place.
type ParamTree[B tensor.Backend] = nn.ParamTree[B]

// Layer is one weight and bias pair inside a ParamTree.
type Layer[B tensor.Backend] = nn.Layer[B]

// TreeFromRaw rebuilds a ParamTree from a flat tensor list in the
// order produced by ParamTree.Tensors.
func TreeFromRaw[B tensor.Backend](raws []*tensor.RawTensor, backend B) (*ParamTree[B], error) {
	return nn.TreeFromRaw(raws, backend)
}

// Initialization

// Xavier creates a tensor with Xavier (Glorot) uniform initialization.
func Xavier[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, rng *rand.Rand, backend B) *tensor.Tensor[float32, B] {
	return nn.Xavier(fanIn, fanOut, shape, rng, backend)
}

// Zeros creates a zero-initialized float32 tensor.
func Zeros[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Zeros(shape, backend)
}

// Ones creates a one-initialized float32 tensor.
func Ones[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Ones(shape, backend)
}
