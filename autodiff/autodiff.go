// Copyright 2026 The SNGrad Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides automatic differentiation capabilities.
//
// This package implements reverse-mode automatic differentiation
// (backpropagation) using a gradient tape. It wraps any backend to add
// autodiff capabilities.
//
// Example:
//
//	import (
//	    "github.com/sngrad-ml/sngrad/autodiff"
//	    "github.com/sngrad-ml/sngrad/backend/cpu"
//	    "github.com/sngrad-ml/sngrad/tensor"
//	)
//
//	func main() {
//	    backend := autodiff.New(cpu.New())
//	    backend.Tape().StartRecording()
//
//	    x := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//	    y := x.Mul(x)
//
//	    grads := autodiff.Backward(y, backend)
//	    _ = grads[x.Raw()]
//	}
package autodiff

import (
	"github.com/sngrad-ml/sngrad/internal/autodiff"
	"github.com/sngrad-ml/sngrad/internal/tensor"
)

// Backend is the autodiff-enabled backend decorator.
type Backend[B tensor.Backend] = autodiff.Backend[B]

// GradientTape records operations for automatic differentiation.
type GradientTape = autodiff.GradientTape

// BackwardCapable is implemented by backends that can run a backward
// pass.
type BackwardCapable = autodiff.BackwardCapable

// New creates a new autodiff backend wrapping the given backend.
func New[B tensor.Backend](backend B) *Backend[B] {
	return autodiff.New(backend)
}

// Backward computes gradients of t with respect to every recorded
// input, seeding the output gradient with ones.
func Backward[T tensor.DType, B BackwardCapable](t *tensor.Tensor[T, B], backend B) map[*tensor.RawTensor]*tensor.RawTensor {
	return autodiff.Backward(t, backend)
}
