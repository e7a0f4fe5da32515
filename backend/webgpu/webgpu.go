// Copyright 2026 The SNGrad Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides the WebGPU backend for GPU-accelerated tensor
// operations.
//
// Example:
//
//	import (
//	    "github.com/sngrad-ml/sngrad/backend/webgpu"
//	    "github.com/sngrad-ml/sngrad/tensor"
//	)
//
//	func main() {
//	    gpu, err := webgpu.New()
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer gpu.Release()
//
//	    x := tensor.Zeros[float32](tensor.Shape{1024, 1024}, gpu)
//	}
package webgpu

import (
	internalwebgpu "github.com/sngrad-ml/sngrad/internal/backend/webgpu"
	"github.com/sngrad-ml/sngrad/tensor"
)

// Backend represents the WebGPU backend implementation.
type Backend = internalwebgpu.Backend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a new WebGPU backend. It returns an error when no GPU or
// native WebGPU library is available.
func New() (*Backend, error) {
	return internalwebgpu.New()
}
