// Copyright 2026 The SNGrad Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides the public API for optimizers.
//
// Two algorithms are available:
//   - SGD: plain stochastic gradient descent, the baseline
//   - SNG: signal-to-noise gradient descent, which shards each batch,
//     estimates per-element gradient statistics, and scales every update
//     by the gradient's signal-to-noise ratio
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	model, _ := nn.NewMLP([]int{784, 128, 10}, backend)
//	opt, err := optim.NewSNG(model, backend, optim.SNGConfig{
//	    LR:        1.0,
//	    NumShards: 4,
//	})
package optim
