// Copyright 2026 The SNGrad Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim

import (
	"github.com/sngrad-ml/sngrad/internal/autodiff"
	"github.com/sngrad-ml/sngrad/internal/optim"
	"github.com/sngrad-ml/sngrad/internal/tensor"
)

// Sentinel errors, matched with errors.Is.
var (
	ErrConfig  = optim.ErrConfig
	ErrNumeric = optim.ErrNumeric
)

// Optimizer is the common interface for all optimizers.
type Optimizer[B tensor.Backend] = optim.Optimizer[B]

// Model maps a parameter tree and a batch to a scalar loss.
type Model[B tensor.Backend] = optim.Model[B]

// GradStats holds elementwise gradient statistics across shards.
type GradStats = optim.GradStats

// Estimator computes per-shard gradients and their statistics.
type Estimator[B autodiff.BackwardCapable] = optim.Estimator[B]

// NewEstimator creates a gradient estimator over numShards sub-batches.
func NewEstimator[B autodiff.BackwardCapable](model Model[B], backend B, numShards int) (*Estimator[B], error) {
	return optim.NewEstimator(model, backend, numShards)
}

// SGD is the stochastic gradient descent baseline.
type SGD[B autodiff.BackwardCapable] = optim.SGD[B]

// SGDConfig configures SGD.
type SGDConfig = optim.SGDConfig

// NewSGD creates a new SGD optimizer.
func NewSGD[B autodiff.BackwardCapable](model Model[B], backend B, config SGDConfig) (*SGD[B], error) {
	return optim.NewSGD(model, backend, config)
}

// SNG is the signal-to-noise gradient optimizer.
type SNG[B autodiff.BackwardCapable] = optim.SNG[B]

// SNGConfig configures SNG.
type SNGConfig = optim.SNGConfig

// NewSNG creates a new SNG optimizer.
func NewSNG[B autodiff.BackwardCapable](model Model[B], backend B, config SNGConfig) (*SNG[B], error) {
	return optim.NewSNG(model, backend, config)
}
