// Package optim implements optimization algorithms driven by sharded
// gradient statistics.
//
// This package provides:
//   - Optimizer interface: one pure parameter update per batch
//   - Estimator: per-shard gradients and their elementwise statistics
//   - SGD: plain stochastic gradient descent baseline
//   - SNG: signal-to-noise gradient descent
//
// Optimizers never mutate a parameter tree. Step takes the current tree
// and returns a freshly built one, so callers can keep, compare, or
// discard trees from any point in training.
//
// Example usage:
//
//	ad := autodiff.New(cpu.New())
//	model, _ := nn.NewMLP([]int{784, 128, 10}, ad)
//	opt, _ := optim.NewSNG(model, ad, optim.SNGConfig{
//	    LR:        1.0,
//	    NumShards: 4,
//	})
//
//	params := model.Init(seed)
//	for _, batch := range batches {
//	    params, err = opt.Step(params, batch)
//	}
package optim

import (
	"errors"
	"math"

	"github.com/sngrad-ml/sngrad/internal/data"
	"github.com/sngrad-ml/sngrad/internal/nn"
	"github.com/sngrad-ml/sngrad/internal/tensor"
)

// Sentinel errors. Callers match them with errors.Is.
var (
	// ErrConfig reports an invalid optimizer or search configuration.
	ErrConfig = errors.New("invalid configuration")

	// ErrNumeric reports a non-finite value produced during a step.
	ErrNumeric = errors.New("numeric instability")
)

// Model is anything that maps a parameter tree and a batch to a scalar
// loss. nn.MLP satisfies it; the loss must be computed through the
// optimizer's backend so gradients can be recorded.
type Model[B tensor.Backend] interface {
	Loss(params *nn.ParamTree[B], inputs, targets *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]
}

// Optimizer is the base interface for all optimization algorithms.
//
// Step consumes one batch and returns the updated parameter tree. The
// input tree is left untouched.
type Optimizer[B tensor.Backend] interface {
	Step(params *nn.ParamTree[B], batch *data.Batch[B]) (*nn.ParamTree[B], error)

	// LearningRate returns the current learning rate.
	LearningRate() float64

	// SetLearningRate updates the learning rate. Useful when a search
	// picks the rate after the optimizer is built.
	SetLearningRate(lr float64) error

	// Name identifies the algorithm, e.g. "sgd" or "sng".
	Name() string
}

// isFinite reports whether v is neither NaN nor infinite.
func isFinite(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
