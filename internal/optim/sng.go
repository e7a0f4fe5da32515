package optim

import (
	"fmt"

	"github.com/sngrad-ml/sngrad/internal/autodiff"
	"github.com/sngrad-ml/sngrad/internal/data"
	"github.com/sngrad-ml/sngrad/internal/nn"
	"github.com/sngrad-ml/sngrad/internal/tensor"
)

// Default SNG hyperparameters, applied when the config leaves them zero.
const (
	DefaultRMax    = 1.0
	DefaultEpsilon = 1e-8
)

// SNG implements signal-to-noise gradient descent.
//
// Each batch is split into disjoint shards and a gradient is computed
// per shard. The update direction for every parameter element is the
// ratio of the gradient mean to the gradient standard deviation across
// shards:
//
//	r = clip(mean / (std + eps), -r_max, r_max)
//	param = param - lr * r
//
// Elements whose gradient is consistent across shards move at up to
// lr * r_max; elements whose gradient fluctuates get damped toward
// zero. When std is zero the ratio saturates at r_max with the sign of
// the mean, so a perfectly consistent gradient moves at exactly
// lr * r_max in its direction.
type SNG[B autodiff.BackwardCapable] struct {
	estimator *Estimator[B]
	backend   B
	lr        float64
	rMax      float64
	eps       float64
}

// SNGConfig holds configuration for the SNG optimizer.
type SNGConfig struct {
	LR        float64 // Learning rate, must be positive
	NumShards int     // Sub-batches per step, must be at least 2
	RMax      float64 // Clipping bound for the ratio (default: 1.0)
	Epsilon   float64 // Stabilizer added to std (default: 1e-8)
}

// NewSNG creates a new SNG optimizer.
//
// A single shard would make every standard deviation zero and the ratio
// pure sign information, so NumShards must be at least 2.
func NewSNG[B autodiff.BackwardCapable](model Model[B], backend B, config SNGConfig) (*SNG[B], error) {
	if config.LR <= 0 {
		return nil, fmt.Errorf("%w: learning rate %v must be positive", ErrConfig, config.LR)
	}
	if config.NumShards < 2 {
		return nil, fmt.Errorf("%w: num shards %d must be at least 2", ErrConfig, config.NumShards)
	}
	if config.RMax == 0 {
		config.RMax = DefaultRMax
	}
	if config.RMax < 0 {
		return nil, fmt.Errorf("%w: r_max %v must be positive", ErrConfig, config.RMax)
	}
	if config.Epsilon == 0 {
		config.Epsilon = DefaultEpsilon
	}
	if config.Epsilon < 0 {
		return nil, fmt.Errorf("%w: epsilon %v must be positive", ErrConfig, config.Epsilon)
	}

	est, err := NewEstimator(model, backend, config.NumShards)
	if err != nil {
		return nil, err
	}
	return &SNG[B]{
		estimator: est,
		backend:   backend,
		lr:        config.LR,
		rMax:      config.RMax,
		eps:       config.Epsilon,
	}, nil
}

// Step estimates gradient statistics over the batch shards and returns
// the updated tree.
func (s *SNG[B]) Step(params *nn.ParamTree[B], batch *data.Batch[B]) (*nn.ParamTree[B], error) {
	stats, err := s.estimator.Estimate(params, batch)
	if err != nil {
		return nil, err
	}

	raws := params.Tensors()
	updated := make([]*tensor.RawTensor, len(raws))
	lr := float32(s.lr)
	rMax := float32(s.rMax)
	eps := float32(s.eps)
	for i, param := range raws {
		next, err := tensor.NewRaw(param.Shape(), tensor.Float32, s.backend.Device())
		if err != nil {
			return nil, err
		}
		paramData := param.AsFloat32()
		meanData := stats.Mean[i].AsFloat32()
		stdData := stats.Std[i].AsFloat32()
		nextData := next.AsFloat32()
		for el := range nextData {
			r := meanData[el] / (stdData[el] + eps)
			if !isFinite(r) {
				return nil, fmt.Errorf("%w: signal ratio for parameter %d element %d is not finite", ErrNumeric, i, el)
			}
			if r > rMax {
				r = rMax
			} else if r < -rMax {
				r = -rMax
			}
			v := paramData[el] - lr*r
			if !isFinite(v) {
				return nil, fmt.Errorf("%w: parameter %d element %d is not finite after update", ErrNumeric, i, el)
			}
			nextData[el] = v
		}
		updated[i] = next
	}
	return nn.TreeFromRaw(updated, s.backend)
}

// LearningRate returns the current learning rate.
func (s *SNG[B]) LearningRate() float64 {
	return s.lr
}

// SetLearningRate updates the learning rate.
func (s *SNG[B]) SetLearningRate(lr float64) error {
	if lr <= 0 {
		return fmt.Errorf("%w: learning rate %v must be positive", ErrConfig, lr)
	}
	s.lr = lr
	return nil
}

// Name returns "sng".
func (s *SNG[B]) Name() string {
	return "sng"
}
