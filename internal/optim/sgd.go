package optim

import (
	"fmt"

	"github.com/sngrad-ml/sngrad/internal/autodiff"
	"github.com/sngrad-ml/sngrad/internal/data"
	"github.com/sngrad-ml/sngrad/internal/nn"
	"github.com/sngrad-ml/sngrad/internal/tensor"
)

// SGD implements plain stochastic gradient descent.
//
// Update rule:
//
//	param = param - lr * gradient
//
// The gradient is computed once over the whole batch; no sharding, no
// momentum. SGD is the reference baseline the signal-to-noise optimizer
// is compared against.
type SGD[B autodiff.BackwardCapable] struct {
	estimator *Estimator[B]
	backend   B
	lr        float64
}

// SGDConfig holds configuration for the SGD optimizer.
type SGDConfig struct {
	LR float64 // Learning rate, must be positive
}

// NewSGD creates a new SGD optimizer.
func NewSGD[B autodiff.BackwardCapable](model Model[B], backend B, config SGDConfig) (*SGD[B], error) {
	if config.LR <= 0 {
		return nil, fmt.Errorf("%w: learning rate %v must be positive", ErrConfig, config.LR)
	}
	est, err := NewEstimator(model, backend, 1)
	if err != nil {
		return nil, err
	}
	return &SGD[B]{estimator: est, backend: backend, lr: config.LR}, nil
}

// Step computes the whole-batch gradient and returns the updated tree.
func (s *SGD[B]) Step(params *nn.ParamTree[B], batch *data.Batch[B]) (*nn.ParamTree[B], error) {
	grads, err := s.estimator.Gradient(params, batch)
	if err != nil {
		return nil, err
	}

	raws := params.Tensors()
	updated := make([]*tensor.RawTensor, len(raws))
	lr := float32(s.lr)
	for i, param := range raws {
		next, err := tensor.NewRaw(param.Shape(), tensor.Float32, s.backend.Device())
		if err != nil {
			return nil, err
		}
		paramData := param.AsFloat32()
		gradData := grads[i].AsFloat32()
		nextData := next.AsFloat32()
		for el := range nextData {
			v := paramData[el] - lr*gradData[el]
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
func (s *SGD[B]) LearningRate() float64 {
	return s.lr
}

// SetLearningRate updates the learning rate.
func (s *SGD[B]) SetLearningRate(lr float64) error {
	if lr <= 0 {
		return fmt.Errorf("%w: learning rate %v must be positive", ErrConfig, lr)
	}
	s.lr = lr
	return nil
}

// Name returns "sgd".
func (s *SGD[B]) Name() string {
	return "sgd"
}
