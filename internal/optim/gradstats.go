package optim

import (
	"fmt"
	"math"

	"github.com/sngrad-ml/sngrad/internal/autodiff"
	"github.com/sngrad-ml/sngrad/internal/data"
	"github.com/sngrad-ml/sngrad/internal/nn"
	"github.com/sngrad-ml/sngrad/internal/tensor"
)

// GradStats holds elementwise gradient statistics across shards.
//
// Mean and Std are aligned with nn.ParamTree.Tensors: one tensor per
// parameter, each with the parameter's shape. Std is the population
// standard deviation over the shard gradients; with a single shard it
// is identically zero.
type GradStats struct {
	Mean []*tensor.RawTensor
	Std  []*tensor.RawTensor
}

// Estimator computes per-shard gradients of a model's loss.
//
// The batch is cut into numShards disjoint sub-batches; each shard gets
// its own forward and backward pass on the same parameter tree. The
// estimator owns no state between calls besides its configuration, so
// one estimator can serve every step of a run.
type Estimator[B autodiff.BackwardCapable] struct {
	model     Model[B]
	backend   B
	numShards int
}

// NewEstimator creates an estimator that splits batches into numShards
// sub-batches.
func NewEstimator[B autodiff.BackwardCapable](model Model[B], backend B, numShards int) (*Estimator[B], error) {
	if model == nil {
		return nil, fmt.Errorf("%w: estimator needs a model", ErrConfig)
	}
	if numShards < 1 {
		return nil, fmt.Errorf("%w: num shards %d must be at least 1", ErrConfig, numShards)
	}
	return &Estimator[B]{model: model, backend: backend, numShards: numShards}, nil
}

// NumShards returns the configured shard count.
func (e *Estimator[B]) NumShards() int {
	return e.numShards
}

// Gradient computes the gradient of the mean loss over the whole batch,
// aligned with params.Tensors(). Parameters that receive no gradient
// get zeros.
func (e *Estimator[B]) Gradient(params *nn.ParamTree[B], batch *data.Batch[B]) ([]*tensor.RawTensor, error) {
	return e.gradsFor(params, batch)
}

// Estimate computes elementwise mean and population standard deviation
// of the per-shard gradients.
//
// Because every shard loss is a mean over its own samples, the shard
// gradients are directly comparable and the unweighted mean over shards
// is the estimator's gradient signal.
//
// A batch with fewer samples than the configured shard count (the
// remainder batch of an epoch can be arbitrarily small) is split into
// one shard per sample instead of failing.
func (e *Estimator[B]) Estimate(params *nn.ParamTree[B], batch *data.Batch[B]) (*GradStats, error) {
	numShards := e.numShards
	if numShards > batch.Size() {
		numShards = batch.Size()
	}
	shards, err := batch.Shards(numShards)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}

	raws := params.Tensors()
	shardGrads := make([][]*tensor.RawTensor, len(shards))
	for i, shard := range shards {
		grads, err := e.gradsFor(params, shard)
		if err != nil {
			return nil, err
		}
		shardGrads[i] = grads
	}

	stats := &GradStats{
		Mean: make([]*tensor.RawTensor, len(raws)),
		Std:  make([]*tensor.RawTensor, len(raws)),
	}
	n := float64(len(shards))
	for p, param := range raws {
		mean, err := tensor.NewRaw(param.Shape(), tensor.Float32, e.backend.Device())
		if err != nil {
			return nil, err
		}
		std, err := tensor.NewRaw(param.Shape(), tensor.Float32, e.backend.Device())
		if err != nil {
			return nil, err
		}
		meanData := mean.AsFloat32()
		stdData := std.AsFloat32()

		for el := range meanData {
			var sum float64
			for s := range shardGrads {
				sum += float64(shardGrads[s][p].AsFloat32()[el])
			}
			mu := sum / n

			var sqDev float64
			for s := range shardGrads {
				d := float64(shardGrads[s][p].AsFloat32()[el]) - mu
				sqDev += d * d
			}

			meanData[el] = float32(mu)
			stdData[el] = float32(math.Sqrt(sqDev / n))
		}

		stats.Mean[p] = mean
		stats.Std[p] = std
	}
	return stats, nil
}

// gradsFor runs one forward and backward pass and returns gradients
// aligned with params.Tensors().
func (e *Estimator[B]) gradsFor(params *nn.ParamTree[B], batch *data.Batch[B]) ([]*tensor.RawTensor, error) {
	tape := e.backend.GetTape()
	tape.Clear()
	tape.StartRecording()
	defer func() {
		tape.StopRecording()
		tape.Clear()
	}()

	loss := e.model.Loss(params, batch.Inputs, batch.Labels)
	if !isFinite(loss.Raw().AsFloat32()[0]) {
		return nil, fmt.Errorf("%w: loss is not finite", ErrNumeric)
	}

	gradMap := autodiff.Backward(loss, e.backend)

	raws := params.Tensors()
	grads := make([]*tensor.RawTensor, len(raws))
	for i, param := range raws {
		grad, ok := gradMap[param]
		if !ok {
			zero, err := tensor.NewRaw(param.Shape(), tensor.Float32, e.backend.Device())
			if err != nil {
				return nil, err
			}
			grads[i] = zero
			continue
		}
		if !grad.Shape().Equal(param.Shape()) {
			return nil, fmt.Errorf("gradient shape %v does not match parameter shape %v",
				grad.Shape(), param.Shape())
		}
		grads[i] = grad
	}
	return grads, nil
}
