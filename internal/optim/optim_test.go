package optim_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sngrad-ml/sngrad/internal/autodiff"
	"github.com/sngrad-ml/sngrad/internal/backend/cpu"
	"github.com/sngrad-ml/sngrad/internal/data"
	"github.com/sngrad-ml/sngrad/internal/nn"
	"github.com/sngrad-ml/sngrad/internal/optim"
	"github.com/sngrad-ml/sngrad/internal/tensor"
)

type adBackend = *autodiff.Backend[*cpu.CPUBackend]

func newModel(t *testing.T, sizes []int) (*nn.MLP[adBackend], adBackend) {
	t.Helper()
	ad := autodiff.New(cpu.New())
	model, err := nn.NewMLP(sizes, ad)
	require.NoError(t, err)
	return model, ad
}

// zeroTree builds a single-layer tree with all parameters zero, which
// produces uniform logits and exactly known cross-entropy gradients.
func zeroTree(backend adBackend, in, out int) *nn.ParamTree[adBackend] {
	return &nn.ParamTree[adBackend]{
		Layers: []nn.Layer[adBackend]{{
			Weight: nn.Zeros[adBackend](tensor.Shape{in, out}, backend),
			Bias:   nn.Zeros[adBackend](tensor.Shape{out}, backend),
		}},
	}
}

// identicalBatch builds a batch of n copies of x = [1, 0] labeled class
// 0, so every shard sees exactly the same data.
func identicalBatch(t *testing.T, backend adBackend, n int) *data.Batch[adBackend] {
	t.Helper()
	inputs := make([]float32, 0, 2*n)
	labels := make([]float32, 0, 2*n)
	for i := 0; i < n; i++ {
		inputs = append(inputs, 1, 0)
		labels = append(labels, 1, 0)
	}
	ds, err := data.NewDataset(inputs, labels, n, 2, 2)
	require.NoError(t, err)
	batches, err := data.Batches(ds, n, backend)
	require.NoError(t, err)
	return batches[0]
}

func TestNewSGD_Validation(t *testing.T) {
	model, ad := newModel(t, []int{2, 2})

	_, err := optim.NewSGD(model, ad, optim.SGDConfig{LR: 0})
	assert.ErrorIs(t, err, optim.ErrConfig)

	_, err = optim.NewSGD(model, ad, optim.SGDConfig{LR: -1})
	assert.ErrorIs(t, err, optim.ErrConfig)
}

func TestNewSNG_Validation(t *testing.T) {
	model, ad := newModel(t, []int{2, 2})

	_, err := optim.NewSNG(model, ad, optim.SNGConfig{LR: 0, NumShards: 4})
	assert.ErrorIs(t, err, optim.ErrConfig)

	_, err = optim.NewSNG(model, ad, optim.SNGConfig{LR: 0.1, NumShards: 1})
	assert.ErrorIs(t, err, optim.ErrConfig, "a single shard carries no noise signal")

	_, err = optim.NewSNG(model, ad, optim.SNGConfig{LR: 0.1, NumShards: 0})
	assert.ErrorIs(t, err, optim.ErrConfig)
}

// TestSGD_Step checks the exact update for uniform logits: the
// cross-entropy gradient for x=[1,0], target class 0 is
// (-0.5, 0.5) on the first weight row and bias.
func TestSGD_Step(t *testing.T) {
	model, ad := newModel(t, []int{2, 2})
	params := zeroTree(ad, 2, 2)
	batch := identicalBatch(t, ad, 4)

	opt, err := optim.NewSGD(model, ad, optim.SGDConfig{LR: 0.1})
	require.NoError(t, err)

	next, err := opt.Step(params, batch)
	require.NoError(t, err)

	w := next.Layers[0].Weight.Raw().AsFloat32()
	b := next.Layers[0].Bias.Raw().AsFloat32()
	assert.InDelta(t, 0.05, float64(w[0]), 1e-6)
	assert.InDelta(t, -0.05, float64(w[1]), 1e-6)
	assert.InDelta(t, 0.0, float64(w[2]), 1e-6, "zero input feature gets zero gradient")
	assert.InDelta(t, 0.0, float64(w[3]), 1e-6)
	assert.InDelta(t, 0.05, float64(b[0]), 1e-6)
	assert.InDelta(t, -0.05, float64(b[1]), 1e-6)
}

// TestSNG_ZeroStdSaturates: identical shards give zero standard
// deviation, so the ratio saturates at r_max with the gradient's sign
// and the update is exactly param - lr*r_max*sign(grad).
func TestSNG_ZeroStdSaturates(t *testing.T) {
	model, ad := newModel(t, []int{2, 2})
	params := zeroTree(ad, 2, 2)
	batch := identicalBatch(t, ad, 4)

	opt, err := optim.NewSNG(model, ad, optim.SNGConfig{LR: 0.1, NumShards: 2, RMax: 1.0})
	require.NoError(t, err)

	next, err := opt.Step(params, batch)
	require.NoError(t, err)

	w := next.Layers[0].Weight.Raw().AsFloat32()
	b := next.Layers[0].Bias.Raw().AsFloat32()
	// grad signs: w[0] negative, w[1] positive, w[2], w[3] zero
	assert.InDelta(t, 0.1, float64(w[0]), 1e-6)
	assert.InDelta(t, -0.1, float64(w[1]), 1e-6)
	assert.InDelta(t, 0.0, float64(w[2]), 1e-6, "zero mean gradient leaves the parameter unchanged")
	assert.InDelta(t, 0.0, float64(w[3]), 1e-6)
	assert.InDelta(t, 0.1, float64(b[0]), 1e-6)
	assert.InDelta(t, -0.1, float64(b[1]), 1e-6)
}

// TestEstimator_ShardMeanMatchesWholeBatch: with equal shard sizes the
// mean of the shard gradients equals the whole-batch gradient.
func TestEstimator_ShardMeanMatchesWholeBatch(t *testing.T) {
	model, ad := newModel(t, []int{3, 8, 2})
	params := model.Init(5)

	ds := data.Synthetic(256, 3, 2, 11)
	batches, err := data.Batches(ds, 256, ad)
	require.NoError(t, err)
	batch := batches[0]

	whole, err := optim.NewEstimator[adBackend](model, ad, 1)
	require.NoError(t, err)
	wholeGrads, err := whole.Gradient(params, batch)
	require.NoError(t, err)

	sharded, err := optim.NewEstimator[adBackend](model, ad, 4)
	require.NoError(t, err)
	stats, err := sharded.Estimate(params, batch)
	require.NoError(t, err)

	require.Len(t, stats.Mean, len(wholeGrads))
	for p := range wholeGrads {
		wholeData := wholeGrads[p].AsFloat32()
		meanData := stats.Mean[p].AsFloat32()
		require.Len(t, meanData, len(wholeData))
		for el := range wholeData {
			assert.InDelta(t, float64(wholeData[el]), float64(meanData[el]), 1e-4,
				"param %d element %d", p, el)
		}
	}
}

// TestEstimator_SingleShardZeroStd: one shard means every element's
// population standard deviation is identically zero.
func TestEstimator_SingleShardZeroStd(t *testing.T) {
	model, ad := newModel(t, []int{3, 2})
	params := model.Init(5)

	ds := data.Synthetic(16, 3, 2, 11)
	batches, err := data.Batches(ds, 16, ad)
	require.NoError(t, err)

	est, err := optim.NewEstimator[adBackend](model, ad, 1)
	require.NoError(t, err)
	stats, err := est.Estimate(params, batches[0])
	require.NoError(t, err)

	for p, std := range stats.Std {
		for el, v := range std.AsFloat32() {
			assert.Zero(t, v, "param %d element %d", p, el)
		}
	}
}

// TestEstimator_BatchSmallerThanShards: a remainder batch with fewer
// samples than the shard count is split one shard per sample instead
// of aborting the epoch.
func TestEstimator_BatchSmallerThanShards(t *testing.T) {
	model, ad := newModel(t, []int{2, 2})
	params := zeroTree(ad, 2, 2)
	batch := identicalBatch(t, ad, 3)

	est, err := optim.NewEstimator[adBackend](model, ad, 4)
	require.NoError(t, err)

	stats, err := est.Estimate(params, batch)
	require.NoError(t, err)

	// Identical single-sample shards: mean equals the whole-batch
	// gradient and the deviation is zero everywhere.
	whole, err := est.Gradient(params, batch)
	require.NoError(t, err)
	for p := range whole {
		wholeData := whole[p].AsFloat32()
		meanData := stats.Mean[p].AsFloat32()
		for el := range wholeData {
			assert.InDelta(t, float64(wholeData[el]), float64(meanData[el]), 1e-6)
			assert.Zero(t, stats.Std[p].AsFloat32()[el])
		}
	}
}

// TestSNG_StepOnTinyBatch: an SNG step survives a final batch smaller
// than the configured shard count.
func TestSNG_StepOnTinyBatch(t *testing.T) {
	model, ad := newModel(t, []int{2, 2})
	params := zeroTree(ad, 2, 2)
	batch := identicalBatch(t, ad, 3)

	opt, err := optim.NewSNG(model, ad, optim.SNGConfig{LR: 0.1, NumShards: 4})
	require.NoError(t, err)

	next, err := opt.Step(params, batch)
	require.NoError(t, err)
	assert.NotNil(t, next)
}

// TestStep_DoesNotMutateInput verifies the tree-in, tree-out contract.
func TestStep_DoesNotMutateInput(t *testing.T) {
	model, ad := newModel(t, []int{3, 8, 2})
	params := model.Init(5)

	before := make([]float32, len(params.Layers[0].Weight.Raw().AsFloat32()))
	copy(before, params.Layers[0].Weight.Raw().AsFloat32())

	ds := data.Synthetic(32, 3, 2, 11)
	batches, err := data.Batches(ds, 32, ad)
	require.NoError(t, err)

	opt, err := optim.NewSNG(model, ad, optim.SNGConfig{LR: 0.5, NumShards: 4})
	require.NoError(t, err)
	next, err := opt.Step(params, batches[0])
	require.NoError(t, err)

	assert.Equal(t, before, params.Layers[0].Weight.Raw().AsFloat32(),
		"input tree must be unchanged")
	assert.NotEqual(t, before, next.Layers[0].Weight.Raw().AsFloat32(),
		"output tree should differ")
}

// TestStep_NaNParamsReportInstability: a non-finite loss surfaces as a
// numeric instability error, not a silent bad update.
func TestStep_NaNParamsReportInstability(t *testing.T) {
	model, ad := newModel(t, []int{3, 2})
	params := model.Init(5)
	params.Layers[0].Weight.Raw().AsFloat32()[0] = float32(math.NaN())

	ds := data.Synthetic(16, 3, 2, 11)
	batches, err := data.Batches(ds, 16, ad)
	require.NoError(t, err)

	opt, err := optim.NewSNG(model, ad, optim.SNGConfig{LR: 0.1, NumShards: 2})
	require.NoError(t, err)

	_, err = opt.Step(params, batches[0])
	assert.True(t, errors.Is(err, optim.ErrNumeric), "got %v", err)
}

func TestSetLearningRate(t *testing.T) {
	model, ad := newModel(t, []int{2, 2})

	opt, err := optim.NewSNG(model, ad, optim.SNGConfig{LR: 0.1, NumShards: 2})
	require.NoError(t, err)
	assert.Equal(t, 0.1, opt.LearningRate())

	require.NoError(t, opt.SetLearningRate(0.7))
	assert.Equal(t, 0.7, opt.LearningRate())

	assert.ErrorIs(t, opt.SetLearningRate(0), optim.ErrConfig)
}
