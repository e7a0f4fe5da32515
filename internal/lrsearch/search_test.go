package lrsearch_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sngrad-ml/sngrad/internal/autodiff"
	"github.com/sngrad-ml/sngrad/internal/backend/cpu"
	"github.com/sngrad-ml/sngrad/internal/data"
	"github.com/sngrad-ml/sngrad/internal/lrsearch"
	"github.com/sngrad-ml/sngrad/internal/nn"
	"github.com/sngrad-ml/sngrad/internal/optim"
)

type adBackend = *autodiff.Backend[*cpu.CPUBackend]

func TestCandidates_Bracket(t *testing.T) {
	rates, err := lrsearch.Candidates(0.5, 2.0, 4)
	require.NoError(t, err)

	require.Len(t, rates, 4)
	assert.Equal(t, 0.5, rates[0])
	assert.InDelta(t, 0.7937005259840998, rates[1], 1e-12)
	assert.InDelta(t, 1.2599210498948732, rates[2], 1e-12)
	assert.Equal(t, 2.0, rates[3])
}

func TestCandidates_Single(t *testing.T) {
	rates, err := lrsearch.Candidates(0.5, 2.0, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5}, rates)
}

func TestCandidates_DegenerateBracket(t *testing.T) {
	rates, err := lrsearch.Candidates(1.0, 1.0, 3)
	assert.ErrorIs(t, err, optim.ErrConfig)
	assert.Nil(t, rates)
}

func TestCandidates_Invalid(t *testing.T) {
	_, err := lrsearch.Candidates(0, 2, 4)
	assert.ErrorIs(t, err, optim.ErrConfig)

	_, err = lrsearch.Candidates(2, 0.5, 4)
	assert.ErrorIs(t, err, optim.ErrConfig)

	_, err = lrsearch.Candidates(0.5, 2, 0)
	assert.ErrorIs(t, err, optim.ErrConfig)
}

func TestSearch_DegenerateBracket(t *testing.T) {
	model, _, trainBatches, valBatches := searchFixture(t)

	newOpt := func(lr float64) (optim.Optimizer[adBackend], error) {
		return &noopOptimizer{lr: lr}, nil
	}

	_, err := lrsearch.Search(model, newOpt, trainBatches, valBatches, lrsearch.Config{
		LRMin:         1.0,
		LRMax:         1.0,
		NumCandidates: 3,
		TrialEpochs:   1,
		Seed:          7,
	})
	assert.ErrorIs(t, err, optim.ErrConfig)
}

func searchFixture(t *testing.T) (*nn.MLP[adBackend], adBackend, []*data.Batch[adBackend], []*data.Batch[adBackend]) {
	t.Helper()
	ad := autodiff.New(cpu.New())
	model, err := nn.NewMLP([]int{4, 8, 3}, ad)
	require.NoError(t, err)

	ds := data.Synthetic(120, 4, 3, 3)
	train, val, err := ds.Split(0.8)
	require.NoError(t, err)
	trainBatches, err := data.Batches(train, 32, ad)
	require.NoError(t, err)
	valBatches, err := data.Batches(val, 32, ad)
	require.NoError(t, err)
	return model, ad, trainBatches, valBatches
}

func TestSearch_SelectsViableRate(t *testing.T) {
	model, ad, trainBatches, valBatches := searchFixture(t)

	newOpt := func(lr float64) (optim.Optimizer[adBackend], error) {
		return optim.NewSNG[adBackend](model, ad, optim.SNGConfig{LR: lr, NumShards: 4})
	}

	result, err := lrsearch.Search(model, newOpt, trainBatches, valBatches, lrsearch.Config{
		LRMin:         0.01,
		LRMax:         0.1,
		NumCandidates: 3,
		TrialEpochs:   2,
		Seed:          7,
	})
	require.NoError(t, err)

	require.Len(t, result.Trials, 3)
	assert.Greater(t, result.LR, 0.0)
	found := false
	for _, trial := range result.Trials {
		if trial.LR == result.LR {
			found = true
			assert.True(t, trial.Viable)
			assert.Equal(t, trial.ValLoss, result.ValLoss)
		}
	}
	assert.True(t, found, "selected rate must be one of the candidates")
}

// noopOptimizer returns parameters unchanged, so every candidate ends
// with an identical validation loss.
type noopOptimizer struct{ lr float64 }

func (o *noopOptimizer) Step(params *nn.ParamTree[adBackend], _ *data.Batch[adBackend]) (*nn.ParamTree[adBackend], error) {
	return params, nil
}
func (o *noopOptimizer) LearningRate() float64        { return o.lr }
func (o *noopOptimizer) SetLearningRate(lr float64) error { o.lr = lr; return nil }
func (o *noopOptimizer) Name() string                 { return "noop" }

func TestSearch_TieGoesToSmallerRate(t *testing.T) {
	model, _, trainBatches, valBatches := searchFixture(t)

	newOpt := func(lr float64) (optim.Optimizer[adBackend], error) {
		return &noopOptimizer{lr: lr}, nil
	}

	result, err := lrsearch.Search(model, newOpt, trainBatches, valBatches, lrsearch.Config{
		LRMin:         0.5,
		LRMax:         2.0,
		NumCandidates: 4,
		TrialEpochs:   1,
		Seed:          7,
	})
	require.NoError(t, err)

	assert.Equal(t, 0.5, result.LR, "identical losses must resolve to the smallest rate")
}

// divergingOptimizer fails every step with a numeric error.
type divergingOptimizer struct{}

func (divergingOptimizer) Step(*nn.ParamTree[adBackend], *data.Batch[adBackend]) (*nn.ParamTree[adBackend], error) {
	return nil, fmt.Errorf("%w: diverged", optim.ErrNumeric)
}
func (divergingOptimizer) LearningRate() float64        { return 0 }
func (divergingOptimizer) SetLearningRate(float64) error { return nil }
func (divergingOptimizer) Name() string                 { return "diverging" }

func TestSearch_AllDiverge(t *testing.T) {
	model, _, trainBatches, valBatches := searchFixture(t)

	newOpt := func(float64) (optim.Optimizer[adBackend], error) {
		return divergingOptimizer{}, nil
	}

	_, err := lrsearch.Search(model, newOpt, trainBatches, valBatches, lrsearch.Config{
		LRMin:         0.5,
		LRMax:         2.0,
		NumCandidates: 3,
		TrialEpochs:   1,
		Seed:          7,
	})
	assert.ErrorIs(t, err, lrsearch.ErrNoViableRate)
}

func TestSearch_FreshParamsPerTrial(t *testing.T) {
	model, _, trainBatches, valBatches := searchFixture(t)

	var seen []*nn.ParamTree[adBackend]
	newOpt := func(lr float64) (optim.Optimizer[adBackend], error) {
		return &recordingOptimizer{lr: lr, seen: &seen}, nil
	}

	_, err := lrsearch.Search(model, newOpt, trainBatches, valBatches, lrsearch.Config{
		LRMin:         0.5,
		LRMax:         2.0,
		NumCandidates: 2,
		TrialEpochs:   1,
		Seed:          7,
	})
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(seen), 2)
	first := seen[0].Layers[0].Weight.Raw().AsFloat32()
	trialStride := len(seen) / 2
	second := seen[trialStride].Layers[0].Weight.Raw().AsFloat32()
	assert.Equal(t, first, second, "every trial must start from the same seeded parameters")
}

// recordingOptimizer captures the first tree it sees per step.
type recordingOptimizer struct {
	lr   float64
	seen *[]*nn.ParamTree[adBackend]
}

func (o *recordingOptimizer) Step(params *nn.ParamTree[adBackend], _ *data.Batch[adBackend]) (*nn.ParamTree[adBackend], error) {
	*o.seen = append(*o.seen, params)
	return params, nil
}
func (o *recordingOptimizer) LearningRate() float64        { return o.lr }
func (o *recordingOptimizer) SetLearningRate(lr float64) error { o.lr = lr; return nil }
func (o *recordingOptimizer) Name() string                 { return "recording" }
