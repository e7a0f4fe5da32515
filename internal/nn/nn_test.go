package nn_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sngrad-ml/sngrad/internal/backend/cpu"
	"github.com/sngrad-ml/sngrad/internal/nn"
	"github.com/sngrad-ml/sngrad/internal/tensor"
)

func TestNewMLP_Validation(t *testing.T) {
	backend := cpu.New()

	_, err := nn.NewMLP([]int{10}, backend)
	assert.Error(t, err, "single layer size should be rejected")

	_, err = nn.NewMLP([]int{10, 0, 5}, backend)
	assert.Error(t, err, "zero layer size should be rejected")

	m, err := nn.NewMLP([]int{4, 8, 3}, backend)
	require.NoError(t, err)
	assert.Equal(t, []int{4, 8, 3}, m.LayerSizes())
}

func TestMLP_InitDeterministic(t *testing.T) {
	backend := cpu.New()
	m, err := nn.NewMLP([]int{4, 8, 3}, backend)
	require.NoError(t, err)

	a := m.Init(42)
	b := m.Init(42)
	c := m.Init(43)

	require.Len(t, a.Layers, 2)
	assert.Equal(t, a.Layers[0].Weight.Data(), b.Layers[0].Weight.Data(),
		"same seed must produce identical weights")
	assert.NotEqual(t, a.Layers[0].Weight.Data(), c.Layers[0].Weight.Data(),
		"different seeds should produce different weights")

	// Biases start at zero
	for _, v := range a.Layers[0].Bias.Data() {
		assert.Zero(t, v)
	}
}

func TestMLP_ForwardShape(t *testing.T) {
	backend := cpu.New()
	m, err := nn.NewMLP([]int{4, 8, 3}, backend)
	require.NoError(t, err)

	params := m.Init(1)
	inputs := tensor.Zeros[float32](tensor.Shape{5, 4}, backend)

	logits := m.Forward(params, inputs)
	assert.Equal(t, tensor.Shape{5, 3}, logits.Shape())
}

func TestMLP_LossUniformLogits(t *testing.T) {
	backend := cpu.New()
	m, err := nn.NewMLP([]int{2, 3}, backend)
	require.NoError(t, err)

	// Zero weights and biases produce uniform logits, so the loss is
	// ln(num_classes) regardless of the target.
	params := &nn.ParamTree[*cpu.CPUBackend]{
		Layers: []nn.Layer[*cpu.CPUBackend]{{
			Weight: nn.Zeros[*cpu.CPUBackend](tensor.Shape{2, 3}, backend),
			Bias:   nn.Zeros[*cpu.CPUBackend](tensor.Shape{3}, backend),
		}},
	}

	inputs, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2}, backend)
	require.NoError(t, err)
	targets, err := tensor.FromSlice([]float32{1, 0, 0, 0, 0, 1}, tensor.Shape{2, 3}, backend)
	require.NoError(t, err)

	loss := m.Loss(params, inputs, targets)
	require.Equal(t, tensor.Shape{1}, loss.Shape())
	assert.InDelta(t, math.Log(3), float64(loss.Raw().AsFloat32()[0]), 1e-6)
}

func TestParamTree_TensorsOrder(t *testing.T) {
	backend := cpu.New()
	m, err := nn.NewMLP([]int{4, 8, 3}, backend)
	require.NoError(t, err)

	params := m.Init(7)
	raws := params.Tensors()

	require.Len(t, raws, 4)
	assert.Equal(t, tensor.Shape{4, 8}, raws[0].Shape())
	assert.Equal(t, tensor.Shape{8}, raws[1].Shape())
	assert.Equal(t, tensor.Shape{8, 3}, raws[2].Shape())
	assert.Equal(t, tensor.Shape{3}, raws[3].Shape())

	assert.Equal(t, 4*8+8+8*3+3, params.NumParameters())
}

func TestParamTree_CloneIndependent(t *testing.T) {
	backend := cpu.New()
	m, err := nn.NewMLP([]int{2, 2}, backend)
	require.NoError(t, err)

	original := m.Init(7)
	clone := original.Clone()

	clone.Layers[0].Weight.Raw().AsFloat32()[0] = 99

	assert.NotEqual(t, float32(99), original.Layers[0].Weight.Raw().AsFloat32()[0],
		"mutating the clone must not touch the original")
}

func TestTreeFromRaw(t *testing.T) {
	backend := cpu.New()
	m, err := nn.NewMLP([]int{4, 8, 3}, backend)
	require.NoError(t, err)

	params := m.Init(7)
	rebuilt, err := nn.TreeFromRaw(params.Tensors(), backend)
	require.NoError(t, err)

	require.Len(t, rebuilt.Layers, 2)
	assert.Equal(t, params.Layers[0].Weight.Data(), rebuilt.Layers[0].Weight.Data())
	assert.Equal(t, params.Layers[1].Bias.Data(), rebuilt.Layers[1].Bias.Data())

	_, err = nn.TreeFromRaw(params.Tensors()[:3], backend)
	assert.Error(t, err, "odd tensor count should be rejected")
}

func TestAccuracy(t *testing.T) {
	logits, err := tensor.NewRaw(tensor.Shape{3, 2}, tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	copy(logits.AsFloat32(), []float32{
		2, 1, // predicts class 0
		0, 3, // predicts class 1
		5, 4, // predicts class 0
	})

	targets, err := tensor.NewRaw(tensor.Shape{3, 2}, tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	copy(targets.AsFloat32(), []float32{
		1, 0, // class 0: correct
		1, 0, // class 0: wrong
		1, 0, // class 0: correct
	})

	assert.InDelta(t, 2.0/3.0, nn.Accuracy(logits, targets), 1e-9)
}
