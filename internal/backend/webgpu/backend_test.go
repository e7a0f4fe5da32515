package webgpu_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sngrad-ml/sngrad/internal/backend/webgpu"
	"github.com/sngrad-ml/sngrad/internal/tensor"
)

// newBackend skips the test when no GPU (or native library) is
// available, so the suite passes on CI machines without one.
func newBackend(t *testing.T) *webgpu.Backend {
	t.Helper()
	b, err := webgpu.New()
	if err != nil {
		t.Skipf("WebGPU not available: %v", err)
	}
	t.Cleanup(b.Release)
	return b
}

func TestBackend_Metadata(t *testing.T) {
	b := newBackend(t)
	assert.Equal(t, "WebGPU", b.Name())
	assert.Equal(t, tensor.WebGPU, b.Device())
}

func TestBackend_Add(t *testing.T) {
	b := newBackend(t)

	x, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{4}, b)
	require.NoError(t, err)
	y, err := tensor.FromSlice([]float32{10, 20, 30, 40}, tensor.Shape{4}, b)
	require.NoError(t, err)

	result := b.Add(x.Raw(), y.Raw())
	assert.Equal(t, []float32{11, 22, 33, 44}, result.AsFloat32())
}

func TestBackend_MatMul(t *testing.T) {
	b := newBackend(t)

	x, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, b)
	require.NoError(t, err)
	y, err := tensor.FromSlice([]float32{7, 8, 9, 10, 11, 12}, tensor.Shape{3, 2}, b)
	require.NoError(t, err)

	result := b.MatMul(x.Raw(), y.Raw())
	assert.Equal(t, tensor.Shape{2, 2}, result.Shape())
	assert.Equal(t, []float32{58, 64, 139, 154}, result.AsFloat32())
}

func TestBackend_BroadcastFallsBackToHost(t *testing.T) {
	b := newBackend(t)

	x, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{3, 2}, b)
	require.NoError(t, err)
	bias, err := tensor.FromSlice([]float32{10, 20}, tensor.Shape{2}, b)
	require.NoError(t, err)

	result := b.Add(x.Raw(), bias.Raw())
	assert.Equal(t, []float32{11, 22, 13, 24, 15, 26}, result.AsFloat32())
	assert.Equal(t, tensor.WebGPU, result.Device())
}
