// Package webgpu implements a WebGPU-accelerated backend.
//
// Matrix multiplication and same-shape elementwise arithmetic run as
// WGSL compute shaders; the remaining operations run on the host
// through the CPU kernels. Tensor data lives in host memory and is
// uploaded per dispatch, which keeps the backend a drop-in replacement
// for the CPU backend at the cost of transfer overhead.
package webgpu

import (
	"fmt"
	"sync"

	"github.com/openfluke/webgpu/wgpu"

	"github.com/sngrad-ml/sngrad/internal/backend/cpu"
	"github.com/sngrad-ml/sngrad/internal/tensor"
)

// Backend implements tensor operations on GPU using WebGPU.
type Backend struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	// Compiled pipeline cache, keyed by shader name
	pipelines map[string]*wgpu.ComputePipeline
	mu        sync.Mutex

	// Host kernels for operations without a GPU implementation
	host *cpu.CPUBackend
}

// New creates a new WebGPU backend.
// Returns an error if WebGPU is not available or initialization fails.
func New() (backend *Backend, err error) {
	// The native wgpu library panics when it is missing entirely.
	defer func() {
		if r := recover(); r != nil {
			backend = nil
			err = fmt.Errorf("webgpu: native library not available: %v", r)
		}
	}()

	instance := wgpu.CreateInstance(nil)
	if instance == nil {
		return nil, fmt.Errorf("webgpu: failed to create instance")
	}

	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		adapter, err = instance.RequestAdapter(nil)
	}
	if err != nil {
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to request adapter: %w", err)
	}

	device, err := adapter.RequestDevice(nil)
	if err != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to request device: %w", err)
	}

	queue := device.GetQueue()
	if queue == nil {
		device.Release()
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to get queue")
	}

	return &Backend{
		instance:  instance,
		adapter:   adapter,
		device:    device,
		queue:     queue,
		pipelines: make(map[string]*wgpu.ComputePipeline),
		host:      cpu.NewDelegate(tensor.WebGPU),
	}, nil
}

// Release frees all WebGPU resources. The backend must not be used
// afterwards.
func (b *Backend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pipelines = nil
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}

// Name returns the backend name.
func (b *Backend) Name() string {
	return "WebGPU"
}

// Device returns the compute device.
func (b *Backend) Device() tensor.Device {
	return tensor.WebGPU
}

// Add performs element-wise addition.
func (b *Backend) Add(x, y *tensor.RawTensor) *tensor.RawTensor {
	return b.binaryOp(shaderAdd, x, y)
}

// Sub performs element-wise subtraction.
func (b *Backend) Sub(x, y *tensor.RawTensor) *tensor.RawTensor {
	return b.binaryOp(shaderSub, x, y)
}

// Mul performs element-wise multiplication.
func (b *Backend) Mul(x, y *tensor.RawTensor) *tensor.RawTensor {
	return b.binaryOp(shaderMul, x, y)
}

// Div performs element-wise division.
func (b *Backend) Div(x, y *tensor.RawTensor) *tensor.RawTensor {
	return b.binaryOp(shaderDiv, x, y)
}

// binaryOp dispatches same-shape float32 operands to the GPU and
// everything else (broadcasting, float64) to the host kernels.
func (b *Backend) binaryOp(name string, x, y *tensor.RawTensor) *tensor.RawTensor {
	if x.DType() != tensor.Float32 || !x.Shape().Equal(y.Shape()) {
		return b.hostBinary(name, x, y)
	}
	result, err := b.dispatchElementwise(name, x, y)
	if err != nil {
		panic(fmt.Sprintf("webgpu %s: %v", name, err))
	}
	return result
}

func (b *Backend) hostBinary(name string, x, y *tensor.RawTensor) *tensor.RawTensor {
	switch name {
	case shaderAdd:
		return b.host.Add(x, y)
	case shaderSub:
		return b.host.Sub(x, y)
	case shaderMul:
		return b.host.Mul(x, y)
	case shaderDiv:
		return b.host.Div(x, y)
	}
	panic("webgpu: unknown elementwise op " + name)
}

// MatMul performs 2D matrix multiplication on the GPU.
func (b *Backend) MatMul(x, y *tensor.RawTensor) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		return b.host.MatMul(x, y)
	}
	xs, ys := x.Shape(), y.Shape()
	if len(xs) != 2 || len(ys) != 2 || xs[1] != ys[0] {
		// Shape errors surface through the host kernel's checks
		return b.host.MatMul(x, y)
	}
	result, err := b.dispatchMatMul(x, y)
	if err != nil {
		panic(fmt.Sprintf("webgpu matmul: %v", err))
	}
	return result
}

// The remaining operations run on the host.

// Reshape changes the tensor shape.
func (b *Backend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	return b.host.Reshape(t, newShape)
}

// Transpose permutes tensor dimensions.
func (b *Backend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	return b.host.Transpose(t, axes...)
}

// MulScalar multiplies every element by a scalar.
func (b *Backend) MulScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return b.host.MulScalar(x, scalar)
}

// AddScalar adds a scalar to every element.
func (b *Backend) AddScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return b.host.AddScalar(x, scalar)
}

// Exp computes element-wise e^x.
func (b *Backend) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	return b.host.Exp(x)
}

// Log computes element-wise natural logarithm.
func (b *Backend) Log(x *tensor.RawTensor) *tensor.RawTensor {
	return b.host.Log(x)
}

// Sqrt computes element-wise square root.
func (b *Backend) Sqrt(x *tensor.RawTensor) *tensor.RawTensor {
	return b.host.Sqrt(x)
}

// Softmax applies softmax along the given dimension.
func (b *Backend) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	return b.host.Softmax(x, dim)
}

// Sum reduces all elements to a scalar.
func (b *Backend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	return b.host.Sum(x)
}

// SumDim sums along the given dimension.
func (b *Backend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return b.host.SumDim(x, dim, keepDim)
}

// Argmax returns the index of the maximum element along the given dimension.
func (b *Backend) Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	return b.host.Argmax(x, dim)
}
