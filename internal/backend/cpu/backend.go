// Package cpu implements the pure-Go CPU backend.
package cpu

import (
	"fmt"

	"github.com/sngrad-ml/sngrad/internal/parallel"
	"github.com/sngrad-ml/sngrad/internal/tensor"
)

// CPUBackend implements tensor operations on CPU.
//
// All operations allocate a fresh result tensor; operands are never
// modified. Elementwise kernels use the parallel package for
// data-parallel execution over large tensors.
type CPUBackend struct {
	device   tensor.Device
	parallel parallel.Config
}

// New creates a new CPU backend.
func New() *CPUBackend {
	return &CPUBackend{
		device:   tensor.CPU,
		parallel: parallel.DefaultConfig(),
	}
}

// NewDelegate creates a backend that runs the CPU kernels but tags
// results with the given device. Accelerator backends use it for the
// operations they execute on the host, so every tensor in a graph
// carries the accelerator's device tag.
func NewDelegate(device tensor.Device) *CPUBackend {
	return &CPUBackend{
		device:   device,
		parallel: parallel.DefaultConfig(),
	}
}

// Name returns the backend name.
func (c *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (c *CPUBackend) Device() tensor.Device {
	return c.device
}

// Add performs element-wise addition with NumPy-style broadcasting.
func (c *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return c.binaryOp("add", a, b,
		func(x, y float32) float32 { return x + y },
		func(x, y float64) float64 { return x + y })
}

// Sub performs element-wise subtraction with NumPy-style broadcasting.
func (c *CPUBackend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return c.binaryOp("sub", a, b,
		func(x, y float32) float32 { return x - y },
		func(x, y float64) float64 { return x - y })
}

// Mul performs element-wise multiplication with NumPy-style broadcasting.
func (c *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return c.binaryOp("mul", a, b,
		func(x, y float32) float32 { return x * y },
		func(x, y float64) float64 { return x * y })
}

// Div performs element-wise division with NumPy-style broadcasting.
func (c *CPUBackend) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	return c.binaryOp("div", a, b,
		func(x, y float32) float32 { return x / y },
		func(x, y float64) float64 { return x / y })
}

// binaryOp applies an element-wise binary operation with broadcasting.
func (c *CPUBackend) binaryOp(
	name string,
	a, b *tensor.RawTensor,
	f32 func(x, y float32) float32,
	f64 func(x, y float64) float64,
) *tensor.RawTensor {
	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	result, err := tensor.NewRaw(outShape, a.DType(), c.device)
	if err != nil {
		panic(fmt.Sprintf("%s: failed to create result tensor: %v", name, err))
	}

	if !needsBroadcast {
		// Fast path: same shape, flat iteration.
		switch a.DType() {
		case tensor.Float32:
			ad, bd, rd := a.AsFloat32(), b.AsFloat32(), result.AsFloat32()
			parallel.For(len(rd), func(i int) { rd[i] = f32(ad[i], bd[i]) }, c.parallel)
		case tensor.Float64:
			ad, bd, rd := a.AsFloat64(), b.AsFloat64(), result.AsFloat64()
			parallel.For(len(rd), func(i int) { rd[i] = f64(ad[i], bd[i]) }, c.parallel)
		default:
			panic(fmt.Sprintf("%s: unsupported dtype %s", name, a.DType()))
		}
		return result
	}

	// Broadcast path: map every output index back to its operand indices.
	aIndex := broadcastIndexer(outShape, a.Shape())
	bIndex := broadcastIndexer(outShape, b.Shape())

	switch a.DType() {
	case tensor.Float32:
		ad, bd, rd := a.AsFloat32(), b.AsFloat32(), result.AsFloat32()
		parallel.For(len(rd), func(i int) { rd[i] = f32(ad[aIndex(i)], bd[bIndex(i)]) }, c.parallel)
	case tensor.Float64:
		ad, bd, rd := a.AsFloat64(), b.AsFloat64(), result.AsFloat64()
		parallel.For(len(rd), func(i int) { rd[i] = f64(ad[aIndex(i)], bd[bIndex(i)]) }, c.parallel)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, a.DType()))
	}

	return result
}

// broadcastIndexer returns a function mapping a flat index in outShape to
// the corresponding flat index in srcShape under broadcasting rules.
func broadcastIndexer(outShape, srcShape tensor.Shape) func(int) int {
	outStrides := outShape.ComputeStrides()
	srcStrides := srcShape.ComputeStrides()
	offset := len(outShape) - len(srcShape)

	return func(flat int) int {
		src := 0
		for d := 0; d < len(outShape); d++ {
			idx := flat / outStrides[d]
			flat %= outStrides[d]

			sd := d - offset
			if sd < 0 {
				continue
			}
			if srcShape[sd] == 1 {
				continue
			}
			src += idx * srcStrides[sd]
		}
		return src
	}
}
