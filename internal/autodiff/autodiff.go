// Package autodiff implements automatic differentiation using the decorator pattern.
//
// Backend wraps any tensor.Backend implementation (CPU, WebGPU) and adds
// gradient tracking capabilities through a GradientTape.
//
// Architecture:
//   - Decorator pattern: Backend[B] wraps any tensor.Backend implementation
//   - GradientTape: Records operations during forward pass
//   - Operation interface: Each op (Add, Mul, MatMul) implements backward pass
//   - Reverse-mode AD: Computes gradients efficiently using chain rule
//
// Usage:
//
//	cpuBackend := cpu.New()
//	ad := autodiff.New(cpuBackend)
//	ad.Tape().StartRecording()
//	// ... forward pass through ad ...
//	grads := ad.Tape().Backward(outputGrad, ad)
package autodiff

import (
	"github.com/sngrad-ml/sngrad/internal/autodiff/ops"
	"github.com/sngrad-ml/sngrad/internal/tensor"
)

// Backend wraps a tensor.Backend and adds automatic differentiation.
// It implements the tensor.Backend interface and records operations in a
// GradientTape.
type Backend[B tensor.Backend] struct {
	inner B
	tape  *GradientTape
}

// New creates a new autodiff Backend wrapping the given backend.
func New[B tensor.Backend](backend B) *Backend[B] {
	return &Backend[B]{
		inner: backend,
		tape:  NewGradientTape(),
	}
}

// Tape returns the gradient tape for manual control.
// Useful for:
//   - Starting/stopping recording
//   - Clearing tape between iterations
//   - Inspecting recorded operations
func (b *Backend[B]) Tape() *GradientTape {
	return b.tape
}

// Inner returns the wrapped backend for direct access.
func (b *Backend[B]) Inner() B {
	return b.inner
}

// Name returns the backend name.
func (b *Backend[B]) Name() string {
	return "Autodiff(" + b.inner.Name() + ")"
}

// Device returns the compute device.
func (b *Backend[B]) Device() tensor.Device {
	return b.inner.Device()
}

// Add performs element-wise addition and records the operation.
func (b *Backend[B]) Add(x, y *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Add(x, y)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewAddOp(x, y, result))
	}
	return result
}

// Sub performs element-wise subtraction and records the operation.
func (b *Backend[B]) Sub(x, y *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Sub(x, y)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewSubOp(x, y, result))
	}
	return result
}

// Mul performs element-wise multiplication and records the operation.
func (b *Backend[B]) Mul(x, y *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Mul(x, y)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewMulOp(x, y, result))
	}
	return result
}

// Div performs element-wise division and records the operation.
func (b *Backend[B]) Div(x, y *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Div(x, y)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewDivOp(x, y, result))
	}
	return result
}

// MatMul performs matrix multiplication and records the operation.
func (b *Backend[B]) MatMul(x, y *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.MatMul(x, y)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewMatMulOp(x, y, result))
	}
	return result
}

// Reshape changes the tensor shape and records the operation.
func (b *Backend[B]) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	result := b.inner.Reshape(t, newShape)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewReshapeOp(t, result))
	}
	return result
}

// Transpose permutes tensor dimensions and records the operation.
func (b *Backend[B]) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	result := b.inner.Transpose(t, axes...)
	if b.tape.IsRecording() {
		resolved := axes
		if len(resolved) == 0 {
			// Default is to reverse all dimensions
			resolved = make([]int, len(t.Shape()))
			for i := range resolved {
				resolved[i] = len(resolved) - 1 - i
			}
		}
		b.tape.Record(ops.NewTransposeOp(t, result, resolved))
	}
	return result
}

// ReLU applies the rectified linear unit and records the operation.
// This is not part of tensor.Backend; callers obtain it through the
// concrete autodiff type.
func (b *Backend[B]) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	result := ops.ReLUForward(x, b.Device())
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewReLUOp(x, result))
	}
	return result
}

// CrossEntropy computes mean softmax cross-entropy loss against one-hot
// targets and records the operation. Returns a scalar tensor.
func (b *Backend[B]) CrossEntropy(logits, targets *tensor.RawTensor) *tensor.RawTensor {
	result := ops.CrossEntropyForward(logits, targets, b.Device())
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewCrossEntropyOp(logits, targets, result))
	}
	return result
}

// The remaining operations do not participate in gradient computation.
// They delegate to the inner backend without recording; training graphs
// reach the loss through the recorded operations above.

// MulScalar multiplies every element by a scalar.
func (b *Backend[B]) MulScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return b.inner.MulScalar(x, scalar)
}

// AddScalar adds a scalar to every element.
func (b *Backend[B]) AddScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return b.inner.AddScalar(x, scalar)
}

// Exp computes element-wise e^x.
func (b *Backend[B]) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	return b.inner.Exp(x)
}

// Log computes element-wise natural logarithm.
func (b *Backend[B]) Log(x *tensor.RawTensor) *tensor.RawTensor {
	return b.inner.Log(x)
}

// Sqrt computes element-wise square root.
func (b *Backend[B]) Sqrt(x *tensor.RawTensor) *tensor.RawTensor {
	return b.inner.Sqrt(x)
}

// Softmax applies softmax along the given dimension.
func (b *Backend[B]) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	return b.inner.Softmax(x, dim)
}

// Sum reduces all elements to a scalar.
func (b *Backend[B]) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	return b.inner.Sum(x)
}

// SumDim sums along the given dimension.
func (b *Backend[B]) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return b.inner.SumDim(x, dim, keepDim)
}

// Argmax returns the index of the maximum element along the given dimension.
func (b *Backend[B]) Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	return b.inner.Argmax(x, dim)
}
