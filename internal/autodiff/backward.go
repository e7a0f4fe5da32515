package autodiff

import (
	"fmt"

	"github.com/sngrad-ml/sngrad/internal/tensor"
)

// BackwardCapable is an interface for backends that support backward pass.
// Backend implements this interface.
type BackwardCapable interface {
	tensor.Backend
	// GetTape returns the gradient tape for backward computation.
	GetTape() *GradientTape
}

// GetTape returns the gradient tape (implements BackwardCapable).
func (b *Backend[B]) GetTape() *GradientTape {
	return b.tape
}

// Backward computes gradients for a tensor using the backend's tape.
//
// The output gradient is seeded with ones, which matches the usual case
// of differentiating a scalar loss.
//
// Example:
//
//	ad := autodiff.New(cpu.New())
//	ad.Tape().StartRecording()
//	loss := model.Loss(params, batch)
//	grads := autodiff.Backward(loss, ad)
//	wGrad := grads[params.Layers[0].Weight.Raw()]
func Backward[T tensor.DType, B BackwardCapable](t *tensor.Tensor[T, B], backend B) map[*tensor.RawTensor]*tensor.RawTensor {
	tape := backend.GetTape()

	if tape.NumOps() == 0 {
		panic("backward: no operations recorded (did you forget to call Tape().StartRecording()?)")
	}

	outputGrad, err := tensor.NewRaw(t.Shape(), t.DType(), backend.Device())
	if err != nil {
		panic(fmt.Sprintf("backward: failed to create output gradient: %v", err))
	}

	switch t.DType() {
	case tensor.Float32:
		data := outputGrad.AsFloat32()
		for i := range data {
			data[i] = 1.0
		}
	case tensor.Float64:
		data := outputGrad.AsFloat64()
		for i := range data {
			data[i] = 1.0
		}
	default:
		panic(fmt.Sprintf("backward: unsupported dtype %s (only float32/float64 supported)", t.DType()))
	}

	return tape.Backward(outputGrad, backend)
}
