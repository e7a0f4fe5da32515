package ops

import (
	"fmt"

	"github.com/sngrad-ml/sngrad/internal/tensor"
)

// ReLUOp represents a ReLU (Rectified Linear Unit) activation: output = max(0, x).
//
// Backward: d(ReLU(x))/dx = 1 if x > 0, else 0.
type ReLUOp struct {
	input  *tensor.RawTensor // x
	output *tensor.RawTensor // max(0, x)
}

// NewReLUOp creates a new ReLUOp.
func NewReLUOp(input, output *tensor.RawTensor) *ReLUOp {
	return &ReLUOp{input: input, output: output}
}

// Backward computes the input gradient by masking where the input was
// non-positive.
func (op *ReLUOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	gradInput := zerosLike(op.input, backend.Device())

	switch op.input.DType() {
	case tensor.Float32:
		in, og, gi := op.input.AsFloat32(), outputGrad.AsFloat32(), gradInput.AsFloat32()
		for i, v := range in {
			if v > 0 {
				gi[i] = og[i]
			}
		}
	case tensor.Float64:
		in, og, gi := op.input.AsFloat64(), outputGrad.AsFloat64(), gradInput.AsFloat64()
		for i, v := range in {
			if v > 0 {
				gi[i] = og[i]
			}
		}
	default:
		panic(fmt.Sprintf("relu: unsupported dtype %s", op.input.DType()))
	}

	return []*tensor.RawTensor{gradInput}
}

// Inputs returns the input tensor [x].
func (op *ReLUOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }

// Output returns the output tensor max(0, x).
func (op *ReLUOp) Output() *tensor.RawTensor { return op.output }

// ReLUForward computes max(0, x) into a fresh tensor.
func ReLUForward(x *tensor.RawTensor, device tensor.Device) *tensor.RawTensor {
	result := zerosLike(x, device)

	switch x.DType() {
	case tensor.Float32:
		in, out := x.AsFloat32(), result.AsFloat32()
		for i, v := range in {
			if v > 0 {
				out[i] = v
			}
		}
	case tensor.Float64:
		in, out := x.AsFloat64(), result.AsFloat64()
		for i, v := range in {
			if v > 0 {
				out[i] = v
			}
		}
	default:
		panic(fmt.Sprintf("relu: unsupported dtype %s", x.DType()))
	}

	return result
}
