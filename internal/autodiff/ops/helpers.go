package ops

import (
	"fmt"

	"github.com/sngrad-ml/sngrad/internal/tensor"
)

// reduceBroadcast reduces a gradient tensor to match the target shape.
// This is necessary when broadcasting was used in the forward pass.
//
// Example:
//
//	Forward: a[1,4] + b[3,4] -> c[3,4]  (a was broadcast along dim 0)
//	Backward: grad_c[3,4] -> grad_a[1,4] (sum along dim 0)
func reduceBroadcast(grad *tensor.RawTensor, targetShape tensor.Shape, backend tensor.Backend) *tensor.RawTensor {
	gradShape := grad.Shape()

	if gradShape.Equal(targetShape) {
		return grad.Clone()
	}

	// NumPy broadcasting aligns shapes from the right: first sum away
	// extra leading dimensions, then sum along dimensions where the
	// target is 1.
	result := grad
	for len(result.Shape()) > len(targetShape) {
		result = backend.SumDim(result, 0, false)
	}

	for d := 0; d < len(targetShape); d++ {
		if targetShape[d] == 1 && result.Shape()[d] > 1 {
			result = backend.SumDim(result, d, true)
		}
	}

	if !result.Shape().Equal(targetShape) {
		result = backend.Reshape(result, targetShape)
	}

	return result
}

// zerosLike creates a zero-filled tensor with the same shape and dtype.
func zerosLike(t *tensor.RawTensor, device tensor.Device) *tensor.RawTensor {
	z, err := tensor.NewRaw(t.Shape(), t.DType(), device)
	if err != nil {
		panic(fmt.Sprintf("ops: failed to create zero tensor: %v", err))
	}
	return z
}
