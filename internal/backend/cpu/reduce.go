package cpu

import (
	"fmt"

	"github.com/sngrad-ml/sngrad/internal/tensor"
)

// Sum reduces the tensor to a single-element total.
func (c *CPUBackend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	result, err := tensor.NewRaw(tensor.Shape{1}, x.DType(), c.device)
	if err != nil {
		panic(fmt.Sprintf("sum: failed to create result tensor: %v", err))
	}

	switch x.DType() {
	case tensor.Float32:
		var sum float32
		for _, v := range x.AsFloat32() {
			sum += v
		}
		result.AsFloat32()[0] = sum
	case tensor.Float64:
		var sum float64
		for _, v := range x.AsFloat64() {
			sum += v
		}
		result.AsFloat64()[0] = sum
	default:
		panic(fmt.Sprintf("sum: unsupported dtype %s", x.DType()))
	}

	return result
}

// SumDim sums the tensor along the given dimension. When keepDim is true
// the reduced dimension is retained with size 1, otherwise it is dropped.
func (c *CPUBackend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	shape := x.Shape()
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("sumdim: invalid dimension %d for shape %v", dim, shape))
	}

	reduced := shape.Clone()
	reduced[dim] = 1

	result, err := tensor.NewRaw(reduced, x.DType(), c.device)
	if err != nil {
		panic(fmt.Sprintf("sumdim: failed to create result tensor: %v", err))
	}

	inStrides := shape.ComputeStrides()
	outStrides := reduced.ComputeStrides()
	n := x.NumElements()

	// Accumulate every input element into its reduced position.
	outIndex := func(flat int) int {
		out := 0
		for d := 0; d < len(shape); d++ {
			idx := flat / inStrides[d]
			flat %= inStrides[d]
			if d == dim {
				continue
			}
			out += idx * outStrides[d]
		}
		return out
	}

	switch x.DType() {
	case tensor.Float32:
		xd, rd := x.AsFloat32(), result.AsFloat32()
		for i := 0; i < n; i++ {
			rd[outIndex(i)] += xd[i]
		}
	case tensor.Float64:
		xd, rd := x.AsFloat64(), result.AsFloat64()
		for i := 0; i < n; i++ {
			rd[outIndex(i)] += xd[i]
		}
	default:
		panic(fmt.Sprintf("sumdim: unsupported dtype %s", x.DType()))
	}

	if keepDim {
		return result
	}

	squeezed := make(tensor.Shape, 0, len(shape)-1)
	for d, size := range shape {
		if d == dim {
			continue
		}
		squeezed = append(squeezed, size)
	}
	if len(squeezed) == 0 {
		squeezed = tensor.Shape{1}
	}
	return c.Reshape(result, squeezed)
}

// Argmax returns the index of the maximum value along a dimension.
//
// Currently supports 2D tensors with dim == 1 (per-row argmax over class
// scores). The result has shape [rows] and dtype Int32.
func (c *CPUBackend) Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	if len(shape) != 2 || dim != 1 {
		panic(fmt.Sprintf("argmax: only 2D tensors with dim=1 supported, got shape %v dim %d", shape, dim))
	}
	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("argmax: unsupported dtype %s", x.DType()))
	}

	rows, cols := shape[0], shape[1]

	result, err := tensor.NewRaw(tensor.Shape{rows}, tensor.Int32, c.device)
	if err != nil {
		panic(fmt.Sprintf("argmax: failed to create result tensor: %v", err))
	}

	xd, rd := x.AsFloat32(), result.AsInt32()
	for r := 0; r < rows; r++ {
		row := xd[r*cols : (r+1)*cols]
		best := 0
		for i, v := range row[1:] {
			if v > row[best] {
				best = i + 1
			}
		}
		rd[r] = int32(best)
	}

	return result
}
