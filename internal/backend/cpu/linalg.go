package cpu

import (
	"fmt"

	"github.com/sngrad-ml/sngrad/internal/parallel"
	"github.com/sngrad-ml/sngrad/internal/tensor"
)

// MatMul performs 2D matrix multiplication: [m, k] @ [k, n] -> [m, n].
// Rows of the result are computed in parallel.
func (c *CPUBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	as, bs := a.Shape(), b.Shape()
	if len(as) != 2 || len(bs) != 2 {
		panic(fmt.Sprintf("matmul: expected 2D tensors, got %v and %v", as, bs))
	}
	if as[1] != bs[0] {
		panic(fmt.Sprintf("matmul: inner dimensions mismatch: %v @ %v", as, bs))
	}

	m, k, n := as[0], as[1], bs[1]

	result, err := tensor.NewRaw(tensor.Shape{m, n}, a.DType(), c.device)
	if err != nil {
		panic(fmt.Sprintf("matmul: failed to create result tensor: %v", err))
	}

	switch a.DType() {
	case tensor.Float32:
		ad, bd, rd := a.AsFloat32(), b.AsFloat32(), result.AsFloat32()
		parallel.For(m, func(i int) {
			for l := 0; l < k; l++ {
				av := ad[i*k+l]
				if av == 0 {
					continue
				}
				row := bd[l*n : (l+1)*n]
				out := rd[i*n : (i+1)*n]
				for j, bv := range row {
					out[j] += av * bv
				}
			}
		}, c.parallel)
	case tensor.Float64:
		ad, bd, rd := a.AsFloat64(), b.AsFloat64(), result.AsFloat64()
		parallel.For(m, func(i int) {
			for l := 0; l < k; l++ {
				av := ad[i*k+l]
				if av == 0 {
					continue
				}
				row := bd[l*n : (l+1)*n]
				out := rd[i*n : (i+1)*n]
				for j, bv := range row {
					out[j] += av * bv
				}
			}
		}, c.parallel)
	default:
		panic(fmt.Sprintf("matmul: unsupported dtype %s", a.DType()))
	}

	return result
}

// Reshape returns a tensor with the same data and a new shape.
// The element count must be preserved.
func (c *CPUBackend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	if t.NumElements() != newShape.NumElements() {
		panic(fmt.Sprintf("reshape: cannot reshape %v (%d elements) to %v (%d elements)",
			t.Shape(), t.NumElements(), newShape, newShape.NumElements()))
	}

	result, err := tensor.NewRaw(newShape, t.DType(), c.device)
	if err != nil {
		panic(fmt.Sprintf("reshape: failed to create result tensor: %v", err))
	}
	copy(result.Data(), t.Data())
	return result
}

// Transpose permutes the tensor's axes. With no arguments the axes are
// reversed.
func (c *CPUBackend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := t.Shape()
	ndim := len(shape)

	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}
	if len(axes) != ndim {
		panic(fmt.Sprintf("transpose: expected %d axes, got %d", ndim, len(axes)))
	}

	outShape := make(tensor.Shape, ndim)
	for i, ax := range axes {
		if ax < 0 || ax >= ndim {
			panic(fmt.Sprintf("transpose: axis %d out of range for %dD tensor", ax, ndim))
		}
		outShape[i] = shape[ax]
	}

	result, err := tensor.NewRaw(outShape, t.DType(), c.device)
	if err != nil {
		panic(fmt.Sprintf("transpose: failed to create result tensor: %v", err))
	}

	inStrides := t.Strides()
	outStrides := outShape.ComputeStrides()

	// Map each output flat index back to the source flat index.
	srcIndex := func(flat int) int {
		src := 0
		for d := 0; d < ndim; d++ {
			idx := flat / outStrides[d]
			flat %= outStrides[d]
			src += idx * inStrides[axes[d]]
		}
		return src
	}

	switch t.DType() {
	case tensor.Float32:
		td, rd := t.AsFloat32(), result.AsFloat32()
		parallel.For(len(rd), func(i int) { rd[i] = td[srcIndex(i)] }, c.parallel)
	case tensor.Float64:
		td, rd := t.AsFloat64(), result.AsFloat64()
		parallel.For(len(rd), func(i int) { rd[i] = td[srcIndex(i)] }, c.parallel)
	case tensor.Int32:
		td, rd := t.AsInt32(), result.AsInt32()
		parallel.For(len(rd), func(i int) { rd[i] = td[srcIndex(i)] }, c.parallel)
	default:
		panic(fmt.Sprintf("transpose: unsupported dtype %s", t.DType()))
	}

	return result
}
