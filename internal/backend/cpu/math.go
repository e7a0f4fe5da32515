package cpu

import (
	"fmt"
	"math"

	"github.com/sngrad-ml/sngrad/internal/parallel"
	"github.com/sngrad-ml/sngrad/internal/tensor"
)

// MulScalar multiplies every element by a scalar.
func (c *CPUBackend) MulScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	s := toFloat64("mulscalar", scalar)
	return c.unaryOp("mulscalar", x, func(v float64) float64 { return v * s })
}

// AddScalar adds a scalar to every element.
func (c *CPUBackend) AddScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	s := toFloat64("addscalar", scalar)
	return c.unaryOp("addscalar", x, func(v float64) float64 { return v + s })
}

// Exp computes the element-wise exponential.
func (c *CPUBackend) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	return c.unaryOp("exp", x, math.Exp)
}

// Log computes the element-wise natural logarithm.
func (c *CPUBackend) Log(x *tensor.RawTensor) *tensor.RawTensor {
	return c.unaryOp("log", x, math.Log)
}

// Sqrt computes the element-wise square root.
func (c *CPUBackend) Sqrt(x *tensor.RawTensor) *tensor.RawTensor {
	return c.unaryOp("sqrt", x, math.Sqrt)
}

// unaryOp applies an element-wise unary operation.
func (c *CPUBackend) unaryOp(name string, x *tensor.RawTensor, f func(float64) float64) *tensor.RawTensor {
	result, err := tensor.NewRaw(x.Shape(), x.DType(), c.device)
	if err != nil {
		panic(fmt.Sprintf("%s: failed to create result tensor: %v", name, err))
	}

	switch x.DType() {
	case tensor.Float32:
		xd, rd := x.AsFloat32(), result.AsFloat32()
		parallel.For(len(rd), func(i int) { rd[i] = float32(f(float64(xd[i]))) }, c.parallel)
	case tensor.Float64:
		xd, rd := x.AsFloat64(), result.AsFloat64()
		parallel.For(len(rd), func(i int) { rd[i] = f(xd[i]) }, c.parallel)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, x.DType()))
	}

	return result
}

// Softmax applies softmax along the given dimension.
//
// Currently supports 2D tensors with dim == 1 (per-row softmax over
// class scores), which is the only form the classifier needs. Uses
// max-shifting for numerical stability.
func (c *CPUBackend) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	if len(shape) != 2 || dim != 1 {
		panic(fmt.Sprintf("softmax: only 2D tensors with dim=1 supported, got shape %v dim %d", shape, dim))
	}
	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("softmax: unsupported dtype %s", x.DType()))
	}

	rows, cols := shape[0], shape[1]

	result, err := tensor.NewRaw(shape, x.DType(), c.device)
	if err != nil {
		panic(fmt.Sprintf("softmax: failed to create result tensor: %v", err))
	}

	xd, rd := x.AsFloat32(), result.AsFloat32()
	parallel.For(rows, func(r int) {
		row := xd[r*cols : (r+1)*cols]
		out := rd[r*cols : (r+1)*cols]

		maxV := row[0]
		for _, v := range row[1:] {
			if v > maxV {
				maxV = v
			}
		}

		var sum float32
		for i, v := range row {
			e := float32(math.Exp(float64(v - maxV)))
			out[i] = e
			sum += e
		}
		for i := range out {
			out[i] /= sum
		}
	}, c.parallel)

	return result
}

func toFloat64(name string, scalar any) float64 {
	switch v := scalar.(type) {
	case float32:
		return float64(v)
	case float64:
		return v
	case int:
		return float64(v)
	case int32:
		return float64(v)
	default:
		panic(fmt.Sprintf("%s: unsupported scalar type %T", name, scalar))
	}
}
