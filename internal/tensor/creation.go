package tensor

import (
	"fmt"
	"math/rand"
)

// Zeros creates a tensor filled with zeros.
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	var dummy T
	raw, err := NewRaw(shape, inferDataType(dummy), b.Device())
	if err != nil {
		panic(fmt.Sprintf("zeros: %v", err))
	}
	return New[T, B](raw, b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return Full[T, B](shape, 1, b)
}

// Full creates a tensor filled with a specific value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

// Randn creates a tensor filled with values drawn from the standard
// normal distribution N(0, 1) using the supplied generator.
//
// The generator is explicit so that callers control seeding; repeated
// runs with the same seed produce identical tensors.
func Randn[T DType, B Backend](shape Shape, rng *rand.Rand, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	fillRandom(t, rng, func(r *rand.Rand) float64 { return r.NormFloat64() })
	return t
}

// Rand creates a tensor filled with values drawn from the uniform
// distribution U(0, 1) using the supplied generator.
func Rand[T DType, B Backend](shape Shape, rng *rand.Rand, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	fillRandom(t, rng, func(r *rand.Rand) float64 { return r.Float64() })
	return t
}

func fillRandom[T DType, B Backend](t *Tensor[T, B], rng *rand.Rand, draw func(*rand.Rand) float64) {
	switch t.DType() {
	case Float32:
		data := t.Raw().AsFloat32()
		for i := range data {
			data[i] = float32(draw(rng))
		}
	case Float64:
		data := t.Raw().AsFloat64()
		for i := range data {
			data[i] = draw(rng)
		}
	default:
		panic(fmt.Sprintf("random fill: unsupported dtype %s", t.DType()))
	}
}
