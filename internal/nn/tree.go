// Package nn provides neural network building blocks: the parameter
// tree, weight initialization, and the multi-layer perceptron model.
package nn

import (
	"fmt"

	"github.com/sngrad-ml/sngrad/internal/tensor"
)

// Layer holds the parameters of one fully connected layer.
//
// Weight has shape [in_features, out_features] and Bias has shape
// [out_features], so the forward pass is y = x @ W + b.
type Layer[B tensor.Backend] struct {
	Weight *tensor.Tensor[float32, B]
	Bias   *tensor.Tensor[float32, B]
}

// ParamTree is the complete set of model parameters.
//
// Trees are treated as immutable: optimizers never modify a tree in
// place, they return a freshly built tree for the updated parameters.
// The tree before a step therefore remains valid after it.
type ParamTree[B tensor.Backend] struct {
	Layers []Layer[B]
}

// Tensors returns the parameters flattened in a stable order:
// weight then bias for each layer, first layer first.
//
// Gradient estimators align their per-parameter statistics with this
// order.
func (t *ParamTree[B]) Tensors() []*tensor.RawTensor {
	raws := make([]*tensor.RawTensor, 0, 2*len(t.Layers))
	for _, l := range t.Layers {
		raws = append(raws, l.Weight.Raw(), l.Bias.Raw())
	}
	return raws
}

// NumParameters returns the total scalar parameter count.
func (t *ParamTree[B]) NumParameters() int {
	total := 0
	for _, l := range t.Layers {
		total += l.Weight.NumElements() + l.Bias.NumElements()
	}
	return total
}

// Clone returns a deep copy of the tree. Tensor data is copied, not
// shared.
func (t *ParamTree[B]) Clone() *ParamTree[B] {
	layers := make([]Layer[B], len(t.Layers))
	for i, l := range t.Layers {
		layers[i] = Layer[B]{
			Weight: l.Weight.Clone(),
			Bias:   l.Bias.Clone(),
		}
	}
	return &ParamTree[B]{Layers: layers}
}

// TreeFromRaw assembles a tree from flattened raw tensors in the order
// produced by Tensors. The slice length must be even: weight then bias
// per layer.
func TreeFromRaw[B tensor.Backend](raws []*tensor.RawTensor, backend B) (*ParamTree[B], error) {
	if len(raws)%2 != 0 {
		return nil, fmt.Errorf("tree from raw: expected weight/bias pairs, got %d tensors", len(raws))
	}
	layers := make([]Layer[B], len(raws)/2)
	for i := range layers {
		layers[i] = Layer[B]{
			Weight: tensor.New[float32](raws[2*i], backend),
			Bias:   tensor.New[float32](raws[2*i+1], backend),
		}
	}
	return &ParamTree[B]{Layers: layers}, nil
}
