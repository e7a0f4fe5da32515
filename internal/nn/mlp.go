package nn

import (
	"fmt"
	"math/rand"

	"github.com/sngrad-ml/sngrad/internal/autodiff/ops"
	"github.com/sngrad-ml/sngrad/internal/tensor"
)

// reluBackend is implemented by backends that record ReLU on a tape.
type reluBackend interface {
	ReLU(x *tensor.RawTensor) *tensor.RawTensor
}

// crossEntropyBackend is implemented by backends that record the loss
// on a tape.
type crossEntropyBackend interface {
	CrossEntropy(logits, targets *tensor.RawTensor) *tensor.RawTensor
}

// MLP is a multi-layer perceptron with ReLU hidden activations and
// linear output logits.
//
// The model itself is stateless: parameters live in a ParamTree and are
// passed to every Forward and Loss call. This keeps training steps pure
// and lets optimizers evaluate the same model on many candidate trees.
type MLP[B tensor.Backend] struct {
	sizes   []int
	backend B
}

// NewMLP creates an MLP for the given layer sizes.
//
// layerSizes lists the width of every layer including input and output,
// e.g. [784, 128, 10] for MNIST with one hidden layer.
func NewMLP[B tensor.Backend](layerSizes []int, backend B) (*MLP[B], error) {
	if len(layerSizes) < 2 {
		return nil, fmt.Errorf("mlp: need at least input and output sizes, got %v", layerSizes)
	}
	for i, s := range layerSizes {
		if s <= 0 {
			return nil, fmt.Errorf("mlp: layer size %d at index %d must be positive", s, i)
		}
	}
	sizes := make([]int, len(layerSizes))
	copy(sizes, layerSizes)
	return &MLP[B]{sizes: sizes, backend: backend}, nil
}

// LayerSizes returns a copy of the layer widths.
func (m *MLP[B]) LayerSizes() []int {
	sizes := make([]int, len(m.sizes))
	copy(sizes, m.sizes)
	return sizes
}

// Backend returns the backend the model computes on.
func (m *MLP[B]) Backend() B {
	return m.backend
}

// Init builds a fresh parameter tree from the given seed.
//
// Weights use Xavier initialization, biases start at zero. The same
// seed always produces the same tree, which learning rate search relies
// on to give every candidate an identical starting point.
func (m *MLP[B]) Init(seed int64) *ParamTree[B] {
	rng := rand.New(rand.NewSource(seed))
	layers := make([]Layer[B], len(m.sizes)-1)
	for i := range layers {
		in, out := m.sizes[i], m.sizes[i+1]
		layers[i] = Layer[B]{
			Weight: Xavier(in, out, tensor.Shape{in, out}, rng, m.backend),
			Bias:   Zeros[B](tensor.Shape{out}, m.backend),
		}
	}
	return &ParamTree[B]{Layers: layers}
}

// Forward computes logits for a batch of inputs.
//
// Inputs have shape [batch, in_features]; the result has shape
// [batch, out_features]. Hidden layers apply ReLU, the final layer is
// linear.
func (m *MLP[B]) Forward(params *ParamTree[B], inputs *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if len(params.Layers) != len(m.sizes)-1 {
		panic(fmt.Sprintf("mlp: parameter tree has %d layers, model expects %d",
			len(params.Layers), len(m.sizes)-1))
	}

	h := inputs
	for i, layer := range params.Layers {
		h = h.MatMul(layer.Weight).Add(layer.Bias)
		if i < len(params.Layers)-1 {
			h = m.relu(h)
		}
	}
	return h
}

// Loss computes the mean cross-entropy between model logits and one-hot
// targets. The result is a scalar tensor with shape [1].
func (m *MLP[B]) Loss(params *ParamTree[B], inputs, targets *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	logits := m.Forward(params, inputs)

	var raw *tensor.RawTensor
	if ceb, ok := any(m.backend).(crossEntropyBackend); ok {
		raw = ceb.CrossEntropy(logits.Raw(), targets.Raw())
	} else {
		raw = ops.CrossEntropyForward(logits.Raw(), targets.Raw(), m.backend.Device())
	}
	return tensor.New[float32](raw, m.backend)
}

func (m *MLP[B]) relu(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	var raw *tensor.RawTensor
	if rb, ok := any(m.backend).(reluBackend); ok {
		raw = rb.ReLU(x.Raw())
	} else {
		raw = ops.ReLUForward(x.Raw(), m.backend.Device())
	}
	return tensor.New[float32](raw, m.backend)
}

// Accuracy returns the fraction of rows where the logits argmax matches
// the one-hot target argmax. Both tensors have shape [batch, classes].
func Accuracy(logits, targets *tensor.RawTensor) float64 {
	shape := logits.Shape()
	if len(shape) != 2 || !targets.Shape().Equal(shape) {
		panic(fmt.Sprintf("accuracy: shape mismatch %v vs %v", shape, targets.Shape()))
	}
	batch, classes := shape[0], shape[1]
	if batch == 0 {
		return 0
	}

	logitsData := logits.AsFloat32()
	targetsData := targets.AsFloat32()

	correct := 0
	for b := 0; b < batch; b++ {
		predicted := argmaxRow(logitsData[b*classes : (b+1)*classes])
		actual := argmaxRow(targetsData[b*classes : (b+1)*classes])
		if predicted == actual {
			correct++
		}
	}
	return float64(correct) / float64(batch)
}

func argmaxRow(row []float32) int {
	best := 0
	for i, v := range row {
		if v > row[best] {
			best = i
		}
	}
	return best
}
