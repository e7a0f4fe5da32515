package ops

import (
	"fmt"
	"math"

	"github.com/sngrad-ml/sngrad/internal/tensor"
)

// CrossEntropyOp represents softmax cross-entropy loss against one-hot
// targets.
//
// Forward (mean over batch):
//
//	Loss = -1/B * Σ_b Σ_c y[b,c] * log_softmax(logits)[b,c]
//
// Backward:
//
//	∂L/∂logits = (softmax(logits) - y) / B
//
// Targets are one-hot encoded class probabilities; no gradient flows to
// them.
type CrossEntropyOp struct {
	logits  *tensor.RawTensor // [batch, classes]
	targets *tensor.RawTensor // [batch, classes] one-hot
	output  *tensor.RawTensor // scalar loss
}

// NewCrossEntropyOp creates a new CrossEntropyOp.
func NewCrossEntropyOp(logits, targets, output *tensor.RawTensor) *CrossEntropyOp {
	return &CrossEntropyOp{logits: logits, targets: targets, output: output}
}

// Backward computes the logits gradient. The targets entry is nil.
func (op *CrossEntropyOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	shape := op.logits.Shape()
	batch, classes := shape[0], shape[1]

	grad := zerosLike(op.logits, backend.Device())

	logits := op.logits.AsFloat32()
	targets := op.targets.AsFloat32()
	gradData := grad.AsFloat32()
	scale := outputGrad.AsFloat32()[0] / float32(batch)

	for b := 0; b < batch; b++ {
		row := logits[b*classes : (b+1)*classes]
		probs := softmaxRow(row)
		for c := 0; c < classes; c++ {
			gradData[b*classes+c] = scale * (probs[c] - targets[b*classes+c])
		}
	}

	return []*tensor.RawTensor{grad, nil}
}

// Inputs returns [logits, targets].
func (op *CrossEntropyOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.logits, op.targets}
}

// Output returns the scalar loss tensor.
func (op *CrossEntropyOp) Output() *tensor.RawTensor { return op.output }

// CrossEntropyForward computes the mean cross-entropy loss between
// logits and one-hot targets into a fresh scalar tensor.
func CrossEntropyForward(logits, targets *tensor.RawTensor, device tensor.Device) *tensor.RawTensor {
	shape := logits.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("cross entropy: logits must be 2D [batch, classes], got %v", shape))
	}
	if !targets.Shape().Equal(shape) {
		panic(fmt.Sprintf("cross entropy: targets shape %v does not match logits %v", targets.Shape(), shape))
	}

	batch, classes := shape[0], shape[1]
	logitsData := logits.AsFloat32()
	targetsData := targets.AsFloat32()

	var total float64
	for b := 0; b < batch; b++ {
		row := logitsData[b*classes : (b+1)*classes]
		logProbs := logSoftmaxRow(row)
		for c := 0; c < classes; c++ {
			if y := targetsData[b*classes+c]; y != 0 {
				total -= float64(y) * float64(logProbs[c])
			}
		}
	}

	result, err := tensor.NewRaw(tensor.Shape{1}, tensor.Float32, device)
	if err != nil {
		panic(fmt.Sprintf("cross entropy: failed to create result: %v", err))
	}
	result.AsFloat32()[0] = float32(total / float64(batch))
	return result
}

// logSoftmaxRow computes log(softmax(z)) using the log-sum-exp trick.
func logSoftmaxRow(z []float32) []float32 {
	maxZ := z[0]
	for _, v := range z[1:] {
		if v > maxZ {
			maxZ = v
		}
	}

	var sumExp float64
	for _, v := range z {
		sumExp += math.Exp(float64(v - maxZ))
	}
	logSumExp := float64(maxZ) + math.Log(sumExp)

	result := make([]float32, len(z))
	for i, v := range z {
		result[i] = float32(float64(v) - logSumExp)
	}
	return result
}

// softmaxRow computes softmax(z) = exp(log_softmax(z)).
func softmaxRow(z []float32) []float32 {
	logProbs := logSoftmaxRow(z)
	result := make([]float32, len(logProbs))
	for i, lp := range logProbs {
		result[i] = float32(math.Exp(float64(lp)))
	}
	return result
}
