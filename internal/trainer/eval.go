// Package trainer runs training epochs and evaluation over batched
// datasets, reporting metrics to a sink and an append-only run log.
package trainer

import (
	"fmt"

	"github.com/sngrad-ml/sngrad/internal/autodiff/ops"
	"github.com/sngrad-ml/sngrad/internal/data"
	"github.com/sngrad-ml/sngrad/internal/nn"
	"github.com/sngrad-ml/sngrad/internal/tensor"
)

// Evaluate computes mean loss and accuracy over the given batches.
//
// Both metrics weight each batch by its sample count, so a smaller
// final batch contributes proportionally. Evaluation is pure: it never
// touches parameters and can be called at any point during training.
func Evaluate[B tensor.Backend](model *nn.MLP[B], params *nn.ParamTree[B], batches []*data.Batch[B]) (loss, accuracy float64, err error) {
	if len(batches) == 0 {
		return 0, 0, fmt.Errorf("evaluate: no batches")
	}

	var lossSum, accSum float64
	total := 0
	for _, batch := range batches {
		size := batch.Size()
		logits := model.Forward(params, batch.Inputs)
		raw := ops.CrossEntropyForward(logits.Raw(), batch.Labels.Raw(), model.Backend().Device())
		batchLoss := float64(raw.AsFloat32()[0])
		batchAcc := nn.Accuracy(logits.Raw(), batch.Labels.Raw())

		lossSum += batchLoss * float64(size)
		accSum += batchAcc * float64(size)
		total += size
	}

	return lossSum / float64(total), accSum / float64(total), nil
}
