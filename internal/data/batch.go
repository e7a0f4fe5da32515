package data

import (
	"fmt"

	"github.com/sngrad-ml/sngrad/internal/tensor"
)

// Batch is one unit of training or evaluation data.
//
// Inputs has shape [size, features] and Labels holds one-hot class
// vectors with shape [size, classes].
type Batch[B tensor.Backend] struct {
	Inputs *tensor.Tensor[float32, B]
	Labels *tensor.Tensor[float32, B]
}

func newBatch[B tensor.Backend](inputs, labels []float32, size, features, classes int, backend B) (*Batch[B], error) {
	in, err := tensor.FromSlice(inputs, tensor.Shape{size, features}, backend)
	if err != nil {
		return nil, fmt.Errorf("batch: inputs: %w", err)
	}
	lb, err := tensor.FromSlice(labels, tensor.Shape{size, classes}, backend)
	if err != nil {
		return nil, fmt.Errorf("batch: labels: %w", err)
	}
	return &Batch[B]{Inputs: in, Labels: lb}, nil
}

// Size returns the number of samples in the batch.
func (b *Batch[B]) Size() int {
	return b.Inputs.Shape()[0]
}

// Shards splits the batch into n disjoint sub-batches of consecutive
// samples. Every shard gets size/n samples; the last shard also absorbs
// the remainder, so shards of a batch of 10 split 3 ways have sizes
// 3, 3, 4. The union of the shards is exactly the original batch.
func (b *Batch[B]) Shards(n int) ([]*Batch[B], error) {
	size := b.Size()
	if n <= 0 {
		return nil, fmt.Errorf("shards: count %d must be positive", n)
	}
	if n > size {
		return nil, fmt.Errorf("shards: count %d exceeds batch size %d", n, size)
	}

	features := b.Inputs.Shape()[1]
	classes := b.Labels.Shape()[1]
	inputs := b.Inputs.Raw().AsFloat32()
	labels := b.Labels.Raw().AsFloat32()
	backend := b.Inputs.Backend()

	base := size / n
	shards := make([]*Batch[B], n)
	for i := 0; i < n; i++ {
		start := i * base
		end := start + base
		if i == n-1 {
			end = size
		}
		shard, err := newBatch(
			inputs[start*features:end*features],
			labels[start*classes:end*classes],
			end-start, features, classes, backend,
		)
		if err != nil {
			return nil, err
		}
		shards[i] = shard
	}
	return shards, nil
}
