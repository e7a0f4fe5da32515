// Package data provides dataset loading, batching, and batch sharding
// for training and evaluation.
package data

import (
	"fmt"
	"math/rand"

	"github.com/sngrad-ml/sngrad/internal/tensor"
)

// Dataset holds samples as flat row-major float32 slices.
//
// Inputs has NumSamples*NumFeatures elements, Labels holds one-hot
// class vectors with NumSamples*NumClasses elements.
type Dataset struct {
	Inputs      []float32
	Labels      []float32
	NumSamples  int
	NumFeatures int
	NumClasses  int
}

// NewDataset validates slice lengths and wraps them in a Dataset.
func NewDataset(inputs, labels []float32, numSamples, numFeatures, numClasses int) (*Dataset, error) {
	if len(inputs) != numSamples*numFeatures {
		return nil, fmt.Errorf("dataset: inputs length %d, want %d*%d=%d",
			len(inputs), numSamples, numFeatures, numSamples*numFeatures)
	}
	if len(labels) != numSamples*numClasses {
		return nil, fmt.Errorf("dataset: labels length %d, want %d*%d=%d",
			len(labels), numSamples, numClasses, numSamples*numClasses)
	}
	return &Dataset{
		Inputs:      inputs,
		Labels:      labels,
		NumSamples:  numSamples,
		NumFeatures: numFeatures,
		NumClasses:  numClasses,
	}, nil
}

// Shuffle permutes the samples in place using the given generator.
func (d *Dataset) Shuffle(rng *rand.Rand) {
	rng.Shuffle(d.NumSamples, func(i, j int) {
		for k := 0; k < d.NumFeatures; k++ {
			d.Inputs[i*d.NumFeatures+k], d.Inputs[j*d.NumFeatures+k] =
				d.Inputs[j*d.NumFeatures+k], d.Inputs[i*d.NumFeatures+k]
		}
		for k := 0; k < d.NumClasses; k++ {
			d.Labels[i*d.NumClasses+k], d.Labels[j*d.NumClasses+k] =
				d.Labels[j*d.NumClasses+k], d.Labels[i*d.NumClasses+k]
		}
	})
}

// Split divides the dataset into a head of trainFrac samples and the
// remaining tail. Useful for carving a validation set out of the
// training data.
func (d *Dataset) Split(trainFrac float64) (*Dataset, *Dataset, error) {
	if trainFrac <= 0 || trainFrac >= 1 {
		return nil, nil, fmt.Errorf("dataset: split fraction %v must be in (0, 1)", trainFrac)
	}
	n := int(float64(d.NumSamples) * trainFrac)
	if n == 0 || n == d.NumSamples {
		return nil, nil, fmt.Errorf("dataset: split fraction %v leaves an empty side for %d samples",
			trainFrac, d.NumSamples)
	}

	head := &Dataset{
		Inputs:      d.Inputs[:n*d.NumFeatures],
		Labels:      d.Labels[:n*d.NumClasses],
		NumSamples:  n,
		NumFeatures: d.NumFeatures,
		NumClasses:  d.NumClasses,
	}
	tail := &Dataset{
		Inputs:      d.Inputs[n*d.NumFeatures:],
		Labels:      d.Labels[n*d.NumClasses:],
		NumSamples:  d.NumSamples - n,
		NumFeatures: d.NumFeatures,
		NumClasses:  d.NumClasses,
	}
	return head, tail, nil
}

// Batches cuts the dataset into consecutive batches of batchSize
// samples. The final batch keeps whatever remains and may be smaller.
//
// The returned slice can be iterated any number of times; evaluation
// restarts simply re-range over it.
func Batches[B tensor.Backend](d *Dataset, batchSize int, backend B) ([]*Batch[B], error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("dataset: batch size %d must be positive", batchSize)
	}
	if d.NumSamples == 0 {
		return nil, fmt.Errorf("dataset: no samples to batch")
	}

	numBatches := (d.NumSamples + batchSize - 1) / batchSize
	batches := make([]*Batch[B], 0, numBatches)
	for start := 0; start < d.NumSamples; start += batchSize {
		end := start + batchSize
		if end > d.NumSamples {
			end = d.NumSamples
		}
		b, err := newBatch(
			d.Inputs[start*d.NumFeatures:end*d.NumFeatures],
			d.Labels[start*d.NumClasses:end*d.NumClasses],
			end-start, d.NumFeatures, d.NumClasses, backend,
		)
		if err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
	return batches, nil
}
