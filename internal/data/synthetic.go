package data

import (
	"math/rand"
)

// Synthetic generates a Gaussian-cluster classification dataset.
//
// Each class gets its own center drawn uniformly from [-1, 1]^features;
// samples are the center plus N(0, 0.3) noise. Classes are assigned
// round-robin so the dataset is balanced. Useful for smoke tests and
// demos that should not depend on files on disk.
func Synthetic(numSamples, numFeatures, numClasses int, seed int64) *Dataset {
	rng := rand.New(rand.NewSource(seed))

	centers := make([]float32, numClasses*numFeatures)
	for i := range centers {
		centers[i] = float32(rng.Float64()*2 - 1)
	}

	inputs := make([]float32, numSamples*numFeatures)
	labels := make([]float32, numSamples*numClasses)
	for i := 0; i < numSamples; i++ {
		class := i % numClasses
		for j := 0; j < numFeatures; j++ {
			noise := float32(rng.NormFloat64() * 0.3)
			inputs[i*numFeatures+j] = centers[class*numFeatures+j] + noise
		}
		labels[i*numClasses+class] = 1
	}

	return &Dataset{
		Inputs:      inputs,
		Labels:      labels,
		NumSamples:  numSamples,
		NumFeatures: numFeatures,
		NumClasses:  numClasses,
	}
}
