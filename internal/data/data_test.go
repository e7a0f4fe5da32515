package data_test

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sngrad-ml/sngrad/internal/backend/cpu"
	"github.com/sngrad-ml/sngrad/internal/data"
)

func TestBatches(t *testing.T) {
	backend := cpu.New()
	ds := data.Synthetic(10, 3, 2, 1)

	batches, err := data.Batches(ds, 4, backend)
	require.NoError(t, err)

	require.Len(t, batches, 3)
	assert.Equal(t, 4, batches[0].Size())
	assert.Equal(t, 4, batches[1].Size())
	assert.Equal(t, 2, batches[2].Size(), "final batch keeps the remainder")

	total := 0
	for _, b := range batches {
		total += b.Size()
	}
	assert.Equal(t, ds.NumSamples, total)
}

func TestBatches_Invalid(t *testing.T) {
	backend := cpu.New()
	ds := data.Synthetic(10, 3, 2, 1)

	_, err := data.Batches(ds, 0, backend)
	assert.Error(t, err)
}

func TestShards_EvenSplit(t *testing.T) {
	backend := cpu.New()
	ds := data.Synthetic(256, 3, 2, 1)
	batches, err := data.Batches(ds, 256, backend)
	require.NoError(t, err)

	shards, err := batches[0].Shards(4)
	require.NoError(t, err)

	require.Len(t, shards, 4)
	for i, s := range shards {
		assert.Equal(t, 64, s.Size(), "shard %d", i)
	}
}

func TestShards_RemainderToLast(t *testing.T) {
	backend := cpu.New()
	ds := data.Synthetic(10, 2, 2, 1)
	batches, err := data.Batches(ds, 10, backend)
	require.NoError(t, err)

	shards, err := batches[0].Shards(3)
	require.NoError(t, err)

	require.Len(t, shards, 3)
	assert.Equal(t, 3, shards[0].Size())
	assert.Equal(t, 3, shards[1].Size())
	assert.Equal(t, 4, shards[2].Size())
}

func TestShards_Disjoint(t *testing.T) {
	backend := cpu.New()
	ds := data.Synthetic(8, 2, 2, 1)
	batches, err := data.Batches(ds, 8, backend)
	require.NoError(t, err)
	batch := batches[0]

	shards, err := batch.Shards(2)
	require.NoError(t, err)

	// Concatenating the shards reproduces the original batch exactly.
	var rebuilt []float32
	for _, s := range shards {
		rebuilt = append(rebuilt, s.Inputs.Raw().AsFloat32()...)
	}
	assert.Equal(t, batch.Inputs.Raw().AsFloat32(), rebuilt)
}

func TestShards_Invalid(t *testing.T) {
	backend := cpu.New()
	ds := data.Synthetic(4, 2, 2, 1)
	batches, err := data.Batches(ds, 4, backend)
	require.NoError(t, err)

	_, err = batches[0].Shards(0)
	assert.Error(t, err)

	_, err = batches[0].Shards(5)
	assert.Error(t, err, "more shards than samples")
}

func TestDataset_Split(t *testing.T) {
	ds := data.Synthetic(10, 2, 2, 1)

	train, val, err := ds.Split(0.8)
	require.NoError(t, err)
	assert.Equal(t, 8, train.NumSamples)
	assert.Equal(t, 2, val.NumSamples)

	_, _, err = ds.Split(1.0)
	assert.Error(t, err)
}

func TestDataset_Shuffle(t *testing.T) {
	ds := data.Synthetic(100, 3, 2, 1)
	before := make([]float32, len(ds.Inputs))
	copy(before, ds.Inputs)

	ds.Shuffle(rand.New(rand.NewSource(7)))

	assert.NotEqual(t, before, ds.Inputs, "shuffle should reorder samples")

	// Labels stay one-hot
	for i := 0; i < ds.NumSamples; i++ {
		sum := float32(0)
		for c := 0; c < ds.NumClasses; c++ {
			sum += ds.Labels[i*ds.NumClasses+c]
		}
		require.Equal(t, float32(1), sum, "sample %d", i)
	}
}

func TestSynthetic(t *testing.T) {
	ds := data.Synthetic(20, 4, 3, 9)
	assert.Equal(t, 20, ds.NumSamples)
	assert.Len(t, ds.Inputs, 80)
	assert.Len(t, ds.Labels, 60)

	same := data.Synthetic(20, 4, 3, 9)
	assert.Equal(t, ds.Inputs, same.Inputs, "same seed must reproduce the dataset")
}

func TestLoadCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "toy.csv")
	content := "0,0.5,1.5\n1,2.0,3.0\n0,0.25,0.75\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	ds, err := data.LoadCSV(path, 2)
	require.NoError(t, err)

	assert.Equal(t, 3, ds.NumSamples)
	assert.Equal(t, 2, ds.NumFeatures)
	assert.Equal(t, []float32{0.5, 1.5, 2.0, 3.0, 0.25, 0.75}, ds.Inputs)
	assert.Equal(t, []float32{1, 0, 0, 1, 1, 0}, ds.Labels)
}

func TestLoadCSV_BadLabel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("5,1.0\n"), 0o644))

	_, err := data.LoadCSV(path, 2)
	assert.Error(t, err)
}
