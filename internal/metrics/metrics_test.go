package metrics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sngrad-ml/sngrad/internal/metrics"
)

func TestRecorder(t *testing.T) {
	r := &metrics.Recorder{}
	r.Scalar("train_loss", 2.3, 1)
	r.Scalar("test_loss", 2.4, 1)
	r.Scalar("train_loss", 1.9, 2)

	assert.Len(t, r.Observations, 3)

	last, ok := r.Last("train_loss")
	assert.True(t, ok)
	assert.Equal(t, 1.9, last.Value)
	assert.Equal(t, 2, last.Epoch)

	_, ok = r.Last("missing")
	assert.False(t, ok)
}

func TestMulti(t *testing.T) {
	a := &metrics.Recorder{}
	b := &metrics.Recorder{}
	m := metrics.Multi{a, b, metrics.Nop{}}

	m.Scalar("accuracy", 0.9, 5)

	assert.Len(t, a.Observations, 1)
	assert.Len(t, b.Observations, 1)
	assert.Equal(t, "accuracy", a.Observations[0].Name)
}
