package vecmath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 0}, []float32{1, 0}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Equal(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{1, 0, 0}))
	assert.Equal(t, 0.0, CosineSimilarity([]float32{0, 0}, []float32{1, 1}))
}

func TestComputeStatsPercentiles(t *testing.T) {
	samples := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	stats := ComputeStats(samples)
	require.InDelta(t, 5.5, stats.Mu, 1e-9)
	assert.True(t, stats.P10 < stats.P90)
	assert.InDelta(t, 1.9, stats.P10, 1e-9)
	assert.InDelta(t, 9.1, stats.P90, 1e-9)
}

func TestSoftmaxSumsToOne(t *testing.T) {
	weights := Softmax([]float64{0.9, 0.5, 0.1}, 0.08)
	var sum float64
	for _, w := range weights {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	// Highest score gets the dominant weight at a sharp temperature.
	assert.Greater(t, weights[0], weights[1])
	assert.Greater(t, weights[1], weights[2])
}

func TestShannonEntropyUniformIsMax(t *testing.T) {
	uniform := ShannonEntropy([]float64{0.25, 0.25, 0.25, 0.25})
	skewed := ShannonEntropy([]float64{0.97, 0.01, 0.01, 0.01})
	assert.Greater(t, uniform, skewed)
}

func TestFiniteOrNil(t *testing.T) {
	assert.Nil(t, FiniteOrNil(nanValue()))
	v := FiniteOrNil(1.5)
	require.NotNil(t, v)
	assert.InDelta(t, 1.5, *v, 1e-9)
}

func nanValue() float64 {
	var zero float64
	return zero / zero
}
