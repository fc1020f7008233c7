package embeddings

import (
	"context"
	"fmt"
	"math"
	"math/rand"
)

// MockRawEmbedder provides a fake RawEmbedder for testing and local
// smoke-testing without external API dependencies. It generates
// deterministic embeddings from a hash of the text, so repeated runs over
// the same corpus are byte-equivalent (spec.md §3's re-run guarantee).
type MockRawEmbedder struct {
	Dimension   int
	FailOnEmbed bool // Simulate transport failures for retry-path tests.
}

// NewMockRawEmbedder creates a mock embedder of the given dimension.
func NewMockRawEmbedder(dimension int) *MockRawEmbedder {
	return &MockRawEmbedder{Dimension: dimension}
}

// EmbedBatch generates one deterministic unit vector per text.
func (m *MockRawEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if m.FailOnEmbed {
		return nil, fmt.Errorf("mock embedder configured to fail")
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = deterministicVector(text, m.Dimension)
	}
	return out, nil
}

func deterministicVector(text string, dimension int) []float32 {
	var seed int64
	for _, c := range text {
		seed = seed*31 + int64(c)
	}
	rng := rand.New(rand.NewSource(seed))

	v := make([]float32, dimension)
	var sumSquares float64
	for i := 0; i < dimension; i++ {
		v[i] = float32(rng.NormFloat64())
		sumSquares += float64(v[i]) * float64(v[i])
	}
	if sumSquares > 0 {
		magnitude := float32(math.Sqrt(sumSquares))
		for i := range v {
			v[i] /= magnitude
		}
	}
	return v
}
