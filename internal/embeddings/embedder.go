// Package embeddings implements component B, the Embedder Adapter:
// batched text-to-vector translation with deterministic ordering and
// retry semantics, adapted from the teacher's internal/embeddings package
// (originally built around the Voyage AI API for thought search).
package embeddings

import (
	"context"
	"fmt"
	"time"

	"github.com/quanticsoul4772/cogmap/internal/logging"
	"github.com/quanticsoul4772/cogmap/internal/pipeline"
	"github.com/quanticsoul4772/cogmap/pkg/vecmath"
)

// RawEmbedder is the transport-level contract a concrete provider (Voyage,
// OpenAI, a local model server, ...) implements. It need not batch,
// retry, or normalize — Adapter does all three.
type RawEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Adapter implements pipeline.Embedder on top of a RawEmbedder, adding
// batching, exponential-backoff retry, L2 normalization, and an optional
// cache (see cache.go). This is the component named in spec.md §4.B.
type Adapter struct {
	raw        RawEmbedder
	cache      *Cache // optional; nil disables caching
	batchSize  int
	maxRetries int
	baseDelay  time.Duration
	log        *logging.Logger
}

// AdapterOption configures an Adapter.
type AdapterOption func(*Adapter)

func WithCache(c *Cache) AdapterOption {
	return func(a *Adapter) { a.cache = c }
}

func WithBatchSize(n int) AdapterOption {
	return func(a *Adapter) {
		if n > 0 {
			a.batchSize = n
		}
	}
}

func WithMaxRetries(n int) AdapterOption {
	return func(a *Adapter) {
		if n >= 0 {
			a.maxRetries = n
		}
	}
}

// NewAdapter wraps raw with batching/retry/caching. Batch size defaults to
// 96 and retries default to 3 (spec.md §4.B: "retry with exponential
// backoff up to N=3").
func NewAdapter(raw RawEmbedder, opts ...AdapterOption) *Adapter {
	a := &Adapter{
		raw:        raw,
		batchSize:  96,
		maxRetries: 3,
		baseDelay:  200 * time.Millisecond,
		log:        logging.New("[embeddings] "),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Embed implements pipeline.Embedder: preserves input order, batches
// transparently, and L2-normalizes every returned vector.
func (a *Adapter) Embed(ctx context.Context, texts []string) ([]pipeline.Embedding, error) {
	out := make([]pipeline.Embedding, len(texts))
	missing := make([]int, 0, len(texts))
	missingTexts := make([]string, 0, len(texts))

	if a.cache != nil {
		for i, text := range texts {
			if v, ok := a.cache.Get(text); ok {
				out[i] = v
				continue
			}
			missing = append(missing, i)
			missingTexts = append(missingTexts, text)
		}
	} else {
		missing = indices(len(texts))
		missingTexts = texts
	}

	for start := 0; start < len(missingTexts); start += a.batchSize {
		end := start + a.batchSize
		if end > len(missingTexts) {
			end = len(missingTexts)
		}
		batch := missingTexts[start:end]

		vectors, err := a.embedBatchWithRetry(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("embedding_failure: %w", err)
		}

		for i, v := range vectors {
			normalized := pipeline.Embedding(vecmath.Normalize(v))
			origIdx := missing[start+i]
			out[origIdx] = normalized
			if a.cache != nil {
				a.cache.Put(batch[i], normalized)
			}
		}
	}

	return out, nil
}

// embedBatchWithRetry retries transient transport failures with
// exponential backoff, honoring ctx cancellation between attempts.
func (a *Adapter) embedBatchWithRetry(ctx context.Context, batch []string) ([][]float32, error) {
	var lastErr error
	delay := a.baseDelay

	for attempt := 0; attempt <= a.maxRetries; attempt++ {
		if attempt > 0 {
			a.log.Warnf("retrying embedding batch (attempt %d/%d): %v", attempt, a.maxRetries, lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		vectors, err := a.raw.EmbedBatch(ctx, batch)
		if err == nil {
			return vectors, nil
		}
		lastErr = err
	}

	return nil, fmt.Errorf("exhausted %d retries: %w", a.maxRetries, lastErr)
}

func indices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
