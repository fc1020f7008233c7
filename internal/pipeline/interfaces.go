package pipeline

import "context"

// ModelResponse is one model's raw free-text reply to the query.
type ModelResponse struct {
	ModelIndex ModelIndex
	Text       string
}

// Embedder is the pluggable batched text-to-vector adapter of spec.md §4.B.
// Implementations must preserve input order and return L2-normalized
// vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([]Embedding, error)
}

// Mapper is the pluggable mapper-LLM adapter of spec.md §4.E. It returns
// the raw textual envelope described there; parsing is the caller's
// responsibility (internal/mapperadapter).
type Mapper interface {
	Map(ctx context.Context, query string, numberedResponses []ModelResponse) (string, error)
}

// Input is the external entry point described in spec.md §6.
type Input struct {
	Query     string
	Responses []ModelResponse
	Embedder  Embedder
	Mapper    Mapper
}
