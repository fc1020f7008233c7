package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// VoyageAI API constants
const voyageAPIURL = "https://api.voyageai.com/v1/embeddings"

// VoyageRawEmbedder implements RawEmbedder using the Voyage AI API. It is
// the default real-world provider wired into Adapter (component B), kept
// from the teacher's internal/embeddings/voyage.go with the single/batch
// split collapsed (Adapter now owns batching) and the Embedder-interface
// scaffolding (Dimension/Model/Provider) dropped since RawEmbedder no
// longer needs it.
type VoyageRawEmbedder struct {
	client *http.Client
	apiKey string
	model  string
}

// NewVoyageRawEmbedder creates a new Voyage AI embedder for model.
func NewVoyageRawEmbedder(apiKey, model string) *VoyageRawEmbedder {
	return &VoyageRawEmbedder{
		client: &http.Client{Timeout: 30 * time.Second},
		apiKey: apiKey,
		model:  model,
	}
}

type voyageRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type voyageResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// EmbedBatch sends one batch request to the Voyage AI embeddings endpoint.
func (e *VoyageRawEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("no texts provided")
	}

	jsonData, err := json.Marshal(voyageRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, voyageAPIURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var voyageResp voyageResponse
	if err := json.Unmarshal(body, &voyageResp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	embeddings := make([][]float32, len(texts))
	for _, d := range voyageResp.Data {
		if d.Index < len(embeddings) {
			embeddings[d.Index] = d.Embedding
		}
	}
	return embeddings, nil
}
