package gigachat

import (
	"context"
	"encoding/json"
	"fmt"
)

// DefaultEmbeddingModel is the embeddings model name the platform serves.
const DefaultEmbeddingModel = "Embeddings"

// EmbeddingsRequest is the request body for the embeddings endpoint.
type EmbeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// EmbeddingData is one embedding in the response, in input order.
type EmbeddingData struct {
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

// EmbeddingsResponse is the response from the embeddings endpoint.
type EmbeddingsResponse struct {
	Data  []EmbeddingData `json:"data"`
	Model string          `json:"model"`
}

// Embeddings computes embedding vectors for the given inputs.
func (c *Client) Embeddings(ctx context.Context, model string, input []string) (*EmbeddingsResponse, error) {
	if model == "" {
		model = DefaultEmbeddingModel
	}

	body, err := c.post(ctx, "/embeddings", EmbeddingsRequest{
		Model: model,
		Input: input,
	})
	if err != nil {
		return nil, err
	}

	var parsed EmbeddingsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &APIError{
			Message: fmt.Sprintf("failed to parse embeddings response: %v", err),
			RawBody: json.RawMessage(body),
		}
	}

	return &parsed, nil
}
