// Package voyage adapts the Voyage AI SDK to the Embedder interface, as
// an alternative embedding backend to the platform default.
package voyage

import (
	"context"
	"fmt"
	"os"

	"github.com/austinfhunter/voyageai"
)

const (
	// DefaultModel is the Voyage embedding model used when none is given.
	DefaultModel = "voyage-3.5-lite"

	// DefaultDimensions is the embedding width requested from the model.
	DefaultDimensions = 1024
)

// Embedder generates embeddings through Voyage AI.
type Embedder struct {
	client     *voyageai.VoyageClient
	model      string
	dimensions int
}

// NewEmbedder creates a Voyage-backed embedder. If apiKey is empty, the
// VOYAGEAI_API_KEY environment variable is used.
func NewEmbedder(apiKey, model string) (*Embedder, error) {
	if apiKey == "" {
		apiKey = os.Getenv("VOYAGEAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("voyage API key is required")
	}
	if model == "" {
		model = DefaultModel
	}

	return &Embedder{
		client: voyageai.NewClient(&voyageai.VoyageClientOpts{
			Key: apiKey,
		}),
		model:      model,
		dimensions: DefaultDimensions,
	}, nil
}

// SetDimensions overrides the requested embedding width.
func (e *Embedder) SetDimensions(dimensions int) {
	e.dimensions = dimensions
}

// Embed generates an embedding for a single text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := e.client.Embed(
		[]string{text},
		e.model,
		&voyageai.EmbeddingRequestOpts{
			OutputDimension: &e.dimensions,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("could not get embedding: %w", err)
	}
	if len(embeddings.Data) == 0 {
		return nil, fmt.Errorf("voyage returned no embeddings")
	}

	return embeddings.Data[0].Embedding, nil
}
