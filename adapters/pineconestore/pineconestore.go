// Package pineconestore backs the label embedding cache with a Pinecone
// index, so label vectors survive restarts and can be shared between
// classifier instances. A local map fronts the index to keep steady-state
// resolution free of network calls.
package pineconestore

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/pinecone-io/go-pinecone/pinecone"
	"google.golang.org/protobuf/types/known/structpb"
)

// index is the slice of the Pinecone index connection the store uses.
type index interface {
	QueryByVectorId(ctx context.Context, req *pinecone.QueryByVectorIdRequest) (*pinecone.QueryVectorsResponse, error)
	UpsertVectors(ctx context.Context, in []*pinecone.Vector) (uint32, error)
}

// Store is a LabelStore implementation on top of a Pinecone index.
type Store struct {
	index index

	mu    sync.RWMutex
	local map[string][]float32
}

// New connects to a Pinecone index. Empty apiKey or host fall back to
// the PINECONE_API_KEY and PINECONE_HOST environment variables; the
// namespace separates label vectors from other tenants of the index.
func New(apiKey, host, namespace string) (*Store, error) {
	if apiKey == "" {
		apiKey = os.Getenv("PINECONE_API_KEY")
	}
	if host == "" {
		host = os.Getenv("PINECONE_HOST")
	}
	if apiKey == "" || host == "" {
		return nil, fmt.Errorf("pinecone API key and host are required")
	}

	client, err := pinecone.NewClient(pinecone.NewClientParams{ApiKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create pinecone client: %w", err)
	}

	conn, err := client.Index(pinecone.NewIndexConnParams{
		Host:      host,
		Namespace: namespace,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to pinecone index: %w", err)
	}

	return &Store{
		index: conn,
		local: make(map[string][]float32),
	}, nil
}

// Get returns the embedding for label, first from the local front, then
// from the index. A label absent from the index is a miss, not an error.
func (s *Store) Get(ctx context.Context, label string) ([]float32, bool, error) {
	s.mu.RLock()
	vector, ok := s.local[label]
	s.mu.RUnlock()
	if ok {
		out := make([]float32, len(vector))
		copy(out, vector)
		return out, true, nil
	}

	resp, err := s.index.QueryByVectorId(ctx, &pinecone.QueryByVectorIdRequest{
		VectorId:      label,
		TopK:          1,
		IncludeValues: true,
	})
	if err != nil {
		return nil, false, fmt.Errorf("pinecone lookup failed: %w", err)
	}

	for _, match := range resp.Matches {
		if match.Vector == nil || match.Vector.Id != label {
			continue
		}
		values := match.Vector.Values

		fronted := make([]float32, len(values))
		copy(fronted, values)
		s.mu.Lock()
		s.local[label] = fronted
		s.mu.Unlock()

		return values, true, nil
	}

	return nil, false, nil
}

// Put upserts the embedding under the label's own ID and refreshes the
// local front.
func (s *Store) Put(ctx context.Context, label string, vector []float32) error {
	metadata, err := structpb.NewStruct(map[string]any{"label": label})
	if err != nil {
		return fmt.Errorf("failed to build metadata: %w", err)
	}

	_, err = s.index.UpsertVectors(ctx, []*pinecone.Vector{
		{
			Id:     label,
			Values: vector,
			Metadata: &pinecone.Metadata{
				Fields: metadata.Fields,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("pinecone upsert failed: %w", err)
	}

	fronted := make([]float32, len(vector))
	copy(fronted, vector)
	s.mu.Lock()
	s.local[label] = fronted
	s.mu.Unlock()

	return nil
}
