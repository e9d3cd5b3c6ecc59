package gigalabel

import (
	"context"
	"sync"
)

// MemoryLabelStore keeps label embeddings in a mutex-guarded map. Its
// lifetime is the owning classifier instance; entries are never pruned,
// so labels removed from the configuration leave dead entries behind
// that are simply never read again.
//
// The store owns its vectors: both Put and Get copy, so mutating a
// slice on either side of the boundary cannot corrupt the cache.
type MemoryLabelStore struct {
	mu      sync.RWMutex
	vectors map[string][]float32
}

// NewMemoryLabelStore creates an empty in-memory label store.
func NewMemoryLabelStore() *MemoryLabelStore {
	return &MemoryLabelStore{
		vectors: make(map[string][]float32),
	}
}

// Get returns the cached embedding for label, if present.
func (s *MemoryLabelStore) Get(_ context.Context, label string) ([]float32, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	vector, ok := s.vectors[label]
	if !ok {
		return nil, false, nil
	}

	out := make([]float32, len(vector))
	copy(out, vector)
	return out, true, nil
}

// Put caches the embedding for label, replacing any previous entry.
func (s *MemoryLabelStore) Put(_ context.Context, label string, vector []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]float32, len(vector))
	copy(stored, vector)
	s.vectors[label] = stored
	return nil
}

// Len returns the number of cached labels.
func (s *MemoryLabelStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.vectors)
}
