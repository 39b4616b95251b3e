package storage

import (
	"context"
	"errors"
	"sync"

	transferapp "github.com/crmportal/backend/internal/application/transfer"
)

// Ensure MemoryArtifactStore implements ArtifactStore
var _ transferapp.ArtifactStore = (*MemoryArtifactStore)(nil)

// MemoryArtifactStore keeps export artifacts in process memory. Meant
// for development and tests; artifacts vanish on restart.
type MemoryArtifactStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryArtifactStore creates a new MemoryArtifactStore
func NewMemoryArtifactStore() *MemoryArtifactStore {
	return &MemoryArtifactStore{objects: make(map[string][]byte)}
}

// Put stores one artifact under its key
func (s *MemoryArtifactStore) Put(ctx context.Context, key, contentType string, data []byte) error {
	if key == "" {
		return errors.New("storage key is required")
	}
	buf := make([]byte, len(data))
	copy(buf, data)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = buf
	return nil
}

// Get returns a stored artifact
func (s *MemoryArtifactStore) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, errors.New("storage key is required")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, transferapp.ErrArtifactNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}
