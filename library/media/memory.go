package media

import (
	"context"
	"sync"
)

// MemoryStore keeps objects in process, used by dry mode and tests
type MemoryStore struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string][]byte
}

// NewMemoryStore create new MemoryStore, urls are built as baseURL/key
func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{
		baseURL: baseURL,
		objects: map[string][]byte{},
	}
}

// Put save data
func (s *MemoryStore) Put(_ context.Context, folder, filename, contentType string, data []byte) (Asset, error) {
	key := objectKey("", folder, filename, contentType)

	s.mu.Lock()
	s.objects[key] = append([]byte(nil), data...)
	s.mu.Unlock()

	return Asset{PublicID: key, URL: s.baseURL + "/" + key}, nil
}

// Remove delete object
func (s *MemoryStore) Remove(_ context.Context, publicID string) error {
	s.mu.Lock()
	delete(s.objects, publicID)
	s.mu.Unlock()
	return nil
}

// Has reports whether publicID is stored
func (s *MemoryStore) Has(publicID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[publicID]
	return ok
}

// Len number of stored objects
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
