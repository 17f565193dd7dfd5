package media

import (
	"context"
	"sync"
)

// MemoryStore holds objects in a map. Tests use it in place of minio.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func (s *MemoryStore) Save(_ context.Context, filename, _ string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := ObjectKey(filename)
	s.objects[key] = data
	return key, nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.objects, key)
	return nil
}
