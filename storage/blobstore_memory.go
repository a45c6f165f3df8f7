package storage

import (
	"context"
	"sync"

	"tmf.evalgo.org/tmferrors"
)

// MemoryBlobStore is an in-process BlobStore used by unit tests and
// local development; it never touches a network.
type MemoryBlobStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryBlobStore returns an empty MemoryBlobStore.
func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{objects: make(map[string][]byte)}
}

var _ BlobStore = (*MemoryBlobStore)(nil)

func (m *MemoryBlobStore) Put(_ context.Context, payload []byte) (string, error) {
	blobID := ContentDigest(payload)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.objects[blobID]; !exists {
		stored := append([]byte(nil), payload...)
		m.objects[blobID] = stored
	}
	return blobID, nil
}

func (m *MemoryBlobStore) Get(_ context.Context, blobID string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[blobID]
	if !ok {
		return nil, tmferrors.NotFound("storage.MemoryBlobStore.Get", "blob %s not found", blobID)
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryBlobStore) Delete(_ context.Context, blobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, blobID)
	return nil
}
