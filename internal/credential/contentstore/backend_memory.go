package contentstore

import (
	"context"
	"sync"

	"github.com/ipfs/go-cid"
)

// MemoryBackend keeps blocks in process memory.
type MemoryBackend struct {
	mu      sync.RWMutex
	objects map[cid.Cid][]byte
	pinned  map[cid.Cid]struct{}
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		objects: make(map[cid.Cid][]byte),
		pinned:  make(map[cid.Cid]struct{}),
	}
}

func (m *MemoryBackend) Write(_ context.Context, id cid.Cid, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[id]; ok {
		return nil
	}
	m.objects[id] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryBackend) Read(_ context.Context, id cid.Cid) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[id]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryBackend) Pin(_ context.Context, id cid.Cid) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[id]; !ok {
		return false, nil
	}
	m.pinned[id] = struct{}{}
	return true, nil
}

// Len returns the number of stored blocks.
func (m *MemoryBackend) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

// Pinned reports whether id has been pinned.
func (m *MemoryBackend) Pinned(id cid.Cid) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.pinned[id]
	return ok
}
