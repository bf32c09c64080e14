package dedupe

import (
	"context"
	"sync"
)

// MemStore is an in-memory applied-id set for tests and single-node runs
type MemStore struct {
	seen map[string]bool

	sync.RWMutex
}

// NewMemStore returns an empty in-memory store
func NewMemStore() *MemStore {
	return &MemStore{
		seen: make(map[string]bool),
	}
}

// Seen reports whether the activity id has been marked applied
func (m *MemStore) Seen(ctx context.Context, activityID string) (bool, error) {
	m.RLock()
	defer m.RUnlock()

	return m.seen[activityID], nil
}

// Mark records the activity id as applied
func (m *MemStore) Mark(ctx context.Context, activityID string) error {
	m.Lock()
	defer m.Unlock()

	m.seen[activityID] = true
	return nil
}
