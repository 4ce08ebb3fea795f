package snapshot

import (
	"context"
	"sync"
)

// MemoryStore keeps snapshots in process memory.
// It's the default store and suitable for single-server deployments.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string]*Snapshot
	closed    bool
}

// NewMemoryStore creates a new in-memory snapshot store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snapshots: make(map[string]*Snapshot)}
}

// Save stores a deep copy of snap.
func (m *MemoryStore) Save(ctx context.Context, id string, snap *Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	m.snapshots[id] = &Snapshot{Tree: snap.Tree.Clone(), Version: snap.Version}
	return nil
}

// Load returns a deep copy of the stored snapshot.
func (m *MemoryStore) Load(ctx context.Context, id string) (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}
	s, ok := m.snapshots[id]
	if !ok {
		return nil, nil
	}
	return &Snapshot{Tree: s.Tree.Clone(), Version: s.Version}, nil
}

// Delete removes a snapshot.
func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	delete(m.snapshots, id)
	return nil
}

// Len returns the number of stored snapshots.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.snapshots)
}

// Close drops every snapshot.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.snapshots = nil
	return nil
}
