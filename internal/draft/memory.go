package draft

import (
	"context"
	"sync"
)

// MemoryStore keeps the draft in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	state *State
	sets  int
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Get(_ context.Context) (*State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state == nil {
		return nil, nil
	}
	cp := *m.state
	cp.Values = cp.Values.Clone()
	return &cp, nil
}

func (m *MemoryStore) Set(_ context.Context, s State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.Values = s.Values.Clone()
	m.state = &s
	m.sets++
	return nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = nil
	return nil
}

// Writes returns how many times Set succeeded.
func (m *MemoryStore) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sets
}
