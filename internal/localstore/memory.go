package localstore

import (
	"context"
	"sync"
)

// Memory keeps entries in process memory. Used by tests and --storage=memory.
type Memory struct {
	mu    sync.Mutex
	store map[string][]byte
	sets  int
}

func NewMemory() *Memory {
	return &Memory{
		store: make(map[string][]byte),
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, ErrEmptyKey
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.store[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	v := make([]byte, len(value))
	copy(v, value)
	m.store[key] = v
	m.sets++
	return nil
}

// Writes returns how many times Set succeeded.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sets
}
