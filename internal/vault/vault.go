// Package vault stores original field values for strategies that are made
// reversible by lookup rather than by cipher. Entries are deleted on
// restore, so the vault only ever holds values that are currently hidden.
package vault

import (
	"context"
	"sync"

	"lethe/internal/entity"
)

// Memory is the in-process vault used by tests and local runs.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]map[string]any
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]map[string]any)}
}

func (m *Memory) Put(_ context.Context, ref entity.Ref, field string, original any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := ref.String()
	if m.entries[key] == nil {
		m.entries[key] = make(map[string]any)
	}
	m.entries[key][field] = original
	return nil
}

func (m *Memory) Get(_ context.Context, ref entity.Ref, field string) (any, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[ref.String()][field]
	return v, ok, nil
}

func (m *Memory) Delete(_ context.Context, ref entity.Ref, field string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries[ref.String()], field)
	return nil
}
