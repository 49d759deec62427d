// Package storage provides the entity loaders: an in-memory one for tests
// and local runs, and a Postgres one mapping registered types to tables.
package storage

import (
	"context"
	"sync"

	"lethe/internal/entity"
	dErrors "lethe/pkg/domain-errors"
)

// MemoryLoader serves records registered up front.
type MemoryLoader struct {
	mu      sync.RWMutex
	records map[entity.Ref]*entity.Record
}

func NewMemoryLoader() *MemoryLoader {
	return &MemoryLoader{records: make(map[entity.Ref]*entity.Record)}
}

// Put registers a record under its ref.
func (l *MemoryLoader) Put(records ...*entity.Record) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, r := range records {
		l.records[r.Ref()] = r
	}
}

func (l *MemoryLoader) Load(_ context.Context, ref entity.Ref) (entity.Entity, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	r, ok := l.records[ref]
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "entity %s not found", ref)
	}
	return r, nil
}
