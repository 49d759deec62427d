package consent

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"lethe/internal/entity"
	dErrors "lethe/pkg/domain-errors"
)

// MemoryStore keeps reasons in process memory. Used in tests and as the
// default for local runs without a database.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*LegalReason
	byRef   map[string][]uuid.UUID
	created int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:  make(map[uuid.UUID]*LegalReason),
		byRef: make(map[string][]uuid.UUID),
	}
}

func (s *MemoryStore) Save(_ context.Context, lr *LegalReason) error {
	if lr.ID == uuid.Nil {
		return dErrors.New(dErrors.CodeBadRequest, "legal reason without id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[lr.ID]; ok {
		return dErrors.Newf(dErrors.CodeConflict, "legal reason %s already exists", lr.ID)
	}
	cp := cloneReason(lr)
	s.created++
	s.byID[lr.ID] = cp
	key := lr.Entity.String()
	s.byRef[key] = append(s.byRef[key], lr.ID)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (*LegalReason, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lr, ok := s.byID[id]
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "legal reason %s not found", id)
	}
	return cloneReason(lr), nil
}

func (s *MemoryStore) ListByEntity(_ context.Context, ref entity.Ref) ([]*LegalReason, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byRef[ref.String()]
	out := make([]*LegalReason, 0, len(ids))
	for _, id := range ids {
		out = append(out, cloneReason(s.byID[id]))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) ListActiveByEntity(ctx context.Context, ref entity.Ref) ([]*LegalReason, error) {
	all, err := s.ListByEntity(ctx, ref)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, lr := range all {
		if lr.Active {
			out = append(out, lr)
		}
	}
	return out, nil
}

func (s *MemoryStore) Deactivate(_ context.Context, ids []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		lr, ok := s.byID[id]
		if !ok {
			return dErrors.Newf(dErrors.CodeNotFound, "legal reason %s not found", id)
		}
		lr.Active = false
	}
	return nil
}

func (s *MemoryStore) ListActiveExpiredBefore(_ context.Context, cutoff time.Time) ([]*LegalReason, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*LegalReason
	for _, lr := range s.byID {
		if lr.Active && lr.ExpiresAt.Before(cutoff) {
			out = append(out, cloneReason(lr))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	return out, nil
}

func cloneReason(lr *LegalReason) *LegalReason {
	cp := *lr
	cp.Purposes = append([]string(nil), lr.Purposes...)
	return &cp
}

// MemoryFlagStore is the in-memory FlagStore counterpart.
type MemoryFlagStore struct {
	mu    sync.RWMutex
	flags map[string]map[string]bool
}

func NewMemoryFlagStore() *MemoryFlagStore {
	return &MemoryFlagStore{flags: make(map[string]map[string]bool)}
}

func (s *MemoryFlagStore) Mark(_ context.Context, ref entity.Ref, field string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := ref.String()
	if s.flags[key] == nil {
		s.flags[key] = make(map[string]bool)
	}
	s.flags[key][field] = true
	return nil
}

func (s *MemoryFlagStore) IsAnonymized(_ context.Context, ref entity.Ref, field string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flags[ref.String()][field], nil
}

func (s *MemoryFlagStore) Clear(_ context.Context, ref entity.Ref, field string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.flags[ref.String()], field)
	return nil
}
