package consent

import (
	"context"
	"time"

	"github.com/google/uuid"

	"lethe/internal/entity"
)

// Store persists LegalReason records.
//
// Implementations must honour a transaction carried in the context: within a
// deactivate-and-anonymize run every write lands in the same transaction or
// not at all.
type Store interface {
	Save(ctx context.Context, lr *LegalReason) error
	Get(ctx context.Context, id uuid.UUID) (*LegalReason, error)
	// ListByEntity returns every reason for the entity, newest first.
	ListByEntity(ctx context.Context, ref entity.Ref) ([]*LegalReason, error)
	// ListActiveByEntity returns reasons with active=true for the entity.
	// Expiry is not filtered here; callers apply Protects against their own
	// clock so a single timestamp governs a whole run.
	ListActiveByEntity(ctx context.Context, ref entity.Ref) ([]*LegalReason, error)
	// Deactivate sets active=false on the given reasons. Already inactive
	// reasons are left untouched; deactivation never flips back.
	Deactivate(ctx context.Context, ids []uuid.UUID) error
	// ListActiveExpiredBefore returns active reasons whose expiry lies
	// strictly before the cutoff. The sweeper's work queue.
	ListActiveExpiredBefore(ctx context.Context, cutoff time.Time) ([]*LegalReason, error)
}

// FlagStore records which (entity, field) pairs currently hold anonymized
// values. The engine consults it to keep reversible transforms idempotent
// and the deanonymizer to refuse restoring what was never transformed.
type FlagStore interface {
	Mark(ctx context.Context, ref entity.Ref, field string) error
	IsAnonymized(ctx context.Context, ref entity.Ref, field string) (bool, error)
	Clear(ctx context.Context, ref entity.Ref, field string) error
}
