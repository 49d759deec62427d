// Package consent implements the ledger of LegalReason records: the source
// of truth for which fields of which entity are currently protected.
package consent

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"lethe/internal/entity"
)

// LegalReason is one consent record: evidence that an entity agreed to one
// or more purposes, with an expiry derived from their retentions.
//
// Deactivation is monotonic. A reason is never reactivated; renewing consent
// creates a fresh record.
type LegalReason struct {
	ID        uuid.UUID
	Entity    entity.Ref
	Purposes  []string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Active    bool
	Tag       string
	CreatedAt time.Time
}

// Covers reports whether the reason covers a purpose slug.
func (lr *LegalReason) Covers(slug string) bool {
	return slices.Contains(lr.Purposes, slug)
}

// Expired reports whether the reason's expiry lies strictly before now.
func (lr *LegalReason) Expired(now time.Time) bool {
	return lr.ExpiresAt.Before(now)
}

// Protects reports whether the reason currently shields its purposes'
// fields. Checked on every use, never cached: an expired reason stops
// protecting even before the sweeper has flagged it inactive.
func (lr *LegalReason) Protects(now time.Time) bool {
	return lr.Active && !lr.Expired(now)
}
