// Package anonymizer holds the per-field anonymization strategies and the
// registry mapping entity types to their field strategies and relations.
package anonymizer

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"lethe/internal/entity"
)

// FieldContext carries everything a strategy may use for one application:
// the entity-stable cipher key and the addressed field. Strategies hold no
// mutable state of their own, so independent entities can be anonymized
// concurrently.
type FieldContext struct {
	Key   string
	Ref   entity.Ref
	Field string
}

// Strategy transforms a single field value. Implementations must be pure
// with respect to (value, FieldContext).
type Strategy interface {
	Anonymize(ctx context.Context, fc FieldContext, value any) (any, error)
	// Reversible declares whether the strategy supports recovery of the
	// original value. It is a declared property, never inferred from output.
	Reversible() bool
}

// Reverser is implemented by reversible strategies.
type Reverser interface {
	Strategy
	Deanonymize(ctx context.Context, fc FieldContext, value any) (any, error)
}

// Vault persists original values for strategies whose reversibility comes
// from a lookup table rather than a cipher. The mapping is itself personal
// data; access control is the surrounding system's concern.
type Vault interface {
	Put(ctx context.Context, ref entity.Ref, field string, original any) error
	Get(ctx context.Context, ref entity.Ref, field string) (any, bool, error)
	Delete(ctx context.Context, ref entity.Ref, field string) error
}

// DeriveKey produces the deterministic per-entity cipher key from the
// service secret. Nothing per-entity is persisted; rotating the secret
// breaks reversibility of already anonymized values.
func DeriveKey(secret string, ref entity.Ref) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ref.Type))
	mac.Write([]byte{':'})
	mac.Write([]byte(ref.ID))
	return hex.EncodeToString(mac.Sum(nil))[:16]
}
