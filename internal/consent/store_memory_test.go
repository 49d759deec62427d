package consent

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lethe/internal/entity"
	dErrors "lethe/pkg/domain-errors"
)

func newReason(ref entity.Ref, expiresAt time.Time) *LegalReason {
	return &LegalReason{
		ID:        uuid.New(),
		Entity:    ref,
		Purposes:  []string{"general"},
		IssuedAt:  testNow,
		ExpiresAt: expiresAt,
		Active:    true,
		CreatedAt: testNow,
	}
}

func TestMemoryStore_SaveDuplicate(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	lr := newReason(customerRef(), testNow.AddDate(1, 0, 0))

	require.NoError(t, store.Save(ctx, lr))
	err := store.Save(ctx, lr)
	assert.True(t, dErrors.Is(err, dErrors.CodeConflict))
}

func TestMemoryStore_ListActiveByEntity(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	ref := customerRef()

	active := newReason(ref, testNow.AddDate(1, 0, 0))
	inactive := newReason(ref, testNow.AddDate(1, 0, 0))
	inactive.Active = false
	other := newReason(entity.Ref{Type: "customer", ID: "2"}, testNow.AddDate(1, 0, 0))

	require.NoError(t, store.Save(ctx, active))
	require.NoError(t, store.Save(ctx, inactive))
	require.NoError(t, store.Save(ctx, other))

	got, err := store.ListActiveByEntity(ctx, ref)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, active.ID, got[0].ID)
}

func TestMemoryStore_ListActiveExpiredBefore_IsStrict(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	cutoff := testNow

	before := newReason(customerRef(), cutoff.Add(-time.Second))
	exactly := newReason(customerRef(), cutoff)
	after := newReason(customerRef(), cutoff.Add(time.Second))

	require.NoError(t, store.Save(ctx, before))
	require.NoError(t, store.Save(ctx, exactly))
	require.NoError(t, store.Save(ctx, after))

	got, err := store.ListActiveExpiredBefore(ctx, cutoff)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, before.ID, got[0].ID)
}

func TestMemoryStore_MutationsDoNotLeak(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	lr := newReason(customerRef(), testNow.AddDate(1, 0, 0))
	require.NoError(t, store.Save(ctx, lr))

	got, err := store.Get(ctx, lr.ID)
	require.NoError(t, err)
	got.Active = false
	got.Purposes[0] = "tampered"

	again, err := store.Get(ctx, lr.ID)
	require.NoError(t, err)
	assert.True(t, again.Active)
	assert.Equal(t, []string{"general"}, again.Purposes)
}

func TestLegalReasonProtects(t *testing.T) {
	lr := newReason(customerRef(), testNow)

	assert.True(t, lr.Protects(testNow), "at the expiry instant the reason still protects")
	assert.False(t, lr.Protects(testNow.Add(time.Second)))

	lr.Active = false
	assert.False(t, lr.Protects(testNow))
}
