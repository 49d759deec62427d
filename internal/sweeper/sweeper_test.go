package sweeper

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lethe/internal/consent"
	"lethe/internal/entity"
	"lethe/internal/storage"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// fakeAnonymizer records which entities were swept.
type fakeAnonymizer struct {
	mu   sync.Mutex
	refs []entity.Ref
}

func (f *fakeAnonymizer) AnonymizeEntity(_ context.Context, e entity.Entity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refs = append(f.refs, e.Ref())
	return nil
}

func (f *fakeAnonymizer) sorted() []entity.Ref {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]entity.Ref(nil), f.refs...)
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

type fakeLocker struct {
	held     bool
	acquired int
	released int
}

func (l *fakeLocker) Acquire(context.Context, string, time.Duration) (bool, error) {
	l.acquired++
	return !l.held, nil
}

func (l *fakeLocker) Release(context.Context, string) error {
	l.released++
	return nil
}

func saveReason(t *testing.T, store *consent.MemoryStore, ref entity.Ref, expiresAt time.Time) *consent.LegalReason {
	t.Helper()
	lr := &consent.LegalReason{
		ID:        uuid.New(),
		Entity:    ref,
		Purposes:  []string{"general"},
		IssuedAt:  testNow.AddDate(-2, 0, 0),
		ExpiresAt: expiresAt,
		Active:    true,
		CreatedAt: testNow.AddDate(-2, 0, 0),
	}
	require.NoError(t, store.Save(context.Background(), lr))
	return lr
}

func customerRecord(id string) *entity.Record {
	return entity.NewRecord("customer", id, map[string]any{"email": id + "@example.com"})
}

func TestRun_DeactivatesAndAnonymizes(t *testing.T) {
	store := consent.NewMemoryStore()
	loader := storage.NewMemoryLoader()
	anon := &fakeAnonymizer{}
	ctx := context.Background()

	alice := entity.Ref{Type: "customer", ID: "1"}
	bob := entity.Ref{Type: "customer", ID: "2"}
	loader.Put(customerRecord("1"), customerRecord("2"))

	expired := saveReason(t, store, alice, testNow.Add(-time.Hour))
	alsoExpired := saveReason(t, store, alice, testNow.Add(-time.Minute))
	saveReason(t, store, bob, testNow.Add(-time.Hour))
	live := saveReason(t, store, bob, testNow.AddDate(1, 0, 0))

	s := New(store, anon, loader, consent.NopTxRunner{}, slog.New(slog.DiscardHandler),
		WithClock(func() time.Time { return testNow }))
	result, err := s.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, Result{ReasonsDeactivated: 3, EntitiesAnonymized: 2}, result)
	assert.Equal(t, []entity.Ref{alice, bob}, anon.sorted())

	for _, id := range []uuid.UUID{expired.ID, alsoExpired.ID} {
		lr, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.False(t, lr.Active)
	}
	lr, err := store.Get(ctx, live.ID)
	require.NoError(t, err)
	assert.True(t, lr.Active)
}

func TestRun_ExpiryAtSnapshotIsUntouched(t *testing.T) {
	store := consent.NewMemoryStore()
	loader := storage.NewMemoryLoader()
	anon := &fakeAnonymizer{}
	ctx := context.Background()

	ref := entity.Ref{Type: "customer", ID: "1"}
	loader.Put(customerRecord("1"))
	// Expiring exactly at the snapshot still protects; only strictly
	// earlier expiries are swept.
	atSnapshot := saveReason(t, store, ref, testNow)

	s := New(store, anon, loader, consent.NopTxRunner{}, slog.New(slog.DiscardHandler),
		WithClock(func() time.Time { return testNow }))
	result, err := s.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, Result{}, result)
	assert.Empty(t, anon.sorted())
	lr, err := store.Get(ctx, atSnapshot.ID)
	require.NoError(t, err)
	assert.True(t, lr.Active)
}

func TestRun_SkipsWhenLockHeld(t *testing.T) {
	store := consent.NewMemoryStore()
	locker := &fakeLocker{held: true}
	anon := &fakeAnonymizer{}

	s := New(store, anon, storage.NewMemoryLoader(), consent.NopTxRunner{},
		slog.New(slog.DiscardHandler),
		WithClock(func() time.Time { return testNow }),
		WithLocker(locker))
	result, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, result.Skipped)
	assert.Equal(t, 1, locker.acquired)
	assert.Zero(t, locker.released)
}

func TestRun_ReleasesLock(t *testing.T) {
	store := consent.NewMemoryStore()
	locker := &fakeLocker{}

	s := New(store, &fakeAnonymizer{}, storage.NewMemoryLoader(), consent.NopTxRunner{},
		slog.New(slog.DiscardHandler),
		WithClock(func() time.Time { return testNow }),
		WithLocker(locker))
	_, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, locker.released)
}

func TestRun_EntityFailureDoesNotStopTheRun(t *testing.T) {
	store := consent.NewMemoryStore()
	loader := storage.NewMemoryLoader()
	anon := &fakeAnonymizer{}
	ctx := context.Background()

	missing := entity.Ref{Type: "customer", ID: "gone"}
	present := entity.Ref{Type: "customer", ID: "1"}
	loader.Put(customerRecord("1"))

	saveReason(t, store, missing, testNow.Add(-time.Hour))
	saveReason(t, store, present, testNow.Add(-time.Hour))

	s := New(store, anon, loader, consent.NopTxRunner{}, slog.New(slog.DiscardHandler),
		WithClock(func() time.Time { return testNow }))
	result, err := s.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, Result{ReasonsDeactivated: 1, EntitiesAnonymized: 1, EntitiesFailed: 1}, result)
	assert.Equal(t, []entity.Ref{present}, anon.sorted())
}
