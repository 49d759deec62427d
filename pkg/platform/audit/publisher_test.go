package audit

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestPublisher_EmitSync(t *testing.T) {
	store := NewMemoryStore()
	p := NewPublisher(store, slog.New(slog.DiscardHandler),
		WithPublisherClock(func() time.Time { return testNow }))

	p.Emit(context.Background(), Event{
		Category: CategoryConsent,
		Action:   ActionConsentGranted,
		Entity:   "customer:1",
		Detail:   map[string]string{"purposes": JoinDetail([]string{"general", "marketing"})},
	})

	events := store.List()
	require.Len(t, events, 1)
	assert.NotEqual(t, uuid.Nil, events[0].ID)
	assert.Equal(t, testNow.UTC(), events[0].At)
	assert.Equal(t, ActionConsentGranted, events[0].Action)
	assert.Equal(t, "general,marketing", events[0].Detail["purposes"])
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	store := NewMemoryStore()
	p := NewPublisher(store, slog.New(slog.DiscardHandler),
		WithAsyncBuffer(16),
		WithPublisherClock(func() time.Time { return testNow }))

	ctx := context.Background()
	for range 5 {
		p.Emit(ctx, Event{Category: CategorySweep, Action: ActionSweepCompleted})
	}
	p.Close()

	assert.Len(t, store.List(), 5)
}

func TestPublisher_CloseIsIdempotent(t *testing.T) {
	p := NewPublisher(NewMemoryStore(), slog.New(slog.DiscardHandler), WithAsyncBuffer(1))
	p.Close()
	p.Close()
}

func TestPublisher_CloseOnSyncPublisherIsNoop(t *testing.T) {
	p := NewPublisher(NewMemoryStore(), slog.New(slog.DiscardHandler))
	p.Close()
}
