package vault

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lethe/internal/entity"
)

func TestMemory(t *testing.T) {
	v := NewMemory()
	ctx := context.Background()
	ref := entity.Ref{Type: "customer", ID: "1"}

	_, ok, err := v.Get(ctx, ref, "phone")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, v.Put(ctx, ref, "phone", "736123456"))

	got, ok, err := v.Get(ctx, ref, "phone")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "736123456", got)

	// Entries are scoped per entity and field.
	_, ok, err = v.Get(ctx, entity.Ref{Type: "customer", ID: "2"}, "phone")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, v.Delete(ctx, ref, "phone"))
	_, ok, err = v.Get(ctx, ref, "phone")
	require.NoError(t, err)
	assert.False(t, ok)
}
