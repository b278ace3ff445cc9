package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	t.Run("SetAndGet", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Minute))
		got, ok, err := store.Get(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []byte("v"), got)
	})

	t.Run("Expiry", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "exp", []byte("v"), time.Second))
		now = now.Add(2 * time.Second)
		_, ok, _ := store.Get(ctx, "exp")
		assert.False(t, ok)
	})

	t.Run("NoTTL", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "forever", []byte("v"), 0))
		now = now.Add(24 * time.Hour)
		_, ok, _ := store.Get(ctx, "forever")
		assert.True(t, ok)
	})

	t.Run("DeletePrefix", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "car:1", []byte("1"), 0))
		require.NoError(t, store.Set(ctx, "laptop:1", []byte("2"), 0))
		require.NoError(t, store.DeletePrefix(ctx, "car:"))

		_, ok, _ := store.Get(ctx, "car:1")
		assert.False(t, ok)
		_, ok, _ = store.Get(ctx, "laptop:1")
		assert.True(t, ok)
	})
}
