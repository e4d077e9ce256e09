package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryIdempotencyStore(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	t.Run("claims a new key once", func(t *testing.T) {
		ok, err := store.MarkProcessed(ctx, "payment:a", time.Hour)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.MarkProcessed(ctx, "payment:a", time.Hour)
		require.NoError(t, err)
		assert.False(t, ok)

		held, err := store.IsProcessed(ctx, "payment:a")
		require.NoError(t, err)
		assert.True(t, held)
	})

	t.Run("release allows a retry", func(t *testing.T) {
		_, _ = store.MarkProcessed(ctx, "payment:b", time.Hour)
		require.NoError(t, store.Release(ctx, "payment:b"))

		ok, err := store.MarkProcessed(ctx, "payment:b", time.Hour)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("expired claim can be taken again", func(t *testing.T) {
		_, _ = store.MarkProcessed(ctx, "payment:c", 10*time.Millisecond)
		time.Sleep(20 * time.Millisecond)

		held, err := store.IsProcessed(ctx, "payment:c")
		require.NoError(t, err)
		assert.False(t, held)

		ok, err := store.MarkProcessed(ctx, "payment:c", time.Hour)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestInMemoryIdempotencyStore_Cleanup(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	_, _ = store.MarkProcessed(ctx, "short", time.Millisecond)
	_, _ = store.MarkProcessed(ctx, "long", time.Hour)
	time.Sleep(5 * time.Millisecond)

	store.cleanup()
	assert.Equal(t, 1, store.Size())
}

func TestInMemoryIdempotencyStore_CloseTwice(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}
