package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryIdempotencyStore_GenerateKey(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	t.Run("is stable across whitespace and case", func(t *testing.T) {
		a := store.GenerateKey("  Received 50 Bags Cement  ")
		b := store.GenerateKey("received 50 bags cement")
		assert.Equal(t, a, b)
	})

	t.Run("differs for different text", func(t *testing.T) {
		a := store.GenerateKey("received 50 bags cement")
		b := store.GenerateKey("received 51 bags cement")
		assert.NotEqual(t, a, b)
	})
}

func TestInMemoryIdempotencyStore_StoreAndIsDuplicate(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()

	t.Run("unstored text is not a duplicate", func(t *testing.T) {
		dup, err := store.IsDuplicate(ctx, "never seen before")
		require.NoError(t, err)
		assert.False(t, dup)
	})

	t.Run("stored text becomes a duplicate", func(t *testing.T) {
		text := "received 50 bags cement"
		_, err := store.StoreKey(ctx, text, 1*time.Hour)
		require.NoError(t, err)

		dup, err := store.IsDuplicate(ctx, text)
		require.NoError(t, err)
		assert.True(t, dup)
	})

	t.Run("expired text is no longer a duplicate", func(t *testing.T) {
		text := "issued 10 bags cement"
		_, err := store.StoreKey(ctx, text, 10*time.Millisecond)
		require.NoError(t, err)

		time.Sleep(20 * time.Millisecond)

		dup, err := store.IsDuplicate(ctx, text)
		require.NoError(t, err)
		assert.False(t, dup, "expired entry should not be a duplicate")
	})

	t.Run("non-positive ttl stores nothing", func(t *testing.T) {
		text := "issued 5 bags sand"
		key, err := store.StoreKey(ctx, text, 0)
		require.NoError(t, err)
		assert.Equal(t, store.GenerateKey(text), key)

		dup, err := store.IsDuplicate(ctx, text)
		require.NoError(t, err)
		assert.False(t, dup)
	})
}

func TestInMemoryIdempotencyStore_RemoveKey(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()
	text := "received 20 bags cement"

	_, err := store.StoreKey(ctx, text, 1*time.Hour)
	require.NoError(t, err)

	require.NoError(t, store.RemoveKey(ctx, text))

	dup, err := store.IsDuplicate(ctx, text)
	require.NoError(t, err)
	assert.False(t, dup)
}

func TestInMemoryIdempotencyStore_Size(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()

	assert.Equal(t, 0, store.Size(), "empty store should have size 0")

	store.StoreKey(ctx, "text-1", 1*time.Hour)
	assert.Equal(t, 1, store.Size())

	store.StoreKey(ctx, "text-2", 1*time.Hour)
	assert.Equal(t, 2, store.Size())

	// Storing the same text again shouldn't increase size
	store.StoreKey(ctx, "text-1", 1*time.Hour)
	assert.Equal(t, 2, store.Size())
}

func TestInMemoryIdempotencyStore_CleanupExpired(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()

	store.StoreKey(ctx, "short-lived-1", 10*time.Millisecond)
	store.StoreKey(ctx, "short-lived-2", 10*time.Millisecond)
	store.StoreKey(ctx, "long-lived", 1*time.Hour)

	assert.Equal(t, 3, store.Size())

	time.Sleep(20 * time.Millisecond)

	removed, err := store.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	assert.Equal(t, 1, store.Size())

	dup, err := store.IsDuplicate(ctx, "long-lived")
	require.NoError(t, err)
	assert.True(t, dup)
}

func TestInMemoryIdempotencyStore_ConcurrentAccess(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()
	const numGoroutines = 100
	const text = "concurrent command text"

	store.StoreKey(ctx, text, 1*time.Hour)

	results := make(chan bool, numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			dup, err := store.IsDuplicate(ctx, text)
			results <- err == nil && dup
		}()
	}

	for i := 0; i < numGoroutines; i++ {
		assert.True(t, <-results)
	}
}

func TestInMemoryIdempotencyStore_Close(t *testing.T) {
	store := NewInMemoryIdempotencyStore()

	err := store.Close()
	assert.NoError(t, err)

	// Multiple closes should be safe
	err = store.Close()
	assert.NoError(t, err)
}
