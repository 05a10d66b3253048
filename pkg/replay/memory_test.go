package replay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreConsume(t *testing.T) {
	t.Run("first consume succeeds", func(t *testing.T) {
		store := NewMemoryStore()

		fresh, err := store.Consume(t.Context(), "payment-1", "sig-1", time.Minute)
		require.NoError(t, err)
		assert.True(t, fresh)
	})

	t.Run("second consume of the same proof fails", func(t *testing.T) {
		store := NewMemoryStore()

		fresh, err := store.Consume(t.Context(), "payment-1", "sig-1", time.Minute)
		require.NoError(t, err)
		require.True(t, fresh)

		fresh, err = store.Consume(t.Context(), "payment-1", "sig-1", time.Minute)
		require.NoError(t, err)
		assert.False(t, fresh)
	})

	t.Run("distinct tokens do not collide", func(t *testing.T) {
		store := NewMemoryStore()

		fresh, err := store.Consume(t.Context(), "payment-1", "sig-1", time.Minute)
		require.NoError(t, err)
		require.True(t, fresh)

		fresh, err = store.Consume(t.Context(), "payment-1", "sig-2", time.Minute)
		require.NoError(t, err)
		assert.True(t, fresh)

		fresh, err = store.Consume(t.Context(), "payment-2", "sig-1", time.Minute)
		require.NoError(t, err)
		assert.True(t, fresh)
	})

	t.Run("entries expire after the retention window", func(t *testing.T) {
		current := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
		store := NewMemoryStore()
		store.now = func() time.Time { return current }

		fresh, err := store.Consume(t.Context(), "payment-1", "sig-1", time.Minute)
		require.NoError(t, err)
		require.True(t, fresh)

		current = current.Add(30 * time.Second)
		fresh, err = store.Consume(t.Context(), "payment-1", "sig-1", time.Minute)
		require.NoError(t, err)
		assert.False(t, fresh)

		current = current.Add(2 * time.Minute)
		fresh, err = store.Consume(t.Context(), "payment-1", "sig-1", time.Minute)
		require.NoError(t, err)
		assert.True(t, fresh)
	})
}
