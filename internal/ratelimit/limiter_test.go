package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryAllow(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	newLimiter := func(limit int) *Memory {
		m := NewMemory(limit, time.Minute)
		m.now = func() time.Time { return now }
		return m
	}

	t.Run("allows up to the limit", func(t *testing.T) {
		m := newLimiter(3)
		for i := 0; i < 3; i++ {
			ok, err := m.Allow(ctx, "CARD-1")
			require.NoError(t, err)
			assert.True(t, ok)
		}
		ok, err := m.Allow(ctx, "CARD-1")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("keys are independent", func(t *testing.T) {
		m := newLimiter(1)
		ok, _ := m.Allow(ctx, "CARD-1")
		assert.True(t, ok)
		ok, _ = m.Allow(ctx, "CARD-2")
		assert.True(t, ok)
		ok, _ = m.Allow(ctx, "CARD-1")
		assert.False(t, ok)
	})

	t.Run("window expiry frees the key", func(t *testing.T) {
		m := newLimiter(1)
		ok, _ := m.Allow(ctx, "CARD-1")
		assert.True(t, ok)

		now = now.Add(61 * time.Second)
		ok, _ = m.Allow(ctx, "CARD-1")
		assert.True(t, ok)
	})

	t.Run("denied scans do not extend the window", func(t *testing.T) {
		m := newLimiter(1)
		_, _ = m.Allow(ctx, "CARD-1")
		_, _ = m.Allow(ctx, "CARD-1") // denied
		now = now.Add(61 * time.Second)
		ok, _ := m.Allow(ctx, "CARD-1")
		assert.True(t, ok)
	})
}
