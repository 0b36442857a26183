package quota

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unlockify/contentgen/pkg/cache"
)

// setupTestLimiter creates a limiter backed by miniredis
func setupTestLimiter(t *testing.T, limit int) (*Limiter, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := &cache.Client{Redis: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	return New(client, limit), mr
}

func TestLimiter_AllowUnderLimit(t *testing.T) {
	l, _ := setupTestLimiter(t, 5)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		ok, err := l.Allow(ctx, "user-1")
		require.NoError(t, err)
		assert.True(t, ok)
		require.NoError(t, l.RecordSuccess(ctx, "user-1"))
	}

	// 4 recorded, still below 5
	ok, err := l.Allow(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLimiter_BlocksAtLimit(t *testing.T) {
	l, _ := setupTestLimiter(t, 5)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, l.RecordSuccess(ctx, "user-1"))
	}

	ok, err := l.Allow(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, ok)

	// Other users are unaffected
	ok, err = l.Allow(ctx, "user-2")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLimiter_AllowIsIdempotent(t *testing.T) {
	l, _ := setupTestLimiter(t, 5)
	ctx := context.Background()

	require.NoError(t, l.RecordSuccess(ctx, "user-1"))

	for i := 0; i < 10; i++ {
		used, err := l.Used(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, 1, used)

		ok, err := l.Allow(ctx, "user-1")
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestLimiter_ResetsOnDayRollover(t *testing.T) {
	l, _ := setupTestLimiter(t, 5)
	ctx := context.Background()

	day1 := time.Date(2025, 11, 3, 22, 0, 0, 0, time.UTC)
	l.WithClock(func() time.Time { return day1 })

	for i := 0; i < 5; i++ {
		require.NoError(t, l.RecordSuccess(ctx, "user-1"))
	}
	ok, err := l.Allow(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, ok)

	// Midnight passes; the counter is keyed by the new date string
	l.WithClock(func() time.Time { return day1.Add(3 * time.Hour) })

	ok, err = l.Allow(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, ok)

	used, err := l.Used(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 0, used)
}
