package bucket

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idverse/internal/ratelimit/models"
	"idverse/pkg/testutil"
)

func TestInMemoryBucketStore_Allow(t *testing.T) {
	ctx := context.Background()
	clock := testutil.NewClock(testutil.FixedNow)
	store := NewInMemoryBucketStore(WithClock(clock.Now))
	limit := models.Limit{Requests: 3, Window: time.Minute}

	t.Run("requests up to the limit are allowed", func(t *testing.T) {
		for i := range 3 {
			res, err := store.Allow(ctx, "ip:a:public", limit)
			require.NoError(t, err)
			assert.True(t, res.Allowed)
			assert.Equal(t, 2-i, res.Remaining)
			assert.Equal(t, testutil.FixedNow.Add(time.Minute), res.ResetAt)
		}
	})

	t.Run("request over the limit is refused", func(t *testing.T) {
		clock.Advance(10 * time.Second)
		res, err := store.Allow(ctx, "ip:a:public", limit)
		require.NoError(t, err)
		assert.False(t, res.Allowed)
		assert.Equal(t, 0, res.Remaining)
		assert.Equal(t, 50, res.RetryAfter)
	})

	t.Run("other keys are independent", func(t *testing.T) {
		res, err := store.Allow(ctx, "ip:b:public", limit)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	})

	t.Run("window slides", func(t *testing.T) {
		clock.Advance(51 * time.Second)
		res, err := store.Allow(ctx, "ip:a:public", limit)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	})
}

func TestInMemoryBucketStore_Purge(t *testing.T) {
	ctx := context.Background()
	clock := testutil.NewClock(testutil.FixedNow)
	store := NewInMemoryBucketStore(WithClock(clock.Now))
	limit := models.Limit{Requests: 5, Window: time.Minute}

	_, err := store.Allow(ctx, "old", limit)
	require.NoError(t, err)
	clock.Advance(45 * time.Second)
	_, err = store.Allow(ctx, "recent", limit)
	require.NoError(t, err)
	clock.Advance(30 * time.Second)

	purged, err := store.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, purged)
	assert.Equal(t, 1, store.Len())
}
