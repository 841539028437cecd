package bucket

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"idverse/internal/ratelimit/models"
)

const redisKeyPrefix = "ratelimit:"

// RedisBucketStore keeps each sliding window in a sorted set scored by
// request time in milliseconds.
type RedisBucketStore struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisBucketStore(client *redis.Client) *RedisBucketStore {
	return &RedisBucketStore{client: client, now: time.Now}
}

// Allow trims the window, counts it, and records the request when it fits.
// A refused request is not recorded. Concurrent requests at the boundary may
// both pass; the limit is approximate across instances.
func (s *RedisBucketStore) Allow(ctx context.Context, key string, limit models.Limit) (*models.RateLimitResult, error) {
	now := s.now()
	nowMs := now.UnixMilli()
	cutoff := now.Add(-limit.Window).UnixMilli()
	redisKey := redisKeyPrefix + key

	var oldest *redis.ZSliceCmd
	var count *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.ZRemRangeByScore(ctx, redisKey, "-inf", strconv.FormatInt(cutoff, 10))
		count = p.ZCard(ctx, redisKey)
		oldest = p.ZRangeWithScores(ctx, redisKey, 0, 0)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("rate limit window %s: %w", key, err)
	}

	resetAt := now.Add(limit.Window)
	if z := oldest.Val(); len(z) > 0 {
		resetAt = time.UnixMilli(int64(z[0].Score)).Add(limit.Window)
	}
	used := int(count.Val())
	if used >= limit.Requests {
		return models.NewResult(false, limit.Requests, 0, resetAt, now), nil
	}

	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.ZAdd(ctx, redisKey, redis.Z{Score: float64(nowMs), Member: uuid.NewString()})
		p.PExpire(ctx, redisKey, limit.Window)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("rate limit record %s: %w", key, err)
	}
	if used == 0 {
		resetAt = now.Add(limit.Window)
	}
	return models.NewResult(true, limit.Requests, limit.Requests-used-1, resetAt, now), nil
}
