package challenge

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"idverse/internal/credential/models"
)

const redisKeyPrefix = "vc:challenge:"

// RedisStore keeps challenges as keys with a PX expiry. Redis enforces
// expiry so Purge is a no-op; GETDEL makes consumption atomic across
// replicas of the server.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Save(ctx context.Context, c models.Challenge, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, redisKeyPrefix+c.Token, c.ExpiresAt.UnixMilli(), ttl).Err()
}

func (s *RedisStore) Take(ctx context.Context, token string, now time.Time) (bool, error) {
	expiresAt, err := s.client.GetDel(ctx, redisKeyPrefix+token).Int64()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return now.UnixMilli() < expiresAt, nil
}

func (s *RedisStore) Purge(context.Context, time.Time) (int, error) {
	return 0, nil
}
