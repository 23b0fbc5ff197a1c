package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// UnlockCache accelerates the unlock membership test. The ledger document
// remains the source of truth; a cache miss always falls through to it.
type UnlockCache interface {
	IsUnlocked(ctx context.Context, userID, profileID string) (bool, error)
	MarkUnlocked(ctx context.Context, userID, profileID string) error
}

type RedisUnlockCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisUnlockCache(client *redis.Client) *RedisUnlockCache {
	return &RedisUnlockCache{
		client: client,
		ttl:    24 * time.Hour,
	}
}

func unlockKey(userID string) string {
	return "unlocked:" + userID
}

func (c *RedisUnlockCache) IsUnlocked(ctx context.Context, userID, profileID string) (bool, error) {
	return c.client.SIsMember(ctx, unlockKey(userID), profileID).Result()
}

func (c *RedisUnlockCache) MarkUnlocked(ctx context.Context, userID, profileID string) error {
	key := unlockKey(userID)
	if err := c.client.SAdd(ctx, key, profileID).Err(); err != nil {
		return err
	}
	return c.client.Expire(ctx, key, c.ttl).Err()
}
