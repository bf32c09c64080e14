package dedupe

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "chorus:applied:"

// RedisStore keeps applied activity ids in Redis with a retention window.
// Remote senders give up redelivery long before the window expires.
type RedisStore struct {
	client    *redis.Client
	retention time.Duration
}

// NewRedisStore returns a store retaining applied ids for retention
func NewRedisStore(client *redis.Client, retention time.Duration) *RedisStore {
	return &RedisStore{
		client:    client,
		retention: retention,
	}
}

// Seen reports whether the activity id has been marked applied
func (r *RedisStore) Seen(ctx context.Context, activityID string) (bool, error) {
	n, err := r.client.Exists(ctx, keyPrefix+activityID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Mark records the activity id as applied
func (r *RedisStore) Mark(ctx context.Context, activityID string) error {
	return r.client.Set(ctx, keyPrefix+activityID, 1, r.retention).Err()
}
