// Package idempotency makes sure an operation runs once per key: a
// redelivered Telegram update, or a confirm pressed twice, must not submit
// a second deposit or withdrawal.
package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Status of a key in the store.
type Status string

const (
	StatusNone       Status = ""
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
)

// Store persists key status. Claim must be atomic across replicas.
type Store interface {
	// Claim marks key as processing if it is unknown. It reports whether the caller owns it.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Status(ctx context.Context, key string) (Status, error)
	// Complete marks an owned key as done for ttl.
	Complete(ctx context.Context, key string, ttl time.Duration) error
	// Release forgets an owned key so the operation may run again.
	Release(ctx context.Context, key string) error
}

// RedisStore keeps one string key per operation.
type RedisStore struct {
	client *redis.Client
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, redisKey(key), string(StatusProcessing), ttl).Result()
}

func (s *RedisStore) Status(ctx context.Context, key string) (Status, error) {
	v, err := s.client.Get(ctx, redisKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return StatusNone, nil
	}
	if err != nil {
		return StatusNone, err
	}
	return Status(v), nil
}

func (s *RedisStore) Complete(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.Set(ctx, redisKey(key), string(StatusCompleted), ttl).Err()
}

func (s *RedisStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, redisKey(key)).Err()
}

func redisKey(key string) string {
	return "idempotency:" + key
}
