// Package localstore is the bot's device-local storage: a small string
// key/value map per chat that survives restarts and is never sent to the
// backend.
package localstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Store keeps string values per chat.
type Store interface {
	// Get returns the value and whether it was present.
	Get(ctx context.Context, chatID int64, key string) (string, bool, error)
	Set(ctx context.Context, chatID int64, key, value string) error
	Delete(ctx context.Context, chatID int64, keys ...string) error
}

const deviceKeyPattern = "device:%d"

// RedisStore keeps each chat's values in one Redis hash without expiry.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, chatID int64, key string) (string, bool, error) {
	v, err := s.client.HGet(ctx, deviceKey(chatID), key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read %s: %w", key, err)
	}
	return v, true, nil
}

func (s *RedisStore) Set(ctx context.Context, chatID int64, key, value string) error {
	if err := s.client.HSet(ctx, deviceKey(chatID), key, value).Err(); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, chatID int64, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.HDel(ctx, deviceKey(chatID), keys...).Err(); err != nil {
		return fmt.Errorf("delete %v: %w", keys, err)
	}
	return nil
}

func deviceKey(chatID int64) string {
	return fmt.Sprintf(deviceKeyPattern, chatID)
}

// MemoryStore is a process-local Store for tests and Redis-less runs.
type MemoryStore struct {
	mu    sync.RWMutex
	chats map[int64]map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{chats: make(map[int64]map[string]string)}
}

func (s *MemoryStore) Get(_ context.Context, chatID int64, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.chats[chatID][key]
	return v, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, chatID int64, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.chats[chatID]
	if !ok {
		m = make(map[string]string)
		s.chats[chatID] = m
	}
	m[key] = value
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, chatID int64, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, k := range keys {
		delete(s.chats[chatID], k)
	}
	return nil
}
