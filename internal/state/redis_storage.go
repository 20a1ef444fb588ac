package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	chatStateKeyPattern  = "chat:state:%d"
	chatStateScanPattern = "chat:state:*"

	// DefaultStateTTL bounds how long an abandoned flow survives.
	DefaultStateTTL = 30 * time.Minute
)

// RedisStorage persists chat FSM states in Redis. Entries expire after ttl so
// abandoned flows disappear on their own.
type RedisStorage struct {
	client *redis.Client
	log    *slog.Logger
	ttl    time.Duration
}

// NewRedisStorage initializes a Redis-backed Storage implementation.
func NewRedisStorage(client *redis.Client, log *slog.Logger, ttl time.Duration) *RedisStorage {
	if log == nil {
		log = slog.Default()
	}
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}

	return &RedisStorage{
		client: client,
		log:    log,
		ttl:    ttl,
	}
}

// GetState returns the stored chat state or ErrStateNotFound when absent.
func (s *RedisStorage) GetState(ctx context.Context, chatID int64) (*ChatState, error) {
	data, err := s.client.Get(ctx, chatStateKey(chatID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrStateNotFound
		}

		s.log.Error("failed to get state from redis", "chat_id", chatID, "error", err)
		return nil, err
	}

	var state ChatState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		s.log.Error("failed to decode chat state", "chat_id", chatID, "error", err)
		return nil, err
	}

	return &state, nil
}

func (s *RedisStorage) SetState(ctx context.Context, chatID int64, state *ChatState) error {
	state.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(state)
	if err != nil {
		s.log.Error("failed to encode chat state", "chat_id", chatID, "error", err)
		return err
	}

	if err := s.client.Set(ctx, chatStateKey(chatID), data, s.ttl).Err(); err != nil {
		s.log.Error("failed to save state in redis", "chat_id", chatID, "error", err)
		return err
	}

	return nil
}

func (s *RedisStorage) ClearState(ctx context.Context, chatID int64) error {
	if err := s.client.Del(ctx, chatStateKey(chatID)).Err(); err != nil {
		s.log.Error("failed to clear chat state", "chat_id", chatID, "error", err)
		return err
	}

	return nil
}

// GetAllStates retrieves every stored chat state by scanning Redis keys.
func (s *RedisStorage) GetAllStates(ctx context.Context) ([]*ChatState, error) {
	var (
		cursor uint64
		result []*ChatState
	)

	for {
		keys, nextCursor, err := s.client.Scan(ctx, cursor, chatStateScanPattern, 100).Result()
		if err != nil {
			s.log.Error("failed to scan chat states", "error", err)
			return nil, err
		}

		for _, key := range keys {
			data, err := s.client.Get(ctx, key).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue
				}

				s.log.Error("failed to fetch chat state", "key", key, "error", err)
				return nil, err
			}

			var chatState ChatState
			if err := json.Unmarshal([]byte(data), &chatState); err != nil {
				s.log.Error("failed to decode chat state", "key", key, "error", err)
				continue
			}

			result = append(result, &chatState)
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return result, nil
}

func chatStateKey(chatID int64) string {
	return fmt.Sprintf(chatStateKeyPattern, chatID)
}
