package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Proton-105/spinhall-bot/internal/domain"
	appredis "github.com/Proton-105/spinhall-bot/pkg/redis"
)

// DefaultProfileTTL bounds how long a cached user copy is shown before /auth/me is asked again.
const DefaultProfileTTL = 5 * time.Minute

// ProfileCache keeps the cached copy of the signed-in user per chat.
type ProfileCache struct {
	kv  appredis.KV
	ttl time.Duration
	now func() time.Time
}

// NewProfileCache builds a cache over kv. A nil kv disables caching.
func NewProfileCache(kv appredis.KV, ttl time.Duration) *ProfileCache {
	if ttl <= 0 {
		ttl = DefaultProfileTTL
	}
	return &ProfileCache{kv: kv, ttl: ttl, now: time.Now}
}

// Get fetches a cached profile if it exists.
func (c *ProfileCache) Get(ctx context.Context, chatID int64) (*domain.User, error) {
	if c == nil || c.kv == nil {
		return nil, nil
	}

	data, err := c.kv.Get(ctx, profileKey(chatID))
	if err != nil {
		if appredis.IsNil(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cached profile: %w", err)
	}

	var user domain.User
	if err := json.Unmarshal([]byte(data), &user); err != nil {
		return nil, fmt.Errorf("decode cached profile: %w", err)
	}
	return &user, nil
}

// Set stores user until the cache TTL passes or the token expires, whichever is first.
func (c *ProfileCache) Set(ctx context.Context, chatID int64, user *domain.User, token string) error {
	if c == nil || c.kv == nil || user == nil {
		return nil
	}

	ttl := c.ttl
	if exp, ok := tokenExpiry(token); ok {
		left := exp.Sub(c.now())
		if left <= 0 {
			return nil
		}
		ttl = min(ttl, left)
	}

	payload, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode profile for cache: %w", err)
	}
	if err := c.kv.Set(ctx, profileKey(chatID), payload, ttl); err != nil {
		return fmt.Errorf("set cached profile: %w", err)
	}
	return nil
}

// Invalidate removes the cached profile entry if it exists.
func (c *ProfileCache) Invalidate(ctx context.Context, chatID int64) error {
	if c == nil || c.kv == nil {
		return nil
	}
	if err := c.kv.Delete(ctx, profileKey(chatID)); err != nil {
		return fmt.Errorf("delete cached profile: %w", err)
	}
	return nil
}

func profileKey(chatID int64) string {
	return fmt.Sprintf("profile:%d", chatID)
}

// tokenExpiry reads the exp claim without verifying the signature. The
// backend stays the authority; this only keeps the cache from outliving the token.
func tokenExpiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
