package querycache

import (
	"context"
	"fmt"
	"strings"
)

// Get is the typed form of Cache.Fetch.
func Get[T any](ctx context.Context, c *Cache, key string, fn func(context.Context) (T, error), opts ...Options) (T, error) {
	var zero T

	v, err := c.Fetch(ctx, key, func(ctx context.Context) (any, error) {
		return fn(ctx)
	}, opts...)
	if err != nil {
		return zero, err
	}

	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("query %s: cached %T, want %T", key, v, zero)
	}
	return typed, nil
}

// Key joins parts into a cache key, e.g. Key("games", "fast-slots", "page=1").
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}
