package health

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

// apiPingerFunc adapts a function to APIPinger.
type apiPingerFunc func(ctx context.Context) error

func (f apiPingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestChecker(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	c := NewChecker(slog.New(slog.NewTextHandler(io.Discard, nil)))
	c.AddCheck("redis", NewRedisChecker(client))
	c.AddCheck("api", NewAPIChecker(apiPingerFunc(func(context.Context) error { return errors.New("502 from backend") })))
	c.AddCheck("telegram", NewTelegramChecker(nil))

	results := c.Check(context.Background())

	assert.Equal(t, StatusOK, results["redis"])
	assert.Equal(t, "502 from backend", results["api"])
	assert.Equal(t, []string{"api", "telegram"}, Failing(results))
}
