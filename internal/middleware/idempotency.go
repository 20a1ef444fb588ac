package middleware

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/spinhall-bot/internal/bot/handlers"
	"github.com/Proton-105/spinhall-bot/internal/idempotency"
)

// updateTTL covers Telegram's redelivery window with a wide margin.
const updateTTL = 24 * time.Hour

// Idempotency runs a handler at most once per Telegram update. A redelivered
// update (webhook retry, poller restart) finds its key completed and is
// dropped, so a confirm press that arrives twice submits one request. The
// money request itself carries a separate key derived from the flow.
func Idempotency(manager idempotency.Manager, log *slog.Logger) handlers.Middleware {
	if manager == nil {
		return func(next handlers.Handler) handlers.Handler { return next }
	}
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			key := updateKey(c)
			if key == "" {
				return next(c)
			}

			duplicate, err := manager.Do(handlers.RequestContext(c), key, updateTTL, func(context.Context) error {
				return next(c)
			})
			switch {
			case errors.Is(err, idempotency.ErrRequestInProgress):
				log.Info("update already being handled", slog.String("key", key), slog.Int64("chat_id", handlers.ChatID(c)))
				return nil
			case duplicate:
				log.Info("redelivered update dropped", slog.String("key", key), slog.Int64("chat_id", handlers.ChatID(c)))
			}
			return err
		}
	}
}

// updateKey prefers Telegram's update id and falls back to the callback id or
// the chat/message pair.
func updateKey(c telebot.Context) string {
	if c == nil {
		return ""
	}
	if id := c.Update().ID; id != 0 {
		return "update:" + strconv.Itoa(id)
	}
	if cb := c.Callback(); cb != nil && cb.ID != "" {
		return "cb:" + cb.ID
	}
	if msg := c.Message(); msg != nil && msg.ID != 0 && msg.Chat != nil {
		return "msg:" + strconv.FormatInt(msg.Chat.ID, 10) + ":" + strconv.Itoa(msg.ID)
	}
	return ""
}
