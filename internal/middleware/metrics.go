package middleware

import (
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/spinhall-bot/internal/bot/handlers"
	apperrors "github.com/Proton-105/spinhall-bot/internal/errors"
	"github.com/Proton-105/spinhall-bot/pkg/metrics"
)

// Metrics records every routed update in Prometheus. The route label is what
// the router matched (a command, callback id or "state:<name>"), never user
// text; the status is "ok" or the error code.
func Metrics(next handlers.Handler) handlers.Handler {
	if next == nil {
		return nil
	}

	return func(c telebot.Context) error {
		start := time.Now()
		err := next(c)
		metrics.RecordCommand(routeName(c), outcome(err), time.Since(start))
		return err
	}
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if appErr, ok := apperrors.As(err); ok && appErr.Code != "" {
		return appErr.Code
	}
	return "error"
}

func routeName(c telebot.Context) string {
	if route, ok := c.Get(handlers.RouteKey).(string); ok && route != "" {
		return route
	}
	return "unknown"
}
