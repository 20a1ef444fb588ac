package bot

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/spinhall-bot/internal/bot/handlers"
	apperrors "github.com/Proton-105/spinhall-bot/internal/errors"
	"github.com/Proton-105/spinhall-bot/internal/i18n"
	"github.com/Proton-105/spinhall-bot/internal/state"
	"github.com/Proton-105/spinhall-bot/pkg/logger"
)

// updateTimeout bounds the work done for one update, backend calls included.
const updateTimeout = 30 * time.Second

// RecoveryMiddleware catches panics, reports them via the centralized handler, and notifies the user.
// A panic inside a flow parks the chat in the error state until /cancel.
func RecoveryMiddleware(deps *handlers.Deps, errHandler *apperrors.Handler) handlers.Middleware {
	log := deps.Log
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				log.Error("panic recovered in handler", slog.Any("panic", r), slog.String("stack", string(debug.Stack())))

				ctx := handlers.RequestContext(c)
				appErr := apperrors.NewStateError(fmt.Sprintf("panic recovered: %v", r))
				if errHandler != nil {
					appErr = errHandler.Handle(ctx, appErr)
				}

				chatID := handlers.ChatID(c)
				if deps.FSM != nil && chatID != 0 {
					if cur, stErr := deps.FSM.Current(ctx, chatID); stErr == nil && state.IsWizard(cur.CurrentState) {
						if setErr := deps.FSM.TransitionTo(ctx, chatID, state.StateError, nil); setErr != nil {
							log.Warn("failed to park chat in error state", slog.Int64("chat_id", chatID), slog.Any("error", setErr))
						}
					}
				}

				if sendErr := c.Send(i18n.ErrorText(translator(c, deps), appErr)); sendErr != nil {
					log.Error("failed to notify user about panic", slog.Any("error", sendErr))
				}
				err = nil
			}()

			return next(c)
		}
	}
}

// ContextMiddleware attaches a context with a correlation id and a deadline.
func ContextMiddleware(next handlers.Handler) handlers.Handler {
	if next == nil {
		return nil
	}

	return func(c telebot.Context) error {
		ctx, cancel := context.WithTimeout(context.Background(), updateTimeout)
		defer cancel()

		c.Set(handlers.ContextKey, logger.WithCorrelationID(ctx, ""))
		return next(c)
	}
}

// TranslatorMiddleware picks the chat language: the stored preference, then
// the Telegram client language, then the default.
func TranslatorMiddleware(deps *handlers.Deps) handlers.Middleware {
	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			if deps.I18n == nil {
				return next(c)
			}

			stored := ""
			if deps.Prefs != nil {
				lang, err := deps.Prefs.Language(handlers.RequestContext(c), handlers.ChatID(c))
				if err != nil {
					deps.Log.Warn("failed to read language preference", slog.Int64("chat_id", handlers.ChatID(c)), slog.Any("error", err))
				}
				stored = lang
			}
			client := ""
			if sender := c.Sender(); sender != nil {
				client = sender.LanguageCode
			}

			c.Set(handlers.TranslatorKey, deps.I18n.Translator(deps.I18n.Detect(stored, client)))
			return next(c)
		}
	}
}

// ErrorHandlingMiddleware centralizes error reporting and user messaging for handler failures.
// A 401 ends the session; other errors are shown in the chat language.
func ErrorHandlingMiddleware(deps *handlers.Deps, errHandler *apperrors.Handler) handlers.Middleware {
	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			var appErr *apperrors.AppError
			if errHandler != nil {
				appErr = errHandler.Handle(handlers.RequestContext(c), err)
			} else if appErr, _ = apperrors.As(err); appErr == nil {
				appErr = &apperrors.AppError{MessageKey: "errors.generic"}
			}

			if appErr.Code == apperrors.CodeUnauthorized {
				return deps.ExpireSession(c)
			}

			text := i18n.ErrorText(translator(c, deps), appErr)
			if c.Callback() != nil {
				if appErr.Code == apperrors.CodeStateError || appErr.Code == apperrors.CodeRateLimit {
					return c.Respond(&telebot.CallbackResponse{Text: text, ShowAlert: true})
				}
				_ = c.Respond()
			}
			return c.Send(text)
		}
	}
}

// LoggingMiddleware logs basic telemetry about incoming updates. Free text is
// never logged since it may carry passwords or account numbers.
func LoggingMiddleware(log *slog.Logger) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			start := time.Now()
			ctx := handlers.RequestContext(c)
			chatID := handlers.ChatID(c)

			err := next(c)

			route, _ := c.Get(handlers.RouteKey).(string)
			log.Info("handled update",
				slog.Int64("chat_id", chatID),
				slog.String("route", route),
				slog.String("correlation_id", logger.CorrelationIDFromContext(ctx)),
				slog.Duration("duration", time.Since(start)),
				slog.Any("error", err),
			)

			return err
		}
	}
}

func translator(c telebot.Context, deps *handlers.Deps) i18n.Translator {
	if t, ok := c.Get(handlers.TranslatorKey).(i18n.Translator); ok && t != nil {
		return t
	}
	if deps != nil && deps.I18n != nil {
		return deps.I18n.Translator("")
	}
	return nil
}
