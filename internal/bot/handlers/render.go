package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/spinhall-bot/internal/bot/keyboard"
	apperrors "github.com/Proton-105/spinhall-bot/internal/errors"
	"github.com/Proton-105/spinhall-bot/internal/i18n"
	"github.com/Proton-105/spinhall-bot/internal/state"
)

// RequestContext returns the context the middleware attached to the update.
func RequestContext(c telebot.Context) context.Context {
	if c != nil {
		if ctx, ok := c.Get(ContextKey).(context.Context); ok && ctx != nil {
			return ctx
		}
	}
	return context.Background()
}

// ChatID identifies the "device": the chat the update came from.
func ChatID(c telebot.Context) int64 {
	if c == nil {
		return 0
	}
	if chat := c.Chat(); chat != nil {
		return chat.ID
	}
	if sender := c.Sender(); sender != nil {
		return sender.ID
	}
	return 0
}

// Payload returns the callback payload after the handler id.
func Payload(c telebot.Context) string {
	if c == nil {
		return ""
	}
	if p, ok := c.Get(PayloadKey).(string); ok {
		return p
	}
	if cb := c.Callback(); cb != nil {
		_, data, _ := keyboard.DecodeCallback(cb.Data)
		return data
	}
	return ""
}

// CommandArgs returns the text after the command word. Callbacks have none.
func CommandArgs(c telebot.Context) string {
	if c == nil || c.Callback() != nil {
		return ""
	}
	_, rest, _ := strings.Cut(strings.TrimSpace(c.Text()), " ")
	return strings.TrimSpace(rest)
}

func (d *Deps) tr(c telebot.Context) i18n.Translator {
	if c != nil {
		if t, ok := c.Get(TranslatorKey).(i18n.Translator); ok && t != nil {
			return t
		}
	}
	return d.I18n.Translator("")
}

// reply edits the message behind a callback, or sends a new one.
func reply(c telebot.Context, text string, markup *telebot.ReplyMarkup) error {
	opts := []interface{}{telebot.NoPreview}
	if markup != nil {
		opts = append(opts, markup)
	}

	if c.Callback() != nil {
		_ = c.Respond()
		err := c.Edit(text, opts...)
		if err == nil || errors.Is(err, telebot.ErrSameMessageContent) {
			return nil
		}
	}
	return c.Send(text, opts...)
}

// send always posts a new message.
func send(c telebot.Context, text string, markup *telebot.ReplyMarkup) error {
	if markup != nil {
		return c.Send(text, telebot.NoPreview, markup)
	}
	return c.Send(text, telebot.NoPreview)
}

// notify answers a callback with a toast, or sends text for plain messages.
func notify(c telebot.Context, text string, alert bool) error {
	if c.Callback() != nil {
		return c.Respond(&telebot.CallbackResponse{Text: text, ShowAlert: alert})
	}
	return c.Send(text)
}

// retry shows a validation error and leaves the wizard where it is, so the
// values collected so far are kept. Other errors go to the error middleware.
func (d *Deps) retry(c telebot.Context, err error) error {
	appErr, ok := apperrors.As(err)
	if !ok || appErr.Code != apperrors.CodeValidation {
		return err
	}
	t := d.tr(c)
	return send(c, i18n.ErrorText(t, appErr), d.Keyboard.Cancel(t))
}

// mainMenu picks the menu variant for the chat's session.
func (d *Deps) mainMenu(c telebot.Context) *telebot.ReplyMarkup {
	ctx := RequestContext(c)
	chatID := ChatID(c)

	token, err := d.Sessions.Token(ctx, chatID)
	if err != nil {
		d.Log.Warn("failed to read session for menu", slog.Int64("chat_id", chatID), slog.Any("error", err))
	}
	admin := false
	if token != "" {
		admin, _ = d.Sessions.IsAdmin(ctx, chatID)
	}
	return keyboard.MainMenu(d.tr(c), token != "", admin)
}

// authed runs fn with the chat's token. See session.Manager.WithToken.
func (d *Deps) authed(c telebot.Context, fn func(token string) error) error {
	_, err := d.Sessions.WithToken(RequestContext(c), ChatID(c), fn)
	return err
}

// inState rejects a step callback pressed outside its flow, e.g. an old
// confirm button after /cancel.
func (d *Deps) inState(c telebot.Context, want state.State) (*state.ChatState, error) {
	st, err := d.FSM.Current(RequestContext(c), ChatID(c))
	if err != nil {
		return nil, err
	}
	if !st.Is(want) {
		return nil, apperrors.NewStateError(fmt.Sprintf("expected state %s, chat is in %s", want, st.CurrentState))
	}
	return st, nil
}
