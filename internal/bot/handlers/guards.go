package handlers

import (
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/spinhall-bot/internal/i18n"
)

// AuthGuard lets signed-in chats through and shows the login prompt to the rest.
func AuthGuard(d *Deps) Guard {
	d = d.withDefaults()
	return func(c telebot.Context) (bool, error) {
		token, err := d.Sessions.Token(RequestContext(c), ChatID(c))
		if err != nil {
			return false, err
		}
		if token != "" {
			return true, nil
		}
		t := d.tr(c)
		return false, reply(c, t.T("auth.required"), d.Keyboard.LoginPrompt(t))
	}
}

// AdminGuard requires both a token and the stored admin flag. The backend
// still authorizes every admin request; this only decides what to render.
func AdminGuard(d *Deps) Guard {
	d = d.withDefaults()
	auth := AuthGuard(d)
	return func(c telebot.Context) (bool, error) {
		ok, err := auth(c)
		if !ok || err != nil {
			return ok, err
		}
		admin, err := d.Sessions.IsAdmin(RequestContext(c), ChatID(c))
		if err != nil {
			return false, err
		}
		if admin {
			return true, nil
		}
		return false, notify(c, d.tr(c).T("admin.denied"), true)
	}
}

// Guarded runs guard before next.
func Guarded(guard Guard, next Handler) Handler {
	if guard == nil {
		return next
	}
	return func(c telebot.Context) error {
		ok, err := guard(c)
		if err != nil || !ok {
			return err
		}
		return next(c)
	}
}

// ExpireSession handles a 401 from the backend: the stored session, wizard
// state and per-chat caches are dropped and the login prompt is shown.
func (d *Deps) ExpireSession(c telebot.Context) error {
	ctx := RequestContext(c)
	chatID := ChatID(c)

	if err := d.Sessions.HandleUnauthorized(ctx, chatID); err != nil {
		d.Log.Error("failed to clear expired session", slog.Int64("chat_id", chatID), slog.Any("error", err))
	}
	if err := d.FSM.ClearState(ctx, chatID); err != nil {
		d.Log.Warn("failed to clear state after 401", slog.Int64("chat_id", chatID), slog.Any("error", err))
	}
	d.Queries.InvalidatePrefix(chatPrefix(chatID))

	t := d.tr(c)
	if c.Callback() != nil {
		_ = c.Respond()
	}
	return send(c, t.T("auth.expired"), d.Keyboard.LoginPrompt(t))
}

// Translator returns the translator the middleware picked for the update.
func (d *Deps) Translator(c telebot.Context) i18n.Translator {
	return d.tr(c)
}
