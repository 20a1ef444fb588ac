package keyboard

import (
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/spinhall-bot/internal/i18n"
)

// Callback ids shared by several screens.
const (
	CallbackCancel = "cancel"
	CallbackNav    = "nav"
)

// Builder renders the recurring keyboards and logs markup that cannot be built.
type Builder struct {
	log *slog.Logger
}

// NewBuilder returns a new Builder instance.
func NewBuilder(log *slog.Logger) *Builder {
	if log == nil {
		log = slog.Default()
	}
	return &Builder{log: log}
}

// Render builds kb. A build failure is logged and yields no markup so the
// message is still delivered.
func (b *Builder) Render(kb *InlineKeyboardBuilder) *telebot.ReplyMarkup {
	if kb == nil || kb.Rows() == 0 {
		return nil
	}
	markup, err := kb.Build()
	if err != nil {
		b.log.Warn("failed to build keyboard", slog.Any("error", err))
		return nil
	}
	return markup
}

// CancelButton is the button that leaves any wizard.
func (b *Builder) CancelButton(t i18n.Translator) InlineButton {
	return InlineButton{Text: translated(t, "buttons.cancel", "Cancel ❌"), Unique: CallbackCancel}
}

// NavButton runs command as if the user typed it.
func (b *Builder) NavButton(t i18n.Translator, labelKey, command string) InlineButton {
	return InlineButton{Text: translated(t, labelKey, command), Unique: CallbackNav, Data: command}
}

// Cancel builds a single cancel button.
func (b *Builder) Cancel(t i18n.Translator) *telebot.ReplyMarkup {
	return b.Render(NewInlineKeyboard().AddRow(b.CancelButton(t)))
}

// Confirm builds confirm and cancel buttons; confirm triggers unique.
func (b *Builder) Confirm(t i18n.Translator, unique string) *telebot.ReplyMarkup {
	return b.Render(NewInlineKeyboard().AddRow(
		InlineButton{Text: translated(t, "buttons.confirm", "Confirm ✅"), Unique: unique},
		b.CancelButton(t),
	))
}

// LoginPrompt offers the login and register commands.
func (b *Builder) LoginPrompt(t i18n.Translator) *telebot.ReplyMarkup {
	return b.Render(NewInlineKeyboard().AddRow(
		b.NavButton(t, "buttons.login", "/login"),
		b.NavButton(t, "buttons.register", "/register"),
	))
}
