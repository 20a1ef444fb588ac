package i18n

import (
	"strings"

	apperrors "github.com/Proton-105/spinhall-bot/internal/errors"
)

// Detect picks the chat language: the stored preference first, then the
// Telegram client language ("ru-RU" counts as "ru"), then the default.
func (m *Manager) Detect(stored, clientCode string) string {
	if m == nil {
		return ""
	}
	for _, candidate := range []string{stored, clientCode} {
		lang := strings.ToLower(strings.TrimSpace(candidate))
		if i := strings.IndexAny(lang, "-_"); i > 0 {
			lang = lang[:i]
		}
		if m.Has(lang) {
			return lang
		}
	}
	return m.defaultLang
}

// ErrorText renders appErr for the user. Keys without a translation fall
// back to the error's own user message.
func ErrorText(t Translator, appErr *apperrors.AppError) string {
	if appErr == nil {
		return ""
	}
	if t != nil && appErr.MessageKey != "" {
		if text := t.Tf(appErr.MessageKey, appErr.Args); text != appErr.MessageKey {
			return text
		}
	}
	if appErr.UserMessage != "" {
		return appErr.UserMessage
	}
	if t != nil {
		return t.T("errors.generic")
	}
	return "Something went wrong. Please try again later."
}
