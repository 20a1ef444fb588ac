package keyboard_test

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/spinhall-bot/internal/bot/keyboard"
)

func TestInlineKeyboardBuilder(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		markup, err := keyboard.NewInlineKeyboard().
			AddRow(
				keyboard.InlineButton{Text: "Prev", Unique: "cpage", Data: "1"},
				keyboard.InlineButton{Text: "Next", Unique: "cpage", Data: "2"},
			).
			AddRow(keyboard.InlineButton{Text: "Play", URL: "https://casino.example.com/play/1"}).
			Build()
		require.NoError(t, err)

		require.Len(t, markup.InlineKeyboard, 2)
		assert.Len(t, markup.InlineKeyboard[0], 2)
		assert.Equal(t, "cpage:2", markup.InlineKeyboard[0][1].Data)
		assert.Empty(t, markup.InlineKeyboard[0][1].Unique)
		assert.Equal(t, "https://casino.example.com/play/1", markup.InlineKeyboard[1][0].URL)
		assert.Empty(t, markup.InlineKeyboard[1][0].Data)
	})

	t.Run("callback data overflow", func(t *testing.T) {
		_, err := keyboard.NewInlineKeyboard().
			AddRow(keyboard.InlineButton{Text: "Too big", Unique: "overflow", Data: strings.Repeat("x", keyboard.CallbackDataLimitBytes)}).
			Build()
		require.Error(t, err)
	})

	t.Run("grid", func(t *testing.T) {
		buttons := make([]keyboard.InlineButton, 5)
		for i := range buttons {
			buttons[i] = keyboard.InlineButton{Text: "b", Unique: "x"}
		}
		kb := keyboard.NewInlineKeyboard().AddGrid(2, buttons...)
		assert.Equal(t, 3, kb.Rows())
	})
}

func TestBuilder_RenderDropsBrokenMarkup(t *testing.T) {
	b := keyboard.NewBuilder(slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.Nil(t, b.Render(nil))
	assert.Nil(t, b.Render(keyboard.NewInlineKeyboard()))
	assert.Nil(t, b.Render(keyboard.NewInlineKeyboard().AddRow(
		keyboard.InlineButton{Text: "x", Unique: strings.Repeat("u", 70)},
	)))

	markup := b.Confirm(nil, "dconf")
	require.NotNil(t, markup)
	assert.Equal(t, "dconf", markup.InlineKeyboard[0][0].Data)
	assert.Equal(t, keyboard.CallbackCancel, markup.InlineKeyboard[0][1].Data)

	prompt := b.LoginPrompt(nil)
	require.NotNil(t, prompt)
	assert.Equal(t, "nav:/login", prompt.InlineKeyboard[0][0].Data)
}
