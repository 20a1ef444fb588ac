package keyboard_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/spinhall-bot/internal/bot/keyboard"
)

func menuTexts(t *testing.T, signedIn, admin bool) [][]string {
	t.Helper()

	markup := keyboard.MainMenu(&mockTranslator{}, signedIn, admin)
	require.True(t, markup.ResizeKeyboard)

	rows := make([][]string, len(markup.ReplyKeyboard))
	for i, row := range markup.ReplyKeyboard {
		for _, btn := range row {
			rows[i] = append(rows[i], btn.Text)
		}
	}
	return rows
}

func TestMainMenu_Guest(t *testing.T) {
	rows := menuTexts(t, false, true)

	require.Len(t, rows, 3)
	assert.Equal(t, []string{"main_menu.login", "main_menu.register", "main_menu.settings"}, rows[2])
}

func TestMainMenu_SignedIn(t *testing.T) {
	rows := menuTexts(t, true, false)

	require.Len(t, rows, 4)
	assert.Equal(t, []string{"main_menu.slots", "main_menu.casino", "main_menu.live"}, rows[0])
	assert.Equal(t, []string{"main_menu.deposit", "main_menu.withdraw", "main_menu.history"}, rows[2])
}

func TestMainMenu_Admin(t *testing.T) {
	rows := menuTexts(t, true, true)

	require.Len(t, rows, 5)
	assert.Equal(t, []string{"main_menu.admin"}, rows[4])
}

func TestMenuItems_CoverEveryButton(t *testing.T) {
	seen := map[string]string{}
	for _, item := range keyboard.MenuItems() {
		if cmd, ok := seen[item.Key]; ok {
			assert.Equal(t, cmd, item.Command, item.Key)
		}
		seen[item.Key] = item.Command
	}
	assert.Equal(t, "/admin", seen["main_menu.admin"])
	assert.Equal(t, "/transactions", seen["main_menu.history"])
}
