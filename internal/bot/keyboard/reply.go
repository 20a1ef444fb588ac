package keyboard

import (
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/spinhall-bot/internal/i18n"
)

// MenuItem binds a main menu label key to the command it runs.
type MenuItem struct {
	Key     string
	Command string
}

// Menu rows. Guest rows replace the account row when signed out.
var (
	menuCatalog = []MenuItem{
		{Key: "main_menu.slots", Command: "/slots"},
		{Key: "main_menu.casino", Command: "/casino"},
		{Key: "main_menu.live", Command: "/live"},
	}
	menuLists = []MenuItem{
		{Key: "main_menu.search", Command: "/search"},
		{Key: "main_menu.favorites", Command: "/favorites"},
		{Key: "main_menu.bonuses", Command: "/bonuses"},
	}
	menuWallet = []MenuItem{
		{Key: "main_menu.deposit", Command: "/deposit"},
		{Key: "main_menu.withdraw", Command: "/withdraw"},
		{Key: "main_menu.history", Command: "/transactions"},
	}
	menuAccount = []MenuItem{
		{Key: "main_menu.profile", Command: "/profile"},
		{Key: "main_menu.settings", Command: "/settings"},
	}
	menuGuest = []MenuItem{
		{Key: "main_menu.login", Command: "/login"},
		{Key: "main_menu.register", Command: "/register"},
		{Key: "main_menu.settings", Command: "/settings"},
	}
	menuAdmin = []MenuItem{
		{Key: "main_menu.admin", Command: "/admin"},
	}
)

// MenuItems lists every item any variant of the main menu can show.
func MenuItems() []MenuItem {
	var all []MenuItem
	for _, row := range [][]MenuItem{menuCatalog, menuLists, menuWallet, menuAccount, menuGuest, menuAdmin} {
		all = append(all, row...)
	}
	return all
}

// MainMenu builds the localized reply keyboard. Guests get login and
// register buttons; admins get the back-office button.
func MainMenu(t i18n.Translator, signedIn, admin bool) *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{
		ResizeKeyboard:  true,
		OneTimeKeyboard: false,
	}

	lookup := func(key string) string {
		if t == nil {
			return key
		}
		return t.T(key)
	}
	row := func(items []MenuItem) telebot.Row {
		buttons := make([]telebot.Btn, 0, len(items))
		for _, item := range items {
			buttons = append(buttons, markup.Text(lookup(item.Key)))
		}
		return markup.Row(buttons...)
	}

	rows := []telebot.Row{row(menuCatalog), row(menuLists)}
	if signedIn {
		rows = append(rows, row(menuWallet), row(menuAccount))
	} else {
		rows = append(rows, row(menuGuest))
	}
	if signedIn && admin {
		rows = append(rows, row(menuAdmin))
	}

	markup.Reply(rows...)
	return markup
}
