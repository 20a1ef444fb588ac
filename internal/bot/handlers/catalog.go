package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/spinhall-bot/internal/bot/keyboard"
	"github.com/Proton-105/spinhall-bot/internal/catalog"
	"github.com/Proton-105/spinhall-bot/internal/domain"
	"github.com/Proton-105/spinhall-bot/internal/games"
	"github.com/Proton-105/spinhall-bot/internal/i18n"
	"github.com/Proton-105/spinhall-bot/internal/state"
)

// Catalog callback ids.
const (
	CallbackCatalogPage     = "cpage"
	CallbackCatalogCategory = "ccat"
	CallbackCatalogProvider = "cprov"
	CallbackCatalogSort     = "csort"
	CallbackCatalogSearch   = "csearch"
	CallbackCatalogReset    = "creset"
	CallbackCatalogBack     = "cback"
	CallbackGame            = "game"
	CallbackFavorite        = "fav"
)

const allValue = "all"

// catalogView is the filter state of a chat's catalog screen.
type catalogView struct {
	Source   games.Source `json:"source"`
	Search   string       `json:"search,omitempty"`
	Provider string       `json:"provider,omitempty"`
	Category string       `json:"category,omitempty"`
	Sort     string       `json:"sort,omitempty"`
	Page     int          `json:"page,omitempty"`
}

func (v catalogView) query(pageSize int) catalog.Query {
	provider := v.Provider
	if provider == "" {
		provider = catalog.AllProviders
	}
	sortKey := catalog.SortKey(v.Sort)
	if sortKey == "" {
		sortKey = catalog.SortPopularity
	}
	return catalog.Query{
		Search:   v.Search,
		Provider: provider,
		Category: catalog.ParseCategory(v.Category),
		Sort:     sortKey,
		Page:     v.Page,
		PageSize: pageSize,
	}
}

// Catalog renders the game lists, filters and game cards.
type Catalog struct {
	d *Deps
}

func NewCatalog(d *Deps) *Catalog {
	return &Catalog{d: d.withDefaults()}
}

// Browse opens src with default filters.
func (h *Catalog) Browse(src games.Source) Handler {
	return func(c telebot.Context) error {
		_ = c.Notify(telebot.Typing)
		return h.show(c, catalogView{Source: src})
	}
}

// Category opens the current source filtered to one category, e.g. favorites.
func (h *Catalog) Category(cat catalog.Category) Handler {
	return func(c telebot.Context) error {
		view := h.view(c)
		view.Category = string(cat)
		view.Page = 1
		return h.show(c, view)
	}
}

// Search filters by the command argument, or asks for a term.
func (h *Catalog) Search() Handler {
	return func(c telebot.Context) error {
		if term := CommandArgs(c); term != "" {
			return h.applySearch(c, term)
		}
		return h.promptSearch(c)
	}
}

// SearchCallback asks for a search term from the catalog keyboard.
func (h *Catalog) SearchCallback() CallbackHandler {
	return func(c telebot.Context) error {
		return h.promptSearch(c)
	}
}

// SearchInput receives the term typed in the search state.
func (h *Catalog) SearchInput() Handler {
	return func(c telebot.Context) error {
		return h.applySearch(c, c.Text())
	}
}

func (h *Catalog) promptSearch(c telebot.Context) error {
	ctx := RequestContext(c)
	if err := h.d.FSM.SetState(ctx, ChatID(c), state.StateCatalogSearch, nil); err != nil {
		return err
	}
	t := h.d.tr(c)
	return reply(c, t.T("catalog.search_prompt"), h.d.Keyboard.Cancel(t))
}

func (h *Catalog) applySearch(c telebot.Context, term string) error {
	ctx := RequestContext(c)
	if err := h.d.FSM.ClearState(ctx, ChatID(c)); err != nil {
		return err
	}
	view := h.view(c)
	view.Search = strings.TrimSpace(term)
	view.Page = 1
	return h.show(c, view)
}

// Page moves to the page in the payload.
func (h *Catalog) Page() CallbackHandler {
	return func(c telebot.Context) error {
		view := h.view(c)
		page, err := strconv.Atoi(Payload(c))
		if err != nil {
			page = 1
		}
		view.Page = page
		return h.show(c, view)
	}
}

// ChooseCategory shows the category picker, or applies the picked one.
func (h *Catalog) ChooseCategory() CallbackHandler {
	return func(c telebot.Context) error {
		t := h.d.tr(c)
		choice := Payload(c)
		if choice == "" {
			buttons := []keyboard.InlineButton{{Text: t.T("category.all"), Unique: CallbackCatalogCategory, Data: allValue}}
			for _, cat := range catalog.Categories {
				buttons = append(buttons, keyboard.InlineButton{
					Text:   t.T("category." + string(cat)),
					Unique: CallbackCatalogCategory,
					Data:   string(cat),
				})
			}
			kb := keyboard.NewInlineKeyboard().AddGrid(2, buttons...).AddRow(h.backButton(t))
			return reply(c, t.T("catalog.choose_category"), h.d.Keyboard.Render(kb))
		}

		view := h.view(c)
		view.Category = string(catalog.ParseCategory(choice))
		view.Page = 1
		return h.show(c, view)
	}
}

// ChooseProvider shows providers of the current source by index, or applies one.
func (h *Catalog) ChooseProvider() CallbackHandler {
	return func(c telebot.Context) error {
		ctx := RequestContext(c)
		t := h.d.tr(c)
		view := h.view(c)

		list, err := h.d.Games.Load(ctx, view.Source)
		if err != nil {
			return err
		}
		providers := catalog.Providers(list)

		choice := Payload(c)
		if choice == "" {
			buttons := []keyboard.InlineButton{{Text: t.T("catalog.any_provider"), Unique: CallbackCatalogProvider, Data: allValue}}
			for i, p := range providers {
				buttons = append(buttons, keyboard.InlineButton{Text: p, Unique: CallbackCatalogProvider, Data: strconv.Itoa(i)})
			}
			kb := keyboard.NewInlineKeyboard().AddGrid(2, buttons...).AddRow(h.backButton(t))
			return reply(c, t.T("catalog.choose_provider"), h.d.Keyboard.Render(kb))
		}

		view.Provider = ""
		if i, err := strconv.Atoi(choice); err == nil && i >= 0 && i < len(providers) {
			view.Provider = providers[i]
		}
		view.Page = 1
		return h.show(c, view)
	}
}

// ChooseSort shows the sort picker, or applies the picked key.
func (h *Catalog) ChooseSort() CallbackHandler {
	return func(c telebot.Context) error {
		t := h.d.tr(c)
		choice := Payload(c)
		if choice == "" {
			var buttons []keyboard.InlineButton
			for _, key := range []catalog.SortKey{catalog.SortPopularity, catalog.SortName, catalog.SortProvider, catalog.SortNewest} {
				buttons = append(buttons, keyboard.InlineButton{Text: t.T("sort." + string(key)), Unique: CallbackCatalogSort, Data: string(key)})
			}
			kb := keyboard.NewInlineKeyboard().AddGrid(2, buttons...).AddRow(h.backButton(t))
			return reply(c, t.T("catalog.choose_sort"), h.d.Keyboard.Render(kb))
		}

		view := h.view(c)
		view.Sort = choice
		view.Page = 1
		return h.show(c, view)
	}
}

// Reset drops every filter but keeps the source.
func (h *Catalog) Reset() CallbackHandler {
	return func(c telebot.Context) error {
		return h.show(c, catalogView{Source: h.view(c).Source})
	}
}

// Back re-renders the list with the stored filters.
func (h *Catalog) Back() CallbackHandler {
	return func(c telebot.Context) error {
		return h.show(c, h.view(c))
	}
}

// Game shows a game card and records it as recently viewed.
func (h *Catalog) Game() CallbackHandler {
	return func(c telebot.Context) error {
		ctx := RequestContext(c)
		chatID := ChatID(c)
		t := h.d.tr(c)
		id := Payload(c)

		g, ok, err := h.d.Games.Find(ctx, h.view(c).Source, id)
		if err != nil {
			return err
		}
		if !ok {
			return notify(c, t.T("game.not_found"), true)
		}

		if err := h.d.Prefs.MarkViewed(ctx, chatID, g.ID); err != nil {
			h.d.Log.Warn("failed to record viewed game", slog.Int64("chat_id", chatID), slog.Any("error", err))
		}
		return h.showGame(c, g)
	}
}

// Favorite toggles the game in the favorites list and re-renders its card.
func (h *Catalog) Favorite() CallbackHandler {
	return func(c telebot.Context) error {
		ctx := RequestContext(c)
		t := h.d.tr(c)
		id := Payload(c)

		added, err := h.d.Prefs.ToggleFavorite(ctx, ChatID(c), id)
		if err != nil {
			return err
		}

		g, ok, err := h.d.Games.Find(ctx, h.view(c).Source, id)
		if err != nil || !ok {
			return notify(c, t.T(boolKey(added, "favorites.added", "favorites.removed")), false)
		}
		return h.showGame(c, g)
	}
}

func (h *Catalog) showGame(c telebot.Context, g domain.Game) error {
	ctx := RequestContext(c)
	chatID := ChatID(c)
	t := h.d.tr(c)

	favs, err := h.d.Prefs.Favorites(ctx, chatID)
	if err != nil {
		return err
	}
	isFav := slices.Contains(favs, g.ID)

	var b strings.Builder
	b.WriteString("🎰 " + g.Name)
	if isFav {
		b.WriteString(" ⭐")
	}
	b.WriteString("\n" + t.Tf("game.provider", map[string]string{"Provider": orDash(g.Provider)}))
	if g.RTP != nil {
		b.WriteString("\n" + t.Tf("game.rtp", map[string]string{"RTP": strconv.FormatFloat(*g.RTP, 'f', 2, 64)}))
	}
	if g.Volatility != "" {
		b.WriteString("\n" + t.Tf("game.volatility", map[string]string{"Volatility": g.Volatility}))
	}
	if g.HasJackpot {
		b.WriteString("\n" + t.T("game.jackpot"))
	}
	b.WriteString("\n" + t.Tf("game.devices", map[string]string{
		"Mobile":  checkMark(g.IsMobile),
		"Desktop": checkMark(g.IsDesktop),
	}))

	kb := keyboard.NewInlineKeyboard()
	token, err := h.d.Sessions.Token(ctx, chatID)
	if err != nil {
		return err
	}
	switch {
	case token == "":
		kb.AddRow(h.d.Keyboard.NavButton(t, "buttons.login_to_play", "/login"))
	case g.LaunchURL != "":
		kb.AddRow(keyboard.InlineButton{Text: t.T("buttons.play"), URL: g.LaunchURL})
	}
	kb.AddRow(
		keyboard.InlineButton{
			Text:   t.T(boolKey(isFav, "buttons.favorite_remove", "buttons.favorite_add")),
			Unique: CallbackFavorite,
			Data:   g.ID,
		},
		h.backButton(t),
	)

	return reply(c, b.String(), h.d.Keyboard.Render(kb))
}

func (h *Catalog) show(c telebot.Context, view catalogView) error {
	ctx := RequestContext(c)
	chatID := ChatID(c)
	t := h.d.tr(c)

	if _, ok := games.ParseSource(string(view.Source)); !ok {
		view.Source = games.SourceFast
	}

	list, err := h.d.Games.Load(ctx, view.Source)
	if err != nil {
		return err
	}

	favs, err := h.d.Prefs.Favorites(ctx, chatID)
	if err != nil {
		return err
	}
	recent, err := h.d.Prefs.Recent(ctx, chatID)
	if err != nil {
		return err
	}
	sig := catalog.Signals{Favorites: favs, Recent: recent, PremiumProviders: h.d.Catalog.PremiumProviders}

	page := catalog.Apply(list, view.query(h.d.Catalog.PageSize), sig)
	view.Page = page.Page
	h.saveView(c, view)

	text := h.listText(t, view, page, len(list), favs)
	kb := keyboard.NewInlineKeyboard()
	for _, g := range page.Items {
		kb.AddRow(keyboard.InlineButton{Text: gameLabel(g, slices.Contains(favs, g.ID)), Unique: CallbackGame, Data: g.ID})
	}
	if pager := keyboard.Known(page.Page, page.TotalPages); pager.Visible() {
		kb.AddRow(keyboard.PaginationButtons(t, CallbackCatalogPage, pager)...)
	}
	kb.AddRow(
		keyboard.InlineButton{Text: t.T("buttons.category"), Unique: CallbackCatalogCategory},
		keyboard.InlineButton{Text: t.T("buttons.provider"), Unique: CallbackCatalogProvider},
		keyboard.InlineButton{Text: t.T("buttons.sort"), Unique: CallbackCatalogSort},
	)
	kb.AddRow(
		keyboard.InlineButton{Text: t.T("buttons.search"), Unique: CallbackCatalogSearch},
		keyboard.InlineButton{Text: t.T("buttons.reset"), Unique: CallbackCatalogReset},
	)

	return reply(c, text, h.d.Keyboard.Render(kb))
}

func (h *Catalog) listText(t i18n.Translator, view catalogView, page catalog.Page, total int, favs []string) string {
	var b strings.Builder
	b.WriteString(t.Tf("catalog.header", map[string]string{
		"Title": t.T("catalog.title." + string(view.Source)),
		"Count": strconv.Itoa(page.TotalItems),
	}))
	b.WriteString("\n")

	q := view.query(h.d.Catalog.PageSize)
	provider := q.Provider
	if provider == catalog.AllProviders {
		provider = t.T("catalog.any_provider")
	}
	category := "all"
	if q.Category != catalog.CategoryAll {
		category = string(q.Category)
	}
	b.WriteString(t.Tf("catalog.filters", map[string]string{
		"Search":   orDash(view.Search),
		"Category": t.T("category." + category),
		"Provider": provider,
		"Sort":     t.T("sort." + string(q.Sort)),
	}))
	b.WriteString("\n\n")

	switch {
	case total == 0:
		b.WriteString(t.T("catalog.empty_catalog"))
	case page.Empty():
		b.WriteString(t.T("catalog.empty"))
	default:
		offset := (page.Page - 1) * page.PageSize
		for i, g := range page.Items {
			fmt.Fprintf(&b, "%d. %s\n", offset+i+1, gameLabel(g, slices.Contains(favs, g.ID)))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// view loads the stored filters. Missing or corrupt state yields defaults.
func (h *Catalog) view(c telebot.Context) catalogView {
	view := catalogView{Source: games.SourceFast}

	raw, err := h.d.Prefs.CatalogView(RequestContext(c), ChatID(c))
	if err != nil || raw == "" {
		return view
	}
	if err := json.Unmarshal([]byte(raw), &view); err != nil {
		return catalogView{Source: games.SourceFast}
	}
	return view
}

func (h *Catalog) saveView(c telebot.Context, view catalogView) {
	raw, err := json.Marshal(view)
	if err != nil {
		return
	}
	if err := h.d.Prefs.SetCatalogView(RequestContext(c), ChatID(c), string(raw)); err != nil {
		h.d.Log.Warn("failed to store catalog view", slog.Int64("chat_id", ChatID(c)), slog.Any("error", err))
	}
}

func (h *Catalog) backButton(t i18n.Translator) keyboard.InlineButton {
	return keyboard.InlineButton{Text: t.T("buttons.back"), Unique: CallbackCatalogBack}
}

func gameLabel(g domain.Game, favorite bool) string {
	label := g.Name
	if g.Provider != "" {
		label += " · " + g.Provider
	}
	if g.HasJackpot {
		label += " 💰"
	}
	if favorite {
		label += " ⭐"
	}
	return label
}

func boolKey(v bool, whenTrue, whenFalse string) string {
	if v {
		return whenTrue
	}
	return whenFalse
}

func checkMark(v bool) string {
	if v {
		return "✓"
	}
	return "✗"
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
