package handlers

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/spinhall-bot/internal/apiclient"
	"github.com/Proton-105/spinhall-bot/internal/bot/bottest"
	"github.com/Proton-105/spinhall-bot/internal/domain"
	"github.com/Proton-105/spinhall-bot/internal/games"
	"github.com/Proton-105/spinhall-bot/internal/state"
	"github.com/Proton-105/spinhall-bot/pkg/config"
)

const catalogChat int64 = 77

type mockGamesAPI struct {
	mock.Mock
}

func (m *mockGamesAPI) FastSlots(ctx context.Context, q apiclient.GameQuery) (domain.GamePage, error) {
	args := m.Called(ctx, q)
	return args.Get(0).(domain.GamePage), args.Error(1)
}

func (m *mockGamesAPI) SlotegratorGames(ctx context.Context, kind string, q apiclient.GameQuery) (domain.GamePage, error) {
	args := m.Called(ctx, kind, q)
	return args.Get(0).(domain.GamePage), args.Error(1)
}

// withGames wires a loader serving n fast games named g1..gn.
func withGames(f *fixture, n int) *mockGamesAPI {
	list := make([]domain.Game, 0, n)
	for i := 1; i <= n; i++ {
		list = append(list, domain.Game{ID: fmt.Sprintf("g%d", i), Name: fmt.Sprintf("Game %02d", i), Provider: "Pragmatic"})
	}

	api := &mockGamesAPI{}
	api.On("FastSlots", mock.Anything, mock.Anything).Return(domain.GamePage{Games: list}, nil)

	f.deps.Catalog = config.CatalogConfig{PageSize: 4}
	f.deps.Games = games.NewLoader(api, f.deps.Queries, f.deps.Catalog, f.deps.Log)
	return api
}

func gameButtons(c *bottest.Context) []string {
	var out []string
	for _, b := range c.Buttons() {
		if len(b) > len(CallbackGame)+1 && b[:len(CallbackGame)+1] == CallbackGame+":" {
			out = append(out, b)
		}
	}
	return out
}

func TestCatalog_BrowseAndPage(t *testing.T) {
	f := newFixture(t)
	api := withGames(f, 10)
	h := NewCatalog(f.deps)

	open := bottest.Text(catalogChat, "/slots")
	require.NoError(t, h.Browse(games.SourceFast)(open))
	assert.Len(t, gameButtons(open), 4)
	assert.Contains(t, open.Buttons(), CallbackCatalogPage+":2")
	assert.NotContains(t, open.Buttons(), CallbackCatalogPage+":0")

	last := bottest.Callback(catalogChat, CallbackCatalogPage+":3")
	require.NoError(t, h.Page()(last))
	assert.Len(t, gameButtons(last), 2)
	assert.NotContains(t, last.Buttons(), CallbackCatalogPage+":4")
	assert.True(t, last.Sent()[0].Edited)

	// Beyond the range clamps to the last page.
	beyond := bottest.Callback(catalogChat, CallbackCatalogPage+":9")
	require.NoError(t, h.Page()(beyond))
	assert.Len(t, gameButtons(beyond), 2)

	api.AssertNumberOfCalls(t, "FastSlots", 1)
}

func TestCatalog_SearchFlow(t *testing.T) {
	f := newFixture(t)
	withGames(f, 10)
	h := NewCatalog(f.deps)

	prompt := bottest.Text(catalogChat, "/search")
	require.NoError(t, h.Search()(prompt))
	assert.Equal(t, "catalog.search_prompt", prompt.Last())
	assert.Equal(t, state.StateCatalogSearch, f.currentState(t, catalogChat))

	in := bottest.Text(catalogChat, "GAME,  07!")
	require.NoError(t, h.SearchInput()(in))
	assert.Equal(t, []string{CallbackGame + ":g7"}, gameButtons(in))
	assert.Equal(t, state.StateIdle, f.currentState(t, catalogChat))

	// The filter is remembered until reset.
	back := bottest.Callback(catalogChat, CallbackCatalogBack)
	require.NoError(t, h.Back()(back))
	assert.Len(t, gameButtons(back), 1)

	reset := bottest.Callback(catalogChat, CallbackCatalogReset)
	require.NoError(t, h.Reset()(reset))
	assert.Len(t, gameButtons(reset), 4)
}

func TestCatalog_GameCardRecordsViewAndFavorite(t *testing.T) {
	f := newFixture(t)
	withGames(f, 3)
	h := NewCatalog(f.deps)
	ctx := context.Background()

	card := bottest.Callback(catalogChat, CallbackGame+":g2")
	require.NoError(t, h.Game()(card))
	assert.Contains(t, card.Last(), "Game 02")
	assert.Contains(t, card.Buttons(), CallbackFavorite+":g2")
	assert.Contains(t, card.Buttons(), "nav:/login", "guests are asked to sign in before playing")

	recent, err := f.deps.Prefs.Recent(ctx, catalogChat)
	require.NoError(t, err)
	assert.Equal(t, []string{"g2"}, recent)

	fav := bottest.Callback(catalogChat, CallbackFavorite+":g2")
	require.NoError(t, h.Favorite()(fav))
	favs, err := f.deps.Prefs.Favorites(ctx, catalogChat)
	require.NoError(t, err)
	assert.Equal(t, []string{"g2"}, favs)
	assert.Contains(t, fav.Last(), "⭐")

	require.NoError(t, h.Favorite()(bottest.Callback(catalogChat, CallbackFavorite+":g2")))
	favs, err = f.deps.Prefs.Favorites(ctx, catalogChat)
	require.NoError(t, err)
	assert.Empty(t, favs)
}

func TestCatalog_UnknownGame(t *testing.T) {
	f := newFixture(t)
	withGames(f, 1)

	c := bottest.Callback(catalogChat, CallbackGame+":missing")
	require.NoError(t, NewCatalog(f.deps).Game()(c))

	require.Len(t, c.Responses(), 1)
	assert.Equal(t, "game.not_found", c.Responses()[0].Text)
	assert.Empty(t, c.Sent())
}
