package catalog

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/spinhall-bot/internal/domain"
)

func sampleGames() []domain.Game {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return []domain.Game{
		{ID: "1", Name: "Sweet Bonanza", Provider: "Pragmatic Play", CreatedAt: base.Add(5 * time.Hour)},
		{ID: "2", Name: "Book of Dead", Provider: "Play'n GO", CreatedAt: base.Add(1 * time.Hour)},
		{ID: "3", Name: "Mega Moolah Jackpot", Provider: "Microgaming", CreatedAt: base.Add(3 * time.Hour)},
		{ID: "4", Name: "Bonanza Megaways", Provider: "Big Time Gaming", CreatedAt: base.Add(4 * time.Hour)},
		{ID: "5", Name: "Fruit Party", Provider: "Pragmatic Play", CreatedAt: base.Add(2 * time.Hour)},
		{ID: "6", Name: "Wanted Dead or a Wild", Provider: "Hacksaw", Tags: []string{"bonus-buy"}},
		{ID: "7", Name: "Mystery Reels", Provider: ""},
		{ID: "8", Name: "Classic 777", Provider: "NetEnt"},
		{ID: "9", Name: "Gates of Olympus", Provider: "Pragmatic Play"},
		{ID: "10", Name: "Bonus Deluxe", Provider: "NetEnt"},
	}
}

func sampleSignals() Signals {
	return Signals{
		Favorites:        []string{"2"},
		Recent:           []string{"9", "5"},
		PremiumProviders: []string{"pragmatic play", "NetEnt"},
	}
}

func ids(games []domain.Game) []string {
	out := make([]string, len(games))
	for i, g := range games {
		out[i] = g.ID
	}
	return out
}

func TestApply_SearchScenario(t *testing.T) {
	games := []domain.Game{
		{ID: "a", Name: "Sweet Bonanza", Provider: "Pragmatic Play"},
		{ID: "b", Name: "Book of Dead", Provider: "Play'n GO"},
	}

	page := Apply(games, Query{Search: "sweet"}, Signals{})

	require.Len(t, page.Items, 1)
	assert.Equal(t, games[0], page.Items[0])
	assert.Equal(t, 1, page.TotalItems)
}

func TestApply_EmptyCatalog(t *testing.T) {
	queries := []Query{
		{},
		{Search: "x", Page: 5, PageSize: 3},
		{Provider: "NetEnt", Category: CategoryJackpot, Sort: SortNewest, Page: -1},
		{Category: CategoryFavorites, Sort: SortProvider, PageSize: -2},
	}

	for i, q := range queries {
		q := q
		t.Run(fmt.Sprintf("query_%d", i), func(t *testing.T) {
			var page Page
			require.NotPanics(t, func() { page = Apply(nil, q, sampleSignals()) })
			assert.True(t, page.Empty())
			assert.Empty(t, page.Items)
			assert.Equal(t, 1, page.Page)
			assert.False(t, page.HasNext())
			assert.False(t, page.HasPrev())
		})
	}
}

func TestFilter_SearchIgnoresCaseAndPunctuation(t *testing.T) {
	testCases := []struct {
		name   string
		search string
		want   []string
	}{
		{name: "provider with apostrophe", search: "playn go", want: []string{"2"}},
		{name: "upper case", search: "BONANZA", want: []string{"1", "4"}},
		{name: "punctuation in term", search: "play'n", want: []string{"2"}},
		{name: "extra whitespace", search: "  book   of ", want: []string{"2"}},
		{name: "matches provider", search: "hacksaw", want: []string{"6"}},
		{name: "only punctuation is no filter", search: "!!", want: ids(sampleGames())},
		{name: "no match", search: "zzz", want: []string{}},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := Filter(sampleGames(), Query{Search: tc.search}, Signals{})
			assert.Equal(t, tc.want, ids(got))
		})
	}
}

func TestFilter_Categories(t *testing.T) {
	testCases := []struct {
		category Category
		want     []string
	}{
		{category: CategoryJackpot, want: []string{"3"}},
		{category: CategoryMegaways, want: []string{"4"}},
		{category: CategoryBonusBuy, want: []string{"6", "10"}},
		{category: CategoryClassic, want: []string{"5", "8"}},
		{category: CategoryFavorites, want: []string{"2"}},
		{category: CategoryRecent, want: []string{"5", "9"}},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(string(tc.category), func(t *testing.T) {
			got := Filter(sampleGames(), Query{Category: tc.category}, sampleSignals())
			assert.Equal(t, tc.want, ids(got))
		})
	}
}

func TestFilter_DeclaredCategoryWinsOverName(t *testing.T) {
	games := []domain.Game{
		{ID: "1", Name: "Jackpot Party", Category: "slots"},
		{ID: "2", Name: "Plain Reels", Category: "jackpot"},
	}

	got := Filter(games, Query{Category: CategoryJackpot}, Signals{})
	assert.Equal(t, []string{"2"}, ids(got))
}

func TestFilter_ProviderSentinel(t *testing.T) {
	all := Filter(sampleGames(), Query{Provider: AllProviders}, Signals{})
	assert.Len(t, all, len(sampleGames()))

	pragmatic := Filter(sampleGames(), Query{Provider: "Pragmatic Play"}, Signals{})
	assert.Equal(t, []string{"1", "5", "9"}, ids(pragmatic))
}

func TestFilter_Monotonic(t *testing.T) {
	base := []Query{
		{},
		{Search: "a"},
		{Provider: "Pragmatic Play"},
		{Category: CategoryRecent},
	}
	extras := []struct {
		name  string
		unset func(Query) bool
		add   func(Query) Query
	}{
		{
			name:  "search",
			unset: func(q Query) bool { return q.Search == "" },
			add:   func(q Query) Query { q.Search = "bonanza"; return q },
		},
		{
			name:  "provider",
			unset: func(q Query) bool { return q.Provider == "" },
			add:   func(q Query) Query { q.Provider = "NetEnt"; return q },
		},
		{
			name:  "category",
			unset: func(q Query) bool { return q.Category == CategoryAll },
			add:   func(q Query) Query { q.Category = CategoryClassic; return q },
		},
	}

	for i, q := range base {
		without := len(Filter(sampleGames(), q, sampleSignals()))
		for _, extra := range extras {
			if !extra.unset(q) {
				continue
			}
			with := len(Filter(sampleGames(), extra.add(q), sampleSignals()))
			assert.LessOrEqual(t, with, without, "base %d plus %s", i, extra.name)
		}
	}
}

func TestApply_Idempotent(t *testing.T) {
	q := Query{Search: "a", Sort: SortPopularity, Page: 2, PageSize: 2}
	first := Apply(sampleGames(), q, sampleSignals())
	second := Apply(sampleGames(), q, sampleSignals())
	assert.Equal(t, first, second)
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	games := sampleGames()
	_ = Apply(games, Query{Sort: SortName}, sampleSignals())
	assert.Equal(t, sampleGames(), games)
}

func TestPaginate_Completeness(t *testing.T) {
	for _, size := range []int{1, 3, 4, 10, 25} {
		size := size
		t.Run(fmt.Sprintf("size_%d", size), func(t *testing.T) {
			sorted := Sort(Filter(sampleGames(), Query{}, Signals{}), SortName, Signals{})

			first := Paginate(sorted, 1, size)
			var all []domain.Game
			for p := 1; p <= first.TotalPages; p++ {
				all = append(all, Paginate(sorted, p, size).Items...)
			}

			assert.Equal(t, sorted, all)
			assert.Equal(t, (len(sorted)+size-1)/size, first.TotalPages)
		})
	}
}

func TestPaginate_ClampsOutOfRange(t *testing.T) {
	games := sampleGames()

	last := Paginate(games, 99, 4)
	assert.Equal(t, 3, last.Page)
	assert.Equal(t, []string{"9", "10"}, ids(last.Items))
	assert.False(t, last.HasNext())
	assert.True(t, last.HasPrev())

	first := Paginate(games, 0, 4)
	assert.Equal(t, 1, first.Page)
	assert.Len(t, first.Items, 4)

	def := Paginate(games, 1, 0)
	assert.Equal(t, DefaultPageSize, def.PageSize)
}

func TestSort_Stable(t *testing.T) {
	games := []domain.Game{
		{ID: "a", Name: "Same", Provider: "P"},
		{ID: "b", Name: "same", Provider: "P"},
		{ID: "c", Name: "Other", Provider: "P"},
		{ID: "d", Name: "SAME", Provider: "P"},
	}

	for _, key := range []SortKey{SortName, SortProvider, SortPopularity, SortNewest} {
		key := key
		t.Run(string(key), func(t *testing.T) {
			got := ids(Sort(games, key, Signals{}))
			var same []string
			for _, id := range got {
				if id != "c" {
					same = append(same, id)
				}
			}
			assert.Equal(t, []string{"a", "b", "d"}, same)
		})
	}
}

func TestSort_MissingProviderLast(t *testing.T) {
	got := Sort(sampleGames(), SortProvider, Signals{})
	assert.Equal(t, "7", got[len(got)-1].ID)
	assert.Equal(t, "Big Time Gaming", got[0].Provider)
}

func TestSort_Newest(t *testing.T) {
	got := ids(Sort(sampleGames()[:5], SortNewest, Signals{}))
	assert.Equal(t, []string{"1", "4", "3", "5", "2"}, got)
}

func TestSort_Popularity(t *testing.T) {
	sig := sampleSignals()

	assert.Equal(t, 10, Score(domain.Game{ID: "2", Name: "Book of Dead"}, Signals{Favorites: []string{"2"}, Recent: []string{"2"}}))
	assert.Equal(t, 8, Score(domain.Game{Name: "Mega Moolah Jackpot"}, Signals{}))
	assert.Equal(t, 3, Score(domain.Game{Name: "x", Provider: "NETENT "}, sig))

	got := ids(Sort(sampleGames(), SortPopularity, sig))
	assert.Equal(t, []string{"3", "5", "9", "2", "10", "4", "8", "1", "7", "6"}, got)
}

func TestProviders(t *testing.T) {
	assert.Equal(t,
		[]string{"Pragmatic Play", "Play'n GO", "Microgaming", "Big Time Gaming", "Hacksaw", "NetEnt"},
		Providers(sampleGames()),
	)
}

func TestParseCategory(t *testing.T) {
	assert.Equal(t, CategoryBonusBuy, ParseCategory(" Bonus_Buy "))
	assert.Equal(t, CategoryAll, ParseCategory("live"))
}
