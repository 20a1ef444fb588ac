// Package catalog turns a fetched game list into the page a screen renders.
// Everything here is a pure function of its inputs: no I/O, no hidden state.
package catalog

import (
	"github.com/Proton-105/spinhall-bot/internal/domain"
)

// AllProviders is the provider value meaning "no provider filter".
const AllProviders = "all"

// DefaultPageSize is used when a query carries no page size.
const DefaultPageSize = 8

type SortKey string

const (
	SortPopularity SortKey = "popular"
	SortName       SortKey = "name"
	SortProvider   SortKey = "provider"
	SortNewest     SortKey = "newest"
)

// Query holds the criteria a user selected on a catalog screen.
type Query struct {
	Search   string
	Provider string
	Category Category
	Sort     SortKey
	Page     int
	PageSize int
}

// Signals are the per-user and deployment inputs of the popularity ranking
// and of the favorites/recent categories.
type Signals struct {
	Favorites        []string
	Recent           []string
	PremiumProviders []string
}

// Page is one rendered slice of the filtered, sorted list.
type Page struct {
	Items      []domain.Game
	Page       int
	PageSize   int
	TotalItems int
	TotalPages int
}

// Empty reports the "no results" state.
func (p Page) Empty() bool { return p.TotalItems == 0 }

func (p Page) HasPrev() bool { return p.Page > 1 }

func (p Page) HasNext() bool { return p.Page < p.TotalPages }

// Apply filters, sorts and paginates games. The input slice is never modified.
func Apply(games []domain.Game, q Query, sig Signals) Page {
	idx := sig.index()
	filtered := filter(games, q, idx)
	sortGames(filtered, q.Sort, idx)
	return Paginate(filtered, q.Page, q.PageSize)
}

// Filter returns the games passing every active predicate, in input order.
func Filter(games []domain.Game, q Query, sig Signals) []domain.Game {
	return filter(games, q, sig.index())
}

// Sort returns a sorted copy of games.
func Sort(games []domain.Game, key SortKey, sig Signals) []domain.Game {
	out := make([]domain.Game, len(games))
	copy(out, games)
	sortGames(out, key, sig.index())
	return out
}

// Providers lists the distinct non-empty providers in first-seen order.
func Providers(games []domain.Game) []string {
	seen := make(map[string]struct{}, len(games))
	var out []string
	for _, g := range games {
		if g.Provider == "" {
			continue
		}
		if _, ok := seen[g.Provider]; ok {
			continue
		}
		seen[g.Provider] = struct{}{}
		out = append(out, g.Provider)
	}
	return out
}

type signalIndex struct {
	favorites map[string]struct{}
	recent    map[string]struct{}
	premium   map[string]struct{}
}

func (s Signals) index() signalIndex {
	return signalIndex{
		favorites: toSet(s.Favorites, false),
		recent:    toSet(s.Recent, false),
		premium:   toSet(s.PremiumProviders, true),
	}
}

func (i signalIndex) isFavorite(id string) bool {
	_, ok := i.favorites[id]
	return ok
}

func (i signalIndex) isRecent(id string) bool {
	_, ok := i.recent[id]
	return ok
}

func (i signalIndex) isPremium(provider string) bool {
	_, ok := i.premium[fold(provider)]
	return ok
}

func toSet(values []string, folded bool) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if folded {
			v = fold(v)
		}
		set[v] = struct{}{}
	}
	return set
}
