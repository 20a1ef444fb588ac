package catalog

import (
	"sort"
	"strings"

	"github.com/Proton-105/spinhall-bot/internal/domain"
)

// Popularity weights. The score is a display heuristic only.
const (
	weightJackpot  = 5
	weightMega     = 3
	weightBonus    = 2
	weightRecent   = 4
	weightFavorite = 6
	weightPremium  = 3
)

// missingProvider sorts after any real provider name.
const missingProvider = "\U0010FFFF"

// Score is the popularity of g for the user described by sig.
func Score(g domain.Game, sig Signals) int {
	return score(g, sig.index())
}

func score(g domain.Game, idx signalIndex) int {
	name := fold(g.Name)
	s := 0
	if g.HasJackpot || strings.Contains(name, "jackpot") {
		s += weightJackpot
	}
	if strings.Contains(name, "mega") {
		s += weightMega
	}
	if strings.Contains(name, "bonus") {
		s += weightBonus
	}
	if idx.isRecent(g.ID) {
		s += weightRecent
	}
	if idx.isFavorite(g.ID) {
		s += weightFavorite
	}
	if g.Provider != "" && idx.isPremium(g.Provider) {
		s += weightPremium
	}
	return s
}

func providerKey(g domain.Game) string {
	if strings.TrimSpace(g.Provider) == "" {
		return missingProvider
	}
	return fold(g.Provider)
}

// sortGames sorts in place. sort.SliceStable keeps input order for equal keys.
func sortGames(games []domain.Game, key SortKey, idx signalIndex) {
	switch key {
	case SortName:
		sort.SliceStable(games, func(i, j int) bool {
			return fold(games[i].Name) < fold(games[j].Name)
		})
	case SortProvider:
		sort.SliceStable(games, func(i, j int) bool {
			pi, pj := providerKey(games[i]), providerKey(games[j])
			if pi != pj {
				return pi < pj
			}
			return fold(games[i].Name) < fold(games[j].Name)
		})
	case SortNewest:
		sort.SliceStable(games, func(i, j int) bool {
			return games[i].CreatedAt.After(games[j].CreatedAt)
		})
	default:
		ranked := make([]rankedGame, len(games))
		for i, g := range games {
			ranked[i] = rankedGame{game: g, score: score(g, idx), name: fold(g.Name)}
		}
		sort.SliceStable(ranked, func(i, j int) bool {
			if ranked[i].score != ranked[j].score {
				return ranked[i].score > ranked[j].score
			}
			return ranked[i].name < ranked[j].name
		})
		for i := range ranked {
			games[i] = ranked[i].game
		}
	}
}

type rankedGame struct {
	game  domain.Game
	score int
	name  string
}
