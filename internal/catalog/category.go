package catalog

import (
	"strings"

	"github.com/Proton-105/spinhall-bot/internal/domain"
)

type Category string

const (
	CategoryAll       Category = ""
	CategoryJackpot   Category = "jackpot"
	CategoryMegaways  Category = "megaways"
	CategoryBonusBuy  Category = "bonus_buy"
	CategoryClassic   Category = "classic"
	CategoryFavorites Category = "favorites"
	CategoryRecent    Category = "recent"
)

// Categories lists the selectable categories in display order.
var Categories = []Category{
	CategoryJackpot,
	CategoryMegaways,
	CategoryBonusBuy,
	CategoryClassic,
	CategoryFavorites,
	CategoryRecent,
}

// ParseCategory maps user input to a Category. Unknown values mean no filter.
func ParseCategory(s string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories {
		if c == known {
			return c
		}
	}
	return CategoryAll
}

// nameHints are substrings of a folded game name that place it in a category
// when the backend sends no category of its own.
var nameHints = map[Category][]string{
	CategoryJackpot:  {"jackpot"},
	CategoryMegaways: {"megaways"},
	CategoryBonusBuy: {"bonus"},
	CategoryClassic:  {"classic", "fruit", "777"},
}

func inCategory(g domain.Game, c Category, idx signalIndex) bool {
	switch c {
	case CategoryAll:
		return true
	case CategoryFavorites:
		return idx.isFavorite(g.ID)
	case CategoryRecent:
		return idx.isRecent(g.ID)
	}

	if declared, ok := declaredCategories(g); ok {
		_, hit := declared[c]
		return hit
	}

	if c == CategoryJackpot && g.HasJackpot {
		return true
	}
	name := fold(g.Name)
	for _, hint := range nameHints[c] {
		if strings.Contains(name, hint) {
			return true
		}
	}
	return false
}

// declaredCategories reads the backend-provided category and tags. The second
// result is false when the record carries neither.
func declaredCategories(g domain.Game) (map[Category]struct{}, bool) {
	if g.Category == "" && len(g.Tags) == 0 {
		return nil, false
	}
	out := make(map[Category]struct{}, len(g.Tags)+1)
	for _, raw := range append([]string{g.Category}, g.Tags...) {
		if c := ParseCategory(strings.ReplaceAll(raw, "-", "_")); c != CategoryAll {
			out[c] = struct{}{}
		}
	}
	return out, true
}
