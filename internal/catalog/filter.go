package catalog

import (
	"strings"
	"unicode"

	"github.com/Proton-105/spinhall-bot/internal/domain"
)

func filter(games []domain.Game, q Query, idx signalIndex) []domain.Game {
	term := normalize(q.Search)
	provider := strings.TrimSpace(q.Provider)
	if strings.EqualFold(provider, AllProviders) {
		provider = ""
	}

	out := make([]domain.Game, 0, len(games))
	for _, g := range games {
		if term != "" && !matchesSearch(g, term) {
			continue
		}
		if provider != "" && g.Provider != provider {
			continue
		}
		if !inCategory(g, q.Category, idx) {
			continue
		}
		out = append(out, g)
	}
	return out
}

func matchesSearch(g domain.Game, term string) bool {
	return strings.Contains(normalize(g.Name), term) || strings.Contains(normalize(g.Provider), term)
}

// normalize lowercases s, drops punctuation and collapses whitespace, so
// "Play'n GO" and "playn go" compare equal.
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r):
			space = true
		}
	}
	return b.String()
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
