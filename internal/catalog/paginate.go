package catalog

import "github.com/Proton-105/spinhall-bot/internal/domain"

// Paginate returns the page-th slice of games. Out-of-range pages clamp to the
// first or last page; an empty list yields an empty first page.
func Paginate(games []domain.Game, page, pageSize int) Page {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	total := len(games)
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages == 0 {
		return Page{Items: []domain.Game{}, Page: 1, PageSize: pageSize}
	}

	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * pageSize
	end := min(start+pageSize, total)

	items := make([]domain.Game, end-start)
	copy(items, games[start:end])

	return Page{
		Items:      items,
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: totalPages,
	}
}
