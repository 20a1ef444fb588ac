package keyboard

import (
	"strconv"
	"strings"

	"github.com/Proton-105/spinhall-bot/internal/i18n"
)

// Pager is the position in a paged list. Total is zero when the backend does
// not report a count; More then says whether a next page may exist.
type Pager struct {
	Page  int
	Total int
	More  bool
}

// Known builds a Pager for a list with a known page count.
func Known(page, total int) Pager {
	return Pager{Page: page, Total: total}
}

// Open builds a Pager for a backend list without totals. A full page means
// there may be more.
func Open(page, got, pageSize int) Pager {
	return Pager{Page: page, More: pageSize > 0 && got >= pageSize}
}

// Visible reports whether the list needs pagination buttons at all.
func (p Pager) Visible() bool {
	if p.Total > 0 {
		return p.Total > 1
	}
	return p.Page > 1 || p.More
}

func (p Pager) clamp() Pager {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Total > 0 && p.Page > p.Total {
		p.Page = p.Total
	}
	return p
}

func (p Pager) hasNext() bool {
	if p.Total > 0 {
		return p.Page < p.Total
	}
	return p.More
}

// PaginationButtons returns prev, current and next buttons for p. Every
// button carries the target page number as its data under action.
func PaginationButtons(t i18n.Translator, action string, p Pager) []InlineButton {
	p = p.clamp()
	buttons := make([]InlineButton, 0, 3)

	if p.Page > 1 {
		buttons = append(buttons, InlineButton{
			Text:   translated(t, "pagination.prev", "◀️ Prev"),
			Unique: action,
			Data:   strconv.Itoa(p.Page - 1),
		})
	}

	buttons = append(buttons, InlineButton{
		Text:   pageLabel(t, p),
		Unique: action,
		Data:   strconv.Itoa(p.Page),
	})

	if p.hasNext() {
		buttons = append(buttons, InlineButton{
			Text:   translated(t, "pagination.next", "Next ▶️"),
			Unique: action,
			Data:   strconv.Itoa(p.Page + 1),
		})
	}

	return buttons
}

func translated(t i18n.Translator, key, fallback string) string {
	if t == nil {
		return fallback
	}

	text := strings.TrimSpace(t.T(key))
	if text == "" || text == key {
		return fallback
	}

	return text
}

func pageLabel(t i18n.Translator, p Pager) string {
	args := map[string]string{"Page": strconv.Itoa(p.Page), "Total": strconv.Itoa(p.Total)}
	key, fallback := "pagination.page", "{{.Page}}/{{.Total}}"
	if p.Total == 0 {
		key, fallback = "pagination.current", "· {{.Page}} ·"
	}

	label := fallback
	if t != nil {
		if text := t.Tf(key, args); text != key && strings.TrimSpace(text) != "" && !strings.Contains(text, "{{") {
			return text
		}
	}
	for name, value := range args {
		label = strings.ReplaceAll(label, "{{."+name+"}}", value)
	}
	return label
}
