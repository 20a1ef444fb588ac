package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Proton-105/spinhall-bot/internal/domain"
	apperrors "github.com/Proton-105/spinhall-bot/internal/errors"
)

// Game kinds served under /api/slotegrator/games/.
const (
	KindSlots = "slots"
	KindLive  = "live"
	KindTable = "table"
)

// GameQuery carries the optional server-side paging and filters.
type GameQuery struct {
	Page     int
	PerPage  int
	Provider string
	Device   string
}

func (q GameQuery) values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PerPage > 0 {
		v.Set("perPage", strconv.Itoa(q.PerPage))
	}
	if q.Provider != "" {
		v.Set("provider", q.Provider)
	}
	if q.Device != "" {
		v.Set("device", q.Device)
	}
	return v
}

// FastSlots lists the fast-slots catalog.
func (c *Client) FastSlots(ctx context.Context, q GameQuery) (domain.GamePage, error) {
	return c.games(ctx, "games.fast_slots", "/api/fast-slots", q)
}

// SlotegratorGames lists aggregator games of one kind, e.g. KindSlots.
func (c *Client) SlotegratorGames(ctx context.Context, kind string, q GameQuery) (domain.GamePage, error) {
	return c.games(ctx, "games.slotegrator", "/api/slotegrator/games/"+url.PathEscape(kind), q)
}

func (c *Client) games(ctx context.Context, name, path string, q GameQuery) (domain.GamePage, error) {
	var raw json.RawMessage
	if err := c.do(ctx, request{name: name, method: http.MethodGet, path: path, query: q.values()}, &raw); err != nil {
		return domain.GamePage{}, err
	}

	games, err := decodeList[domain.Game](raw)
	if err != nil {
		return domain.GamePage{}, apperrors.NewTransportError(name, err)
	}

	page := domain.GamePage{Games: games}
	if len(raw) > 0 && raw[0] == '{' {
		var meta struct {
			Total   int `json:"total"`
			Page    int `json:"page"`
			PerPage int `json:"perPage"`
		}
		_ = json.Unmarshal(raw, &meta)
		page.Total, page.Page, page.PerPage = meta.Total, meta.Page, meta.PerPage
	}
	if page.Total == 0 {
		page.Total = len(games)
	}
	return page, nil
}
