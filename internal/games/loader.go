// Package games loads catalog sources from the backend through the shared
// query cache. Catalog queries never revalidate in the request path; the
// background refresh job keeps them warm.
package games

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Proton-105/spinhall-bot/internal/apiclient"
	"github.com/Proton-105/spinhall-bot/internal/domain"
	"github.com/Proton-105/spinhall-bot/internal/querycache"
	"github.com/Proton-105/spinhall-bot/pkg/config"
)

// Source is one backend catalog.
type Source string

const (
	SourceFast  Source = "fast"
	SourceSlots Source = "slots"
	SourceLive  Source = "live"
)

// Sources lists every catalog in menu order.
var Sources = []Source{SourceFast, SourceSlots, SourceLive}

// FetchSize is the page size requested from the backend. Filtering,
// sorting and paging happen client-side on the whole list.
const FetchSize = 200

// ParseSource returns the Source named s.
func ParseSource(s string) (Source, bool) {
	for _, src := range Sources {
		if string(src) == s {
			return src, true
		}
	}
	return "", false
}

// API is the slice of the backend client the loader needs.
type API interface {
	FastSlots(ctx context.Context, q apiclient.GameQuery) (domain.GamePage, error)
	SlotegratorGames(ctx context.Context, kind string, q apiclient.GameQuery) (domain.GamePage, error)
}

type Loader struct {
	api   API
	cache *querycache.Cache
	opts  querycache.Options
	log   *slog.Logger
}

func NewLoader(api API, cache *querycache.Cache, cfg config.CatalogConfig, log *slog.Logger) *Loader {
	if log == nil {
		log = slog.Default()
	}
	return &Loader{
		api:   api,
		cache: cache,
		opts: querycache.Options{
			StaleTime:           cfg.StaleTime,
			CacheTime:           cfg.CacheTime,
			NoBackgroundRefresh: true,
		},
		log: log.With(slog.String("component", "games")),
	}
}

// Key is the query cache key of a source.
func Key(src Source) string {
	return querycache.Key("games", string(src))
}

// Load returns the cached list of src, fetching it on a miss.
func (l *Loader) Load(ctx context.Context, src Source) ([]domain.Game, error) {
	return querycache.Get(ctx, l.cache, Key(src), func(ctx context.Context) ([]domain.Game, error) {
		return l.fetch(ctx, src)
	}, l.opts)
}

// Refresh fetches src and replaces the cached list. A failed fetch keeps
// the previous entry.
func (l *Loader) Refresh(ctx context.Context, src Source) (int, error) {
	start := time.Now()
	list, err := l.fetch(ctx, src)
	if err != nil {
		return 0, err
	}
	l.cache.Set(Key(src), list, l.opts)
	l.log.Debug("catalog refreshed",
		slog.String("source", string(src)),
		slog.Int("games", len(list)),
		slog.Duration("duration", time.Since(start)),
	)
	return len(list), nil
}

// Find returns the game with id from the cached list of src.
func (l *Loader) Find(ctx context.Context, src Source, id string) (domain.Game, bool, error) {
	list, err := l.Load(ctx, src)
	if err != nil {
		return domain.Game{}, false, err
	}
	for _, g := range list {
		if g.ID == id {
			return g, true, nil
		}
	}
	return domain.Game{}, false, nil
}

func (l *Loader) fetch(ctx context.Context, src Source) ([]domain.Game, error) {
	q := apiclient.GameQuery{Page: 1, PerPage: FetchSize}

	var (
		page domain.GamePage
		err  error
	)
	switch src {
	case SourceFast:
		page, err = l.api.FastSlots(ctx, q)
	case SourceSlots:
		page, err = l.api.SlotegratorGames(ctx, apiclient.KindSlots, q)
	case SourceLive:
		page, err = l.api.SlotegratorGames(ctx, apiclient.KindLive, q)
	default:
		return nil, fmt.Errorf("unknown catalog source %q", src)
	}
	if err != nil {
		return nil, err
	}
	if page.Games == nil {
		return []domain.Game{}, nil
	}
	return page.Games, nil
}
