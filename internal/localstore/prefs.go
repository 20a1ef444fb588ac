package localstore

import (
	"context"
	"encoding/json"
	"slices"
	"strconv"
)

// Keys as stored per chat. The token is written under both token keys;
// authToken is the older name still read by earlier deployments.
const (
	KeyToken          = "token"
	KeyLegacyToken    = "authToken"
	KeyLanguage       = "language"
	KeyFavorites      = "favorites"
	KeyRecentlyViewed = "recentlyViewed"
	KeyIsAdmin        = "isAdmin"
	KeyCatalogView    = "catalogView"
)

// MaxRecent caps the recently viewed list.
const MaxRecent = 20

// Prefs gives typed access to the values a chat keeps locally.
type Prefs struct {
	store Store
}

func NewPrefs(store Store) *Prefs {
	return &Prefs{store: store}
}

// Token returns the stored bearer token, preferring the current key.
func (p *Prefs) Token(ctx context.Context, chatID int64) (string, error) {
	for _, key := range []string{KeyToken, KeyLegacyToken} {
		v, ok, err := p.store.Get(ctx, chatID, key)
		if err != nil {
			return "", err
		}
		if ok && v != "" {
			return v, nil
		}
	}
	return "", nil
}

// SetToken writes token under both keys.
func (p *Prefs) SetToken(ctx context.Context, chatID int64, token string) error {
	if err := p.store.Set(ctx, chatID, KeyToken, token); err != nil {
		return err
	}
	return p.store.Set(ctx, chatID, KeyLegacyToken, token)
}

// ClearSession removes both token keys and the admin flag. Language,
// favorites and recently viewed games are kept.
func (p *Prefs) ClearSession(ctx context.Context, chatID int64) error {
	return p.store.Delete(ctx, chatID, KeyToken, KeyLegacyToken, KeyIsAdmin)
}

func (p *Prefs) IsAdmin(ctx context.Context, chatID int64) (bool, error) {
	v, ok, err := p.store.Get(ctx, chatID, KeyIsAdmin)
	if err != nil || !ok {
		return false, err
	}
	b, _ := strconv.ParseBool(v)
	return b, nil
}

func (p *Prefs) SetAdmin(ctx context.Context, chatID int64, admin bool) error {
	if !admin {
		return p.store.Delete(ctx, chatID, KeyIsAdmin)
	}
	return p.store.Set(ctx, chatID, KeyIsAdmin, "true")
}

func (p *Prefs) Language(ctx context.Context, chatID int64) (string, error) {
	v, _, err := p.store.Get(ctx, chatID, KeyLanguage)
	return v, err
}

func (p *Prefs) SetLanguage(ctx context.Context, chatID int64, lang string) error {
	return p.store.Set(ctx, chatID, KeyLanguage, lang)
}

// Favorites returns favorited game ids in the order they were added.
func (p *Prefs) Favorites(ctx context.Context, chatID int64) ([]string, error) {
	return p.list(ctx, chatID, KeyFavorites)
}

// ToggleFavorite adds or removes id and reports whether it is now a favorite.
func (p *Prefs) ToggleFavorite(ctx context.Context, chatID int64, id string) (bool, error) {
	favs, err := p.Favorites(ctx, chatID)
	if err != nil {
		return false, err
	}

	if i := slices.Index(favs, id); i >= 0 {
		favs = slices.Delete(favs, i, i+1)
		return false, p.setList(ctx, chatID, KeyFavorites, favs)
	}
	return true, p.setList(ctx, chatID, KeyFavorites, append(favs, id))
}

// Recent returns recently viewed game ids, most recent first.
func (p *Prefs) Recent(ctx context.Context, chatID int64) ([]string, error) {
	return p.list(ctx, chatID, KeyRecentlyViewed)
}

// MarkViewed moves id to the front of the recently viewed list.
func (p *Prefs) MarkViewed(ctx context.Context, chatID int64, id string) error {
	recent, err := p.Recent(ctx, chatID)
	if err != nil {
		return err
	}

	recent = slices.DeleteFunc(recent, func(v string) bool { return v == id })
	recent = append([]string{id}, recent...)
	if len(recent) > MaxRecent {
		recent = recent[:MaxRecent]
	}
	return p.setList(ctx, chatID, KeyRecentlyViewed, recent)
}

// CatalogView returns the serialized filters of the last catalog screen.
func (p *Prefs) CatalogView(ctx context.Context, chatID int64) (string, error) {
	v, _, err := p.store.Get(ctx, chatID, KeyCatalogView)
	return v, err
}

func (p *Prefs) SetCatalogView(ctx context.Context, chatID int64, view string) error {
	return p.store.Set(ctx, chatID, KeyCatalogView, view)
}

// list decodes a JSON array value. Corrupt values read as empty.
func (p *Prefs) list(ctx context.Context, chatID int64, key string) ([]string, error) {
	v, ok, err := p.store.Get(ctx, chatID, key)
	if err != nil || !ok || v == "" {
		return []string{}, err
	}

	var out []string
	if err := json.Unmarshal([]byte(v), &out); err != nil {
		return []string{}, nil
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

func (p *Prefs) setList(ctx context.Context, chatID int64, key string, values []string) error {
	if values == nil {
		values = []string{}
	}
	payload, err := json.Marshal(values)
	if err != nil {
		return err
	}
	return p.store.Set(ctx, chatID, key, string(payload))
}
