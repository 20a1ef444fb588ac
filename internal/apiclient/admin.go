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

// AdminUsers lists accounts, optionally filtered by a search string.
func (c *Client) AdminUsers(ctx context.Context, token, search string, page int) ([]domain.User, error) {
	q := url.Values{}
	if search != "" {
		q.Set("search", search)
	}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	return getList[domain.User](ctx, c, request{name: "admin.users", method: http.MethodGet, path: "/api/admin/users", token: token, auth: true, query: q})
}

// AdminSetUserStatus blocks or unblocks an account.
func (c *Client) AdminSetUserStatus(ctx context.Context, token string, userID int64, status string) error {
	return c.do(ctx, request{
		name:   "admin.users.status",
		method: http.MethodPut,
		path:   "/api/admin/users/" + strconv.FormatInt(userID, 10) + "/status",
		token:  token,
		auth:   true,
		body:   map[string]string{"status": status},
	}, nil)
}

func (c *Client) AdminBonuses(ctx context.Context, token string) ([]domain.Bonus, error) {
	return getList[domain.Bonus](ctx, c, request{name: "admin.bonuses", method: http.MethodGet, path: "/api/admin/bonuses", token: token, auth: true})
}

// AdminCreateBonus submits a new campaign and returns it as stored by the backend.
func (c *Client) AdminCreateBonus(ctx context.Context, token string, b domain.Bonus) (domain.Bonus, error) {
	var raw json.RawMessage
	if err := c.do(ctx, request{name: "admin.bonuses.create", method: http.MethodPost, path: "/api/admin/bonuses", token: token, auth: true, body: b}, &raw); err != nil {
		return domain.Bonus{}, err
	}
	created, err := decodeObject[domain.Bonus](raw, "bonus")
	if err != nil {
		return domain.Bonus{}, apperrors.NewTransportError("admin.bonuses.create", err)
	}
	return created, nil
}

// AdminToggleBonus enables or disables a campaign.
func (c *Client) AdminToggleBonus(ctx context.Context, token, bonusID string, active bool) error {
	return c.do(ctx, request{
		name:   "admin.bonuses.toggle",
		method: http.MethodPatch,
		path:   "/api/admin/bonuses/" + url.PathEscape(bonusID),
		token:  token,
		auth:   true,
		body:   map[string]bool{"isActive": active},
	}, nil)
}

func (c *Client) AdminTransactions(ctx context.Context, token string, f TransactionFilter) ([]domain.Transaction, error) {
	return getList[domain.Transaction](ctx, c, request{name: "admin.transactions", method: http.MethodGet, path: "/api/admin/transactions", token: token, auth: true, query: f.values()})
}

// AdminReviewTransaction approves or rejects a pending transaction.
func (c *Client) AdminReviewTransaction(ctx context.Context, token, txID string, decision domain.ReviewDecision, note string) error {
	return c.do(ctx, request{
		name:   "admin.transactions.review",
		method: http.MethodPost,
		path:   "/api/admin/transactions/" + url.PathEscape(txID) + "/review",
		token:  token,
		auth:   true,
		body:   map[string]string{"decision": string(decision), "note": note},
	}, nil)
}

func (c *Client) AdminContent(ctx context.Context, token string) ([]domain.ContentItem, error) {
	return getList[domain.ContentItem](ctx, c, request{name: "admin.content", method: http.MethodGet, path: "/api/admin/content", token: token, auth: true})
}

// AdminPublishContent publishes or unpublishes a CMS entry.
func (c *Client) AdminPublishContent(ctx context.Context, token, contentID string, published bool) error {
	return c.do(ctx, request{
		name:   "admin.content.publish",
		method: http.MethodPatch,
		path:   "/api/admin/content/" + url.PathEscape(contentID),
		token:  token,
		auth:   true,
		body:   map[string]bool{"published": published},
	}, nil)
}
