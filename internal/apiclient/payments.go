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

// IdempotencyHeader lets the backend drop a duplicated create request.
const IdempotencyHeader = "Idempotency-Key"

// TransactionFilter narrows transaction listings.
type TransactionFilter struct {
	Type    domain.TransactionType
	Status  domain.TransactionStatus
	Page    int
	PerPage int
}

func (f TransactionFilter) values() url.Values {
	v := url.Values{}
	if f.Type != "" {
		v.Set("type", string(f.Type))
	}
	if f.Status != "" {
		v.Set("status", string(f.Status))
	}
	if f.Page > 0 {
		v.Set("page", strconv.Itoa(f.Page))
	}
	if f.PerPage > 0 {
		v.Set("perPage", strconv.Itoa(f.PerPage))
	}
	return v
}

func (c *Client) PaymentMethods(ctx context.Context, token string) ([]domain.PaymentMethod, error) {
	return getList[domain.PaymentMethod](ctx, c, request{name: "payment.methods", method: http.MethodGet, path: "/api/payment/methods", token: token, auth: true})
}

// CreateDeposit submits a deposit request. idemKey may be empty.
func (c *Client) CreateDeposit(ctx context.Context, token, idemKey string, req domain.DepositRequest) (domain.TransactionReceipt, error) {
	return c.createTransaction(ctx, request{
		name:   "deposits.create",
		method: http.MethodPost,
		path:   "/api/professional-deposits/create",
		token:  token,
		auth:   true,
		body:   req,
	}, idemKey)
}

// CreateWithdrawal submits a withdrawal request. idemKey may be empty.
func (c *Client) CreateWithdrawal(ctx context.Context, token, idemKey string, req domain.WithdrawalRequest) (domain.TransactionReceipt, error) {
	return c.createTransaction(ctx, request{
		name:   "withdrawals.create",
		method: http.MethodPost,
		path:   "/api/professional-withdrawals/create",
		token:  token,
		auth:   true,
		body:   req,
	}, idemKey)
}

func (c *Client) createTransaction(ctx context.Context, req request, idemKey string) (domain.TransactionReceipt, error) {
	if idemKey != "" {
		req.headers = map[string]string{IdempotencyHeader: idemKey}
	}

	var raw json.RawMessage
	if err := c.do(ctx, req, &raw); err != nil {
		return domain.TransactionReceipt{}, err
	}

	receipt, err := decodeObject[domain.TransactionReceipt](raw, "transaction")
	if err != nil {
		return domain.TransactionReceipt{}, apperrors.NewTransportError(req.name, err)
	}
	if receipt.TransactionID == "" {
		var alt struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(raw, &alt); err == nil {
			receipt.TransactionID = alt.ID
		}
	}
	if receipt.Status == "" {
		receipt.Status = domain.StatusPending
	}
	return receipt, nil
}

func (c *Client) Transactions(ctx context.Context, token string, f TransactionFilter) ([]domain.Transaction, error) {
	return getList[domain.Transaction](ctx, c, request{name: "user.transactions", method: http.MethodGet, path: "/api/user/transactions", token: token, auth: true, query: f.values()})
}

func (c *Client) Bonuses(ctx context.Context, token string) ([]domain.Bonus, error) {
	return getList[domain.Bonus](ctx, c, request{name: "bonuses", method: http.MethodGet, path: "/api/bonuses", token: token, auth: true})
}

func (c *Client) VIPLevels(ctx context.Context, token string) ([]domain.VIPLevel, error) {
	return getList[domain.VIPLevel](ctx, c, request{name: "vip.levels", method: http.MethodGet, path: "/api/vip/levels", token: token, auth: true})
}

func getList[T any](ctx context.Context, c *Client, req request) ([]T, error) {
	var raw json.RawMessage
	if err := c.do(ctx, req, &raw); err != nil {
		return nil, err
	}
	items, err := decodeList[T](raw)
	if err != nil {
		return nil, apperrors.NewTransportError(req.name, err)
	}
	return items, nil
}
