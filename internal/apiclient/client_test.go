package apiclient

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/spinhall-bot/internal/domain"
	apperrors "github.com/Proton-105/spinhall-bot/internal/errors"
	"github.com/Proton-105/spinhall-bot/pkg/config"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(config.APIConfig{BaseURL: srv.URL, Timeout: 2 * time.Second}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return c, srv
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_LoginThenAuthenticatedRequest(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		var creds domain.Credentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		assert.Equal(t, "player@example.com", creds.Email)
		writeJSON(w, http.StatusOK, map[string]any{
			"user":  map[string]any{"id": 7, "username": "player", "balance": "125.50"},
			"token": "tok-123",
		})
	})
	mux.HandleFunc("GET /api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]any{"user": map[string]any{"id": 7, "username": "player", "vipLevel": 2}})
	})
	c, _ := newTestClient(t, mux)
	ctx := context.Background()

	res, err := c.Login(ctx, domain.Credentials{Email: "player@example.com", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "tok-123", res.Token)
	assert.True(t, decimal.RequireFromString("125.5").Equal(res.User.Balance))

	me, err := c.Me(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), me.ID)
	assert.Equal(t, 2, me.VIPLevel)
}

func TestClient_LoginWithoutTokenFails(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"user": map[string]any{"id": 1}})
	}))

	_, err := c.Login(context.Background(), domain.Credentials{Email: "a@b.c", Password: "x"})
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeTransport, appErr.Code)
}

func TestClient_ErrorTaxonomy(t *testing.T) {
	testCases := []struct {
		name        string
		status      int
		contentType string
		body        string
		wantCode    string
		wantKey     string
		wantUserMsg string
	}{
		{
			name:        "json message",
			status:      http.StatusBadRequest,
			contentType: "application/json",
			body:        `{"message":"Amount exceeds limit"}`,
			wantCode:    apperrors.CodeHTTPStatus,
			wantKey:     "errors.server_message",
			wantUserMsg: "Amount exceeds limit",
		},
		{
			name:        "json error field",
			status:      http.StatusUnprocessableEntity,
			contentType: "application/json",
			body:        `{"error":"Email already registered"}`,
			wantCode:    apperrors.CodeHTTPStatus,
			wantKey:     "errors.server_message",
			wantUserMsg: "Email already registered",
		},
		{
			name:        "html error page",
			status:      http.StatusBadGateway,
			contentType: "text/html",
			body:        `<html><body>Bad gateway</body></html>`,
			wantCode:    apperrors.CodeHTTPStatus,
			wantKey:     "errors.server_status",
			wantUserMsg: "Server error (502)",
		},
		{
			name:        "unauthorized",
			status:      http.StatusUnauthorized,
			contentType: "application/json",
			body:        `{"message":"token expired"}`,
			wantCode:    apperrors.CodeUnauthorized,
			wantKey:     "errors.session_expired",
		},
		{
			name:        "forbidden",
			status:      http.StatusForbidden,
			contentType: "application/json",
			body:        `{}`,
			wantCode:    apperrors.CodeForbidden,
			wantKey:     "errors.forbidden",
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tc.contentType)
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			}))

			_, err := c.Me(context.Background(), "tok")
			appErr, ok := apperrors.As(err)
			require.True(t, ok, "got %v", err)
			assert.Equal(t, tc.wantCode, appErr.Code)
			assert.Equal(t, tc.wantKey, appErr.MessageKey)
			if tc.wantUserMsg != "" {
				assert.Equal(t, tc.wantUserMsg, appErr.UserMessage)
			}
			assert.Equal(t, tc.status == http.StatusUnauthorized, apperrors.IsUnauthorized(err))
		})
	}
}

func TestClient_NoTokenSkipsNetwork(t *testing.T) {
	var hits atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))

	_, err := c.PaymentMethods(context.Background(), "")
	assert.True(t, apperrors.IsUnauthorized(err))
	assert.Zero(t, hits.Load())
}

func TestClient_TransportError(t *testing.T) {
	c, srv := newTestClient(t, http.NotFoundHandler())
	srv.Close()

	_, err := c.FastSlots(context.Background(), GameQuery{})
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeTransport, appErr.Code)
	assert.Equal(t, "errors.request_failed", appErr.MessageKey)
}

func TestClient_DoesNotRetry(t *testing.T) {
	var hits atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := c.Bonuses(context.Background(), "tok")
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestClient_CircuitOpensOnServerErrors(t *testing.T) {
	var hits atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	ctx := context.Background()

	for i := 0; i < apperrors.MinRequests; i++ {
		_, _ = c.FastSlots(ctx, GameQuery{})
	}
	assert.Equal(t, apperrors.StateOpen, c.BreakerState())

	_, err := c.FastSlots(ctx, GameQuery{})
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeCircuitOpen, appErr.Code)
	assert.Equal(t, int32(apperrors.MinRequests), hits.Load())
}

func TestClient_ClientErrorsDoNotTripCircuit(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "bad"})
	}))

	for i := 0; i < 2*apperrors.MinRequests; i++ {
		_, _ = c.Transactions(context.Background(), "tok", TransactionFilter{})
	}
	assert.Equal(t, apperrors.StateClosed, c.BreakerState())
}

func TestClient_GamesQueryAndEnvelope(t *testing.T) {
	testCases := []struct {
		name      string
		body      any
		wantTotal int
	}{
		{
			name:      "bare array",
			body:      []map[string]any{{"id": "1", "name": "Sweet Bonanza"}, {"id": "2", "name": "Book of Dead"}},
			wantTotal: 2,
		},
		{
			name: "paginated envelope",
			body: map[string]any{
				"games": []map[string]any{{"id": "1", "name": "Sweet Bonanza"}, {"id": "2", "name": "Book of Dead"}},
				"total": 120, "page": 2, "perPage": 2,
			},
			wantTotal: 120,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/slotegrator/games/slots", r.URL.Path)
				assert.Equal(t, "2", r.URL.Query().Get("page"))
				assert.Equal(t, "Pragmatic Play", r.URL.Query().Get("provider"))
				assert.Equal(t, "mobile", r.URL.Query().Get("device"))
				writeJSON(w, http.StatusOK, tc.body)
			}))

			page, err := c.SlotegratorGames(context.Background(), KindSlots, GameQuery{Page: 2, PerPage: 2, Provider: "Pragmatic Play", Device: "mobile"})
			require.NoError(t, err)
			require.Len(t, page.Games, 2)
			assert.Equal(t, "Sweet Bonanza", page.Games[0].Name)
			assert.Equal(t, tc.wantTotal, page.Total)
		})
	}
}

func TestClient_CreateWithdrawalSendsIdempotencyKey(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/professional-withdrawals/create", r.URL.Path)
		assert.Equal(t, "key-1", r.Header.Get(IdempotencyHeader))

		var req domain.WithdrawalRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "4111111111111111", req.AccountDetails["cardNumber"])
		assert.True(t, decimal.NewFromInt(500).Equal(req.Amount))

		writeJSON(w, http.StatusCreated, map[string]any{"id": "tx-9"})
	}))

	receipt, err := c.CreateWithdrawal(context.Background(), "tok", "key-1", domain.WithdrawalRequest{
		Amount:         decimal.NewFromInt(500),
		Method:         "visa",
		AccountDetails: map[string]string{"cardNumber": "4111111111111111"},
	})
	require.NoError(t, err)
	assert.Equal(t, "tx-9", receipt.TransactionID)
	assert.Equal(t, domain.StatusPending, receipt.Status)
}

func TestClient_AdminEndpoints(t *testing.T) {
	var seen []string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Method+" "+r.URL.Path)
		switch r.URL.Path {
		case "/api/admin/users":
			writeJSON(w, http.StatusOK, map[string]any{"users": []map[string]any{{"id": 3, "email": "x@y.z"}}})
		case "/api/admin/bonuses":
			writeJSON(w, http.StatusOK, map[string]any{"bonus": map[string]any{"id": "b1", "name": "Welcome"}})
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	ctx := context.Background()

	users, err := c.AdminUsers(ctx, "tok", "x@", 1)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, int64(3), users[0].ID)

	created, err := c.AdminCreateBonus(ctx, "tok", domain.Bonus{Name: "Welcome"})
	require.NoError(t, err)
	assert.Equal(t, "b1", created.ID)

	require.NoError(t, c.AdminSetUserStatus(ctx, "tok", 3, domain.UserStatusBlocked))
	require.NoError(t, c.AdminToggleBonus(ctx, "tok", "b1", false))
	require.NoError(t, c.AdminReviewTransaction(ctx, "tok", "tx-1", domain.DecisionApprove, ""))
	require.NoError(t, c.AdminPublishContent(ctx, "tok", "c1", true))

	assert.Equal(t, []string{
		"GET /api/admin/users",
		"POST /api/admin/bonuses",
		"PUT /api/admin/users/3/status",
		"PATCH /api/admin/bonuses/b1",
		"POST /api/admin/transactions/tx-1/review",
		"PATCH /api/admin/content/c1",
	}, seen)
}

func TestClient_Ping(t *testing.T) {
	c, _ := newTestClient(t, http.NotFoundHandler())
	assert.NoError(t, c.Ping(context.Background()))
}
