// Package apiclient talks to the casino backend REST API. Every call is a
// single attempt: failures are returned to the caller as *errors.AppError and
// never retried here.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	apperrors "github.com/Proton-105/spinhall-bot/internal/errors"
	"github.com/Proton-105/spinhall-bot/pkg/config"
	"github.com/Proton-105/spinhall-bot/pkg/logger"
	"github.com/Proton-105/spinhall-bot/pkg/metrics"
)

const maxErrorBody = 64 << 10

// Client is safe for concurrent use.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *apperrors.CircuitBreaker
	log        *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBreaker replaces the default circuit breaker.
func WithBreaker(cb *apperrors.CircuitBreaker) Option {
	return func(c *Client) { c.breaker = cb }
}

// New builds a client for cfg.BaseURL.
func New(cfg config.APIConfig, log *slog.Logger, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	limit := rate.Inf
	if cfg.RequestsPerSec > 0 {
		limit = rate.Limit(cfg.RequestsPerSec)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	c := &Client{
		baseURL:    base,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, burst),
		breaker:    apperrors.NewCircuitBreaker(countsAgainstBackend),
		log:        log.With(slog.String("component", "apiclient")),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BreakerState exposes the circuit state for health checks.
func (c *Client) BreakerState() apperrors.State {
	return c.breaker.State()
}

// countsAgainstBackend trips the breaker only for failures that say something
// about backend health: transport errors and 5xx.
func countsAgainstBackend(err error) bool {
	appErr, ok := apperrors.As(err)
	if !ok {
		return err != nil
	}
	return appErr.Retryable
}

type request struct {
	name    string
	method  string
	path    string
	token   string
	auth    bool
	query   url.Values
	body    any
	headers map[string]string
}

// do performs one request. out may be nil, a pointer to decode into, or a
// *json.RawMessage for callers that decode themselves.
func (c *Client) do(ctx context.Context, req request, out any) error {
	if req.auth && req.token == "" {
		return apperrors.NewUnauthorizedError(req.name)
	}

	err := c.breaker.Call(func() error {
		return c.roundTrip(ctx, req, out)
	})
	switch {
	case stdErrors.Is(err, apperrors.ErrCircuitOpen), stdErrors.Is(err, apperrors.ErrHalfOpenTooManyRequests):
		return apperrors.NewCircuitOpenError(err)
	default:
		return err
	}
}

func (c *Client) roundTrip(ctx context.Context, req request, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return apperrors.NewTransportError(req.name, err)
	}

	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return fmt.Errorf("build request %s: %w", req.name, err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		metrics.RecordAPIRequest(req.name, "transport", time.Since(start))
		c.log.Warn("backend request failed", slog.String("endpoint", req.name), slog.Any("error", err))
		return apperrors.NewTransportError(req.name, err)
	}
	defer resp.Body.Close()

	metrics.RecordAPIRequest(req.name, statusClass(resp.StatusCode), time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.log.Debug("backend returned error status",
			slog.String("endpoint", req.name),
			slog.Int("status", resp.StatusCode),
		)
		return apperrors.NewHTTPError(req.name, resp.StatusCode, serverMessage(body))
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !stdErrors.Is(err, io.EOF) {
		return apperrors.NewTransportError(req.name, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, req request) (*http.Request, error) {
	u := *c.baseURL
	u.Path = strings.TrimRight(c.baseURL.Path, "/") + req.path
	if len(req.query) > 0 {
		u.RawQuery = req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u.String(), body)
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Accept", "application/json")
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		httpReq.Header.Set(logger.CorrelationHeader, id)
	}
	for k, v := range req.headers {
		httpReq.Header.Set(k, v)
	}
	return httpReq, nil
}

// serverMessage extracts {"message": ...} or {"error": ...} from an error body.
// Non-JSON bodies such as HTML error pages yield "".
func serverMessage(body []byte) string {
	var payload struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}

	var msg string
	if err := json.Unmarshal(payload.Error, &msg); err == nil {
		return msg
	}
	var nested struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload.Error, &nested); err == nil {
		return nested.Message
	}
	return ""
}

func statusClass(code int) string {
	return fmt.Sprintf("%dxx", code/100)
}

// Ping checks that the backend answers at all. Any HTTP response counts as up.
func (c *Client) Ping(ctx context.Context) error {
	err := c.do(ctx, request{name: "health", method: http.MethodGet, path: "/api/health"}, nil)
	if appErr, ok := apperrors.As(err); ok && appErr.Code == apperrors.CodeHTTPStatus && appErr.Status < 500 {
		return nil
	}
	return err
}
