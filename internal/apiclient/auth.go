package apiclient

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Proton-105/spinhall-bot/internal/domain"
	apperrors "github.com/Proton-105/spinhall-bot/internal/errors"
)

// Login exchanges credentials for a user and bearer token.
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (domain.AuthResult, error) {
	return c.authenticate(ctx, "auth.login", "/api/auth/login", creds)
}

// Register creates an account and returns it with a bearer token.
func (c *Client) Register(ctx context.Context, reg domain.Registration) (domain.AuthResult, error) {
	return c.authenticate(ctx, "auth.register", "/api/auth/register", reg)
}

func (c *Client) authenticate(ctx context.Context, name, path string, body any) (domain.AuthResult, error) {
	var res domain.AuthResult
	if err := c.do(ctx, request{name: name, method: http.MethodPost, path: path, body: body}, &res); err != nil {
		return domain.AuthResult{}, err
	}
	if res.Token == "" {
		return domain.AuthResult{}, apperrors.NewTransportError(name, errMissingToken)
	}
	return res, nil
}

// Me returns the account behind token.
func (c *Client) Me(ctx context.Context, token string) (domain.User, error) {
	var raw json.RawMessage
	if err := c.do(ctx, request{name: "auth.me", method: http.MethodGet, path: "/api/auth/me", token: token, auth: true}, &raw); err != nil {
		return domain.User{}, err
	}
	return decodeUser("auth.me", raw)
}

// UpdateProfile saves profile fields and returns the updated user.
func (c *Client) UpdateProfile(ctx context.Context, token string, upd domain.ProfileUpdate) (domain.User, error) {
	var raw json.RawMessage
	req := request{name: "auth.profile", method: http.MethodPut, path: "/api/auth/profile", token: token, auth: true, body: upd}
	if err := c.do(ctx, req, &raw); err != nil {
		return domain.User{}, err
	}
	return decodeUser("auth.profile", raw)
}

// Logout tells the backend to drop the token.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, request{name: "auth.logout", method: http.MethodPost, path: "/api/auth/logout", token: token, auth: true}, nil)
}

func decodeUser(name string, raw json.RawMessage) (domain.User, error) {
	user, err := decodeObject[domain.User](raw, "user")
	if err != nil {
		return domain.User{}, apperrors.NewTransportError(name, err)
	}
	return user, nil
}
