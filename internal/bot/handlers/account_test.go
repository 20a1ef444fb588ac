package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/spinhall-bot/internal/bot/bottest"
	"github.com/Proton-105/spinhall-bot/internal/domain"
	apperrors "github.com/Proton-105/spinhall-bot/internal/errors"
	"github.com/Proton-105/spinhall-bot/internal/state"
)

const accountChat int64 = 7

func TestLoginFlow(t *testing.T) {
	f := newFixture(t)
	h := NewAccount(f.deps)
	ctx := context.Background()

	start := bottest.Text(accountChat, "/login")
	require.NoError(t, h.Login()(start))
	assert.Equal(t, "login.email_prompt", start.Last())
	assert.Equal(t, state.StateLoginEmail, f.currentState(t, accountChat))

	bad := bottest.Text(accountChat, "not-an-email")
	require.NoError(t, h.LoginEmail()(bad))
	assert.Equal(t, "Enter a valid e-mail", bad.Last())
	assert.Equal(t, state.StateLoginEmail, f.currentState(t, accountChat))

	require.NoError(t, h.LoginEmail()(bottest.Text(accountChat, " ann@example.com ")))
	assert.Equal(t, state.StateLoginPassword, f.currentState(t, accountChat))

	creds := domain.Credentials{Email: "ann@example.com", Password: "wrong"}
	f.auth.On("Login", mock.Anything, creds).Return(domain.AuthResult{}, apperrors.NewUnauthorizedError("/api/auth/login")).Once()

	wrong := bottest.Text(accountChat, "wrong")
	require.NoError(t, h.LoginPassword()(wrong))
	assert.Equal(t, "Wrong e-mail or password", wrong.Last())
	assert.Equal(t, 1, wrong.Deleted(), "the password message is removed")
	assert.Equal(t, state.StateLoginPassword, f.currentState(t, accountChat))

	creds.Password = "right"
	f.auth.On("Login", mock.Anything, creds).Return(domain.AuthResult{Token: "tok", User: testUser("10", false)}, nil).Once()

	right := bottest.Text(accountChat, "right")
	require.NoError(t, h.LoginPassword()(right))
	assert.Equal(t, "login.success", right.Last())
	assert.Equal(t, state.StateIdle, f.currentState(t, accountChat))

	token, err := f.deps.Sessions.Token(ctx, accountChat)
	require.NoError(t, err)
	assert.Equal(t, "tok", token)
	f.auth.AssertExpectations(t)
}

func TestLogin_AlreadySignedIn(t *testing.T) {
	f := newFixture(t)
	f.signIn(t, accountChat, testUser("10", false))

	c := bottest.Text(accountChat, "/login")
	require.NoError(t, NewAccount(f.deps).Login()(c))
	assert.Equal(t, "login.already", c.Last())
	assert.Equal(t, state.StateIdle, f.currentState(t, accountChat))
}

func TestLogout_ClearsSessionEvenWhenBackendFails(t *testing.T) {
	f := newFixture(t)
	f.signIn(t, accountChat, testUser("10", false))
	f.auth.On("Logout", mock.Anything, "tok").Return(apperrors.NewTransportError("/api/auth/logout", assert.AnError)).Once()

	c := bottest.Text(accountChat, "/logout")
	require.NoError(t, NewAccount(f.deps).Logout()(c))
	assert.Equal(t, "logout.done", c.Last())

	token, err := f.deps.Sessions.Token(context.Background(), accountChat)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestProfile_SignedOut(t *testing.T) {
	f := newFixture(t)

	err := NewAccount(f.deps).Profile()(bottest.Text(accountChat, "/profile"))
	assert.True(t, apperrors.IsUnauthorized(err))
	f.auth.AssertNotCalled(t, "Me", mock.Anything, mock.Anything)
}

func TestCancel_ClearsFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.deps.FSM.SetState(ctx, accountChat, state.StateDepositAmount, map[string]string{"method": "bank"}))

	c := bottest.Callback(accountChat, "cancel")
	require.NoError(t, NewAccount(f.deps).Cancel()(c))

	assert.Equal(t, "cancel.done", c.Last())
	assert.Equal(t, 1, c.Deleted())
	assert.Equal(t, state.StateIdle, f.currentState(t, accountChat))
}

func TestParseProfileUpdate(t *testing.T) {
	upd, err := parseProfileUpdate("first_name: Ann\nphone: +4915112345678")
	require.NoError(t, err)
	assert.Equal(t, "Ann", upd.FirstName)
	assert.Equal(t, "+4915112345678", upd.Phone)

	_, err = parseProfileUpdate("phone: 12")
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeValidation, appErr.Code)

	_, err = parseProfileUpdate("balance: 1000000")
	require.Error(t, err)

	_, err = parseProfileUpdate("   ")
	require.Error(t, err)
}
