// Package session is the signed-in state of a chat: token, admin flag and
// the cached user. All writes go through Login, Register, Logout, Refresh,
// UpdateProfile and HandleUnauthorized.
package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	passwordvalidator "github.com/wagslane/go-password-validator"

	"github.com/Proton-105/spinhall-bot/internal/domain"
	apperrors "github.com/Proton-105/spinhall-bot/internal/errors"
	"github.com/Proton-105/spinhall-bot/internal/localstore"
)

// MinPasswordEntropy is the registration password strength floor in bits.
const MinPasswordEntropy = 50

// API is the slice of the backend client the session needs.
type API interface {
	Login(ctx context.Context, creds domain.Credentials) (domain.AuthResult, error)
	Register(ctx context.Context, reg domain.Registration) (domain.AuthResult, error)
	Me(ctx context.Context, token string) (domain.User, error)
	UpdateProfile(ctx context.Context, token string, upd domain.ProfileUpdate) (domain.User, error)
	Logout(ctx context.Context, token string) error
}

// Session is a read-only snapshot.
type Session struct {
	ChatID  int64
	Token   string
	User    *domain.User
	IsAdmin bool
}

type Manager struct {
	api      API
	prefs    *localstore.Prefs
	cache    *ProfileCache
	validate *validator.Validate
	log      *slog.Logger
}

func NewManager(api API, prefs *localstore.Prefs, cache *ProfileCache, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		api:      api,
		prefs:    prefs,
		cache:    cache,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log.With(slog.String("component", "session")),
	}
}

type loginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// Login signs the chat in and stores the token under both keys.
func (m *Manager) Login(ctx context.Context, chatID int64, creds domain.Credentials) (*Session, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	if err := m.validate.Struct(loginForm{Email: creds.Email, Password: creds.Password}); err != nil {
		return nil, fieldError(err)
	}

	res, err := m.api.Login(ctx, creds)
	if err != nil {
		if apperrors.IsUnauthorized(err) {
			return nil, apperrors.NewFieldError("errors.invalid_credentials", "invalid e-mail or password", nil)
		}
		return nil, err
	}
	return m.establish(ctx, chatID, res)
}

type registrationForm struct {
	Email    string `validate:"required,email"`
	Username string `validate:"required,min=3,max=32,alphanum"`
	Password string `validate:"required,min=8"`
}

// Register creates the account and signs the chat in. Weak passwords are
// rejected before any request is sent.
func (m *Manager) Register(ctx context.Context, chatID int64, reg domain.Registration) (*Session, error) {
	reg.Email = strings.TrimSpace(reg.Email)
	reg.Username = strings.TrimSpace(reg.Username)
	if err := m.validate.Struct(registrationForm{Email: reg.Email, Username: reg.Username, Password: reg.Password}); err != nil {
		return nil, fieldError(err)
	}
	if err := ValidatePassword(reg.Password); err != nil {
		return nil, err
	}

	res, err := m.api.Register(ctx, reg)
	if err != nil {
		return nil, err
	}
	return m.establish(ctx, chatID, res)
}

// ValidatePassword applies the registration strength rule.
func ValidatePassword(pw string) error {
	if err := passwordvalidator.Validate(pw, MinPasswordEntropy); err != nil {
		return apperrors.NewFieldError("errors.weak_password", err.Error(), nil)
	}
	return nil
}

func (m *Manager) establish(ctx context.Context, chatID int64, res domain.AuthResult) (*Session, error) {
	if err := m.prefs.SetToken(ctx, chatID, res.Token); err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	if err := m.prefs.SetAdmin(ctx, chatID, res.User.IsAdmin); err != nil {
		return nil, apperrors.NewStorageError(err)
	}

	user := res.User
	if err := m.cache.Set(ctx, chatID, &user, res.Token); err != nil {
		m.log.Warn("failed to cache profile", slog.Int64("chat_id", chatID), slog.Any("error", err))
	}

	m.log.Info("session established", slog.Int64("chat_id", chatID), slog.Int64("user_id", user.ID))
	return &Session{ChatID: chatID, Token: res.Token, User: &user, IsAdmin: user.IsAdmin}, nil
}

// Logout notifies the backend when possible and always clears local state.
func (m *Manager) Logout(ctx context.Context, chatID int64) error {
	token, err := m.prefs.Token(ctx, chatID)
	if err != nil {
		return apperrors.NewStorageError(err)
	}
	if token != "" {
		if err := m.api.Logout(ctx, token); err != nil && !apperrors.IsUnauthorized(err) {
			m.log.Warn("backend logout failed", slog.Int64("chat_id", chatID), slog.Any("error", err))
		}
	}
	return m.teardown(ctx, chatID)
}

// HandleUnauthorized tears the session down after a 401.
func (m *Manager) HandleUnauthorized(ctx context.Context, chatID int64) error {
	m.log.Info("session expired", slog.Int64("chat_id", chatID))
	return m.teardown(ctx, chatID)
}

func (m *Manager) teardown(ctx context.Context, chatID int64) error {
	if err := m.cache.Invalidate(ctx, chatID); err != nil {
		m.log.Warn("failed to drop cached profile", slog.Int64("chat_id", chatID), slog.Any("error", err))
	}
	if err := m.prefs.ClearSession(ctx, chatID); err != nil {
		return apperrors.NewStorageError(err)
	}
	return nil
}

// Token returns the stored token or "".
func (m *Manager) Token(ctx context.Context, chatID int64) (string, error) {
	token, err := m.prefs.Token(ctx, chatID)
	if err != nil {
		return "", apperrors.NewStorageError(err)
	}
	return token, nil
}

// IsAdmin reports whether the chat holds both a token and the admin flag.
func (m *Manager) IsAdmin(ctx context.Context, chatID int64) (bool, error) {
	token, err := m.Token(ctx, chatID)
	if err != nil || token == "" {
		return false, err
	}
	admin, err := m.prefs.IsAdmin(ctx, chatID)
	if err != nil {
		return false, apperrors.NewStorageError(err)
	}
	return admin, nil
}

// Current returns the session, serving the cached user when present. It
// returns nil without error when the chat is signed out.
func (m *Manager) Current(ctx context.Context, chatID int64) (*Session, error) {
	token, err := m.Token(ctx, chatID)
	if err != nil || token == "" {
		return nil, err
	}

	user, err := m.cache.Get(ctx, chatID)
	if err != nil {
		m.log.Warn("failed to read cached profile", slog.Int64("chat_id", chatID), slog.Any("error", err))
	}
	if user == nil {
		return m.Refresh(ctx, chatID)
	}

	admin, err := m.prefs.IsAdmin(ctx, chatID)
	if err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	return &Session{ChatID: chatID, Token: token, User: user, IsAdmin: admin}, nil
}

// Refresh reloads the user from the backend. A 401 tears the session down
// and is returned to the caller.
func (m *Manager) Refresh(ctx context.Context, chatID int64) (*Session, error) {
	var user domain.User
	token, err := m.WithToken(ctx, chatID, func(token string) error {
		var err error
		user, err = m.api.Me(ctx, token)
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := m.prefs.SetAdmin(ctx, chatID, user.IsAdmin); err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	if err := m.cache.Set(ctx, chatID, &user, token); err != nil {
		m.log.Warn("failed to cache profile", slog.Int64("chat_id", chatID), slog.Any("error", err))
	}
	return &Session{ChatID: chatID, Token: token, User: &user, IsAdmin: user.IsAdmin}, nil
}

// UpdateProfile saves profile fields and refreshes the cached copy.
func (m *Manager) UpdateProfile(ctx context.Context, chatID int64, upd domain.ProfileUpdate) (*domain.User, error) {
	var user domain.User
	token, err := m.WithToken(ctx, chatID, func(token string) error {
		var err error
		user, err = m.api.UpdateProfile(ctx, token, upd)
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := m.cache.Set(ctx, chatID, &user, token); err != nil {
		m.log.Warn("failed to cache profile", slog.Int64("chat_id", chatID), slog.Any("error", err))
	}
	return &user, nil
}

// WithToken runs fn with the chat's token. A missing token yields an
// unauthorized error without calling fn; a 401 from fn tears the session down.
func (m *Manager) WithToken(ctx context.Context, chatID int64, fn func(token string) error) (string, error) {
	token, err := m.Token(ctx, chatID)
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", apperrors.NewUnauthorizedError("session")
	}

	if err := fn(token); err != nil {
		if apperrors.IsUnauthorized(err) {
			if tErr := m.HandleUnauthorized(ctx, chatID); tErr != nil {
				m.log.Error("failed to tear down session", slog.Int64("chat_id", chatID), slog.Any("error", tErr))
			}
		}
		return token, err
	}
	return token, nil
}

func fieldError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		key := "errors.field." + strings.ToLower(fe.Field())
		return apperrors.NewFieldError(key, fe.Error(), map[string]string{"Field": fe.Field(), "Rule": fe.Tag()})
	}
	return apperrors.NewValidationError(err.Error())
}
