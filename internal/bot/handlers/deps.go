package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/Proton-105/spinhall-bot/internal/apiclient"
	"github.com/Proton-105/spinhall-bot/internal/bot/keyboard"
	"github.com/Proton-105/spinhall-bot/internal/domain"
	"github.com/Proton-105/spinhall-bot/internal/games"
	"github.com/Proton-105/spinhall-bot/internal/i18n"
	"github.com/Proton-105/spinhall-bot/internal/localstore"
	"github.com/Proton-105/spinhall-bot/internal/querycache"
	"github.com/Proton-105/spinhall-bot/internal/realtime"
	"github.com/Proton-105/spinhall-bot/internal/session"
	"github.com/Proton-105/spinhall-bot/internal/state"
	"github.com/Proton-105/spinhall-bot/pkg/config"
)

// Backend is the part of the API client the screens call directly.
// Authentication goes through the session manager and catalog reads go
// through the games loader.
type Backend interface {
	PaymentMethods(ctx context.Context, token string) ([]domain.PaymentMethod, error)
	CreateDeposit(ctx context.Context, token, idemKey string, req domain.DepositRequest) (domain.TransactionReceipt, error)
	CreateWithdrawal(ctx context.Context, token, idemKey string, req domain.WithdrawalRequest) (domain.TransactionReceipt, error)
	Transactions(ctx context.Context, token string, f apiclient.TransactionFilter) ([]domain.Transaction, error)
	Bonuses(ctx context.Context, token string) ([]domain.Bonus, error)
	VIPLevels(ctx context.Context, token string) ([]domain.VIPLevel, error)

	AdminUsers(ctx context.Context, token, search string, page int) ([]domain.User, error)
	AdminSetUserStatus(ctx context.Context, token string, userID int64, status string) error
	AdminBonuses(ctx context.Context, token string) ([]domain.Bonus, error)
	AdminCreateBonus(ctx context.Context, token string, b domain.Bonus) (domain.Bonus, error)
	AdminToggleBonus(ctx context.Context, token, bonusID string, active bool) error
	AdminTransactions(ctx context.Context, token string, f apiclient.TransactionFilter) ([]domain.Transaction, error)
	AdminReviewTransaction(ctx context.Context, token, txID string, decision domain.ReviewDecision, note string) error
	AdminContent(ctx context.Context, token string) ([]domain.ContentItem, error)
	AdminPublishContent(ctx context.Context, token, contentID string, published bool) error
}

var _ Backend = (*apiclient.Client)(nil)

// Deps are the services every screen may use.
type Deps struct {
	Backend  Backend
	Games    *games.Loader
	Sessions *session.Manager
	Prefs    *localstore.Prefs
	Queries  *querycache.Cache
	FSM      state.StateMachine
	I18n     *i18n.Manager
	Realtime *realtime.Center
	Keyboard *keyboard.Builder
	Catalog  config.CatalogConfig
	Log      *slog.Logger
	Now      func() time.Time
}

func (d *Deps) withDefaults() *Deps {
	if d.Log == nil {
		d.Log = slog.Default()
	}
	if d.Keyboard == nil {
		d.Keyboard = keyboard.NewBuilder(d.Log)
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Realtime == nil {
		d.Realtime = realtime.NewCenter(nil, d.Log)
	}
	if d.Catalog.PageSize <= 0 {
		d.Catalog.PageSize = 8
	}
	return d
}
