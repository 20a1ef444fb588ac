package bot

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/spinhall-bot/internal/bot/handlers"
	"github.com/Proton-105/spinhall-bot/internal/bot/keyboard"
	"github.com/Proton-105/spinhall-bot/internal/catalog"
	apperrors "github.com/Proton-105/spinhall-bot/internal/errors"
	"github.com/Proton-105/spinhall-bot/internal/games"
	"github.com/Proton-105/spinhall-bot/internal/i18n"
	"github.com/Proton-105/spinhall-bot/internal/idempotency"
	"github.com/Proton-105/spinhall-bot/internal/middleware"
	"github.com/Proton-105/spinhall-bot/internal/state"
	"github.com/Proton-105/spinhall-bot/pkg/config"
)

// FinancialRoutes are the routes that submit money movements.
var FinancialRoutes = []string{handlers.CallbackDepositConfirm, handlers.CallbackWithdrawConfirm}

// Options are the optional parts of the middleware chain.
type Options struct {
	ErrHandler  *apperrors.Handler
	Idempotency idempotency.Manager
	RateLimit   *middleware.RateLimitMiddleware
}

// Bot wraps telebot.Bot with the router that serves every update.
type Bot struct {
	telebot *telebot.Bot
	router  *Router
	i18n    *i18n.Manager
	log     *slog.Logger
}

// New builds a telegram bot instance configured according to the application settings.
func New(cfg config.Config, log *slog.Logger, router *Router, tr *i18n.Manager) (*Bot, error) {
	if log == nil {
		log = slog.Default()
	}

	settings := telebot.Settings{
		Token: cfg.Bot.Token,
		OnError: func(err error, c telebot.Context) {
			log.Error("telebot error", slog.Any("error", err))
		},
	}

	if cfg.Bot.Mode == "webhook" {
		settings.Poller = &telebot.Webhook{
			Listen: cfg.Bot.Webhook,
		}
	} else {
		settings.Poller = &telebot.LongPoller{
			Timeout: cfg.Bot.Timeout,
		}
	}

	tb, err := telebot.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("initialize telebot: %w", err)
	}

	b := &Bot{telebot: tb, router: router, i18n: tr, log: log}
	b.registerTelebotHandlers()
	b.publishCommands()

	return b, nil
}

// Start runs the telegram bot event loop.
func (b *Bot) Start() {
	if b.telebot != nil {
		b.telebot.Start()
	}
}

// Stop gracefully stops the telegram bot.
func (b *Bot) Stop() {
	if b.telebot == nil {
		return
	}

	b.log.Info("stopping telegram bot...")
	b.telebot.Stop()
}

// Telebot exposes the underlying telebot.Bot instance for integrations such as health checks.
func (b *Bot) Telebot() *telebot.Bot {
	return b.telebot
}

func (b *Bot) registerTelebotHandlers() {
	if b.telebot == nil || b.router == nil {
		return
	}

	b.telebot.Handle(telebot.OnText, b.router.Route)
	b.telebot.Handle(telebot.OnCallback, b.router.Route)
}

// publishCommands sets the command list for every loaded language. Failures
// only cost the autocomplete menu, so they are logged.
func (b *Bot) publishCommands() {
	if b.i18n == nil {
		return
	}

	build := func(t i18n.Translator) []telebot.Command {
		cmds := make([]telebot.Command, 0, len(menuCommands))
		for _, cmd := range menuCommands {
			name := strings.TrimPrefix(cmd, "/")
			cmds = append(cmds, telebot.Command{Text: name, Description: t.T("commands." + name)})
		}
		return cmds
	}

	if err := b.telebot.SetCommands(build(b.i18n.Translator(""))); err != nil {
		b.log.Warn("failed to set default commands", slog.Any("error", err))
	}
	for _, lang := range b.i18n.Languages() {
		if err := b.telebot.SetCommands(build(b.i18n.Translator(lang)), lang); err != nil {
			b.log.Warn("failed to set commands", slog.String("lang", lang), slog.Any("error", err))
		}
	}
}

// NewAppRouter wires every screen into a Router with the full middleware chain.
func NewAppRouter(deps *handlers.Deps, opts Options) *Router {
	account := handlers.NewAccount(deps)
	catalogScreens := handlers.NewCatalog(deps)
	promotions := handlers.NewPromotions(deps)

	// Money and back-office screens are built on first authorized use.
	auth := handlers.AuthGuard(deps)
	admin := handlers.AdminGuard(deps)
	wallet := sync.OnceValue(func() *handlers.Wallet { return handlers.NewWallet(deps) })
	backOffice := sync.OnceValue(func() *handlers.Admin { return handlers.NewAdmin(deps) })

	dispatcher := NewDispatcher(deps.FSM, deps.Log)
	router := NewRouter(dispatcher, deps.FSM, deps.Log)

	router.Use(RecoveryMiddleware(deps, opts.ErrHandler))
	router.Use(ContextMiddleware)
	router.Use(TranslatorMiddleware(deps))
	router.Use(middleware.Idempotency(opts.Idempotency, deps.Log))
	router.Use(ErrorHandlingMiddleware(deps, opts.ErrHandler))
	router.Use(LoggingMiddleware(deps.Log))
	if opts.RateLimit != nil {
		router.Use(opts.RateLimit.Handle)
	}
	router.Use(middleware.Metrics)

	router.SetDefault(account.Unknown())
	if deps.I18n != nil {
		router.AliasMenu(deps.I18n)
	}

	// Account.
	router.RegisterCommand(CommandStart, account.Start())
	router.RegisterCommand(CommandHelp, account.Help())
	router.RegisterCommand(CommandMenu, account.Menu())
	router.RegisterCommand(CommandCancel, account.Cancel())
	router.RegisterCommand(CommandLogin, account.Login())
	router.RegisterCommand(CommandRegister, account.Register())
	router.RegisterCommand(CommandLogout, account.Logout())
	router.RegisterCommand(CommandProfile, handlers.Guarded(auth, account.Profile()))
	router.RegisterCommand(CommandSettings, account.Settings())
	router.RegisterCommand(CommandNotifications, account.Notifications())
	router.RegisterCallback(keyboard.CallbackCancel, handlers.CallbackHandler(account.Cancel()))
	router.RegisterCallback(handlers.CallbackProfileRefresh, handlers.CallbackHandler(handlers.Guarded(auth, handlers.Handler(account.ProfileRefresh()))))
	router.RegisterCallback(handlers.CallbackProfileEdit, handlers.CallbackHandler(handlers.Guarded(auth, handlers.Handler(account.ProfileEdit()))))
	router.RegisterCallback(handlers.CallbackLanguage, account.SetLanguage())
	router.RegisterCallback(handlers.CallbackNotifications, account.NotificationAction())

	// Catalog.
	router.RegisterCommand(CommandSlots, catalogScreens.Browse(games.SourceSlots))
	router.RegisterCommand(CommandCasino, catalogScreens.Browse(games.SourceFast))
	router.RegisterCommand(CommandLive, catalogScreens.Browse(games.SourceLive))
	router.RegisterCommand(CommandSearch, catalogScreens.Search())
	router.RegisterCommand(CommandFavorites, catalogScreens.Category(catalog.CategoryFavorites))
	router.RegisterCommand(CommandRecent, catalogScreens.Category(catalog.CategoryRecent))
	router.RegisterCallback(handlers.CallbackCatalogPage, catalogScreens.Page())
	router.RegisterCallback(handlers.CallbackCatalogCategory, catalogScreens.ChooseCategory())
	router.RegisterCallback(handlers.CallbackCatalogProvider, catalogScreens.ChooseProvider())
	router.RegisterCallback(handlers.CallbackCatalogSort, catalogScreens.ChooseSort())
	router.RegisterCallback(handlers.CallbackCatalogSearch, catalogScreens.SearchCallback())
	router.RegisterCallback(handlers.CallbackCatalogReset, catalogScreens.Reset())
	router.RegisterCallback(handlers.CallbackCatalogBack, catalogScreens.Back())
	router.RegisterCallback(handlers.CallbackGame, catalogScreens.Game())
	router.RegisterCallback(handlers.CallbackFavorite, catalogScreens.Favorite())

	// Promotions.
	router.RegisterCommand(CommandBonuses, handlers.Guarded(auth, promotions.Bonuses()))
	router.RegisterCommand(CommandVIP, handlers.Guarded(auth, promotions.VIP()))

	// Wallet.
	router.RegisterGuarded(CommandDeposit, auth, func() handlers.Handler { return wallet().Deposit() })
	router.RegisterGuarded(CommandWithdraw, auth, func() handlers.Handler { return wallet().Withdraw() })
	router.RegisterGuarded(CommandTransactions, auth, func() handlers.Handler { return wallet().Transactions() })
	router.RegisterGuarded(CommandMethods, auth, func() handlers.Handler { return wallet().Methods() })
	router.RegisterGuardedCallback(handlers.CallbackDepositMethod, auth, func() handlers.CallbackHandler { return wallet().DepositMethod() })
	router.RegisterGuardedCallback(handlers.CallbackDepositConfirm, auth, func() handlers.CallbackHandler { return wallet().DepositConfirm() })
	router.RegisterGuardedCallback(handlers.CallbackWithdrawMethod, auth, func() handlers.CallbackHandler { return wallet().WithdrawMethod() })
	router.RegisterGuardedCallback(handlers.CallbackWithdrawConfirm, auth, func() handlers.CallbackHandler { return wallet().WithdrawConfirm() })
	router.RegisterGuardedCallback(handlers.CallbackTxPage, auth, func() handlers.CallbackHandler { return wallet().TransactionsPage() })
	router.RegisterGuardedCallback(handlers.CallbackTxFilter, auth, func() handlers.CallbackHandler { return wallet().TransactionsFilter() })

	// Back office.
	router.RegisterGuarded(CommandAdmin, admin, func() handlers.Handler { return backOffice().Dashboard() })
	router.RegisterGuarded(CommandAdminUsers, admin, func() handlers.Handler { return backOffice().Users() })
	router.RegisterGuarded(CommandAdminBonuses, admin, func() handlers.Handler { return backOffice().Bonuses() })
	router.RegisterGuarded(CommandAdminNewBonus, admin, func() handlers.Handler { return backOffice().NewBonus() })
	router.RegisterGuarded(CommandAdminTransactions, admin, func() handlers.Handler { return backOffice().Transactions() })
	router.RegisterGuarded(CommandAdminContent, admin, func() handlers.Handler { return backOffice().Content() })
	router.RegisterGuardedCallback(handlers.CallbackAdminUsersPage, admin, func() handlers.CallbackHandler { return backOffice().UsersPage() })
	router.RegisterGuardedCallback(handlers.CallbackAdminUserStatus, admin, func() handlers.CallbackHandler { return backOffice().UserStatus() })
	router.RegisterGuardedCallback(handlers.CallbackAdminBonusToggle, admin, func() handlers.CallbackHandler { return backOffice().BonusToggle() })
	router.RegisterGuardedCallback(handlers.CallbackAdminBonusSubmit, admin, func() handlers.CallbackHandler { return backOffice().BonusSubmit() })
	router.RegisterGuardedCallback(handlers.CallbackAdminTxReview, admin, func() handlers.CallbackHandler { return backOffice().TransactionReview() })
	router.RegisterGuardedCallback(handlers.CallbackAdminPublish, admin, func() handlers.CallbackHandler { return backOffice().Publish() })

	// Flow input.
	buttons := account.AwaitButtons()
	dispatcher.RegisterStateHandler(state.StateLoginEmail, account.LoginEmail())
	dispatcher.RegisterStateHandler(state.StateLoginPassword, account.LoginPassword())
	dispatcher.RegisterStateHandler(state.StateRegisterEmail, account.RegisterEmail())
	dispatcher.RegisterStateHandler(state.StateRegisterUsername, account.RegisterUsername())
	dispatcher.RegisterStateHandler(state.StateRegisterPassword, account.RegisterPassword())
	dispatcher.RegisterStateHandler(state.StateCatalogSearch, catalogScreens.SearchInput())
	dispatcher.RegisterStateHandler(state.StateProfileEdit, handlers.Guarded(auth, account.ProfileEditInput()))
	dispatcher.RegisterStateHandler(state.StateDepositMethod, buttons)
	dispatcher.RegisterStateHandler(state.StateDepositAmount, lazy(auth, func() handlers.Handler { return wallet().DepositAmount() }))
	dispatcher.RegisterStateHandler(state.StateDepositConfirm, buttons)
	dispatcher.RegisterStateHandler(state.StateWithdrawMethod, buttons)
	dispatcher.RegisterStateHandler(state.StateWithdrawAmount, lazy(auth, func() handlers.Handler { return wallet().WithdrawAmount() }))
	dispatcher.RegisterStateHandler(state.StateWithdrawAccount, lazy(auth, func() handlers.Handler { return wallet().WithdrawAccount() }))
	dispatcher.RegisterStateHandler(state.StateWithdrawConfirm, buttons)
	dispatcher.RegisterStateHandler(state.StateAdminBonusForm, lazy(admin, func() handlers.Handler { return backOffice().BonusFormInput() }))
	dispatcher.RegisterStateHandler(state.StateAdminBonusConfirm, buttons)
	dispatcher.RegisterStateHandler(state.StateError, account.Broken())

	return router
}
