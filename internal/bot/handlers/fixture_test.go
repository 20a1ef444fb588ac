package handlers

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"testing/fstest"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/spinhall-bot/internal/apiclient"
	"github.com/Proton-105/spinhall-bot/internal/bot/keyboard"
	"github.com/Proton-105/spinhall-bot/internal/domain"
	"github.com/Proton-105/spinhall-bot/internal/i18n"
	"github.com/Proton-105/spinhall-bot/internal/localstore"
	"github.com/Proton-105/spinhall-bot/internal/querycache"
	"github.com/Proton-105/spinhall-bot/internal/session"
	"github.com/Proton-105/spinhall-bot/internal/state"
	appredis "github.com/Proton-105/spinhall-bot/pkg/redis"
)

const testLocale = `
en:
  errors:
    amount_bounds: "Amount must be between {{.Min}} and {{.Max}}"
    insufficient_balance: "Not enough funds, balance {{.Balance}}"
    invalid_credentials: "Wrong e-mail or password"
    field:
      email: "Enter a valid e-mail"
  bonuses:
    example: "Deposit {{.Deposit}}: bonus {{.Bonus}}, wager {{.Wagering}}"
  buttons:
    cancel: "Cancel"
    login: "Log in"
    register: "Sign up"
`

type mockBackend struct {
	mock.Mock
}

var _ Backend = (*mockBackend)(nil)

func (m *mockBackend) PaymentMethods(ctx context.Context, token string) ([]domain.PaymentMethod, error) {
	args := m.Called(ctx, token)
	return args.Get(0).([]domain.PaymentMethod), args.Error(1)
}

func (m *mockBackend) CreateDeposit(ctx context.Context, token, idemKey string, req domain.DepositRequest) (domain.TransactionReceipt, error) {
	args := m.Called(ctx, token, idemKey, req)
	return args.Get(0).(domain.TransactionReceipt), args.Error(1)
}

func (m *mockBackend) CreateWithdrawal(ctx context.Context, token, idemKey string, req domain.WithdrawalRequest) (domain.TransactionReceipt, error) {
	args := m.Called(ctx, token, idemKey, req)
	return args.Get(0).(domain.TransactionReceipt), args.Error(1)
}

func (m *mockBackend) Transactions(ctx context.Context, token string, f apiclient.TransactionFilter) ([]domain.Transaction, error) {
	args := m.Called(ctx, token, f)
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

func (m *mockBackend) Bonuses(ctx context.Context, token string) ([]domain.Bonus, error) {
	args := m.Called(ctx, token)
	return args.Get(0).([]domain.Bonus), args.Error(1)
}

func (m *mockBackend) VIPLevels(ctx context.Context, token string) ([]domain.VIPLevel, error) {
	args := m.Called(ctx, token)
	return args.Get(0).([]domain.VIPLevel), args.Error(1)
}

func (m *mockBackend) AdminUsers(ctx context.Context, token, search string, page int) ([]domain.User, error) {
	args := m.Called(ctx, token, search, page)
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *mockBackend) AdminSetUserStatus(ctx context.Context, token string, userID int64, status string) error {
	return m.Called(ctx, token, userID, status).Error(0)
}

func (m *mockBackend) AdminBonuses(ctx context.Context, token string) ([]domain.Bonus, error) {
	args := m.Called(ctx, token)
	return args.Get(0).([]domain.Bonus), args.Error(1)
}

func (m *mockBackend) AdminCreateBonus(ctx context.Context, token string, b domain.Bonus) (domain.Bonus, error) {
	args := m.Called(ctx, token, b)
	return args.Get(0).(domain.Bonus), args.Error(1)
}

func (m *mockBackend) AdminToggleBonus(ctx context.Context, token, bonusID string, active bool) error {
	return m.Called(ctx, token, bonusID, active).Error(0)
}

func (m *mockBackend) AdminTransactions(ctx context.Context, token string, f apiclient.TransactionFilter) ([]domain.Transaction, error) {
	args := m.Called(ctx, token, f)
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

func (m *mockBackend) AdminReviewTransaction(ctx context.Context, token, txID string, decision domain.ReviewDecision, note string) error {
	return m.Called(ctx, token, txID, decision, note).Error(0)
}

func (m *mockBackend) AdminContent(ctx context.Context, token string) ([]domain.ContentItem, error) {
	args := m.Called(ctx, token)
	return args.Get(0).([]domain.ContentItem), args.Error(1)
}

func (m *mockBackend) AdminPublishContent(ctx context.Context, token, contentID string, published bool) error {
	return m.Called(ctx, token, contentID, published).Error(0)
}

type mockAuthAPI struct {
	mock.Mock
}

func (m *mockAuthAPI) Login(ctx context.Context, creds domain.Credentials) (domain.AuthResult, error) {
	args := m.Called(ctx, creds)
	return args.Get(0).(domain.AuthResult), args.Error(1)
}

func (m *mockAuthAPI) Register(ctx context.Context, reg domain.Registration) (domain.AuthResult, error) {
	args := m.Called(ctx, reg)
	return args.Get(0).(domain.AuthResult), args.Error(1)
}

func (m *mockAuthAPI) Me(ctx context.Context, token string) (domain.User, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *mockAuthAPI) UpdateProfile(ctx context.Context, token string, upd domain.ProfileUpdate) (domain.User, error) {
	args := m.Called(ctx, token, upd)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *mockAuthAPI) Logout(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

type fixture struct {
	mr      *miniredis.Miniredis
	backend *mockBackend
	auth    *mockAuthAPI
	deps    *Deps
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	tr, err := i18n.LoadFS(fstest.MapFS{"locales/en.yaml": {Data: []byte(testLocale)}}, "locales", "en")
	require.NoError(t, err)

	backend := &mockBackend{}
	auth := &mockAuthAPI{}
	prefs := localstore.NewPrefs(localstore.NewMemoryStore())

	deps := &Deps{
		Backend:  backend,
		Sessions: session.NewManager(auth, prefs, session.NewProfileCache(appredis.Wrap(client), time.Minute), log),
		Prefs:    prefs,
		Queries:  querycache.New(querycache.Options{StaleTime: time.Minute, CacheTime: time.Hour}, log),
		FSM:      state.NewStateMachine(state.NewRedisStorage(client, log, time.Hour), log, client),
		I18n:     tr,
		Keyboard: keyboard.NewBuilder(log),
		Log:      log,
	}

	return &fixture{mr: mr, backend: backend, auth: auth, deps: deps}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testUser(balance string, admin bool) domain.User {
	return domain.User{ID: 7, Username: "ann", Email: "ann@example.com", Currency: "EUR", Balance: dec(balance), IsAdmin: admin}
}

// signIn stores a session for chatID the way a successful login does.
func (f *fixture) signIn(t *testing.T, chatID int64, user domain.User) {
	t.Helper()

	creds := domain.Credentials{Email: user.Email, Password: "pw"}
	f.auth.On("Login", mock.Anything, creds).Return(domain.AuthResult{Token: "tok", User: user}, nil).Once()
	_, err := f.deps.Sessions.Login(context.Background(), chatID, creds)
	require.NoError(t, err)
}

func (f *fixture) currentState(t *testing.T, chatID int64) state.State {
	t.Helper()

	st, err := f.deps.FSM.Current(context.Background(), chatID)
	require.NoError(t, err)
	return st.CurrentState
}

// bankTransfer is the withdrawal method with the 100..50000 limits.
func bankTransfer() domain.PaymentMethod {
	return domain.PaymentMethod{
		ID:             "bank",
		Name:           "Bank transfer",
		Kind:           domain.MethodBank,
		MinAmount:      dec("100"),
		MaxAmount:      dec("50000"),
		FeePercent:     dec("1.5"),
		ProcessingTime: "1-3 days",
		Deposit:        true,
		Withdrawal:     true,
		Enabled:        true,
	}
}
