package handlers

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/spinhall-bot/internal/apiclient"
	"github.com/Proton-105/spinhall-bot/internal/bot/bottest"
	"github.com/Proton-105/spinhall-bot/internal/domain"
	"github.com/Proton-105/spinhall-bot/internal/state"
)

const adminChat int64 = 1

func usersPage(n int) []domain.User {
	users := make([]domain.User, 0, n)
	for i := 1; i <= n; i++ {
		users = append(users, domain.User{ID: int64(i), Username: fmt.Sprintf("user%d", i), Status: domain.UserStatusActive, Balance: dec("0")})
	}
	return users
}

func TestAdminUsers_OpenPager(t *testing.T) {
	f := newFixture(t)
	f.signIn(t, adminChat, testUser("0", true))
	h := NewAdmin(f.deps)

	f.backend.On("AdminUsers", mock.Anything, "tok", "ann", 1).Return(usersPage(AdminUsersPerPage), nil).Once()
	first := bottest.Text(adminChat, "/admin_users ann")
	require.NoError(t, h.Users()(first))
	assert.Contains(t, first.Buttons(), CallbackAdminUsersPage+":2|ann", "a full page may have a next one")
	assert.Contains(t, first.Buttons(), CallbackAdminUserStatus+":1|"+domain.UserStatusBlocked)

	f.backend.On("AdminUsers", mock.Anything, "tok", "ann", 2).Return(usersPage(3), nil).Once()
	second := bottest.Callback(adminChat, CallbackAdminUsersPage+":2|ann")
	require.NoError(t, h.UsersPage()(second))
	assert.Contains(t, second.Buttons(), CallbackAdminUsersPage+":1|ann")
	assert.NotContains(t, second.Buttons(), CallbackAdminUsersPage+":3|ann")

	f.backend.AssertExpectations(t)
}

func TestAdminUsers_BlockRefreshesList(t *testing.T) {
	f := newFixture(t)
	f.signIn(t, adminChat, testUser("0", true))

	f.backend.On("AdminSetUserStatus", mock.Anything, "tok", int64(3), domain.UserStatusBlocked).Return(nil).Once()
	f.backend.On("AdminUsers", mock.Anything, "tok", "", 1).Return(usersPage(1), nil).Once()

	c := bottest.Callback(adminChat, CallbackAdminUserStatus+":3|"+domain.UserStatusBlocked)
	require.NoError(t, NewAdmin(f.deps).UserStatus()(c))
	require.NotEmpty(t, c.Responses())
	assert.Equal(t, "admin.user_status.blocked", c.Responses()[0].Text)
	f.backend.AssertExpectations(t)
}

func TestAdminUsers_UnknownStatusSkipsBackend(t *testing.T) {
	f := newFixture(t)
	f.signIn(t, adminChat, testUser("0", true))

	err := NewAdmin(f.deps).UserStatus()(bottest.Callback(adminChat, CallbackAdminUserStatus+":3|deleted"))
	require.Error(t, err)
	f.backend.AssertNotCalled(t, "AdminSetUserStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAdminBonusWizard(t *testing.T) {
	f := newFixture(t)
	f.signIn(t, adminChat, testUser("0", true))
	h := NewAdmin(f.deps)

	open := bottest.Text(adminChat, "/admin_newbonus")
	require.NoError(t, h.NewBonus()(open))
	assert.Equal(t, state.StateAdminBonusForm, f.currentState(t, adminChat))

	bad := bottest.Text(adminChat, "name: X\ncolour: red")
	require.NoError(t, h.BonusFormInput()(bad))
	assert.Equal(t, state.StateAdminBonusForm, f.currentState(t, adminChat), "a rejected form keeps the step")

	form := bottest.Text(adminChat, "name: Spring reload\ntype: reload\npercentage: 50\nmax_amount: 200\nmin_deposit: 20\nwagering: 30\ndays: 14\naudience: all")
	require.NoError(t, h.BonusFormInput()(form))
	assert.Equal(t, state.StateAdminBonusConfirm, f.currentState(t, adminChat))
	assert.Contains(t, form.Buttons(), CallbackAdminBonusSubmit)

	f.backend.On("AdminCreateBonus", mock.Anything, "tok", mock.MatchedBy(func(b domain.Bonus) bool {
		return b.Name == "Spring reload" && b.Type == domain.BonusReload && b.Percentage.Equal(dec("50"))
	})).Return(domain.Bonus{ID: "b9", Name: "Spring reload"}, nil).Once()

	submit := bottest.Callback(adminChat, CallbackAdminBonusSubmit)
	require.NoError(t, h.BonusSubmit()(submit))
	assert.Equal(t, "admin.bonus_created", submit.Last())
	assert.Equal(t, state.StateIdle, f.currentState(t, adminChat))
	f.backend.AssertExpectations(t)
}

func TestAdminTransactions_Review(t *testing.T) {
	f := newFixture(t)
	f.signIn(t, adminChat, testUser("0", true))
	h := NewAdmin(f.deps)

	pending := apiclient.TransactionFilter{Status: domain.StatusPending}
	tx := domain.Transaction{ID: "tx-7", Username: "bob", Type: domain.TransactionWithdrawal, Amount: dec("150"), Status: domain.StatusPending}
	f.backend.On("AdminTransactions", mock.Anything, "tok", pending).Return([]domain.Transaction{tx}, nil).Once()

	list := bottest.Text(adminChat, "/admin_transactions")
	require.NoError(t, h.Transactions()(list))
	assert.Contains(t, list.Buttons(), CallbackAdminTxReview+":tx-7|approve")
	assert.Contains(t, list.Buttons(), CallbackAdminTxReview+":tx-7|reject")

	f.backend.On("AdminReviewTransaction", mock.Anything, "tok", "tx-7", domain.DecisionApprove, "").Return(nil).Once()
	f.backend.On("AdminTransactions", mock.Anything, "tok", pending).Return([]domain.Transaction{}, nil).Once()

	approve := bottest.Callback(adminChat, CallbackAdminTxReview+":tx-7|approve")
	require.NoError(t, h.TransactionReview()(approve))
	assert.Contains(t, approve.Last(), "admin.transactions_empty")
	f.backend.AssertExpectations(t)
}

func TestAdminContent_Publish(t *testing.T) {
	f := newFixture(t)
	f.signIn(t, adminChat, testUser("0", true))

	f.backend.On("AdminPublishContent", mock.Anything, "tok", "c1", true).Return(nil).Once()
	f.backend.On("AdminContent", mock.Anything, "tok").Return([]domain.ContentItem{{ID: "c1", Kind: "banner", Title: "Spring", Published: true}}, nil).Once()

	c := bottest.Callback(adminChat, CallbackAdminPublish+":c1|1")
	require.NoError(t, NewAdmin(f.deps).Publish()(c))
	assert.Contains(t, c.Last(), "🟢 [banner] Spring")
	assert.Contains(t, c.Buttons(), CallbackAdminPublish+":c1|0")
	f.backend.AssertExpectations(t)
}
