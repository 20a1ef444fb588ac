package handlers

import (
	"strconv"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/spinhall-bot/internal/apiclient"
	"github.com/Proton-105/spinhall-bot/internal/bot/keyboard"
	"github.com/Proton-105/spinhall-bot/internal/domain"
	apperrors "github.com/Proton-105/spinhall-bot/internal/errors"
	"github.com/Proton-105/spinhall-bot/internal/payments"
	"github.com/Proton-105/spinhall-bot/internal/state"
)

// Admin callback ids.
const (
	CallbackAdminUserStatus  = "aus"
	CallbackAdminUsersPage   = "aup"
	CallbackAdminBonusToggle = "abt"
	CallbackAdminBonusSubmit = "abconfirm"
	CallbackAdminTxReview    = "atx"
	CallbackAdminPublish     = "acp"
)

const (
	// AdminUsersPerPage is the backend's page size for the users list.
	AdminUsersPerPage = 20

	dataBonusForm = "form"
	// maxSearchInCallback keeps the users pager payload under Telegram's limit.
	maxSearchInCallback = 24
)

// Admin is the back-office: users, bonus campaigns, transaction review and
// content. Every entry point is registered behind AdminGuard.
type Admin struct {
	d *Deps
}

func NewAdmin(d *Deps) *Admin {
	return &Admin{d: d.withDefaults()}
}

// Dashboard links the admin sections and counts pending transactions.
func (h *Admin) Dashboard() Handler {
	return func(c telebot.Context) error {
		t := h.d.tr(c)

		pending := "-"
		var list []domain.Transaction
		err := h.d.authed(c, func(token string) error {
			var err error
			list, err = h.d.Backend.AdminTransactions(RequestContext(c), token, apiclient.TransactionFilter{Status: domain.StatusPending})
			return err
		})
		if err == nil {
			pending = strconv.Itoa(len(list))
		} else if apperrors.IsUnauthorized(err) {
			return err
		}

		kb := keyboard.NewInlineKeyboard().
			AddRow(
				h.d.Keyboard.NavButton(t, "admin.users", "/admin_users"),
				h.d.Keyboard.NavButton(t, "admin.bonuses", "/admin_bonuses"),
			).
			AddRow(
				h.d.Keyboard.NavButton(t, "admin.new_bonus", "/admin_newbonus"),
				h.d.Keyboard.NavButton(t, "admin.transactions", "/admin_transactions"),
			).
			AddRow(h.d.Keyboard.NavButton(t, "admin.content", "/admin_content"))
		return reply(c, t.Tf("admin.dashboard", map[string]string{"Pending": pending}), h.d.Keyboard.Render(kb))
	}
}

// Users lists accounts. The command argument is used as a search string.
func (h *Admin) Users() Handler {
	return func(c telebot.Context) error {
		return h.showUsers(c, CommandArgs(c), 1)
	}
}

// UsersPage handles "page|search" payloads.
func (h *Admin) UsersPage() CallbackHandler {
	return func(c telebot.Context) error {
		args := keyboard.SplitArgs(Payload(c))
		page := 1
		search := ""
		if len(args) > 0 {
			if p, err := strconv.Atoi(args[0]); err == nil {
				page = p
			}
		}
		if len(args) > 1 {
			search = args[1]
		}
		return h.showUsers(c, search, page)
	}
}

// UserStatus handles "id|status" payloads from the block and unblock buttons.
func (h *Admin) UserStatus() CallbackHandler {
	return func(c telebot.Context) error {
		t := h.d.tr(c)
		args := keyboard.SplitArgs(Payload(c))
		if len(args) != 2 {
			return apperrors.NewStateError("malformed user status payload")
		}
		userID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return apperrors.NewStateError("malformed user id")
		}
		status := args[1]
		if status != domain.UserStatusActive && status != domain.UserStatusBlocked {
			return apperrors.NewStateError("unknown user status " + status)
		}

		err = h.d.authed(c, func(token string) error {
			return h.d.Backend.AdminSetUserStatus(RequestContext(c), token, userID, status)
		})
		if err != nil {
			return err
		}
		_ = notify(c, t.T("admin.user_status."+status), false)
		return h.showUsers(c, "", 1)
	}
}

func (h *Admin) showUsers(c telebot.Context, search string, page int) error {
	t := h.d.tr(c)
	if page < 1 {
		page = 1
	}
	search = truncate(strings.TrimSpace(search), maxSearchInCallback)

	var users []domain.User
	err := h.d.authed(c, func(token string) error {
		var err error
		users, err = h.d.Backend.AdminUsers(RequestContext(c), token, search, page)
		return err
	})
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString(t.Tf("admin.users_title", map[string]string{"Search": orDash(search)}))
	if len(users) == 0 {
		b.WriteString("\n\n" + t.T("admin.users_empty"))
	}

	kb := keyboard.NewInlineKeyboard()
	for _, u := range users {
		b.WriteString("\n" + t.Tf("admin.user_line", map[string]string{
			"ID":      strconv.FormatInt(u.ID, 10),
			"Name":    u.DisplayName(),
			"Email":   orDash(u.Email),
			"Status":  orDash(u.Status),
			"Balance": u.Balance.StringFixed(2),
		}))

		next, label := domain.UserStatusBlocked, "admin.block"
		if u.Status == domain.UserStatusBlocked {
			next, label = domain.UserStatusActive, "admin.unblock"
		}
		kb.AddRow(keyboard.InlineButton{
			Text:   t.Tf(label, map[string]string{"Name": u.DisplayName()}),
			Unique: CallbackAdminUserStatus,
			Data:   keyboard.JoinArgs(strconv.FormatInt(u.ID, 10), next),
		})
	}

	if pager := keyboard.Open(page, len(users), AdminUsersPerPage); pager.Visible() {
		row := keyboard.PaginationButtons(t, CallbackAdminUsersPage, pager)
		for i := range row {
			row[i].Data = keyboard.JoinArgs(row[i].Data, search)
		}
		kb.AddRow(row...)
	}
	return reply(c, b.String(), h.d.Keyboard.Render(kb))
}

// Bonuses lists every campaign with an enable or disable button.
func (h *Admin) Bonuses() Handler {
	return func(c telebot.Context) error {
		return h.showBonuses(c)
	}
}

// BonusToggle handles "id|0" and "id|1" payloads.
func (h *Admin) BonusToggle() CallbackHandler {
	return func(c telebot.Context) error {
		args := keyboard.SplitArgs(Payload(c))
		if len(args) != 2 {
			return apperrors.NewStateError("malformed bonus toggle payload")
		}
		active := args[1] == "1"

		err := h.d.authed(c, func(token string) error {
			return h.d.Backend.AdminToggleBonus(RequestContext(c), token, args[0], active)
		})
		if err != nil {
			return err
		}
		h.d.Queries.InvalidatePrefix(chatPrefix(ChatID(c)) + "bonuses")
		return h.showBonuses(c)
	}
}

func (h *Admin) showBonuses(c telebot.Context) error {
	t := h.d.tr(c)

	var bonuses []domain.Bonus
	err := h.d.authed(c, func(token string) error {
		var err error
		bonuses, err = h.d.Backend.AdminBonuses(RequestContext(c), token)
		return err
	})
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString(t.T("admin.bonuses_title"))
	if len(bonuses) == 0 {
		b.WriteString("\n\n" + t.T("bonuses.empty"))
	}

	kb := keyboard.NewInlineKeyboard()
	for _, bonus := range bonuses {
		b.WriteString("\n\n" + bonusText(t, bonus))
		b.WriteString("\n" + t.T(boolKey(bonus.Active, "admin.active", "admin.inactive")))

		kb.AddRow(keyboard.InlineButton{
			Text:   t.Tf(boolKey(bonus.Active, "admin.disable", "admin.enable"), map[string]string{"Name": bonus.Name}),
			Unique: CallbackAdminBonusToggle,
			Data:   keyboard.JoinArgs(bonus.ID, boolKey(bonus.Active, "0", "1")),
		})
	}
	kb.AddRow(h.d.Keyboard.NavButton(t, "admin.new_bonus", "/admin_newbonus"))
	return reply(c, b.String(), h.d.Keyboard.Render(kb))
}

// NewBonus opens the campaign form.
func (h *Admin) NewBonus() Handler {
	return func(c telebot.Context) error {
		if err := h.d.FSM.SetState(RequestContext(c), ChatID(c), state.StateAdminBonusForm, nil); err != nil {
			return err
		}
		t := h.d.tr(c)
		text := t.T("admin.bonus_form_prompt") + "\n\n" + payments.BonusFormTemplate
		return reply(c, text, h.d.Keyboard.Cancel(t))
	}
}

// BonusFormInput checks the typed form and shows it for confirmation.
func (h *Admin) BonusFormInput() Handler {
	return func(c telebot.Context) error {
		ctx := RequestContext(c)
		chatID := ChatID(c)
		t := h.d.tr(c)

		text := c.Text()
		form, err := payments.ParseBonusForm(text)
		if err != nil {
			return h.d.retry(c, err)
		}
		if err := form.Validate(); err != nil {
			return h.d.retry(c, err)
		}

		if err := h.d.FSM.TransitionTo(ctx, chatID, state.StateAdminBonusConfirm, map[string]string{dataBonusForm: text}); err != nil {
			return err
		}

		var b strings.Builder
		b.WriteString(t.T("admin.bonus_confirm"))
		for _, kv := range form.Fields() {
			b.WriteString("\n" + kv[0] + ": " + kv[1])
		}
		return send(c, b.String(), h.d.Keyboard.Confirm(t, CallbackAdminBonusSubmit))
	}
}

// BonusSubmit creates the campaign from the confirmed form.
func (h *Admin) BonusSubmit() CallbackHandler {
	return func(c telebot.Context) error {
		ctx := RequestContext(c)
		chatID := ChatID(c)
		t := h.d.tr(c)

		st, err := h.d.inState(c, state.StateAdminBonusConfirm)
		if err != nil {
			return err
		}
		form, err := payments.ParseBonusForm(st.Value(dataBonusForm))
		if err != nil {
			return err
		}

		var created domain.Bonus
		err = h.d.authed(c, func(token string) error {
			var err error
			created, err = h.d.Backend.AdminCreateBonus(ctx, token, form.Bonus(h.d.Now()))
			return err
		})
		if err != nil {
			return err
		}

		if err := h.d.FSM.ClearState(ctx, chatID); err != nil {
			return err
		}
		h.d.Queries.InvalidatePrefix(chatPrefix(chatID) + "bonuses")

		kb := keyboard.NewInlineKeyboard().AddRow(h.d.Keyboard.NavButton(t, "admin.bonuses", "/admin_bonuses"))
		return reply(c, t.Tf("admin.bonus_created", map[string]string{"Name": created.Name, "ID": orDash(created.ID)}), h.d.Keyboard.Render(kb))
	}
}

// Transactions lists pending transactions with approve and reject buttons.
func (h *Admin) Transactions() Handler {
	return func(c telebot.Context) error {
		return h.showTransactions(c)
	}
}

// TransactionReview handles "id|approve" and "id|reject" payloads.
func (h *Admin) TransactionReview() CallbackHandler {
	return func(c telebot.Context) error {
		t := h.d.tr(c)
		args := keyboard.SplitArgs(Payload(c))
		if len(args) != 2 {
			return apperrors.NewStateError("malformed review payload")
		}
		decision := domain.ReviewDecision(args[1])
		if decision != domain.DecisionApprove && decision != domain.DecisionReject {
			return apperrors.NewStateError("unknown review decision " + args[1])
		}

		err := h.d.authed(c, func(token string) error {
			return h.d.Backend.AdminReviewTransaction(RequestContext(c), token, args[0], decision, "")
		})
		if err != nil {
			return err
		}
		_ = notify(c, t.T("admin.reviewed."+string(decision)), false)
		return h.showTransactions(c)
	}
}

func (h *Admin) showTransactions(c telebot.Context) error {
	t := h.d.tr(c)

	var list []domain.Transaction
	err := h.d.authed(c, func(token string) error {
		var err error
		list, err = h.d.Backend.AdminTransactions(RequestContext(c), token, apiclient.TransactionFilter{Status: domain.StatusPending})
		return err
	})
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString(t.T("admin.transactions_title"))
	if len(list) == 0 {
		b.WriteString("\n\n" + t.T("admin.transactions_empty"))
	}

	kb := keyboard.NewInlineKeyboard()
	for i, tx := range list {
		n := strconv.Itoa(i + 1)
		b.WriteString("\n" + n + ". " + orDash(tx.Username) + " · " + transactionLine(t, tx))
		kb.AddRow(
			keyboard.InlineButton{Text: "✅ " + n, Unique: CallbackAdminTxReview, Data: keyboard.JoinArgs(tx.ID, string(domain.DecisionApprove))},
			keyboard.InlineButton{Text: "⛔ " + n, Unique: CallbackAdminTxReview, Data: keyboard.JoinArgs(tx.ID, string(domain.DecisionReject))},
		)
	}
	return reply(c, b.String(), h.d.Keyboard.Render(kb))
}

// Content lists CMS entries with publish toggles.
func (h *Admin) Content() Handler {
	return func(c telebot.Context) error {
		return h.showContent(c)
	}
}

// Publish handles "id|0" and "id|1" payloads.
func (h *Admin) Publish() CallbackHandler {
	return func(c telebot.Context) error {
		args := keyboard.SplitArgs(Payload(c))
		if len(args) != 2 {
			return apperrors.NewStateError("malformed publish payload")
		}
		err := h.d.authed(c, func(token string) error {
			return h.d.Backend.AdminPublishContent(RequestContext(c), token, args[0], args[1] == "1")
		})
		if err != nil {
			return err
		}
		return h.showContent(c)
	}
}

func (h *Admin) showContent(c telebot.Context) error {
	t := h.d.tr(c)

	var items []domain.ContentItem
	err := h.d.authed(c, func(token string) error {
		var err error
		items, err = h.d.Backend.AdminContent(RequestContext(c), token)
		return err
	})
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString(t.T("admin.content_title"))
	if len(items) == 0 {
		b.WriteString("\n\n" + t.T("admin.content_empty"))
	}

	kb := keyboard.NewInlineKeyboard()
	for _, item := range items {
		mark := "📝"
		if item.Published {
			mark = "🟢"
		}
		b.WriteString("\n" + mark + " [" + orDash(item.Kind) + "] " + item.Title)
		kb.AddRow(keyboard.InlineButton{
			Text:   t.Tf(boolKey(item.Published, "admin.unpublish", "admin.publish"), map[string]string{"Title": truncate(item.Title, 24)}),
			Unique: CallbackAdminPublish,
			Data:   keyboard.JoinArgs(item.ID, boolKey(item.Published, "0", "1")),
		})
	}
	return reply(c, b.String(), h.d.Keyboard.Render(kb))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
