package handlers

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/spinhall-bot/internal/apiclient"
	"github.com/Proton-105/spinhall-bot/internal/bot/keyboard"
	"github.com/Proton-105/spinhall-bot/internal/domain"
	apperrors "github.com/Proton-105/spinhall-bot/internal/errors"
	"github.com/Proton-105/spinhall-bot/internal/i18n"
	"github.com/Proton-105/spinhall-bot/internal/idempotency"
	"github.com/Proton-105/spinhall-bot/internal/payments"
	"github.com/Proton-105/spinhall-bot/internal/querycache"
	"github.com/Proton-105/spinhall-bot/internal/state"
)

// Wallet callback ids.
const (
	CallbackDepositMethod   = "dm"
	CallbackDepositConfirm  = "dconfirm"
	CallbackWithdrawMethod  = "wm"
	CallbackWithdrawConfirm = "wconfirm"
	CallbackTxPage          = "txp"
	CallbackTxFilter        = "txf"
)

const (
	dataFlow    = "flow"
	dataMethod  = "method"
	dataAmount  = "amount"
	dataAccount = "account"
)

// TransactionsPerPage is the history page size requested from the backend.
const TransactionsPerPage = 10

// Wallet runs the deposit and withdrawal flows and the transaction history.
type Wallet struct {
	d *Deps
}

func NewWallet(d *Deps) *Wallet {
	return &Wallet{d: d.withDefaults()}
}

// Methods lists the enabled payment methods with their limits.
func (h *Wallet) Methods() Handler {
	return func(c telebot.Context) error {
		t := h.d.tr(c)
		methods, err := h.methods(c)
		if err != nil {
			return err
		}

		var b strings.Builder
		b.WriteString(t.T("wallet.methods_title"))
		for _, m := range methods {
			if !m.Enabled {
				continue
			}
			b.WriteString("\n\n" + methodSummary(t, m))
		}
		kb := keyboard.NewInlineKeyboard().AddRow(
			h.d.Keyboard.NavButton(t, "main_menu.deposit", "/deposit"),
			h.d.Keyboard.NavButton(t, "main_menu.withdraw", "/withdraw"),
		)
		return reply(c, b.String(), h.d.Keyboard.Render(kb))
	}
}

// Deposit starts the deposit flow with the method picker.
func (h *Wallet) Deposit() Handler {
	return func(c telebot.Context) error {
		return h.start(c, domain.TransactionDeposit)
	}
}

// Withdraw starts the withdrawal flow with the method picker.
func (h *Wallet) Withdraw() Handler {
	return func(c telebot.Context) error {
		return h.start(c, domain.TransactionWithdrawal)
	}
}

func (h *Wallet) start(c telebot.Context, kind domain.TransactionType) error {
	t := h.d.tr(c)
	methods, err := h.methods(c)
	if err != nil {
		return err
	}

	first, unique, prompt := state.StateDepositMethod, CallbackDepositMethod, "deposit.choose_method"
	if kind == domain.TransactionWithdrawal {
		first, unique, prompt = state.StateWithdrawMethod, CallbackWithdrawMethod, "withdraw.choose_method"
	}

	var buttons []keyboard.InlineButton
	for _, m := range methods {
		if m.Supports(kind) {
			buttons = append(buttons, keyboard.InlineButton{Text: m.Name, Unique: unique, Data: m.ID})
		}
	}
	if len(buttons) == 0 {
		return reply(c, t.T("wallet.no_methods"), nil)
	}

	// The flow id keeps the idempotency key stable across retries of one
	// confirm and distinct between two flows with the same amount.
	data := map[string]string{dataFlow: uuid.NewString()}
	if err := h.d.FSM.SetState(RequestContext(c), ChatID(c), first, data); err != nil {
		return err
	}

	kb := keyboard.NewInlineKeyboard().AddGrid(2, buttons...).AddRow(h.d.Keyboard.CancelButton(t))
	return reply(c, t.T(prompt), h.d.Keyboard.Render(kb))
}

// DepositMethod stores the picked method and asks for the amount.
func (h *Wallet) DepositMethod() CallbackHandler {
	return func(c telebot.Context) error {
		return h.pickMethod(c, domain.TransactionDeposit, state.StateDepositMethod, state.StateDepositAmount, "deposit.amount_prompt")
	}
}

// WithdrawMethod stores the picked method and asks for the amount.
func (h *Wallet) WithdrawMethod() CallbackHandler {
	return func(c telebot.Context) error {
		return h.pickMethod(c, domain.TransactionWithdrawal, state.StateWithdrawMethod, state.StateWithdrawAmount, "withdraw.amount_prompt")
	}
}

func (h *Wallet) pickMethod(c telebot.Context, kind domain.TransactionType, from, to state.State, prompt string) error {
	if _, err := h.d.inState(c, from); err != nil {
		return err
	}
	t := h.d.tr(c)

	method, err := h.method(c, Payload(c))
	if err != nil {
		return err
	}
	if !method.Supports(kind) {
		return notify(c, t.T("wallet.method_unavailable"), true)
	}

	if err := h.d.FSM.TransitionTo(RequestContext(c), ChatID(c), to, map[string]string{dataMethod: method.ID}); err != nil {
		return err
	}
	text := t.Tf(prompt, map[string]string{
		"Method": method.Name,
		"Min":    method.MinAmount.StringFixed(2),
		"Max":    limitText(t, method.MaxAmount),
	})
	return reply(c, text, h.d.Keyboard.Cancel(t))
}

// DepositAmount validates the typed amount and shows the confirm screen.
func (h *Wallet) DepositAmount() Handler {
	return func(c telebot.Context) error {
		ctx := RequestContext(c)
		chatID := ChatID(c)
		t := h.d.tr(c)

		st, err := h.d.FSM.Current(ctx, chatID)
		if err != nil {
			return err
		}
		method, err := h.method(c, st.Value(dataMethod))
		if err != nil {
			return err
		}

		amount, err := payments.ParseAmount(c.Text())
		if err != nil {
			return h.d.retry(c, err)
		}
		if err := payments.ValidateAmount(method, amount); err != nil {
			return h.d.retry(c, err)
		}

		if err := h.d.FSM.TransitionTo(ctx, chatID, state.StateDepositConfirm, map[string]string{dataAmount: amount.String()}); err != nil {
			return err
		}

		var b strings.Builder
		b.WriteString(t.Tf("deposit.confirm", map[string]string{
			"Amount": amount.StringFixed(2),
			"Method": method.Name,
		}))
		if line := h.bonusLine(c, t, amount); line != "" {
			b.WriteString("\n" + line)
		}
		return send(c, b.String(), h.d.Keyboard.Confirm(t, CallbackDepositConfirm))
	}
}

// bonusLine previews the best active bonus for amount. Bonus lookup
// failures only hide the line.
func (h *Wallet) bonusLine(c telebot.Context, t i18n.Translator, amount decimal.Decimal) string {
	bonuses, err := h.d.bonuses(c)
	if err != nil {
		return ""
	}

	var (
		best    domain.Bonus
		preview payments.BonusPreview
	)
	for _, b := range bonuses {
		if !b.Active {
			continue
		}
		p := payments.PreviewBonus(b, amount)
		if p.Eligible && p.Bonus.GreaterThan(preview.Bonus) {
			best, preview = b, p
		}
	}
	if !preview.Eligible {
		return ""
	}
	return t.Tf("deposit.bonus_preview", map[string]string{
		"Name":     best.Name,
		"Bonus":    preview.Bonus.StringFixed(2),
		"Wagering": preview.Wagering.StringFixed(2),
	})
}

// DepositConfirm submits the deposit.
func (h *Wallet) DepositConfirm() CallbackHandler {
	return func(c telebot.Context) error {
		st, err := h.d.inState(c, state.StateDepositConfirm)
		if err != nil {
			return err
		}
		method, amount, err := h.flowValues(c, st)
		if err != nil {
			return err
		}

		req := domain.DepositRequest{Amount: amount, Method: method.ID}
		key := idempotency.Key(ChatID(c), st.Value(dataFlow), method.ID, amount.String())

		var receipt domain.TransactionReceipt
		err = h.d.authed(c, func(token string) error {
			var err error
			receipt, err = h.d.Backend.CreateDeposit(RequestContext(c), token, key, req)
			return err
		})
		if err != nil {
			return err
		}
		return h.done(c, "deposit.created", receipt)
	}
}

// WithdrawAmount validates the amount against the method limits and the
// balance, then asks for the destination account. Nothing is sent to the
// backend until confirm.
func (h *Wallet) WithdrawAmount() Handler {
	return func(c telebot.Context) error {
		ctx := RequestContext(c)
		chatID := ChatID(c)
		t := h.d.tr(c)

		st, err := h.d.FSM.Current(ctx, chatID)
		if err != nil {
			return err
		}
		method, err := h.method(c, st.Value(dataMethod))
		if err != nil {
			return err
		}

		amount, err := payments.ParseAmount(c.Text())
		if err != nil {
			return h.d.retry(c, err)
		}
		if err := payments.ValidateAmount(method, amount); err != nil {
			return h.d.retry(c, err)
		}

		sess, err := h.d.Sessions.Current(ctx, chatID)
		if err != nil {
			return err
		}
		if sess == nil {
			return apperrors.NewUnauthorizedError("withdraw")
		}
		if err := payments.ValidateBalance(sess.User.Balance, amount); err != nil {
			return h.d.retry(c, err)
		}

		if err := h.d.FSM.TransitionTo(ctx, chatID, state.StateWithdrawAccount, map[string]string{dataAmount: amount.String()}); err != nil {
			return err
		}
		field := payments.AccountField(method.Kind)
		return send(c, t.T("withdraw.account_prompt."+field), h.d.Keyboard.Cancel(t))
	}
}

// WithdrawAccount validates the destination and shows the fee preview.
func (h *Wallet) WithdrawAccount() Handler {
	return func(c telebot.Context) error {
		ctx := RequestContext(c)
		chatID := ChatID(c)
		t := h.d.tr(c)

		st, err := h.d.FSM.Current(ctx, chatID)
		if err != nil {
			return err
		}
		method, amount, err := h.flowValues(c, st)
		if err != nil {
			return err
		}

		account := payments.NormalizeAccount(method.Kind, c.Text())
		field := payments.AccountField(method.Kind)
		if err := payments.ValidateAccount(method, map[string]string{field: account}); err != nil {
			return h.d.retry(c, err)
		}

		if err := h.d.FSM.TransitionTo(ctx, chatID, state.StateWithdrawConfirm, map[string]string{dataAccount: account}); err != nil {
			return err
		}

		fee := payments.PreviewWithdrawalFee(method, amount)
		text := t.Tf("withdraw.confirm", map[string]string{
			"Amount":  fee.Amount.StringFixed(2),
			"Fee":     fee.Fee.StringFixed(2),
			"Net":     fee.Net.StringFixed(2),
			"Method":  method.Name,
			"Account": payments.MaskAccount(account),
			"Time":    orDash(method.ProcessingTime),
		})
		return send(c, text, h.d.Keyboard.Confirm(t, CallbackWithdrawConfirm))
	}
}

// WithdrawConfirm submits the withdrawal.
func (h *Wallet) WithdrawConfirm() CallbackHandler {
	return func(c telebot.Context) error {
		st, err := h.d.inState(c, state.StateWithdrawConfirm)
		if err != nil {
			return err
		}
		method, amount, err := h.flowValues(c, st)
		if err != nil {
			return err
		}

		field := payments.AccountField(method.Kind)
		req := domain.WithdrawalRequest{
			Amount:         amount,
			Method:         method.ID,
			AccountDetails: map[string]string{field: st.Value(dataAccount)},
		}
		key := idempotency.Key(ChatID(c), st.Value(dataFlow), method.ID, amount.String(), st.Value(dataAccount))

		var receipt domain.TransactionReceipt
		err = h.d.authed(c, func(token string) error {
			var err error
			receipt, err = h.d.Backend.CreateWithdrawal(RequestContext(c), token, key, req)
			return err
		})
		if err != nil {
			return err
		}
		return h.done(c, "withdraw.created", receipt)
	}
}

func (h *Wallet) done(c telebot.Context, key string, receipt domain.TransactionReceipt) error {
	ctx := RequestContext(c)
	chatID := ChatID(c)
	t := h.d.tr(c)

	if err := h.d.FSM.ClearState(ctx, chatID); err != nil {
		return err
	}
	h.d.Queries.InvalidatePrefix(chatPrefix(chatID) + "tx:")
	if _, err := h.d.Sessions.Refresh(ctx, chatID); err != nil {
		h.d.Log.Warn("failed to refresh balance", slog.Int64("chat_id", chatID), slog.Any("error", err))
	}

	text := t.Tf(key, map[string]string{
		"ID":     orDash(receipt.TransactionID),
		"Status": t.T("tx.status." + string(receipt.Status)),
	})
	if receipt.Message != "" {
		text += "\n" + receipt.Message
	}

	kb := keyboard.NewInlineKeyboard()
	if receipt.RedirectURL != "" {
		kb.AddRow(keyboard.InlineButton{Text: t.T("buttons.pay"), URL: receipt.RedirectURL})
	}
	kb.AddRow(h.d.Keyboard.NavButton(t, "buttons.transactions", "/transactions"))
	return reply(c, text, h.d.Keyboard.Render(kb))
}

// flowValues reloads the method and amount collected earlier in the flow.
func (h *Wallet) flowValues(c telebot.Context, st *state.ChatState) (domain.PaymentMethod, decimal.Decimal, error) {
	method, err := h.method(c, st.Value(dataMethod))
	if err != nil {
		return domain.PaymentMethod{}, decimal.Zero, err
	}
	amount, err := decimal.NewFromString(st.Value(dataAmount))
	if err != nil {
		return domain.PaymentMethod{}, decimal.Zero, apperrors.NewStateError("flow lost its amount")
	}
	return method, amount, nil
}

// Transactions shows the first history page.
func (h *Wallet) Transactions() Handler {
	return func(c telebot.Context) error {
		return h.showTransactions(c, "", 1)
	}
}

// TransactionsPage handles "page|type" payloads from the pager.
func (h *Wallet) TransactionsPage() CallbackHandler {
	return func(c telebot.Context) error {
		args := keyboard.SplitArgs(Payload(c))
		page := 1
		if len(args) > 0 {
			if p, err := strconv.Atoi(args[0]); err == nil {
				page = p
			}
		}
		txType := ""
		if len(args) > 1 {
			txType = args[1]
		}
		return h.showTransactions(c, domain.TransactionType(txType), page)
	}
}

// TransactionsFilter switches between all, deposits and withdrawals.
func (h *Wallet) TransactionsFilter() CallbackHandler {
	return func(c telebot.Context) error {
		txType := domain.TransactionType(Payload(c))
		if txType != domain.TransactionDeposit && txType != domain.TransactionWithdrawal {
			txType = ""
		}
		return h.showTransactions(c, txType, 1)
	}
}

func (h *Wallet) showTransactions(c telebot.Context, txType domain.TransactionType, page int) error {
	t := h.d.tr(c)
	if page < 1 {
		page = 1
	}

	filter := apiclient.TransactionFilter{Type: txType, Page: page, PerPage: TransactionsPerPage}
	key := chatPrefix(ChatID(c)) + querycache.Key("tx", string(txType), strconv.Itoa(page))

	var list []domain.Transaction
	err := h.d.authed(c, func(token string) error {
		var err error
		list, err = querycache.Get(RequestContext(c), h.d.Queries, key, func(ctx context.Context) ([]domain.Transaction, error) {
			return h.d.Backend.Transactions(ctx, token, filter)
		})
		return err
	})
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString(t.Tf("tx.title", map[string]string{"Filter": t.T("tx.filter." + orAll(string(txType)))}))
	b.WriteString("\n\n")
	if len(list) == 0 {
		b.WriteString(t.T("tx.empty"))
	}
	for _, tx := range list {
		b.WriteString(transactionLine(t, tx) + "\n")
	}

	kb := keyboard.NewInlineKeyboard()
	if pager := keyboard.Open(page, len(list), TransactionsPerPage); pager.Visible() {
		row := keyboard.PaginationButtons(t, CallbackTxPage, pager)
		for i := range row {
			if row[i].Data != "" {
				row[i].Data = keyboard.JoinArgs(row[i].Data, string(txType))
			}
		}
		kb.AddRow(row...)
	}
	kb.AddRow(
		keyboard.InlineButton{Text: selected(t.T("tx.filter.all"), txType == ""), Unique: CallbackTxFilter, Data: allValue},
		keyboard.InlineButton{Text: selected(t.T("tx.filter.deposit"), txType == domain.TransactionDeposit), Unique: CallbackTxFilter, Data: string(domain.TransactionDeposit)},
		keyboard.InlineButton{Text: selected(t.T("tx.filter.withdrawal"), txType == domain.TransactionWithdrawal), Unique: CallbackTxFilter, Data: string(domain.TransactionWithdrawal)},
	)
	return reply(c, strings.TrimRight(b.String(), "\n"), h.d.Keyboard.Render(kb))
}

// methods loads the payment methods through the query cache.
func (h *Wallet) methods(c telebot.Context) ([]domain.PaymentMethod, error) {
	var methods []domain.PaymentMethod
	err := h.d.authed(c, func(token string) error {
		var err error
		methods, err = querycache.Get(RequestContext(c), h.d.Queries, chatPrefix(ChatID(c))+"methods",
			func(ctx context.Context) ([]domain.PaymentMethod, error) {
				return h.d.Backend.PaymentMethods(ctx, token)
			})
		return err
	})
	return methods, err
}

func (h *Wallet) method(c telebot.Context, id string) (domain.PaymentMethod, error) {
	methods, err := h.methods(c)
	if err != nil {
		return domain.PaymentMethod{}, err
	}
	for _, m := range methods {
		if m.ID == id {
			return m, nil
		}
	}
	return domain.PaymentMethod{}, apperrors.NewStateError("unknown payment method " + id)
}

func methodSummary(t i18n.Translator, m domain.PaymentMethod) string {
	return t.Tf("wallet.method", map[string]string{
		"Name": m.Name,
		"Min":  m.MinAmount.StringFixed(2),
		"Max":  limitText(t, m.MaxAmount),
		"Fee":  m.FeePercent.String(),
		"Time": orDash(m.ProcessingTime),
	})
}

func transactionLine(t i18n.Translator, tx domain.Transaction) string {
	sign := "+"
	if tx.Type == domain.TransactionWithdrawal {
		sign = "-"
	}
	return t.Tf("tx.line", map[string]string{
		"Date":     tx.CreatedAt.Format("2006-01-02"),
		"Sign":     sign,
		"Amount":   tx.Amount.StringFixed(2),
		"Currency": tx.Currency,
		"Method":   orDash(tx.Method),
		"Status":   t.T("tx.status." + string(tx.Status)),
	})
}

// limitText renders a zero maximum as "no limit".
func limitText(t i18n.Translator, max decimal.Decimal) string {
	if !max.IsPositive() {
		return t.T("wallet.no_limit")
	}
	return max.StringFixed(2)
}

func selected(label string, on bool) string {
	if on {
		return "• " + label
	}
	return label
}

func orAll(v string) string {
	if v == "" {
		return allValue
	}
	return v
}
