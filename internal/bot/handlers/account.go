package handlers

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/spinhall-bot/internal/bot/keyboard"
	"github.com/Proton-105/spinhall-bot/internal/domain"
	apperrors "github.com/Proton-105/spinhall-bot/internal/errors"
	"github.com/Proton-105/spinhall-bot/internal/i18n"
	"github.com/Proton-105/spinhall-bot/internal/realtime"
	"github.com/Proton-105/spinhall-bot/internal/session"
	"github.com/Proton-105/spinhall-bot/internal/state"
)

// Account callback ids.
const (
	CallbackProfileEdit    = "pedit"
	CallbackProfileRefresh = "prefresh"
	CallbackLanguage       = "lang"
	CallbackNotifications  = "ntf"
)

// Notification screen actions carried in the ntf payload.
const (
	notifyConnect  = "connect"
	notifyMarkRead = "read"
	notifyClear    = "clear"
)

const (
	dataEmail    = "email"
	dataUsername = "username"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Account covers sign-in, sign-up, profile, settings and notifications.
type Account struct {
	d *Deps
}

func NewAccount(d *Deps) *Account {
	return &Account{d: d.withDefaults()}
}

// Start greets the chat and shows the main menu. Any open flow is dropped.
func (h *Account) Start() Handler {
	return func(c telebot.Context) error {
		ctx := RequestContext(c)
		chatID := ChatID(c)
		t := h.d.tr(c)

		if err := h.d.FSM.ClearState(ctx, chatID); err != nil {
			return err
		}

		sess, err := h.d.Sessions.Current(ctx, chatID)
		if err != nil && !apperrors.IsUnauthorized(err) {
			h.d.Log.Warn("failed to load session on start", slog.Int64("chat_id", chatID), slog.Any("error", err))
		}

		text := t.T("start.guest")
		if sess != nil && sess.User != nil {
			text = t.Tf("start.welcome", map[string]string{"Name": sess.User.DisplayName()})
		}
		return send(c, text, h.d.mainMenu(c))
	}
}

func (h *Account) Help() Handler {
	return func(c telebot.Context) error {
		return send(c, h.d.tr(c).T("help.text"), nil)
	}
}

// Menu re-sends the main menu.
func (h *Account) Menu() Handler {
	return func(c telebot.Context) error {
		return send(c, h.d.tr(c).T("main_menu.title"), h.d.mainMenu(c))
	}
}

// Unknown answers text that matched no command, menu button or flow.
func (h *Account) Unknown() Handler {
	return func(c telebot.Context) error {
		return send(c, h.d.tr(c).T("unknown"), h.d.mainMenu(c))
	}
}

// AwaitButtons answers typed text in a step that expects a button press.
func (h *Account) AwaitButtons() Handler {
	return func(c telebot.Context) error {
		t := h.d.tr(c)
		return send(c, t.T("flow.use_buttons"), h.d.Keyboard.Cancel(t))
	}
}

// Broken answers any input while a flow is parked in the error state.
func (h *Account) Broken() Handler {
	return func(c telebot.Context) error {
		t := h.d.tr(c)
		return send(c, t.T("flow.broken"), h.d.Keyboard.Cancel(t))
	}
}

// Cancel leaves any flow and returns to the main menu.
func (h *Account) Cancel() Handler {
	return func(c telebot.Context) error {
		if err := h.d.FSM.ClearState(RequestContext(c), ChatID(c)); err != nil {
			return err
		}
		if c.Callback() != nil {
			_ = c.Respond()
			_ = c.Delete()
		}
		return send(c, h.d.tr(c).T("cancel.done"), h.d.mainMenu(c))
	}
}

// Login starts the e-mail and password flow.
func (h *Account) Login() Handler {
	return func(c telebot.Context) error {
		ctx := RequestContext(c)
		chatID := ChatID(c)
		t := h.d.tr(c)

		token, err := h.d.Sessions.Token(ctx, chatID)
		if err != nil {
			return err
		}
		if token != "" {
			return send(c, t.T("login.already"), h.d.mainMenu(c))
		}

		if err := h.d.FSM.SetState(ctx, chatID, state.StateLoginEmail, nil); err != nil {
			return err
		}
		return reply(c, t.T("login.email_prompt"), h.d.Keyboard.Cancel(t))
	}
}

// LoginEmail receives the e-mail in the login flow.
func (h *Account) LoginEmail() Handler {
	return func(c telebot.Context) error {
		email, err := readEmail(c.Text())
		if err != nil {
			return h.d.retry(c, err)
		}

		if err := h.d.FSM.TransitionTo(RequestContext(c), ChatID(c), state.StateLoginPassword, map[string]string{dataEmail: email}); err != nil {
			return err
		}
		t := h.d.tr(c)
		return send(c, t.T("login.password_prompt"), h.d.Keyboard.Cancel(t))
	}
}

// LoginPassword signs the chat in. The password message is removed from the
// chat history when the bot has the right to do so.
func (h *Account) LoginPassword() Handler {
	return func(c telebot.Context) error {
		ctx := RequestContext(c)
		chatID := ChatID(c)
		password := c.Text()
		_ = c.Delete()

		st, err := h.d.FSM.Current(ctx, chatID)
		if err != nil {
			return err
		}

		sess, err := h.d.Sessions.Login(ctx, chatID, domain.Credentials{Email: st.Value(dataEmail), Password: password})
		if err != nil {
			return h.d.retry(c, err)
		}
		return h.signedIn(c, sess)
	}
}

// Register starts the sign-up flow.
func (h *Account) Register() Handler {
	return func(c telebot.Context) error {
		ctx := RequestContext(c)
		chatID := ChatID(c)
		t := h.d.tr(c)

		token, err := h.d.Sessions.Token(ctx, chatID)
		if err != nil {
			return err
		}
		if token != "" {
			return send(c, t.T("login.already"), h.d.mainMenu(c))
		}

		if err := h.d.FSM.SetState(ctx, chatID, state.StateRegisterEmail, nil); err != nil {
			return err
		}
		return reply(c, t.T("register.email_prompt"), h.d.Keyboard.Cancel(t))
	}
}

func (h *Account) RegisterEmail() Handler {
	return func(c telebot.Context) error {
		email, err := readEmail(c.Text())
		if err != nil {
			return h.d.retry(c, err)
		}
		if err := h.d.FSM.TransitionTo(RequestContext(c), ChatID(c), state.StateRegisterUsername, map[string]string{dataEmail: email}); err != nil {
			return err
		}
		t := h.d.tr(c)
		return send(c, t.T("register.username_prompt"), h.d.Keyboard.Cancel(t))
	}
}

func (h *Account) RegisterUsername() Handler {
	return func(c telebot.Context) error {
		username := strings.TrimSpace(c.Text())
		if err := validate.Var(username, "required,min=3,max=32,alphanum"); err != nil {
			return h.d.retry(c, apperrors.NewFieldError("errors.field.username", err.Error(),
				map[string]string{"Field": "Username", "Rule": "alphanum"}))
		}
		if err := h.d.FSM.TransitionTo(RequestContext(c), ChatID(c), state.StateRegisterPassword, map[string]string{dataUsername: username}); err != nil {
			return err
		}
		t := h.d.tr(c)
		return send(c, t.T("register.password_prompt"), h.d.Keyboard.Cancel(t))
	}
}

// RegisterPassword creates the account. A weak password keeps the flow on
// this step so e-mail and username need not be typed again.
func (h *Account) RegisterPassword() Handler {
	return func(c telebot.Context) error {
		ctx := RequestContext(c)
		chatID := ChatID(c)
		password := c.Text()
		_ = c.Delete()

		if err := session.ValidatePassword(password); err != nil {
			return h.d.retry(c, err)
		}

		st, err := h.d.FSM.Current(ctx, chatID)
		if err != nil {
			return err
		}
		sess, err := h.d.Sessions.Register(ctx, chatID, domain.Registration{
			Email:    st.Value(dataEmail),
			Username: st.Value(dataUsername),
			Password: password,
		})
		if err != nil {
			return h.d.retry(c, err)
		}
		return h.signedIn(c, sess)
	}
}

func (h *Account) signedIn(c telebot.Context, sess *session.Session) error {
	if err := h.d.FSM.ClearState(RequestContext(c), ChatID(c)); err != nil {
		return err
	}
	name := ""
	if sess != nil {
		name = sess.User.DisplayName()
	}
	return send(c, h.d.tr(c).Tf("login.success", map[string]string{"Name": name}), h.d.mainMenu(c))
}

// Logout ends the session. Local state is cleared even when the backend
// cannot be reached.
func (h *Account) Logout() Handler {
	return func(c telebot.Context) error {
		ctx := RequestContext(c)
		chatID := ChatID(c)

		if err := h.d.Sessions.Logout(ctx, chatID); err != nil {
			return err
		}
		if err := h.d.FSM.ClearState(ctx, chatID); err != nil {
			return err
		}
		h.d.Queries.InvalidatePrefix(chatPrefix(chatID))
		return send(c, h.d.tr(c).T("logout.done"), h.d.mainMenu(c))
	}
}

// Profile shows the signed-in user.
func (h *Account) Profile() Handler {
	return func(c telebot.Context) error {
		sess, err := h.d.Sessions.Current(RequestContext(c), ChatID(c))
		if err != nil {
			return err
		}
		if sess == nil {
			return apperrors.NewUnauthorizedError("profile")
		}
		return h.showProfile(c, sess.User)
	}
}

// ProfileRefresh reloads the user from the backend.
func (h *Account) ProfileRefresh() CallbackHandler {
	return func(c telebot.Context) error {
		sess, err := h.d.Sessions.Refresh(RequestContext(c), ChatID(c))
		if err != nil {
			return err
		}
		return h.showProfile(c, sess.User)
	}
}

// ProfileEdit asks for "field: value" lines.
func (h *Account) ProfileEdit() CallbackHandler {
	return func(c telebot.Context) error {
		if err := h.d.FSM.SetState(RequestContext(c), ChatID(c), state.StateProfileEdit, nil); err != nil {
			return err
		}
		t := h.d.tr(c)
		return reply(c, t.T("profile.edit_prompt"), h.d.Keyboard.Cancel(t))
	}
}

// ProfileEditInput saves the typed fields.
func (h *Account) ProfileEditInput() Handler {
	return func(c telebot.Context) error {
		ctx := RequestContext(c)
		chatID := ChatID(c)

		upd, err := parseProfileUpdate(c.Text())
		if err != nil {
			return h.d.retry(c, err)
		}
		user, err := h.d.Sessions.UpdateProfile(ctx, chatID, upd)
		if err != nil {
			return h.d.retry(c, err)
		}
		if err := h.d.FSM.ClearState(ctx, chatID); err != nil {
			return err
		}
		_ = send(c, h.d.tr(c).T("profile.saved"), nil)
		return h.showProfile(c, user)
	}
}

func (h *Account) showProfile(c telebot.Context, u *domain.User) error {
	t := h.d.tr(c)
	if u == nil {
		u = &domain.User{}
	}

	var b strings.Builder
	b.WriteString(t.Tf("profile.title", map[string]string{"Name": u.DisplayName()}))
	b.WriteString("\n" + t.Tf("profile.email", map[string]string{"Email": orDash(u.Email)}))
	fullName := strings.TrimSpace(u.FirstName + " " + u.LastName)
	b.WriteString("\n" + t.Tf("profile.name", map[string]string{"Name": orDash(fullName)}))
	b.WriteString("\n" + t.Tf("profile.phone", map[string]string{"Phone": orDash(u.Phone)}))
	b.WriteString("\n" + t.Tf("profile.balance", map[string]string{
		"Balance":  u.Balance.StringFixed(2),
		"Currency": u.Currency,
	}))
	b.WriteString("\n" + t.Tf("profile.bonus_balance", map[string]string{
		"Balance":  u.BonusBalance.StringFixed(2),
		"Currency": u.Currency,
	}))
	b.WriteString("\n" + t.Tf("profile.vip", map[string]string{"Level": strconv.Itoa(u.VIPLevel)}))
	b.WriteString("\n" + t.Tf("profile.kyc", map[string]string{"Status": orDash(u.KYCStatus)}))
	if !u.CreatedAt.IsZero() {
		b.WriteString("\n" + t.Tf("profile.since", map[string]string{"Date": u.CreatedAt.Format("2006-01-02")}))
	}

	kb := keyboard.NewInlineKeyboard().
		AddRow(
			keyboard.InlineButton{Text: t.T("buttons.edit"), Unique: CallbackProfileEdit},
			keyboard.InlineButton{Text: t.T("buttons.refresh"), Unique: CallbackProfileRefresh},
		).
		AddRow(
			h.d.Keyboard.NavButton(t, "buttons.transactions", "/transactions"),
			h.d.Keyboard.NavButton(t, "buttons.logout", "/logout"),
		)
	return reply(c, b.String(), h.d.Keyboard.Render(kb))
}

// Settings shows the language picker.
func (h *Account) Settings() Handler {
	return func(c telebot.Context) error {
		return h.showSettings(c, h.d.tr(c))
	}
}

// SetLanguage stores the picked language and redraws the settings and menu in it.
func (h *Account) SetLanguage() CallbackHandler {
	return func(c telebot.Context) error {
		lang := Payload(c)
		if !h.d.I18n.Has(lang) {
			return notify(c, h.d.tr(c).T("settings.unknown_language"), true)
		}
		if err := h.d.Prefs.SetLanguage(RequestContext(c), ChatID(c), lang); err != nil {
			return apperrors.NewStorageError(err)
		}

		t := h.d.I18n.Translator(lang)
		c.Set(TranslatorKey, t)
		if err := h.showSettings(c, t); err != nil {
			return err
		}
		return send(c, t.T("settings.language_saved"), h.d.mainMenu(c))
	}
}

func (h *Account) showSettings(c telebot.Context, t i18n.Translator) error {
	var buttons []keyboard.InlineButton
	for _, lang := range h.d.I18n.Languages() {
		label := h.d.I18n.Translator(lang).T("language.name")
		if lang == t.Lang() {
			label = "✅ " + label
		}
		buttons = append(buttons, keyboard.InlineButton{Text: label, Unique: CallbackLanguage, Data: lang})
	}

	kb := keyboard.NewInlineKeyboard().
		AddGrid(2, buttons...).
		AddRow(h.d.Keyboard.NavButton(t, "buttons.notifications", "/notifications"))
	text := t.Tf("settings.title", map[string]string{"Language": t.T("language.name")})
	return reply(c, text, h.d.Keyboard.Render(kb))
}

// Notifications lists realtime notifications for the chat.
func (h *Account) Notifications() Handler {
	return func(c telebot.Context) error {
		return h.showNotifications(c)
	}
}

// NotificationAction handles the connect, mark-read and clear buttons.
func (h *Account) NotificationAction() CallbackHandler {
	return func(c telebot.Context) error {
		chatID := ChatID(c)
		t := h.d.tr(c)
		center := h.d.Realtime

		switch Payload(c) {
		case notifyConnect:
			err := center.Channel().Connect(RequestContext(c))
			if errors.Is(err, realtime.ErrDisabled) {
				return notify(c, t.T("notifications.disabled"), true)
			}
			if err != nil {
				h.d.Log.Warn("realtime connect failed", slog.Int64("chat_id", chatID), slog.Any("error", err))
				return notify(c, t.T("notifications.connect_failed"), true)
			}
		case notifyMarkRead:
			center.MarkAllRead(chatID)
		case notifyClear:
			center.Clear(chatID)
		}
		return h.showNotifications(c)
	}
}

func (h *Account) showNotifications(c telebot.Context) error {
	chatID := ChatID(c)
	t := h.d.tr(c)
	center := h.d.Realtime

	var b strings.Builder
	b.WriteString(t.Tf("notifications.title", map[string]string{
		"Unread": strconv.Itoa(center.Unread(chatID)),
		"State":  t.T("realtime." + string(center.State())),
	}))
	b.WriteString("\n\n")

	list := center.List(chatID)
	if len(list) == 0 {
		b.WriteString(t.T("notifications.empty"))
	}
	for _, n := range list {
		mark := "•"
		if !n.Read {
			mark = "🔔"
		}
		b.WriteString(mark + " " + n.Title)
		if n.Body != "" {
			b.WriteString(": " + n.Body)
		}
		b.WriteString("\n")
	}

	kb := keyboard.NewInlineKeyboard()
	if center.State() != realtime.StateConnected {
		kb.AddRow(keyboard.InlineButton{Text: t.T("buttons.connect"), Unique: CallbackNotifications, Data: notifyConnect})
	}
	if len(list) > 0 {
		kb.AddRow(
			keyboard.InlineButton{Text: t.T("buttons.mark_read"), Unique: CallbackNotifications, Data: notifyMarkRead},
			keyboard.InlineButton{Text: t.T("buttons.clear"), Unique: CallbackNotifications, Data: notifyClear},
		)
	}
	return reply(c, strings.TrimRight(b.String(), "\n"), h.d.Keyboard.Render(kb))
}

func readEmail(text string) (string, error) {
	email := strings.TrimSpace(text)
	if err := validate.Var(email, "required,email"); err != nil {
		return "", apperrors.NewFieldError("errors.field.email", err.Error(),
			map[string]string{"Field": "Email", "Rule": "email"})
	}
	return email, nil
}

type profileForm struct {
	Username  string `validate:"omitempty,min=3,max=32,alphanum"`
	FirstName string `validate:"omitempty,max=64"`
	LastName  string `validate:"omitempty,max=64"`
	Phone     string `validate:"omitempty,e164"`
}

// parseProfileUpdate reads "field: value" lines for the editable profile fields.
func parseProfileUpdate(text string) (domain.ProfileUpdate, error) {
	var form profileForm
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			return domain.ProfileUpdate{}, apperrors.NewFieldError("errors.profile_form_line", "expected field: value",
				map[string]string{"Line": line})
		}
		value = strings.TrimSpace(value)
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "username":
			form.Username = value
		case "first_name":
			form.FirstName = value
		case "last_name":
			form.LastName = value
		case "phone":
			form.Phone = strings.ReplaceAll(value, " ", "")
		default:
			return domain.ProfileUpdate{}, apperrors.NewFieldError("errors.profile_form_key", "unknown field",
				map[string]string{"Field": strings.TrimSpace(key)})
		}
	}

	if form == (profileForm{}) {
		return domain.ProfileUpdate{}, apperrors.NewFieldError("errors.profile_form_empty", "nothing to update", nil)
	}
	if err := validate.Struct(form); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return domain.ProfileUpdate{}, apperrors.NewFieldError("errors.profile_form_field", fe.Error(),
				map[string]string{"Field": fe.Field(), "Rule": fe.Tag()})
		}
		return domain.ProfileUpdate{}, apperrors.NewValidationError(err.Error())
	}

	return domain.ProfileUpdate{
		Username:  form.Username,
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Phone:     form.Phone,
	}, nil
}

// chatPrefix scopes per-chat query cache keys.
func chatPrefix(chatID int64) string {
	return "chat:" + strconv.FormatInt(chatID, 10) + ":"
}
