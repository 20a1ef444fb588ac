package state

import "time"

// State is one step of a multi-message conversation with a chat.
type State string

const (
	// StateIdle means the chat is not inside any flow and commands are routed normally.
	StateIdle State = "idle"

	StateLoginEmail    State = "login_email"
	StateLoginPassword State = "login_password"

	StateRegisterEmail    State = "register_email"
	StateRegisterUsername State = "register_username"
	StateRegisterPassword State = "register_password"

	// StateCatalogSearch waits for a free-text search query.
	StateCatalogSearch State = "catalog_search"

	StateDepositMethod  State = "deposit_method"
	StateDepositAmount  State = "deposit_amount"
	StateDepositConfirm State = "deposit_confirm"

	StateWithdrawMethod  State = "withdraw_method"
	StateWithdrawAmount  State = "withdraw_amount"
	StateWithdrawAccount State = "withdraw_account"
	StateWithdrawConfirm State = "withdraw_confirm"

	// StateProfileEdit waits for "field value" input.
	StateProfileEdit State = "profile_edit"

	StateAdminBonusForm    State = "admin_bonus_form"
	StateAdminBonusConfirm State = "admin_bonus_confirm"

	// StateError marks a flow that failed and must be reset by /cancel.
	StateError State = "error"
)

// ChatState is the persisted flow position of one chat together with the
// values collected so far.
type ChatState struct {
	ChatID       int64             `json:"chat_id"`
	CurrentState State             `json:"current_state"`
	Data         map[string]string `json:"data,omitempty"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// Value returns a collected value or "".
func (s *ChatState) Value(key string) string {
	if s == nil || s.Data == nil {
		return ""
	}
	return s.Data[key]
}

// Is reports whether the chat is currently in st. A nil state is idle.
func (s *ChatState) Is(st State) bool {
	if s == nil {
		return st == StateIdle
	}
	return s.CurrentState == st
}
