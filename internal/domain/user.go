// Package domain holds the records exchanged with the casino backend.
// The backend owns their lifecycle; the bot only displays and submits them.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is the cached account summary returned by /api/auth/me.
type User struct {
	ID           int64           `json:"id"`
	Username     string          `json:"username"`
	Email        string          `json:"email"`
	FirstName    string          `json:"firstName,omitempty"`
	LastName     string          `json:"lastName,omitempty"`
	Phone        string          `json:"phone,omitempty"`
	Currency     string          `json:"currency"`
	Balance      decimal.Decimal `json:"balance"`
	BonusBalance decimal.Decimal `json:"bonusBalance"`
	VIPLevel     int             `json:"vipLevel"`
	KYCStatus    string          `json:"kycStatus,omitempty"`
	Status       string          `json:"status,omitempty"`
	IsAdmin      bool            `json:"isAdmin"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// DisplayName prefers the username, then the e-mail.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}

// AuthResult is the body of a successful login or registration.
type AuthResult struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// Credentials are sent to /api/auth/login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is sent to /api/auth/register.
type Registration struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	Currency string `json:"currency,omitempty"`
}

// ProfileUpdate is sent to PUT /api/auth/profile. Empty fields are left unchanged.
type ProfileUpdate struct {
	Username  string `json:"username,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// UserStatus values used by the admin user screen.
const (
	UserStatusActive  = "active"
	UserStatusBlocked = "blocked"
)
