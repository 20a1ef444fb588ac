package domain

import "github.com/shopspring/decimal"

// MethodKind groups payment rails by the account details they need.
type MethodKind string

const (
	MethodCard    MethodKind = "card"
	MethodBank    MethodKind = "bank"
	MethodCrypto  MethodKind = "crypto"
	MethodEWallet MethodKind = "ewallet"
)

// PaymentMethod is one entry of /api/payment/methods.
type PaymentMethod struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Kind           MethodKind      `json:"type"`
	MinAmount      decimal.Decimal `json:"minAmount"`
	MaxAmount      decimal.Decimal `json:"maxAmount"`
	FeePercent     decimal.Decimal `json:"feePercent"`
	ProcessingTime string          `json:"processingTime"`
	Deposit        bool            `json:"deposit"`
	Withdrawal     bool            `json:"withdrawal"`
	Enabled        bool            `json:"enabled"`
}

// Supports reports whether the method can be used for t.
func (m PaymentMethod) Supports(t TransactionType) bool {
	if !m.Enabled {
		return false
	}
	switch t {
	case TransactionDeposit:
		return m.Deposit
	case TransactionWithdrawal:
		return m.Withdrawal
	default:
		return false
	}
}
