package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionDeposit    TransactionType = "deposit"
	TransactionWithdrawal TransactionType = "withdrawal"
)

type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusFailed    TransactionStatus = "failed"
	StatusRejected  TransactionStatus = "rejected"
)

// Final reports whether the backend will not change the status any more.
func (s TransactionStatus) Final() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusRejected
}

// Transaction is a deposit or withdrawal request as reported by the backend.
type Transaction struct {
	ID        string            `json:"id"`
	UserID    int64             `json:"userId,omitempty"`
	Username  string            `json:"username,omitempty"`
	Type      TransactionType   `json:"type"`
	Amount    decimal.Decimal   `json:"amount"`
	Currency  string            `json:"currency"`
	Method    string            `json:"method"`
	Status    TransactionStatus `json:"status"`
	Reference string            `json:"reference,omitempty"`
	Note      string            `json:"note,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// DepositRequest is sent to /api/professional-deposits/create.
type DepositRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Method   string          `json:"method"`
	Currency string          `json:"currency,omitempty"`
}

// WithdrawalRequest is sent to /api/professional-withdrawals/create.
type WithdrawalRequest struct {
	Amount         decimal.Decimal   `json:"amount"`
	Method         string            `json:"method"`
	Currency       string            `json:"currency,omitempty"`
	AccountDetails map[string]string `json:"accountDetails"`
}

// TransactionReceipt is the backend's answer to a create request.
type TransactionReceipt struct {
	TransactionID string            `json:"transactionId"`
	Status        TransactionStatus `json:"status"`
	Message       string            `json:"message,omitempty"`
	RedirectURL   string            `json:"redirectUrl,omitempty"`
}

// ReviewDecision is an admin verdict on a pending transaction.
type ReviewDecision string

const (
	DecisionApprove ReviewDecision = "approve"
	DecisionReject  ReviewDecision = "reject"
)
