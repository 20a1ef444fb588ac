// Package payments holds the form checks run before a deposit, withdrawal
// or bonus is submitted, plus fee and bonus previews. The backend decides
// the real numbers; nothing here is authoritative.
package payments

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Proton-105/spinhall-bot/internal/domain"
	apperrors "github.com/Proton-105/spinhall-bot/internal/errors"
)

// ParseAmount reads a user-typed amount such as "1 250,50" or "1250.5".
func ParseAmount(s string) (decimal.Decimal, error) {
	clean := strings.NewReplacer(" ", "", "\u00a0", "", ",", ".").Replace(strings.TrimSpace(s))
	amount, err := decimal.NewFromString(clean)
	if err != nil || clean == "" {
		return decimal.Zero, apperrors.NewFieldError("errors.amount_invalid", "amount is not a number", map[string]string{"Input": s})
	}
	if !amount.Equal(amount.Truncate(2)) {
		return decimal.Zero, apperrors.NewFieldError("errors.amount_precision", "amount has more than two decimals", nil)
	}
	return amount, nil
}

// ValidateAmount checks amount against the method's limits. A zero maximum
// means the method has no upper bound.
func ValidateAmount(method domain.PaymentMethod, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperrors.NewFieldError("errors.amount_positive", "amount must be positive", nil)
	}

	tooLow := method.MinAmount.IsPositive() && amount.LessThan(method.MinAmount)
	tooHigh := method.MaxAmount.IsPositive() && amount.GreaterThan(method.MaxAmount)
	if tooLow || tooHigh {
		return apperrors.NewFieldError(
			"errors.amount_bounds",
			"amount "+amount.String()+" outside "+method.MinAmount.String()+".."+method.MaxAmount.String(),
			map[string]string{
				"Min":    method.MinAmount.StringFixed(2),
				"Max":    method.MaxAmount.StringFixed(2),
				"Amount": amount.StringFixed(2),
			},
		)
	}
	return nil
}

// ValidateBalance rejects withdrawals above the balance shown to the user.
// The backend re-checks against its ledger.
func ValidateBalance(balance, amount decimal.Decimal) error {
	if amount.GreaterThan(balance) {
		return apperrors.NewFieldError("errors.insufficient_balance", "amount exceeds balance",
			map[string]string{"Balance": balance.StringFixed(2)})
	}
	return nil
}
