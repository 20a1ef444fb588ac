package payments

import (
	"github.com/shopspring/decimal"

	"github.com/Proton-105/spinhall-bot/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// FeePreview is an estimate shown on the confirm screen. The backend's
// receipt is the only binding figure.
type FeePreview struct {
	Amount decimal.Decimal
	Fee    decimal.Decimal
	Net    decimal.Decimal
}

// PreviewWithdrawalFee estimates the method fee, rounded to cents.
func PreviewWithdrawalFee(method domain.PaymentMethod, amount decimal.Decimal) FeePreview {
	fee := amount.Mul(method.FeePercent).Div(hundred).Round(2)
	if fee.IsNegative() {
		fee = decimal.Zero
	}
	return FeePreview{Amount: amount, Fee: fee, Net: amount.Sub(fee)}
}

// BonusPreview estimates what a deposit would earn under a campaign.
type BonusPreview struct {
	Eligible bool
	Bonus    decimal.Decimal
	// Wagering is the total that must be bet before the bonus is withdrawable.
	Wagering decimal.Decimal
}

// PreviewBonus applies percentage, cap and wagering multiplier. Not binding.
func PreviewBonus(b domain.Bonus, deposit decimal.Decimal) BonusPreview {
	if !deposit.IsPositive() || deposit.LessThan(b.MinDeposit) {
		return BonusPreview{}
	}

	bonus := deposit.Mul(b.Percentage).Div(hundred)
	if b.MaxAmount.IsPositive() && bonus.GreaterThan(b.MaxAmount) {
		bonus = b.MaxAmount
	}
	bonus = bonus.Round(2)

	return BonusPreview{
		Eligible: true,
		Bonus:    bonus,
		Wagering: bonus.Mul(b.Wagering).Round(2),
	}
}
