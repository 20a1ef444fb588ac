package payments

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/Proton-105/spinhall-bot/internal/domain"
	apperrors "github.com/Proton-105/spinhall-bot/internal/errors"
)

// BonusFormTemplate is shown to admins as the expected input.
const BonusFormTemplate = `name: Welcome pack
type: welcome
percentage: 100
max_amount: 500
min_deposit: 20
wagering: 35
days: 30
audience: new`

// BonusForm is the admin campaign form after parsing.
type BonusForm struct {
	Name       string          `validate:"required,min=3,max=64"`
	Type       string          `validate:"required,oneof=welcome reload cashback freespins vip"`
	Percentage decimal.Decimal `validate:"-"`
	MaxAmount  decimal.Decimal `validate:"-"`
	MinDeposit decimal.Decimal `validate:"-"`
	Wagering   decimal.Decimal `validate:"-"`
	Days       int             `validate:"required,min=1,max=365"`
	Audience   string          `validate:"required,oneof=all new vip"`
}

// ParseBonusForm reads "key: value" lines. Unknown keys are rejected so typos
// do not silently drop a field.
func ParseBonusForm(text string) (BonusForm, error) {
	form := BonusForm{Audience: string(domain.AudienceAll)}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			return BonusForm{}, formError("errors.bonus_form_line", line)
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		var err error
		switch key {
		case "name":
			form.Name = value
		case "type":
			form.Type = strings.ToLower(value)
		case "percentage":
			form.Percentage, err = decimal.NewFromString(value)
		case "max_amount":
			form.MaxAmount, err = decimal.NewFromString(value)
		case "min_deposit":
			form.MinDeposit, err = decimal.NewFromString(value)
		case "wagering":
			form.Wagering, err = decimal.NewFromString(value)
		case "days":
			form.Days, err = strconv.Atoi(value)
		case "audience":
			form.Audience = strings.ToLower(value)
		default:
			return BonusForm{}, formError("errors.bonus_form_key", key)
		}
		if err != nil {
			return BonusForm{}, formError("errors.bonus_form_value", key)
		}
	}
	return form, nil
}

// Validate runs field rules and the cross-field sanity checks. These are form
// checks only; the backend enforces its own rules on submit.
func (f BonusForm) Validate() error {
	if err := validate.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return formError("errors.bonus_form_field", strings.ToLower(verrs[0].Field()))
		}
		return apperrors.NewValidationError(err.Error())
	}

	switch {
	case !f.Percentage.IsPositive() || f.Percentage.GreaterThan(decimal.NewFromInt(500)):
		return formError("errors.bonus_form_field", "percentage")
	case f.MaxAmount.IsNegative():
		return formError("errors.bonus_form_field", "max_amount")
	case f.MinDeposit.IsNegative():
		return formError("errors.bonus_form_field", "min_deposit")
	case f.Wagering.IsNegative() || f.Wagering.GreaterThan(decimal.NewFromInt(100)):
		return formError("errors.bonus_form_field", "wagering")
	}

	needsDeposit := f.Type == string(domain.BonusWelcome) || f.Type == string(domain.BonusReload)
	if needsDeposit && !f.MinDeposit.IsPositive() {
		return apperrors.NewFieldError("errors.bonus_min_deposit_required", "deposit bonus needs a minimum deposit", nil)
	}
	if f.MaxAmount.IsPositive() && f.MinDeposit.GreaterThan(f.MaxAmount.Mul(hundred).Div(f.Percentage)) {
		// A minimum deposit this high already earns more than the cap.
		return apperrors.NewFieldError("errors.bonus_min_deposit_cap", "minimum deposit exceeds the capped range",
			map[string]string{"MinDeposit": f.MinDeposit.String(), "MaxAmount": f.MaxAmount.String()})
	}
	return nil
}

// Bonus converts the form into the record sent to the backend.
func (f BonusForm) Bonus(now time.Time) domain.Bonus {
	from := now.UTC().Truncate(time.Minute)
	return domain.Bonus{
		Name:       f.Name,
		Type:       domain.BonusType(f.Type),
		Percentage: f.Percentage,
		MaxAmount:  f.MaxAmount,
		MinDeposit: f.MinDeposit,
		Wagering:   f.Wagering,
		ValidFrom:  from,
		ValidUntil: from.AddDate(0, 0, f.Days),
		Audience:   domain.Audience(f.Audience),
		Active:     true,
	}
}

// Fields returns the form as ordered key/value pairs for a confirm screen.
func (f BonusForm) Fields() [][2]string {
	return [][2]string{
		{"name", f.Name},
		{"type", f.Type},
		{"percentage", f.Percentage.String() + "%"},
		{"max_amount", f.MaxAmount.StringFixed(2)},
		{"min_deposit", f.MinDeposit.StringFixed(2)},
		{"wagering", "x" + f.Wagering.String()},
		{"days", strconv.Itoa(f.Days)},
		{"audience", f.Audience},
	}
}

func formError(key, detail string) error {
	return apperrors.NewFieldError(key, fmt.Sprintf("bonus form: %s", detail), map[string]string{"Field": detail})
}
