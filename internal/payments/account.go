package payments

import (
	"regexp"
	"strings"

	"github.com/ShiraazMoollatjie/goluhn"
	"github.com/go-playground/validator/v10"

	"github.com/Proton-105/spinhall-bot/internal/domain"
	apperrors "github.com/Proton-105/spinhall-bot/internal/errors"
)

// Account detail field names sent in WithdrawalRequest.AccountDetails.
const (
	FieldCardNumber = "cardNumber"
	FieldIBAN       = "iban"
	FieldAddress    = "address"
	FieldWallet     = "wallet"
)

var (
	ibanPattern   = regexp.MustCompile(`^[A-Z]{2}[0-9]{2}[A-Z0-9]{11,30}$`)
	cryptoPattern = regexp.MustCompile(`^[A-Za-z0-9]{26,64}$`)
	validate      = validator.New(validator.WithRequiredStructEnabled())
)

// AccountField is the single detail a method kind needs.
func AccountField(kind domain.MethodKind) string {
	switch kind {
	case domain.MethodCard:
		return FieldCardNumber
	case domain.MethodBank:
		return FieldIBAN
	case domain.MethodCrypto:
		return FieldAddress
	default:
		return FieldWallet
	}
}

// NormalizeAccount strips the separators people type into card numbers and IBANs.
func NormalizeAccount(kind domain.MethodKind, raw string) string {
	raw = strings.TrimSpace(raw)
	switch kind {
	case domain.MethodCard, domain.MethodBank:
		return strings.ToUpper(strings.NewReplacer(" ", "", "-", "").Replace(raw))
	default:
		return raw
	}
}

// ValidateAccount checks the withdrawal destination for method.
func ValidateAccount(method domain.PaymentMethod, details map[string]string) error {
	field := AccountField(method.Kind)
	value := details[field]
	if value == "" {
		return apperrors.NewFieldError("errors.account_missing", field+" is required", map[string]string{"Field": field})
	}

	var ok bool
	switch method.Kind {
	case domain.MethodCard:
		ok = len(value) >= 12 && len(value) <= 19 && goluhn.Validate(value) == nil
	case domain.MethodBank:
		ok = ibanPattern.MatchString(value)
	case domain.MethodCrypto:
		ok = cryptoPattern.MatchString(value)
	default:
		ok = validate.Var(value, "email") == nil || validate.Var(value, "e164") == nil
	}

	if !ok {
		return apperrors.NewFieldError("errors.account_invalid", field+" is invalid", map[string]string{"Field": field})
	}
	return nil
}

// MaskAccount hides all but the last four characters.
func MaskAccount(value string) string {
	if len(value) <= 4 {
		return value
	}
	return strings.Repeat("*", len(value)-4) + value[len(value)-4:]
}
