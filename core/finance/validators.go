package finance

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/trezcool/ekklesia/core"
)

var (
	txKindTag  = "txkind"
	txKindText = "must be one of income or expense"

	maxAmount = decimal.New(1, 13) // 10 trillion; fits in int64 cents

	errAmountNotPositive = "amount must be greater than zero"
	errAmountPrecision   = "amount cannot have more than 2 decimal places"
	errAmountTooLarge    = "amount is too large"
	errCategoryKind      = "category kind does not match the transaction kind"
	errCategoryNotFound  = "category not found"
	errAccountNotFound   = "bank account not found"
)

// RegisterValidators registers the finance validations & translations.
func RegisterValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(txKindTag, txKindValidation)
	core.RegisterCustomTranslation(validate, translator, txKindTag, txKindText)
}

func txKindValidation(fl validator.FieldLevel) bool {
	return Kind(fl.Field().String()).Valid()
}

func errUnknownKind(s string) error {
	return errors.Errorf("unknown transaction kind %q", s)
}

func checkAmount(amount decimal.Decimal) error {
	var msg string
	switch {
	case !amount.IsPositive():
		msg = errAmountNotPositive
	case !amount.Equal(amount.Round(2)):
		msg = errAmountPrecision
	case amount.GreaterThanOrEqual(maxAmount):
		msg = errAmountTooLarge
	default:
		return nil
	}
	return core.NewValidationError(nil, core.FieldError{Field: "amount", Error: msg})
}
